package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/doeshing/dexter/internal/domain"
)

type modelListResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels queries every distinct provider endpoint behind the client's
// targets and returns the union of model identifiers, sorted. It fails only
// when no endpoint produced a model.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	found := make(map[string]struct{})
	visited := make(map[string]struct{})
	var failures []string

	for _, target := range c.targets {
		endpointKey := strings.Join([]string{target.BaseURL, string(target.Auth), target.APIKey}, "\x00")
		if _, done := visited[endpointKey]; done {
			continue
		}
		visited[endpointKey] = struct{}{}

		models, err := c.discover(ctx, target)
		if err != nil {
			c.logger.Warn("model discovery failed", map[string]interface{}{
				"provider": target.DisplayName,
				"error":    err.Error(),
			})
			failures = append(failures, fmt.Sprintf("- [%s] %v", target.Label(), err))
			continue
		}
		for _, m := range models {
			found[m] = struct{}{}
		}
	}

	if len(found) == 0 {
		return nil, &ExhaustedError{Failures: failures}
	}
	out := make([]string, 0, len(found))
	for m := range found {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (c *Client) discover(ctx context.Context, target domain.Target) ([]string, error) {
	headers := http.Header{}
	var endpoint string

	switch familyFor(target).kind {
	case familyMerged:
		// The native listing lives beside the OpenAI-compatible path, not under it.
		endpoint = strings.TrimSuffix(target.BaseURL, "/openai") + "/models"
		if target.APIKey == "" {
			return nil, &TargetConfigError{Target: target.Label(), Reason: "model listing requires an API key"}
		}
		headers.Set("x-goog-api-key", target.APIKey)
	default:
		endpoint = target.BaseURL + "/models"
		if err := applyAuth(headers, target); err != nil {
			return nil, err
		}
	}

	models, err := c.fetchModels(ctx, endpoint, headers)
	if err == nil || target.Kind != domain.ProviderOllama {
		return models, err
	}

	native := strings.TrimSuffix(target.BaseURL, "/v1") + "/api/tags"
	c.logger.Debug("falling back to native model listing", map[string]interface{}{"endpoint": native})
	nativeModels, nativeErr := c.fetchModels(ctx, native, headers)
	if nativeErr != nil {
		return nil, fmt.Errorf("%v; native listing: %w", err, nativeErr)
	}
	return nativeModels, nil
}

func (c *Client) fetchModels(ctx context.Context, endpoint string, headers http.Header) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &TargetConfigError{Target: endpoint, Reason: err.Error()}
	}
	httpReq.Header = headers.Clone()

	status, body, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, classifyStatus(status, body, domain.MaxErrorBodyChars)
	}
	return parseModelList(body)
}

func parseModelList(body []byte) ([]string, error) {
	var resp modelListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ParseError{Err: err, Body: truncate(string(body), domain.MaxErrorBodyChars)}
	}
	var out []string
	for _, d := range resp.Data {
		if id := strings.TrimSpace(d.ID); id != "" {
			out = append(out, id)
		}
	}
	for _, m := range resp.Models {
		if name := strings.TrimPrefix(strings.TrimSpace(m.Name), "models/"); name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("model listing was empty")
	}
	return out, nil
}
