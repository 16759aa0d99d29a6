package ai

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/doeshing/dexter/internal/domain"
)

type familyKind int

const (
	// familyOpenAI sends system and user as two chat messages.
	familyOpenAI familyKind = iota
	// familyMerged folds the system prompt into a single user message.
	familyMerged
	// familyAnthropic uses a separate system field and requires max_tokens.
	familyAnthropic
)

func (k familyKind) String() string {
	switch k {
	case familyMerged:
		return "merged"
	case familyAnthropic:
		return "anthropic"
	default:
		return "openai"
	}
}

// wireFamily describes how one provider family shapes requests and responses.
type wireFamily struct {
	kind familyKind
	path string
	// omittableMaxTokens families accept a retry without max_tokens.
	omittableMaxTokens bool
	buildRequest       func(model string, req domain.CompletionRequest, withMaxTokens bool) ([]byte, error)
	parseResponse      func([]byte) (string, error)
}

// familyFor picks the request shape from the provider kind or, for custom
// endpoints, from the base URL host.
func familyFor(t domain.Target) wireFamily {
	base := strings.ToLower(t.BaseURL)
	switch {
	case t.Kind == domain.ProviderAnthropic || strings.Contains(base, "anthropic.com"):
		return anthropicFamily()
	case t.Kind == domain.ProviderGemini || strings.Contains(base, "generativelanguage.googleapis.com"):
		return mergedFamily()
	default:
		return openaiFamily()
	}
}

func openaiFamily() wireFamily {
	return wireFamily{
		kind:               familyOpenAI,
		path:               "/chat/completions",
		omittableMaxTokens: true,
		buildRequest:       buildChatRequest,
		parseResponse:      parseChatResponse,
	}
}

func mergedFamily() wireFamily {
	return wireFamily{
		kind:               familyMerged,
		path:               "/chat/completions",
		omittableMaxTokens: true,
		buildRequest:       buildMergedRequest,
		parseResponse:      parseChatResponse,
	}
}

func anthropicFamily() wireFamily {
	return wireFamily{
		kind:          familyAnthropic,
		path:          "/messages",
		buildRequest:  buildAnthropicRequest,
		parseResponse: parseAnthropicResponse,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

func optionalMaxTokens(req domain.CompletionRequest, include bool) *int {
	if !include || req.MaxTokens <= 0 {
		return nil
	}
	v := req.MaxTokens
	return &v
}

func buildChatRequest(model string, req domain.CompletionRequest, withMaxTokens bool) ([]byte, error) {
	return json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserInput},
		},
		Temperature: req.Temperature,
		MaxTokens:   optionalMaxTokens(req, withMaxTokens),
	})
}

func buildMergedRequest(model string, req domain.CompletionRequest, withMaxTokens bool) ([]byte, error) {
	content := req.UserInput
	if strings.TrimSpace(req.SystemPrompt) != "" {
		content = req.SystemPrompt + "\n\n" + req.UserInput
	}
	return json.Marshal(chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: content}},
		Temperature: req.Temperature,
		MaxTokens:   optionalMaxTokens(req, withMaxTokens),
	})
}

type anthropicRequest struct {
	Model       string        `json:"model"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

func buildAnthropicRequest(model string, req domain.CompletionRequest, _ bool) ([]byte, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = domain.DefaultMaxTokens
	}
	return json.Marshal(anthropicRequest{
		Model:       model,
		System:      req.SystemPrompt,
		Messages:    []chatMessage{{Role: "user", Content: req.UserInput}},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	})
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseChatResponse(data []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", &ParseError{Err: err, Body: truncate(string(data), domain.MaxErrorBodyChars)}
	}
	if len(resp.Choices) == 0 {
		return "", &EmptyCandidateError{}
	}
	choice := resp.Choices[0]
	if choice.Message.Content == nil || strings.TrimSpace(*choice.Message.Content) == "" {
		return "", emptyCandidate(choice.FinishReason)
	}
	return *choice.Message.Content, nil
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseAnthropicResponse(data []byte) (string, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", &ParseError{Err: err, Body: truncate(string(data), domain.MaxErrorBodyChars)}
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", emptyCandidate(resp.StopReason)
	}
	return strings.Join(parts, "\n"), nil
}

// applyAuth sets the credential headers for the target's scheme.
func applyAuth(h http.Header, t domain.Target) error {
	if t.Auth.RequiresKey() && strings.TrimSpace(t.APIKey) == "" {
		return &TargetConfigError{Target: t.Label(), Reason: fmt.Sprintf("auth scheme %s requires an API key", t.Auth)}
	}
	switch t.Auth {
	case domain.AuthNone:
	case domain.AuthAPIKey:
		h.Set("Authorization", "Api-Key "+t.APIKey)
	case domain.AuthXAPIKey:
		h.Set("x-api-key", t.APIKey)
		h.Set("anthropic-version", domain.AnthropicVersion)
	default:
		h.Set("Authorization", "Bearer "+t.APIKey)
	}
	return nil
}
