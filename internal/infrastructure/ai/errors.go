package ai

import (
	"fmt"
	"net/http"
	"strings"
)

// TargetConfigError means a target cannot be dispatched as configured.
type TargetConfigError struct {
	Target string
	Reason string
}

func (e *TargetConfigError) Error() string {
	return fmt.Sprintf("invalid target configuration: %s", e.Reason)
}

// TransportError wraps a network-level failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProviderErrorKind classifies a non-success HTTP response.
type ProviderErrorKind int

const (
	ProviderErrorGeneric ProviderErrorKind = iota
	ProviderErrorRateLimit
	ProviderErrorContentPolicy
)

// ProviderError is a non-2xx response from a provider.
type ProviderError struct {
	StatusCode int
	Kind       ProviderErrorKind
	Body       string
}

func (e *ProviderError) Error() string {
	switch e.Kind {
	case ProviderErrorRateLimit:
		return fmt.Sprintf("HTTP %d: rate limited or quota exhausted, trying fallback", e.StatusCode)
	case ProviderErrorContentPolicy:
		return fmt.Sprintf("HTTP %d: blocked by content policy, trying fallback", e.StatusCode)
	default:
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
	}
}

// ParseError means a 2xx body could not be decoded.
type ParseError struct {
	Err  error
	Body string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EmptyCandidateError means the provider answered without usable text.
type EmptyCandidateError struct {
	FinishReason string
	Filtered     bool
}

func (e *EmptyCandidateError) Error() string {
	switch {
	case e.Filtered:
		return fmt.Sprintf("response blocked by content filter (finish_reason=%s)", e.FinishReason)
	case e.FinishReason != "":
		return fmt.Sprintf("model stopped without output (finish_reason=%s)", e.FinishReason)
	default:
		return "response contained no candidates"
	}
}

// ExhaustedError aggregates one line per failed target.
type ExhaustedError struct {
	Failures []string
}

func (e *ExhaustedError) Error() string {
	if len(e.Failures) == 0 {
		return "no completion targets available"
	}
	return "all completion targets failed:\n" + strings.Join(e.Failures, "\n")
}

var contentFilterMarkers = []string{"content_filter", "content filter", "safety", "prohibited", "blocklist", "recitation", "content policy"}

func isContentFiltered(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range contentFilterMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func emptyCandidate(finishReason string) *EmptyCandidateError {
	return &EmptyCandidateError{
		FinishReason: finishReason,
		Filtered:     finishReason != "" && isContentFiltered(finishReason),
	}
}

// classifyStatus turns an error response into a ProviderError.
func classifyStatus(status int, body []byte, limit int) *ProviderError {
	text := string(body)
	lower := strings.ToLower(text)
	kind := ProviderErrorGeneric
	switch {
	case status == http.StatusTooManyRequests,
		strings.Contains(lower, "quota"),
		strings.Contains(lower, "rate limit"),
		strings.Contains(lower, "rate_limit"),
		strings.Contains(lower, "resource_exhausted"):
		kind = ProviderErrorRateLimit
	case isContentFiltered(text):
		kind = ProviderErrorContentPolicy
	}
	return &ProviderError{StatusCode: status, Kind: kind, Body: truncate(strings.TrimSpace(text), limit)}
}

// isMaxTokensUnsupported detects a 400 rejecting the max_tokens parameter.
func isMaxTokensUnsupported(status int, body []byte) bool {
	if status != http.StatusBadRequest {
		return false
	}
	lower := strings.ToLower(string(body))
	if !strings.Contains(lower, "max_tokens") && !strings.Contains(lower, "max tokens") {
		return false
	}
	for _, hint := range []string{"unsupported", "not supported", "unknown", "unrecognized", "not allowed", "max_completion_tokens"} {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
