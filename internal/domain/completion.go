package domain

import "fmt"

// CachePolicy says whether a completion may read or write the response cache.
type CachePolicy int

const (
	// CacheNormal reads and writes the cache.
	CacheNormal CachePolicy = iota
	// CacheBypass always reaches the network and never touches the cache.
	CacheBypass
)

func (p CachePolicy) String() string {
	if p == CacheBypass {
		return "bypass"
	}
	return "normal"
}

// Target is one fully-resolved provider/model dispatch destination.
type Target struct {
	DisplayName string
	Kind        ProviderKind
	APIKey      string
	BaseURL     string
	Auth        ProviderAuth
	Model       string
}

// TargetKey is the identity used for de-duplication. Kind is not part of it:
// two entries pointing at the same endpoint with the same credentials are one target.
type TargetKey struct {
	DisplayName string
	BaseURL     string
	Auth        ProviderAuth
	APIKey      string
	Model       string
}

// Key returns the de-duplication identity.
func (t Target) Key() TargetKey {
	return TargetKey{
		DisplayName: t.DisplayName,
		BaseURL:     t.BaseURL,
		Auth:        t.Auth,
		APIKey:      t.APIKey,
		Model:       t.Model,
	}
}

// Label is the "provider | model" form used in error reports.
func (t Target) Label() string {
	return fmt.Sprintf("%s | %s", t.DisplayName, t.Model)
}

// CompletionRequest is one chat-style completion ask.
type CompletionRequest struct {
	SystemPrompt string
	UserInput    string
	Temperature  float64
	MaxTokens    int // 0 means unset
}
