// Package domain defines core business entities and value objects for Dexter.
//
// This file contains the provider catalog: the provider kinds Dexter knows how to
// talk to, their default endpoints, auth schemes and model lists.
package domain

import (
	"os"
	"strings"
)

// ProviderKind identifies an LLM vendor (or a generic OpenAI-compatible endpoint).
type ProviderKind string

const (
	ProviderGemini    ProviderKind = "gemini"
	ProviderDeepseek  ProviderKind = "deepseek"
	ProviderGroq      ProviderKind = "groq"
	ProviderBaseten   ProviderKind = "baseten"
	ProviderOllama    ProviderKind = "ollama"
	ProviderAnthropic ProviderKind = "anthropic"
	ProviderOpenAI    ProviderKind = "openai"
	ProviderCustom    ProviderKind = "custom"
)

// ProviderAuth selects how the API key is attached to a request.
type ProviderAuth string

const (
	AuthBearer  ProviderAuth = "bearer"
	AuthAPIKey  ProviderAuth = "api_key"
	AuthXAPIKey ProviderAuth = "x_api_key"
	AuthNone    ProviderAuth = "none"
)

// RequiresKey reports whether the scheme sends a credential.
func (a ProviderAuth) RequiresKey() bool {
	return a != AuthNone
}

// ProviderConfig is one provider entry from the config file.
type ProviderConfig struct {
	Kind      ProviderKind `yaml:"kind" validate:"required,oneof=gemini deepseek groq baseten ollama anthropic openai custom"`
	Name      string       `yaml:"name,omitempty"`
	APIKey    string       `yaml:"api_key,omitempty"`
	APIKeyEnv string       `yaml:"api_key_env,omitempty"`
	BaseURL   string       `yaml:"base_url,omitempty" validate:"omitempty,url"`
	Auth      ProviderAuth `yaml:"auth,omitempty" validate:"omitempty,oneof=bearer api_key x_api_key none"`
	Enabled   *bool        `yaml:"enabled,omitempty"`
	Models    []string     `yaml:"models,omitempty"`
}

// DisplayName returns the configured name, or the kind's canonical label.
func (k ProviderKind) DisplayName() string {
	switch k {
	case ProviderGemini:
		return "GEMINI"
	case ProviderDeepseek:
		return "DEEPSEEK"
	case ProviderGroq:
		return "GROQ"
	case ProviderBaseten:
		return "BASETEN"
	case ProviderOllama:
		return "OLLAMA"
	case ProviderAnthropic:
		return "ANTHROPIC"
	case ProviderOpenAI:
		return "OPENAI"
	default:
		return "CUSTOM"
	}
}

// DefaultBaseURL is the chat API root used when a provider entry leaves base_url empty.
func (k ProviderKind) DefaultBaseURL() string {
	switch k {
	case ProviderGemini:
		return "https://generativelanguage.googleapis.com/v1beta/openai"
	case ProviderDeepseek:
		return "https://api.deepseek.com/v1"
	case ProviderGroq:
		return "https://api.groq.com/openai/v1"
	case ProviderBaseten:
		return "https://inference.baseten.co/v1"
	case ProviderOllama:
		return DefaultOllamaBaseURL
	case ProviderAnthropic:
		return "https://api.anthropic.com/v1"
	default:
		return "https://api.openai.com/v1"
	}
}

// DefaultAuth is the auth scheme a provider kind expects.
func (k ProviderKind) DefaultAuth() ProviderAuth {
	switch k {
	case ProviderBaseten:
		return AuthAPIKey
	case ProviderOllama:
		return AuthNone
	case ProviderAnthropic:
		return AuthXAPIKey
	default:
		return AuthBearer
	}
}

// DefaultModels lists the models offered when a provider entry has none.
func (k ProviderKind) DefaultModels() []string {
	switch k {
	case ProviderGemini:
		return []string{"gemini-2.5-flash-lite", "gemini-2.5-flash", "gemini-2.5-pro"}
	case ProviderDeepseek:
		return []string{"deepseek-chat", "deepseek-reasoner"}
	case ProviderGroq:
		return []string{"llama-3.3-70b-versatile", "llama3-8b-8192", "mixtral-8x7b-32768"}
	case ProviderBaseten:
		return []string{"deepseek-ai/DeepSeek-V3-0324", "meta-llama/Llama-3.3-70B-Instruct"}
	case ProviderOllama:
		return []string{DefaultOllamaModel, "qwen2.5", "gemma3"}
	case ProviderAnthropic:
		return []string{"claude-3-5-haiku-latest", "claude-sonnet-4-20250514"}
	case ProviderOpenAI:
		return []string{"gpt-4o-mini"}
	default:
		return nil
	}
}

// DisplayName returns the configured name, or the kind's label when blank.
func (p ProviderConfig) DisplayName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return p.Kind.DisplayName()
}

// IsEnabled defaults to true when the entry does not say otherwise.
func (p ProviderConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// ResolvedAPIKey prefers the inline key, then the named environment variable.
func (p ProviderConfig) ResolvedAPIKey() string {
	if key := strings.TrimSpace(p.APIKey); key != "" {
		return key
	}
	if p.APIKeyEnv != "" {
		return strings.TrimSpace(os.Getenv(p.APIKeyEnv))
	}
	return ""
}

// Normalized fills kind defaults and trims user-supplied values.
func (p ProviderConfig) Normalized() ProviderConfig {
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if p.BaseURL == "" {
		p.BaseURL = p.Kind.DefaultBaseURL()
	}

	models := make([]string, 0, len(p.Models))
	for _, m := range p.Models {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	if len(models) == 0 {
		models = p.Kind.DefaultModels()
	}
	p.Models = models

	p.APIKey = p.ResolvedAPIKey()
	p.Name = strings.TrimSpace(p.Name)

	// A bearer default is indistinguishable from "unset", so kinds with a
	// different native scheme win.
	if p.Auth == "" || p.Auth == AuthBearer {
		p.Auth = p.Kind.DefaultAuth()
	}
	return p
}

// IsConfigured reports whether the provider can be dispatched to.
func (p ProviderConfig) IsConfigured() bool {
	if !p.IsEnabled() {
		return false
	}
	if !p.Auth.RequiresKey() {
		return true
	}
	return strings.TrimSpace(p.APIKey) != ""
}
