package domain

import "time"

// File permissions constants
const (
	// DirectoryPermissions is the default permission for directories (rwxr-xr-x)
	DirectoryPermissions = 0o755
	// SecureFilePermissions is the permission for sensitive files (rw-------)
	SecureFilePermissions = 0o600
)

// Provider defaults
const (
	// DefaultOllamaBaseURL is the local inference endpoint used as the last-resort target
	DefaultOllamaBaseURL = "http://localhost:11434/v1"
	// DefaultOllamaModel is a small model that ships with most Ollama installs
	DefaultOllamaModel = "llama3.2"
	// DefaultRouterModel is the routing model when none is configured
	DefaultRouterModel = "gemini-2.5-flash-lite"
	// DefaultExecutorModel is the generation model when none is configured
	DefaultExecutorModel = "gemini-2.5-flash-lite"
	// AnthropicVersion is sent with every x-api-key request
	AnthropicVersion = "2023-06-01"
)

// Completion defaults
const (
	// DefaultMaxTokens is used when a wire family requires max_tokens and none was given
	DefaultMaxTokens = 1024
	// DefaultTemperature keeps command generation near-deterministic
	DefaultTemperature = 0.1
	// DefaultCacheCapacity bounds the in-memory response cache
	DefaultCacheCapacity = 128
	// MaxErrorBodyChars truncates provider error bodies in messages
	MaxErrorBodyChars = 500
)

// Pipeline defaults
const (
	// BusyPollInterval is the event-loop tick while a background task is in flight
	BusyPollInterval = 50 * time.Millisecond
	// IdlePollInterval is the event-loop tick while idle
	IdlePollInterval = 200 * time.Millisecond
	// ProgressBuffer is the capacity of the progress relay
	ProgressBuffer = 64
	// MaxContextFiles caps the directory scan fed to prompts
	MaxContextFiles = 50
	// RouterConfidenceThreshold is the minimum confidence for a direct selection
	RouterConfidenceThreshold = 0.7
)

// History constants
const (
	// DefaultHistoryLimit is the default number of history records to display
	DefaultHistoryLimit = 20
)

// Time formats
const (
	// TimestampFormat is the standard timestamp format
	TimestampFormat = time.RFC3339
)
