package core

import (
	"errors"
	"strings"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ProviderType identifies the kind of OpenAI-compatible API a profile talks to.
type ProviderType string

const (
	ProviderOpenAI     ProviderType = "openai"
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderOther      ProviderType = "other"
)

// ParseProviderType maps a configuration string to a ProviderType.
// Unknown values are treated as ProviderOther.
func ParseProviderType(s string) ProviderType {
	switch ProviderType(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderOpenAI:
		return ProviderOpenAI
	case ProviderOpenRouter:
		return ProviderOpenRouter
	default:
		return ProviderOther
	}
}

// Profile holds everything needed to talk to one provider endpoint.
// It is read-only for the duration of a call.
type Profile struct {
	Name        string
	Provider    ProviderType
	BaseURL     string
	APIKey      string // empty means no authentication
	Model       string
	Temperature float64
	MaxTokens   int
	// ModelsURL overrides the models endpoint derived from BaseURL.
	ModelsURL string
}

// Validate reports whether the profile can be used for a request.
func (p Profile) Validate() error {
	if strings.TrimSpace(p.BaseURL) == "" {
		return errors.New("base URL is required")
	}
	return nil
}

// ChatRequest is the JSON body of a chat completion request.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}
