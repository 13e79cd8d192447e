// Package chat implements the streaming chat-completion client, the model
// lister and the connection probe for OpenAI-compatible APIs.
package chat

import (
	"net/http"

	"chatstream/internal/core"
	"chatstream/internal/llmclient"
	"chatstream/internal/prompt"
)

const (
	chatCompletionsPath = "/chat/completions"
	modelsPath          = "/models"
)

// ChatURL returns the chat completions endpoint of profile. The base URL is
// used verbatim.
func ChatURL(profile core.Profile) string {
	return profile.BaseURL + chatCompletionsPath
}

// BuildChatRequest assembles the streaming chat completion request for
// messages: the system instruction first, then messages in order.
func BuildChatRequest(messages []core.Message, profile core.Profile) (llmclient.Request, error) {
	header, err := BuildHeaders(profile)
	if err != nil {
		return llmclient.Request{}, err
	}

	return llmclient.Request{
		Provider: string(profile.Provider),
		Method:   http.MethodPost,
		URL:      ChatURL(profile),
		Header:   header,
		Body: &core.ChatRequest{
			Model:       profile.Model,
			Messages:    prompt.WithSystem(messages),
			Stream:      true,
			Temperature: profile.Temperature,
			MaxTokens:   profile.MaxTokens,
		},
	}, nil
}

func validateProfile(profile core.Profile) error {
	if err := profile.Validate(); err != nil {
		return core.NewInvalidProfileError(err.Error())
	}
	return nil
}
