package chat

import (
	"net/http"
	"unicode/utf8"

	"golang.org/x/net/http/httpguts"

	"chatstream/internal/core"
)

const (
	openRouterReferer = "https://mini-ai-1c.local"
	openRouterTitle   = "Mini AI 1C Agent"
)

// providerHeaders adds the identification headers a provider expects.
// New providers register an entry here.
var providerHeaders = map[core.ProviderType]func(h http.Header){
	core.ProviderOpenRouter: func(h http.Header) {
		h.Set("HTTP-Referer", openRouterReferer)
		h.Set("X-Title", openRouterTitle)
	},
}

// BuildHeaders returns the header set for a request made with profile.
// Authorization is only sent when the profile has an API key; a key that
// cannot be encoded as a visible-ASCII header value fails instead of being
// dropped.
func BuildHeaders(profile core.Profile) (http.Header, error) {
	h := http.Header{}
	h.Set("Content-Type", "application/json")

	if profile.APIKey != "" {
		value := "Bearer " + profile.APIKey
		if !httpguts.ValidHeaderFieldValue(value) || !isASCII(value) {
			return nil, core.NewHeaderEncodingError("Authorization", nil)
		}
		h.Set("Authorization", value)
	}

	if set, ok := providerHeaders[profile.Provider]; ok {
		set(h)
	}
	return h, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
