package chat

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"chatstream/internal/core"
	"chatstream/internal/llmclient"
	"chatstream/internal/metrics"
)

// ConnectionFailedPrefix starts the message of every failed connection test.
const ConnectionFailedPrefix = "Connection failed: "

// ModelsURL returns the models endpoint of profile. An explicit ModelsURL
// wins; otherwise a BaseURL ending in /chat/completions has that suffix
// replaced by /models, and any other BaseURL gets /models appended after
// its trailing slashes are removed.
func ModelsURL(profile core.Profile) string {
	if profile.ModelsURL != "" {
		return profile.ModelsURL
	}
	if base, ok := strings.CutSuffix(profile.BaseURL, chatCompletionsPath); ok {
		return base + modelsPath
	}
	return strings.TrimRight(profile.BaseURL, "/") + modelsPath
}

// FetchModels lists the model identifiers offered by the provider of
// profile, sorted lexicographically. Entries without a string id are skipped.
func (c *Client) FetchModels(ctx context.Context, profile core.Profile) ([]string, error) {
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	provider := string(profile.Provider)

	header, err := BuildHeaders(profile)
	if err != nil {
		return nil, err
	}

	resp, err := c.llm.Do(ctx, llmclient.Request{
		Provider: provider,
		Method:   http.MethodGet,
		URL:      ModelsURL(profile),
		Header:   header,
	})
	if err != nil {
		c.metrics.ObserveModelList(provider, metrics.OutcomeFailed)
		return nil, err
	}

	models, err := parseModelIDs(provider, resp.Body)
	if err != nil {
		c.metrics.ObserveModelList(provider, metrics.OutcomeFailed)
		return nil, err
	}

	c.metrics.ObserveModelList(provider, metrics.OutcomeSuccess)
	core.LoggerFor(ctx, c.logger).Debug("fetched models", "provider", provider, "count", len(models))
	return models, nil
}

// TestConnection reports whether the provider of profile answers a model
// listing. It has no network behavior of its own.
func (c *Client) TestConnection(ctx context.Context, profile core.Profile) (string, error) {
	models, err := c.FetchModels(ctx, profile)
	return connectionResult(models, err)
}

func connectionResult(models []string, err error) (string, error) {
	if err != nil {
		return "", fmt.Errorf("%s%w", ConnectionFailedPrefix, err)
	}
	return fmt.Sprintf("Success! Found %d models.", len(models)), nil
}

// parseModelIDs reads data[].id from an OpenAI-style models response.
func parseModelIDs(provider string, body []byte) ([]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, core.NewDecodeError(provider, "models response is not valid JSON")
	}

	models := []string{}
	if data := gjson.GetBytes(body, "data"); data.IsArray() {
		data.ForEach(func(_, item gjson.Result) bool {
			if id := item.Get("id"); id.Type == gjson.String {
				models = append(models, id.Str)
			}
			return true
		})
	}
	sort.Strings(models)
	return models, nil
}
