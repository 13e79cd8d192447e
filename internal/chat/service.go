package chat

import (
	"context"
	"log/slog"
	"time"

	"chatstream/internal/core"
	"chatstream/internal/modelcache"
)

// Service binds the Client to an injected profile resolver and an
// optional model list cache.
type Service struct {
	client   *Client
	profiles core.ProfileResolver
	cache    modelcache.Cache
	logger   *slog.Logger
}

// NewService creates a Service. cache may be nil.
func NewService(client *Client, profiles core.ProfileResolver, cache modelcache.Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:   client,
		profiles: profiles,
		cache:    cache,
		logger:   logger,
	}
}

// Resolve returns the profile called name, or the active profile when name is empty.
func (s *Service) Resolve(name string) (core.Profile, error) {
	var (
		profile core.Profile
		ok      bool
	)
	if s.profiles != nil {
		if name == "" {
			profile, ok = s.profiles.ActiveProfile()
		} else {
			profile, ok = s.profiles.Lookup(name)
		}
	}
	if !ok {
		return core.Profile{}, core.NewProfileMissingError(name)
	}
	return profile, nil
}

// Stream resolves the profile and streams a chat completion into sink.
func (s *Service) Stream(ctx context.Context, profileName string, messages []core.Message, sink core.FragmentSink) (*Completion, error) {
	profile, err := s.Resolve(profileName)
	if err != nil {
		return nil, err
	}
	return s.client.StreamChatCompletion(ctx, messages, profile, sink)
}

// Models lists the models of the resolved profile, served from the cache when fresh.
func (s *Service) Models(ctx context.Context, profileName string) ([]string, error) {
	profile, err := s.Resolve(profileName)
	if err != nil {
		return nil, err
	}

	key := modelcache.Key(ModelsURL(profile), profile.APIKey)
	if s.cache != nil {
		entry, err := s.cache.Get(ctx, key)
		if err != nil {
			core.LoggerFor(ctx, s.logger).Warn("model cache read failed", "error", err)
		} else if entry != nil {
			return append([]string(nil), entry.Models...), nil
		}
	}

	models, err := s.client.FetchModels(ctx, profile)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, models)
	return models, nil
}

// Probe tests the connection of the resolved profile. It always goes to the
// network and refreshes the model cache on success.
func (s *Service) Probe(ctx context.Context, profileName string) (string, error) {
	profile, err := s.Resolve(profileName)
	if err != nil {
		return "", err
	}

	models, err := s.client.FetchModels(ctx, profile)
	if err == nil {
		s.store(ctx, modelcache.Key(ModelsURL(profile), profile.APIKey), models)
	}
	return connectionResult(models, err)
}

func (s *Service) store(ctx context.Context, key string, models []string) {
	if s.cache == nil {
		return
	}
	entry := &modelcache.Entry{Models: models, UpdatedAt: time.Now()}
	if err := s.cache.Set(ctx, key, entry); err != nil {
		core.LoggerFor(ctx, s.logger).Warn("model cache write failed", "error", err)
	}
}
