// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"chatstream/internal/core"
)

const (
	// DefaultConfigPath is read when CONFIG_PATH is not set.
	DefaultConfigPath = "config.yaml"

	DefaultPort            = "8080"
	DefaultBodySizeLimit   = "10M"
	DefaultMetricsPath     = "/metrics"
	DefaultTemperature     = 0.7
	DefaultMaxTokens       = 4096
	DefaultCacheTTLSeconds = 24 * 60 * 60
	DefaultCachePath       = "data/models-cache.json"

	openAIBaseURL     = "https://api.openai.com/v1"
	openAIModel       = "gpt-4o-mini"
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	openRouterModel   = "openai/gpt-4o-mini"
)

// Config holds the application configuration
type Config struct {
	Server        ServerConfig             `yaml:"server"`
	Logging       LogConfig                `yaml:"logging"`
	Metrics       MetricsConfig            `yaml:"metrics"`
	ModelsCache   ModelsCacheConfig        `yaml:"models_cache"`
	ActiveProfile string                   `yaml:"active_profile"`
	Profiles      map[string]ProfileConfig `yaml:"profiles"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `yaml:"port"`
	// MasterKey protects the /v1 routes when set.
	MasterKey string `yaml:"master_key"`
	// BodySizeLimit caps request bodies, e.g. "10M" or "512K".
	BodySizeLimit string `yaml:"body_size_limit"`
}

// LogConfig selects the log handler.
type LogConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// ModelsCacheConfig configures the model list cache.
type ModelsCacheConfig struct {
	// Type is none, local or redis.
	Type     string `yaml:"type"`
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
	// TTL in seconds.
	TTL int `yaml:"ttl"`
}

// ProfileConfig is one LLM connection profile.
type ProfileConfig struct {
	Provider    string   `yaml:"provider"`
	BaseURL     string   `yaml:"base_url"`
	APIKey      string   `yaml:"api_key"`
	Model       string   `yaml:"model"`
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   int      `yaml:"max_tokens"`
	ModelsURL   string   `yaml:"models_url"`
}

// CacheTTL returns the model cache TTL as a duration.
func (c ModelsCacheConfig) CacheTTL() time.Duration {
	return time.Duration(c.TTL) * time.Second
}

// Load reads .env, then CONFIG_PATH (default config.yaml), then environment overrides.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultConfigPath
	}
	return load(path, ".env")
}

func load(configPath, envFile string) (*Config, error) {
	if envFile != "" {
		// Missing .env is fine; set variables are never overridden.
		_ = godotenv.Load(envFile)
	}

	cfg := buildDefaultConfig()
	if err := readConfigFile(cfg, configPath); err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if len(cfg.Profiles) == 0 {
		cfg.Profiles = envProfiles()
	}
	applyProfileDefaults(cfg)
	if cfg.ActiveProfile == "" {
		cfg.ActiveProfile = defaultActiveProfile(cfg.Profiles)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          DefaultPort,
			BodySizeLimit: DefaultBodySizeLimit,
		},
		Metrics: MetricsConfig{
			Endpoint: DefaultMetricsPath,
		},
		ModelsCache: ModelsCacheConfig{
			Type: "none",
			Path: DefaultCachePath,
			TTL:  DefaultCacheTTLSeconds,
		},
	}
}

func readConfigFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(expandString(string(data))), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString replaces ${VAR} and ${VAR:-default}. A variable that is unset
// or empty takes the default; without a default the placeholder is kept.
func expandString(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := placeholderPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if parts[2] != "" {
			return parts[3]
		}
		return match
	})
}

func applyEnvOverrides(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("PORT", &cfg.Server.Port)
	setString("MASTER_KEY", &cfg.Server.MasterKey)
	setString("BODY_SIZE_LIMIT", &cfg.Server.BodySizeLimit)
	setString("LOG_FORMAT", &cfg.Logging.Format)
	setString("LOG_LEVEL", &cfg.Logging.Level)
	setString("METRICS_ENDPOINT", &cfg.Metrics.Endpoint)
	setString("ACTIVE_PROFILE", &cfg.ActiveProfile)
	setString("MODELS_CACHE_TYPE", &cfg.ModelsCache.Type)
	setString("MODELS_CACHE_PATH", &cfg.ModelsCache.Path)
	setString("REDIS_URL", &cfg.ModelsCache.RedisURL)

	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid METRICS_ENABLED %q: %w", v, err)
		}
		cfg.Metrics.Enabled = enabled
	}
	if v := os.Getenv("MODELS_CACHE_TTL"); v != "" {
		ttl, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MODELS_CACHE_TTL %q: %w", v, err)
		}
		cfg.ModelsCache.TTL = ttl
	}
	return nil
}

// envProfiles derives profiles from well-known provider keys.
func envProfiles() map[string]ProfileConfig {
	profiles := make(map[string]ProfileConfig)
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		profiles["openai"] = ProfileConfig{
			Provider: string(core.ProviderOpenAI),
			BaseURL:  envOr("OPENAI_BASE_URL", openAIBaseURL),
			APIKey:   key,
			Model:    envOr("OPENAI_MODEL", openAIModel),
		}
	}
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		profiles["openrouter"] = ProfileConfig{
			Provider: string(core.ProviderOpenRouter),
			BaseURL:  openRouterBaseURL,
			APIKey:   key,
			Model:    envOr("OPENROUTER_MODEL", openRouterModel),
		}
	}
	return profiles
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func applyProfileDefaults(cfg *Config) {
	for name, p := range cfg.Profiles {
		if p.Temperature == nil {
			t := DefaultTemperature
			p.Temperature = &t
		}
		if p.MaxTokens == 0 {
			p.MaxTokens = DefaultMaxTokens
		}
		if p.Provider == "" {
			p.Provider = name
		}
		cfg.Profiles[name] = p
	}
}

// defaultActiveProfile prefers "openai", then the first name in order.
func defaultActiveProfile(profiles map[string]ProfileConfig) string {
	if _, ok := profiles["openai"]; ok {
		return "openai"
	}
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	for name, p := range c.Profiles {
		if strings.TrimSpace(p.BaseURL) == "" {
			return fmt.Errorf("profile %q: base_url is required", name)
		}
	}
	if c.ActiveProfile != "" {
		if _, ok := c.Profiles[c.ActiveProfile]; !ok {
			return fmt.Errorf("active profile %q is not configured", c.ActiveProfile)
		}
	}
	switch c.ModelsCache.Type {
	case "", "none", "local", "redis":
	default:
		return fmt.Errorf("unknown models cache type %q", c.ModelsCache.Type)
	}
	if c.ModelsCache.TTL < 0 {
		return fmt.Errorf("models cache ttl must not be negative")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Endpoint, "/") {
		return fmt.Errorf("metrics endpoint %q must start with /", c.Metrics.Endpoint)
	}
	return ValidateBodySizeLimit(c.Server.BodySizeLimit)
}

// CoreProfiles converts the configured profiles into core.Profile values keyed by name.
func (c *Config) CoreProfiles() map[string]core.Profile {
	out := make(map[string]core.Profile, len(c.Profiles))
	for name, p := range c.Profiles {
		profile := core.Profile{
			Name:      name,
			Provider:  core.ParseProviderType(p.Provider),
			BaseURL:   p.BaseURL,
			APIKey:    resolvedOrEmpty(p.APIKey),
			Model:     p.Model,
			MaxTokens: p.MaxTokens,
			ModelsURL: p.ModelsURL,
		}
		if p.Temperature != nil {
			profile.Temperature = *p.Temperature
		}
		out[name] = profile
	}
	return out
}

// resolvedOrEmpty drops a value that still holds an unexpanded ${VAR}, so an
// unset key means "no key" rather than a literal placeholder.
func resolvedOrEmpty(v string) string {
	if strings.Contains(v, "${") {
		return ""
	}
	return v
}

var bodySizePattern = regexp.MustCompile(`^(\d+)([KMG]B?)?$`)

const (
	minBodySize = 1 << 10
	maxBodySize = 100 << 20
)

// ValidateBodySizeLimit accepts an empty value or a size such as "10M",
// "512K" or "1048576" between 1KB and 100MB.
func ValidateBodySizeLimit(limit string) error {
	limit = strings.ToUpper(strings.TrimSpace(limit))
	if limit == "" {
		return nil
	}
	m := bodySizePattern.FindStringSubmatch(limit)
	if m == nil {
		return fmt.Errorf("invalid body size limit %q: expected a number with optional K, M or G suffix", limit)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid body size limit %q: %w", limit, err)
	}
	switch strings.TrimSuffix(m[2], "B") {
	case "K":
		n <<= 10
	case "M":
		n <<= 20
	case "G":
		n <<= 30
	}
	if n < minBodySize || n > maxBodySize {
		return fmt.Errorf("body size limit %q must be between 1K and 100M", limit)
	}
	return nil
}
