// Package config loads footprint-estimator settings from an optional YAML
// file and FOOTPRINT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/rshade/footprint-estimator/internal/carbon"
)

// Defaults.
const (
	DefaultListenAddr  = ":5000"
	DefaultGridFeedURL = "https://www.taipower.com.tw/d006/loadFile.aspx?ty=l&did=49"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultCORSMaxAge  = 86400

	// MinCoefficientTTL is the shortest accepted coefficient TTL (1 minute).
	MinCoefficientTTL = time.Minute

	// MaxCoefficientTTL is the longest accepted coefficient TTL (7 days).
	MaxCoefficientTTL = 7 * 24 * time.Hour
)

// Suggestion generators.
const (
	SuggestionsRules = "rules"
	SuggestionsPool  = "pool"
)

// History backends.
const (
	HistoryMemory   = "memory"
	HistoryFile     = "file"
	HistoryPostgres = "postgres"
)

// Environment variables.
const (
	EnvListenAddr       = "FOOTPRINT_LISTEN_ADDR"
	EnvGridFeedURL      = "FOOTPRINT_GRID_FEED_URL"
	EnvGridFeedEncoding = "FOOTPRINT_GRID_FEED_ENCODING"
	EnvCoefficientTTL   = "FOOTPRINT_COEFFICIENT_TTL"
	EnvFetchTimeout     = "FOOTPRINT_FETCH_TIMEOUT"
	EnvLogLevel         = "FOOTPRINT_LOG_LEVEL"
	EnvLogFormat        = "FOOTPRINT_LOG_FORMAT"
	EnvSuggestions      = "FOOTPRINT_SUGGESTIONS"
	EnvHistoryBackend   = "FOOTPRINT_HISTORY_BACKEND"
	EnvHistoryPath      = "FOOTPRINT_HISTORY_PATH"
	EnvDatabaseURL      = "FOOTPRINT_DATABASE_URL"
	EnvCORSOrigins      = "FOOTPRINT_CORS_ALLOWED_ORIGINS"
	EnvCORSCredentials  = "FOOTPRINT_CORS_ALLOW_CREDENTIALS"
	EnvCORSMaxAge       = "FOOTPRINT_CORS_MAX_AGE"
)

// ErrWildcardCredentials is returned when credentials are allowed for any origin.
var ErrWildcardCredentials = errors.New("cannot enable credentials with wildcard origin (*); security risk")

// Config is the complete service configuration.
type Config struct {
	ListenAddr string     `yaml:"listen_addr"`
	Feed       FeedConfig `yaml:"feed"`

	// Suggestions selects the suggestion generator: "rules" or "pool".
	Suggestions string `yaml:"suggestions"`

	Log     LogConfig     `yaml:"log"`
	History HistoryConfig `yaml:"history"`
	CORS    CORSConfig    `yaml:"cors"`
}

// FeedConfig configures the grid-intensity feed and coefficient cache.
type FeedConfig struct {
	URL            string        `yaml:"url"`
	Encoding       string        `yaml:"encoding"`
	CoefficientTTL time.Duration `yaml:"coefficient_ttl"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
}

// UnmarshalYAML implements yaml.Unmarshaler. Durations accept integer
// seconds ("3600") as well as duration strings ("1h"); fields absent from
// the node keep their current values.
func (f *FeedConfig) UnmarshalYAML(value *yaml.Node) error {
	raw := struct {
		URL            string `yaml:"url"`
		Encoding       string `yaml:"encoding"`
		CoefficientTTL string `yaml:"coefficient_ttl"`
		FetchTimeout   string `yaml:"fetch_timeout"`
	}{URL: f.URL, Encoding: f.Encoding}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	f.URL = raw.URL
	f.Encoding = raw.Encoding
	if raw.CoefficientTTL != "" {
		d, err := parseDuration(raw.CoefficientTTL)
		if err != nil {
			return fmt.Errorf("feed.coefficient_ttl: %w", err)
		}
		f.CoefficientTTL = d
	}
	if raw.FetchTimeout != "" {
		d, err := parseDuration(raw.FetchTimeout)
		if err != nil {
			return fmt.Errorf("feed.fetch_timeout: %w", err)
		}
		f.FetchTimeout = d
	}
	return nil
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HistoryConfig selects where estimates are persisted.
type HistoryConfig struct {
	Backend     string `yaml:"backend"`
	Path        string `yaml:"path"`
	DatabaseURL string `yaml:"database_url"`
}

// CORSConfig configures cross-origin access to the HTTP API.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
	MaxAge           int      `yaml:"max_age"`

	// AllowAll is set when "*" was among the origins.
	AllowAll bool `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr: DefaultListenAddr,
		Feed: FeedConfig{
			URL:            DefaultGridFeedURL,
			Encoding:       carbon.EncodingUTF8,
			CoefficientTTL: carbon.DefaultTTL,
			FetchTimeout:   carbon.DefaultFetchTimeout,
		},
		Suggestions: SuggestionsRules,
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		History: HistoryConfig{
			Backend: HistoryMemory,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:5173"},
			MaxAge:         DefaultCORSMaxAge,
		},
	}
}

// Load builds a Config from the defaults, the YAML file at path (skipped
// when path is empty) and the environment, in that order. Invalid
// environment values are logged and ignored; an invalid file is an error.
func Load(path string, logger zerolog.Logger) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv(logger)
	cfg.CORS.normalize(logger)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	logger.Debug().
		Str("listen_addr", cfg.ListenAddr).
		Str("feed_url", cfg.Feed.URL).
		Dur("coefficient_ttl", cfg.Feed.CoefficientTTL).
		Str("suggestions", cfg.Suggestions).
		Str("history_backend", cfg.History.Backend).
		Strs("allowed_origins", cfg.CORS.AllowedOrigins).
		Int("max_age", cfg.CORS.MaxAge).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) applyEnv(logger zerolog.Logger) {
	setString(&c.ListenAddr, EnvListenAddr)
	setString(&c.Feed.URL, EnvGridFeedURL)
	setString(&c.Feed.Encoding, EnvGridFeedEncoding)
	setString(&c.Log.Level, EnvLogLevel)
	setString(&c.Log.Format, EnvLogFormat)
	setString(&c.History.Path, EnvHistoryPath)
	setString(&c.History.DatabaseURL, EnvDatabaseURL)

	if v := os.Getenv(EnvCoefficientTTL); v != "" {
		if ttl, err := ParseTTL(v); err == nil {
			c.Feed.CoefficientTTL = ttl
		} else {
			logger.Warn().Err(err).Str("value", v).Msgf("invalid %s, using %s", EnvCoefficientTTL, c.Feed.CoefficientTTL)
		}
	}

	if v := os.Getenv(EnvFetchTimeout); v != "" {
		if d, err := parseDuration(v); err == nil && d > 0 {
			c.Feed.FetchTimeout = d
		} else {
			logger.Warn().Str("value", v).Msgf("invalid %s, using %s", EnvFetchTimeout, c.Feed.FetchTimeout)
		}
	}

	if v := os.Getenv(EnvSuggestions); v != "" {
		switch s := strings.ToLower(v); s {
		case SuggestionsRules, SuggestionsPool:
			c.Suggestions = s
		default:
			logger.Warn().Str("value", v).Msgf("invalid %s, using %s", EnvSuggestions, c.Suggestions)
		}
	}

	if v := os.Getenv(EnvHistoryBackend); v != "" {
		switch b := strings.ToLower(v); b {
		case HistoryMemory, HistoryFile, HistoryPostgres:
			c.History.Backend = b
		default:
			logger.Warn().Str("value", v).Msgf("invalid %s, using %s", EnvHistoryBackend, c.History.Backend)
		}
	}

	if v := os.Getenv(EnvCORSOrigins); v != "" {
		c.CORS.AllowedOrigins = strings.Split(v, ",")
	}

	if v := os.Getenv(EnvCORSCredentials); v != "" {
		c.CORS.AllowCredentials = strings.ToLower(v) == "true"
	}

	if v := os.Getenv(EnvCORSMaxAge); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.CORS.MaxAge = parsed
		} else {
			logger.Warn().Str("value", v).Msgf("invalid %s, using default", EnvCORSMaxAge)
			c.CORS.MaxAge = DefaultCORSMaxAge
		}
	}
}

// normalize trims origins and moves "*" into AllowAll.
func (c *CORSConfig) normalize(logger zerolog.Logger) {
	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, o := range c.AllowedOrigins {
		trimmed := strings.TrimSpace(o)
		if trimmed == "*" {
			c.AllowAll = true
			continue
		}
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.AllowedOrigins = origins

	if c.AllowAll {
		logger.Warn().Msg("CORS wildcard origin (*) is insecure; use specific origins in production")
	}
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen address must not be empty")
	}
	if c.Feed.CoefficientTTL < MinCoefficientTTL || c.Feed.CoefficientTTL > MaxCoefficientTTL {
		return fmt.Errorf("%w: got %s", ErrInvalidTTL, c.Feed.CoefficientTTL)
	}
	if c.Feed.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.Feed.FetchTimeout)
	}
	switch strings.ToLower(c.Feed.Encoding) {
	case carbon.EncodingUTF8, carbon.EncodingBig5:
	default:
		return fmt.Errorf("unsupported feed encoding %q", c.Feed.Encoding)
	}
	switch c.Suggestions {
	case SuggestionsRules, SuggestionsPool:
	default:
		return fmt.Errorf("unknown suggestions generator %q", c.Suggestions)
	}
	switch c.History.Backend {
	case HistoryMemory:
	case HistoryFile:
		if c.History.Path == "" {
			return errors.New("history backend \"file\" requires a path")
		}
	case HistoryPostgres:
		if c.History.DatabaseURL == "" {
			return errors.New("history backend \"postgres\" requires a database URL")
		}
	default:
		return fmt.Errorf("unknown history backend %q", c.History.Backend)
	}
	if c.CORS.AllowAll && c.CORS.AllowCredentials {
		return ErrWildcardCredentials
	}
	if c.CORS.MaxAge < 0 {
		return fmt.Errorf("CORS max age must not be negative, got %d", c.CORS.MaxAge)
	}
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
