// Package config provides application configuration loaded from environment
// variables (and a .env file when one is present).
// Use the package-level Get() function to obtain the singleton Config instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sub-config structs
// ──────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        // e.g. "3024"
	Env             string        // "development" | "production"
	ReadTimeout     time.Duration // default 10s
	WriteTimeout    time.Duration // default 30s (narrative calls are slow)
	ShutdownTimeout time.Duration // default 10s
	AllowedOrigins  []string      // CORS + WS origins; empty = allow all
	BetRateLimit    int           // req/s per IP on bet endpoints
	AIRateLimit     int           // req/s per IP on narrative endpoints
}

// RoundConfig holds round creation defaults.
type RoundConfig struct {
	DefaultDuration time.Duration // default 3600s
	DefaultMinBet   float64       // default 5
	IDFormat        string        // "hex" | "uuid"
}

// CatalogueConfig points at the tracked-protocol catalogue.
type CatalogueConfig struct {
	Path string // YAML file; "" = built-in catalogue
}

// NarrativeConfig holds the narrative-generation backend settings.
type NarrativeConfig struct {
	APIKey    string        // "" disables narrative endpoints
	BaseURL   string        // default "https://api.anthropic.com"
	Model     string        // default "claude-sonnet-4-20250514"
	MaxTokens int           // default 500
	Timeout   time.Duration // default 20s
	CacheTTL  time.Duration // default 60s, risk analysis only
	RPS       float64       // outbound requests per second, default 1
}

// AuthConfig holds operator authentication settings.
type AuthConfig struct {
	OperatorSecret string // HS256 key; "" = operator routes are open
}

// SchedulerConfig holds background loop intervals.
type SchedulerConfig struct {
	OddsInterval   time.Duration // default 5s
	ExpiryInterval time.Duration // default 10s
}

// ──────────────────────────────────────────────────────────────────────────────
// Top-level Config
// ──────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object for the entire application.
type Config struct {
	Server    ServerConfig
	Round     RoundConfig
	Catalogue CatalogueConfig
	Narrative NarrativeConfig
	Auth      AuthConfig
	Scheduler SchedulerConfig
}

// IsProd returns true when running in the production environment.
func (c *Config) IsProd() bool {
	return c.Server.Env == "production"
}

// NarrativeEnabled reports whether an API key was configured.
func (c *Config) NarrativeEnabled() bool {
	return c.Narrative.APIKey != ""
}

// Validate checks that all configuration values are present and valid.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if c.Round.DefaultDuration <= 0 {
		errs = append(errs, fmt.Errorf("ROUND_DEFAULT_DURATION must be positive, got %s", c.Round.DefaultDuration))
	}
	if c.Round.DefaultMinBet <= 0 {
		errs = append(errs, fmt.Errorf("ROUND_DEFAULT_MIN_BET must be positive, got %.4f", c.Round.DefaultMinBet))
	}
	if c.Round.IDFormat != "hex" && c.Round.IDFormat != "uuid" {
		errs = append(errs, fmt.Errorf("ID_FORMAT must be hex or uuid, got %q", c.Round.IDFormat))
	}
	if c.Narrative.Timeout <= 0 {
		errs = append(errs, errors.New("NARRATIVE_TIMEOUT must be positive"))
	}
	if c.Narrative.RPS <= 0 {
		errs = append(errs, errors.New("NARRATIVE_RPS must be positive"))
	}
	if c.Scheduler.OddsInterval <= 0 || c.Scheduler.ExpiryInterval <= 0 {
		errs = append(errs, errors.New("scheduler intervals must be positive"))
	}
	if c.Server.BetRateLimit <= 0 || c.Server.AIRateLimit <= 0 {
		errs = append(errs, errors.New("rate limits must be positive"))
	}

	// Operator routes must be protected in production.
	if c.IsProd() && c.Auth.OperatorSecret == "" {
		errs = append(errs, errors.New("OPERATOR_JWT_SECRET must be set in production"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Singleton
// ──────────────────────────────────────────────────────────────────────────────

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Get returns the singleton Config, loading it once from the environment.
// Panics if loading fails; call this early in main().
func Get() *Config {
	once.Do(func() {
		instance, loadErr = Load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("config: failed to load: %v", loadErr))
	}
	return instance
}

// MustLoad loads and validates configuration. Intended for use in main().
func MustLoad() *Config {
	cfg := Get()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: validation failed: %v", err))
	}
	return cfg
}

// ──────────────────────────────────────────────────────────────────────────────
// Loader
// ──────────────────────────────────────────────────────────────────────────────

// Load reads the environment (after applying .env, if present) into a new
// Config.  It does not validate.
func Load() (*Config, error) {
	// Missing .env is fine; real env vars take precedence over the file.
	_ = godotenv.Load()

	cfg := &Config{}

	// ── Server ────────────────────────────────────────────────────────────────
	betRL, err := getInt("RATE_LIMIT_BET_RPS", 30)
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_BET_RPS: %w", err)
	}
	aiRL, err := getInt("RATE_LIMIT_AI_RPS", 2)
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_AI_RPS: %w", err)
	}
	cfg.Server = ServerConfig{
		Port:            getEnv("SERVER_PORT", "3024"),
		Env:             getEnv("ENVIRONMENT", "development"),
		ReadTimeout:     getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		AllowedOrigins:  getList("ALLOWED_ORIGINS"),
		BetRateLimit:    betRL,
		AIRateLimit:     aiRL,
	}

	// ── Round ─────────────────────────────────────────────────────────────────
	minBet, err := getFloat("ROUND_DEFAULT_MIN_BET", 5)
	if err != nil {
		return nil, fmt.Errorf("ROUND_DEFAULT_MIN_BET: %w", err)
	}
	cfg.Round = RoundConfig{
		DefaultDuration: getDuration("ROUND_DEFAULT_DURATION", time.Hour),
		DefaultMinBet:   minBet,
		IDFormat:        getEnv("ID_FORMAT", "hex"),
	}

	// ── Catalogue ─────────────────────────────────────────────────────────────
	cfg.Catalogue = CatalogueConfig{
		Path: getEnv("CATALOGUE_PATH", ""),
	}

	// ── Narrative ─────────────────────────────────────────────────────────────
	maxTokens, err := getInt("NARRATIVE_MAX_TOKENS", 500)
	if err != nil {
		return nil, fmt.Errorf("NARRATIVE_MAX_TOKENS: %w", err)
	}
	rps, err := getFloat("NARRATIVE_RPS", 1)
	if err != nil {
		return nil, fmt.Errorf("NARRATIVE_RPS: %w", err)
	}
	cfg.Narrative = NarrativeConfig{
		APIKey:    getEnv("ANTHROPIC_API_KEY", ""),
		BaseURL:   getEnv("NARRATIVE_BASE_URL", "https://api.anthropic.com"),
		Model:     getEnv("NARRATIVE_MODEL", "claude-sonnet-4-20250514"),
		MaxTokens: maxTokens,
		Timeout:   getDuration("NARRATIVE_TIMEOUT", 20*time.Second),
		CacheTTL:  getDuration("NARRATIVE_CACHE_TTL", time.Minute),
		RPS:       rps,
	}

	// ── Auth ──────────────────────────────────────────────────────────────────
	cfg.Auth = AuthConfig{
		OperatorSecret: getEnv("OPERATOR_JWT_SECRET", ""),
	}

	// ── Scheduler ─────────────────────────────────────────────────────────────
	cfg.Scheduler = SchedulerConfig{
		OddsInterval:   getDuration("SCHEDULER_ODDS_INTERVAL", 5*time.Second),
		ExpiryInterval: getDuration("SCHEDULER_EXPIRY_INTERVAL", 10*time.Second),
	}

	return cfg, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helper functions
// ──────────────────────────────────────────────────────────────────────────────

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float %q", v)
	}
	return f, nil
}

// getDuration parses an env var as a Go duration string (e.g. "15m", "2s").
// A bare integer is read as seconds.  Falls back to defaultVal if the
// variable is unset or unparsable.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

// getList splits a comma-separated env var, dropping blanks.
func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
