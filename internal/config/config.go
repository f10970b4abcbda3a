package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/grump/agentguard/internal/alert"
	"github.com/grump/agentguard/internal/filter"
	"github.com/grump/agentguard/internal/injection"
	"github.com/grump/agentguard/internal/monitor"
	"github.com/grump/agentguard/internal/pipeline"
	"github.com/grump/agentguard/internal/ratelimit"
)

// ServerConfig holds the HTTP API listener settings.
type ServerConfig struct {
	Listen string `yaml:"listen"`
}

// LogConfig controls log verbosity and output shape.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// Config is the single YAML document covering every component.
type Config struct {
	Server        ServerConfig          `yaml:"server"`
	Log           LogConfig             `yaml:"log"`
	Pipeline      pipeline.Config       `yaml:"pipeline"`
	ContentFilter filter.Config         `yaml:"content_filter"`
	Injection     injection.Config      `yaml:"injection"`
	Guard         injection.GuardConfig `yaml:"guard"`
	RateLimit     ratelimit.Config      `yaml:"rate_limit"`
	Monitor       monitor.Config        `yaml:"monitor"`
	AuditLog      string                `yaml:"audit_log"`
	Alerts        []alert.Config        `yaml:"alerts"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server:        ServerConfig{Listen: ":8700"},
		Log:           LogConfig{Level: "info", Format: "json"},
		Pipeline:      pipeline.DefaultConfig(),
		ContentFilter: filter.DefaultConfig(),
		Injection:     injection.DefaultConfig(),
		Guard:         injection.DefaultGuardConfig(),
		RateLimit:     ratelimit.DefaultConfig(),
		Monitor:       monitor.DefaultConfig(),
	}
}

// DefaultPath returns the conventional config location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "agentguard.yaml"
	}
	return filepath.Join(home, ".agentguard", "config.yaml")
}

// Load reads configuration from a YAML file. Empty path falls back to
// the default location. Missing file returns defaults. Invalid YAML
// returns an error.
func Load(path string) (*Config, error) {
	cfg, _, err := LoadWithHash(path)
	return cfg, err
}

// LoadWithHash loads configuration and returns the SHA-256 hash of the
// raw YAML bytes on disk. When no file exists (defaults used), the
// hash is the SHA-256 of empty input.
func LoadWithHash(path string) (*Config, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256(nil)
			return Default(), "sha256:" + hex.EncodeToString(h[:]), nil
		}
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified fields.
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, hash, nil
}

// Validate rejects configurations that would misbehave at runtime.
// Construction-time failure beats a quietly wrong safety decision.
func (c *Config) Validate() error {
	if c.Injection.Sensitivity < 0 || c.Injection.Sensitivity > 1 {
		return fmt.Errorf("config: injection sensitivity %.2f outside [0, 1]", c.Injection.Sensitivity)
	}
	if c.Guard.MaxInputLength < 0 {
		return fmt.Errorf("config: negative max input length %d", c.Guard.MaxInputLength)
	}
	if c.RateLimit.BurstMultiplier < 1 {
		return fmt.Errorf("config: burst multiplier %.2f below 1", c.RateLimit.BurstMultiplier)
	}
	for name, v := range map[string]int{
		"requests_per_minute": c.RateLimit.RequestsPerMinute,
		"requests_per_hour":   c.RateLimit.RequestsPerHour,
		"requests_per_day":    c.RateLimit.RequestsPerDay,
		"cost_per_minute":     c.RateLimit.CostPerMinute,
		"cost_per_hour":       c.RateLimit.CostPerHour,
		"cost_per_day":        c.RateLimit.CostPerDay,
	} {
		if v < 0 {
			return fmt.Errorf("config: negative rate limit %s: %d", name, v)
		}
	}
	if c.RateLimit.Cooldown < 0 || c.RateLimit.CleanupInterval < 0 {
		return fmt.Errorf("config: negative rate limit duration")
	}
	if c.Monitor.DecayPerHour < 0 {
		return fmt.Errorf("config: negative risk decay %.2f", c.Monitor.DecayPerHour)
	}
	if c.Monitor.AutoBlockThreshold <= 0 {
		return fmt.Errorf("config: auto-block threshold %.2f must be positive", c.Monitor.AutoBlockThreshold)
	}
	for _, a := range c.Alerts {
		if a.URL == "" {
			return fmt.Errorf("config: alert destination missing url")
		}
		switch a.Format {
		case "", "generic", "slack", "pagerduty":
		default:
			return fmt.Errorf("config: unknown alert format %q", a.Format)
		}
	}
	return nil
}
