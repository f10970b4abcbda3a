package ratelimit

import "time"

// Config sets per-subject quota limits across the three tracking
// windows. Minute windows honor the burst multiplier; hour and day
// windows are firm.
type Config struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	RequestsPerHour   int `yaml:"requests_per_hour"`
	RequestsPerDay    int `yaml:"requests_per_day"`

	CostPerMinute int `yaml:"cost_per_minute"`
	CostPerHour   int `yaml:"cost_per_hour"`
	CostPerDay    int `yaml:"cost_per_day"`

	// BurstMultiplier scales the minute limits to absorb short spikes.
	// 1.0 means no burst headroom.
	BurstMultiplier float64 `yaml:"burst_multiplier"`

	// Cooldown is how long SetCooldown shuts a subject out by default.
	Cooldown time.Duration `yaml:"cooldown"`

	// CleanupInterval bounds how often Check sweeps idle state.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`

	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns the standard quota settings.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
		RequestsPerHour:   1000,
		RequestsPerDay:    10000,
		CostPerMinute:     100000,
		CostPerHour:       1000000,
		CostPerDay:        10000000,
		BurstMultiplier:   2.0,
		Cooldown:          60 * time.Second,
		CleanupInterval:   5 * time.Minute,
		Enabled:           true,
	}
}
