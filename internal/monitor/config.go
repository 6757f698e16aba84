package monitor

import "time"

// Config holds the engine's capacity, window and threshold settings.
type Config struct {
	// Capacity bounds the event store; the oldest event is evicted once full.
	Capacity int `mapstructure:"capacity"`

	// RateWindow is the trailing window for the events-per-minute rate.
	RateWindow time.Duration `mapstructure:"rate_window"`

	// TopErrorLimit caps the top-errors list in analysis snapshots.
	TopErrorLimit int `mapstructure:"top_error_limit"`

	HighRateThreshold int           `mapstructure:"high_rate_threshold"`
	HighRateWindow    time.Duration `mapstructure:"high_rate_window"`

	CriticalBurstThreshold int           `mapstructure:"critical_burst_threshold"`
	CriticalBurstWindow    time.Duration `mapstructure:"critical_burst_window"`

	ComponentFailureThreshold int           `mapstructure:"component_failure_threshold"`
	ComponentFailureWindow    time.Duration `mapstructure:"component_failure_window"`

	// AlertCooldown is the minimum gap between outbound alert notifications.
	AlertCooldown time.Duration `mapstructure:"alert_cooldown"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Capacity:                  10000,
		RateWindow:                time.Hour,
		TopErrorLimit:             10,
		HighRateThreshold:         50,
		HighRateWindow:            5 * time.Minute,
		CriticalBurstThreshold:    5,
		CriticalBurstWindow:       5 * time.Minute,
		ComponentFailureThreshold: 10,
		ComponentFailureWindow:    10 * time.Minute,
		AlertCooldown:             60 * time.Second,
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Capacity <= 0 {
		c.Capacity = def.Capacity
	}
	if c.RateWindow <= 0 {
		c.RateWindow = def.RateWindow
	}
	if c.TopErrorLimit <= 0 {
		c.TopErrorLimit = def.TopErrorLimit
	}
	if c.HighRateThreshold <= 0 {
		c.HighRateThreshold = def.HighRateThreshold
	}
	if c.HighRateWindow <= 0 {
		c.HighRateWindow = def.HighRateWindow
	}
	if c.CriticalBurstThreshold <= 0 {
		c.CriticalBurstThreshold = def.CriticalBurstThreshold
	}
	if c.CriticalBurstWindow <= 0 {
		c.CriticalBurstWindow = def.CriticalBurstWindow
	}
	if c.ComponentFailureThreshold <= 0 {
		c.ComponentFailureThreshold = def.ComponentFailureThreshold
	}
	if c.ComponentFailureWindow <= 0 {
		c.ComponentFailureWindow = def.ComponentFailureWindow
	}
	if c.AlertCooldown <= 0 {
		c.AlertCooldown = def.AlertCooldown
	}
	return c
}
