// Package config loads daemon configuration through Viper and builds the
// Zap logger from it.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/HerbHall/faultline/internal/monitor"
)

// Load builds a Viper instance with defaults, an optional config file and
// FAULTLINE_* environment overrides. path may be empty; a missing config
// file is not an error.
func Load(path string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("server.addr", ":8710")
	v.SetDefault("detect.interval", 30*time.Second)

	def := monitor.DefaultConfig()
	v.SetDefault("monitor.capacity", def.Capacity)
	v.SetDefault("monitor.rate_window", def.RateWindow)
	v.SetDefault("monitor.top_error_limit", def.TopErrorLimit)
	v.SetDefault("monitor.high_rate_threshold", def.HighRateThreshold)
	v.SetDefault("monitor.high_rate_window", def.HighRateWindow)
	v.SetDefault("monitor.critical_burst_threshold", def.CriticalBurstThreshold)
	v.SetDefault("monitor.critical_burst_window", def.CriticalBurstWindow)
	v.SetDefault("monitor.component_failure_threshold", def.ComponentFailureThreshold)
	v.SetDefault("monitor.component_failure_window", def.ComponentFailureWindow)
	v.SetDefault("monitor.alert_cooldown", def.AlertCooldown)

	v.SetEnvPrefix("FAULTLINE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("faultline")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/faultline")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return v, nil
}

// Monitor extracts the engine config from the "monitor" section.
func Monitor(v *viper.Viper) (monitor.Config, error) {
	var cfg monitor.Config
	sub := v.Sub("monitor")
	if sub == nil {
		return monitor.DefaultConfig(), nil
	}
	if err := sub.Unmarshal(&cfg); err != nil {
		return monitor.Config{}, fmt.Errorf("unmarshal monitor config: %w", err)
	}
	return cfg, nil
}
