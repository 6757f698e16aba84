package config

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// loggingConfig is the typed "logging" section of the daemon config.
type loggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NewLogger builds the Zap logger from the "logging" section. Level is one of
// debug, info, warn, error (default "info"); format is "json" or "console"
// (default "json").
func NewLogger(v *viper.Viper) (*zap.Logger, error) {
	cfg := loggingConfig{Level: "info", Format: "json"}
	if sub := v.Sub("logging"); sub != nil {
		if err := sub.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("unmarshal logging config: %w", err)
		}
	}
	return cfg.build()
}

func (c loggingConfig) build() (*zap.Logger, error) {
	if c.Level == "" {
		c.Level = "info"
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}

	var zcfg zap.Config
	switch c.Format {
	case "console":
		zcfg = zap.NewDevelopmentConfig()
	case "json", "":
		zcfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q: must be \"json\" or \"console\"", c.Format)
	}

	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
