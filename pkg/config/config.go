// Package config loads hifictl's configuration from a YAML file (with
// HIFICTL_-prefixed environment variable overrides), following the
// same viper-based pattern used for defaults and validation throughout
// the codebase's ambient tooling.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level, fully-resolved configuration.
type Config struct {
	AVR     AVRConfig     `mapstructure:"avr"`
	HDMI    HDMIConfig    `mapstructure:"hdmi"`
	Web     WebConfig     `mapstructure:"web"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// AVRConfig describes the AVR-430's serial connection.
type AVRConfig struct {
	DevicePath      string  `mapstructure:"device_path"`
	BaudRate        int     `mapstructure:"baud_rate"`
	WatchdogSeconds int     `mapstructure:"watchdog_seconds"`
	OffAfterSeconds float64 `mapstructure:"off_after_seconds"`
}

// HDMIConfig describes the Connect411 switch's serial connection.
type HDMIConfig struct {
	DevicePath string `mapstructure:"device_path"`
	BaudRate   int    `mapstructure:"baud_rate"`
}

// WebConfig controls the HTTP/WebSocket presenter surface.
type WebConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// LoggingConfig controls the leveled logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig holds the metrics.enabled setting. It is loaded but not
// consulted: the in-process counters are always collected and exposed
// via the web API.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from configFile (or the default search path
// if empty), applies HIFICTL_-prefixed environment overrides, and
// validates the result.
func Load(configFile string) (*Config, error) {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/hifictl")
	}

	viper.SetEnvPrefix("HIFICTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file is fine; defaults + env vars apply.
		} else if os.IsNotExist(err) {
			// An explicitly named file that doesn't exist is also fine.
		} else {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("avr.device_path", "/dev/ttyUSB1")
	viper.SetDefault("avr.baud_rate", 38400)
	viper.SetDefault("avr.watchdog_seconds", 10)
	viper.SetDefault("avr.off_after_seconds", 0.5)

	viper.SetDefault("hdmi.device_path", "/dev/ttyUSB0")
	viper.SetDefault("hdmi.baud_rate", 19200)

	viper.SetDefault("web.enabled", true)
	viper.SetDefault("web.host", "0.0.0.0")
	viper.SetDefault("web.port", 8242)

	viper.SetDefault("logging.level", "info")

	viper.SetDefault("metrics.enabled", true)
}

func validate(cfg *Config) error {
	if cfg.AVR.DevicePath == "" {
		return fmt.Errorf("avr.device_path must not be empty")
	}
	if cfg.HDMI.DevicePath == "" {
		return fmt.Errorf("hdmi.device_path must not be empty")
	}
	if cfg.AVR.BaudRate <= 0 {
		return fmt.Errorf("avr.baud_rate must be positive")
	}
	if cfg.HDMI.BaudRate <= 0 {
		return fmt.Errorf("hdmi.baud_rate must be positive")
	}
	if cfg.Web.Enabled && (cfg.Web.Port <= 0 || cfg.Web.Port > 65535) {
		return fmt.Errorf("web.port must be between 1 and 65535")
	}
	return nil
}
