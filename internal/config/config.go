// Package config loads client settings from flags, environment and an
// optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the resolved client configuration.
type Config struct {
	ServerURL   string
	Username    string
	Subject     string
	Questions   int
	Minutes     int
	HTTPTimeout time.Duration
	DBPath      string
	LogPath     string
	LogLevel    string
}

// Default values for a new install.
const (
	DefaultServerURL = "http://localhost:8000"
	DefaultQuestions = 15
	DefaultMinutes   = 10
	DefaultTimeout   = 15 * time.Second
)

// Load binds a command's flags and the environment into a Config. Flags win
// over env vars (QUIZDECK_*), which win over the config file.
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	v.SetEnvPrefix("QUIZDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("server", DefaultServerURL)
	v.SetDefault("questions", DefaultQuestions)
	v.SetDefault("minutes", DefaultMinutes)
	v.SetDefault("http-timeout", DefaultTimeout)
	v.SetDefault("log-level", "info")

	v.SetConfigName("quizdeck")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizdeck")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		ServerURL:   strings.TrimRight(v.GetString("server"), "/"),
		Username:    v.GetString("user"),
		Subject:     v.GetString("subject"),
		Questions:   v.GetInt("questions"),
		Minutes:     v.GetInt("minutes"),
		HTTPTimeout: v.GetDuration("http-timeout"),
		DBPath:      v.GetString("db"),
		LogPath:     v.GetString("log-file"),
		LogLevel:    v.GetString("log-level"),
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server URL is required (--server or QUIZDECK_SERVER)")
	}
	return cfg, nil
}
