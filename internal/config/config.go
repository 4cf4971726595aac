// Package config loads console configuration from ~/.atlas/config.yaml with
// ATLAS_-prefixed environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Capture CaptureConfig `mapstructure:"capture"`
	Logger  LoggerConfig  `mapstructure:"logger"`
	State   StateConfig   `mapstructure:"state"`
}

// APIConfig locates the external attendance backend. BaseURL has no
// default: without it every operation fails with a configuration error
// before any network call.
type APIConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	PageSize int    `mapstructure:"page_size"`
}

// CaptureConfig describes how camera frames are grabbed for the scanner.
type CaptureConfig struct {
	// Command is a frame-grab command writing one image to stdout;
	// {device} expands to Device.
	Command string `mapstructure:"command"`
	Device  string `mapstructure:"device"`
}

type LoggerConfig struct {
	Level string `mapstructure:"level"`
	// OutputPath defaults to a file under the state dir; the TUI owns
	// stdout.
	OutputPath string `mapstructure:"output_path"`
}

// StateConfig holds local persistence locations (token file, logs).
type StateConfig struct {
	Dir string `mapstructure:"dir"`
}

// Load reads configuration. A missing config file is fine — defaults plus
// environment cover the common setup.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	stateDir := defaultStateDir()
	v.AddConfigPath(stateDir)
	v.AddConfigPath(".")

	v.SetEnvPrefix("ATLAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, stateDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.State.Dir == "" {
		cfg.State.Dir = stateDir
	}
	if cfg.Logger.OutputPath == "" {
		cfg.Logger.OutputPath = filepath.Join(cfg.State.Dir, "atlas.log")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, stateDir string) {
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.page_size", 10)

	v.SetDefault("capture.command", "")
	v.SetDefault("capture.device", "/dev/video0")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "")

	v.SetDefault("state.dir", stateDir)
}

// defaultStateDir is ~/.atlas, falling back to the working directory when
// the home dir is unknown.
func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".atlas"
	}
	return filepath.Join(home, ".atlas")
}
