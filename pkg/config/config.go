package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

const (
	xdgAppName = "dayline"
	configName = "config"
	configType = "yaml"
)

type Config struct {
	Calendar   string  `mapstructure:"calendar"`
	DataDir    string  `mapstructure:"data_dir"`
	HourHeight float64 `mapstructure:"hour_height"`
	Zoom       float64 `mapstructure:"zoom"`
	Mirror     bool    `mapstructure:"mirror"`
}

// ItemsDir is where the item store keeps its files.
func (c *Config) ItemsDir() string {
	return filepath.Join(c.DataDir, "items")
}

// CompletionsPath is the sqlite completion log.
func (c *Config) CompletionsPath() string {
	return filepath.Join(c.DataDir, "completions.sqlite")
}

// Dir returns ~/.config/dayline.
func Dir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configName+"."+configType), nil
}

func newViper() (*viper.Viper, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetDefault("calendar", "Tasks")
	v.SetDefault("data_dir", filepath.Join(dir, "data"))
	v.SetDefault("hour_height", 60.0)
	v.SetDefault("zoom", 1.0)
	v.SetDefault("mirror", false)

	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.SetEnvPrefix("DAYLINE")
	v.AutomaticEnv()
	if override := os.Getenv("DAYLINE_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath(dir)
	return v, nil
}

// Load reads the config file if present; defaults and DAYLINE_* environment
// variables fill in the rest.
func Load() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if strings.TrimSpace(cfg.Calendar) == "" {
		cfg.Calendar = "Tasks"
	}
	dataDir, err := homedir.Expand(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand data_dir: %w", err)
	}
	cfg.DataDir = dataDir
	return &cfg, nil
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType(configType)
	v.Set("calendar", cfg.Calendar)
	v.Set("data_dir", cfg.DataDir)
	v.Set("hour_height", cfg.HourHeight)
	v.Set("zoom", cfg.Zoom)
	v.Set("mirror", cfg.Mirror)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
