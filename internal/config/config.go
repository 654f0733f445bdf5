package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Backend   BackendConfig   `mapstructure:"backend"`
	Log       LogConfig       `mapstructure:"log"`
	UI        UIConfig        `mapstructure:"ui"`
	Devserver DevserverConfig `mapstructure:"devserver"`
}

// BackendConfig locates the admin API.
type BackendConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	TokenEnv      string        `mapstructure:"token_env"`
	Token         string        `mapstructure:"token"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
}

// LogConfig holds the log file settings. The TUI owns the terminal so logs
// never go to stdout.
type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DateFormat     string `mapstructure:"date_format"`
	CurrencySymbol string `mapstructure:"currency_symbol"`
	Timezone       string `mapstructure:"timezone"`
}

// DevserverConfig configures the local development backend.
type DevserverConfig struct {
	Addr        string `mapstructure:"addr"`
	DBPath      string `mapstructure:"db_path"`
	SeedPath    string `mapstructure:"seed_path"`
	Token       string `mapstructure:"token"`
	FailProcess bool   `mapstructure:"fail_process"`
}

// Location resolves the configured timezone, falling back to UTC.
func (u UIConfig) Location() *time.Location {
	if loc, err := time.LoadLocation(u.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// ResolveToken returns the token from the configured env var, else the
// plain config value.
func (b BackendConfig) ResolveToken() string {
	if b.TokenEnv != "" {
		if t := strings.TrimSpace(os.Getenv(b.TokenEnv)); t != "" {
			return t
		}
	}
	return strings.TrimSpace(b.Token)
}

func home() string { return os.Getenv("HOME") }

// Path is the config file location.
func Path() string {
	if p := os.Getenv("DSADMIN_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(home(), ".config", "dsadmin", "config.toml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://localhost:8088/api")
	v.SetDefault("backend.token_env", "DSADMIN_TOKEN")
	v.SetDefault("backend.token", "")
	v.SetDefault("backend.timeout", "15s")
	v.SetDefault("backend.rate_per_second", 10)
	v.SetDefault("backend.burst", 5)
	v.SetDefault("log.path", filepath.Join(home(), ".local", "state", "dsadmin", "dsadmin.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("ui.date_format", "2006-01-02")
	v.SetDefault("ui.currency_symbol", "₱")
	v.SetDefault("ui.timezone", "Asia/Manila")
	v.SetDefault("devserver.addr", ":8088")
	v.SetDefault("devserver.db_path", filepath.Join(home(), ".local", "share", "dsadmin", "devserver.db"))
	v.SetDefault("devserver.seed_path", "")
	v.SetDefault("devserver.token", "")
	v.SetDefault("devserver.fail_process", false)
}

// Load reads configuration from file and env. Env var overrides use prefix DSADMIN_.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	if p := os.Getenv("DSADMIN_CONFIG"); p != "" {
		v.SetConfigFile(p)
	} else {
		v.AddConfigPath(filepath.Join(home(), ".config", "dsadmin"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("DSADMIN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	return c, nil
}

// Save writes the non-secret settings to disk, creating the config directory
// if needed. backend.token is never written.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("backend.base_url", cfg.Backend.BaseURL)
	v.Set("backend.token_env", cfg.Backend.TokenEnv)
	v.Set("backend.timeout", cfg.Backend.Timeout.String())
	v.Set("backend.rate_per_second", cfg.Backend.RatePerSecond)
	v.Set("backend.burst", cfg.Backend.Burst)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("ui.currency_symbol", cfg.UI.CurrencySymbol)
	v.Set("ui.timezone", cfg.UI.Timezone)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
