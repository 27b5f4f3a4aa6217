package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	KeyBaseURL    = "base-url"
	KeyCSRFCookie = "csrf-cookie"
	KeyTimeout    = "timeout"
	KeyLogLevel   = "log-level"
	KeyVerbose    = "verbose"
	KeyTheme      = "theme"
)

type Config struct {
	BaseURL    string
	CSRFCookie string
	Timeout    time.Duration
	LogLevel   string
	Verbose    bool
	Theme      string
}

// NewViper returns a viper instance reading, in increasing priority: the
// defaults, themenu.{yaml,json,toml} in . or ~/.themenu, a .env file and
// THEMENU_* environment variables. Flags are bound on top by the caller.
func NewViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault(KeyBaseURL, "http://localhost:8000")
	v.SetDefault(KeyCSRFCookie, "csrftoken")
	v.SetDefault(KeyTimeout, 10*time.Second)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyTheme, "classic")

	v.SetConfigName("themenu")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.themenu")
	v.SetEnvPrefix("THEMENU")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file if there is one and decodes the settings.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	c := Config{
		BaseURL:    strings.TrimRight(strings.TrimSpace(v.GetString(KeyBaseURL)), "/"),
		CSRFCookie: v.GetString(KeyCSRFCookie),
		Timeout:    v.GetDuration(KeyTimeout),
		LogLevel:   v.GetString(KeyLogLevel),
		Verbose:    v.GetBool(KeyVerbose),
		Theme:      v.GetString(KeyTheme),
	}
	if c.BaseURL == "" {
		return Config{}, fmt.Errorf("%s must not be empty", KeyBaseURL)
	}
	if c.Timeout <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %s", KeyTimeout, c.Timeout)
	}
	return c, nil
}
