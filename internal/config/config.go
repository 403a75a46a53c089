// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	APIBaseURL      string `mapstructure:"api_base_url"`
	DetailDelay     int    `mapstructure:"detail_delay"`      // ms, operation detail + system status
	DerivedDelay    int    `mapstructure:"derived_delay"`     // ms, wallet balances + monitoring
	FetchTimeout    int    `mapstructure:"fetch_timeout"`     // ms, one fetch attempt
	FastSellTimeout int    `mapstructure:"fast_sell_timeout"` // seconds, local fast-sell budget
	SlowSellTimeout int    `mapstructure:"slow_sell_timeout"` // seconds, local slow-sell budget
	Retries         int    `mapstructure:"retries"`           // transport retries for GETs
	DebugLogging    bool   `mapstructure:"debug_logging"`
	LogFile         string `mapstructure:"log_file"`
}

const (
	DefaultDetailDelay     = 5000
	DefaultDerivedDelay    = 8000
	DefaultFetchTimeout    = 10000
	DefaultFastSellTimeout = 15
	DefaultSlowSellTimeout = 120
	DefaultRetries         = 3
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"detail_delay":      DefaultDetailDelay,
		"derived_delay":     DefaultDerivedDelay,
		"fetch_timeout":     DefaultFetchTimeout,
		"fast_sell_timeout": DefaultFastSellTimeout,
		"slow_sell_timeout": DefaultSlowSellTimeout,
		"retries":           DefaultRetries,
		"log_file":          "console.log",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.APIBaseURL == "" {
		return errors.New("missing api_base_url in configuration")
	}
	parsed, err := url.Parse(cfg.APIBaseURL)
	if err != nil || !strings.HasPrefix(parsed.Scheme, "http") {
		return errors.New("invalid api_base_url protocol")
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.DetailDelay <= 0 {
		return errors.New("invalid detail_delay")
	}
	if cfg.DerivedDelay <= 0 {
		return errors.New("invalid derived_delay")
	}
	if cfg.FetchTimeout <= 0 {
		return errors.New("invalid fetch_timeout")
	}
	if cfg.FastSellTimeout <= 0 {
		return errors.New("invalid fast_sell_timeout")
	}
	if cfg.SlowSellTimeout <= cfg.FastSellTimeout {
		return errors.New("slow_sell_timeout must exceed fast_sell_timeout")
	}
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("BUNDLER_CONSOLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envBaseURL := v.GetString("API_BASE_URL")
	if envBaseURL != "" {
		cfg.APIBaseURL = envBaseURL
	}

	envLogFile := v.GetString("LOG_FILE")
	if envLogFile != "" {
		cfg.LogFile = envLogFile
	}
	return nil
}

// DetailInterval returns the fast poll cadence as a duration.
func (c *Config) DetailInterval() time.Duration {
	return time.Duration(c.DetailDelay) * time.Millisecond
}

// DerivedInterval returns the slow poll cadence as a duration.
func (c *Config) DerivedInterval() time.Duration {
	return time.Duration(c.DerivedDelay) * time.Millisecond
}

// FetchTimeoutDuration bounds one fetch attempt.
func (c *Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Millisecond
}

// FastSellBudget is the local fast-sell observation window.
func (c *Config) FastSellBudget() time.Duration {
	return time.Duration(c.FastSellTimeout) * time.Second
}

// SlowSellBudget is the local slow-sell observation window.
func (c *Config) SlowSellBudget() time.Duration {
	return time.Duration(c.SlowSellTimeout) * time.Second
}
