// Package config loads the runtime settings of a run from a config file,
// LEDGERU_* environment variables, a .env file and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const EnvPrefix = "LEDGERU"

type (
	Config struct {
		Manifest          string `mapstructure:"manifest"`
		ReportingTimezone string `mapstructure:"reporting_timezone"`
		Tolerance         string `mapstructure:"tolerance"`
		Workers           int    `mapstructure:"workers"`
		LogLevel          string `mapstructure:"log_level"`
		// KnownKeys is a file of identity keys already in the ledger.
		KnownKeys string `mapstructure:"known_keys"`
		// Journal is a beancount journal scanned for identity_key metadata.
		Journal      string `mapstructure:"journal"`
		OutputFormat string `mapstructure:"output_format"`
		Output       string `mapstructure:"output"`
		YNAB         YNAB   `mapstructure:"ynab"`
	}

	// YNAB selects the account whose memos hold known keys.
	YNAB struct {
		TokenEnv  string `mapstructure:"token_env"`
		BudgetID  string `mapstructure:"budget_id"`
		AccountID string `mapstructure:"account_id"`
	}
)

// Output formats.
const (
	FormatBeancount = "beancount"
	FormatCSV       = "csv"
)

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"manifest":       "manifest",
	"timezone":       "reporting_timezone",
	"tolerance":      "tolerance",
	"workers":        "workers",
	"log-level":      "log_level",
	"known-keys":     "known_keys",
	"journal":        "journal",
	"format":         "output_format",
	"output":         "output",
	"ynab-budget":    "ynab.budget_id",
	"ynab-account":   "ynab.account_id",
	"ynab-token-env": "ynab.token_env",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("manifest", "ledgeru.yaml")
	v.SetDefault("reporting_timezone", "UTC")
	v.SetDefault("tolerance", "0.005")
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("log_level", "info")
	v.SetDefault("output_format", FormatBeancount)
	v.SetDefault("known_keys", "")
	v.SetDefault("journal", "")
	v.SetDefault("output", "")
	v.SetDefault("ynab.token_env", "YNAB_TOKEN")
	v.SetDefault("ynab.budget_id", "")
	v.SetDefault("ynab.account_id", "")
}

// Build resolves the configuration. cfgFile may be empty, in which case
// ledgeru-config.yaml is looked up in the working directory and in
// ~/.config/ledgeru; a missing file is not an error. flags may be nil.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("ledgeru-config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/ledgeru")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that are parsed later on.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.ToleranceAmount(); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	switch c.OutputFormat {
	case FormatBeancount, FormatCSV:
	default:
		return fmt.Errorf("invalid output_format %q", c.OutputFormat)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// Location is the zone dates are reported in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ReportingTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid reporting_timezone %q: %w", c.ReportingTimezone, err)
	}
	return loc, nil
}

func (c *Config) ToleranceAmount() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(c.Tolerance)
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("invalid tolerance %q", c.Tolerance)
	}
	return d, nil
}

// Level returns the configured log level, defaulting to info.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
