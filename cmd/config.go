package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/etnz/perf"
	"github.com/etnz/perf/provider"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config is the pcalc configuration, read from a YAML file and PCALC_* environment variables.
type Config struct {
	BaseCurrency string `mapstructure:"base_currency"`
	OrdersFile   string `mapstructure:"orders_file"`
	MarketFile   string `mapstructure:"market_file"`
	FeePolicy    string `mapstructure:"fee_policy"`
	DailyLimit   int    `mapstructure:"daily_limit"`
	Revalue      bool   `mapstructure:"revalue"`
	Workers      int    `mapstructure:"workers"`
	Retries      int    `mapstructure:"retries"`
	LogLevel     string `mapstructure:"log_level"`
	Listen       string `mapstructure:"listen"`

	Provider struct {
		Prices provider.Endpoint `mapstructure:"prices"`
		Rates  provider.Endpoint `mapstructure:"rates"`
	} `mapstructure:"provider"`
}

const (
	DefaultBaseCurrency = "CHF"
	DefaultOrdersFile   = "orders.jsonl"
	DefaultMarketFile   = "market.jsonl"
	DefaultListen       = "localhost:8080"
)

// LoadConfig reads the configuration at path. A missing file leaves every key to its default,
// and environment variables override the file.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("pcalc")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := map[string]any{
		"base_currency":        DefaultBaseCurrency,
		"orders_file":          DefaultOrdersFile,
		"market_file":          DefaultMarketFile,
		"fee_policy":           perf.FeesAtPaymentDate.String(),
		"daily_limit":          perf.DefaultDailyLimit,
		"revalue":              false,
		"workers":              perf.DefaultWorkers,
		"retries":              perf.DefaultRetries,
		"log_level":            "warn",
		"listen":               DefaultListen,
		"provider.prices.url":  "",
		"provider.prices.path": "",
		"provider.rates.url":   "",
		"provider.rates.path":  "",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("cannot read configuration %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot decode configuration %q: %w", path, err)
	}
	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	var errs []error
	if err := perf.ValidateCurrency(cfg.BaseCurrency); err != nil {
		errs = append(errs, fmt.Errorf("invalid base_currency: %w", err))
	}
	if _, err := perf.ParseFeePolicy(cfg.FeePolicy); err != nil {
		errs = append(errs, fmt.Errorf("invalid fee_policy: %w", err))
	}
	if _, err := zap.ParseAtomicLevel(cfg.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log_level: %w", err))
	}
	if cfg.DailyLimit < 0 {
		errs = append(errs, errors.New("invalid daily_limit"))
	}
	if cfg.Workers < 0 {
		errs = append(errs, errors.New("invalid workers count"))
	}
	if cfg.Retries < 0 {
		errs = append(errs, errors.New("invalid retries count"))
	}
	return errors.Join(errs...)
}

// Logger returns a console logger at the configured level.
func (cfg *Config) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = level
	zc.DisableStacktrace = true
	return zc.Build()
}

// Options returns the calculation options.
func (cfg *Config) Options(log *zap.Logger) perf.Options {
	policy, _ := perf.ParseFeePolicy(cfg.FeePolicy) // checked by validateConfig
	return perf.Options{
		FeePolicy:  policy,
		DailyLimit: cfg.DailyLimit,
		Revalue:    cfg.Revalue,
		Workers:    cfg.Workers,
		Retries:    uint(cfg.Retries),
		Logger:     log,
	}
}
