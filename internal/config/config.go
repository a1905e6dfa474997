package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/optchain-analytics/internal/notify"
)

type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Pricing PricingConfig `mapstructure:"pricing"`
	Chain   ChainConfig   `mapstructure:"chain"`
	Server  ServerConfig  `mapstructure:"server"`
	Convert ConvertConfig `mapstructure:"convert"`
	Logging LoggingConfig `mapstructure:"logging"`
	Notify  notify.Config `mapstructure:"notify"`
}

type DataConfig struct {
	Mode        string `mapstructure:"mode"` // "snapshot" or "flatfile"
	SnapshotDir string `mapstructure:"snapshot_dir"`
	FlatFileDir string `mapstructure:"flatfile_dir"`
	Secondary   string `mapstructure:"secondary"` // "", "snapshot" or "flatfile"
}

type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TTLSec     int  `mapstructure:"ttl_sec"`
	CleanupSec int  `mapstructure:"cleanup_sec"`
}

type PricingConfig struct {
	RiskFreeRate       float64 `mapstructure:"risk_free_rate"`
	VolatilityPolicy   string  `mapstructure:"volatility_policy"` // "tiered" or "constant"
	ConstantVolatility float64 `mapstructure:"constant_volatility"`
}

type ChainConfig struct {
	ATMTolerancePct  float64 `mapstructure:"atm_tolerance_pct"`
	StrikesAroundATM int     `mapstructure:"strikes_around_atm"`
	Workers          int     `mapstructure:"workers"`
}

type ServerConfig struct {
	Port            string  `mapstructure:"port"`
	RatePerSecond   float64 `mapstructure:"rate_per_second"`
	Burst           int     `mapstructure:"burst"`
	ReadTimeoutSec  int     `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec int     `mapstructure:"write_timeout_sec"`
}

type ConvertConfig struct {
	Workers  int      `mapstructure:"workers"`
	Compress bool     `mapstructure:"compress"`
	Tickers  []string `mapstructure:"tickers"`
}

type LoggingConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Directory  string `mapstructure:"directory"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// DefaultTickers are converted when neither config nor flags name any.
var DefaultTickers = []string{"SPY", "QQQ", "IWM", "AAPL", "TSLA", "NVDA"}

// Load reads configuration from defaults, an optional YAML file, a .env
// file in the working directory, and OPTCHAIN_* environment variables, in
// increasing order of precedence.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()

	// Set defaults
	v.SetDefault("data.mode", "snapshot")
	v.SetDefault("data.snapshot_dir", "data")
	v.SetDefault("data.flatfile_dir", "flatfiles")
	v.SetDefault("data.secondary", "")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl_sec", 300)
	v.SetDefault("cache.cleanup_sec", 600)
	v.SetDefault("pricing.risk_free_rate", 0.05)
	v.SetDefault("pricing.volatility_policy", "tiered")
	v.SetDefault("pricing.constant_volatility", 0.30)
	v.SetDefault("chain.atm_tolerance_pct", 0.5)
	v.SetDefault("chain.strikes_around_atm", 10)
	v.SetDefault("chain.workers", 4)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.rate_per_second", 20)
	v.SetDefault("server.burst", 40)
	v.SetDefault("server.read_timeout_sec", 15)
	v.SetDefault("server.write_timeout_sec", 30)
	v.SetDefault("convert.workers", 3)
	v.SetDefault("convert.compress", false)
	v.SetDefault("convert.tickers", DefaultTickers)
	v.SetDefault("logging.enabled", true)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.max_size_mb", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.server", "https://ntfy.sh")
	v.SetDefault("notify.priority", "default")
	v.SetDefault("notify.tags", "chart_with_upwards_trend")

	// Environment variable support
	v.SetEnvPrefix("OPTCHAIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind keys without defaults to env vars
	_ = v.BindEnv("notify.topic", "OPTCHAIN_NOTIFY_TOPIC")
	_ = v.BindEnv("notify.token", "OPTCHAIN_NOTIFY_TOKEN")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
