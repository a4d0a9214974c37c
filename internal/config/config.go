// Package config loads application configuration from file and environment
// and wires the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Portal  PortalConfig  `yaml:"portal" mapstructure:"portal"`
	Harvest HarvestConfig `yaml:"harvest" mapstructure:"harvest"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// PortalConfig configures access to the tax portal.
type PortalConfig struct {
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	SessionToken string `yaml:"session_token" mapstructure:"session_token"`
	PageSize     int    `yaml:"page_size" mapstructure:"page_size"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Variant      string `yaml:"variant" mapstructure:"variant"`
}

// HarvestConfig configures the harvest pipeline.
type HarvestConfig struct {
	CacheDir     string `yaml:"cache_dir" mapstructure:"cache_dir"`
	OutputPath   string `yaml:"output_path" mapstructure:"output_path"`
	RegistryPath string `yaml:"registry_path" mapstructure:"registry_path"`
	ThrottleMs   int    `yaml:"throttle_ms" mapstructure:"throttle_ms"`
	Concurrency  int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// StoreConfig configures the run-history database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FINHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("portal.base_url", "https://eprijava.tax.gov.me/TaxisPortal")
	// Registered empty so the env override is visible to Unmarshal.
	v.SetDefault("portal.session_token", "")
	v.SetDefault("portal.page_size", 20)
	v.SetDefault("portal.timeout_secs", 60)
	v.SetDefault("portal.variant", "details")
	v.SetDefault("harvest.cache_dir", "./statements")
	v.SetDefault("harvest.output_path", "./Results.csv")
	v.SetDefault("harvest.registry_path", "./entities.yaml")
	v.SetDefault("harvest.throttle_ms", 200)
	v.SetDefault("harvest.concurrency", 1)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "./finharvest.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
