// Package config loads application configuration from config.yaml and the
// CORPSEARCH_* environment, and installs the global zap logger.
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
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Ingest IngestConfig `yaml:"ingest" mapstructure:"ingest"`
	Search SearchConfig `yaml:"search" mapstructure:"search"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	Workers        int   `yaml:"workers" mapstructure:"workers"`
	BatchSize      int   `yaml:"batch_size" mapstructure:"batch_size"`
	ErrorLogSample int   `yaml:"error_log_sample" mapstructure:"error_log_sample"`
	ProgressEvery  int64 `yaml:"progress_every" mapstructure:"progress_every"`
}

// SearchConfig bounds the availability search fan-out.
type SearchConfig struct {
	EntityLimit      int `yaml:"entity_limit" mapstructure:"entity_limit"`
	FictitiousLimit  int `yaml:"fictitious_limit" mapstructure:"fictitious_limit"`
	PartnershipLimit int `yaml:"partnership_limit" mapstructure:"partnership_limit"`
	GlobalCap        int `yaml:"global_cap" mapstructure:"global_cap"`
	LookupTimeoutMS  int `yaml:"lookup_timeout_ms" mapstructure:"lookup_timeout_ms"`
}

// FetchConfig points at the Division's FTP site.
type FetchConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the search API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("CORPSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("ingest.workers", 6)
	v.SetDefault("ingest.batch_size", 500)
	v.SetDefault("ingest.error_log_sample", 20)
	v.SetDefault("ingest.progress_every", 1000)
	v.SetDefault("search.entity_limit", 30)
	v.SetDefault("search.fictitious_limit", 10)
	v.SetDefault("search.partnership_limit", 10)
	v.SetDefault("search.global_cap", 50)
	v.SetDefault("search.lookup_timeout_ms", 500)
	v.SetDefault("fetch.base_url", "ftp://ftp.dos.state.fl.us/public/doc")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("server.port", 8080)
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
