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
	Plant  PlantConfig  `yaml:"plant" mapstructure:"plant"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Feed   FeedConfig   `yaml:"feed" mapstructure:"feed"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string     `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string     `yaml:"database_url" mapstructure:"database_url"`
	Pool        PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig sizes the postgres connection pool. Ignored by sqlite.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// PlantConfig identifies the plant whose catalogs the engine validates
// against.
type PlantConfig struct {
	ID string `yaml:"id" mapstructure:"id"`
}

// BatchConfig configures batch validation.
type BatchConfig struct {
	Workers     int     `yaml:"workers" mapstructure:"workers"`
	FallbackRPS float64 `yaml:"fallback_rps" mapstructure:"fallback_rps"`
}

// FeedConfig configures the plant-control FTP feed pull.
type FeedConfig struct {
	Host        string `yaml:"host" mapstructure:"host"`
	Port        int    `yaml:"port" mapstructure:"port"`
	User        string `yaml:"user" mapstructure:"user"`
	Password    string `yaml:"password" mapstructure:"password"`
	RemoteDir   string `yaml:"remote_dir" mapstructure:"remote_dir"`
	LocalDir    string `yaml:"local_dir" mapstructure:"local_dir"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the validation HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks the configuration for a given run mode. Modes map to the
// CLI commands: "validate", "serve", and "fetch".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "validate", "serve":
		switch c.Store.Driver {
		case "postgres", "sqlite":
		default:
			problems = append(problems, "store.driver must be postgres or sqlite")
		}
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required")
		}
		if c.Plant.ID == "" {
			problems = append(problems, "plant.id is required")
		}
		if c.Batch.Workers < 1 || c.Batch.Workers > 64 {
			problems = append(problems, "batch.workers must be between 1 and 64")
		}
		if mode == "serve" && c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "fetch":
		if c.Feed.Host == "" {
			problems = append(problems, "feed.host is required")
		}
		if c.Feed.User == "" {
			problems = append(problems, "feed.user is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PLANTCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.pool.max_conns", 8)
	v.SetDefault("store.pool.min_conns", 1)
	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.fallback_rps", 20)
	v.SetDefault("feed.port", 21)
	v.SetDefault("feed.remote_dir", "/export")
	v.SetDefault("feed.local_dir", "./feed")
	v.SetDefault("feed.timeout_secs", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
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
