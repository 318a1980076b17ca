package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port int        `mapstructure:"port" validate:"min=1,max=65535"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Review   ReviewConfig   `mapstructure:"review"`
	Digest   DigestConfig   `mapstructure:"digest"`
	Outputs  OutputsConfig  `mapstructure:"outputs"`
}

const (
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=mysql sqlite3 postgres"`
	// Path is the database file of the sqlite3 driver.
	Path            string            `mapstructure:"path" validate:"required_if=Driver sqlite3"`
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns" validate:"min=0"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds" validate:"min=0"`
}

type RedisConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Addr           string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db" validate:"min=0"`
	LockTTLSeconds int    `mapstructure:"lock_ttl_seconds" validate:"min=1"`
	DigestChannel  string `mapstructure:"digest_channel"`
}

// LockTTL returns how long a review lock lives without being released.
func (c RedisConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

type ReviewConfig struct {
	// Mode is the scheduling mode of enrolled items.
	Mode                string  `mapstructure:"mode" validate:"oneof=sm2 ladder"`
	DefaultEasiness     float64 `mapstructure:"default_easiness" validate:"gte=1.3"`
	MasteryIntervalDays int     `mapstructure:"mastery_interval_days" validate:"min=1"`
	// MaxIntervalDays caps SM-2 intervals so due dates stay storable.
	MaxIntervalDays     int     `mapstructure:"max_interval_days" validate:"min=1,max=36500,gtefield=MasteryIntervalDays"`
	MaxAttempts         uint    `mapstructure:"max_attempts" validate:"min=1,max=20"`
	RetryDelayMS        int     `mapstructure:"retry_delay_ms" validate:"min=1"`
	DefaultDueLimit     int     `mapstructure:"default_due_limit" validate:"min=1,ltefield=MaxDueLimit"`
	MaxDueLimit         int     `mapstructure:"max_due_limit" validate:"min=1"`
}

type DigestConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron" validate:"required_if=Enabled true,cron"`
}

type OutputsConfig struct {
	ReportDirectory string `mapstructure:"report_directory"`
	ExportDirectory string `mapstructure:"export_directory"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
	envFile    string
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/beidou")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
		envFile:    ".env",
	}, nil
}

// WithEnvFile changes the dotenv file read before the configuration. An empty path disables it.
func (loader *ConfigLoader) WithEnvFile(path string) *ConfigLoader {
	loader.envFile = path
	return loader
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	// Variables already set in the environment win over the dotenv file
	if loader.envFile != "" {
		if err := godotenv.Load(loader.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", loader.envFile, err)
		}
	}

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.driver", DriverMySQL)
	v.SetDefault("database.path", filepath.Join("data", "beidou.db"))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "beidou")
	v.SetDefault("database.username", "user")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.lock_ttl_seconds", 5)
	v.SetDefault("redis.digest_channel", "beidou:review:digest")
	v.SetDefault("review.mode", "sm2")
	v.SetDefault("review.default_easiness", 2.5)
	v.SetDefault("review.mastery_interval_days", 60)
	v.SetDefault("review.max_interval_days", 36500)
	v.SetDefault("review.max_attempts", 5)
	v.SetDefault("review.retry_delay_ms", 20)
	v.SetDefault("review.default_due_limit", 20)
	v.SetDefault("review.max_due_limit", 200)
	v.SetDefault("digest.cron", "0 * * * *")
	v.SetDefault("outputs.report_directory", filepath.Join("outputs", "reports"))
	v.SetDefault("outputs.export_directory", filepath.Join("outputs", "exports"))

	// Bind secrets to environment variables
	if err := v.BindEnv("database.password", "DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind DB_PASSWORD environment variable: %w", err)
	}
	if err := v.BindEnv("redis.password", "REDIS_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind REDIS_PASSWORD environment variable: %w", err)
	}
	if err := v.BindEnv("database.driver", "DB_DRIVER"); err != nil {
		return nil, fmt.Errorf("failed to bind DB_DRIVER environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}
	cfg.Review.Mode = strings.ToLower(cfg.Review.Mode)

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
