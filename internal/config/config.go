package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const insecureSecretPlaceholder = "change_me_in_production"

const minSecretKeyLength = 32

type Config struct {
	Port            string `mapstructure:"port"`
	DBDriver        string `mapstructure:"db_driver"`
	DBPath          string `mapstructure:"db_path"`
	DatabaseURL     string `mapstructure:"database_url"`
	SecretKey       string `mapstructure:"secret_key"`
	CookieSecure    bool   `mapstructure:"cookie_secure"`
	TZ              string `mapstructure:"tz"`
	DefaultLanguage string `mapstructure:"default_language"`
	LogLevel        string `mapstructure:"log_level"`
	LogFormat       string `mapstructure:"log_format"`
	UploadsDir      string `mapstructure:"uploads_dir"`

	MinIOEndpoint   string `mapstructure:"minio_endpoint"`
	MinIOAccessKey  string `mapstructure:"minio_access_key"`
	MinIOSecretKey  string `mapstructure:"minio_secret_key"`
	MinIOBucket     string `mapstructure:"minio_bucket"`
	MinIOUseSSL     bool   `mapstructure:"minio_use_ssl"`
	MinIOPublicBase string `mapstructure:"minio_public_base"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

var defaults = map[string]any{
	"port":              "8080",
	"db_driver":         "sqlite",
	"db_path":           filepath.Join("data", "ecgscan.db"),
	"database_url":      "",
	"secret_key":        "",
	"cookie_secure":     false,
	"tz":                "UTC",
	"default_language":  "pt",
	"log_level":         "info",
	"log_format":        "text",
	"uploads_dir":       filepath.Join("data", "uploads"),
	"minio_endpoint":    "",
	"minio_access_key":  "",
	"minio_secret_key":  "",
	"minio_bucket":      "ecg-images",
	"minio_use_ssl":     false,
	"minio_public_base": "",
	"redis_addr":        "",
	"redis_password":    "",
	"redis_db":          0,
}

// Load reads .env, an optional config.toml from "." or "config/", and the
// process environment. Environment variables win over the file.
func Load() (Config, error) {
	_ = godotenv.Load()

	configName := "config"
	if name := strings.TrimSpace(os.Getenv("CONFIG_NAME")); name != "" {
		configName = name
	}

	reader := viper.New()
	reader.SetConfigName(configName)
	reader.SetConfigType("toml")
	reader.AddConfigPath("config")
	reader.AddConfigPath(".")
	if err := reader.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	return fromViper(reader)
}

func fromViper(reader *viper.Viper) (Config, error) {
	for key, value := range defaults {
		reader.SetDefault(key, value)
	}
	reader.AutomaticEnv()

	cfg := Config{}
	if err := reader.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	return cfg, nil
}

// ResolveSecretKey rejects empty, placeholder and short signing secrets.
func (cfg Config) ResolveSecretKey() (string, error) {
	secret := strings.TrimSpace(cfg.SecretKey)
	if secret == "" {
		return "", errors.New("SECRET_KEY is required")
	}
	if secret == insecureSecretPlaceholder {
		return "", errors.New("SECRET_KEY uses the insecure placeholder value")
	}
	if len(secret) < minSecretKeyLength {
		return "", fmt.Errorf("SECRET_KEY must be at least %d characters", minSecretKeyLength)
	}
	return secret, nil
}

func (cfg Config) UsesMinIO() bool {
	return strings.TrimSpace(cfg.MinIOEndpoint) != ""
}

func (cfg Config) UsesRedis() bool {
	return strings.TrimSpace(cfg.RedisAddr) != ""
}
