package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// Values come from config.yaml (optional), then .env, then the environment.
type Config struct {
	AppEnv   string         `mapstructure:"app_env"`
	LogLevel string         `mapstructure:"log_level"`
	SeedFile string         `mapstructure:"seed_file"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Spaces   SpacesConfig   `mapstructure:"spaces"`
	Vimeo    VimeoConfig    `mapstructure:"vimeo"`
}

type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	PublicBaseURL  string        `mapstructure:"public_base_url"`
}

// DatabaseConfig selects the store. An empty URL means the in-memory store.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	URL    string `mapstructure:"url"`
}

// RedisConfig backs the ETag cache. An empty address means in-memory.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type UploadsConfig struct {
	Dir string `mapstructure:"dir"`
}

type SpacesConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	CDNURL    string `mapstructure:"cdn_url"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type VimeoConfig struct {
	AccessToken  string `mapstructure:"access_token"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

// IsDevelopment reports whether APP_ENV is development.
func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// envAliases maps keys whose environment names do not follow the
// section_key pattern.
var envAliases = map[string]string{
	"server.request_timeout": "REQUEST_TIMEOUT",
	"server.public_base_url": "PUBLIC_BASE_URL",
	"spaces.enabled":         "USE_SPACES",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "production")
	v.SetDefault("log_level", "info")
	v.SetDefault("seed_file", "")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.request_timeout", "15s")
	v.SetDefault("server.public_base_url", "http://localhost:8080")

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.username", "")
	v.SetDefault("redis.password", "")

	v.SetDefault("uploads.dir", "./uploads")

	v.SetDefault("spaces.enabled", false)
	v.SetDefault("spaces.endpoint", "")
	v.SetDefault("spaces.region", "")
	v.SetDefault("spaces.bucket", "")
	v.SetDefault("spaces.cdn_url", "")
	v.SetDefault("spaces.access_key", "")
	v.SetDefault("spaces.secret_key", "")

	v.SetDefault("vimeo.access_token", "")
	v.SetDefault("vimeo.client_id", "")
	v.SetDefault("vimeo.client_secret", "")
}

// Load reads configuration. path is the directory searched for config.yaml
// and .env; both are optional.
func Load(path string) (Config, error) {
	if err := godotenv.Load(strings.TrimSuffix(path, "/") + "/.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	// server.address -> SERVER_ADDRESS
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))
	for key, env := range envAliases {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, err
		}
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite3, got %q", c.Database.Driver)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.Spaces.Enabled {
		if c.Spaces.Endpoint == "" || c.Spaces.Bucket == "" || c.Spaces.CDNURL == "" {
			return fmt.Errorf("USE_SPACES requires SPACES_ENDPOINT, SPACES_BUCKET and SPACES_CDN_URL")
		}
	}
	return nil
}
