package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MinTokenKeyLength is the shortest accepted signing key, in bytes.
const MinTokenKeyLength = 32

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Path string
	}
	Auth struct {
		Token      string
		TokenTTL   time.Duration
		BcryptCost int
	}
	Log struct {
		Level  string
		Format string
	}
	CORS struct {
		AllowOrigins []string
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
}

// New returns a viper instance carrying the defaults and env bindings.
// Callers may bind flags onto it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("BLOGPOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.path", "data/blogpost.db")
	v.SetDefault("auth.token", "")
	v.SetDefault("auth.tokenttl", "24h")
	v.SetDefault("auth.bcryptcost", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("cors.alloworigins", []string{"*"})
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "blogpost-snapshots")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")
	return v
}

// Load reads configuration from environment variables and optional config files.
// An explicit file path must exist; otherwise ./config.* is read when present.
func Load(v *viper.Viper, file string) (Config, error) {
	// real environment wins over .env
	_ = godotenv.Load()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // optional file
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Auth.Token = strings.TrimSpace(cfg.Auth.Token)

	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.Auth.Token == "" {
		errs = append(errs, errors.New("auth.token is required"))
	} else if len(c.Auth.Token) < MinTokenKeyLength {
		errs = append(errs, fmt.Errorf("auth.token must be at least %d bytes", MinTokenKeyLength))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.tokenttl must be positive"))
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	return errors.Join(errs...)
}
