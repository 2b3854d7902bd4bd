// Package config loads server settings from the environment (and a .env
// file in development).
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const devSecret = "dev_secret_change_me"

type Config struct {
	Port         string `env:"PORT" envDefault:"4000"`
	DBPath       string `env:"DB_PATH" envDefault:"./data/app.db"`
	Env          string `env:"NODE_ENV" envDefault:"development"`
	ClientOrigin string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:3000"`
	PublicURL    string `env:"PUBLIC_URL" envDefault:"http://localhost:3000"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"` // json | console

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"30"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"pokeguess_token"`

	PokeAPIBaseURL string        `env:"POKEAPI_BASE_URL" envDefault:"https://pokeapi.co/api/v2"`
	LookupTimeout  time.Duration `env:"LOOKUP_TIMEOUT" envDefault:"10s"`

	CompetitiveLives   int `env:"COMPETITIVE_LIVES" envDefault:"3"`
	CompetitiveSeconds int `env:"COMPETITIVE_SECONDS" envDefault:"300"`

	TargetStrategy string `env:"TARGET_STRATEGY" envDefault:"fixed"` // fixed | daily | random
	TargetName     string `env:"TARGET_NAME"`
	DailySalt      string `env:"DAILY_SALT" envDefault:"pokeguess"`
	RosterFile     string `env:"ROSTER_FILE"`

	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	ReapInterval       time.Duration `env:"SESSION_REAP_INTERVAL" envDefault:"1m"`

	Artwork Artwork `envPrefix:"ARTWORK_"`
}

// Artwork configures the prefetcher: "off", "warm" (HTTP GET) or "s3" (bucket mirror).
type Artwork struct {
	Mode            string `env:"MODE" envDefault:"warm"`
	Bucket          string `env:"BUCKET"`
	Endpoint        string `env:"ENDPOINT"`
	Region          string `env:"REGION" envDefault:"auto"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	Prefix          string `env:"PREFIX" envDefault:"artwork/"`
}

// Production reports whether cookies must be Secure.
func (c *Config) Production() bool { return c.Env == "production" }

// Addr is the listen address.
func (c *Config) Addr() string { return ":" + c.Port }

// TokenTTL is the session token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}

// Load reads .env (if present) and parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Production() && (c.JWTSecret == "" || c.JWTSecret == devSecret) {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.JWTExpiresDays <= 0 {
		return errors.New("JWT_EXPIRES_DAYS must be positive")
	}
	if c.CompetitiveLives <= 0 || c.CompetitiveSeconds <= 0 {
		return errors.New("COMPETITIVE_LIVES and COMPETITIVE_SECONDS must be positive")
	}
	switch c.Artwork.Mode {
	case "off", "warm":
	case "s3":
		if c.Artwork.Bucket == "" {
			return errors.New("ARTWORK_BUCKET is required when ARTWORK_MODE=s3")
		}
	default:
		return fmt.Errorf("unknown ARTWORK_MODE %q", c.Artwork.Mode)
	}
	return nil
}
