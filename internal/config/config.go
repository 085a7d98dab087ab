// Package config reads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Addr   string
	AppEnv string

	// APIBaseURL prefixes every registration API call. Empty in development
	// means same-origin; see APIBase.
	APIBaseURL string
	APITimeout time.Duration

	DraftsDB string
	DraftTTL time.Duration

	EventsFile string

	NATSURL     string
	NATSSubject string
}

// ErrMissingAPIBase is returned in production when API_BASE_URL is unset.
var ErrMissingAPIBase = errors.New("API_BASE_URL is required in production")

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using process environment")
	}
	return FromEnv()
}

// FromEnv builds the config from the current environment only.
func FromEnv() (Config, error) {
	c := Config{
		Addr:        getEnv("ADDR", ":8080"),
		AppEnv:      strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),
		APIBaseURL:  strings.TrimRight(getEnv("API_BASE_URL", ""), "/"),
		DraftsDB:    getEnv("DRAFTS_DB", "drafts.db"),
		EventsFile:  getEnv("EVENTS_FILE", ""),
		NATSURL:     getEnv("NATS_URL", ""),
		NATSSubject: getEnv("NATS_SUBJECT", "techfest.registration.submitted"),
	}

	var err error
	if c.APITimeout, err = duration("API_TIMEOUT", "10s"); err != nil {
		return c, err
	}
	if c.DraftTTL, err = duration("DRAFT_TTL", "24h"); err != nil {
		return c, err
	}

	if c.APIBaseURL == "" {
		if c.Production() {
			return c, ErrMissingAPIBase
		}
		slog.Warn("API_BASE_URL not set, using same-origin API paths", "base", c.APIBase())
	}
	return c, nil
}

func (c Config) Production() bool { return c.AppEnv == EnvProduction }

// APIBase is the URL the API client prefixes. Without API_BASE_URL the API is
// assumed to share this server's origin.
func (c Config) APIBase() string {
	if c.APIBaseURL != "" {
		return c.APIBaseURL
	}
	addr := c.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func duration(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
