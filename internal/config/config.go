// Package config
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type Config struct {
	BaseURL      string
	SessionStore string
	SessionPath  string
	DownloadDir  string
	HTTPTimeout  time.Duration
	LogLevel     string
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the process environment alone.
func FromEnv() (*Config, error) {
	cfg := &Config{
		BaseURL:      os.Getenv("AUGMENT_BASE_URL"),
		SessionStore: strings.ToLower(os.Getenv("AUGMENT_SESSION_STORE")),
		SessionPath:  os.Getenv("AUGMENT_SESSION_PATH"),
		DownloadDir:  os.Getenv("AUGMENT_DOWNLOAD_DIR"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:5000"
	}
	if cfg.SessionStore == "" {
		cfg.SessionStore = StoreFile
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = "."
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if raw := os.Getenv("AUGMENT_HTTP_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("config: invalid AUGMENT_HTTP_TIMEOUT %q", raw)
		}
		cfg.HTTPTimeout = d
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the store choice and fills in its default path.
func (c *Config) Validate() error {
	switch c.SessionStore {
	case StoreMemory:
		return nil
	case StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("config: unknown session store %q (want file, sqlite or memory)", c.SessionStore)
	}
	if c.SessionPath == "" {
		c.SessionPath = DefaultSessionPath(c.SessionStore)
	}
	return nil
}

// DefaultSessionPath places the session under the user config directory.
func DefaultSessionPath(store string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	name := "session.json"
	if store == StoreSQLite {
		name = "session.db"
	}
	return filepath.Join(dir, "augment", name)
}
