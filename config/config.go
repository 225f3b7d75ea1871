package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the runtime settings sourced from the environment.
type Config struct {
	JellyfinServer   string
	JellyfinUser     string
	JellyfinPassword string

	TMDBAPIKey string
	Locale     string

	Port      int
	PublicURL string

	CacheDir           string
	CatalogConcurrency int

	LogFile string
}

const (
	defaultPort        = 60421
	defaultLocale      = "sv-SE"
	defaultCacheDir    = "./data"
	defaultConcurrency = 8
)

// FromEnv reads configuration from environment variables. The Jellyfin
// server address and credentials are required; everything else has a
// working default. TMDB enrichment stays off unless TMDB_API_KEY is set.
func FromEnv() (Config, error) {
	cfg := Config{
		JellyfinServer:     strings.TrimRight(strings.TrimSpace(os.Getenv("JELLYFIN_SERVER")), "/"),
		JellyfinUser:       strings.TrimSpace(os.Getenv("JELLYFIN_USER")),
		JellyfinPassword:   os.Getenv("JELLYFIN_PASSWORD"),
		TMDBAPIKey:         strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		Locale:             strings.TrimSpace(os.Getenv("LOCALE")),
		PublicURL:          strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_URL")), "/"),
		CacheDir:           strings.TrimSpace(os.Getenv("CACHE_DIR")),
		LogFile:            strings.TrimSpace(os.Getenv("LOG_FILE")),
		Port:               defaultPort,
		CatalogConcurrency: defaultConcurrency,
	}

	var missing []string
	if cfg.JellyfinServer == "" {
		missing = append(missing, "JELLYFIN_SERVER")
	}
	if cfg.JellyfinUser == "" {
		missing = append(missing, "JELLYFIN_USER")
	}
	if cfg.JellyfinPassword == "" {
		missing = append(missing, "JELLYFIN_PASSWORD")
	}
	if len(missing) > 0 {
		return Config{}, errors.New("config: missing required environment variables: " + strings.Join(missing, ", "))
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return Config{}, fmt.Errorf("config: invalid PORT %q", v)
		}
		cfg.Port = port
	}

	if v := os.Getenv("CATALOG_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("config: invalid CATALOG_CONCURRENCY %q", v)
		}
		cfg.CatalogConcurrency = n
	}

	if cfg.Locale == "" {
		cfg.Locale = defaultLocale
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = defaultCacheDir
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}

	return cfg, nil
}
