// Package config loads the server's configuration from the environment.
//
// A .env file in the working directory is loaded first (godotenv) so
// local development doesn't need exported shell variables; real
// environment variables always win over .env entries.
//
// Most settings have sensible defaults. The one hard requirement is
// MAPBOX_TOKEN: the map is the product, and shipping without a token —
// or with somebody's shared fallback token baked into the source —
// is worse than refusing to start. Load fails fast instead.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// WriteMode controls who may submit sightings and upload images.
type WriteMode string

const (
	// WriteModePublic accepts anonymous submissions (the default).
	WriteModePublic WriteMode = "public"
	// WriteModeAuthenticated requires a signed-in GitHub contributor
	// for POST /api/sightings and POST /api/images. Reads stay public.
	WriteModeAuthenticated WriteMode = "authenticated"
)

// Config holds everything the server needs to start.
type Config struct {
	Port        int
	DBPath      string
	MediaDir    string
	TemplateDir string
	StaticDir   string

	// MapboxToken is the map access token rendered into the pages.
	// Mandatory; must look like a public token ("pk." prefix).
	MapboxToken string

	WriteMode WriteMode

	// JWT + GitHub OAuth settings. Only required when WriteMode is
	// authenticated; otherwise the auth routes run with whatever is
	// set (possibly nothing, in which case sign-in just fails).
	JWTSecret          string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Load reads configuration from .env (if present) and the environment.
func Load() (*Config, error) {
	// Missing .env is fine — production sets real env vars.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvAsInt("PORT", 8080),
		DBPath:      getEnv("DB_PATH", "ghost-atlas.db"),
		MediaDir:    getEnv("MEDIA_DIR", "media"),
		TemplateDir: getEnv("TEMPLATE_DIR", "web/templates"),
		StaticDir:   getEnv("STATIC_DIR", "web/static"),

		MapboxToken: os.Getenv("MAPBOX_TOKEN"),

		WriteMode: WriteMode(getEnv("WRITE_MODE", string(WriteModePublic))),

		JWTSecret:          os.Getenv("JWT_SECRET"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  getEnv("GITHUB_CALLBACK_URL", "http://localhost:8080/auth/github/callback"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MapboxToken == "" {
		return fmt.Errorf("config: MAPBOX_TOKEN is required (get one at https://account.mapbox.com/access-tokens/)")
	}
	if !strings.HasPrefix(c.MapboxToken, "pk.") {
		return fmt.Errorf("config: MAPBOX_TOKEN must be a public token starting with \"pk.\"")
	}

	switch c.WriteMode {
	case WriteModePublic, WriteModeAuthenticated:
	default:
		return fmt.Errorf("config: WRITE_MODE must be %q or %q, got %q", WriteModePublic, WriteModeAuthenticated, c.WriteMode)
	}

	if c.WriteMode == WriteModeAuthenticated {
		if c.JWTSecret == "" {
			return fmt.Errorf("config: JWT_SECRET is required when WRITE_MODE=authenticated")
		}
		if c.GitHubClientID == "" || c.GitHubClientSecret == "" {
			return fmt.Errorf("config: GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are required when WRITE_MODE=authenticated")
		}
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d is out of range", c.Port)
	}

	return nil
}

// AuthConfigured reports whether the GitHub sign-in flow can work at
// all. In public-write mode auth is optional; the server only mounts
// the auth routes when this is true.
func (c *Config) AuthConfigured() bool {
	return c.JWTSecret != "" && c.GitHubClientID != "" && c.GitHubClientSecret != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
