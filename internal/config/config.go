package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/felo/email-organizer/internal/organizer"
)

// Config holds application configuration
type Config struct {
	// Server settings
	Host      string
	Port      string
	PublicURL string

	// Session store. ":memory:" keeps nothing across restarts.
	DBPath string

	// Generative model
	GeminiAPIKey string
	GeminiModel  string

	// Google sign-in. The secret is optional and only enables the redirect flow.
	GoogleClientID     string
	GoogleClientSecret string
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Host:        "localhost",
		Port:        "8080",
		DBPath:      ":memory:",
		GeminiModel: "gemini-2.5-flash",
	}
}

// Load reads envFile (if given) and then the process environment
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("godotenv.Load failed: %w", err)
		}
	}

	cfg := Default()
	cfg.Host = getenv("HOST", cfg.Host)
	cfg.Port = getenv("PORT", cfg.Port)
	cfg.DBPath = getenv("DB_PATH", cfg.DBPath)
	cfg.GeminiModel = getenv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	cfg.GoogleClientID = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID"))
	cfg.GoogleClientSecret = strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET"))
	cfg.PublicURL = strings.TrimSuffix(getenv("PUBLIC_URL", cfg.URL()), "/")

	return cfg, nil
}

// Validate reports every missing required value as a single configuration error
func (c *Config) Validate() error {
	var missing []string
	if c.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if c.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if len(missing) == 0 {
		return nil
	}
	return organizer.ConfigurationError(fmt.Sprintf(
		"The application is not configured: %s must be set. Update the environment and restart.",
		strings.Join(missing, " and ")))
}

// OAuthEnabled reports whether the redirect sign-in flow can be offered
func (c *Config) OAuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Address returns the full server address
func (c *Config) Address() string {
	return c.Host + ":" + c.Port
}

// URL returns the full server URL
func (c *Config) URL() string {
	return "http://" + c.Address()
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
