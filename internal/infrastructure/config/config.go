package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/notionforge/backend/pkg/constants"
	"github.com/notionforge/backend/pkg/utils"
)

// DefaultPort is used when PORT is unset
const DefaultPort = "3001"

// envFiles are tried in order; the first one found is loaded
var envFiles = []string{".env", "../.env", "../../.env"}

// Config is the process configuration read from the environment
type Config struct {
	NotionAPIKey       string
	NotionParentPageID string
	NotionDatabaseID   string
	NotionAPIVersion   string
	NotionBaseURL      string
	GeminiAPIKey       string
	Port               string
	LogLevel           string
	ListingCacheTTL    time.Duration
	EnrichBatchSize    int

	// EnvFile is the .env file that was loaded, if any
	EnvFile string
}

// Load reads a .env file when one exists, then the environment.
// Variables already set in the environment win over the file.
func Load() *Config {
	cfg := FromEnv(os.Getenv)
	for _, p := range envFiles {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err == nil {
			cfg = FromEnv(os.Getenv)
			cfg.EnvFile = p
			break
		}
	}
	return cfg
}

// FromEnv builds a Config from a lookup function
func FromEnv(getenv func(string) string) *Config {
	get := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	cfg := &Config{
		NotionAPIKey:       get(constants.EnvNotionAPIKey),
		NotionParentPageID: get(constants.EnvNotionParentPageID),
		NotionDatabaseID:   get(constants.EnvNotionDatabaseID),
		NotionAPIVersion:   get(constants.EnvNotionAPIVersion),
		NotionBaseURL:      get(constants.EnvNotionBaseURL),
		GeminiAPIKey:       get(constants.EnvGeminiAPIKey),
		Port:               get(constants.EnvPort),
		LogLevel:           strings.ToLower(get(constants.EnvLogLevel)),
		EnrichBatchSize:    utils.ToInt(get(constants.EnvEnrichBatchSize), constants.DefaultEnrichBatchSize),
	}
	if cfg.NotionAPIVersion == "" {
		cfg.NotionAPIVersion = constants.NotionVersionCurrent
	}
	if cfg.NotionBaseURL == "" {
		cfg.NotionBaseURL = constants.NotionBaseURL
	}
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	cfg.ListingCacheTTL = parseTTL(get(constants.EnvListingCacheTTL))
	return cfg
}

// parseTTL accepts a Go duration ("5m") or a number of seconds ("300")
func parseTTL(raw string) time.Duration {
	if ttl, err := time.ParseDuration(raw); err == nil && ttl > 0 {
		return ttl
	}
	if secs := utils.ToInt(raw, 0); secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// Missing lists the required variables that are not set
func (c *Config) Missing() []string {
	var missing []string
	if c.NotionAPIKey == "" {
		missing = append(missing, constants.EnvNotionAPIKey)
	}
	if c.NotionParentPageID == "" {
		missing = append(missing, constants.EnvNotionParentPageID)
	}
	if c.GeminiAPIKey == "" {
		missing = append(missing, constants.EnvGeminiAPIKey)
	}
	return missing
}

// Has reports whether the named required variable is set
func (c *Config) Has(name string) bool {
	switch name {
	case constants.EnvNotionAPIKey:
		return c.NotionAPIKey != ""
	case constants.EnvNotionParentPageID:
		return c.NotionParentPageID != ""
	case constants.EnvGeminiAPIKey:
		return c.GeminiAPIKey != ""
	case constants.EnvNotionDatabaseID:
		return c.NotionDatabaseID != ""
	}
	return false
}

// NotionConfigured reports whether workspace calls can be made
func (c *Config) NotionConfigured() bool {
	return c.NotionAPIKey != ""
}

// Addr is the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("0.0.0.0:%s", c.Port)
}

// NewLogger builds the production zap logger; LOG_LEVEL=debug lowers the level
func (c *Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.LogLevel == "debug" {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
