package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv(env(nil))

	assert.Equal(t, "2025-09-03", cfg.NotionAPIVersion)
	assert.Equal(t, "https://api.notion.com/v1", cfg.NotionBaseURL)
	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, 5, cfg.EnrichBatchSize)
	assert.Zero(t, cfg.ListingCacheTTL)
	assert.Equal(t, []string{"NOTION_API_KEY", "NOTION_PARENT_PAGE_ID", "GEMINI_API_KEY"}, cfg.Missing())
	assert.False(t, cfg.NotionConfigured())
}

func TestFromEnv_Values(t *testing.T) {
	cfg := FromEnv(env(map[string]string{
		"NOTION_API_KEY":        "secret_abc",
		"NOTION_PARENT_PAGE_ID": " page-1 ",
		"GEMINI_API_KEY":        "g-key",
		"NOTION_API_VERSION":    "2022-06-28",
		"PORT":                  "8080",
		"LOG_LEVEL":             "DEBUG",
		"LISTING_CACHE_TTL":     "90s",
		"ENRICH_BATCH_SIZE":     "3",
	}))

	assert.Empty(t, cfg.Missing())
	assert.Equal(t, "page-1", cfg.NotionParentPageID)
	assert.Equal(t, "2022-06-28", cfg.NotionAPIVersion)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 90*time.Second, cfg.ListingCacheTTL)
	assert.Equal(t, 3, cfg.EnrichBatchSize)
}

func TestParseTTL(t *testing.T) {
	assert.Equal(t, 5*time.Minute, parseTTL("5m"))
	assert.Equal(t, 300*time.Second, parseTTL("300"))
	assert.Zero(t, parseTTL("soon"))
	assert.Zero(t, parseTTL("-1"))
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("NOTION_PARENT_PAGE_ID=from-file\nPORT=9999\n"), 0o600))
	t.Chdir(dir)
	t.Setenv("PORT", "4000")
	os.Unsetenv("NOTION_PARENT_PAGE_ID")
	t.Cleanup(func() { os.Unsetenv("NOTION_PARENT_PAGE_ID") })

	cfg := Load()
	assert.Equal(t, ".env", cfg.EnvFile)
	assert.Equal(t, "from-file", cfg.NotionParentPageID)
	assert.Equal(t, "4000", cfg.Port)
}

func TestNewLogger(t *testing.T) {
	logger, err := FromEnv(env(map[string]string{"LOG_LEVEL": "debug"})).NewLogger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestConfig_Has(t *testing.T) {
	cfg := FromEnv(env(map[string]string{
		"NOTION_API_KEY": "secret_abc",
	}))

	assert.True(t, cfg.Has("NOTION_API_KEY"))
	assert.False(t, cfg.Has("NOTION_PARENT_PAGE_ID"))
	assert.False(t, cfg.Has("GEMINI_API_KEY"))
	assert.False(t, cfg.Has("SOMETHING_ELSE"))
}
