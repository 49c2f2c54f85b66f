package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_DATABASE", "postline")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.PlatformTimeout)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, "logs/all.log", cfg.LogPath)
	assert.Equal(t, "08:00", cfg.ReportSendTime)
	assert.Equal(t, "fa", cfg.DefaultLanguage)
	assert.Equal(t, 20, cfg.SendRate)
	assert.Empty(t, cfg.ReportRecipients)
}

func TestLoadConfigMissingBotToken(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
}

func TestLoadConfigMissingMongo(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MONGODB_URI", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGODB_URI")
}

func TestLoadConfigRecipients(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REPORT_RECIPIENTS", "ops@example.com, admin@example.com ,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@example.com", "admin@example.com"}, cfg.ReportRecipients)
}

func TestLoadConfigInvalidReportTime(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REPORT_SEND_TIME", "25:99")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPORT_SEND_TIME")
}

func TestLoadConfigInvalidTimeout(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PLATFORM_TIMEOUT_SECONDS", "zero")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLATFORM_TIMEOUT_SECONDS")
}
