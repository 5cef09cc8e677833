package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testEnvPostgresDSN  = "POSTGRES_DSN"
	testEnvBotToken     = "BOT_TOKEN"
	testEnvLLMAPIKey    = "LLM_API_KEY"
	testEnvSearchAPIKey = "SEARCH_API_KEY"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()

	t.Setenv(testEnvPostgresDSN, "postgres://localhost/test")
	t.Setenv(testEnvBotToken, "123456:ABC-DEF")
	t.Setenv(testEnvLLMAPIKey, "llm-key")
	t.Setenv(testEnvSearchAPIKey, "search-key")
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv(testEnvPostgresDSN)
	os.Unsetenv(testEnvBotToken)
	os.Unsetenv(testEnvLLMAPIKey)
	os.Unsetenv(testEnvSearchAPIKey)

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "local", cfg.AppEnv)
	require.Equal(t, 8080, cfg.HealthPort)
	require.Equal(t, "sonar-pro", cfg.SearchModel)
	require.Equal(t, "FLUX.1-dev", cfg.ImageModel)
	require.Equal(t, 10, cfg.SummaryWindowSize)
	require.Equal(t, 8000, cfg.SummaryMaxChars)
	require.Equal(t, 3, cfg.DefaultSummarizeHours)
	require.Equal(t, "whitelist", cfg.CmdWhitelist)
	require.Equal(t, "whitelist_group", cfg.CmdWhitelistGroup)
	require.Equal(t, "summarize", cfg.CmdSummarize)
	require.Equal(t, "px", cfg.CmdResearch)
	require.Equal(t, "art", cfg.CmdArt)
	require.False(t, cfg.DisableAutoResponses)
	require.Empty(t, cfg.CriteriaKeywords)
}

func TestLoad_Overrides(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("SUMMARY_WINDOW_SIZE", "5")
	t.Setenv("CRITERIA_KEYWORDS", "urgent,asap")
	t.Setenv("DISABLE_AUTO_RESPONSES", "true")
	t.Setenv("CMD_RESEARCH", "research")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 5, cfg.SummaryWindowSize)
	require.Equal(t, []string{"urgent", "asap"}, cfg.CriteriaKeywords)
	require.True(t, cfg.DisableAutoResponses)
	require.Equal(t, "research", cfg.CmdResearch)
}
