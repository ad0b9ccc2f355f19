package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no config file present

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gpt-4.1", cfg.OpenAI.Model)
	assert.Equal(t, "gpt-4.1-mini", cfg.OpenAI.CleanupModel)
	assert.Equal(t, "basic", cfg.Tavily.Depth)
	assert.Equal(t, 5, cfg.Tavily.MaxResults)

	assert.Equal(t, 30, cfg.Research.QueryTimeoutSecs)
	assert.Equal(t, 3, cfg.Research.QueryRetries)
	assert.Equal(t, 2, cfg.Research.QueryBackoffSecs)
	assert.Equal(t, 4, cfg.Research.MaxQueries)
	assert.Equal(t, 2, cfg.Research.BriefingConcurrency)
	assert.Equal(t, 8000, cfg.Research.MaxDocLength)
	assert.Equal(t, 120000, cfg.Research.MaxPromptLength)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RESEARCHER_RESEARCH_MAX_QUERIES", "6")
	t.Setenv("RESEARCHER_TAVILY_DEPTH", "advanced")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Research.MaxQueries)
	assert.Equal(t, "advanced", cfg.Tavily.Depth)
}

func TestInitLogger_RejectsBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
}
