package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("TTT_TEST_SECRET", "s3cret")
	t.Setenv("TTT_TEST_MONGO", "mongodb://db:27017")

	cfg, err := parse([]byte(`{
		"jwt": {"accessSecret": "${TTT_TEST_SECRET}"},
		"mongodb": {"uri": "${TTT_TEST_MONGO}", "database": "ttt"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.JWT.AccessSecret)
	assert.Equal(t, "mongodb://db:27017", cfg.MongoDB.URI)
	assert.Equal(t, StorageMongoDB, cfg.Storage)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 10000, cfg.Game.IDSpace)
	assert.Equal(t, 100, cfg.Game.MaxIDAttempts)
	assert.Equal(t, 7*24*60, cfg.JWT.AccessTTL)
	assert.Equal(t, 60, cfg.Housekeeping.IntervalSeconds)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"missing secret", `{"mongodb": {"uri": "mongodb://x", "database": "d"}}`, true},
		{"missing mongo", `{"jwt": {"accessSecret": "s"}}`, true},
		{"memory needs no mongo", `{"storage": "memory", "jwt": {"accessSecret": "s"}}`, false},
		{"unknown storage", `{"storage": "redis", "jwt": {"accessSecret": "s"}}`, true},
		{"negative id space", `{"storage": "memory", "jwt": {"accessSecret": "s"}, "game": {"idSpace": -1}}`, true},
		{"malformed", `{`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadReadsEnvironmentFile(t *testing.T) {
	dir := t.TempDir()
	body := `{"logLevel": "debug", "storage": "memory", "jwt": {"accessSecret": "s"}, "server": {"port": 8080}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.test.json"), []byte(body), 0o600))
	t.Setenv("CONFIG_DIR", dir)

	cfg, err := Load("test")
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())

	_, err = Load("missing")
	assert.Error(t, err)
}
