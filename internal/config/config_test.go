package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
store: /data/game.db
window_days: 30
full_rebuild: true
progress_step: 5
log_level: debug
metrics:
  textfile: /var/lib/node_exporter/shipledger.prom
export:
  endpoint: http://localhost:9000
  path_style: true
`))
	require.NoError(t, err)

	assert.Equal(t, "/data/game.db", cfg.Store)
	assert.Equal(t, 30, cfg.WindowDays)
	assert.True(t, cfg.FullRebuild)
	assert.Equal(t, 5, cfg.ProgressStep)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/var/lib/node_exporter/shipledger.prom", cfg.Metrics.Textfile)
	assert.Equal(t, "us-east-1", cfg.Export.Region, "unset keys keep their default")
	assert.True(t, cfg.Export.PathStyle)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative window", "window_days: -1"},
		{"zero step", "progress_step: 0"},
		{"step above 100", "progress_step: 101"},
		{"unknown level", "log_level: chatty"},
		{"empty store", `store: ""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse(strings.NewReader("windowdays: 3"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shipledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte("window_days: 7\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.WindowDays)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
