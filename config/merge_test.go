package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/vigil/logging"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHierarchicalMerging tests the three-level configuration merge:
// global -> project -> override
func TestHierarchicalMerging(t *testing.T) {
	tmpDir := t.TempDir()

	home := filepath.Join(tmpDir, "home")
	t.Setenv("VIGIL_HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "config"), 0755))

	globalConfig := `
version: "1.0"
workers: 8
recovery:
  max_attempts: 5
  fallbacks: ["yes"]
notify:
  channels:
    - type: shell
      command: notify-send

logging:
  level: info
  format:
    preset: simple
`
	require.NoError(t, os.WriteFile(filepath.Join(home, "config", "vigil.yml"), []byte(globalConfig), 0644))

	projectDir := filepath.Join(tmpDir, "project")
	require.NoError(t, os.MkdirAll(projectDir, 0755))

	projectConfig := `
version: "1.1"
targets:
  - name: api
    path: /srv/api
recovery:
  settle_delay: 1s

logging:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "vigil.yml"), []byte(projectConfig), 0644))

	overrideConfig := `
workers: 2
recovery:
  fallbacks: ["{Enter}"]
`
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "vigil.override.yml"), []byte(overrideConfig), 0644))

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	cfg, err := LoadFromWithLogger(projectDir, logger)
	require.NoError(t, err)

	assert.Equal(t, "1.1", cfg.Version, "version from project")
	assert.Equal(t, 2, cfg.Workers, "workers from override")
	assert.Equal(t, 5, cfg.Recovery.MaxAttempts, "max_attempts from global")
	assert.Equal(t, time.Second, cfg.Recovery.SettleDelay.Std(), "settle_delay from project")
	assert.Equal(t, []string{"{Enter}"}, cfg.Recovery.Fallbacks, "fallbacks replaced by override")
	require.Len(t, cfg.Notify.Channels, 1)
	assert.Equal(t, "shell", cfg.Notify.Channels[0].Type, "channels from global")
	require.Len(t, cfg.Targets, 1)

	var logCfg logging.Config
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "debug", logCfg.Level, "extension key from project")
	assert.Equal(t, "simple", logCfg.Format.Preset, "sibling extension key kept from global")
}

func TestMergeConfigsKeepsBaseWhenOverrideEmpty(t *testing.T) {
	history := false
	base := &Config{
		Workers:  3,
		Registry: "/etc/vigil/projects.json",
		Reports:  ReportsConfig{Dir: "/var/lib/vigil", History: &history},
		Oracle:   OracleConfig{URL: "http://localhost:9000/health"},
	}

	merged := mergeConfigs(base, &Config{})

	assert.Equal(t, 3, merged.Workers)
	assert.Equal(t, "/etc/vigil/projects.json", merged.Registry)
	assert.False(t, merged.Reports.HistoryEnabled())
	assert.Equal(t, "http://localhost:9000/health", merged.Oracle.URL)
}

func TestMergeConfigsOracleReplacesWholesale(t *testing.T) {
	base := &Config{Oracle: OracleConfig{URL: "http://localhost:9000/health"}}
	override := &Config{Oracle: OracleConfig{Command: []string{"true"}}}

	merged := mergeConfigs(base, override)

	assert.Equal(t, []string{"true"}, merged.Oracle.Command)
	assert.Empty(t, merged.Oracle.URL, "command and url must not both survive a merge")
}
