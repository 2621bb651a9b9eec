package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigManager(t *testing.T) {
	cm := NewConfigManager()

	assert.NotNil(t, cm)
	assert.NotNil(t, cm.config)
	assert.Empty(t, cm.configPath)
	assert.Equal(t, "0.0.0.0", cm.config.Server.Host)
	assert.Equal(t, 8080, cm.config.Server.Port)
	assert.Equal(t, "info", cm.config.Logging.Level)
	assert.Equal(t, int64(42), cm.config.Pipeline.RandomSeed)
	assert.Equal(t, 0.2, cm.config.Pipeline.TestSize)
}

func TestDefaultHeuristics(t *testing.T) {
	config := NewConfigManager().GetConfig()
	h := config.Heuristics

	assert.Equal(t, 9.0, h.SeasonSunshine["summer"])
	assert.Equal(t, 5.0, h.SeasonSunshine["winter"])
	assert.Equal(t, "NE", h.PrevailingWinds["Sydney"])
	assert.Equal(t, "SW", h.FallbackWindDir)
	assert.Equal(t, 1015.0, h.PressureBase)
	assert.Equal(t, 0.2, h.RainTodayThreshold)
	assert.Equal(t, 150.0, h.GustCap)
}

func TestConfigManager_LoadFromFile_YAML(t *testing.T) {
	tempDir := t.TempDir()

	configContent := `
server:
  host: "127.0.0.1"
  port: 9000
  read_timeout: 60
  write_timeout: 60
  enable_cors: false
paths:
  raw_data: "data/weather.csv"
  processed_dir: "data/processed"
  model_dir: "data/models"
pipeline:
  random_seed: 7
  test_size: 0.3
  num_rounds: 50
logging:
  level: "debug"
  format: "json"
  output: "stdout"
`

	configFile := filepath.Join(tempDir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))

	cm := NewConfigManager()
	require.NoError(t, cm.LoadFromFile(configFile))
	assert.Equal(t, configFile, cm.GetConfigPath())

	config := cm.GetConfig()
	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 9000, config.Server.Port)
	assert.False(t, config.Server.EnableCORS)
	assert.Equal(t, "data/weather.csv", config.Paths.RawData)
	assert.Equal(t, int64(7), config.Pipeline.RandomSeed)
	assert.Equal(t, 0.3, config.Pipeline.TestSize)
	assert.Equal(t, 50, config.Pipeline.NumRounds)
	assert.Equal(t, "debug", config.Logging.Level)

	// Fields absent from the file keep their defaults
	assert.Equal(t, 0.1, config.Pipeline.LearningRate)
	assert.Equal(t, "NE", config.Heuristics.PrevailingWinds["Sydney"])
}

func TestConfigManager_LoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad port", "server:\n  port: 99999\n"},
		{"bad test size", "pipeline:\n  test_size: 1.5\n"},
		{"bad learning rate", "pipeline:\n  learning_rate: -0.1\n"},
		{"empty raw data", "paths:\n  raw_data: \"\"\n"},
		{"not yaml", "{{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configFile, []byte(tt.content), 0644))

			cm := NewConfigManager()
			assert.Error(t, cm.LoadFromFile(configFile))
		})
	}
}

func TestConfigManager_LoadFromFile_Missing(t *testing.T) {
	cm := NewConfigManager()
	assert.Error(t, cm.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestConfigManager_LoadFromEnvironment(t *testing.T) {
	t.Setenv("RAINCAST_HOST", "10.0.0.1")
	t.Setenv("RAINCAST_PORT", "9001")
	t.Setenv("RAINCAST_LOG_LEVEL", "warn")
	t.Setenv("RAINCAST_RAW_DATA", "/srv/data.csv")

	cm := NewConfigManager()
	cm.LoadFromEnvironment()

	config := cm.GetConfig()
	assert.Equal(t, "10.0.0.1", config.Server.Host)
	assert.Equal(t, 9001, config.Server.Port)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, "/srv/data.csv", config.Paths.RawData)
}

func TestConfigManager_LoadFromEnvironment_BadPort(t *testing.T) {
	t.Setenv("RAINCAST_PORT", "not-a-number")

	cm := NewConfigManager()
	cm.LoadFromEnvironment()

	assert.Equal(t, 8080, cm.GetConfig().Server.Port, "invalid port override is ignored")
}

func TestGetConfigReturnsCopy(t *testing.T) {
	cm := NewConfigManager()

	config := cm.GetConfig()
	config.Server.Port = 1234

	assert.Equal(t, 8080, cm.GetConfig().Server.Port, "mutating the copy must not affect the manager")
}
