package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.GetListen())
	assert.Equal(t, 32, cfg.GetMaxSessions())
	assert.Equal(t, int64(32<<20), cfg.GetMaxUploadBytes())
	assert.Equal(t, 0, cfg.GetMaxRows())
	assert.Equal(t, "pv_dashboard", cfg.MQTT.GetTopicPrefix())
	assert.Equal(t, "pvdash", cfg.MQTT.GetClientID())
	assert.Equal(t, "us-east-1", cfg.S3.GetRegion())
}

func TestLoad_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
input:
  path: export.csv
  max_rows: 10000
logging:
  level: debug
server:
  listen: ":9090"
mqtt:
  enabled: true
  broker: "broker.local:1883"
  topic_prefix: solar
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "export.csv", cfg.Input.Path)
	assert.Equal(t, 10000, cfg.GetMaxRows())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":9090", cfg.GetListen())
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "solar", cfg.MQTT.GetTopicPrefix())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty config is valid", cfg: Config{}},
		{
			name:    "negative row cap",
			cfg:     Config{Input: InputConfig{MaxRows: -1}},
			wantErr: "input.max_rows",
		},
		{
			name:    "mqtt without broker",
			cfg:     Config{MQTT: MQTTConfig{Enabled: true}},
			wantErr: "mqtt.broker",
		},
		{
			name:    "home assistant without token",
			cfg:     Config{HomeAssistant: HAConfig{Enabled: true, URL: "http://ha", EntityID: "sensor.pv"}},
			wantErr: "home_assistant.token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{
		Input:         InputConfig{Path: "s3://bucket/export.csv.gz"},
		HomeAssistant: HAConfig{Enabled: true, URL: "http://ha:5050", Token: "secret", EntityID: "sensor.pv"},
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Input.Path, loaded.Input.Path)
	assert.Equal(t, cfg.HomeAssistant, loaded.HomeAssistant)
}
