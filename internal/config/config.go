package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Input         InputConfig   `yaml:"input,omitempty"`
	Logging       LoggingConfig `yaml:"logging,omitempty"`
	Server        ServerConfig  `yaml:"server,omitempty"`
	S3            S3Config      `yaml:"s3,omitempty"`
	MQTT          MQTTConfig    `yaml:"mqtt,omitempty"`
	HomeAssistant HAConfig      `yaml:"home_assistant,omitempty"`
}

// InputConfig holds defaults for loading inverter exports
type InputConfig struct {
	Path    string `yaml:"path,omitempty"`     // Default export file (local path, "-" or s3://bucket/key)
	MaxRows int    `yaml:"max_rows,omitempty"` // Keep only the first N rows (0 = no cap)
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // console or json
	Output string `yaml:"output,omitempty"` // stdout, stderr or a file path
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Listen         string `yaml:"listen,omitempty"`
	MaxSessions    int    `yaml:"max_sessions,omitempty"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes,omitempty"`
}

// S3Config holds settings for reading exports from S3-compatible storage
type S3Config struct {
	Endpoint        string `yaml:"endpoint,omitempty"` // Empty uses the AWS default endpoint
	Region          string `yaml:"region,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`                 // host:port
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // e.g., "pv_dashboard"
	ClientID    string `yaml:"client_id,omitempty"`
}

// HAConfig holds Home Assistant HTTP API configuration
type HAConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`       // e.g., "http://yourdomain.local:5050"
	Token    string `yaml:"token"`     // Long-lived access token
	EntityID string `yaml:"entity_id"` // e.g., "sensor.pv_energy_daily"
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// Validate checks that enabled integrations are fully configured
func (c *Config) Validate() error {
	if c.Input.MaxRows < 0 {
		return fmt.Errorf("input.max_rows must not be negative (got %d)", c.Input.MaxRows)
	}
	if c.Server.MaxSessions < 0 {
		return fmt.Errorf("server.max_sessions must not be negative (got %d)", c.Server.MaxSessions)
	}
	if c.Server.MaxUploadBytes < 0 {
		return fmt.Errorf("server.max_upload_bytes must not be negative (got %d)", c.Server.MaxUploadBytes)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	if c.HomeAssistant.Enabled {
		if c.HomeAssistant.URL == "" {
			return fmt.Errorf("home_assistant.url is required when enabled")
		}
		if c.HomeAssistant.Token == "" {
			return fmt.Errorf("home_assistant.token is required when enabled")
		}
		if c.HomeAssistant.EntityID == "" {
			return fmt.Errorf("home_assistant.entity_id is required when enabled")
		}
	}
	return nil
}

// GetMaxRows returns the row cap for loading, 0 meaning unlimited
func (c *Config) GetMaxRows() int {
	if c.Input.MaxRows < 0 {
		return 0
	}
	return c.Input.MaxRows
}

// GetListen returns the HTTP listen address with a default of :8080
func (c *Config) GetListen() string {
	if c.Server.Listen == "" {
		return ":8080"
	}
	return c.Server.Listen
}

// GetMaxSessions returns the number of concurrently held sessions (default 32)
func (c *Config) GetMaxSessions() int {
	if c.Server.MaxSessions <= 0 {
		return 32
	}
	return c.Server.MaxSessions
}

// GetMaxUploadBytes returns the upload size limit (default 32 MiB)
func (c *Config) GetMaxUploadBytes() int64 {
	if c.Server.MaxUploadBytes <= 0 {
		return 32 << 20
	}
	return c.Server.MaxUploadBytes
}

// GetRegion returns the S3 region, falling back to us-east-1
func (s S3Config) GetRegion() string {
	if s.Region == "" {
		return "us-east-1"
	}
	return s.Region
}

// GetTopicPrefix returns the MQTT topic prefix (default "pv_dashboard")
func (m MQTTConfig) GetTopicPrefix() string {
	if m.TopicPrefix == "" {
		return "pv_dashboard"
	}
	return m.TopicPrefix
}

// GetClientID returns the MQTT client id (default "pvdash")
func (m MQTTConfig) GetClientID() string {
	if m.ClientID == "" {
		return "pvdash"
	}
	return m.ClientID
}
