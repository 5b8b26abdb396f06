package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/jgoulah/pvdash/internal/config"
	"github.com/jgoulah/pvdash/internal/logging"
	"github.com/jgoulah/pvdash/internal/metrics"
	"github.com/jgoulah/pvdash/pkg/models"
)

// Sink names used in logs and metrics
const (
	SinkMQTT          = "mqtt"
	SinkHomeAssistant = "home_assistant"
)

// Publisher handles publishing daily summaries to MQTT and Home Assistant
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	haConfig    config.HAConfig
	httpClient  *http.Client
}

// New creates a new publisher (supports both MQTT and HA HTTP API)
func New(mqttCfg config.MQTTConfig, haCfg config.HAConfig) (*Publisher, error) {
	// Validate HA config if enabled
	if haCfg.Enabled {
		if haCfg.URL == "" {
			return nil, fmt.Errorf("Home Assistant URL is required when enabled")
		}
		if haCfg.Token == "" {
			return nil, fmt.Errorf("Home Assistant token is required when enabled")
		}
		if haCfg.EntityID == "" {
			return nil, fmt.Errorf("Home Assistant entity_id is required when enabled")
		}
	}

	var client mqtt.Client
	if mqttCfg.Enabled {
		if mqttCfg.Broker == "" {
			return nil, fmt.Errorf("MQTT broker address is required when enabled")
		}

		// Configure MQTT client options
		opts := mqtt.NewClientOptions()
		opts.AddBroker(fmt.Sprintf("tcp://%s", mqttCfg.Broker))
		opts.SetClientID(mqttCfg.GetClientID())
		opts.SetAutoReconnect(true)
		opts.SetConnectRetry(true)
		opts.SetConnectTimeout(10 * time.Second)

		if mqttCfg.Username != "" {
			opts.SetUsername(mqttCfg.Username)
		}
		if mqttCfg.Password != "" {
			opts.SetPassword(mqttCfg.Password)
		}

		// Create and connect client
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
		}
	}

	return NewWithClient(client, mqttCfg, haCfg), nil
}

// NewWithClient creates a publisher around an already connected MQTT client.
// A nil client disables MQTT publishing.
func NewWithClient(client mqtt.Client, mqttCfg config.MQTTConfig, haCfg config.HAConfig) *Publisher {
	return &Publisher{
		client:      client,
		topicPrefix: mqttCfg.GetTopicPrefix(),
		haConfig:    haCfg,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether at least one sink is configured
func (p *Publisher) Enabled() bool {
	return p.client != nil || p.haConfig.Enabled
}

// Topic returns the MQTT topic of a day's summary
func (p *Publisher) Topic(date string) string {
	return fmt.Sprintf("%s/daily/%s", p.topicPrefix, date)
}

// Publish sends a daily summary to every enabled sink
func (p *Publisher) Publish(ctx context.Context, row models.DailySummary) error {
	if !p.Enabled() {
		return fmt.Errorf("no publishing sink is enabled in config")
	}

	if p.client != nil {
		err := p.PublishMQTT(ctx, row)
		record(SinkMQTT, row.Date, err)
		if err != nil {
			return err
		}
	}

	if p.haConfig.Enabled {
		err := p.PublishHA(ctx, row)
		record(SinkHomeAssistant, row.Date, err)
		if err != nil {
			return err
		}
	}

	return nil
}

func record(sink, date string, err error) {
	if err != nil {
		metrics.IncPublish(sink, metrics.ResultError)
		logging.Warn("Publish failed", "sink", sink, "date", date, "error", err.Error())
		return
	}
	metrics.IncPublish(sink, metrics.ResultSuccess)
	logging.Debug("Published daily summary", "sink", sink, "date", date)
}

// PublishMQTT sends the summary as a retained JSON message
func (p *Publisher) PublishMQTT(ctx context.Context, row models.DailySummary) error {
	if p.client == nil {
		return fmt.Errorf("MQTT publishing is not enabled in config")
	}

	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	token := p.client.Publish(p.Topic(row.Date), 1, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publishing %s: %w", row.Date, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing %s: %w", row.Date, err)
	}

	return nil
}

// HAPayload matches the Home Assistant backfill service call data
type HAPayload struct {
	EntityID    string `json:"entity_id"`
	State       string `json:"state"`
	LastChanged string `json:"last_changed"`
	LastUpdated string `json:"last_updated"`
}

// PublishHA sends the day's metered energy to Home Assistant via HTTP API,
// stamped at the day's last sample
func (p *Publisher) PublishHA(ctx context.Context, row models.DailySummary) error {
	if !p.haConfig.Enabled {
		return fmt.Errorf("Home Assistant publishing is not enabled in config")
	}

	// Build the full API URL (AppDaemon API endpoint)
	apiURL := fmt.Sprintf("%s/api/appdaemon/backfill_state", p.haConfig.URL)

	end, err := time.ParseInLocation(models.DayLayout+" "+models.TimeOfDayLayout, row.Date+" "+row.End, time.Local)
	if err != nil {
		return fmt.Errorf("parsing end of day: %w", err)
	}
	timestamp := end.Format(time.RFC3339)

	payload := HAPayload{
		EntityID:    p.haConfig.EntityID,
		State:       fmt.Sprintf("%.2f", row.EnergyMeteredKWh),
		LastChanged: timestamp,
		LastUpdated: timestamp,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.haConfig.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read error response body for debugging
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// GenerateStatistics asks AppDaemon to compile long-term statistics from the
// backfilled states. Run it after publishing.
func (p *Publisher) GenerateStatistics(ctx context.Context) error {
	if !p.haConfig.Enabled {
		return fmt.Errorf("Home Assistant publishing is not enabled in config")
	}

	apiURL := fmt.Sprintf("%s/api/appdaemon/generate_statistics", p.haConfig.URL)
	body, err := json.Marshal(map[string]string{"entity_id": p.haConfig.EntityID})
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.haConfig.Token)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 60 * time.Second} // Longer timeout for statistics generation
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
