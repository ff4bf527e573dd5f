package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/go-json-experiment/json"
	"github.com/rs/zerolog"

	"github.com/jgoulah/bandwidthscraper/internal/config"
	"github.com/jgoulah/bandwidthscraper/pkg/models"
)

// ErrNoSummary is returned when a series has no sample to summarize
var ErrNoSummary = errors.New("series has no daily sample")

// Publisher sends usage summaries to an MQTT broker
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
}

// New connects to the configured broker
func New(cfg config.MQTTConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("MQTT publishing is not enabled in config")
	}
	if cfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", cfg.Broker))
	opts.SetClientID("bandwidthscraper")
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(10 * time.Second)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return &Publisher{
		client:      client,
		topicPrefix: topicPrefix(cfg),
	}, nil
}

func topicPrefix(cfg config.MQTTConfig) string {
	if cfg.TopicPrefix == "" {
		return config.DefaultTopicPrefix
	}
	return cfg.TopicPrefix
}

// DailyTopic returns the retained topic for daily summaries
func DailyTopic(prefix string) string {
	return prefix + "/daily"
}

// Summary is the payload published for the latest daily sample
type Summary struct {
	Date       string   `json:"date"`
	DownloadMB *float64 `json:"download_mb"`
	UploadMB   *float64 `json:"upload_mb"`
	GoalMB     *float64 `json:"goal_mb,omitempty"`
}

// NewSummary builds a summary from the last sample of a daily series.
// Missing measures are published as null.
func NewSummary(series models.Series) (Summary, error) {
	last, ok := series.Last()
	if !ok {
		return Summary{}, ErrNoSummary
	}

	return Summary{
		Date:       last.Time.Format("2006-01-02"),
		DownloadMB: measurePtr(last.Out),
		UploadMB:   measurePtr(last.In),
		GoalMB:     series.Goal,
	}, nil
}

func measurePtr(m models.Measure) *float64 {
	if v, ok := m.Float(); ok {
		return &v
	}
	return nil
}

// PublishDaily publishes the latest daily sample as a retained message
func (p *Publisher) PublishDaily(ctx context.Context, series models.Series) error {
	summary, err := NewSummary(series)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}

	topic := DailyTopic(p.topicPrefix)
	token := p.client.Publish(topic, 1, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}

	zerolog.Ctx(ctx).Info().Str("topic", topic).Str("date", summary.Date).Msg("Published daily summary")
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
