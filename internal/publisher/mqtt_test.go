package publisher

import (
	"testing"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/jgoulah/bandwidthscraper/internal/config"
	"github.com/jgoulah/bandwidthscraper/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSummary(t *testing.T) {
	goal := 5000.0
	series := models.Series{
		Granularity: models.Daily,
		Goal:        &goal,
		Samples: []models.Sample{
			{Time: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Out: models.Present(100), In: models.Present(10)},
			{Time: time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), Out: models.Present(2400.5), In: models.Missing()},
		},
	}

	summary, err := NewSummary(series)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-06", summary.Date)
	require.NotNil(t, summary.DownloadMB)
	assert.Equal(t, 2400.5, *summary.DownloadMB)
	assert.Nil(t, summary.UploadMB)
	require.NotNil(t, summary.GoalMB)
	assert.Equal(t, 5000.0, *summary.GoalMB)

	payload, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-01-06","download_mb":2400.5,"upload_mb":null,"goal_mb":5000}`, string(payload))
}

func TestNewSummaryWithoutGoal(t *testing.T) {
	series := models.Series{
		Granularity: models.Daily,
		Samples: []models.Sample{
			{Time: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Out: models.Present(1), In: models.Present(2)},
		},
	}

	summary, err := NewSummary(series)
	require.NoError(t, err)

	payload, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-01-05","download_mb":1,"upload_mb":2}`, string(payload))
}

func TestNewSummaryEmpty(t *testing.T) {
	_, err := NewSummary(models.Series{Granularity: models.Daily})
	assert.ErrorIs(t, err, ErrNoSummary)
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "isp_usage", topicPrefix(config.MQTTConfig{}))
	assert.Equal(t, "home/isp", topicPrefix(config.MQTTConfig{TopicPrefix: "home/isp"}))
	assert.Equal(t, "home/isp/daily", DailyTopic("home/isp"))
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	for _, tt := range []struct {
		name string
		cfg  config.MQTTConfig
		want string
	}{
		{name: "disabled", cfg: config.MQTTConfig{Broker: "localhost:1883"}, want: "not enabled"},
		{name: "no broker", cfg: config.MQTTConfig{Enabled: true}, want: "broker address is required"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg)
			assert.Nil(t, p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
