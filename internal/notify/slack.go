package notify

import (
	"context"

	"github.com/jgoulah/bandwidthscraper/internal/config"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// Slack uploads photos to a channel as files
type Slack struct {
	client  *slack.Client
	channel string
}

// NewSlack creates a Slack notifier bound to one channel
func NewSlack(cfg config.SlackConfig) *Slack {
	var opts []slack.Option
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	return &Slack{
		client:  slack.New(cfg.Token, opts...),
		channel: cfg.Channel,
	}
}

func (s *Slack) Name() string {
	return "slack"
}

func (s *Slack) Send(ctx context.Context, photo Photo) error {
	summary, err := s.client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Reader:   photo.Body,
		FileSize: int(photo.Size),
		Filename: photo.Filename,
		Title:    photo.Filename,
		Channel:  s.channel,
	})
	if err != nil {
		return &DeliveryError{Target: s.Name(), Err: err}
	}

	zerolog.Ctx(ctx).Info().Str("target", s.Name()).Str("file_id", summary.ID).Msg("Photo delivered")
	return nil
}
