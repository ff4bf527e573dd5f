package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/jgoulah/bandwidthscraper/internal/config"
	"github.com/rs/zerolog"
)

// Telegram uploads photos through the Bot API sendPhoto method
type Telegram struct {
	client   *http.Client
	endpoint string
	chatID   string
}

// NewTelegram creates a Telegram notifier bound to one bot and chat
func NewTelegram(cfg config.TelegramConfig) *Telegram {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = config.DefaultTelegramURL
	}
	return &Telegram{
		client:   &http.Client{Timeout: cfg.Timeout},
		endpoint: fmt.Sprintf("%s/bot%s/sendPhoto", strings.TrimRight(apiURL, "/"), cfg.BotToken),
		chatID:   cfg.ChatID,
	}
}

func (t *Telegram) Name() string {
	return "telegram"
}

// Send posts the photo as a multipart upload with the chat id as a form field
func (t *Telegram) Send(ctx context.Context, photo Photo) error {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writePhotoForm(form, t.chatID, photo))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, pr)
	if err != nil {
		pr.Close()
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		// Never include the endpoint here: it carries the bot token
		return &DeliveryError{Target: t.Name(), Err: redact(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &DeliveryError{Target: t.Name(), StatusCode: resp.StatusCode, Body: string(body)}
	}
	io.Copy(io.Discard, resp.Body)

	zerolog.Ctx(ctx).Info().Str("target", t.Name()).Str("file", photo.Filename).Msg("Photo delivered")
	return nil
}

func writePhotoForm(form *multipart.Writer, chatID string, photo Photo) error {
	if err := form.WriteField("chat_id", chatID); err != nil {
		return err
	}
	part, err := form.CreateFormFile("photo", photo.Filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, photo.Body); err != nil {
		return err
	}
	return form.Close()
}

// redact strips the request URL from transport errors
func redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s request: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
