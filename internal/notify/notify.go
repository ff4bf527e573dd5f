package notify

import (
	"context"
	"fmt"
	"io"
)

// Photo is a chart image ready for upload
type Photo struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// Notifier delivers chart images to a chat
type Notifier interface {
	Name() string
	Send(ctx context.Context, photo Photo) error
}

// DeliveryError represents an upload the messaging service did not accept
type DeliveryError struct {
	Target     string
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivering to %s: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("delivering to %s failed (status %d): %s", e.Target, e.StatusCode, e.Body)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
