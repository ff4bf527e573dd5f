package models

import "time"

// Delivery statuses recorded in the run journal
const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Delivery is the journal entry for one branch of one pipeline run
type Delivery struct {
	ID        int64
	RunID     string
	Branch    Granularity
	Status    string
	Chart     string // File name of the rendered image
	Size      int64  // Bytes
	Error     string
	CreatedAt time.Time
}
