package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/jgoulah/bandwidthscraper/pkg/models"
)

// State is a pipeline lifecycle stage
type State int

const (
	Unauthenticated State = iota
	Authenticated
	HourlyDone
	DailyDone
	Complete
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case HourlyDone:
		return "hourly_done"
	case DailyDone:
		return "daily_done"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func doneState(g models.Granularity) State {
	if g == models.Hourly {
		return HourlyDone
	}
	return DailyDone
}

// BranchResult is the outcome of one branch
type BranchResult struct {
	Granularity models.Granularity
	Status      string
	Samples     int
	Chart       string
	Size        int64
	Delivered   []string // Notifier names that accepted the chart
	Err         error
}

// Report summarizes one run
type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	State     State
	LoginErr  error
	Branches  []BranchResult

	// Authenticated is false when the run continued past a failed login
	Authenticated bool
}

// Branch returns the result for a granularity
func (r *Report) Branch(g models.Granularity) (BranchResult, bool) {
	for _, b := range r.Branches {
		if b.Granularity == g {
			return b, true
		}
	}
	return BranchResult{}, false
}

// Delivered counts branches whose chart reached every target
func (r *Report) Delivered() int {
	n := 0
	for _, b := range r.Branches {
		if b.Status == models.StatusDelivered {
			n++
		}
	}
	return n
}

// Failed reports whether no branch was delivered
func (r *Report) Failed() bool {
	return r.Delivered() == 0
}

// Err joins the login and branch errors
func (r *Report) Err() error {
	var errs []error
	if r.LoginErr != nil {
		errs = append(errs, fmt.Errorf("login: %w", r.LoginErr))
	}
	for _, b := range r.Branches {
		if b.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b.Granularity, b.Err))
		}
	}
	return errors.Join(errs...)
}
