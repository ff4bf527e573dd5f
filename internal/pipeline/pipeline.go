package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jgoulah/bandwidthscraper/internal/chart"
	"github.com/jgoulah/bandwidthscraper/internal/notify"
	"github.com/jgoulah/bandwidthscraper/internal/portal"
	"github.com/jgoulah/bandwidthscraper/pkg/models"
)

// ErrLoginAborted marks branches skipped because strict login failed
var ErrLoginAborted = errors.New("skipped after login failure")

// Portal is the authenticated data source
type Portal interface {
	Login(ctx context.Context) error
	Fetch(ctx context.Context, path string) (jsontext.Value, error)
}

// Journal records branch outcomes
type Journal interface {
	RecordDelivery(ctx context.Context, d models.Delivery) error
}

// SummaryPublisher receives each normalized daily series
type SummaryPublisher interface {
	PublishDaily(ctx context.Context, series models.Series) error
}

// Branch is one portal endpoint and the chart built from it
type Branch struct {
	Granularity models.Granularity
	Path        string
}

// DefaultBranches are run in this order
var DefaultBranches = []Branch{
	{Granularity: models.Hourly, Path: portal.HourlyPath},
	{Granularity: models.Daily, Path: portal.DailyPath},
}

// Pipeline runs one login followed by each branch in sequence
type Pipeline struct {
	Portal    Portal
	Renderer  *chart.Renderer
	Notifiers []notify.Notifier
	Branches  []Branch

	Journal     Journal          // Optional
	Summary     SummaryPublisher // Optional
	StrictLogin bool
	TempDir     string // Parent for per-branch chart directories; empty uses os.TempDir

	state State
}

// New creates a pipeline with the default renderer and branches
func New(p Portal, notifiers ...notify.Notifier) *Pipeline {
	return &Pipeline{
		Portal:    p,
		Renderer:  chart.NewRenderer(),
		Notifiers: notifiers,
		Branches:  DefaultBranches,
	}
}

// State returns the state reached by the last run
func (p *Pipeline) State() State {
	return p.state
}

// Run executes the pipeline. Branch failures are reported, never returned early.
func (p *Pipeline) Run(ctx context.Context) *Report {
	report := &Report{RunID: uuid.NewString(), StartedAt: time.Now()}

	logger := zerolog.Ctx(ctx).With().Str("run_id", report.RunID).Logger()
	ctx = logger.WithContext(ctx)

	p.state = Unauthenticated
	logger.Info().Msg("Pipeline started")

	if err := p.Portal.Login(ctx); err != nil {
		report.LoginErr = err
		logger.Error().Err(err).Msg("Login failed")

		if p.StrictLogin {
			for _, b := range p.Branches {
				result := BranchResult{Granularity: b.Granularity, Status: models.StatusSkipped, Err: ErrLoginAborted}
				report.Branches = append(report.Branches, result)
				p.record(ctx, report.RunID, result)
			}
			report.State = p.state
			report.Duration = time.Since(report.StartedAt)
			logger.Warn().Msg("Pipeline aborted")
			return report
		}
		// Fetches will report their own failures against an unauthenticated session
		logger.Warn().Msg("Continuing without an authenticated session")
	} else {
		report.Authenticated = true
		p.transition(ctx, Authenticated)
	}

	for _, b := range p.Branches {
		result := p.runBranch(ctx, b)
		report.Branches = append(report.Branches, result)
		p.record(ctx, report.RunID, result)
		p.transition(ctx, doneState(b.Granularity))
	}

	p.transition(ctx, Complete)
	report.State = p.state
	report.Duration = time.Since(report.StartedAt)

	logger.Info().
		Int("delivered", report.Delivered()).
		Int("failed", len(report.Branches)-report.Delivered()).
		Dur("duration", report.Duration).
		Msg("Pipeline complete")
	return report
}

func (p *Pipeline) transition(ctx context.Context, next State) {
	zerolog.Ctx(ctx).Debug().Stringer("from", p.state).Stringer("to", next).Msg("State transition")
	p.state = next
}

func (p *Pipeline) runBranch(ctx context.Context, b Branch) BranchResult {
	logger := zerolog.Ctx(ctx).With().Str("branch", string(b.Granularity)).Logger()
	ctx = logger.WithContext(ctx)

	result := BranchResult{Granularity: b.Granularity, Status: models.StatusFailed}

	raw, err := p.Portal.Fetch(ctx, b.Path)
	if err != nil {
		result.Err = fmt.Errorf("fetching %s: %w", b.Granularity, err)
		logger.Error().Err(result.Err).Msg("Branch failed")
		return result
	}

	series, err := portal.Normalize(b.Granularity, raw)
	if err != nil {
		result.Err = fmt.Errorf("normalizing %s: %w", b.Granularity, err)
		logger.Error().Err(result.Err).Msg("Branch failed")
		return result
	}
	result.Samples = series.Len()

	if b.Granularity == models.Daily && p.Summary != nil {
		if err := p.Summary.PublishDaily(ctx, series); err != nil {
			logger.Warn().Err(err).Msg("Could not publish daily summary")
		}
	}

	img, err := p.Renderer.Render(series)
	if err != nil {
		result.Err = err
		logger.Error().Err(err).Msg("Branch failed")
		return result
	}
	result.Chart = img.Name
	result.Size = int64(img.Size())

	delivered, err := p.deliver(ctx, img)
	result.Delivered = delivered
	if err != nil {
		result.Err = err
		logger.Error().Err(err).Msg("Branch failed")
		return result
	}

	result.Status = models.StatusDelivered
	logger.Info().Str("chart", img.Name).Int("samples", result.Samples).Strs("targets", delivered).Msg("Branch delivered")
	return result
}

// deliver writes the chart to a branch-scoped directory, uploads it to
// every notifier and removes the directory afterwards
func (p *Pipeline) deliver(ctx context.Context, img chart.Image) ([]string, error) {
	if len(p.Notifiers) == 0 {
		return nil, errors.New("no delivery targets configured")
	}

	dir, err := os.MkdirTemp(p.TempDir, "bandwidthscraper-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(dir)

	path, err := img.WriteFile(dir)
	if err != nil {
		return nil, err
	}

	var delivered []string
	var errs []error
	for _, n := range p.Notifiers {
		if err := sendFile(ctx, n, path, img.Name); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered = append(delivered, n.Name())
	}

	return delivered, errors.Join(errs...)
}

func sendFile(ctx context.Context, n notify.Notifier, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening chart: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("reading chart size: %w", err)
	}

	return n.Send(ctx, notify.Photo{Filename: name, Size: info.Size(), Body: f})
}

func (p *Pipeline) record(ctx context.Context, runID string, result BranchResult) {
	if p.Journal == nil {
		return
	}

	d := models.Delivery{
		RunID:     runID,
		Branch:    result.Granularity,
		Status:    result.Status,
		Chart:     result.Chart,
		Size:      result.Size,
		CreatedAt: time.Now(),
	}
	if result.Err != nil {
		d.Error = result.Err.Error()
	}

	if err := p.Journal.RecordDelivery(ctx, d); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("Could not record delivery")
	}
}
