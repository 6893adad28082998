package runner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atikulmunna/logsift/internal/logsource"
	"github.com/atikulmunna/logsift/internal/matcher"
	"github.com/atikulmunna/logsift/internal/model"
)

// Recorder receives the outcome of every run.
type Recorder interface {
	Record(report model.Report)
	Reject()
}

// Runner applies filter tokens to loaded log snapshots and produces reports.
type Runner struct {
	matcher  *matcher.Matcher
	recorder Recorder
	now      func() time.Time
}

// New creates a Runner. recorder may be nil.
func New(m *matcher.Matcher, recorder Recorder) *Runner {
	return &Runner{matcher: m, recorder: recorder, now: time.Now}
}

// Run loads the files behind patterns and filters them.
// Read failures are returned as-is; they are not counted as rejections.
func (r *Runner) Run(ctx context.Context, patterns, tokens []string) (model.Report, error) {
	snap, err := logsource.Snapshot(ctx, patterns)
	if err != nil {
		return model.Report{}, err
	}
	return r.Apply(snap, tokens)
}

// Apply filters an already loaded snapshot.
func (r *Runner) Apply(snap model.Snapshot, tokens []string) (model.Report, error) {
	start := r.now()

	grouping, err := matcher.NewGrouping(tokens)
	if err != nil {
		r.reject(tokens, err)
		return model.Report{}, err
	}
	lines, err := r.matcher.Apply(model.Texts(snap.Lines), grouping)
	if err != nil {
		r.reject(tokens, err)
		return model.Report{}, err
	}

	report := model.Report{
		ID:        uuid.NewString(),
		Filters:   tokens,
		Groups:    grouping.Summary(),
		Sources:   snap.Sources,
		Scanned:   len(snap.Lines),
		Lines:     lines,
		Elapsed:   r.now().Sub(start),
		Timestamp: start,
	}

	slog.Debug("filter applied",
		"id", report.ID,
		"filters", tokens,
		"scanned", report.Scanned,
		"matched", report.Count(),
		"elapsed", report.Elapsed,
	)
	if r.recorder != nil {
		r.recorder.Record(report)
	}
	return report, nil
}

func (r *Runner) reject(tokens []string, err error) {
	if errors.Is(err, matcher.ErrInvalidFilterToken) || errors.Is(err, matcher.ErrNoFilters) {
		slog.Debug("filter rejected", "filters", tokens, "err", err)
		if r.recorder != nil {
			r.recorder.Reject()
		}
	}
}
