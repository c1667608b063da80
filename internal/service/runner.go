// Package service orchestrates report runs: generation, rendering, run
// registry records and lifecycle events.
package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Checker-Finance/connect-reports/internal/metrics"
	"github.com/Checker-Finance/connect-reports/internal/render"
	"github.com/Checker-Finance/connect-reports/internal/report"
	"github.com/Checker-Finance/connect-reports/internal/store"
)

// EventSink receives report run lifecycle events. It is optional; a nil sink
// disables event publishing.
type EventSink interface {
	PublishRunStarted(ctx context.Context, runID uuid.UUID, report string) error
	PublishRunCompleted(ctx context.Context, runID uuid.UUID, report string, rows int, elapsed time.Duration) error
	PublishRunFailed(ctx context.Context, runID uuid.UUID, report string, runErr error) error
}

// Runner executes report runs end to end.
type Runner struct {
	gen    *report.Generator
	store  store.Store
	events EventSink
	logger *zap.Logger
}

// NewRunner wires a run orchestrator. events may be nil.
func NewRunner(gen *report.Generator, st store.Store, events EventSink, logger *zap.Logger) *Runner {
	return &Runner{
		gen:    gen,
		store:  st,
		events: events,
		logger: logger,
	}
}

// Run generates one report and renders it to w. It returns the number of
// emitted items (header included for CSV) and the first error encountered.
// Registry and event failures are logged but do not fail the run.
func (r *Runner) Run(ctx context.Context, opts report.Options, progress report.ProgressFunc, w io.Writer) (int, error) {
	runID := uuid.New()
	start := time.Now()

	log := r.logger.With(
		zap.String("run_id", runID.String()),
		zap.String("report", report.Name),
	)

	if err := r.store.RecordRunStart(ctx, runID, report.Name, productLabel(opts.Product)); err != nil {
		log.Warn("runner.record_start_failed", zap.Error(err))
	}
	if r.events != nil {
		if err := r.events.PublishRunStarted(ctx, runID, report.Name); err != nil {
			log.Warn("runner.event_failed", zap.Error(err))
		}
	}

	rows, err := r.render(ctx, opts, progress, w)
	elapsed := time.Since(start)
	metrics.ObserveDuration(metrics.ReportDuration, start, report.Name)

	if err != nil {
		metrics.IncReportRun(report.Name, "error")
		log.Error("runner.run_failed",
			zap.Int("rows", rows),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		if serr := r.store.RecordRunFinish(ctx, runID, rows, err); serr != nil {
			log.Warn("runner.record_finish_failed", zap.Error(serr))
		}
		if r.events != nil {
			if perr := r.events.PublishRunFailed(ctx, runID, report.Name, err); perr != nil {
				log.Warn("runner.event_failed", zap.Error(perr))
			}
		}
		return rows, err
	}

	metrics.IncReportRun(report.Name, "ok")
	log.Info("runner.run_completed",
		zap.Int("rows", rows),
		zap.Duration("elapsed", elapsed))
	if serr := r.store.RecordRunFinish(ctx, runID, rows, nil); serr != nil {
		log.Warn("runner.record_finish_failed", zap.Error(serr))
	}
	if r.events != nil {
		if perr := r.events.PublishRunCompleted(ctx, runID, report.Name, rows, elapsed); perr != nil {
			log.Warn("runner.event_failed", zap.Error(perr))
		}
	}
	return rows, nil
}

func (r *Runner) render(ctx context.Context, opts report.Options, progress report.ProgressFunc, w io.Writer) (int, error) {
	stream, err := r.gen.Generate(ctx, opts, progress)
	if err != nil {
		return 0, err
	}
	err = render.CSV(ctx, w, stream)
	return stream.Count(), err
}

func productLabel(p report.ProductFilter) string {
	if p.All {
		return "all"
	}
	return strings.Join(p.Choices, ",")
}
