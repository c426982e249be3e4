package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/aegis-credit/internal/contracts"
)

// writer is the single consumer of worker outcomes. It owns the summary.
type writer struct {
	runner  *Runner
	summary *Summary
	dryRun  bool
	abort   context.CancelFunc

	pending []outcome
	fatal   error
}

func (w *writer) consume(ctx context.Context, results <-chan outcome) error {
	for out := range results {
		w.accept(ctx, out)
	}
	w.flush(ctx)
	return w.fatal
}

func (w *writer) accept(ctx context.Context, out outcome) {
	log := w.runner.logger.WithRun(w.summary.RunID).
		WithPeriod(out.period.CompanyID, out.period.FiscalYear)

	switch {
	case cancelled(out.err):
		// Cancelled는 Run 종료 시 나머지로 집계
		log.Debug("Company cancelled")
		return
	case out.err != nil:
		log.WithError(out.err).Warn("Company failed")
		w.summary.fail(out.period, out.err)
		return
	case out.skip != "":
		log.WithField("reason", out.skip).Debug("Company skipped: insufficient data")
		w.summary.skip(out.period, out.skip)
		return
	}

	for _, ev := range out.clamps {
		log.WithFields(map[string]interface{}{
			"column":   ev.Column,
			"original": ev.Original,
			"clamped":  ev.Clamped,
		}).Warn("Value clamped to column range")
	}

	if w.fatal != nil {
		w.summary.fail(out.period, w.fatal)
		return
	}

	w.pending = append(w.pending, out)
	if len(w.pending) >= w.runner.opts.ChunkSize {
		w.flush(ctx)
	}
}

// flush writes the pending chunk. A failed chunk is retried company by
// company; a store that also fails its ping aborts the run.
func (w *writer) flush(ctx context.Context) {
	chunk := w.pending
	w.pending = nil
	if len(chunk) == 0 {
		return
	}

	if w.dryRun {
		for _, out := range chunk {
			w.summary.succeed(out)
		}
		return
	}

	if w.runner.limiter != nil {
		if err := w.runner.limiter.Wait(ctx); err != nil {
			w.failAll(chunk, err)
			return
		}
	}

	err := w.write(ctx, chunk)
	if err == nil {
		for _, out := range chunk {
			w.summary.succeed(out)
		}
		w.summary.Chunks++
		return
	}
	w.runner.logger.WithError(err).WithField("size", len(chunk)).Warn("Chunk write failed, retrying per company")

	if err := w.runner.deps.Scores.Ping(ctx); err != nil {
		w.fatal = fmt.Errorf("%w: %v", contracts.ErrPersistenceUnavailable, err)
		w.runner.logger.WithError(err).Error("Store unreachable, aborting run")
		w.abort()
		w.failAll(chunk, w.fatal)
		return
	}

	for _, out := range chunk {
		if err := w.write(ctx, []outcome{out}); err != nil {
			w.runner.logger.WithError(err).WithField("company", out.period.CompanyID).Warn("Company write failed")
			w.summary.fail(out.period, err)
			continue
		}
		w.summary.succeed(out)
	}
}

func (w *writer) write(ctx context.Context, chunk []outcome) error {
	ratios := make([]contracts.RatioRecord, len(chunk))
	composites := make([]contracts.CompositeScoreRecord, len(chunk))
	for i, out := range chunk {
		ratios[i] = *out.ratios
		composites[i] = *out.composite
	}

	if err := w.runner.deps.Scores.UpsertRatioRecords(ctx, ratios); err != nil {
		return fmt.Errorf("upsert ratios: %w", err)
	}
	if err := w.runner.deps.Scores.UpsertCompositeScores(ctx, composites); err != nil {
		return fmt.Errorf("upsert composites: %w", err)
	}
	return nil
}

func cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (w *writer) failAll(chunk []outcome, err error) {
	for _, out := range chunk {
		w.summary.fail(out.period, err)
	}
}
