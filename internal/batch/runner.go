// Package batch drives one periodic scoring run: read statement periods,
// compute ratios, network risk and composites per company in parallel,
// and persist the results through a single chunked writer.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/wonny/aegis-credit/internal/contracts"
	"github.com/wonny/aegis-credit/internal/index"
	"github.com/wonny/aegis-credit/internal/network"
	"github.com/wonny/aegis-credit/internal/ratio"
	"github.com/wonny/aegis-credit/pkg/logger"
)

// AttributeReader reads the stored qualitative attributes of a company
type AttributeReader interface {
	GetAttributes(ctx context.Context, companyID string) (*contracts.CompanyAttributes, error)
}

// Options tune the runner. Zero values fall back to DefaultOptions.
type Options struct {
	Workers         int
	ChunkSize       int
	WriteRPS        float64 // chunk flushes per second, 0 = unlimited
	MinCompleteness float64
}

// DefaultOptions mirror the config defaults
func DefaultOptions() Options {
	return Options{Workers: 8, ChunkSize: 50, MinCompleteness: 0.4}
}

// RunOptions select what one run scores
type RunOptions struct {
	FiscalYear int      `json:"fiscal_year"`
	CompanyIDs []string `json:"company_ids,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	DryRun     bool     `json:"dry_run"`
}

// Deps are the runner's collaborators
type Deps struct {
	Statements contracts.StatementRepository
	Scores     contracts.ScoreRepository
	Attributes AttributeReader
	Ratios     *ratio.Engine
	Network    *network.Engine // nil = network risk not scored
	Aggregator *index.Aggregator
}

// Runner executes scoring runs
// ⭐ SSOT: 배치 스코어링 오케스트레이션은 여기서만
type Runner struct {
	deps    Deps
	opts    Options
	limiter *rate.Limiter
	logger  *logger.Logger
	newID   func() string
	now     func() time.Time
}

// NewRunner creates a runner
func NewRunner(deps Deps, opts Options, log *logger.Logger) *Runner {
	def := DefaultOptions()
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = def.ChunkSize
	}

	var limiter *rate.Limiter
	if opts.WriteRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.WriteRPS), 1)
	}

	return &Runner{
		deps:    deps,
		opts:    opts,
		limiter: limiter,
		logger:  log.WithField("module", "batch"),
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

// outcome is one company's result on its way to the writer
type outcome struct {
	period    contracts.CompanyPeriod
	ratios    *contracts.RatioRecord
	composite *contracts.CompositeScoreRecord
	clamps    []index.ClampEvent
	skip      string
	err       error
}

// Run scores every annual period matching opts. The returned summary is
// always populated; the error is non-nil only when the run was cancelled
// or the store became unreachable.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	start := r.now()
	scn := r.deps.Aggregator.Scenario()
	summary := newSummary(r.newID(), scn.ID(), opts)

	log := r.logger.WithRun(summary.RunID).WithFields(map[string]interface{}{
		"scenario": summary.Scenario,
		"year":     opts.FiscalYear,
		"dry_run":  opts.DryRun,
	})

	if !opts.DryRun {
		if err := r.deps.Scores.Ping(ctx); err != nil {
			return summary, fmt.Errorf("%w: %v", contracts.ErrPersistenceUnavailable, err)
		}
	}

	periods, err := r.deps.Statements.ListPeriods(ctx, contracts.CompanyQuery{
		FiscalYear: opts.FiscalYear,
		CompanyIDs: opts.CompanyIDs,
		Limit:      opts.Limit,
		AnnualOnly: true,
	})
	if err != nil {
		return summary, fmt.Errorf("list periods: %w", err)
	}
	periods = annualOnly(periods)
	summary.Total = len(periods)

	log.WithFields(map[string]interface{}{
		"periods": len(periods),
		"workers": r.opts.Workers,
		"chunk":   r.opts.ChunkSize,
	}).Info("Starting scoring run")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan outcome, r.opts.Workers)
	writerDone := make(chan error, 1)
	w := &writer{runner: r, summary: summary, dryRun: opts.DryRun, abort: cancel}

	// 진행 중인 chunk는 취소되어도 끝까지 기록
	writeCtx := context.WithoutCancel(ctx)
	go func() { writerDone <- w.consume(writeCtx, results) }()

	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for _, p := range periods {
		if runCtx.Err() != nil {
			break
		}
		p := p
		g.Go(func() error {
			results <- r.scoreOne(runCtx, p)
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	writeErr := <-writerDone

	summary.finish(r.now().Sub(start))
	summary.Cancelled = summary.Total - summary.Processed - summary.Skipped - summary.Errored

	log.WithFields(map[string]interface{}{
		"processed": summary.Processed,
		"skipped":   summary.Skipped,
		"errored":   summary.Errored,
		"cancelled": summary.Cancelled,
		"clamped":   summary.Clamped,
		"duration":  summary.Duration.String(),
	}).Info("Scoring run completed")

	if writeErr != nil {
		return summary, writeErr
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// annualOnly keeps Quarter 0 periods: composites are keyed by company-year
func annualOnly(periods []contracts.CompanyPeriod) []contracts.CompanyPeriod {
	out := periods[:0:0]
	for _, p := range periods {
		if p.Quarter == 0 {
			out = append(out, p)
		}
	}
	return out
}

// scoreOne computes one company-year. It shares nothing mutable with other workers.
func (r *Runner) scoreOne(ctx context.Context, p contracts.CompanyPeriod) outcome {
	out := outcome{period: p}

	stmt, err := r.deps.Statements.GetStatement(ctx, p.Key())
	if err != nil {
		out.err = fmt.Errorf("get statement: %w", err)
		return out
	}

	prior, err := r.deps.Statements.GetStatement(ctx, p.Key().Prior())
	if errors.Is(err, contracts.ErrNotFound) {
		prior = nil
	} else if err != nil {
		out.err = fmt.Errorf("get prior statement: %w", err)
		return out
	}

	ratios, err := r.deps.Ratios.Compute(stmt, prior)
	if err != nil {
		out.err = fmt.Errorf("compute ratios: %w", err)
		return out
	}

	var netScore float64
	var netLevel string
	if r.deps.Network != nil {
		attrs, err := r.deps.Attributes.GetAttributes(ctx, p.CompanyID)
		if err != nil {
			out.err = fmt.Errorf("get attributes: %w", err)
			return out
		}
		res, err := r.deps.Network.Evaluate(ctx, attrs)
		if err != nil {
			out.err = err
			return out
		}
		netScore, netLevel = res.Score, res.Level
	}

	rec, err := r.deps.Aggregator.Score(index.Input{
		Statement:    stmt,
		Prior:        prior,
		Ratios:       ratios,
		NetworkScore: netScore,
		NetworkLevel: netLevel,
	})
	if err != nil {
		out.err = fmt.Errorf("aggregate: %w", err)
		return out
	}

	switch {
	case ratios.Completeness < r.opts.MinCompleteness:
		out.skip = fmt.Sprintf("completeness %.2f below %.2f", ratios.Completeness, r.opts.MinCompleteness)
		return out
	case rec.CompositeScore == nil:
		out.skip = fmt.Sprintf("%d of %d sub-indices available", rec.SubIndices.Present(), len(contracts.SubIndexNames))
		return out
	}

	out.clamps = append(index.ClampRatio(ratios), index.ClampComposite(rec)...)
	out.ratios, out.composite = ratios, rec
	return out
}
