// Package batch scores every stored record of one or more component types
// and writes the scores back, collecting a report of what failed along the
// way. A failed record or component never stops the run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mchmarny/partscore/pkg/record"
	"github.com/mchmarny/partscore/pkg/score"
	"golang.org/x/sync/errgroup"
)

// FailureKind says which stage a failure happened in.
type FailureKind string

const (
	FailureLoad    FailureKind = "load"
	FailureScore   FailureKind = "score"
	FailurePersist FailureKind = "persist"
)

var errNoComponents = errors.New("no components to score")

// Source loads the records of a component type.
type Source interface {
	Records(ctx context.Context, c score.Component) ([]*record.Record, error)
}

// Sink persists one score.
type Sink interface {
	SaveScore(ctx context.Context, c score.Component, id int64, score int) error
}

// Options tune a run.
type Options struct {
	// Parallel scores components concurrently.
	Parallel bool
	// DryRun scores without writing to the sink.
	DryRun bool
	// KeepResults keeps every per-record result on the report.
	KeepResults bool
}

// Failure is one thing that went wrong. ID is meaningless for FailureLoad.
type Failure struct {
	Component score.Component `json:"component" yaml:"component"`
	ID        int64           `json:"id" yaml:"id"`
	Kind      FailureKind     `json:"kind" yaml:"kind"`
	Reason    string          `json:"reason" yaml:"reason"`
}

// ComponentReport summarizes the run of one component type.
type ComponentReport struct {
	Component score.Component `json:"component" yaml:"component"`
	Records   int             `json:"records" yaml:"records"`
	Scored    int             `json:"scored" yaml:"scored"`
	Saved     int             `json:"saved" yaml:"saved"`
	Duration  time.Duration   `json:"duration" yaml:"duration"`
	Failures  []Failure       `json:"failures,omitempty" yaml:"failures,omitempty"`
	Results   []score.Result  `json:"results,omitempty" yaml:"results,omitempty"`
}

// Report is the outcome of a run.
type Report struct {
	ID         string             `json:"id" yaml:"id"`
	Started    time.Time          `json:"started" yaml:"started"`
	Duration   time.Duration      `json:"duration" yaml:"duration"`
	DryRun     bool               `json:"dry_run" yaml:"dryRun"`
	Components []*ComponentReport `json:"components" yaml:"components"`
	Failures   []Failure          `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Failed returns the number of failures across all components.
func (r *Report) Failed() int {
	if r == nil {
		return 0
	}
	return len(r.Failures)
}

// Scored returns the number of records scored without error.
func (r *Report) Scored() int {
	if r == nil {
		return 0
	}
	var n int
	for _, c := range r.Components {
		n += c.Scored
	}
	return n
}

// ComponentNames lists the components covered by the report, in run order.
func (r *Report) ComponentNames() []string {
	list := make([]string, 0, len(r.Components))
	for _, c := range r.Components {
		list = append(list, c.Component.String())
	}
	return list
}

// Run scores the records of each component and writes every score to the
// sink. Components run in the order given, or concurrently when
// opts.Parallel is set; either way the report lists them in that order.
// The returned error is only set when ctx is done, in which case the
// report holds whatever finished.
func Run(ctx context.Context, components []score.Component, src Source, sink Sink, opts Options) (*Report, error) {
	if len(components) == 0 {
		return nil, errNoComponents
	}
	if src == nil {
		return nil, errors.New("source required")
	}
	if sink == nil && !opts.DryRun {
		return nil, errors.New("sink required unless dry run")
	}

	rep := &Report{
		ID:         uuid.NewString(),
		Started:    time.Now().UTC(),
		DryRun:     opts.DryRun,
		Components: make([]*ComponentReport, len(components)),
	}
	for i, c := range components {
		rep.Components[i] = &ComponentReport{Component: c}
	}

	slog.Info("scoring run started",
		"run", rep.ID,
		"components", len(components),
		"parallel", opts.Parallel,
		"dry_run", opts.DryRun,
	)

	var err error
	if opts.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for _, cr := range rep.Components {
			g.Go(func() error {
				return runComponent(gctx, cr, src, sink, opts)
			})
		}
		err = g.Wait()
	} else {
		for _, cr := range rep.Components {
			if err = runComponent(ctx, cr, src, sink, opts); err != nil {
				break
			}
		}
	}

	for _, cr := range rep.Components {
		rep.Failures = append(rep.Failures, cr.Failures...)
	}
	rep.Duration = time.Since(rep.Started)

	if err != nil {
		slog.Warn("scoring run interrupted", "run", rep.ID, "error", err)
		return rep, err
	}

	slog.Info("scoring run finished",
		"run", rep.ID,
		"scored", rep.Scored(),
		"failed", rep.Failed(),
		"duration", rep.Duration.String(),
	)

	return rep, nil
}

// runComponent only returns an error when ctx is done.
func runComponent(ctx context.Context, cr *ComponentReport, src Source, sink Sink, opts Options) error {
	start := time.Now()
	defer func() { cr.Duration = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	records, err := src.Records(ctx, cr.Component)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		slog.Error("failed to load records", "component", cr.Component, "error", err)
		cr.fail(0, FailureLoad, fmt.Errorf("error loading %s records: %w", cr.Component, err))
		return nil
	}

	total := len(records)
	cr.Records = total
	slog.Info("scoring component", "component", cr.Component, "records", total)

	logEvery := total / 10
	if logEvery < 1 {
		logEvery = 1
	}

	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		res := score.Score(cr.Component, r)
		if res.OK() {
			cr.Scored++
		} else {
			cr.fail(res.ID, FailureScore, res.Err)
		}
		if opts.KeepResults {
			cr.Results = append(cr.Results, res)
		}

		// a failed record is written as 0 so a stale score does not linger
		if !opts.DryRun && r != nil {
			if err := sink.SaveScore(ctx, cr.Component, res.ID, res.Score); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Error("failed to save score",
					"component", cr.Component,
					"id", res.ID,
					"score", res.Score,
					"error", err,
				)
				cr.fail(res.ID, FailurePersist, err)
			} else {
				cr.Saved++
			}
		}

		if (i+1)%logEvery == 0 {
			slog.Info("scoring progress", "component", cr.Component, "scored", i+1, "total", total)
		}
	}

	slog.Info("component scored",
		"component", cr.Component,
		"scored", cr.Scored,
		"saved", cr.Saved,
		"failed", len(cr.Failures),
	)

	return nil
}

func (cr *ComponentReport) fail(id int64, kind FailureKind, err error) {
	cr.Failures = append(cr.Failures, Failure{
		Component: cr.Component,
		ID:        id,
		Kind:      kind,
		Reason:    err.Error(),
	})
}
