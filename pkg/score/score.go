// Package score computes a 0-100 quality/value score for PC components.
//
// Each component type has its own scorer. A scorer reads the fields it
// needs from a [record.Record], turns each criterion into a capped
// sub-score, sums them and rounds the sum half to even, clamped to
// [0, 100]. Missing or malformed fields contribute nothing; they never fail
// a record.
package score

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/mchmarny/partscore/pkg/record"
)

const priceField = "price_num"

var (
	// ErrScoring wraps failures inside a scorer.
	ErrScoring = errors.New("scoring failed")

	errNilRecord = errors.New("nil record")

	scorers = map[Component]func(*record.Record) Breakdown{
		CPU:         scoreCPU,
		Motherboard: scoreMotherboard,
		Cooler:      scoreCooler,
		GPU:         scoreGPU,
		Case:        scoreCase,
		PSU:         scorePSU,
		Memory:      scoreMemory,
	}
)

// Result is the outcome of scoring one record: a score, or a failure with
// a score of 0.
type Result struct {
	ID        int64     `json:"id" yaml:"id"`
	Component Component `json:"component" yaml:"component"`
	Score     int       `json:"score" yaml:"score"`
	Err       error     `json:"-" yaml:"-"`
	Reason    string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the record was scored without error.
func (r Result) OK() bool {
	return r.Err == nil
}

// Explain scores a record and returns every sub-score.
func Explain(c Component, r *record.Record) (b Breakdown, err error) {
	fn, ok := scorers[c]
	if !ok {
		return Breakdown{}, fmt.Errorf("%w: %q", ErrUnknownComponent, c)
	}
	if r == nil {
		return Breakdown{}, fmt.Errorf("%w: %w", ErrScoring, errNilRecord)
	}

	defer func() {
		if p := recover(); p != nil {
			b = Breakdown{Component: c, ID: r.ID}
			err = fmt.Errorf("%w: %v", ErrScoring, p)
		}
	}()

	b = fn(r)
	if math.IsNaN(b.Total) || math.IsInf(b.Total, 0) {
		return Breakdown{Component: c, ID: r.ID}, fmt.Errorf("%w: total is %v", ErrScoring, b.Total)
	}

	return b, nil
}

// Score scores one record. Failures are logged and returned as a Result
// with a score of 0.
func Score(c Component, r *record.Record) Result {
	res := Result{Component: c}
	if r != nil {
		res.ID = r.ID
	}

	b, err := Explain(c, r)
	if err != nil {
		slog.Error("failed to score record", "component", c, "id", res.ID, "error", err)
		res.Err = err
		res.Reason = err.Error()
		return res
	}

	res.Score = b.Score
	return res
}

// ScoreAll scores every record in order.
func ScoreAll(c Component, records []*record.Record) []Result {
	list := make([]Result, 0, len(records))
	for _, r := range records {
		list = append(list, Score(c, r))
	}
	return list
}
