package score

import (
	"errors"
	"log/slog"
	"math"

	"github.com/mchmarny/partscore/pkg/field"
	"github.com/mchmarny/partscore/pkg/record"
)

const (
	minScore = 0
	maxScore = 100
)

// SubScore is one criterion's contribution to a component score.
type SubScore struct {
	Name   string  `json:"name" yaml:"name"`
	Points float64 `json:"points" yaml:"points"`
}

// Breakdown lists the sub-scores of one record in criterion order.
type Breakdown struct {
	Component Component  `json:"component" yaml:"component"`
	ID        int64      `json:"id" yaml:"id"`
	SubScores []SubScore `json:"sub_scores" yaml:"subScores"`
	Malformed []string   `json:"malformed,omitempty" yaml:"malformed,omitempty"`
	Total     float64    `json:"total" yaml:"total"`
	Score     int        `json:"score" yaml:"score"`
}

// Get returns the points of the named sub-score.
func (b Breakdown) Get(name string) (float64, bool) {
	for _, s := range b.SubScores {
		if s.Name == name {
			return s.Points, true
		}
	}
	return 0, false
}

func (b Breakdown) sum() float64 {
	var total float64
	for _, s := range b.SubScores {
		total += s.Points
	}
	return total
}

// toScore rounds half to even and clamps to [0, 100].
func toScore(total float64) int {
	r := math.RoundToEven(total)
	if r < minScore {
		return minScore
	}
	if r > maxScore {
		return maxScore
	}
	return int(r)
}

func capAt(v, ceil float64) float64 {
	return math.Min(v, ceil)
}

func floorZero(v float64) float64 {
	return math.Max(v, 0)
}

// reader pulls fields out of a record for one scorer. A malformed field is
// logged, noted on the breakdown and read as absent.
type reader struct {
	rec *record.Record
	b   Breakdown
}

func newReader(c Component, r *record.Record) *reader {
	return &reader{
		rec: r,
		b:   Breakdown{Component: c, ID: r.ID, SubScores: make([]SubScore, 0, 7)},
	}
}

func (rd *reader) add(name string, points float64) {
	rd.b.SubScores = append(rd.b.SubScores, SubScore{Name: name, Points: points})
}

func (rd *reader) breakdown() Breakdown {
	rd.b.Total = rd.b.sum()
	rd.b.Score = toScore(rd.b.Total)
	return rd.b
}

func (rd *reader) failed(name string, err error) bool {
	if err == nil {
		return false
	}
	if !errors.Is(err, field.ErrAbsent) {
		rd.b.Malformed = append(rd.b.Malformed, name)
		slog.Debug("malformed field",
			"component", rd.b.Component,
			"id", rd.rec.ID,
			"field", name,
			"error", err,
		)
	}
	return true
}

func (rd *reader) read(name string, parse func(field.Value) (float64, error)) (float64, bool) {
	v, err := parse(rd.rec.Get(name))
	if rd.failed(name, err) {
		return 0, false
	}
	return v, true
}

func (rd *reader) float(name string) (float64, bool) {
	return rd.read(name, field.Float)
}

func (rd *reader) count(name string) (float64, bool) {
	return rd.read(name, field.Count)
}

func (rd *reader) unit(name, unit string) (float64, bool) {
	return rd.read(name, func(v field.Value) (float64, error) {
		return field.Unit(v, unit)
	})
}

func (rd *reader) leading(name string) (float64, bool) {
	return rd.read(name, field.Leading)
}

func (rd *reader) lineCount(name string) (int, bool) {
	n, err := field.LineCount(rd.rec.Get(name))
	if rd.failed(name, err) {
		return 0, false
	}
	return n, true
}

func (rd *reader) contains(name, sub string) bool {
	ok, err := field.Contains(rd.rec.Get(name), sub)
	if rd.failed(name, err) {
		return false
	}
	return ok
}

func (rd *reader) flag(name string) bool {
	ok, err := field.Flag(rd.rec.Get(name))
	if rd.failed(name, err) {
		return false
	}
	return ok
}

func (rd *reader) tier(name string, t field.TierTable, fallback float64) float64 {
	p, err := t.Lookup(rd.rec.Get(name), fallback)
	if rd.failed(name, err) {
		return 0
	}
	return p
}

// price returns price_num, or def when it is absent or malformed.
func (rd *reader) price(def float64) float64 {
	if p, ok := rd.float(priceField); ok {
		return p
	}
	return def
}
