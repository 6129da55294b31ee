package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mchmarny/partscore/pkg/batch"
)

const (
	timeFormat = "2006-01-02T15:04:05.000Z"

	insertRunSQL = `INSERT INTO score_run (id, started_at, duration_ms, components, scored, failed, dry_run)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	selectRunsSQL = `SELECT id, started_at, duration_ms, components, scored, failed, dry_run
		FROM score_run
		ORDER BY started_at DESC
		LIMIT ?
	`
)

// Run is one scoring run from the history.
type Run struct {
	ID         string    `json:"id" yaml:"id" db:"id"`
	StartedAt  time.Time `json:"started_at" yaml:"startedAt" db:"-"`
	DurationMS int64     `json:"duration_ms" yaml:"durationMs" db:"duration_ms"`
	Components []string  `json:"components" yaml:"components" db:"-"`
	Scored     int       `json:"scored" yaml:"scored" db:"scored"`
	Failed     int       `json:"failed" yaml:"failed" db:"failed"`
	DryRun     bool      `json:"dry_run" yaml:"dryRun" db:"dry_run"`
}

type runRow struct {
	Run
	Started    string `db:"started_at"`
	Components string `db:"components"`
}

// SaveRun records a finished scoring run.
func (s *Store) SaveRun(ctx context.Context, rep *batch.Report) error {
	if s == nil || s.db == nil {
		return errDBNotInitialized
	}
	if rep == nil {
		return errors.New("report required")
	}

	_, err := s.db.ExecContext(ctx, s.db.Rebind(insertRunSQL),
		rep.ID,
		rep.Started.UTC().Format(timeFormat),
		rep.Duration.Milliseconds(),
		strings.Join(rep.ComponentNames(), ","),
		rep.Scored(),
		rep.Failed(),
		rep.DryRun,
	)
	if err != nil {
		return fmt.Errorf("error inserting run %s: %w", rep.ID, err)
	}

	return nil
}

// Runs returns the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]*Run, error) {
	if s == nil || s.db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		return nil, fmt.Errorf("invalid limit: %d", limit)
	}

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(selectRunsSQL), limit); err != nil {
		return nil, fmt.Errorf("error selecting runs: %w", err)
	}

	list := make([]*Run, 0, len(rows))
	for _, r := range rows {
		run := r.Run
		t, err := time.Parse(timeFormat, r.Started)
		if err != nil {
			return nil, fmt.Errorf("error parsing run %s start time %q: %w", run.ID, r.Started, err)
		}
		run.StartedAt = t
		if r.Components != "" {
			run.Components = strings.Split(r.Components, ",")
		}
		list = append(list, &run)
	}

	return list, nil
}
