package data

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/partscore/pkg/record"
	"github.com/mchmarny/partscore/pkg/score"
)

const (
	selectRecordsSQL = `SELECT * FROM %s ORDER BY id`
	updateScoreSQL   = `UPDATE %s SET score = ? WHERE id = ?`
	resetScoresSQL   = `UPDATE %s SET score = NULL WHERE score IS NOT NULL`
)

// Records loads every row of the component's table, ordered by id. Columns
// come back as whatever the driver produced and are normalized by
// record.FromMap. Rows without a usable id are skipped.
func (s *Store) Records(ctx context.Context, c score.Component) ([]*record.Record, error) {
	if s == nil || s.db == nil {
		return nil, errDBNotInitialized
	}

	table, err := TableName(c)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryxContext(ctx, fmt.Sprintf(selectRecordsSQL, table))
	if err != nil {
		return nil, fmt.Errorf("error querying %s: %w", table, err)
	}
	defer rows.Close()

	list := make([]*record.Record, 0)
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("error scanning %s row: %w", table, err)
		}

		r, err := record.FromMap(row)
		if err != nil {
			slog.Warn("skipping row", "table", table, "error", err)
			continue
		}
		list = append(list, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s rows: %w", table, err)
	}

	slog.Debug("records loaded", "table", table, "count", len(list))
	return list, nil
}

// SaveScore writes the score of one record.
func (s *Store) SaveScore(ctx context.Context, c score.Component, id int64, v int) error {
	if s == nil || s.db == nil {
		return errDBNotInitialized
	}

	table, err := TableName(c)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(fmt.Sprintf(updateScoreSQL, table)), v, id)
	if err != nil {
		return fmt.Errorf("error updating %s score for %d: %w", table, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s id %d", ErrRecordNotFound, table, id)
	}

	return nil
}

// ResetScores clears the persisted scores of a component and returns the
// number of rows cleared.
func (s *Store) ResetScores(ctx context.Context, c score.Component) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errDBNotInitialized
	}

	table, err := TableName(c)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(resetScoresSQL, table))
	if err != nil {
		return 0, fmt.Errorf("error resetting %s scores: %w", table, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error getting affected rows: %w", err)
	}

	slog.Debug("scores reset", "table", table, "rows", n)
	return n, nil
}
