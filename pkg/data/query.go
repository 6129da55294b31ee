package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mchmarny/partscore/pkg/score"
)

const (
	selectTopScoresSQL = `SELECT id, name, price_num, score
		FROM %s
		WHERE score IS NOT NULL
		ORDER BY score DESC, id
		LIMIT ?
	`

	selectTableStatsSQL = `SELECT COUNT(*) AS records, COUNT(score) AS scored FROM %s`
)

// ScoredItem is one scored component.
type ScoredItem struct {
	ID    int64    `json:"id" yaml:"id"`
	Name  string   `json:"name" yaml:"name"`
	Price *float64 `json:"price,omitempty" yaml:"price,omitempty"`
	Score int      `json:"score" yaml:"score"`
}

// TableStats counts the records of one component table.
type TableStats struct {
	Component score.Component `json:"component" yaml:"component"`
	Table     string          `json:"table" yaml:"table"`
	Records   int64           `json:"records" yaml:"records" db:"records"`
	Scored    int64           `json:"scored" yaml:"scored" db:"scored"`
}

type scoredRow struct {
	ID    int64           `db:"id"`
	Name  sql.NullString  `db:"name"`
	Price sql.NullFloat64 `db:"price_num"`
	Score int             `db:"score"`
}

// TopScores returns the highest scored records of a component.
func (s *Store) TopScores(ctx context.Context, c score.Component, limit int) ([]*ScoredItem, error) {
	if s == nil || s.db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		return nil, fmt.Errorf("invalid limit: %d", limit)
	}

	table, err := TableName(c)
	if err != nil {
		return nil, err
	}

	var rows []scoredRow
	q := s.db.Rebind(fmt.Sprintf(selectTopScoresSQL, table))
	if err := s.db.SelectContext(ctx, &rows, q, limit); err != nil {
		return nil, fmt.Errorf("error selecting top %s scores: %w", table, err)
	}

	list := make([]*ScoredItem, 0, len(rows))
	for _, r := range rows {
		item := &ScoredItem{
			ID:    r.ID,
			Name:  r.Name.String,
			Score: r.Score,
		}
		if r.Price.Valid {
			p := r.Price.Float64
			item.Price = &p
		}
		list = append(list, item)
	}

	return list, nil
}

// Stats returns record and scored counts for every component table.
func (s *Store) Stats(ctx context.Context) ([]*TableStats, error) {
	if s == nil || s.db == nil {
		return nil, errDBNotInitialized
	}

	list := make([]*TableStats, 0, len(score.Components))
	for _, c := range score.Components {
		st := &TableStats{Component: c, Table: tables[c]}
		if err := s.db.GetContext(ctx, st, fmt.Sprintf(selectTableStatsSQL, st.Table)); err != nil {
			return nil, fmt.Errorf("error getting %s stats: %w", st.Table, err)
		}
		list = append(list, st)
	}

	return list, nil
}
