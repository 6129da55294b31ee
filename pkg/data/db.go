package data

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/mchmarny/partscore/pkg/score"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DataFileName = "data.db"

	scoreColumn = "score"

	sqliteBusyTimeoutMS = 5000
	pingTimeout         = 5 * time.Second
	maxOpenConns        = 10
	connMaxLifetime     = 5 * time.Minute
	dirMode             = 0700
)

var (
	//go:embed sql/*
	f embed.FS

	errDBNotInitialized = errors.New("database not initialized")

	// ErrRecordNotFound is returned when a score targets an id that is not
	// in the component table.
	ErrRecordNotFound = errors.New("record not found")

	// ErrUnsupportedDriver is returned for drivers other than sqlite and postgres.
	ErrUnsupportedDriver = errors.New("unsupported database driver")

	driverAliases = map[string]string{
		"sqlite":     DriverSQLite,
		"sqlite3":    DriverSQLite,
		"postgres":   DriverPostgres,
		"postgresql": DriverPostgres,
		"pg":         DriverPostgres,
	}

	tables = map[score.Component]string{
		score.CPU:         "cpu_specs",
		score.Motherboard: "motherboard_specs",
		score.Cooler:      "cooler_specs",
		score.GPU:         "gpu_specs",
		score.Case:        "case_specs",
		score.PSU:         "psu_specs",
		score.Memory:      "memory_specs",
	}
)

// Store persists component records, their scores and scoring run history.
// It is safe for concurrent use.
type Store struct {
	db *sqlx.DB
}

// ParseDriver resolves a driver name or alias.
func ParseDriver(name string) (string, error) {
	if d, ok := driverAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("%w: %q (permitted options: %s, %s)", ErrUnsupportedDriver, name, DriverSQLite, DriverPostgres)
}

// TableName returns the specs table of a component.
func TableName(c score.Component) (string, error) {
	t, ok := tables[c]
	if !ok {
		return "", fmt.Errorf("%w: %q", score.ErrUnknownComponent, c)
	}
	return t, nil
}

// Open connects to the database, applies the schema and makes sure every
// specs table has a score column. For sqlite the dsn is a file path.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, err := ParseDriver(driver)
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, errors.New("database dsn not specified")
	}

	if d == DriverSQLite {
		if dsn, err = sqliteDSN(dsn); err != nil {
			return nil, err
		}
	}

	db, err := sqlx.Open(d, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening %s database: %w", d, err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to %s database: %w", d, err)
	}

	s := NewStore(db)
	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}

	slog.Debug("database ready", "driver", d)
	return s, nil
}

// NewStore wraps an existing connection without touching the schema.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Init applies the schema for the store's driver and adds the score column
// to any specs table that lacks it. It is idempotent.
func (s *Store) Init(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errDBNotInitialized
	}

	b, err := f.ReadFile(fmt.Sprintf("sql/%s.sql", s.db.DriverName()))
	if err != nil {
		return fmt.Errorf("error reading %s schema: %w", s.db.DriverName(), err)
	}

	slog.Debug("applying db schema", "driver", s.db.DriverName())
	if _, err := s.db.ExecContext(ctx, string(b)); err != nil {
		return fmt.Errorf("error applying schema: %w", err)
	}

	return s.EnsureScoreColumns(ctx)
}

// EnsureScoreColumns adds a nullable integer score column to each specs
// table that does not have one yet.
func (s *Store) EnsureScoreColumns(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errDBNotInitialized
	}

	for _, c := range score.Components {
		table := tables[c]
		ok, err := s.hasColumn(ctx, table, scoreColumn)
		if err != nil {
			return fmt.Errorf("error checking %s columns: %w", table, err)
		}
		if ok {
			continue
		}

		slog.Info("adding score column", "table", table)
		q := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s INTEGER", table, scoreColumn)
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("error adding score column to %s: %w", table, err)
		}
	}

	return nil
}

func (s *Store) hasColumn(ctx context.Context, table, column string) (bool, error) {
	var q string
	switch s.db.DriverName() {
	case DriverPostgres:
		q = `SELECT COUNT(*) FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ? AND column_name = ?`
	default:
		q = `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`
	}

	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(q), table, column); err != nil {
		return false, err
	}
	return n > 0, nil
}

// DB exposes the underlying connection.
func (s *Store) DB() *sqlx.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// Close closes the connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// sqliteDSN creates the parent directory of a database file and adds a
// busy timeout so concurrent writers wait instead of failing.
func sqliteDSN(path string) (string, error) {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return "", fmt.Errorf("error creating database dir %s: %w", dir, err)
		}
	}

	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, sqliteBusyTimeoutMS), nil
}
