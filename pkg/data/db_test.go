package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mchmarny/partscore/pkg/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	s, err := Open(context.Background(), DriverSQLite, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "test.db")
	s, err := Open(context.Background(), "sqlite3", dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := Open(context.Background(), DriverSQLite, dbPath)
	require.NoError(t, err)
	_, err = s.DB().Exec(`INSERT INTO cpu_specs (id, name, core_count) VALUES (1, 'Ryzen 5 7600', 6)`)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), DriverSQLite, dbPath)
	require.NoError(t, err)
	defer s.Close()

	list, err := s.Records(context.Background(), score.CPU)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOpen_Invalid(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "root@/parts")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)

	_, err = Open(context.Background(), DriverSQLite, "")
	assert.Error(t, err)
}

func TestParseDriver(t *testing.T) {
	tests := map[string]string{
		"sqlite":     DriverSQLite,
		"SQLite3":    DriverSQLite,
		"postgres":   DriverPostgres,
		"postgresql": DriverPostgres,
		" pg ":       DriverPostgres,
	}
	for in, want := range tests {
		got, err := ParseDriver(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseDriver("oracle")
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestTableName(t *testing.T) {
	table, err := TableName(score.Cooler)
	require.NoError(t, err)
	assert.Equal(t, "cooler_specs", table)

	_, err = TableName("ssd")
	assert.ErrorIs(t, err, score.ErrUnknownComponent)
}

func TestEnsureScoreColumns(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	for _, c := range score.Components {
		ok, err := s.hasColumn(ctx, tables[c], scoreColumn)
		require.NoError(t, err)
		assert.True(t, ok, c)
	}

	// tables created by a loader without the column get it added
	_, err := s.DB().Exec(`DROP TABLE psu_specs`)
	require.NoError(t, err)
	_, err = s.DB().Exec(`CREATE TABLE psu_specs (id INTEGER PRIMARY KEY, name TEXT, wattage INTEGER)`)
	require.NoError(t, err)

	ok, err := s.hasColumn(ctx, "psu_specs", scoreColumn)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.EnsureScoreColumns(ctx))
	ok, err = s.hasColumn(ctx, "psu_specs", scoreColumn)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.NoError(t, s.EnsureScoreColumns(ctx))
}

func TestStore_NotInitialized(t *testing.T) {
	var s *Store
	ctx := context.Background()

	_, err := s.Records(ctx, score.CPU)
	assert.ErrorIs(t, err, errDBNotInitialized)
	assert.ErrorIs(t, s.SaveScore(ctx, score.CPU, 1, 1), errDBNotInitialized)
	_, err = s.ResetScores(ctx, score.CPU)
	assert.ErrorIs(t, err, errDBNotInitialized)
	_, err = s.TopScores(ctx, score.CPU, 1)
	assert.ErrorIs(t, err, errDBNotInitialized)
	_, err = s.Stats(ctx)
	assert.ErrorIs(t, err, errDBNotInitialized)
	_, err = s.Runs(ctx, 1)
	assert.ErrorIs(t, err, errDBNotInitialized)
	assert.ErrorIs(t, s.SaveRun(ctx, nil), errDBNotInitialized)
	assert.ErrorIs(t, s.Init(ctx), errDBNotInitialized)
	assert.NoError(t, s.Close())
	assert.Nil(t, s.DB())
}
