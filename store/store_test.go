package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.sbdb")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.InitializeSchema())
	return db
}

func TestInitializeSchemaIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.InitializeSchema())
}

func TestScalarMaxOnEmptyTableReturnsZero(t *testing.T) {
	db := openTestDB(t)
	max, err := db.ScalarMax(TableBody, "id")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), max)
}

func TestUpsertRowsThenScalarMax(t *testing.T) {
	db := openTestDB(t)
	columns := []string{
		"id", "owner", "coordinate_x", "coordinate_y", "coordinate_z",
		"local_direction_x", "local_direction_y", "local_direction_z",
		"local_speed", "angular_speed", "rotating_speed", "gravity_center",
	}
	rows := []Row{
		{Values: []any{1, nil, 1.0, 2.0, 3.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, nil}},
		{Values: []any{2, nil, 4.0, 5.0, 6.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 1}},
	}
	require.NoError(t, db.UpsertRows(TableBody, columns, "id", []string{"coordinate_x", "coordinate_y", "coordinate_z"}, rows))

	max, err := db.ScalarMax(TableBody, "id")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), max)

	var count int
	err = db.SelectWhereEqual(TableBody, "id", 1, func(r *sql.Rows) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertRowsUpdatesOnConflict(t *testing.T) {
	db := openTestDB(t)
	columns := []string{
		"id", "owner", "coordinate_x", "coordinate_y", "coordinate_z",
		"local_direction_x", "local_direction_y", "local_direction_z",
		"local_speed", "angular_speed", "rotating_speed", "gravity_center",
	}
	first := []Row{{Values: []any{1, nil, 1.0, 1.0, 1.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, nil}}}
	require.NoError(t, db.UpsertRows(TableBody, columns, "id", []string{"coordinate_x", "coordinate_y", "coordinate_z"}, first))

	second := []Row{{Values: []any{1, nil, 9.0, 9.0, 9.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, nil}}}
	require.NoError(t, db.UpsertRows(TableBody, columns, "id", []string{"coordinate_x", "coordinate_y", "coordinate_z"}, second))

	var x float64
	err := db.SelectWhereEqual(TableBody, "id", 1, func(r *sql.Rows) error {
		cols, _ := r.Columns()
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := r.Scan(ptrs...); err != nil {
			return err
		}
		for i, c := range cols {
			if c == "coordinate_x" {
				x = vals[i].(float64)
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 9.0, x)
}
