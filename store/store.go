// Package store implements the minimal relational table abstraction the
// sync pool persists through: create table, create index, select rows
// where a column equals a value, bulk upsert, and scalar max — no ORM,
// following the teacher's hand-rolled SQL style rather than a query
// builder or generated mapper.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/neotene/spacebuild/logging"
)

// DB wraps a *sql.DB bound to a single SQLite instance file.
type DB struct {
	conn *sql.DB
}

// Open creates (if needed) and opens the instance database file at path,
// enabling WAL journaling and foreign keys the way a long-lived server
// process should.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open instance database %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1) // modernc.org/sqlite has no concurrent-writer story; one connection avoids SQLITE_BUSY

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL on %s: %w", path, err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys on %s: %w", path, err)
	}

	return &DB{conn: conn}, nil
}

// Close releases the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// HealthCheck verifies the connection is alive.
func (db *DB) HealthCheck() error {
	return db.conn.Ping()
}

// CreateTable executes a CREATE TABLE IF NOT EXISTS statement.
func (db *DB) CreateTable(ddl string) error {
	if _, err := db.conn.Exec(ddl); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// CreateIndex executes a CREATE INDEX IF NOT EXISTS statement.
func (db *DB) CreateIndex(ddl string) error {
	if _, err := db.conn.Exec(ddl); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// SelectWhereEqual runs `SELECT * FROM table WHERE column = ?` and
// invokes scan once per matched row.
func (db *DB) SelectWhereEqual(table, column string, value any, scan func(*sql.Rows) error) error {
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", table, column)
	rows, err := db.conn.Query(query, value)
	if err != nil {
		return fmt.Errorf("select %s where %s=%v: %w", table, column, value, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("scan %s row: %w", table, err)
		}
	}
	return rows.Err()
}

// Row is one upsertable record: Values holds one value per column passed
// to UpsertRows, in the same order.
type Row struct {
	Values []any
}

// UpsertRows issues one bulk INSERT ... ON CONFLICT(conflictCol) DO
// UPDATE statement for rows, matching the spec's "one bulk upsert per
// table" rule. Save is atomic per table (one statement), not
// cross-table atomic.
func (db *DB) UpsertRows(table string, columns []string, conflictCol string, updatable []string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	placeholders := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	rowPlaceholder := "(" + strings.Repeat("?,", len(columns)-1) + "?)"
	for i, row := range rows {
		if len(row.Values) != len(columns) {
			return fmt.Errorf("upsert %s: row %d has %d values, want %d", table, i, len(row.Values), len(columns))
		}
		placeholders[i] = rowPlaceholder
		args = append(args, row.Values...)
	}

	sets := make([]string, len(updatable))
	for i, col := range updatable {
		sets[i] = fmt.Sprintf("%s=excluded.%s", col, col)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s ON CONFLICT(%s) DO UPDATE SET %s",
		table, strings.Join(columns, ","), strings.Join(placeholders, ","), conflictCol, strings.Join(sets, ","),
	)

	if _, err := db.conn.Exec(query, args...); err != nil {
		return fmt.Errorf("upsert %s (%d rows): %w", table, len(rows), err)
	}
	logging.Debug("upserted rows", map[string]interface{}{"table": table, "rows": len(rows)})
	return nil
}

// ScalarMax returns MAX(column) from table, or 0 if the table is empty.
func (db *DB) ScalarMax(table, column string) (uint32, error) {
	var max sql.NullInt64
	query := fmt.Sprintf("SELECT MAX(%s) FROM %s", column, table)
	if err := db.conn.QueryRow(query).Scan(&max); err != nil {
		return 0, fmt.Errorf("scalar max %s.%s: %w", table, column, err)
	}
	if !max.Valid {
		return 0, nil
	}
	return uint32(max.Int64), nil
}
