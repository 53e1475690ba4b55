// Package sqlite stores settlements in a single SQLite file. Every
// transaction begins IMMEDIATE, so a transaction holds the write lock from
// its first statement and row locks are implied.
package sqlite

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"civico/migrations"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const pragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"

// DB wraps a SQLite connection for settlement persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path and applies the
// embedded schema.
func Open(ctx context.Context, file string) (*DB, error) {
	sep := "?"
	if strings.Contains(file, "?") {
		sep = "&"
	}
	conn, err := sqlx.Open("sqlite", file+sep+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate(ctx context.Context) error {
	entries, err := fs.ReadDir(migrations.FS, migrations.SQLiteDir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		schema, err := fs.ReadFile(migrations.FS, path.Join(migrations.SQLiteDir, name))
		if err != nil {
			return err
		}
		if _, err := db.conn.ExecContext(ctx, string(schema)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
