package sqlite

import (
	"database/sql"
	"errors"

	"civico/internal/app/ports"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrNotFound
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CONSTRAINT:
			return ports.ErrConflict
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_FULL:
			return errors.Join(ports.ErrUnavailable, err)
		}
	}
	return err
}
