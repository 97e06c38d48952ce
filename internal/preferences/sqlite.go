package preferences

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	// busyTimeoutMs bounds how long a write waits for the database lock.
	busyTimeoutMs = 5000

	queryTimeout = 5 * time.Second
)

const createPreferencesTable = `CREATE TABLE IF NOT EXISTS preferences (
	key   INTEGER PRIMARY KEY,
	value BLOB NOT NULL
)`

// SQLiteStore keeps preferences in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the SQLite database at path and
// ensures the preferences table exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrStoreOpen, path, err)
	}

	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrStoreOpen, path, err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, createPreferencesTable); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("%w %s: %v", ErrStoreOpen, path, err)
	}

	os.Chmod(path, filePermissions) //nolint:errcheck

	return &SQLiteStore{db: db}, nil
}

// sqliteDSN builds a file: URI for path. The path is escaped so that "?"
// and "#" in file names are not taken as the start of the query.
func sqliteDSN(path string) string {
	query := url.Values{}
	query.Set("_busy_timeout", strconv.Itoa(busyTimeoutMs))
	query.Set("_journal_mode", "WAL")
	query.Set("_synchronous", "NORMAL")

	u := &url.URL{Scheme: "file", Path: path, RawQuery: query.Encode()}
	return u.String()
}

func (s *SQLiteStore) MakePreference(key uint32) Preference {
	return &preference{key: key, backend: s}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) get(key uint32) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM preferences WHERE key = ?", int64(key)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %08x", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w %08x: %v", ErrStoreRead, key, err)
	}
	return data, nil
}

func (s *SQLiteStore) put(key uint32, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO preferences (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		int64(key),
		data,
	)
	if err != nil {
		return fmt.Errorf("%w %08x: %v", ErrStoreWrite, key, err)
	}
	return nil
}
