// Package sqlite holds the local food composition table: an offline
// composition database on modernc.org/sqlite (pure Go, no CGO), seeded by
// embedded migrations.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Register the modernc sqlite driver under the name "sqlite"
	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// NewDB opens (or creates) the database at path:
//   - WAL journal mode, so lookups never block behind the migration writer
//   - 5-second busy timeout
//
// An in-memory database lives on a single connection; every other path
// gets a small read pool. The parent directory must already exist.
func NewDB(ctx context.Context, path string) (*sql.DB, error) {
	if path != MemoryPath {
		dir := filepath.Dir(path)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return nil, fmt.Errorf("sqlite.NewDB: parent directory %q does not exist", dir)
		}
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=temp_store(MEMORY)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite.NewDB: open %q: %w", path, err)
	}

	if path == MemoryPath {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("sqlite.NewDB: ping %q: %w", path, err)
	}
	return db, nil
}
