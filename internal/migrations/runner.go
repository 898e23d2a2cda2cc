package migrations

import (
	"database/sql"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"
)

// Dialect names accepted by the runner.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// goose keeps dialect and base FS in package globals.
var mu sync.Mutex

func setup(dialect string) (string, error) {
	var (
		gooseDialect string
		fsys         fs.FS
	)
	switch dialect {
	case DialectSQLite:
		gooseDialect, fsys = "sqlite3", SQLite
	case DialectPostgres:
		gooseDialect, fsys = "postgres", Postgres
	default:
		return "", fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}
	if err := goose.SetDialect(gooseDialect); err != nil {
		return "", err
	}
	goose.SetBaseFS(fsys)
	return dialect, nil
}

func run(db *sql.DB, dialect string, fn func(db *sql.DB, dir string) error) error {
	mu.Lock()
	defer mu.Unlock()
	dir, err := setup(dialect)
	if err != nil {
		return err
	}
	return fn(db, dir)
}

// Up migrates the schema to the latest version.
func Up(db *sql.DB, dialect string) error {
	return run(db, dialect, func(db *sql.DB, dir string) error { return goose.Up(db, dir) })
}

// Down rolls back a single migration.
func Down(db *sql.DB, dialect string) error {
	return run(db, dialect, func(db *sql.DB, dir string) error { return goose.Down(db, dir) })
}

// Status prints migration status.
func Status(db *sql.DB, dialect string) error {
	return run(db, dialect, func(db *sql.DB, dir string) error { return goose.Status(db, dir) })
}

// Version reports the current schema version.
func Version(db *sql.DB, dialect string) (int64, error) {
	mu.Lock()
	defer mu.Unlock()
	if _, err := setup(dialect); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db)
}
