// Package db opens the local SQLite database that stores model usage and
// past resolution runs.
package db

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/teranos/slideinspo/errors"
	"github.com/teranos/slideinspo/logger"
	"github.com/teranos/slideinspo/sym"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

// Open opens a SQLite database at path with WAL, foreign keys and a busy timeout.
// A nil logger operates silently.
func Open(path string, log *zap.SugaredLogger) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}
	log = logger.OrNop(log)
	log.Debugw("Opening database", logger.FieldPath, path, logger.FieldSymbol, sym.DB)

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// each connection to :memory: is a separate database
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to connect to %s", path)
	}

	log.Infow("Database opened",
		logger.FieldPath, path,
		logger.FieldSymbol, sym.DB,
	)
	return db, nil
}

// dsn appends the connection pragmas as driver parameters so that every
// pooled connection gets them, not only the first one
func dsn(path string) string {
	return path + "?" + connectionParams
}

const connectionParams = "_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000"

// OpenAndMigrate opens path and applies pending migrations
func OpenAndMigrate(path string, log *zap.SugaredLogger) (*sql.DB, error) {
	db, err := Open(path, log)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, log); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
