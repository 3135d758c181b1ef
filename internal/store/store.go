// Package store is netval's persistence layer: a single embedded SQLite
// database under the user's home directory,
// accessed through sqlx with goose-managed migrations.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"

	"netval/pkg/util"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Store wraps a sqlx-backed SQLite connection. Writes within a project are
// serialized through a per-project mutex rather than relying
// on SQLite's own locking, so callers get predictable read-your-writes
// behavior without needing SERIALIZABLE transactions for every operation.
type Store struct {
	db *sqlx.DB

	mu        sync.Mutex
	projectMu map[string]*sync.Mutex
}

// Open opens (creating if necessary) the SQLite database at path, enables
// WAL mode, and runs all pending migrations.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_synchronous=NORMAL", path)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, util.NewStorageError("open", err)
	}
	db.SetMaxOpenConns(1) // sqlite3 driver is not safe for concurrent writers across connections

	if err := migrate(db.DB); err != nil {
		db.Close()
		return nil, util.NewStorageError("migrate", err)
	}

	return &Store{
		db:        db,
		projectMu: make(map[string]*sync.Mutex),
	}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// lockProject returns the mutex serializing writes for projectID, creating
// it on first use.
func (s *Store) lockProject(projectID string) func() {
	s.mu.Lock()
	m, ok := s.projectMu[projectID]
	if !ok {
		m = &sync.Mutex{}
		s.projectMu[projectID] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func isNoRows(err error) bool {
	return err == sql.ErrNoRows
}

func wrapStorageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return util.ErrNotFound
	}
	logrus.WithError(err).WithField("op", op).Debug("store: operation failed")
	return util.NewStorageError(op, err)
}
