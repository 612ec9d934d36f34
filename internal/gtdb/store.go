// Package gtdb is the embedded genotype database written by a build run.
//
// It holds three tables:
//
//	snps     one row per polymorphic variant with its pseudo-binary genotype vector
//	ld       pairwise linkage disequilibrium for SNPs carrying missing calls
//	kinship  three pairwise relatedness estimates per pair of samples
//
// DuckDB is the default backend; SQLite is available for tools that expect
// a SQLite file. A Store is not safe for concurrent use.
package gtdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cenkalti/backoff"
	"github.com/jmoiron/sqlx"
	_ "github.com/marcboeker/go-duckdb"
)

// Backend names an embedded database engine.
type Backend string

// Supported backends.
const (
	DuckDB Backend = "duckdb"
	SQLite Backend = "sqlite"
)

// ParseBackend validates a backend name.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(strings.ToLower(name)); b {
	case DuckDB, SQLite:
		return b, nil
	case "":
		return DuckDB, nil
	}
	return "", fmt.Errorf("unknown store backend %q (want duckdb or sqlite)", name)
}

// openRetries bounds how often Open retries a locked database file.
const openRetries = 5

// Store manages the connection to a genotype database.
type Store struct {
	db      *sqlx.DB
	tx      *sqlx.Tx
	backend Backend
	path    string
}

// StoreError reports a failed database call together with its statement.
type StoreError struct {
	Statement string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", squash(e.Statement), e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func squash(stmt string) string {
	return strings.Join(strings.Fields(stmt), " ")
}

// Open opens or creates a genotype database at path.
// Use an empty string for an in-memory database.
func Open(backend Backend, path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, &StoreError{Statement: "open " + path, Err: fmt.Errorf("create database directory: %w", err)}
		}
	}

	driverName, dsn := "duckdb", path
	if backend == SQLite {
		driverName = sqliteDriver
		if dsn == "" {
			dsn = ":memory:"
		}
	}

	var db *sqlx.DB
	open := func() error {
		var err error
		db, err = sqlx.Open(driverName, dsn)
		if err == nil {
			if err = db.Ping(); err != nil {
				db.Close()
			}
		}
		if err != nil && !isLocked(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := backoff.Retry(open, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), openRetries)); err != nil {
		return nil, &StoreError{Statement: "open " + path, Err: err}
	}

	if backend == SQLite {
		// one connection: an in-memory database lives and dies with it
		db.SetMaxOpenConns(1)
	}

	return &Store{db: db, backend: backend, path: path}, nil
}

func isLocked(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "lock")
}

// Backend returns the engine behind the store.
func (s *Store) Backend() Backend {
	return s.backend
}

// Path returns the database file path ("" for in-memory).
func (s *Store) Path() string {
	return s.path
}

// Commit flushes pending writes. It is a no-op when nothing is pending.
func (s *Store) Commit() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return &StoreError{Statement: "COMMIT", Err: err}
	}
	return nil
}

// Close rolls back uncommitted writes and closes the database.
func (s *Store) Close() error {
	var errs []error
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil {
			errs = append(errs, &StoreError{Statement: "ROLLBACK", Err: err})
		}
		s.tx = nil
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, &StoreError{Statement: "close", Err: err})
	}
	return errors.Join(errs...)
}

// writer returns the open transaction, starting one if needed.
// The transaction is not bound to a caller context so that a cancelled
// worker context cannot roll back writes of its siblings.
func (s *Store) writer() (sqlx.ExtContext, error) {
	if s.tx == nil {
		tx, err := s.db.Beginx()
		if err != nil {
			return nil, &StoreError{Statement: "BEGIN", Err: err}
		}
		s.tx = tx
	}
	return s.tx, nil
}

// reader returns the open transaction when there is one so that reads
// observe pending writes.
func (s *Store) reader() sqlx.ExtContext {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

func (s *Store) exec(ctx context.Context, stmt string, args ...any) error {
	w, err := s.writer()
	if err != nil {
		return err
	}
	if _, err := w.ExecContext(ctx, stmt, args...); err != nil {
		return &StoreError{Statement: stmt, Err: err}
	}
	return nil
}

func (s *Store) get(ctx context.Context, dest any, query string, args ...any) error {
	if err := sqlx.GetContext(ctx, s.reader(), dest, query, args...); err != nil {
		return &StoreError{Statement: query, Err: err}
	}
	return nil
}

func (s *Store) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	if err := sqlx.SelectContext(ctx, s.reader(), dest, query, args...); err != nil {
		return &StoreError{Statement: query, Err: err}
	}
	return nil
}
