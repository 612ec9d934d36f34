package gtdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"
)

// KinshipRow is one row of the kinship table, with I < J.
type KinshipRow struct {
	I     int     `db:"i"`
	J     int     `db:"j"`
	RBeta float64 `db:"rbeta"`
	RW    float64 `db:"rw"`
	RU    float64 `db:"ru"`
}

// InsertKinship inserts one kinship row.
func (s *Store) InsertKinship(ctx context.Context, row KinshipRow) error {
	return s.exec(ctx,
		`INSERT INTO kinship (i, j, rbeta, rw, ru) VALUES (?, ?, ?, ?, ?)`,
		row.I, row.J, row.RBeta, row.RW, row.RU)
}

// KinshipRows returns all kinship rows ordered by pair.
func (s *Store) KinshipRows(ctx context.Context) ([]KinshipRow, error) {
	var rows []KinshipRow
	err := s.selectAll(ctx, &rows, `SELECT i, j, rbeta, rw, ru FROM kinship ORDER BY i, j`)
	return rows, err
}

// KinshipWriter receives the kinship rows of one run.
type KinshipWriter interface {
	Write(row KinshipRow) error
	Close() error
}

// NewKinshipWriter returns a writer for bulk kinship rows. On DuckDB with no
// pending transaction it uses the Appender API, which commits on Close;
// otherwise rows go through InsertKinship and are committed by Commit.
func (s *Store) NewKinshipWriter(ctx context.Context) (KinshipWriter, error) {
	if s.backend != DuckDB || s.tx != nil {
		return &insertWriter{ctx: ctx, s: s}, nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, &StoreError{Statement: "appender kinship", Err: fmt.Errorf("get connection: %w", err)}
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", TableKinship)
		return err
	}); err != nil {
		conn.Close()
		return nil, &StoreError{Statement: "appender kinship", Err: fmt.Errorf("create appender: %w", err)}
	}

	return &appendWriter{conn: conn, appender: appender}, nil
}

type insertWriter struct {
	ctx context.Context
	s   *Store
}

func (w *insertWriter) Write(row KinshipRow) error {
	return w.s.InsertKinship(w.ctx, row)
}

func (w *insertWriter) Close() error { return nil }

type appendWriter struct {
	conn     *sql.Conn
	appender *goduckdb.Appender
}

func (w *appendWriter) Write(row KinshipRow) error {
	if err := w.appender.AppendRow(int32(row.I), int32(row.J), row.RBeta, row.RW, row.RU); err != nil {
		return &StoreError{Statement: "append kinship", Err: err}
	}
	return nil
}

func (w *appendWriter) Close() error {
	defer w.conn.Close()
	if err := w.appender.Close(); err != nil {
		return &StoreError{Statement: "append kinship", Err: err}
	}
	return nil
}
