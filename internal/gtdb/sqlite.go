package gtdb

import (
	"database/sql"
	"math"

	"github.com/mattn/go-sqlite3"

	"github.com/inodb/vibe-impute/internal/numeric"
)

// sqliteDriver is a go-sqlite3 driver whose connections carry the
// stdev aggregate used by downstream r2 analytics.
const sqliteDriver = "sqlite3_gtdb"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterAggregator("stdev", newStdevAggregate, true)
		},
	})
}

type stdevAggregate struct {
	acc *numeric.Stdev
}

func newStdevAggregate() *stdevAggregate {
	return &stdevAggregate{acc: numeric.NewStdev()}
}

func (a *stdevAggregate) Step(x float64) {
	a.acc.Step(x)
}

// Done returns NaN when undefined; SQLite turns a NaN result into NULL.
func (a *stdevAggregate) Done() float64 {
	sd, ok := a.acc.Finalize()
	if !ok {
		return math.NaN()
	}
	return sd
}
