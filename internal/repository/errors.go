// Package repository is the MySQL implementation of the storage
// interfaces.  Row locks are taken with SELECT ... FOR UPDATE inside a
// Store.InTx transaction.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// ErrOccupantTaken is returned when a reservation is already linked to
// another table (unique index on restaurant_tables.reservation_id).
var ErrOccupantTaken = errors.New("reservation already occupies another table")

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// querier is satisfied by both *sql.DB and *sql.Tx, so the same query code
// serves plain reads and locked reads.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}
