package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/storage"
)

// Store implements storage.Store on MySQL.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store bound to db.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

var _ storage.Store = (*Store)(nil)

// InTx begins a transaction, hands fn a locking Tx and commits when fn
// returns nil.  Any error from fn rolls back and is returned unchanged.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(sqlTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

func (s *Store) Reservation(ctx context.Context, id uint64) (model.Reservation, error) {
	return getReservation(ctx, s.db, id, false)
}

func (s *Store) Reservations(ctx context.Context, f storage.ReservationFilter) ([]model.Reservation, error) {
	return listReservations(ctx, s.db, f)
}

func (s *Store) Table(ctx context.Context, id uint64) (model.Table, error) {
	return getTable(ctx, s.db, id, false)
}

func (s *Store) Tables(ctx context.Context) ([]model.Table, error) {
	return listTables(ctx, s.db)
}

// sqlTx implements storage.Tx.  Reads lock their rows until commit.
type sqlTx struct {
	tx *sql.Tx
}

func (t sqlTx) ReservationForUpdate(ctx context.Context, id uint64) (model.Reservation, error) {
	return getReservation(ctx, t.tx, id, true)
}

func (t sqlTx) TableForUpdate(ctx context.Context, id uint64) (model.Table, error) {
	return getTable(ctx, t.tx, id, true)
}

func (t sqlTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	return insertReservation(ctx, t.tx, r)
}

func (t sqlTx) UpdateReservation(ctx context.Context, id uint64, p model.ReservationPatch) (model.Reservation, error) {
	return updateReservation(ctx, t.tx, id, p)
}

func (t sqlTx) SetReservationStatus(ctx context.Context, id uint64, s model.Status) error {
	return setReservationStatus(ctx, t.tx, id, s)
}

func (t sqlTx) InsertTable(ctx context.Context, tb *model.Table) error {
	return insertTable(ctx, t.tx, tb)
}

func (t sqlTx) SetTableOccupant(ctx context.Context, tableID uint64, reservationID *uint64) error {
	return setTableOccupant(ctx, t.tx, tableID, reservationID)
}
