package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/storage"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

var stamp = time.Date(2030, time.January, 7, 12, 0, 0, 0, time.UTC)

func reservationRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "first_name", "last_name", "mobile_number", "reservation_date", "reservation_time", "people", "status", "created_at", "updated_at"})
}

func tableRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "table_name", "capacity", "reservation_id", "created_at", "updated_at"})
}

func TestSetStatusInsideTx(t *testing.T) {
	db, mock := newMock(t)
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM reservations WHERE id = \? FOR UPDATE`).
		WithArgs(7).
		WillReturnRows(reservationRows().AddRow(7, "Rick", "Sanchez", "202-555-0164", time.Date(2030, 1, 9, 0, 0, 0, 0, time.UTC), "18:00:00", 2, "booked", stamp, stamp))
	mock.ExpectExec(`UPDATE reservations SET status = \? WHERE id = \?`).
		WithArgs("cancelled", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx storage.Tx) error {
		r, err := tx.ReservationForUpdate(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, "2030-01-09", r.ReservationDate)
		assert.Equal(t, "18:00", r.ReservationTime)
		assert.Equal(t, model.StatusBooked, r.Status)
		return tx.SetReservationStatus(context.Background(), 7, model.StatusCancelled)
	})
	require.NoError(t, err)
}

func TestInTxRollsBack(t *testing.T) {
	db, mock := newMock(t)
	store := NewStore(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(storage.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestReservationNotFound(t *testing.T) {
	db, mock := newMock(t)
	store := NewStore(db)

	mock.ExpectQuery(`SELECT .+ FROM reservations WHERE id = \?`).
		WithArgs(404).
		WillReturnRows(reservationRows())

	_, err := store.Reservation(context.Background(), 404)
	assert.ErrorIs(t, err, storage.ErrReservationNotFound)
}

func TestListReservationsQueries(t *testing.T) {
	db, mock := newMock(t)
	store := NewStore(db)
	ctx := context.Background()
	day := time.Date(2030, 1, 9, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE reservation_date = \? AND status NOT IN \('finished', 'cancelled'\) ORDER BY reservation_time, id`).
		WithArgs("2030-01-09").
		WillReturnRows(reservationRows().AddRow(1, "A", "B", "1", day, "10:30:00", 2, "booked", stamp, stamp))
	rs, err := store.Reservations(ctx, storage.ReservationFilter{Date: "2030-01-09"})
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "10:30", rs[0].ReservationTime)

	mock.ExpectQuery(`LIKE \? ORDER BY reservation_date, reservation_time, id`).
		WithArgs("%5550164%").
		WillReturnRows(reservationRows())
	rs, err = store.Reservations(ctx, storage.ReservationFilter{Mobile: "5550164"})
	require.NoError(t, err)
	assert.NotNil(t, rs)
	assert.Empty(t, rs)

	mock.ExpectQuery(`FROM reservations ORDER BY reservation_time, id`).
		WillReturnRows(reservationRows())
	_, err = store.Reservations(ctx, storage.ReservationFilter{})
	require.NoError(t, err)
}

func TestPhoneSearchStripsSamePunctuationAsMemory(t *testing.T) {
	assert.Equal(t,
		`REPLACE(REPLACE(REPLACE(REPLACE(mobile_number, '(', ''), ')', ''), ' ', ''), '-', '')`,
		phoneDigitsExpr)

	db, mock := newMock(t)
	mock.ExpectQuery(`WHERE REPLACE\(REPLACE\(REPLACE\(REPLACE\(mobile_number, '\(', ''\), '\)', ''\), ' ', ''\), '-', ''\) LIKE \?`).
		WithArgs("%5551234567%").
		WillReturnRows(reservationRows())
	_, err := NewStore(db).Reservations(context.Background(), storage.ReservationFilter{Mobile: "5551234567"})
	require.NoError(t, err)
}

func TestInsertReservationReadsBack(t *testing.T) {
	db, mock := newMock(t)
	store := NewStore(db)
	day := time.Date(2030, 1, 9, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO reservations`).
		WithArgs("Rick", "Sanchez", "202-555-0164", "2030-01-09", "18:00", 2, "booked").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(`SELECT .+ FROM reservations WHERE id = \?`).
		WithArgs(11).
		WillReturnRows(reservationRows().AddRow(11, "Rick", "Sanchez", "202-555-0164", day, "18:00:00", 2, "booked", stamp, stamp))
	mock.ExpectCommit()

	r := model.Reservation{
		FirstName: "Rick", LastName: "Sanchez", MobileNumber: "202-555-0164",
		ReservationDate: "2030-01-09", ReservationTime: "18:00", People: 2, Status: model.StatusBooked,
	}
	err := store.InTx(context.Background(), func(tx storage.Tx) error {
		return tx.InsertReservation(context.Background(), &r)
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(11), r.ID)
	assert.Equal(t, stamp, r.CreatedAt)
}

func TestTableOccupant(t *testing.T) {
	db, mock := newMock(t)
	store := NewStore(db)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT .+ FROM restaurant_tables WHERE id = \?`).
		WithArgs(3).
		WillReturnRows(tableRows().AddRow(3, "#3", 4, 9, stamp, stamp))
	tb, err := store.Table(ctx, 3)
	require.NoError(t, err)
	require.NotNil(t, tb.ReservationID)
	assert.Equal(t, uint64(9), *tb.ReservationID)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE restaurant_tables SET reservation_id = \? WHERE id = \?`).
		WithArgs(nil, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	err = store.InTx(ctx, func(tx storage.Tx) error {
		return tx.SetTableOccupant(ctx, 3, nil)
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE restaurant_tables SET reservation_id = \? WHERE id = \?`).
		WithArgs(9, 4).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()
	rid := uint64(9)
	err = store.InTx(ctx, func(tx storage.Tx) error {
		return tx.SetTableOccupant(ctx, 4, &rid)
	})
	assert.ErrorIs(t, err, ErrOccupantTaken)
}

func TestTableNotFoundForUpdate(t *testing.T) {
	db, mock := newMock(t)
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM restaurant_tables WHERE id = \? FOR UPDATE`).
		WithArgs(5).
		WillReturnRows(tableRows())
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(tx storage.Tx) error {
		_, err := tx.TableForUpdate(context.Background(), 5)
		return err
	})
	assert.ErrorIs(t, err, storage.ErrTableNotFound)
}

func TestStaffRepo(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStaffRepo(db)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO staff`).
		WithArgs("host@example.com", "hash", model.RoleHost).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	_, err := repo.CreateStaff(ctx, "  Host@Example.com ", "hash", model.RoleHost)
	assert.ErrorIs(t, err, storage.ErrEmailExists)

	mock.ExpectQuery(`FROM staff WHERE email=\?`).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}))
	_, err = repo.StaffByEmail(ctx, "Nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrStaffNotFound)
}

func TestValidateRefresh(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)
	ctx := context.Background()
	cols := []string{"staff_id", "expires_at", "revoked_at"}

	mock.ExpectQuery(`FROM refresh_tokens WHERE token_hash=\?`).
		WithArgs("live").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(2, time.Now().UTC().Add(time.Hour), nil))
	id, err := repo.ValidateRefresh(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id)

	mock.ExpectQuery(`FROM refresh_tokens WHERE token_hash=\?`).
		WithArgs("revoked").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(2, time.Now().UTC().Add(time.Hour), stamp))
	_, err = repo.ValidateRefresh(ctx, "revoked")
	assert.ErrorIs(t, err, storage.ErrTokenInvalid)

	mock.ExpectQuery(`FROM refresh_tokens WHERE token_hash=\?`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(cols))
	_, err = repo.ValidateRefresh(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrTokenInvalid)
}
