package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/storage"
)

func seed(t *testing.T, s *Store, rs ...model.Reservation) []model.Reservation {
	t.Helper()
	out := make([]model.Reservation, 0, len(rs))
	err := s.InTx(context.Background(), func(tx storage.Tx) error {
		for i := range rs {
			r := rs[i]
			if err := tx.InsertReservation(context.Background(), &r); err != nil {
				return err
			}
			out = append(out, r)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func TestInTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx storage.Tx) error {
		tb := &model.Table{TableName: "Bar #1", Capacity: 2}
		require.NoError(t, tx.InsertTable(ctx, tb))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	tables, err := s.Tables(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestSetTableOccupantIsUnique(t *testing.T) {
	s := New()
	ctx := context.Background()
	r := seed(t, s, model.Reservation{FirstName: "A", Status: model.StatusBooked})[0]

	err := s.InTx(ctx, func(tx storage.Tx) error {
		a := &model.Table{TableName: "#1", Capacity: 2}
		b := &model.Table{TableName: "#2", Capacity: 2}
		require.NoError(t, tx.InsertTable(ctx, a))
		require.NoError(t, tx.InsertTable(ctx, b))
		require.NoError(t, tx.SetTableOccupant(ctx, a.ID, &r.ID))
		return tx.SetTableOccupant(ctx, b.ID, &r.ID)
	})
	assert.ErrorIs(t, err, ErrOccupantTaken)
}

func TestReservationsFilters(t *testing.T) {
	s := New()
	ctx := context.Background()
	seed(t, s,
		model.Reservation{FirstName: "late", MobileNumber: "(800) 555-1212", ReservationDate: "2030-01-02", ReservationTime: "19:00", Status: model.StatusBooked},
		model.Reservation{FirstName: "early", MobileNumber: "800-555-9999", ReservationDate: "2030-01-02", ReservationTime: "11:00", Status: model.StatusBooked},
		model.Reservation{FirstName: "done", MobileNumber: "800 555 1212", ReservationDate: "2030-01-01", ReservationTime: "12:00", Status: model.StatusFinished},
	)

	byDate, err := s.Reservations(ctx, storage.ReservationFilter{Date: "2030-01-02"})
	require.NoError(t, err)
	require.Len(t, byDate, 2)
	assert.Equal(t, "early", byDate[0].FirstName)

	byPhone, err := s.Reservations(ctx, storage.ReservationFilter{Mobile: "555-1212"})
	require.NoError(t, err)
	require.Len(t, byPhone, 2)
	assert.Equal(t, "done", byPhone[0].FirstName)

	all, err := s.Reservations(ctx, storage.ReservationFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPhoneSearchIgnoresOnlyParensSpacesDashes(t *testing.T) {
	s := New()
	ctx := context.Background()
	seed(t, s,
		model.Reservation{FirstName: "dotted", MobileNumber: "555.123.4567", ReservationDate: "2030-01-09", ReservationTime: "18:00", Status: model.StatusBooked},
		model.Reservation{FirstName: "dashed", MobileNumber: "(555) 123-4567", ReservationDate: "2030-01-09", ReservationTime: "19:00", Status: model.StatusBooked},
	)

	got, err := s.Reservations(ctx, storage.ReservationFilter{Mobile: "5551234567"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "dashed", got[0].FirstName)

	// the dotted number still matches on a run of digits between dots
	got, err = s.Reservations(ctx, storage.ReservationFilter{Mobile: "4567"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestPhoneSearchFindsEveryFormat(t *testing.T) {
	s := New()
	ctx := context.Background()
	faker := gofakeit.New(7)

	formats := []string{"###-###-####", "(###)###-####", "(###) ###-####", "1-###-###-####", "### ### ####", "##########"}
	guests := make([]model.Reservation, 50)
	for i := range guests {
		guests[i] = model.Reservation{
			FirstName:       faker.FirstName(),
			LastName:        faker.LastName(),
			MobileNumber:    faker.Numerify(faker.RandomString(formats)),
			ReservationDate: "2030-01-09",
			ReservationTime: "18:00",
			People:          faker.IntRange(1, 8),
			Status:          model.StatusBooked,
		}
	}
	for _, g := range seed(t, s, guests...) {
		digits := storage.PhoneDigits(g.MobileNumber)
		require.GreaterOrEqual(t, len(digits), 7, g.MobileNumber)

		found, err := s.Reservations(ctx, storage.ReservationFilter{Mobile: digits[len(digits)-7:]})
		require.NoError(t, err)
		ids := make([]uint64, 0, len(found))
		for _, r := range found {
			ids = append(ids, r.ID)
		}
		assert.Contains(t, ids, g.ID, "search for %s", g.MobileNumber)
	}
}

func TestRefreshTokens(t *testing.T) {
	s := New()
	ctx := context.Background()
	id, err := s.CreateStaff(ctx, "Host@Example.com", "hash", model.RoleHost)
	require.NoError(t, err)
	_, err = s.CreateStaff(ctx, "host@example.com", "hash", model.RoleHost)
	assert.ErrorIs(t, err, storage.ErrEmailExists)

	require.NoError(t, s.StoreRefresh(ctx, id, "h1", time.Now().Add(time.Hour)))
	got, err := s.ValidateRefresh(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	require.NoError(t, s.RevokeByHash(ctx, "h1"))
	_, err = s.ValidateRefresh(ctx, "h1")
	assert.ErrorIs(t, err, storage.ErrTokenInvalid)
}

func TestRevokeAllForStaff(t *testing.T) {
	s := New()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)
	require.NoError(t, s.StoreRefresh(ctx, 1, "a", exp))
	require.NoError(t, s.StoreRefresh(ctx, 1, "b", exp))
	require.NoError(t, s.StoreRefresh(ctx, 2, "c", exp))

	require.NoError(t, s.RevokeAllForStaff(ctx, 1))
	for _, h := range []string{"a", "b"} {
		_, err := s.ValidateRefresh(ctx, h)
		assert.ErrorIs(t, err, storage.ErrTokenInvalid, h)
	}
	got, err := s.ValidateRefresh(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got)
}
