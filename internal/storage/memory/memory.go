// Package memory is an in-process implementation of the storage
// interfaces.  Transactions are serialised by a single mutex and work on a
// copy of the state that replaces the live state only on commit.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/storage"
)

// ErrOccupantTaken mirrors the unique index on tables.reservation_id.
var ErrOccupantTaken = errors.New("reservation already occupies another table")

type state struct {
	reservations    map[uint64]model.Reservation
	tables          map[uint64]model.Table
	nextReservation uint64
	nextTable       uint64
}

func (s state) clone() state {
	c := state{
		reservations:    make(map[uint64]model.Reservation, len(s.reservations)),
		tables:          make(map[uint64]model.Table, len(s.tables)),
		nextReservation: s.nextReservation,
		nextTable:       s.nextTable,
	}
	for id, r := range s.reservations {
		c.reservations[id] = r
	}
	for id, t := range s.tables {
		c.tables[id] = copyTable(t)
	}
	return c
}

func copyTable(t model.Table) model.Table {
	if t.ReservationID != nil {
		rid := *t.ReservationID
		t.ReservationID = &rid
	}
	return t
}

// Store keeps reservations, tables, staff and refresh tokens in memory.
type Store struct {
	mu    sync.Mutex
	state state
	now   func() time.Time

	authMu    sync.Mutex
	staff     map[uint64]model.Staff
	nextStaff uint64
	tokens    map[string]token
}

type token struct {
	staffID   uint64
	expiresAt time.Time
	revoked   bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		state: state{
			reservations: map[uint64]model.Reservation{},
			tables:       map[uint64]model.Table{},
		},
		now:    func() time.Time { return time.Now().UTC() },
		staff:  map[uint64]model.Staff{},
		tokens: map[string]token{},
	}
}

// InTx runs fn against a private copy of the state.  The copy replaces the
// live state only when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{state: s.state.clone(), now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

func (s *Store) Reservation(_ context.Context, id uint64) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.state.reservations[id]
	if !ok {
		return model.Reservation{}, storage.ErrReservationNotFound
	}
	return r, nil
}

func (s *Store) Reservations(_ context.Context, f storage.ReservationFilter) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Reservation, 0, len(s.state.reservations))
	digits := storage.PhoneDigits(f.Mobile)
	for _, r := range s.state.reservations {
		switch {
		case f.Date != "":
			if r.ReservationDate != f.Date || r.Status == model.StatusFinished || r.Status == model.StatusCancelled {
				continue
			}
		case f.Mobile != "":
			if !strings.Contains(storage.StripPhonePunct(r.MobileNumber), digits) {
				continue
			}
		}
		out = append(out, r)
	}
	byDate := f.Date == "" && f.Mobile != ""
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if byDate && a.ReservationDate != b.ReservationDate {
			return a.ReservationDate < b.ReservationDate
		}
		if a.ReservationTime != b.ReservationTime {
			return a.ReservationTime < b.ReservationTime
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *Store) Table(_ context.Context, id uint64) (model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.state.tables[id]
	if !ok {
		return model.Table{}, storage.ErrTableNotFound
	}
	return copyTable(t), nil
}

func (s *Store) Tables(_ context.Context) ([]model.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Table, 0, len(s.state.tables))
	for _, t := range s.state.tables {
		out = append(out, copyTable(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TableName != out[j].TableName {
			return out[i].TableName < out[j].TableName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type memTx struct {
	state state
	now   func() time.Time
}

func (t *memTx) ReservationForUpdate(_ context.Context, id uint64) (model.Reservation, error) {
	r, ok := t.state.reservations[id]
	if !ok {
		return model.Reservation{}, storage.ErrReservationNotFound
	}
	return r, nil
}

func (t *memTx) TableForUpdate(_ context.Context, id uint64) (model.Table, error) {
	tb, ok := t.state.tables[id]
	if !ok {
		return model.Table{}, storage.ErrTableNotFound
	}
	return copyTable(tb), nil
}

func (t *memTx) InsertReservation(_ context.Context, r *model.Reservation) error {
	t.state.nextReservation++
	now := t.now()
	r.ID = t.state.nextReservation
	r.CreatedAt, r.UpdatedAt = now, now
	t.state.reservations[r.ID] = *r
	return nil
}

func (t *memTx) UpdateReservation(_ context.Context, id uint64, p model.ReservationPatch) (model.Reservation, error) {
	r, ok := t.state.reservations[id]
	if !ok {
		return model.Reservation{}, storage.ErrReservationNotFound
	}
	p.Apply(&r)
	r.UpdatedAt = t.now()
	t.state.reservations[id] = r
	return r, nil
}

func (t *memTx) SetReservationStatus(_ context.Context, id uint64, st model.Status) error {
	r, ok := t.state.reservations[id]
	if !ok {
		return storage.ErrReservationNotFound
	}
	r.Status = st
	r.UpdatedAt = t.now()
	t.state.reservations[id] = r
	return nil
}

func (t *memTx) InsertTable(_ context.Context, tb *model.Table) error {
	t.state.nextTable++
	now := t.now()
	tb.ID = t.state.nextTable
	tb.CreatedAt, tb.UpdatedAt = now, now
	t.state.tables[tb.ID] = copyTable(*tb)
	return nil
}

func (t *memTx) SetTableOccupant(_ context.Context, tableID uint64, reservationID *uint64) error {
	tb, ok := t.state.tables[tableID]
	if !ok {
		return storage.ErrTableNotFound
	}
	if reservationID != nil {
		for id, other := range t.state.tables {
			if id != tableID && other.ReservationID != nil && *other.ReservationID == *reservationID {
				return ErrOccupantTaken
			}
		}
		rid := *reservationID
		tb.ReservationID = &rid
	} else {
		tb.ReservationID = nil
	}
	tb.UpdatedAt = t.now()
	t.state.tables[tableID] = tb
	return nil
}
