// Package engine is the reservation/table consistency engine.  It admits new
// reservations, drives the status state machine and links reservations to
// tables.  Every state change runs as one storage transaction; on any
// returned error nothing was written.
package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/restaurant-reservation/internal/lib/logger/sl"
	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/storage"
)

// Engine holds no state of its own beyond configuration.
type Engine struct {
	store    storage.Store
	policy   Policy
	now      func() time.Time
	log      *slog.Logger
	validate *validator.Validate
}

// Option configures an Engine.
type Option func(*Engine)

// WithPolicy replaces the default booking window.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		if p.Location == nil {
			p.Location = time.UTC
		}
		e.policy = p
	}
}

// WithClock replaces time.Now; tests use it to pin "now".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger used for persistence failures and transitions.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New returns an engine backed by store.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		policy:   DefaultPolicy(),
		now:      time.Now,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ReservationQuery selects reservations for ListReservations.  Date wins
// when both fields are set.
type ReservationQuery struct {
	Date   string
	Mobile string
}

// CreateReservation admits a new booking in status booked.
func (e *Engine) CreateReservation(ctx context.Context, in ReservationInput) (model.Reservation, error) {
	const op = "engine.CreateReservation"

	if err := e.Validate(in); err != nil {
		return model.Reservation{}, err
	}
	if in.StatusSet && model.Status(in.Status) != model.StatusBooked {
		return model.Reservation{}, rejected(ReasonStatusNotAllowed, "new reservations start as %s", model.StatusBooked)
	}

	r := model.Reservation{Status: model.StatusBooked}
	e.patchFrom(in).Apply(&r)
	err := e.store.InTx(ctx, func(tx storage.Tx) error {
		return tx.InsertReservation(ctx, &r)
	})
	if err != nil {
		return model.Reservation{}, e.fail(op, err)
	}
	e.log.Info("reservation created", slog.String("op", op), slog.Uint64("reservation_id", r.ID))
	return r, nil
}

// UpdateReservation replaces the guest fields of a booked reservation.
// Status cannot change here; use SetReservationStatus.
func (e *Engine) UpdateReservation(ctx context.Context, id uint64, in ReservationInput) (model.Reservation, error) {
	const op = "engine.UpdateReservation"

	if err := e.Validate(in); err != nil {
		return model.Reservation{}, err
	}

	var out model.Reservation
	err := e.store.InTx(ctx, func(tx storage.Tx) error {
		cur, err := tx.ReservationForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrReservationNotFound) {
				return reservationNotFound(id)
			}
			return err
		}
		switch cur.Status {
		case model.StatusBooked:
		case model.StatusFinished:
			return conflict(ReasonReservationFinished, "reservation already finished")
		default:
			return conflict(ReasonNotEditable, "a %s reservation cannot be edited", cur.Status)
		}
		if in.StatusSet && model.Status(in.Status) != cur.Status {
			return rejected(ReasonStatusNotAllowed, "status changes go through the status operation")
		}
		out, err = tx.UpdateReservation(ctx, id, e.patchFrom(in))
		return err
	})
	if err != nil {
		return model.Reservation{}, e.fail(op, err)
	}
	return out, nil
}

// SetReservationStatus applies an operator-requested status change.  Only
// edges owned by the status operation are accepted; seated and finished are
// reached through SeatReservationAtTable and ClearTable.
func (e *Engine) SetReservationStatus(ctx context.Context, id uint64, target string) (model.Reservation, error) {
	const op = "engine.SetReservationStatus"

	var out model.Reservation
	err := e.store.InTx(ctx, func(tx storage.Tx) error {
		cur, err := tx.ReservationForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrReservationNotFound) {
				return reservationNotFound(id)
			}
			return err
		}
		if cur.Status == model.StatusFinished {
			return conflict(ReasonReservationFinished, "reservation already finished")
		}
		to, ok := model.ParseStatus(target)
		if !ok {
			return rejected(ReasonUnknownStatus, "unknown status %q", target)
		}
		if to == model.StatusSeated || to == model.StatusFinished {
			return rejected(ReasonStatusNotAllowed, "status %s is set by seating and clearing tables", to)
		}
		if !model.CanTransition(cur.Status, to, model.TriggerStatusUpdate) {
			return conflict(ReasonInvalidTransition, "cannot change status from %s to %s", cur.Status, to)
		}
		if err := tx.SetReservationStatus(ctx, id, to); err != nil {
			return err
		}
		out, err = tx.ReservationForUpdate(ctx, id)
		return err
	})
	if err != nil {
		return model.Reservation{}, e.fail(op, err)
	}
	e.log.Info("reservation status changed", slog.String("op", op), slog.Uint64("reservation_id", id), slog.String("status", string(out.Status)))
	return out, nil
}

// GetReservation reads one reservation.
func (e *Engine) GetReservation(ctx context.Context, id uint64) (model.Reservation, error) {
	r, err := e.store.Reservation(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrReservationNotFound) {
			return model.Reservation{}, reservationNotFound(id)
		}
		return model.Reservation{}, e.fail("engine.GetReservation", err)
	}
	return r, nil
}

// ListReservations lists by date (active only), by phone digits, or all.
func (e *Engine) ListReservations(ctx context.Context, q ReservationQuery) ([]model.Reservation, error) {
	f := storage.ReservationFilter{Date: e.canonicalDate(q.Date)}
	if q.Date == "" {
		f.Mobile = storage.PhoneDigits(q.Mobile)
	}
	rs, err := e.store.Reservations(ctx, f)
	if err != nil {
		return nil, e.fail("engine.ListReservations", err)
	}
	return rs, nil
}

type tableCandidate struct {
	TableName string `validate:"min=2"`
	Capacity  int    `validate:"gt=0"`
}

// CreateTable adds a free table.
func (e *Engine) CreateTable(ctx context.Context, in TableInput) (model.Table, error) {
	const op = "engine.CreateTable"

	if len(in.Unknown) > 0 {
		return model.Table{}, rejected(ReasonUnknownField, "Invalid field(s): %s", strings.Join(in.Unknown, ", "))
	}
	if in.TableName == "" {
		return model.Table{}, rejected(ReasonMissingField, "Must include a table_name")
	}
	if !in.Capacity.Set {
		return model.Table{}, rejected(ReasonMissingField, "Must include a capacity")
	}
	if !in.Capacity.Integer {
		return model.Table{}, rejected(ReasonInvalidCapacity, "Invalid capacity")
	}
	if err := e.validate.Struct(tableCandidate{TableName: in.TableName, Capacity: in.Capacity.Value}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "TableName" {
			return model.Table{}, rejected(ReasonInvalidTableName, "table_name is too short.")
		}
		return model.Table{}, rejected(ReasonInvalidCapacity, "Invalid capacity")
	}
	if in.OccupantSet {
		return model.Table{}, rejected(ReasonTableNotFree, "tables are created free")
	}

	t := model.Table{TableName: in.TableName, Capacity: in.Capacity.Value}
	err := e.store.InTx(ctx, func(tx storage.Tx) error {
		return tx.InsertTable(ctx, &t)
	})
	if err != nil {
		return model.Table{}, e.fail(op, err)
	}
	return t, nil
}

// GetTable reads one table.
func (e *Engine) GetTable(ctx context.Context, id uint64) (model.Table, error) {
	t, err := e.store.Table(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrTableNotFound) {
			return model.Table{}, tableNotFound(id)
		}
		return model.Table{}, e.fail("engine.GetTable", err)
	}
	return t, nil
}

// ListTables lists every table ordered by name.
func (e *Engine) ListTables(ctx context.Context) ([]model.Table, error) {
	ts, err := e.store.Tables(ctx)
	if err != nil {
		return nil, e.fail("engine.ListTables", err)
	}
	return ts, nil
}

// SeatReservationAtTable binds a booked reservation to a free table.  The
// preconditions are checked in order and the first failure wins; both rows
// stay locked until the occupant and the seated status are written together.
func (e *Engine) SeatReservationAtTable(ctx context.Context, tableID, reservationID uint64) (model.Table, error) {
	const op = "engine.SeatReservationAtTable"

	if reservationID == 0 {
		return model.Table{}, rejected(ReasonMissingField, "A reservation_id is required")
	}

	var out model.Table
	err := e.store.InTx(ctx, func(tx storage.Tx) error {
		r, err := tx.ReservationForUpdate(ctx, reservationID)
		if err != nil {
			if errors.Is(err, storage.ErrReservationNotFound) {
				return reservationNotFound(reservationID)
			}
			return err
		}
		if r.Status == model.StatusSeated {
			return conflict(ReasonAlreadySeated, "reservation is already seated")
		}
		t, err := tx.TableForUpdate(ctx, tableID)
		if err != nil {
			if errors.Is(err, storage.ErrTableNotFound) {
				return tableNotFound(tableID)
			}
			return err
		}
		if t.Occupied() {
			return conflict(ReasonTableOccupied, "Table %d is currently occupied. Please select another table.", t.ID)
		}
		if r.People > t.Capacity {
			return conflict(ReasonCapacityExceeded, "Party size is greater than the table capacity. Please select another.")
		}
		if !model.CanTransition(r.Status, model.StatusSeated, model.TriggerSeat) {
			return conflict(ReasonInvalidTransition, "a %s reservation cannot be seated", r.Status)
		}

		if err := tx.SetTableOccupant(ctx, t.ID, &r.ID); err != nil {
			return err
		}
		if err := tx.SetReservationStatus(ctx, r.ID, model.StatusSeated); err != nil {
			return err
		}
		out, err = tx.TableForUpdate(ctx, t.ID)
		return err
	})
	if err != nil {
		return model.Table{}, e.fail(op, err)
	}
	e.log.Info("reservation seated", slog.String("op", op), slog.Uint64("table_id", tableID), slog.Uint64("reservation_id", reservationID))
	return out, nil
}

// ClearTable frees an occupied table and finishes its reservation in the
// same transaction.  It returns the finished reservation.
func (e *Engine) ClearTable(ctx context.Context, tableID uint64) (model.Reservation, error) {
	const op = "engine.ClearTable"

	var finished model.Reservation
	err := e.store.InTx(ctx, func(tx storage.Tx) error {
		t, err := tx.TableForUpdate(ctx, tableID)
		if err != nil {
			if errors.Is(err, storage.ErrTableNotFound) {
				return tableNotFound(tableID)
			}
			return err
		}
		if !t.Occupied() {
			return conflict(ReasonTableNotOccupied, "Table is not occupied.")
		}
		rid := *t.ReservationID
		r, err := tx.ReservationForUpdate(ctx, rid)
		if err != nil {
			if errors.Is(err, storage.ErrReservationNotFound) {
				return reservationNotFound(rid)
			}
			return err
		}
		if !model.CanTransition(r.Status, model.StatusFinished, model.TriggerClear) {
			return conflict(ReasonInvalidTransition, "occupant reservation %d is %s, not seated", rid, r.Status)
		}

		if err := tx.SetTableOccupant(ctx, t.ID, nil); err != nil {
			return err
		}
		if err := tx.SetReservationStatus(ctx, rid, model.StatusFinished); err != nil {
			return err
		}
		finished, err = tx.ReservationForUpdate(ctx, rid)
		return err
	})
	if err != nil {
		return model.Reservation{}, e.fail(op, err)
	}
	e.log.Info("table cleared", slog.String("op", op), slog.Uint64("table_id", tableID), slog.Uint64("reservation_id", finished.ID))
	return finished, nil
}

func (e *Engine) patchFrom(in ReservationInput) model.ReservationPatch {
	return model.ReservationPatch{
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		MobileNumber:    in.MobileNumber,
		ReservationDate: e.canonicalDate(in.ReservationDate),
		ReservationTime: in.ReservationTime,
		People:          in.People.Value,
	}
}

// fail passes engine errors through and turns anything else into a
// persistence failure.
func (e *Engine) fail(op string, err error) error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}
	e.log.Error("storage failure", slog.String("op", op), sl.Err(err))
	return persistence(op, err)
}
