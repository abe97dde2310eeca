package engine

import (
	"fmt"
)

// Kind classifies engine failures.  Callers map kinds to status codes.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindConflict
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_failed"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPersistence:
		return "persistence_failure"
	}
	return "unknown"
}

// Reason is a machine-readable rejection code.
type Reason string

const (
	ReasonMissingData   Reason = "missing_data"
	ReasonMissingField  Reason = "missing_field"
	ReasonUnknownField  Reason = "unknown_field"
	ReasonInvalidTime   Reason = "invalid_time"
	ReasonInvalidDate   Reason = "invalid_date"
	ReasonClosedDay     Reason = "closed_day"
	ReasonPastDate      Reason = "past_date"
	ReasonOutsideHours  Reason = "outside_hours"
	ReasonInvalidPeople Reason = "invalid_people"

	ReasonUnknownStatus    Reason = "unknown_status"
	ReasonStatusNotAllowed Reason = "status_not_allowed"

	ReasonInvalidTableName Reason = "invalid_table_name"
	ReasonInvalidCapacity  Reason = "invalid_capacity"
	ReasonTableNotFree     Reason = "table_not_free"

	ReasonReservationFinished Reason = "reservation_finished"
	ReasonNotEditable         Reason = "reservation_not_editable"
	ReasonInvalidTransition   Reason = "invalid_transition"
	ReasonAlreadySeated       Reason = "already_seated"
	ReasonTableOccupied       Reason = "table_occupied"
	ReasonCapacityExceeded    Reason = "capacity_exceeded"
	ReasonTableNotOccupied    Reason = "table_not_occupied"

	ReasonReservationNotFound Reason = "reservation_not_found"
	ReasonTableNotFound       Reason = "table_not_found"
)

// Error is the structured failure returned by every engine operation.  A
// returned Error guarantees that no state was changed.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Reason when the target carries one, otherwise on Kind, so
// errors.Is(err, engine.ErrConflict) works for every conflict.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Reason != "" {
		return t.Reason == e.Reason
	}
	return t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrValidationFailed = &Error{Kind: KindValidation}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrConflict         = &Error{Kind: KindConflict}
	ErrPersistence      = &Error{Kind: KindPersistence}
)

func rejected(reason Reason, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func conflict(reason Reason, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func reservationNotFound(id uint64) *Error {
	return &Error{Kind: KindNotFound, Reason: ReasonReservationNotFound, Message: fmt.Sprintf("Reservation not found: %d", id)}
}

func tableNotFound(id uint64) *Error {
	return &Error{Kind: KindNotFound, Reason: ReasonTableNotFound, Message: fmt.Sprintf("table not found: %d", id)}
}

func persistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: "storage failure", Err: fmt.Errorf("%s: %w", op, err)}
}
