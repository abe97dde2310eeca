// Package storage declares the persistence collaborator used by the
// consistency engine and the auth handlers.  Implementations live in
// internal/repository (MySQL) and internal/storage/memory.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
)

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrTableNotFound       = errors.New("table not found")
	ErrStaffNotFound       = errors.New("staff not found")
	ErrEmailExists         = errors.New("email already exists")
	ErrTokenInvalid        = errors.New("refresh token invalid")
)

// ReservationFilter narrows ListReservations.  At most one field is used;
// Date wins over Mobile.  A zero filter lists everything.
type ReservationFilter struct {
	// Date selects reservations on a YYYY-MM-DD day that are not finished
	// or cancelled.
	Date string
	// Mobile selects reservations whose phone digits contain these digits.
	Mobile string
}

// Reader exposes the non-locking reads.
type Reader interface {
	Reservation(ctx context.Context, id uint64) (model.Reservation, error)
	Reservations(ctx context.Context, f ReservationFilter) ([]model.Reservation, error)
	Table(ctx context.Context, id uint64) (model.Table, error)
	Tables(ctx context.Context) ([]model.Table, error)
}

// Tx is a unit of work.  Reads made through a Tx hold their rows until the
// transaction ends, so a precondition checked inside InTx still holds when
// the write lands.
type Tx interface {
	ReservationForUpdate(ctx context.Context, id uint64) (model.Reservation, error)
	TableForUpdate(ctx context.Context, id uint64) (model.Table, error)
	InsertReservation(ctx context.Context, r *model.Reservation) error
	UpdateReservation(ctx context.Context, id uint64, p model.ReservationPatch) (model.Reservation, error)
	SetReservationStatus(ctx context.Context, id uint64, s model.Status) error
	InsertTable(ctx context.Context, t *model.Table) error
	SetTableOccupant(ctx context.Context, tableID uint64, reservationID *uint64) error
}

// Store is the full reservation/table persistence surface.
type Store interface {
	Reader
	// InTx runs fn inside one transaction.  fn's error rolls everything
	// back and is returned unchanged.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// StaffStore persists operator accounts.
type StaffStore interface {
	CreateStaff(ctx context.Context, email, passwordHash, role string) (uint64, error)
	StaffByEmail(ctx context.Context, email string) (model.Staff, error)
	StaffByID(ctx context.Context, id uint64) (model.Staff, error)
}

// TokenStore persists refresh token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, staffID uint64, tokenHash string, exp time.Time) error
	// ValidateRefresh returns the owner of a live token or ErrTokenInvalid.
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForStaff(ctx context.Context, staffID uint64) error
}

// NormalizeEmail lower-cases and trims a login.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PhonePunct is what phone search ignores in stored numbers.  Both drivers
// strip exactly these characters, so "555.123.4567" matches neither.
const PhonePunct = "() -"

// StripPhonePunct removes PhonePunct from a stored number.
func StripPhonePunct(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(PhonePunct, r) {
			return -1
		}
		return r
	}, s)
}

// PhoneDigits strips everything but ASCII digits from a search term.
func PhoneDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
