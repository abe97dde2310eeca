package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/storage"
)

const reservationColumns = `id, first_name, last_name, mobile_number, reservation_date, reservation_time, people, status, created_at, updated_at`

// phoneDigitsExpr strips storage.PhonePunct from mobile_number so LIKE can
// match on digits.
var phoneDigitsExpr = stripExpr("mobile_number", storage.PhonePunct)

func stripExpr(col, chars string) string {
	expr := col
	for _, r := range chars {
		expr = "REPLACE(" + expr + ", '" + string(r) + "', '')"
	}
	return expr
}

// scanReservation reads one row.  DATE arrives as time.Time (parseTime=true)
// and TIME as "HH:MM:SS".
func scanReservation(row scanner) (model.Reservation, error) {
	var (
		r      model.Reservation
		day    time.Time
		at     string
		status string
	)
	err := row.Scan(&r.ID, &r.FirstName, &r.LastName, &r.MobileNumber, &day, &at, &r.People, &status, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	r.ReservationDate = day.Format("2006-01-02")
	r.ReservationTime = clock(at)
	r.Status = model.Status(status)
	return r, nil
}

// clock trims a TIME value to HH:MM.
func clock(s string) string {
	if len(s) >= 5 {
		return s[:5]
	}
	return s
}

func getReservation(ctx context.Context, q querier, id uint64, lock bool) (model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	if lock {
		query += ` FOR UPDATE`
	}
	r, err := scanReservation(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, storage.ErrReservationNotFound
	}
	return r, err
}

func listReservations(ctx context.Context, q querier, f storage.ReservationFilter) ([]model.Reservation, error) {
	var (
		where []string
		args  []any
		order = `reservation_time, id`
	)
	switch {
	case f.Date != "":
		where = append(where, `reservation_date = ?`, `status NOT IN ('finished', 'cancelled')`)
		args = append(args, f.Date)
	case f.Mobile != "":
		where = append(where, phoneDigitsExpr+` LIKE ?`)
		args = append(args, "%"+f.Mobile+"%")
		order = `reservation_date, reservation_time, id`
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY ` + order

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// insertReservation writes r and reads the row back to pick up the
// generated id and timestamps.
func insertReservation(ctx context.Context, q querier, r *model.Reservation) error {
	const ins = `INSERT INTO reservations (first_name, last_name, mobile_number, reservation_date, reservation_time, people, status) VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := q.ExecContext(ctx, ins, r.FirstName, r.LastName, r.MobileNumber, r.ReservationDate, r.ReservationTime, r.People, string(r.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := getReservation(ctx, q, uint64(id), false)
	if err != nil {
		return err
	}
	*r = got
	return nil
}

func updateReservation(ctx context.Context, q querier, id uint64, p model.ReservationPatch) (model.Reservation, error) {
	const upd = `UPDATE reservations SET first_name = ?, last_name = ?, mobile_number = ?, reservation_date = ?, reservation_time = ?, people = ? WHERE id = ?`
	if _, err := q.ExecContext(ctx, upd, p.FirstName, p.LastName, p.MobileNumber, p.ReservationDate, p.ReservationTime, p.People, id); err != nil {
		return model.Reservation{}, err
	}
	return getReservation(ctx, q, id, false)
}

func setReservationStatus(ctx context.Context, q querier, id uint64, s model.Status) error {
	res, err := q.ExecContext(ctx, `UPDATE reservations SET status = ? WHERE id = ?`, string(s), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrReservationNotFound
	}
	return nil
}
