package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/storage"
)

// StaffRepo persists operator accounts in the staff table.
type StaffRepo struct{ DB *sql.DB }

func NewStaffRepo(db *sql.DB) *StaffRepo { return &StaffRepo{DB: db} }

var _ storage.StaffStore = (*StaffRepo)(nil)

// CreateStaff inserts an account and returns its ID.
func (r *StaffRepo) CreateStaff(ctx context.Context, email, passwordHash, role string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO staff (email, password_hash, role) VALUES (?,?,?)",
		storage.NormalizeEmail(email), passwordHash, role)
	if err != nil {
		if isDuplicate(err) {
			return 0, storage.ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// StaffByEmail fetches an account by normalized email.
func (r *StaffRepo) StaffByEmail(ctx context.Context, email string) (model.Staff, error) {
	return r.one(ctx,
		"SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM staff WHERE email=? LIMIT 1",
		storage.NormalizeEmail(email))
}

// StaffByID fetches an account by id.
func (r *StaffRepo) StaffByID(ctx context.Context, id uint64) (model.Staff, error) {
	return r.one(ctx,
		"SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM staff WHERE id=? LIMIT 1",
		id)
}

func (r *StaffRepo) one(ctx context.Context, query string, arg any) (model.Staff, error) {
	var s model.Staff
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&s.ID, &s.Email, &s.PasswordHash, &s.Role, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Staff{}, storage.ErrStaffNotFound
	}
	return s, err
}
