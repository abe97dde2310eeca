package memory

import (
	"context"
	"time"

	"github.com/iliyamo/restaurant-reservation/internal/model"
	"github.com/iliyamo/restaurant-reservation/internal/storage"
)

func (s *Store) CreateStaff(_ context.Context, email, passwordHash, role string) (uint64, error) {
	s.authMu.Lock()
	defer s.authMu.Unlock()
	email = storage.NormalizeEmail(email)
	for _, st := range s.staff {
		if st.Email == email {
			return 0, storage.ErrEmailExists
		}
	}
	s.nextStaff++
	now := s.now()
	s.staff[s.nextStaff] = model.Staff{
		ID:           s.nextStaff,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return s.nextStaff, nil
}

func (s *Store) StaffByEmail(_ context.Context, email string) (model.Staff, error) {
	s.authMu.Lock()
	defer s.authMu.Unlock()
	email = storage.NormalizeEmail(email)
	for _, st := range s.staff {
		if st.Email == email {
			return st, nil
		}
	}
	return model.Staff{}, storage.ErrStaffNotFound
}

func (s *Store) StaffByID(_ context.Context, id uint64) (model.Staff, error) {
	s.authMu.Lock()
	defer s.authMu.Unlock()
	st, ok := s.staff[id]
	if !ok {
		return model.Staff{}, storage.ErrStaffNotFound
	}
	return st, nil
}

func (s *Store) StoreRefresh(_ context.Context, staffID uint64, tokenHash string, exp time.Time) error {
	s.authMu.Lock()
	defer s.authMu.Unlock()
	s.tokens[tokenHash] = token{staffID: staffID, expiresAt: exp}
	return nil
}

func (s *Store) ValidateRefresh(_ context.Context, tokenHash string) (uint64, error) {
	s.authMu.Lock()
	defer s.authMu.Unlock()
	tk, ok := s.tokens[tokenHash]
	if !ok || tk.revoked || s.now().After(tk.expiresAt) {
		return 0, storage.ErrTokenInvalid
	}
	return tk.staffID, nil
}

func (s *Store) RevokeByHash(_ context.Context, tokenHash string) error {
	s.authMu.Lock()
	defer s.authMu.Unlock()
	if tk, ok := s.tokens[tokenHash]; ok {
		tk.revoked = true
		s.tokens[tokenHash] = tk
	}
	return nil
}

func (s *Store) RevokeAllForStaff(_ context.Context, staffID uint64) error {
	s.authMu.Lock()
	defer s.authMu.Unlock()
	for h, tk := range s.tokens {
		if tk.staffID == staffID {
			tk.revoked = true
			s.tokens[h] = tk
		}
	}
	return nil
}
