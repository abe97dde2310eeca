package utils

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword bcrypt-hashes a staff password.  A cost outside bcrypt's
// range (BCRYPT_COST misconfigured) falls back to bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decoy is compared against when the account does not exist, so an
// unknown email costs as much time as a wrong password.
var decoy = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("no-such-staff"), bcrypt.DefaultCost)
	return h
})

// VerifyPassword reports whether plain matches hash.  An empty hash never
// matches.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(decoy(), []byte(plain))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
