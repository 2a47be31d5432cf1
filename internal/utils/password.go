package utils

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost matches the cost the original deployment tuned for:
// verification on the order of tens of milliseconds on commodity hardware.
// The effective cost is a config knob; this is only the fallback.
const DefaultBcryptCost = 10

// HashPassword returns a bcrypt hash using the given cost.  A cost below
// bcrypt's minimum falls back to DefaultBcryptCost.  The only error path
// is malformed input (bcrypt rejects passwords longer than 72 bytes).
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = DefaultBcryptCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash and a plain password.
// bcrypt's comparison is constant time in the digest; a mismatch returns
// false, never an error.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
