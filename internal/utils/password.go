package utils

import (
	"crypto/rand"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the bcrypt input limit. Longer passwords are cut to
// their first MaxPasswordBytes bytes before hashing and comparing, so any
// two inputs sharing that prefix verify against the same hash.
const MaxPasswordBytes = 72

// TempPasswordLength is the length of generated initial passwords.
const TempPasswordLength = 12

const (
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*"
)

// TruncatePassword returns the bytes of plain that bcrypt actually sees.
func TruncatePassword(plain string) []byte {
	b := []byte(plain)
	if len(b) > MaxPasswordBytes {
		b = b[:MaxPasswordBytes]
	}
	return b
}

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword(TruncatePassword(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), TruncatePassword(plain)) == nil
}

// IsBcryptHash reports whether hash looks like a bcrypt digest ($2a$, $2b$, $2y$).
func IsBcryptHash(hash string) bool {
	if len(hash) != 60 {
		return false
	}
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

// GenerateTempPassword returns a random TempPasswordLength password drawn
// from letters, digits and a few symbols. It always contains at least one
// lowercase letter, one uppercase letter and one digit.
func GenerateTempPassword() (string, error) {
	alphabet := lowerChars + upperChars + digitChars + specialChars
	out := make([]byte, TempPasswordLength)
	for i, set := range []string{lowerChars, upperChars, digitChars} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		out[i] = c
	}
	for i := 3; i < len(out); i++ {
		c, err := randomChar(alphabet)
		if err != nil {
			return "", err
		}
		out[i] = c
	}
	// Shuffle so the guaranteed classes are not always in front.
	for i := len(out) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		out[i], out[j.Int64()] = out[j.Int64()], out[i]
	}
	return string(out), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}
