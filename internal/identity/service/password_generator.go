package service

import (
	"crypto/rand"
	"math/big"
	"strings"

	apperrors "github.com/buiducnhanit/management-system/internal/errors"
)

const (
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*()-_=+[]{}<>?"
)

// passwordGenerator implements PasswordGenerator using crypto/rand.
type passwordGenerator struct{}

// NewPasswordGenerator creates a new PasswordGenerator.
func NewPasswordGenerator() PasswordGenerator {
	return &passwordGenerator{}
}

// Generate returns a random password compliant with the policy. One character
// from each required class is always present; the remainder is drawn from the
// union of allowed classes, then the result is shuffled so the required
// characters do not sit at predictable positions.
func (g *passwordGenerator) Generate(policy PasswordPolicy) (string, error) {
	length := policy.Length
	if length < 8 {
		length = 8
	}

	var required []byte
	var pool strings.Builder

	if policy.RequireUpper {
		c, err := randomChar(upperChars)
		if err != nil {
			return "", err
		}
		required = append(required, c)
		pool.WriteString(upperChars)
	}
	if policy.RequireLower {
		c, err := randomChar(lowerChars)
		if err != nil {
			return "", err
		}
		required = append(required, c)
		pool.WriteString(lowerChars)
	}
	if policy.RequireDigit {
		c, err := randomChar(digitChars)
		if err != nil {
			return "", err
		}
		required = append(required, c)
		pool.WriteString(digitChars)
	}
	if policy.RequireSpecial {
		c, err := randomChar(specialChars)
		if err != nil {
			return "", err
		}
		required = append(required, c)
		pool.WriteString(specialChars)
	}

	// Degenerate policy: nothing required, draw from everything.
	if pool.Len() == 0 {
		pool.WriteString(upperChars + lowerChars + digitChars + specialChars)
	}

	chars := pool.String()
	password := make([]byte, 0, length)
	password = append(password, required...)

	for len(password) < length {
		c, err := randomChar(chars)
		if err != nil {
			return "", err
		}
		password = append(password, c)
	}

	if err := shuffle(password); err != nil {
		return "", err
	}

	return string(password), nil
}

// randomChar draws a single uniformly random character from the set.
func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to generate random character")
	}
	return set[n.Int64()], nil
}

// shuffle performs a Fisher-Yates shuffle using crypto/rand.
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return apperrors.Wrap(err, "failed to shuffle password")
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
