package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// Clock returns the current instant. Implementations must return UTC.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

// CodeGenerator produces one-time MFA codes.
type CodeGenerator func() (string, error)

var codeSpace = big.NewInt(1_000_000)

// RandomCode draws a uniformly distributed 6-digit code, zero padded.
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// TokenGenerator produces opaque activation and reset token values.
type TokenGenerator func() (string, error)

// RandomToken returns 64 hex characters backed by 32 random bytes.
func RandomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
