package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const pendingTokenType = "mfa_pending"

var ErrNoPendingLogin = errors.New("no pending login")

type pendingClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// PendingMarker signs the account id that passed the credential step. It
// lives in a cookie until the code is verified or the challenge expires.
type PendingMarker struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewPendingMarker(secret string, ttl time.Duration) *PendingMarker {
	return &PendingMarker{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (p *PendingMarker) TTL() time.Duration {
	return p.ttl
}

func (p *PendingMarker) Issue(accountID uint) (string, error) {
	now := p.now()
	claims := pendingClaims{
		TokenType: pendingTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(accountID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// Parse returns the pending account id, or ErrNoPendingLogin for a missing,
// tampered or expired marker.
func (p *PendingMarker) Parse(token string) (uint, error) {
	if token == "" {
		return 0, ErrNoPendingLogin
	}
	var claims pendingClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now))
	if err != nil || !parsed.Valid {
		return 0, fmt.Errorf("%w: %v", ErrNoPendingLogin, err)
	}
	if claims.TokenType != pendingTokenType {
		return 0, ErrNoPendingLogin
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrNoPendingLogin
	}
	return uint(id), nil
}
