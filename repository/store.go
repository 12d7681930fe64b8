// Package repository persists accounts, tokens and MFA challenges.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/daromanx/qa-tracker/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Store is the account store consumed by the auth core. Every method that
// mutates security counters is only meaningful inside Transaction after the
// account row has been locked with LockAccount.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Store) error) error

	CreateAccount(ctx context.Context, account *models.Account) error
	AccountByID(ctx context.Context, id uint) (*models.Account, error)
	AccountByEmail(ctx context.Context, email string) (*models.Account, error)
	AccountBySlug(ctx context.Context, slug string) (*models.Account, error)
	LockAccount(ctx context.Context, id uint) (*models.Account, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	NickTaken(ctx context.Context, nick string) (bool, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)
	ActivateAccount(ctx context.Context, id uint) error
	SetPasswordHash(ctx context.Context, id uint, hash string) error
	TouchLastLogin(ctx context.Context, id uint, at time.Time) error
	LockedAccounts(ctx context.Context, now time.Time) ([]models.Account, error)

	RecordPasswordFailure(ctx context.Context, id uint, at time.Time, lockUntil *time.Time) error
	RecordMFAFailure(ctx context.Context, id uint, level *int, lockUntil *time.Time) error
	ResetSecurityCounters(ctx context.Context, id uint) error

	CreateToken(ctx context.Context, token *models.Token) error
	LatestToken(ctx context.Context, accountID uint, kind models.TokenKind) (*models.Token, error)
	UsableToken(ctx context.Context, accountID uint, kind models.TokenKind, now time.Time) (*models.Token, error)
	UnusedToken(ctx context.Context, accountID uint, kind models.TokenKind, value string) (*models.Token, error)
	CountTokensSince(ctx context.Context, accountID uint, kind models.TokenKind, since time.Time) (int64, error)
	MarkTokenUsed(ctx context.Context, id uint) error

	CreateChallenge(ctx context.Context, challenge *models.MFAChallenge) error
	UsableChallenge(ctx context.Context, accountID uint, code string, now time.Time) (*models.MFAChallenge, error)
	MarkChallengeUsed(ctx context.Context, id uint) error

	RoleByName(ctx context.Context, name string) (*models.Role, error)
	AssignRole(ctx context.Context, account *models.Account, role *models.Role) error
	DomainAllowed(ctx context.Context, domain string) (bool, error)
}
