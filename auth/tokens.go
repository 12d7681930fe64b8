package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/daromanx/qa-tracker/models"
	"github.com/daromanx/qa-tracker/repository"
)

// TokenIssuer creates and redeems single-use activation and reset tokens.
// Methods take the store explicitly so they join the caller's transaction.
type TokenIssuer struct {
	policy   Policy
	now      Clock
	newValue TokenGenerator
}

func NewTokenIssuer(policy Policy, now Clock, gen TokenGenerator) *TokenIssuer {
	if now == nil {
		now = SystemClock
	}
	if gen == nil {
		gen = RandomToken
	}
	return &TokenIssuer{policy: policy, now: now, newValue: gen}
}

func (i *TokenIssuer) create(ctx context.Context, store repository.Store, accountID uint, kind models.TokenKind) (*models.Token, error) {
	value, err := i.newValue()
	if err != nil {
		return nil, err
	}
	now := i.now()
	ttl := i.policy.ActivationTTL
	if kind == models.TokenReset {
		ttl = i.policy.ResetTTL
	}
	token := &models.Token{
		AccountID: accountID,
		Kind:      kind,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := store.CreateToken(ctx, token); err != nil {
		return nil, fmt.Errorf("create %s token: %w", kind, err)
	}
	return token, nil
}

// IssueActivation returns the newest usable activation token for the
// account, creating one only when none qualifies. reused reports which.
func (i *TokenIssuer) IssueActivation(ctx context.Context, store repository.Store, account *models.Account) (token *models.Token, reused bool, err error) {
	existing, err := store.UsableToken(ctx, account.ID, models.TokenActivation, i.now())
	switch {
	case err == nil:
		return existing, true, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, false, err
	}
	token, err = i.create(ctx, store, account.ID, models.TokenActivation)
	return token, false, err
}

// IssueReset enforces the minimum interval since the latest reset token and
// the rolling daily cap before creating a new one.
func (i *TokenIssuer) IssueReset(ctx context.Context, store repository.Store, account *models.Account) (*models.Token, error) {
	now := i.now()

	latest, err := store.LatestToken(ctx, account.ID, models.TokenReset)
	switch {
	case err == nil:
		if now.Sub(latest.CreatedAt) < i.policy.ResetInterval {
			return nil, fmt.Errorf("reset requested %s after the previous one: %w", now.Sub(latest.CreatedAt), ErrRateLimited)
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	count, err := store.CountTokensSince(ctx, account.ID, models.TokenReset, now.Add(-i.policy.ResetWindow))
	if err != nil {
		return nil, err
	}
	if count >= int64(i.policy.ResetDailyLimit) {
		return nil, fmt.Errorf("%d reset tokens in window: %w", count, ErrRateLimited)
	}

	return i.create(ctx, store, account.ID, models.TokenReset)
}

// Redeem looks up an unused token of the given kind for the account. An
// expired token is returned together with ErrExpired.
func (i *TokenIssuer) Redeem(ctx context.Context, store repository.Store, kind models.TokenKind, value string, accountID uint) (*models.Token, error) {
	if value == "" {
		return nil, ErrInvalid
	}
	token, err := store.UnusedToken(ctx, accountID, kind, value)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalid
	}
	if err != nil {
		return nil, err
	}
	if token.Expired(i.now()) {
		return token, ErrExpired
	}
	return token, nil
}

// MarkUsed is idempotent.
func (i *TokenIssuer) MarkUsed(ctx context.Context, store repository.Store, token *models.Token) error {
	if err := store.MarkTokenUsed(ctx, token.ID); err != nil {
		return fmt.Errorf("mark token used: %w", err)
	}
	token.Used = true
	return nil
}
