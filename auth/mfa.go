package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/daromanx/qa-tracker/models"
	"github.com/daromanx/qa-tracker/repository"
)

// ChallengeManager issues and verifies one-time login codes. Every Issue
// call adds a new challenge; earlier ones stay valid until used or expired.
type ChallengeManager struct {
	policy  Policy
	now     Clock
	newCode CodeGenerator
}

func NewChallengeManager(policy Policy, now Clock, gen CodeGenerator) *ChallengeManager {
	if now == nil {
		now = SystemClock
	}
	if gen == nil {
		gen = RandomCode
	}
	return &ChallengeManager{policy: policy, now: now, newCode: gen}
}

func (m *ChallengeManager) Issue(ctx context.Context, store repository.Store, account *models.Account, ip, userAgent string) (*models.MFAChallenge, error) {
	code, err := m.newCode()
	if err != nil {
		return nil, err
	}
	now := m.now()
	challenge := &models.MFAChallenge{
		AccountID: account.ID,
		Code:      code,
		ExpiresAt: now.Add(m.policy.ChallengeTTL),
		IPAddress: ip,
		UserAgent: userAgent,
		CreatedAt: now,
	}
	if err := store.CreateChallenge(ctx, challenge); err != nil {
		return nil, fmt.Errorf("create challenge: %w", err)
	}
	return challenge, nil
}

// Verify returns ErrNotFound for a wrong, expired or already used code.
func (m *ChallengeManager) Verify(ctx context.Context, store repository.Store, accountID uint, code string) (*models.MFAChallenge, error) {
	challenge, err := store.UsableChallenge(ctx, accountID, code, m.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

func (m *ChallengeManager) MarkUsed(ctx context.Context, store repository.Store, challenge *models.MFAChallenge) error {
	if challenge.Used {
		return ErrAlreadyUsed
	}
	if err := store.MarkChallengeUsed(ctx, challenge.ID); err != nil {
		return fmt.Errorf("mark challenge used: %w", err)
	}
	challenge.Used = true
	return nil
}
