package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/daromanx/qa-tracker/logger"
	"github.com/daromanx/qa-tracker/models"
	"github.com/daromanx/qa-tracker/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	stageCredentials = "credentials"
	stageMFA         = "mfa"
)

type LoginInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

// SubmitCredentials is the first login step. On success a new MFA challenge
// is stored and mailed, and the caller must remember Result.Account.ID as
// the pending login.
func (s *Service) SubmitCredentials(ctx context.Context, in LoginInput) (*Result, error) {
	now := s.now()
	log := logger.FromContext(ctx, s.logger)

	var (
		res  *Result
		note *notification
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		found, err := tx.AccountByEmail(ctx, in.Email)
		if errors.Is(err, repository.ErrNotFound) {
			burnPasswordCheck(in.Password)
			res = &Result{Outcome: OutcomeInvalid, Next: StateAwaitingCredentials, Message: msgInvalidCredentials}
			return nil
		}
		if err != nil {
			return err
		}

		account, err := tx.LockAccount(ctx, found.ID)
		if err != nil {
			return err
		}

		if s.policy.IsPasswordLocked(account, now) {
			wait := account.PasswordLock().Remaining(now)
			res = &Result{
				Outcome: OutcomeLocked,
				Next:    StateAwaitingCredentials,
				Message: passwordLockedMessage(wait),
				Wait:    wait,
			}
			return nil
		}

		if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(in.Password)) != nil {
			failure := s.policy.OnPasswordFailure(account, now)
			if err := tx.RecordPasswordFailure(ctx, account.ID, now, failure.LockedUntil); err != nil {
				return err
			}
			if failure.LockedUntil == nil {
				res = &Result{Outcome: OutcomeInvalid, Next: StateAwaitingCredentials, Message: msgInvalidCredentials}
				return nil
			}

			// Report the lock as stored, not as computed.
			fresh, err := tx.LockAccount(ctx, account.ID)
			if err != nil {
				return err
			}
			wait := fresh.PasswordLock().Remaining(now)
			s.recorder.Lockout("password")
			log.Warn("password lock applied",
				zap.Uint("account_id", account.ID),
				zap.Int("attempts", fresh.FailedPasswordAttempts),
				zap.Duration("lock", wait),
			)
			res = &Result{
				Outcome: OutcomeLocked,
				Next:    StateAwaitingCredentials,
				Message: passwordLockedNowMessage(wait),
				Wait:    wait,
			}
			return nil
		}

		if !account.IsActive {
			res = &Result{Outcome: OutcomeInactive, Next: StateAwaitingCredentials, Message: msgInactive, Account: account}
			return nil
		}

		challenge, err := s.challenges.Issue(ctx, tx, account, in.IP, in.UserAgent)
		if err != nil {
			return err
		}
		subject, body := codeEmail(challenge.Code, s.policy.ChallengeTTL)
		note = &notification{kind: "mfa_code", to: account.Email, subject: subject, body: body}
		res = &Result{Outcome: OutcomeMFARequired, Next: StateAwaitingMFACode, Message: msgCodeSent, Account: account}
		return nil
	})
	if err != nil {
		log.Error("credential step failed", zap.String("email", logger.MaskEmail(in.Email)), zap.Error(err))
		return nil, fmt.Errorf("submit credentials: %w", err)
	}

	s.deliver(ctx, note)
	s.recorder.Attempt(stageCredentials, res.Outcome)
	return res, nil
}

type MFAInput struct {
	// AccountID is the pending login recorded after SubmitCredentials.
	// Zero means there is none.
	AccountID uint
	Code      string
}

// SubmitMFACode is the second login step. An authenticated result carries
// the account with all security counters cleared.
func (s *Service) SubmitMFACode(ctx context.Context, in MFAInput) (*Result, error) {
	now := s.now()
	log := logger.FromContext(ctx, s.logger)

	if in.AccountID == 0 {
		res := &Result{Outcome: OutcomeNoPendingLogin, Next: StateAwaitingCredentials, Message: msgNoPendingLogin}
		s.recorder.Attempt(stageMFA, res.Outcome)
		return res, nil
	}

	var res *Result
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		account, err := tx.LockAccount(ctx, in.AccountID)
		if errors.Is(err, repository.ErrNotFound) {
			res = &Result{Outcome: OutcomeNoPendingLogin, Next: StateAwaitingCredentials, Message: msgNoPendingLogin}
			return nil
		}
		if err != nil {
			return err
		}

		if s.policy.IsMFALocked(account, now) {
			wait := account.MFALock().Remaining(now)
			res = &Result{
				Outcome: OutcomeLocked,
				Next:    StateAwaitingCredentials,
				Message: mfaLockedMessage(wait),
				Wait:    wait,
			}
			return nil
		}

		challenge, err := s.challenges.Verify(ctx, tx, account.ID, in.Code)
		if err == nil {
			res, err = s.completeLogin(ctx, tx, account, challenge)
			return err
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		failure := s.policy.OnMFAFailure(account, now)
		if err := tx.RecordMFAFailure(ctx, account.ID, failure.Level, failure.LockedUntil); err != nil {
			return err
		}
		if failure.LockedUntil == nil {
			res = &Result{Outcome: OutcomeInvalid, Next: StateAwaitingMFACode, Message: msgInvalidCode}
			return nil
		}

		fresh, err := tx.LockAccount(ctx, account.ID)
		if err != nil {
			return err
		}
		wait := fresh.MFALock().Remaining(now)
		s.recorder.Lockout("mfa")
		log.Warn("mfa lock applied",
			zap.Uint("account_id", account.ID),
			zap.Int("attempts", fresh.FailedMFAAttempts),
			zap.Int("level", fresh.MFALockLevel),
			zap.Duration("lock", wait),
		)
		res = &Result{
			Outcome: OutcomeLocked,
			Next:    StateAwaitingCredentials,
			Message: mfaLockedMessage(wait),
			Wait:    wait,
		}
		return nil
	})
	if err != nil {
		log.Error("mfa step failed", zap.Uint("account_id", in.AccountID), zap.Error(err))
		return nil, fmt.Errorf("submit mfa code: %w", err)
	}

	s.recorder.Attempt(stageMFA, res.Outcome)
	return res, nil
}

func (s *Service) completeLogin(ctx context.Context, tx repository.Store, account *models.Account, challenge *models.MFAChallenge) (*Result, error) {
	now := s.now()
	if err := s.challenges.MarkUsed(ctx, tx, challenge); err != nil {
		return nil, err
	}
	if err := tx.ResetSecurityCounters(ctx, account.ID); err != nil {
		return nil, err
	}
	if err := tx.TouchLastLogin(ctx, account.ID, now); err != nil {
		return nil, err
	}
	s.policy.OnMFASuccess(account)
	account.LastLogin = &now
	return &Result{Outcome: OutcomeAuthenticated, Next: StateAuthenticated, Message: msgAuthenticated, Account: account}, nil
}
