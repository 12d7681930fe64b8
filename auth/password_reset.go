package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/daromanx/qa-tracker/logger"
	"github.com/daromanx/qa-tracker/models"
	"github.com/daromanx/qa-tracker/repository"
	"go.uber.org/zap"
)

// RequestPasswordReset always answers with the same generic success result.
// Unknown accounts and rate limited requests are only visible in logs.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (*Result, error) {
	log := logger.FromContext(ctx, s.logger)
	var note *notification
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		found, err := tx.AccountByEmail(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		account, err := tx.LockAccount(ctx, found.ID)
		if err != nil {
			return err
		}

		token, err := s.tokens.IssueReset(ctx, tx, account)
		if errors.Is(err, ErrRateLimited) {
			log.Info("password reset suppressed", zap.Uint("account_id", account.ID), zap.Error(err))
			s.recorder.Attempt("reset_request", OutcomeRateLimited)
			return nil
		}
		if err != nil {
			return err
		}
		s.recorder.TokenIssued(string(models.TokenReset))
		subject, body := resetEmail(account.Nick, s.resetLink(account.ID, token.Value), s.policy.ResetTTL)
		note = &notification{kind: "reset", to: account.Email, subject: subject, body: body}
		return nil
	})
	if err != nil {
		log.Error("password reset request failed", zap.String("email", logger.MaskEmail(email)), zap.Error(err))
		return nil, fmt.Errorf("request password reset: %w", err)
	}
	s.deliver(ctx, note)
	return &Result{Outcome: OutcomeSuccess, Next: StateAwaitingCredentials, Message: msgResetGeneric}, nil
}

// CheckResetToken reports whether a reset link can still be used, without
// consuming it.
func (s *Service) CheckResetToken(ctx context.Context, accountID uint, value string) (*Result, error) {
	_, err := s.tokens.Redeem(ctx, s.store, models.TokenReset, value, accountID)
	switch {
	case err == nil:
		return &Result{Outcome: OutcomeSuccess, Message: msgResetValid}, nil
	case errors.Is(err, ErrInvalid):
		return &Result{Outcome: OutcomeInvalid, Message: msgResetInvalid}, nil
	case errors.Is(err, ErrExpired):
		return &Result{Outcome: OutcomeExpired, Message: msgResetExpired}, nil
	default:
		return nil, fmt.Errorf("check reset token: %w", err)
	}
}

type ResetInput struct {
	AccountID   uint
	Token       string
	NewPassword string
}

// CompletePasswordReset stores the new password and consumes the token.
// Lock state is left as is.
func (s *Service) CompletePasswordReset(ctx context.Context, in ResetInput) (*Result, error) {
	var res *Result
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		account, err := tx.LockAccount(ctx, in.AccountID)
		if errors.Is(err, repository.ErrNotFound) {
			res = &Result{Outcome: OutcomeInvalid, Message: msgResetInvalid}
			return nil
		}
		if err != nil {
			return err
		}

		token, err := s.tokens.Redeem(ctx, tx, models.TokenReset, in.Token, account.ID)
		switch {
		case errors.Is(err, ErrInvalid):
			res = &Result{Outcome: OutcomeInvalid, Message: msgResetInvalid}
			return nil
		case errors.Is(err, ErrExpired):
			res = &Result{Outcome: OutcomeExpired, Message: msgResetExpired}
			return nil
		case err != nil:
			return err
		}

		if verr := s.validatePassword(in.NewPassword, account.Nick, account.Email); verr != nil {
			res = validationResult(verr)
			return nil
		}
		hash, err := s.hashPassword(in.NewPassword)
		if err != nil {
			return err
		}
		if err := tx.SetPasswordHash(ctx, account.ID, hash); err != nil {
			return err
		}
		if err := s.tokens.MarkUsed(ctx, tx, token); err != nil {
			return err
		}
		res = &Result{Outcome: OutcomeSuccess, Next: StateAwaitingCredentials, Message: msgPasswordReset}
		return nil
	})
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("password reset failed", zap.Uint("account_id", in.AccountID), zap.Error(err))
		return nil, fmt.Errorf("complete password reset: %w", err)
	}
	s.recorder.Attempt("reset", res.Outcome)
	return res, nil
}

func (s *Service) resetLink(accountID uint, token string) string {
	return fmt.Sprintf("%s/auth/password/reset/%d/%s", s.baseURL, accountID, token)
}

func (s *Service) validatePassword(password string, userInputs ...string) error {
	if password == "" {
		return &FieldError{Field: "password", Message: "password is required"}
	}
	if len(password) > MaxPasswordBytes {
		return &FieldError{Field: "password", Message: fmt.Sprintf("password must be at most %d bytes long", MaxPasswordBytes)}
	}
	if s.checkPass == nil {
		return nil
	}
	if err := s.checkPass(password, userInputs...); err != nil {
		return &FieldError{Field: "password", Message: err.Error()}
	}
	return nil
}

func validationResult(err error) *Result {
	res := &Result{Outcome: OutcomeValidationError, Message: err.Error()}
	var fe *FieldError
	if errors.As(err, &fe) {
		res.Field = fe.Field
		res.Message = fe.Message
	}
	return res
}
