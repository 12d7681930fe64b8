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

// Activate redeems an activation token. Invalid or used tokens are reported
// before an already active account; expiry is checked last.
func (s *Service) Activate(ctx context.Context, accountID uint, value string) (*Result, error) {
	var res *Result
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		account, err := tx.LockAccount(ctx, accountID)
		if errors.Is(err, repository.ErrNotFound) {
			res = &Result{Outcome: OutcomeInvalid, Message: msgActivationInvalid}
			return nil
		}
		if err != nil {
			return err
		}

		token, err := s.tokens.Redeem(ctx, tx, models.TokenActivation, value, account.ID)
		switch {
		case errors.Is(err, ErrInvalid):
			res = &Result{Outcome: OutcomeInvalid, Message: msgActivationInvalid}
			return nil
		case account.IsActive && (err == nil || errors.Is(err, ErrExpired)):
			res = &Result{Outcome: OutcomeAlreadyActive, Message: msgAlreadyActive, Account: account}
			return nil
		case errors.Is(err, ErrExpired):
			res = &Result{Outcome: OutcomeExpired, Message: msgActivationExpired}
			return nil
		case err != nil:
			return err
		}

		if err := tx.ActivateAccount(ctx, account.ID); err != nil {
			return err
		}
		if err := s.tokens.MarkUsed(ctx, tx, token); err != nil {
			return err
		}
		account.IsActive = true
		res = &Result{Outcome: OutcomeSuccess, Next: StateAwaitingCredentials, Message: msgActivated, Account: account}
		return nil
	})
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("activation failed", zap.Uint("account_id", accountID), zap.Error(err))
		return nil, fmt.Errorf("activate account: %w", err)
	}
	s.recorder.Attempt("activation", res.Outcome)
	return res, nil
}

// RequestActivation re-sends an activation link at most once per
// ActivationResendInterval. Unknown emails and throttled requests get the
// same generic answer.
func (s *Service) RequestActivation(ctx context.Context, email string) (*Result, error) {
	now := s.now()
	var (
		res       *Result
		note      *notification
		throttled bool
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		found, err := tx.AccountByEmail(ctx, email)
		if errors.Is(err, repository.ErrNotFound) {
			res = &Result{Outcome: OutcomeSuccess, Message: msgActivationGeneric}
			return nil
		}
		if err != nil {
			return err
		}
		account, err := tx.LockAccount(ctx, found.ID)
		if err != nil {
			return err
		}

		if account.IsActive {
			res = &Result{Outcome: OutcomeAlreadyActive, Message: msgAlreadyActive}
			return nil
		}

		latest, err := tx.LatestToken(ctx, account.ID, models.TokenActivation)
		switch {
		case err == nil:
			if since := now.Sub(latest.CreatedAt); since < s.policy.ActivationResendInterval {
				throttled = true
				logger.FromContext(ctx, s.logger).Info("activation resend throttled",
					zap.Uint("account_id", account.ID),
					zap.Duration("retry_in", s.policy.ActivationResendInterval-since))
				res = &Result{Outcome: OutcomeSuccess, Message: msgActivationGeneric}
				return nil
			}
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		token, reused, err := s.tokens.IssueActivation(ctx, tx, account)
		if err != nil {
			return err
		}
		if !reused {
			s.recorder.TokenIssued(string(models.TokenActivation))
		}
		subject, body := activationEmail(s.activationLink(account.ID, token.Value))
		note = &notification{kind: "activation", to: account.Email, subject: subject, body: body}
		res = &Result{Outcome: OutcomeSuccess, Message: msgActivationLinkSent}
		return nil
	})
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("activation request failed", zap.String("email", logger.MaskEmail(email)), zap.Error(err))
		return nil, fmt.Errorf("request activation: %w", err)
	}
	s.deliver(ctx, note)
	if throttled {
		s.recorder.Attempt("activation_request", OutcomeRateLimited)
	} else {
		s.recorder.Attempt("activation_request", res.Outcome)
	}
	return res, nil
}

func (s *Service) activationLink(accountID uint, token string) string {
	return fmt.Sprintf("%s/auth/activate/%d/%s", s.baseURL, accountID, token)
}
