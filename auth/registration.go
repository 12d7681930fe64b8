package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/daromanx/qa-tracker/logger"
	"github.com/daromanx/qa-tracker/models"
	"github.com/daromanx/qa-tracker/repository"
	"github.com/daromanx/qa-tracker/utils"
	"go.uber.org/zap"
)

// DefaultRole is assigned to every self-registered account.
const DefaultRole = "User"

type RegisterInput struct {
	Email    string
	Nick     string
	Password string
}

// Register creates an inactive account and mails its activation link.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	now := s.now()
	email := strings.ToLower(strings.TrimSpace(in.Email))
	nick := strings.TrimSpace(in.Nick)
	log := logger.FromContext(ctx, s.logger)

	if utils.Slugify(nick) == "" {
		return validationResult(&FieldError{Field: "nick", Message: msgNickRequired}), nil
	}
	if verr := s.validatePassword(in.Password, nick, email); verr != nil {
		return validationResult(verr), nil
	}

	var (
		res  *Result
		note *notification
	)
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if s.restrictDomains {
			ok, err := tx.DomainAllowed(ctx, domainOf(email))
			if err != nil {
				return err
			}
			if !ok {
				res = &Result{Outcome: OutcomeValidationError, Field: "email", Message: msgDomainNotAllowed}
				return nil
			}
		}

		taken, err := tx.EmailTaken(ctx, email)
		if err != nil {
			return err
		}
		if taken {
			res = &Result{Outcome: OutcomeConflict, Field: "email", Message: msgEmailTaken}
			return nil
		}
		if taken, err = tx.NickTaken(ctx, nick); err != nil {
			return err
		}
		if taken {
			res = &Result{Outcome: OutcomeConflict, Field: "nick", Message: msgNickTaken}
			return nil
		}

		slug, err := uniqueSlug(ctx, tx, nick)
		if err != nil {
			return err
		}
		hash, err := s.hashPassword(in.Password)
		if err != nil {
			return err
		}

		account := &models.Account{
			Email:        email,
			Nick:         nick,
			Slug:         slug,
			PasswordHash: hash,
			IsActive:     false,
			CreatedAt:    now,
		}
		if err := tx.CreateAccount(ctx, account); err != nil {
			return err
		}

		role, err := tx.RoleByName(ctx, DefaultRole)
		switch {
		case err == nil:
			if err := tx.AssignRole(ctx, account, role); err != nil {
				return err
			}
		case errors.Is(err, repository.ErrNotFound):
			log.Warn("default role missing, account created without roles", zap.String("role", DefaultRole))
		default:
			return err
		}

		token, _, err := s.tokens.IssueActivation(ctx, tx, account)
		if err != nil {
			return err
		}
		s.recorder.TokenIssued(string(models.TokenActivation))

		subject, body := welcomeEmail(account.Nick, s.activationLink(account.ID, token.Value), s.policy.ActivationTTL)
		note = &notification{kind: "activation", to: account.Email, subject: subject, body: body}
		res = &Result{Outcome: OutcomeSuccess, Next: StateAwaitingCredentials, Message: msgRegistered, Account: account}
		return nil
	})
	if err != nil {
		log.Error("registration failed", zap.String("email", logger.MaskEmail(email)), zap.Error(err))
		return nil, fmt.Errorf("register account: %w", err)
	}
	s.deliver(ctx, note)
	s.recorder.Attempt("registration", res.Outcome)
	return res, nil
}

func uniqueSlug(ctx context.Context, tx repository.Store, nick string) (string, error) {
	return utils.UniqueSlug(nick, func(slug string) (bool, error) {
		return tx.SlugTaken(ctx, slug)
	})
}

func domainOf(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return ""
	}
	return email[at+1:]
}
