package auth

import (
	"time"

	"github.com/daromanx/qa-tracker/models"
)

type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeMFARequired     Outcome = "mfa_required"
	OutcomeAuthenticated   Outcome = "authenticated"
	OutcomeInvalid         Outcome = "invalid"
	OutcomeLocked          Outcome = "locked"
	OutcomeInactive        Outcome = "inactive"
	OutcomeAlreadyActive   Outcome = "already_active"
	OutcomeRateLimited     Outcome = "rate_limited"
	OutcomeExpired         Outcome = "expired"
	OutcomeNoPendingLogin  Outcome = "no_pending_login"
	OutcomeValidationError Outcome = "validation_error"
	OutcomeConflict        Outcome = "conflict"
)

// State is the position of a login in the two-step flow.
type State string

const (
	StateAwaitingCredentials State = "awaiting_credentials"
	StateAwaitingMFACode     State = "awaiting_mfa_code"
	StateAuthenticated       State = "authenticated"
)

// Result is what every core operation hands back to the web layer. Wait is
// set whenever a lock is active or a rate limit applies.
type Result struct {
	Outcome Outcome
	Next    State
	Message string
	Field   string
	Wait    time.Duration
	Account *models.Account
}

// WaitParts splits Wait into whole minutes and remaining seconds.
func (r *Result) WaitParts() (minutes, seconds int) {
	return SplitWait(r.Wait)
}

// Err maps a non-successful outcome onto the package sentinels, for callers
// that prefer errors.Is over switching on Outcome.
func (r *Result) Err() error {
	switch r.Outcome {
	case OutcomeInvalid:
		return ErrInvalid
	case OutcomeLocked:
		return ErrLocked
	case OutcomeRateLimited:
		return ErrRateLimited
	case OutcomeExpired:
		return ErrExpired
	case OutcomeNoPendingLogin:
		return ErrNotFound
	case OutcomeValidationError, OutcomeConflict:
		return ErrValidation
	default:
		return nil
	}
}
