package auth

import (
	"time"

	"github.com/daromanx/qa-tracker/models"
)

const mfaLockLevel = 1

// Policy carries every threshold and window used by the login flow and the
// token issuer.
type Policy struct {
	MaxPasswordAttempts int
	PasswordLockout     time.Duration
	MaxMFAAttempts      int
	MFALockout          time.Duration

	ChallengeTTL             time.Duration
	ActivationTTL            time.Duration
	ActivationResendInterval time.Duration
	ResetTTL                 time.Duration
	ResetInterval            time.Duration
	ResetDailyLimit          int
	ResetWindow              time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxPasswordAttempts: 5,
		PasswordLockout:     30 * time.Minute,
		MaxMFAAttempts:      5,
		MFALockout:          10 * time.Minute,

		ChallengeTTL:             60 * time.Minute,
		ActivationTTL:            12 * time.Hour,
		ActivationResendInterval: 24 * time.Hour,
		ResetTTL:                 12 * time.Hour,
		ResetInterval:            5 * time.Hour,
		ResetDailyLimit:          3,
		ResetWindow:              24 * time.Hour,
	}
}

func (p Policy) IsPasswordLocked(a *models.Account, now time.Time) bool {
	return a.PasswordLock().Locked(now)
}

func (p Policy) IsMFALocked(a *models.Account, now time.Time) bool {
	return a.MFALock().Locked(now)
}

type PasswordFailure struct {
	Attempts int
	// LockedUntil is nil when this failure does not reach the threshold.
	// The stored lock is left as is in that case.
	LockedUntil *time.Time
}

// OnPasswordFailure computes the counters after one more failed password.
// Callers check IsPasswordLocked first; this never clears a lock.
func (p Policy) OnPasswordFailure(a *models.Account, now time.Time) PasswordFailure {
	f := PasswordFailure{Attempts: a.FailedPasswordAttempts + 1}
	if f.Attempts >= p.MaxPasswordAttempts {
		until := now.Add(p.PasswordLockout)
		f.LockedUntil = &until
	}
	return f
}

func (p Policy) OnPasswordSuccess(a *models.Account) {
	a.FailedPasswordAttempts = 0
	a.PasswordLockedUntil = nil
}

type MFAFailure struct {
	Attempts int
	// Level is nil when the lock level is left untouched.
	Level *int
	// LockedUntil is written as is. Nil clears an existing MFA lock.
	LockedUntil *time.Time
}

// OnMFAFailure computes the counters after one more wrong code. Below the
// threshold the MFA lock is cleared, which can drop a lock written by a
// concurrent request that crossed the threshold first.
func (p Policy) OnMFAFailure(a *models.Account, now time.Time) MFAFailure {
	f := MFAFailure{Attempts: a.FailedMFAAttempts + 1}
	if f.Attempts >= p.MaxMFAAttempts {
		level := mfaLockLevel
		until := now.Add(p.MFALockout)
		f.Level = &level
		f.LockedUntil = &until
	}
	return f
}

// OnMFASuccess clears both failure tracks.
func (p Policy) OnMFASuccess(a *models.Account) {
	p.OnPasswordSuccess(a)
	a.FailedMFAAttempts = 0
	a.MFALockLevel = 0
	a.MFALockedUntil = nil
}

// SplitWait floors d to whole seconds and splits it into minutes and
// seconds. Negative durations report zero.
func SplitWait(d time.Duration) (minutes, seconds int) {
	if d <= 0 {
		return 0, 0
	}
	total := int(d / time.Second)
	return total / 60, total % 60
}
