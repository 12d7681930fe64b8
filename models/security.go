package models

import "time"

// Expirable is implemented by records that stop being usable at a fixed instant.
type Expirable interface {
	Expired(now time.Time) bool
}

// Lockable is implemented by each lock track on an account.
type Lockable interface {
	Locked(now time.Time) bool
	Remaining(now time.Time) time.Duration
}

// LockTrack wraps one "locked until" column. A nil Until means unlocked.
type LockTrack struct {
	Until *time.Time
}

func (l LockTrack) Locked(now time.Time) bool {
	return l.Until != nil && l.Until.After(now)
}

// Remaining never goes below zero.
func (l LockTrack) Remaining(now time.Time) time.Duration {
	if !l.Locked(now) {
		return 0
	}
	return l.Until.Sub(now)
}

var (
	_ Lockable  = LockTrack{}
	_ Expirable = (*Token)(nil)
	_ Expirable = (*MFAChallenge)(nil)
)
