package auth

import (
	"testing"
	"time"

	"github.com/daromanx/qa-tracker/models"
)

func TestOnPasswordFailureThreshold(t *testing.T) {
	p := DefaultPolicy()
	a := &models.Account{FailedPasswordAttempts: 3}

	f := p.OnPasswordFailure(a, t0)
	if f.Attempts != 4 || f.LockedUntil != nil {
		t.Fatalf("4th failure = %+v, want 4 attempts and no lock", f)
	}

	a.FailedPasswordAttempts = 4
	f = p.OnPasswordFailure(a, t0)
	if f.Attempts != 5 || f.LockedUntil == nil || !f.LockedUntil.Equal(t0.Add(30*time.Minute)) {
		t.Fatalf("5th failure = %+v, want lock until t0+30m", f)
	}
}

func TestOnPasswordFailureDoesNotClearLock(t *testing.T) {
	p := DefaultPolicy()
	until := t0.Add(5 * time.Minute)
	a := &models.Account{FailedPasswordAttempts: 1, PasswordLockedUntil: &until}

	if f := p.OnPasswordFailure(a, t0); f.LockedUntil != nil {
		t.Fatalf("below threshold should not produce a lock, got %v", f.LockedUntil)
	}
}

func TestOnMFAFailure(t *testing.T) {
	p := DefaultPolicy()

	f := p.OnMFAFailure(&models.Account{FailedMFAAttempts: 2}, t0)
	if f.Attempts != 3 || f.Level != nil || f.LockedUntil != nil {
		t.Fatalf("below threshold = %+v", f)
	}

	f = p.OnMFAFailure(&models.Account{FailedMFAAttempts: 4}, t0)
	if f.Attempts != 5 || f.Level == nil || *f.Level != 1 {
		t.Fatalf("at threshold = %+v, want level 1", f)
	}
	if !f.LockedUntil.Equal(t0.Add(10 * time.Minute)) {
		t.Fatalf("lock until = %v, want t0+10m", f.LockedUntil)
	}
}

func TestOnMFASuccessClearsBothTracks(t *testing.T) {
	p := DefaultPolicy()
	future := t0.Add(time.Hour)
	a := &models.Account{
		FailedPasswordAttempts: 7,
		PasswordLockedUntil:    &future,
		FailedMFAAttempts:      9,
		MFALockLevel:           1,
		MFALockedUntil:         &future,
	}
	p.OnMFASuccess(a)

	if a.FailedPasswordAttempts != 0 || a.PasswordLockedUntil != nil ||
		a.FailedMFAAttempts != 0 || a.MFALockLevel != 0 || a.MFALockedUntil != nil {
		t.Fatalf("counters not cleared: %+v", a)
	}
}

func TestLockedIsStrictlyInTheFuture(t *testing.T) {
	p := DefaultPolicy()
	at := t0
	a := &models.Account{PasswordLockedUntil: &at, MFALockedUntil: &at}

	if p.IsPasswordLocked(a, t0) || p.IsMFALocked(a, t0) {
		t.Fatal("a lock ending exactly now must not block")
	}
	if !p.IsPasswordLocked(a, t0.Add(-time.Second)) || !p.IsMFALocked(a, t0.Add(-time.Second)) {
		t.Fatal("a lock ending later must block")
	}
	if p.IsPasswordLocked(&models.Account{}, t0) {
		t.Fatal("nil lock must not block")
	}
}

func TestSplitWait(t *testing.T) {
	tests := []struct {
		in         time.Duration
		mins, secs int
	}{
		{30 * time.Minute, 30, 0},
		{1799*time.Second + 900*time.Millisecond, 29, 59},
		{59 * time.Second, 0, 59},
		{0, 0, 0},
		{-5 * time.Second, 0, 0},
	}
	for _, tt := range tests {
		m, s := SplitWait(tt.in)
		if m != tt.mins || s != tt.secs {
			t.Errorf("SplitWait(%v) = %d, %d; want %d, %d", tt.in, m, s, tt.mins, tt.secs)
		}
	}
}

func TestExpirableAndLockable(t *testing.T) {
	var e models.Expirable = &models.Token{ExpiresAt: t0}
	if !e.Expired(t0) || e.Expired(t0.Add(-time.Nanosecond)) {
		t.Fatal("token expiry must be evaluated as now >= expires_at")
	}
	e = &models.MFAChallenge{ExpiresAt: t0.Add(time.Minute)}
	if e.Expired(t0) {
		t.Fatal("challenge should still be valid")
	}

	until := t0.Add(90 * time.Second)
	var l models.Lockable = models.LockTrack{Until: &until}
	if got := l.Remaining(t0); got != 90*time.Second {
		t.Fatalf("Remaining = %v", got)
	}
	if got := l.Remaining(t0.Add(time.Hour)); got != 0 {
		t.Fatalf("Remaining after expiry = %v, want 0", got)
	}
}
