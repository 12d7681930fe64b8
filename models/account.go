package models

import (
	"time"
)

type Account struct {
	ID           uint   `gorm:"primarykey"`
	Email        string `gorm:"uniqueIndex;size:254;not null"`
	Nick         string `gorm:"uniqueIndex;size:50;not null"`
	Slug         string `gorm:"uniqueIndex;size:60;not null"`
	PasswordHash string `gorm:"not null"`
	IsActive     bool   `gorm:"default:false"`
	IsStaff      bool   `gorm:"default:false"`
	IsSuperuser  bool   `gorm:"default:false"`
	Language     string `gorm:"size:10;default:es"`
	TimeZone     string `gorm:"size:50;default:UTC"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	LastLogin    *time.Time

	FailedPasswordAttempts int `gorm:"not null;default:0"`
	LastPasswordAttemptAt  *time.Time
	PasswordLockedUntil    *time.Time
	FailedMFAAttempts      int        `gorm:"column:failed_mfa_attempts;not null;default:0"`
	MFALockLevel           int        `gorm:"column:mfa_lock_level;not null;default:0"`
	MFALockedUntil         *time.Time `gorm:"column:mfa_locked_until"`

	Roles []Role `gorm:"many2many:account_roles;constraint:OnDelete:CASCADE"`
}

// PasswordLock is the lock track fed by failed credential submissions.
func (a *Account) PasswordLock() LockTrack {
	return LockTrack{Until: a.PasswordLockedUntil}
}

// MFALock is the lock track fed by failed one-time code submissions.
func (a *Account) MFALock() LockTrack {
	return LockTrack{Until: a.MFALockedUntil}
}

func (a *Account) HasRole(name string) bool {
	for _, r := range a.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

type Role struct {
	ID          uint   `gorm:"primarykey"`
	Name        string `gorm:"uniqueIndex;size:50;not null"`
	Description string `gorm:"size:255"`
}

type AllowedDomain struct {
	ID     uint   `gorm:"primarykey"`
	Name   string `gorm:"uniqueIndex;size:253;not null"`
	Active bool   `gorm:"default:true"`
}
