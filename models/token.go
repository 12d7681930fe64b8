package models

import (
	"time"
)

type TokenKind string

const (
	TokenActivation TokenKind = "activation"
	TokenReset      TokenKind = "reset"
)

type Token struct {
	ID        uint      `gorm:"primarykey"`
	AccountID uint      `gorm:"index;not null"`
	Kind      TokenKind `gorm:"size:20;index;not null"`
	Value     string    `gorm:"uniqueIndex;size:64;not null"`
	CreatedAt time.Time `gorm:"index"`
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"default:false"`
	Account   Account   `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
}

func (Token) TableName() string {
	return "account_tokens"
}

// Expired reports whether the token can no longer be redeemed at now.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Usable holds iff the token is unused and not yet expired.
func (t *Token) Usable(now time.Time) bool {
	return !t.Used && !t.Expired(now)
}

type MFAChallenge struct {
	ID        uint      `gorm:"primarykey"`
	AccountID uint      `gorm:"index;not null"`
	Code      string    `gorm:"size:6;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	IPAddress string    `gorm:"size:45"`
	UserAgent string
	Used      bool      `gorm:"default:false"`
	CreatedAt time.Time
	Account   Account `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
}

func (MFAChallenge) TableName() string {
	return "mfa_challenges"
}

func (c *MFAChallenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
