package models

import (
	"time"
)

type UserSession struct {
	ID           uint   `gorm:"primarykey"`
	AccountID    uint   `gorm:"index;not null"`
	SessionToken string `gorm:"unique;not null"`
	DeviceInfo   string
	IPAddress    string
	UserAgent    string
	Location     string
	CreatedAt    time.Time
	LastActivity time.Time
	ExpiresAt    time.Time
	IsActive     bool    `gorm:"default:true"`
	Account      Account `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
}
