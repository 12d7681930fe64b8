// Package session establishes authenticated sessions after a completed
// login and carries the pending-login marker between the two login steps.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daromanx/qa-tracker/database"
	"github.com/daromanx/qa-tracker/models"
	"github.com/daromanx/qa-tracker/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidSession = errors.New("invalid or expired session")

// Manager keeps sessions in two places: a user_sessions row for listing and
// audit, and a Redis key for fast validation.
type Manager struct {
	db     *gorm.DB
	redis  *database.RedisClient
	ttl    time.Duration
	now    func() time.Time
	locate func(ctx context.Context, ip string) string
}

func NewManager(db *gorm.DB, redis *database.RedisClient, ttl time.Duration) *Manager {
	return &Manager{
		db:     db,
		redis:  redis,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
		locate: utils.GetIPLocation,
	}
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

type Client struct {
	IP        string
	UserAgent string
}

// Establish creates a session for an account that completed both login
// steps. The row is rolled back if Redis cannot store the token.
func (m *Manager) Establish(ctx context.Context, accountID uint, client Client) (*models.UserSession, error) {
	now := m.now()
	session := &models.UserSession{
		AccountID:    accountID,
		SessionToken: uuid.NewString(),
		DeviceInfo:   client.UserAgent,
		IPAddress:    client.IP,
		UserAgent:    client.UserAgent,
		Location:     m.locate(ctx, client.IP),
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(m.ttl),
		IsActive:     true,
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Account").Create(session).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		if err := m.redis.SetSession(ctx, session.SessionToken, accountID, m.ttl); err != nil {
			return fmt.Errorf("cache session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Validate checks Redis first, then the row, and bumps last_activity.
func (m *Manager) Validate(ctx context.Context, token string) (*models.UserSession, error) {
	accountID, err := m.redis.GetSession(ctx, token)
	if errors.Is(err, database.ErrSessionNotFound) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}

	now := m.now()
	var session models.UserSession
	err = m.db.WithContext(ctx).
		Where("session_token = ? AND account_id = ? AND is_active = ? AND expires_at > ?", token, accountID, true, now).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_ = m.redis.DeleteSession(ctx, token)
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}

	if err := m.db.WithContext(ctx).Model(&session).Update("last_activity", now).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// End deactivates the session row and drops the Redis key.
func (m *Manager) End(ctx context.Context, token string) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.UserSession{}).
			Where("session_token = ? AND is_active = ?", token, true).
			Updates(map[string]interface{}{
				"is_active":  false,
				"expires_at": m.now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInvalidSession
		}
		return m.redis.DeleteSession(ctx, token)
	})
}

func (m *Manager) Active(ctx context.Context, accountID uint) ([]models.UserSession, error) {
	var sessions []models.UserSession
	err := m.db.WithContext(ctx).
		Where("account_id = ? AND is_active = ? AND expires_at > ?", accountID, true, m.now()).
		Order("last_activity DESC").
		Find(&sessions).Error
	return sessions, err
}
