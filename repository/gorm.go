package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/daromanx/qa-tracker/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle for callers outside the auth core
// (sessions, listings).
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) CreateAccount(ctx context.Context, account *models.Account) error {
	return s.db.WithContext(ctx).Omit("Roles").Create(account).Error
}

func (s *GormStore) AccountByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Preload("Roles").First(&account, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

func (s *GormStore) AccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&account).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

func (s *GormStore) AccountBySlug(ctx context.Context, slug string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&account).Error; err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

// LockAccount reads the account with SELECT ... FOR UPDATE. Drivers without
// row locks (sqlite) ignore the clause and rely on their writer lock.
func (s *GormStore) LockAccount(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	q := s.db.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&account, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

func (s *GormStore) exists(ctx context.Context, query string, arg any) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Account{}).Where(query, arg).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) EmailTaken(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (s *GormStore) NickTaken(ctx context.Context, nick string) (bool, error) {
	return s.exists(ctx, "LOWER(nick) = ?", strings.ToLower(nick))
}

func (s *GormStore) SlugTaken(ctx context.Context, slug string) (bool, error) {
	return s.exists(ctx, "slug = ?", slug)
}

func (s *GormStore) updateAccount(ctx context.Context, id uint, values map[string]interface{}) error {
	result := s.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ActivateAccount(ctx context.Context, id uint) error {
	return s.updateAccount(ctx, id, map[string]interface{}{"is_active": true})
}

func (s *GormStore) SetPasswordHash(ctx context.Context, id uint, hash string) error {
	return s.updateAccount(ctx, id, map[string]interface{}{"password_hash": hash})
}

func (s *GormStore) TouchLastLogin(ctx context.Context, id uint, at time.Time) error {
	return s.updateAccount(ctx, id, map[string]interface{}{"last_login": at})
}

func (s *GormStore) LockedAccounts(ctx context.Context, now time.Time) ([]models.Account, error) {
	var accounts []models.Account
	err := s.db.WithContext(ctx).
		Where("password_locked_until > ? OR mfa_locked_until > ?", now, now).
		Order("id").
		Find(&accounts).Error
	return accounts, err
}

// RecordPasswordFailure increments the counter in SQL so concurrent failures
// never lose an increment. A nil lockUntil leaves the current lock untouched.
func (s *GormStore) RecordPasswordFailure(ctx context.Context, id uint, at time.Time, lockUntil *time.Time) error {
	values := map[string]interface{}{
		"failed_password_attempts": gorm.Expr("failed_password_attempts + ?", 1),
		"last_password_attempt_at": at,
	}
	if lockUntil != nil {
		values["password_locked_until"] = *lockUntil
	}
	return s.updateAccount(ctx, id, values)
}

// RecordMFAFailure always writes mfa_locked_until, so a nil lockUntil clears
// any earlier MFA lock. The level is only written when non-nil.
func (s *GormStore) RecordMFAFailure(ctx context.Context, id uint, level *int, lockUntil *time.Time) error {
	values := map[string]interface{}{
		"failed_mfa_attempts": gorm.Expr("failed_mfa_attempts + ?", 1),
		"mfa_locked_until":    nil,
	}
	if lockUntil != nil {
		values["mfa_locked_until"] = *lockUntil
	}
	if level != nil {
		values["mfa_lock_level"] = *level
	}
	return s.updateAccount(ctx, id, values)
}

func (s *GormStore) ResetSecurityCounters(ctx context.Context, id uint) error {
	return s.updateAccount(ctx, id, map[string]interface{}{
		"failed_password_attempts": 0,
		"password_locked_until":    nil,
		"failed_mfa_attempts":      0,
		"mfa_lock_level":           0,
		"mfa_locked_until":         nil,
	})
}

func (s *GormStore) CreateToken(ctx context.Context, token *models.Token) error {
	return s.db.WithContext(ctx).Omit("Account").Create(token).Error
}

func (s *GormStore) LatestToken(ctx context.Context, accountID uint, kind models.TokenKind) (*models.Token, error) {
	var token models.Token
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND kind = ?", accountID, kind).
		Order("created_at DESC, id DESC").
		First(&token).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

func (s *GormStore) UsableToken(ctx context.Context, accountID uint, kind models.TokenKind, now time.Time) (*models.Token, error) {
	var token models.Token
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND kind = ? AND used = ? AND expires_at > ?", accountID, kind, false, now).
		Order("created_at DESC, id DESC").
		First(&token).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

func (s *GormStore) UnusedToken(ctx context.Context, accountID uint, kind models.TokenKind, value string) (*models.Token, error) {
	var token models.Token
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND kind = ? AND value = ? AND used = ?", accountID, kind, value, false).
		First(&token).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &token, nil
}

func (s *GormStore) CountTokensSince(ctx context.Context, accountID uint, kind models.TokenKind, since time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Token{}).
		Where("account_id = ? AND kind = ? AND created_at >= ?", accountID, kind, since).
		Count(&count).Error
	return count, err
}

func (s *GormStore) MarkTokenUsed(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.Token{}).Where("id = ?", id).Update("used", true).Error
}

func (s *GormStore) CreateChallenge(ctx context.Context, challenge *models.MFAChallenge) error {
	return s.db.WithContext(ctx).Omit("Account").Create(challenge).Error
}

func (s *GormStore) UsableChallenge(ctx context.Context, accountID uint, code string, now time.Time) (*models.MFAChallenge, error) {
	var challenge models.MFAChallenge
	err := s.db.WithContext(ctx).
		Where("account_id = ? AND code = ? AND used = ? AND expires_at > ?", accountID, code, false, now).
		Order("created_at DESC, id DESC").
		First(&challenge).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &challenge, nil
}

func (s *GormStore) MarkChallengeUsed(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Model(&models.MFAChallenge{}).Where("id = ?", id).Update("used", true).Error
}

func (s *GormStore) RoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, notFound(err)
	}
	return &role, nil
}

func (s *GormStore) AssignRole(ctx context.Context, account *models.Account, role *models.Role) error {
	return s.db.WithContext(ctx).Model(account).Association("Roles").Append(role)
}

func (s *GormStore) DomainAllowed(ctx context.Context, domain string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.AllowedDomain{}).
		Where("LOWER(name) = ? AND active = ?", strings.ToLower(domain), true).
		Count(&count).Error
	return count > 0, err
}

var _ Store = (*GormStore)(nil)
