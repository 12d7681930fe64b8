package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/daromanx/qa-tracker/models"
	"github.com/daromanx/qa-tracker/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var DefaultRoles = []models.Role{
	{Name: "User", Description: "Registered user"},
	{Name: "Owner", Description: "Project owner"},
	{Name: "Worker", Description: "Project team member"},
}

var DefaultAllowedDomains = []string{
	"gmail.com", "outlook.com", "hotmail.com", "yahoo.com", "icloud.com",
	"live.com", "msn.com", "aol.com", "protonmail.com", "proton.me",
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Role{},
		&models.AllowedDomain{},
		&models.Account{},
		&models.Token{},
		&models.MFAChallenge{},
		&models.UserSession{},
	)
}

type AdminSeed struct {
	Email    string
	Nick     string
	Password string
}

// Seed inserts the default roles and allowed domains, and the admin account
// when admin.Email is set. Existing rows are left alone.
func Seed(ctx context.Context, db *gorm.DB, admin AdminSeed) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, role := range DefaultRoles {
			role := role
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&role).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", role.Name, err)
			}
		}
		for _, name := range DefaultAllowedDomains {
			domain := models.AllowedDomain{Name: name, Active: true}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&domain).Error; err != nil {
				return fmt.Errorf("seed domain %s: %w", name, err)
			}
		}
		if admin.Email == "" {
			return nil
		}
		return seedAdmin(tx, admin)
	})
}

func seedAdmin(tx *gorm.DB, admin AdminSeed) error {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	var existing models.Account
	err := tx.Where("LOWER(email) = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if admin.Password == "" {
		return errors.New("seed admin password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	slug, err := utils.UniqueSlug(admin.Nick, func(slug string) (bool, error) {
		var n int64
		err := tx.Model(&models.Account{}).Where("slug = ?", slug).Count(&n).Error
		return n > 0, err
	})
	if err != nil {
		return err
	}
	account := models.Account{
		Email:        email,
		Nick:         admin.Nick,
		Slug:         slug,
		PasswordHash: string(hash),
		IsActive:     true,
		IsStaff:      true,
		IsSuperuser:  true,
	}
	if err := tx.Omit("Roles").Create(&account).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	var role models.Role
	if err := tx.Where("name = ?", "User").First(&role).Error; err != nil {
		return err
	}
	return tx.Model(&account).Association("Roles").Append(&role)
}
