package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
	"github.com/SAP-F-2025/school-dashboard/internal/repositories"
)

// credentialRow is a local email/password account
type credentialRow struct {
	Email        string `gorm:"primaryKey;size:255"`
	UID          string `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
}

func (credentialRow) TableName() string {
	return "credentials"
}

// CredentialPostgreSQL is the identity provider used when no external one is configured
type CredentialPostgreSQL struct {
	db     *gorm.DB
	cost   int
	logger *slog.Logger
}

func NewCredentialPostgreSQL(db *gorm.DB, logger *slog.Logger) repositories.IdentityProvider {
	return newCredentialPostgreSQL(db, bcrypt.DefaultCost, logger)
}

func newCredentialPostgreSQL(db *gorm.DB, cost int, logger *slog.Logger) *CredentialPostgreSQL {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialPostgreSQL{db: db, cost: cost, logger: logger}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an account; ErrAlreadyExists when the email is taken
func (c *CredentialPostgreSQL) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("sign up failed: email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return nil, fmt.Errorf("sign up failed: hash password: %w", err)
	}

	row := &credentialRow{
		Email:        email,
		UID:          uuid.NewString(),
		PasswordHash: string(hash),
	}

	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&credentialRow{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return handleDBError(err, "sign up")
		}
		if count > 0 {
			return fmt.Errorf("sign up %s: %w", email, repositories.ErrAlreadyExists)
		}
		return handleDBError(tx.Create(row).Error, "sign up")
	})
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "auth_event", "event", "sign_up", "email", email)
	return &models.Identity{UID: row.UID, Email: row.Email}, nil
}

// SignIn verifies the password; unknown email and wrong password look the same
func (c *CredentialPostgreSQL) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	email = normalizeEmail(email)

	var row credentialRow
	if err := c.db.WithContext(ctx).First(&row, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.logger.InfoContext(ctx, "auth_event", "event", "sign_in_failed", "email", email, "reason", "unknown_email")
			return nil, repositories.ErrInvalidCredentials
		}
		return nil, handleDBError(err, "sign in")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)); err != nil {
		c.logger.InfoContext(ctx, "auth_event", "event", "sign_in_failed", "email", email, "reason", "bad_password")
		return nil, repositories.ErrInvalidCredentials
	}

	c.logger.InfoContext(ctx, "auth_event", "event", "sign_in", "email", email)
	return &models.Identity{UID: row.UID, Email: row.Email}, nil
}
