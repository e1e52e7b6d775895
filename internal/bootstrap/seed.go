package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"anoa.com/jobapp/internal/auth"
	"anoa.com/jobapp/internal/entity"
	"gorm.io/gorm"
)

const (
	seedAdminUsername = "admin"
	seedAdminEmail    = "admin@jobapp.local"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Offer{},
		&entity.Application{},
	)
}

// SeedAdminUser creates the first administrator account when none exists.
func SeedAdminUser(ctx context.Context, db *gorm.DB, hasher auth.PasswordHasher, password string, logger *slog.Logger) error {
	if password == "" {
		return errors.New("ADMIN_SEED_PASSWORD is required to seed the admin user")
	}

	var count int64
	if err := db.WithContext(ctx).Model(&entity.User{}).
		Where("role = ?", entity.RoleAdmin).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		logger.Info("admin user already exists, skipping seed")
		return nil
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}

	admin := entity.User{
		Username:     seedAdminUsername,
		Email:        seedAdminEmail,
		PasswordHash: hash,
		Role:         entity.RoleAdmin,
	}

	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		return err
	}

	logger.Info("admin user seeded", "username", admin.Username, "email", admin.Email)
	return nil
}
