package database

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestao-backend/shared/config"
	"gestao-backend/shared/database/models"
	"gestao-backend/shared/logger"
	"gestao-backend/shared/permissions"
	"gestao-backend/shared/utils/auth"
)

// SeedDatabase creates the platform admin account and a demo company the
// admin owns. Safe to run repeatedly.
func SeedDatabase(db *gorm.DB, cfg *config.Config) error {
	admin, created, err := seedAdminUser(db, cfg)
	if err != nil {
		return err
	}
	if created {
		logger.Get().Info("admin user created", zap.String("email", admin.Email))
	}

	if err := seedDemoCompany(db, admin); err != nil {
		return err
	}

	logger.Get().Info("database seed data is up to date")
	return nil
}

func seedAdminUser(db *gorm.DB, cfg *config.Config) (*models.User, bool, error) {
	var existing models.User
	err := db.Where("email = ?", cfg.AdminEmail).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	hash, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return nil, false, err
	}

	admin := models.User{
		FullName: "Administrador",
		Email:    cfg.AdminEmail,
		Password: hash,
		Role:     models.GlobalRoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return nil, false, err
	}
	return &admin, true, nil
}

func seedDemoCompany(db *gorm.DB, admin *models.User) error {
	var count int64
	if err := db.Model(&models.Company{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	// Company plus owner membership are written as a unit.
	return db.Transaction(func(tx *gorm.DB) error {
		company := models.Company{
			Name:        "Empresa Demo",
			Description: "Empresa de demonstração criada pelo seed",
			Active:      true,
		}
		if err := tx.Create(&company).Error; err != nil {
			return err
		}

		membership := models.UserCompany{
			UserID:    admin.ID,
			CompanyID: company.ID,
			Role:      string(permissions.RoleDono),
		}
		return tx.Create(&membership).Error
	})
}
