package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gestao-backend/shared/config"
	"gestao-backend/shared/database/models"
	"gestao-backend/shared/logger"
)

// getLogLevel returns appropriate log level based on environment
func getLogLevel(cfg *config.Config) gormlogger.LogLevel {
	if cfg.DBHost == "localhost" || cfg.DBHost == "127.0.0.1" {
		return gormlogger.Warn
	}
	return gormlogger.Error
}

// Connect opens the postgres connection, configures the bounded pool and
// runs schema migration. The returned handle is passed to every handler
// constructor; there is no package-level singleton.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
		cfg.DBSSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: gormlogger.Default.LogMode(getLogLevel(cfg)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		// Maps duplicate-key and similar driver errors onto gorm's
		// sentinel errors so handlers can classify conflicts.
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Get().Info("database connection established",
		zap.String("host", cfg.DBHost),
		zap.String("database", cfg.DBName),
		zap.Int("max_open_conns", cfg.DBMaxOpenConns),
	)

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return db, nil
}

// ManagedModels lists every model owned by this service, in dependency
// order (referenced tables first).
func ManagedModels() []interface{} {
	return []interface{}{
		&models.Company{},
		&models.User{},
		&models.UserCompany{},
		&models.Project{},
		&models.ProjectUser{},
		&models.Goal{},
		&models.Message{},
	}
}

// Migrate brings the schema up to date for all managed models.
func Migrate(db *gorm.DB) error {
	for _, model := range ManagedModels() {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}
	logger.Get().Info("database schema is up to date")
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
