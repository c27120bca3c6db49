package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/ecgscan/internal/config"
	"github.com/terraincognita07/ecgscan/internal/db"
	"github.com/terraincognita07/ecgscan/internal/services"
	"gorm.io/gorm"
)

// OpenDatabase opens the configured store and applies pending migrations.
func OpenDatabase(cfg config.Config, logger logrus.FieldLogger) (*gorm.DB, error) {
	database, err := db.Open(db.Options{
		Driver:      cfg.DBDriver,
		SQLitePath:  cfg.DBPath,
		PostgresDSN: cfg.DatabaseURL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	return database, nil
}

func closeDatabase(database *gorm.DB) {
	if sqlDB, err := database.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func newAuthService(database *gorm.DB, logger logrus.FieldLogger) *services.AuthService {
	users := db.NewUserRepository(database)
	return services.NewAuthService(users, services.NewProfileDirectory(users, logger))
}
