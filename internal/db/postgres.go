package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/kitaplan/kitaplan-backend/internal/config"
	"github.com/kitaplan/kitaplan-backend/internal/domain"
	"github.com/kitaplan/kitaplan-backend/internal/platform/logger"
)

// Open connects to Postgres and migrates the reference catalog tables.
// Catalog rows themselves are managed outside this service; migration only
// guarantees the schema exists.
func Open(cfg config.PostgresConfig, log *logger.Logger) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	if err := gdb.AutoMigrate(
		&domain.CurriculumReference{},
		&domain.EducationalModule{},
	); err != nil {
		return nil, fmt.Errorf("migrate reference tables: %w", err)
	}

	log.Debug("postgres ready")
	return gdb, nil
}
