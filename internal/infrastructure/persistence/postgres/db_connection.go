// Package postgres provides the gorm-backed implementations of the domain
// repositories. Database models (DBMs) are kept separate from domain models
// and converted at the boundary.
package postgres

import (
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/urbanyield/riskengine/internal/config"
	"github.com/urbanyield/riskengine/pkg/errors"
)

// NewConnection opens the database and runs migrations for the risk tables.
// Only the risk-owned tables are migrated; properties and market_metrics are
// created too so the engine runs standalone, but their content is owned by
// external collaborators.
func NewConnection(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, errors.ErrPersistence("failed to connect to database").WithError(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.ErrPersistence("failed to access sql.DB").WithError(err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConns)
	sqlDB.SetMaxIdleConns(cfg.MaxConns / 2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the schema. Exposed separately so tests can run it against
// sqlite.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&riskResultDBM{},
		&riskGradeHistoryDBM{},
		&propertyDBM{},
		&marketMetricDBM{},
	); err != nil {
		return errors.ErrPersistence("failed to migrate schema").WithError(err)
	}
	return nil
}
