package database

import (
	"fmt"
	"log"

	"logistics-backend/internal/config"
	"logistics-backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Init opens the configured database and runs migrations, exiting on failure.
func Init(cfg *config.Config) *gorm.DB {
	db, err := Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("[FATAL] could not connect to database: %v", err)
	}
	if err := Migrate(db); err != nil {
		log.Fatalf("[FATAL] AutoMigrate failed: %v", err)
	}
	log.Println("Database connected, migrations applied.")
	return db
}

func Open(driver, dsn string) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	switch driver {
	case "postgres", "":
		return gorm.Open(postgres.Open(dsn), gcfg)
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(dsn), gcfg)
		if err != nil {
			return nil, err
		}
		// sqlite needs foreign keys switched on per connection
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

// OpenMemory returns a migrated in-memory sqlite database, one per call.
func OpenMemory() (*gorm.DB, error) {
	db, err := Open("sqlite", "file::memory:?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	// one connection, otherwise every pooled conn sees its own empty database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.LoadingSheet{}, "Dockets", &models.LoadingSheetDocket{}); err != nil {
		return fmt.Errorf("join table setup: %w", err)
	}

	return db.AutoMigrate(
		&models.User{},
		&models.Docket{},
		&models.DocketItem{},
		&models.LoadingSheet{},
		&models.LoadingSheetDocket{},
		&models.Manifest{},
		&models.Thc{},
		&models.Pod{},
		&models.AuditLog{},
	)
}
