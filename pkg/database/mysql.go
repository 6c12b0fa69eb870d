package database

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"uirecorder/internal/config"
	"uirecorder/internal/models"
	applog "uirecorder/pkg/logger"
)

// Open connects to MySQL and migrates the schema.
func Open(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.GetDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	applog.L().Infof("✅ Database connected: %s:%s/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Action{},
		&models.TestCase{},
		&models.TestSuite{},
		&models.TestExecution{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	applog.L().Infof("✅ Database migration completed")
	return nil
}
