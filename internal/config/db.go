package config

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GetDb opens the configured database. It exits when the database cannot be
// opened.
func GetDb(cfg *Config) *gorm.DB {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DBDSN)
	case "sqlite":
		if dir := filepath.Dir(cfg.DBDSN); dir != "." {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				logrus.Fatalf("failed to create database directory: %v", err)
			}
		}
		dialector = sqlite.Open(cfg.DBDSN)
	default:
		logrus.Fatalf("unsupported database driver %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		logrus.Fatalf("failed to open %s database: %v", cfg.DBDriver, err)
	}

	logrus.Infof("connected to %s database", cfg.DBDriver)
	return db
}
