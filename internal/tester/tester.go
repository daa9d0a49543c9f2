// Package tester prepares the sqlite database and in-memory dependencies
// shared by package tests.
package tester

import (
	"os"
	"path/filepath"

	"github.com/c4rrotJuice/web-unlocker-tool/internal/cache"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/model"
	"github.com/c4rrotJuice/web-unlocker-tool/internal/store"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	dir string
	db  *gorm.DB
)

// Setup creates a fresh sqlite database for the test binary and migrates
// it. Each package gets its own directory so packages can run in parallel.
func Setup() {
	_ = os.Setenv("ENV", "test")

	var err error
	dir, err = os.MkdirTemp("", "document-test-")
	if err != nil {
		panic(err)
	}

	db, err = gorm.Open(sqlite.Open(filepath.Join(dir, "document.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	if err = model.Migrate(db); err != nil {
		panic(err)
	}
}

func TestDB() *gorm.DB {
	return db
}

// Store returns a store over the test database.
func Store() *store.GormStore {
	return store.NewGormStore(db)
}

// RemoveDBFile closes the test database and deletes its directory.
func RemoveDBFile() {
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		panic(err)
	}
}

// Cache returns an empty in-memory document cache.
func Cache() *cache.KVDocumentCache {
	return cache.NewDocumentCache(cache.NewMemoryKV(nil), 0)
}

// Owner returns a fresh owner id so tests sharing a database do not see
// each other's rows.
func Owner() string {
	return "user-" + uuid.NewString()
}
