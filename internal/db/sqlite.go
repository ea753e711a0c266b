package db

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewSQLite opens a sqlite database at the given path ("file::memory:?cache=shared"
// for an in-memory instance) and migrates the full schema. Used for local
// development and the service-level tests.
func NewSQLite(path string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	if err := AutoMigrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}
	return gdb, nil
}
