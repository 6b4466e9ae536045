// Package testutil holds fixtures shared by repository and service tests.
package testutil

import (
	"path/filepath"
	"testing"

	"anoa.com/studentmanager/internal/bootstrap"
	"anoa.com/studentmanager/internal/entity"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated SQLite database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, bootstrap.Migrate(db))
	return db
}

// CreateClass inserts a class and fails the test on error.
func CreateClass(t *testing.T, db *gorm.DB, name string, max int) *entity.Class {
	t.Helper()
	class := &entity.Class{Name: name, MaxStudents: max}
	require.NoError(t, db.Create(class).Error)
	return class
}

// ReloadClass reads the class back from the database.
func ReloadClass(t *testing.T, db *gorm.DB, id uint) *entity.Class {
	t.Helper()
	var class entity.Class
	require.NoError(t, db.First(&class, id).Error)
	return &class
}
