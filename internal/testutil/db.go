// Package testutil opens throwaway stores for tests.
package testutil

import (
	"testing"

	mmysql "commerce-service/internal/infra/mysql"
	"commerce-service/internal/repository"
	mysqlrepo "commerce-service/internal/repository/mysql"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewStore returns a migrated store over a private in-memory SQLite database. A single
// connection keeps the shared-cache database alive and serializes transactions.
func NewStore(t *testing.T) (repository.Store, *gorm.DB) {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(mmysql.Models...))
	return mysqlrepo.NewStore(db), db
}
