// Package dbtest opens throwaway in-memory databases carrying the production schema.
package dbtest

import (
	"fmt"
	"testing"

	"sportsmatch/internal/database"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// New returns a migrated in-memory SQLite database private to the test.
// The pool holds a single connection so concurrent transactions serialize.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	name, err := gonanoid.New(12)
	if err != nil {
		t.Fatalf("dbtest: %v", err)
	}
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := database.Open(sqlite.Open(dsn), zerolog.Nop())
	if err != nil {
		t.Fatalf("dbtest: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("dbtest: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(sqlDB, "sqlite3", zerolog.Nop()); err != nil {
		t.Fatalf("dbtest: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}
