package objstore_test

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/arllen133/objstore"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// setupTestDB opens the database named by TEST_DRIVER/TEST_DSN, or an in-memory
// SQLite database, and migrates a fresh document table.
func setupTestDB(t *testing.T) (*sql.DB, *objstore.Session) {
	t.Helper()
	driver := os.Getenv("TEST_DRIVER")
	dsn := os.Getenv("TEST_DSN")

	if driver == "" {
		driver = "sqlite3"
		dsn = ":memory:"
	}

	db, err := sql.Open(driver, dsn)
	require.NoError(t, err)
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	t.Cleanup(func() { db.Close() })

	dialect, err := objstore.DialectByName(driver)
	require.NoError(t, err)

	return db, objstore.NewSession(db, dialect)
}

// setupApp builds an App over a migrated in-memory database with the given hooks.
func setupApp(t *testing.T, hooks ...objstore.HookDescriptor) *objstore.App {
	t.Helper()
	db, _ := setupTestDB(t)

	cfg := objstore.DefaultConfig()
	cfg.Hooks.Descriptors = hooks
	if driver := os.Getenv("TEST_DRIVER"); driver != "" {
		cfg.Database.Driver = driver
	}

	app, err := objstore.New(cfg, db)
	require.NoError(t, err)
	require.NoError(t, app.Store.Migrate(context.Background()))
	if cfg.Database.Driver != "sqlite3" {
		_, err := db.Exec("DELETE FROM " + cfg.Database.Table)
		require.NoError(t, err)
	}
	return app
}
