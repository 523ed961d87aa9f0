package repositories

import (
	"os"
	"strings"
	"testing"

	"talkio_backend/database"
	"talkio_backend/internal/config"
	"talkio_backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// TestGormGatewayContract runs against a live database. Set
// TEST_DATABASE_URL (and TEST_DATABASE_DRIVER=mysql for mysql).
func TestGormGatewayContract(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	driver := os.Getenv("TEST_DATABASE_DRIVER")
	if driver == "" {
		driver = "postgres"
	}

	db, err := database.Connect(config.DatabaseConfig{Driver: driver, DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	runGatewayContract(t, func(t *testing.T, clock *testClock) Gateway {
		truncate(t, db)
		return NewGormGateway(db, WithClock(clock.Now))
	})
}

func truncate(t *testing.T, db *gorm.DB) {
	t.Helper()
	all := models.All()
	for i := len(all) - 1; i >= 0; i-- {
		stmt := &gorm.Statement{DB: db}
		require.NoError(t, stmt.Parse(all[i]))
		table := stmt.Schema.Table
		if strings.EqualFold(db.Dialector.Name(), "postgres") {
			require.NoError(t, db.Exec("TRUNCATE TABLE "+table+" RESTART IDENTITY CASCADE").Error)
		} else {
			require.NoError(t, db.Exec("DELETE FROM "+table).Error)
		}
	}
}
