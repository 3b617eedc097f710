package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/psds-microservice/support-chat/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateUp_SQLite(t *testing.T) {
	db, err := Open(config.DriverSQLite, filepath.Join(t.TempDir(), "support.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	ctx := context.Background()
	require.NoError(t, MigrateUp(ctx, db, config.DriverSQLite))
	// повторный запуск проходит без ошибок
	require.NoError(t, MigrateUp(ctx, db, config.DriverSQLite))

	assert.True(t, db.Migrator().HasTable("faq"))
	assert.True(t, db.Migrator().HasTable("tickets"))

	require.NoError(t, db.Exec("INSERT INTO tickets (user_msg, category) VALUES (?, ?)", "принтер молчит", "Неизвестно").Error)
	var status string
	require.NoError(t, db.Raw("SELECT status FROM tickets WHERE id = 1").Scan(&status).Error)
	assert.Equal(t, "open", status)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.Error(t, err)
}

func TestEnsureDatabase_SQLiteNoop(t *testing.T) {
	cfg := &config.Config{}
	cfg.DB.Driver = config.DriverSQLite
	assert.NoError(t, EnsureDatabase(cfg))
}

func TestPing(t *testing.T) {
	db, err := Open(config.DriverSQLite, filepath.Join(t.TempDir(), "ping.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	assert.NoError(t, Ping(context.Background(), db))
}
