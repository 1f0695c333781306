package db

import (
	"context"
	"io/fs"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incidentlog/internal/db/migrations"
	"incidentlog/internal/logging"
)

func TestMigrationsAreEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_create_users.sql", "00002_create_incidents.sql"}, files)
}

func TestConnectPostgres_BadURL(t *testing.T) {
	_, err := ConnectPostgres(context.Background(), "postgres://localhost:badport/incidents", logging.Discard())
	require.Error(t, err)
}

func TestConnectPostgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	pool, err := ConnectPostgres(context.Background(), dsn, logging.Discard())
	require.NoError(t, err)
	defer pool.Close()

	var n int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT count(*) FROM users`).Scan(&n))
}
