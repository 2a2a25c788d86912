package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMigrated(t *testing.T) *Database {
	t.Helper()

	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := zerolog.Nop()
	require.NoError(t, db.Migrate(context.Background(), &logger))
	return db
}

func TestRebind(t *testing.T) {
	pg := &Database{Dialect: DialectPostgres}
	lite := &Database{Dialect: DialectSQLite}

	q := "SELECT * FROM orders WHERE store_id = ? AND status = ? LIMIT ?"
	assert.Equal(t, "SELECT * FROM orders WHERE store_id = $1 AND status = $2 LIMIT $3", pg.Rebind(q))
	assert.Equal(t, q, lite.Rebind(q))
	assert.Equal(t, "SELECT 1", pg.Rebind("SELECT 1"))
}

func TestForUpdate(t *testing.T) {
	pg := &Database{Dialect: DialectPostgres}
	lite := &Database{Dialect: DialectSQLite}

	assert.Equal(t, " FOR UPDATE", pg.ForUpdate())
	assert.Empty(t, lite.ForUpdate())
}

func TestSQLiteMigrations(t *testing.T) {
	list, err := loadSQLiteMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, 1, list[0].version)

	db := openMigrated(t)
	ctx := context.Background()

	for _, table := range []string{"stores", "users", "attendance", "revenue", "products", "orders", "maintenance_requests"} {
		var name string
		err := db.SQL.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, table)
	}

	// Running again is a no-op.
	logger := zerolog.Nop()
	require.NoError(t, db.Migrate(ctx, &logger))

	var versions int
	require.NoError(t, db.SQL.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_version`).Scan(&versions))
	assert.Equal(t, len(list), versions)
}

func TestSQLiteForeignKeysEnforced(t *testing.T) {
	db := openMigrated(t)

	_, err := db.SQL.ExecContext(context.Background(),
		`INSERT INTO users (store_id, username, password_hash, full_name, role, created_at, updated_at)
		 VALUES (999, 'ghost', 'x', 'Ghost', 'staff', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	assert.Error(t, err)
}

func TestWithTx(t *testing.T) {
	db := openMigrated(t)
	ctx := context.Background()

	insert := func(tx *sql.Tx, name string) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO products (name, unit_price, created_at, updated_at) VALUES (?, '1.00', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`, name)
		return err
	}

	boom := errors.New("boom")
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		require.NoError(t, insert(tx, "rolled back"))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, db.WithTx(ctx, func(tx *sql.Tx) error {
		return insert(tx, "committed")
	}))

	var count int
	require.NoError(t, db.SQL.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count))
	assert.Equal(t, 1, count)
}
