package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDialect(t *testing.T) {
	tests := []struct {
		dsn  string
		want Dialect
	}{
		{"postgres://u:p@localhost:5432/db", DialectPostgres},
		{"postgresql://u:p@localhost/db?sslmode=disable", DialectPostgres},
		{"unix://u:p@db/var/run/postgresql/.s.PGSQL.5432", DialectPostgres},
		{":memory:", DialectSQLite},
		{"file:careergate.db?cache=shared", DialectSQLite},
		{"/var/lib/careergate/data.db", DialectSQLite},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectDialect(tt.dsn), tt.dsn)
	}
}

func TestNewEmptyURL(t *testing.T) {
	pool, err := New(context.Background(), DefaultConfig())
	require.NoError(t, err)
	assert.Nil(t, pool)
	assert.Error(t, pool.Health(context.Background()))
	assert.NoError(t, pool.Close())
}

func TestMigrateSQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.URL = ":memory:"
	pool, err := New(ctx, cfg)
	require.NoError(t, err)
	defer pool.Close()

	applied, err := pool.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_profiles.sql", "0002_admin_audit.sql", "0003_user_requests.sql"}, applied)

	_, err = pool.Migrate(ctx)
	require.NoError(t, err)

	for _, table := range []string{"profiles", "admin_audit", "user_requests"} {
		_, err := pool.DB().NewSelect().Table(table).Limit(1).Exec(ctx)
		assert.NoError(t, err, table)
	}
	assert.NoError(t, pool.Health(ctx))
	assert.Equal(t, DialectSQLite, pool.Dialect())
}

func TestStatements(t *testing.T) {
	got := statements("-- header\nCREATE TABLE a (x TEXT);\n\n-- second\nCREATE INDEX i ON a (x);\n")
	assert.Equal(t, []string{"CREATE TABLE a (x TEXT)", "CREATE INDEX i ON a (x)"}, got)
}
