package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheckList(t *testing.T) {
	out, err := run(t, "check", "--list")
	require.NoError(t, err)
	assert.Contains(t, out, "admin.api")
	assert.Contains(t, out, "career.history")
}

func TestMigrateRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, err := run(t, "migrate")
	assert.ErrorIs(t, err, errNoDatabase)
}

func TestRoleLifecycle(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "careergate.db")
	t.Setenv("DATABASE_URL", dsn)
	subject := uuid.NewString()

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "0001_profiles.sql")

	out, err = run(t, "role", "get", subject)
	require.NoError(t, err)
	assert.Equal(t, "not provisioned", strings.TrimSpace(out))

	_, err = run(t, "role", "set", subject, "admin")
	require.NoError(t, err)
	out, err = run(t, "role", "get", subject)
	require.NoError(t, err)
	assert.Equal(t, "admin", strings.TrimSpace(out))

	_, err = run(t, "role", "set", subject, "owner")
	assert.Error(t, err)

	_, err = run(t, "role", "remove", subject)
	require.NoError(t, err)
	out, err = run(t, "role", "get", subject)
	require.NoError(t, err)
	assert.Equal(t, "not provisioned", strings.TrimSpace(out))
}

func TestRoleSetRejectsNonUUID(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:"+filepath.Join(t.TempDir(), "careergate.db"))
	_, err := run(t, "role", "set", "not-a-uuid", "user")
	assert.Error(t, err)
}
