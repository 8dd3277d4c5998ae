package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Ordered(t *testing.T) {
	names, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.Len(t, names, 4)
	for i, n := range names {
		assert.True(t, strings.HasPrefix(n, "0000"+string(rune('1'+i))+"_"), n)
	}
}

func TestMigrations_UsernameUniqueIgnoringCase(t *testing.T) {
	b, err := fs.ReadFile(Migrations, "00004_users_username_lower.sql")
	require.NoError(t, err)
	assert.Contains(t, string(b), "CREATE UNIQUE INDEX users_username_lower_idx ON users (lower(username))")
}
