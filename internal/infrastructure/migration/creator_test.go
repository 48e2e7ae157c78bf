package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add relationship index", "add_relationship_index"},
		{"Add-Device-Sales", "add_device_sales"},
		{"add__tier__column", "add_tier_column"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_Sequential(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create profiles")
	require.NoError(t, err)
	assert.Equal(t, uint(1), first.Version)
	assert.Equal(t, "000001_create_profiles.up.sql", filepath.Base(first.UpPath))

	second, err := CreateMigration(dir, "Add Device Sales")
	require.NoError(t, err)
	assert.Equal(t, uint(2), second.Version)

	body, err := os.ReadFile(second.UpPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "-- add_device_sales"))

	entries, err := ListMigrations(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "create_profiles", entries[0].Name)
	assert.True(t, entries[1].HasDown)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!")
	require.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		entries, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("ignores unrelated files", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"000010_b.up.sql", "000002_a.up.sql", "000002_a.down.sql", "README.md", "embed.go"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
		}
		entries, err := ListMigrations(dir)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, uint(2), entries[0].Version)
		assert.True(t, entries[0].HasDown)
		assert.Equal(t, uint(10), entries[1].Version)
		assert.False(t, entries[1].HasDown)
	})
}

func TestRepositoryMigrationsAreSequential(t *testing.T) {
	entries, err := ListMigrations(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for i, e := range entries {
		assert.Equal(t, uint(i+1), e.Version, "gap before %s", e.Name)
		assert.True(t, e.HasDown, "%s has no down migration", e.Name)
	}
}
