package sqlite

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"010_late.up.sql":      {Data: []byte("SELECT 1;")},
		"002_second.up.sql":    {Data: []byte("SELECT 1;")},
		"001_initial.up.sql":   {Data: []byte("SELECT 1;")},
		"001_initial.down.sql": {Data: []byte("SELECT 1;")},
		"notes.up.sql":         {Data: []byte("SELECT 1;")},
		"embed.go":             {Data: []byte("package migrations")},
	}

	tests := []struct {
		name    string
		current int
		want    []int
	}{
		{name: "fresh database", current: 0, want: []int{1, 2, 10}},
		{name: "partially migrated", current: 2, want: []int{10}},
		{name: "up to date", current: 10, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pending, err := pendingMigrations(fsys, tt.current)
			require.NoError(t, err)

			var got []int
			for _, m := range pending {
				got = append(got, m.version)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMigrate_FailingScriptRollsBack(t *testing.T) {
	store := setupTestStore(t)

	err := store.migrate(fstest.MapFS{
		"002_broken.up.sql": {Data: []byte("CREATE TABLE half_done (id TEXT); NOT VALID SQL;")},
	})
	require.ErrorContains(t, err, "executing migration 002_broken.up.sql")

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	var tables int
	require.NoError(t, store.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='half_done'",
	).Scan(&tables))
	assert.Zero(t, tables)
}

func TestMigrate_AppliesNewScriptOnce(t *testing.T) {
	store := setupTestStore(t)
	fsys := fstest.MapFS{
		"002_tags.up.sql": {Data: []byte("CREATE TABLE tags (name TEXT PRIMARY KEY);")},
	}

	require.NoError(t, store.migrate(fsys))
	require.NoError(t, store.migrate(fsys))

	var version int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 2, version)
}
