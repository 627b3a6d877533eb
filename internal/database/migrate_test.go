package database

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_Embedded(t *testing.T) {
	sub, err := fs.Sub(migrationFiles, "migrations")
	require.NoError(t, err)

	migrations, err := LoadMigrations(sub)

	require.NoError(t, err)
	require.Len(t, migrations, 4)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "create_users", migrations[0].Name)
	assert.Equal(t, "create_stock_movements", migrations[3].Name)
	for _, m := range migrations {
		assert.NotEmpty(t, m.Up, m.Name)
		assert.NotEmpty(t, m.Down, m.Name)
	}
	assert.True(t, strings.Contains(migrations[2].Up, "ON DELETE RESTRICT"))
}

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"0010_b.up.sql":   {Data: []byte("SELECT 10")},
		"0002_a.up.sql":   {Data: []byte("SELECT 2")},
		"0002_a.down.sql": {Data: []byte("SELECT -2")},
		"README.md":       {Data: []byte("ignored")},
	}

	migrations, err := LoadMigrations(fsys)

	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 2, migrations[0].Version)
	assert.Equal(t, "SELECT -2", migrations[0].Down)
	assert.Equal(t, 10, migrations[1].Version)
	assert.Empty(t, migrations[1].Down)
}

func TestLoadMigrations_Errors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"missing direction", fstest.MapFS{"0001_a.sql": {Data: []byte("x")}}},
		{"missing version", fstest.MapFS{"init.up.sql": {Data: []byte("x")}}},
		{"non numeric version", fstest.MapFS{"abc_init.up.sql": {Data: []byte("x")}}},
		{"down without up", fstest.MapFS{"0001_a.down.sql": {Data: []byte("x")}}},
		{"version clash", fstest.MapFS{
			"0001_a.up.sql": {Data: []byte("x")},
			"0001_b.up.sql": {Data: []byte("y")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadMigrations(tt.fsys)
			assert.Error(t, err)
		})
	}
}

func TestStatusOf(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	migrations := []Migration{{Version: 1, Name: "a"}, {Version: 2, Name: "b"}}

	statuses := statusOf(migrations, map[int]time.Time{1: at})

	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Applied)
	assert.Equal(t, at, *statuses[0].AppliedAt)
	assert.False(t, statuses[1].Applied)
	assert.Nil(t, statuses[1].AppliedAt)
}
