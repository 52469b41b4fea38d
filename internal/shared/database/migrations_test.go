package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles_SortsAndFiltersSQL(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.sql":             {Data: []byte("SELECT 1;")},
		"001_create_floorplan_maps.sql": {Data: []byte("SELECT 1;")},
		"README.md":                     {Data: []byte("notes")},
		"archive/000_old.sql":           {Data: []byte("SELECT 1;")},
	}

	files, err := MigrationFiles(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create_floorplan_maps.sql", "002_add_index.sql"}, files)
}

func TestMigrationFiles_EmptyDirectory(t *testing.T) {
	files, err := MigrationFiles(fstest.MapFS{})
	require.NoError(t, err)
	assert.Empty(t, files)
}
