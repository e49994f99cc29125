package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLiteDB_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "udyami.db")

	db, err := NewSQLiteDB(path)
	require.NoError(t, err)
	defer db.Close()

	var mode string
	require.NoError(t, db.Get(&mode, "PRAGMA journal_mode"))
	assert.Equal(t, "wal", mode)
}

func TestNewSQLiteDB_BadPath(t *testing.T) {
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "missing", "dir", "udyami.db"))

	assert.Error(t, err)
	assert.Nil(t, db)
}
