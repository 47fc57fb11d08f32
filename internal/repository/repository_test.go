package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/annetmii/annetmii-english-camp/internal/database"
)

// newTestDB opens a migrated SQLite database in a temp dir. The caller
// closes it.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "camp.db"))
	require.NoError(t, err)

	_, err = db.RunMigrations(context.Background())
	require.NoError(t, err)
	return db
}

func strPtr(s string) *string { return &s }
