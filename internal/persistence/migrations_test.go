package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrationFiles(t *testing.T) {
	t.Run("SortedSQLFilesOnly", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "002_children.sql"), []byte("--"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "001_cases.sql"), []byte("--"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("--"), 0o644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))

		files, err := migrationFiles(dir)
		require.NoError(t, err)
		require.Len(t, files, 2)
		assert.Equal(t, "001_cases.sql", filepath.Base(files[0]))
		assert.Equal(t, "002_children.sql", filepath.Base(files[1]))
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		_, err := migrationFiles(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})
}

func TestRunMigrationsWithoutPool(t *testing.T) {
	err := RunMigrations(context.Background(), nil, t.TempDir(), zap.NewNop())
	assert.NoError(t, err, "a missing pool skips migrations instead of failing startup")
}
