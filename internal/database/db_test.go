package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/palette/internal/database/repository"
)

func TestOpenMigratedIsIdempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nested", "palette.db")

	db, err := OpenMigrated(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// second run sees ErrNoChange and must not fail
	db, err = OpenMigrated(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var name string
	require.NoError(t, db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='kv_store'`).Scan(&name))
	require.Equal(t, "kv_store", name)
}

func TestKVRepoUpsertAndGet(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	db, err := OpenMigrated(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := repository.NewKVRepo(db)

	_, found, err := repo.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, repo.Upsert(ctx, "k", []byte("one"), Now()))
	require.NoError(t, repo.Upsert(ctx, "k", []byte("two"), Now()))

	v, found, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "two", string(v))

	var rows int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv_store`).Scan(&rows))
	require.Equal(t, 1, rows)
}
