package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doroshop/dsadmin/internal/database"
)

func repos(t *testing.T) map[string]Documents {
	t.Helper()
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "dev.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return map[string]Documents{
		"sqlite": NewDocumentRepo(db),
		"memory": NewMemoryDocuments(),
	}
}

func TestDocumentsCRUD(t *testing.T) {
	for name, repo := range repos(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Insert(ctx, "plans", "p2", Document{"_id": "p2", "code": "premium", "price": 499.0}))
			require.NoError(t, repo.Insert(ctx, "plans", "p1", Document{"_id": "p1", "code": "basic"}))
			require.NoError(t, repo.Insert(ctx, "categories", "p1", Document{"_id": "p1", "name": "same id, other collection"}))

			docs, err := repo.List(ctx, "plans")
			require.NoError(t, err)
			require.Len(t, docs, 2)
			require.Equal(t, "p2", docs[0]["_id"])
			require.Equal(t, 499.0, docs[0]["price"])

			doc, err := repo.Get(ctx, "plans", "p1")
			require.NoError(t, err)
			doc["isActive"] = false
			require.NoError(t, repo.Replace(ctx, "plans", "p1", doc))
			again, err := repo.Get(ctx, "plans", "p1")
			require.NoError(t, err)
			require.Equal(t, false, again["isActive"])

			require.NoError(t, repo.Delete(ctx, "plans", "p2"))
			n, err := repo.Count(ctx, "plans")
			require.NoError(t, err)
			require.Equal(t, 1, n)

			_, err = repo.Get(ctx, "plans", "p2")
			require.ErrorIs(t, err, ErrNotFound)
			require.ErrorIs(t, repo.Delete(ctx, "plans", "p2"), ErrNotFound)
			require.ErrorIs(t, repo.Replace(ctx, "plans", "nope", Document{}), ErrNotFound)
			require.Error(t, repo.Insert(ctx, "plans", "p1", Document{}))

			empty, err := repo.List(ctx, "refunds")
			require.NoError(t, err)
			require.NotNil(t, empty)
			require.Empty(t, empty)
		})
	}
}

func TestMemoryDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryDocuments()
	doc := Document{"_id": "m1", "name": "Tagum"}
	require.NoError(t, repo.Insert(ctx, "municipalities", "m1", doc))
	doc["name"] = "changed"

	got, err := repo.Get(ctx, "municipalities", "m1")
	require.NoError(t, err)
	require.Equal(t, "Tagum", got["name"])
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.db")
	db, err := database.OpenMigrated(path)
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))
	require.NoError(t, db.Close())

	db, err = database.OpenMigrated(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
