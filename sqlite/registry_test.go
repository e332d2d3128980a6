package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/billfetch"
	"github.com/fwojciec/billfetch/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRegistry(t *testing.T, db *sqlite.DB) *sqlite.Registry {
	t.Helper()

	r, err := sqlite.NewRegistry(context.Background(), db)
	require.NoError(t, err)
	return r
}

func openDB(t *testing.T, path string) *sqlite.DB {
	t.Helper()

	db := sqlite.NewDB(path)
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRegistry_Add(t *testing.T) {
	t.Parallel()

	t.Run("records entry", func(t *testing.T) {
		t.Parallel()

		r := openRegistry(t, openDB(t, ":memory:"))
		ctx := context.Background()

		require.False(t, r.IsDownloaded("freebox", "freebox_1"))
		err := r.Add(ctx, &billfetch.RegistryEntry{
			ProviderID: "freebox",
			DocumentID: "freebox_1",
			Filename:   "freebox_2024-02-01_freebox_1.pdf",
			Date:       &billfetch.YearMonth{Year: 2024, Month: time.February},
		})

		require.NoError(t, err)
		assert.True(t, r.IsDownloaded("freebox", "freebox_1"))
		assert.False(t, r.IsDownloaded("free_mobile", "freebox_1"))
		assert.Equal(t, 1, r.Len())
		entries := r.Entries()
		require.Len(t, entries, 1)
		assert.False(t, entries[0].CreatedAt.IsZero())
	})

	t.Run("upsert replaces existing entry", func(t *testing.T) {
		t.Parallel()

		r := openRegistry(t, openDB(t, ":memory:"))
		ctx := context.Background()

		require.NoError(t, r.Add(ctx, &billfetch.RegistryEntry{ProviderID: "freebox", DocumentID: "d", Filename: "old.pdf"}))
		require.NoError(t, r.Add(ctx, &billfetch.RegistryEntry{ProviderID: "freebox", DocumentID: "d", Filename: "new.pdf"}))

		assert.Equal(t, 1, r.Len())
		assert.Equal(t, "new.pdf", r.Entries()[0].Filename)
	})

	t.Run("rejects invalid entry", func(t *testing.T) {
		t.Parallel()

		r := openRegistry(t, openDB(t, ":memory:"))

		err := r.Add(context.Background(), &billfetch.RegistryEntry{ProviderID: "freebox"})

		assert.Equal(t, billfetch.EINVALID, billfetch.ErrorCode(err))
		assert.Zero(t, r.Len())
	})
}

func TestRegistry_Entries_OrderedByCreation(t *testing.T) {
	t.Parallel()

	r := openRegistry(t, openDB(t, ":memory:"))
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.Add(ctx, &billfetch.RegistryEntry{ProviderID: "p", DocumentID: "b", Filename: "b.pdf", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, r.Add(ctx, &billfetch.RegistryEntry{ProviderID: "p", DocumentID: "a", Filename: "a.pdf", CreatedAt: base}))

	entries := r.Entries()

	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].DocumentID)
	assert.Equal(t, "b", entries[1].DocumentID)
}

func TestRegistry_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "freebox", sqlite.RegistryFile)
	ctx := context.Background()

	db := sqlite.NewDB(path)
	require.NoError(t, db.Open())
	r := openRegistry(t, db)
	require.NoError(t, r.Add(ctx, &billfetch.RegistryEntry{
		ProviderID: "freebox",
		DocumentID: "freebox_1",
		Filename:   "f.pdf",
		Date:       &billfetch.YearMonth{Year: 2023, Month: time.October},
	}))
	require.NoError(t, db.Close())

	reopened := openRegistry(t, openDB(t, path))

	assert.True(t, reopened.IsDownloaded("freebox", "freebox_1"))
	entries := reopened.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "f.pdf", entries[0].Filename)
	require.NotNil(t, entries[0].Date)
	assert.Equal(t, billfetch.YearMonth{Year: 2023, Month: time.October}, *entries[0].Date)
}
