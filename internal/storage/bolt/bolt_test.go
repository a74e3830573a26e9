package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/storage"
	"github.com/mmynk/splitkit/internal/storage/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "splitkit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store { return newTestStore(t) })
}

func TestBoltStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splitkit.db")
	ctx := context.Background()
	created := time.Date(2026, time.October, 3, 8, 0, 0, 0, time.UTC)

	store, err := New(path)
	require.NoError(t, err)
	require.NoError(t, store.CreateBill(ctx, storetest.EqualBill("b1", "alice", models.CategoryEntertainment, created, "bob")))
	require.NoError(t, store.Close())

	store, err = New(path)
	require.NoError(t, err)
	defer store.Close()

	bill, err := store.GetBill(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryEntertainment, bill.Category)
	assert.True(t, created.Equal(bill.CreatedAt))
	assert.Equal(t, bill.Total, models.SumShares(bill.Shares))
}

func TestBoltStore_EmailIsCaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := models.NewUser("Bob@Example.com", "Bob", "hash")
	require.NoError(t, store.CreateUser(ctx, user))

	got, err := store.GetUserByEmail(ctx, "BOB@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "bob@example.com", got.Email)
	assert.Equal(t, "Bob@Example.com", user.Email, "caller's user must not be modified")
}
