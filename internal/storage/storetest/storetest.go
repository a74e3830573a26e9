// Package storetest holds the behaviour every storage.Store backend must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/money"
	"github.com/mmynk/splitkit/internal/storage"
)

var base = time.Date(2026, time.October, 1, 18, 0, 0, 0, time.UTC)

// ReceiptBill returns a fully populated itemized bill.
func ReceiptBill(id string, createdAt time.Time) *models.Bill {
	return &models.Bill{
		ID:          id,
		Description: "Receipt from Luigi's",
		Total:       money.MustParse("33.00"),
		CreatedBy:   "alice",
		CreatedAt:   createdAt,
		Category:    models.CategoryManualReceipt,
		Mode:        models.ModeItemized,
		Participants: []models.Participant{
			{ID: "alice", DisplayName: "Alice"},
			{ID: "bob", DisplayName: "Bob"},
		},
		Shares: []models.Share{
			{ParticipantID: "alice", OwedAmount: money.MustParse("22.00")},
			{ParticipantID: "bob", OwedAmount: money.MustParse("11.00")},
		},
		Subtotal: money.MustParse("30.00"),
		Tax:      money.MustParse("3.00"),
		TaxRate:  decimal.RequireFromString("0.1"),
		TipRate:  decimal.Zero,
		Items: []models.LineItem{
			{Label: "Pizza", Amount: money.MustParse("10.00"), Quantity: 2, ParticipantIDs: []string{"alice", "bob"}},
			{Label: "Wine", Amount: money.MustParse("10.00"), Quantity: 1, ParticipantIDs: []string{"alice"}},
		},
		Breakdown: []models.PersonSplit{
			{ParticipantID: "alice", Subtotal: 2000, TaxAndTip: 200, Total: 2200,
				Items: []models.PersonItem{{Label: "Pizza", Amount: 1000}, {Label: "Wine", Amount: 1000}}},
			{ParticipantID: "bob", Subtotal: 1000, TaxAndTip: 100, Total: 1100,
				Items: []models.PersonItem{{Label: "Pizza", Amount: 1000}}},
		},
	}
}

// EqualBill returns a bill split evenly between creator and others.
func EqualBill(id, creator string, category models.Category, createdAt time.Time, others ...string) *models.Bill {
	ids := append([]string{creator}, others...)
	bill := &models.Bill{
		ID:           id,
		Description:  "Split",
		Total:        money.FromCents(int64(1000 * len(ids))),
		Subtotal:     money.FromCents(int64(1000 * len(ids))),
		CreatedBy:    creator,
		CreatedAt:    createdAt,
		Category:     category,
		Mode:         models.ModeEqual,
		SplitEqually: true,
	}
	for _, pid := range ids {
		bill.Participants = append(bill.Participants, models.Participant{ID: pid, DisplayName: pid})
		bill.Shares = append(bill.Shares, models.Share{ParticipantID: pid, OwedAmount: 1000})
	}
	return bill
}

// Run exercises a fresh, empty store returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("Bills", func(t *testing.T) { testBills(t, newStore(t)) })
	t.Run("WeightedReceipt", func(t *testing.T) { testWeightedReceipt(t, newStore(t)) })
	t.Run("ListBills", func(t *testing.T) { testListBills(t, newStore(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Friends", func(t *testing.T) { testFriends(t, newStore(t)) })
}

func testBills(t *testing.T, store storage.Store) {
	ctx := context.Background()
	original := ReceiptBill("bill-1", base)

	require.NoError(t, store.CreateBill(ctx, original))

	got, err := store.GetBill(ctx, "bill-1")
	require.NoError(t, err)
	assert.Equal(t, original.ID, got.ID)
	assert.Equal(t, original.Description, got.Description)
	assert.Equal(t, original.Total, got.Total)
	assert.Equal(t, original.Subtotal, got.Subtotal)
	assert.Equal(t, original.Tax, got.Tax)
	assert.True(t, original.TaxRate.Equal(got.TaxRate), "tax rate %s", got.TaxRate)
	assert.True(t, got.TipRate.IsZero())
	assert.True(t, original.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, original.CreatedBy, got.CreatedBy)
	assert.Equal(t, original.Category, got.Category)
	assert.Equal(t, original.Mode, got.Mode)
	assert.Equal(t, original.Participants, got.Participants)
	assert.Equal(t, original.Shares, got.Shares)
	assert.Equal(t, original.Items, got.Items)
	assert.Equal(t, original.Breakdown, got.Breakdown)
	assert.Equal(t, got.Total, models.SumShares(got.Shares))

	_, err = store.GetBill(ctx, "nonexistent-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.CreateBill(ctx, ReceiptBill("bill-1", base))
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)
}

// A category-weighted bill filed as a manual receipt has line items nobody
// is assigned to.
func testWeightedReceipt(t *testing.T, store storage.Store) {
	ctx := context.Background()
	bill := EqualBill("bill-w", "alice", models.CategoryManualReceipt, base, "bob")
	bill.Mode = models.ModeCategoryWeighted
	bill.Items = []models.LineItem{
		{Label: "Dinner", Amount: money.FromCents(1500), Quantity: 1},
		{Label: "Drinks", Amount: money.FromCents(250), Quantity: 2},
	}

	require.NoError(t, store.CreateBill(ctx, bill))

	got, err := store.GetBill(ctx, "bill-w")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryManualReceipt, got.Category)
	assert.Equal(t, models.ModeCategoryWeighted, got.Mode)
	assert.Equal(t, bill.Shares, got.Shares)
	require.Len(t, got.Items, 2)
	assert.Empty(t, got.Items[0].ParticipantIDs)
}

func testListBills(t *testing.T, store storage.Store) {
	ctx := context.Background()
	bills := []*models.Bill{
		EqualBill("b1", "alice", models.CategorySports, base, "bob"),
		EqualBill("b2", "bob", models.CategoryRegular, base.Add(time.Hour), "carol"),
		EqualBill("b3", "carol", models.CategoryAccommodation, base.Add(2*time.Hour), "alice"),
		EqualBill("b4", "alice", models.CategorySports, base.Add(3*time.Hour)),
	}
	for _, b := range bills {
		require.NoError(t, store.CreateBill(ctx, b))
	}

	ids := func(filter storage.BillFilter) []string {
		t.Helper()
		got, err := store.ListBills(ctx, filter)
		require.NoError(t, err)
		out := make([]string, len(got))
		for i, b := range got {
			out[i] = b.ID
		}
		return out
	}

	assert.Equal(t, []string{"b4", "b3", "b2", "b1"}, ids(storage.BillFilter{}))
	assert.Equal(t, []string{"b4", "b3", "b1"}, ids(storage.BillFilter{ParticipantID: "alice"}))
	assert.Equal(t, []string{"b4", "b1"}, ids(storage.BillFilter{Category: models.CategorySports}))
	assert.Equal(t, []string{"b3", "b2"}, ids(storage.BillFilter{
		Since: base.Add(time.Hour),
		Until: base.Add(2 * time.Hour),
	}))
	assert.Equal(t, []string{"b4", "b3"}, ids(storage.BillFilter{Limit: 2}))
	assert.Empty(t, ids(storage.BillFilter{ParticipantID: "dave"}))

	got, err := store.ListBills(ctx, storage.BillFilter{ParticipantID: "carol"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Len(t, got[0].Shares, 2)
}

func testUsers(t *testing.T, store storage.Store) {
	ctx := context.Background()
	user := models.NewUser("Alice@Example.com", "Alice", "hash")
	user.Phone = "+1 555 0100"

	require.NoError(t, store.CreateUser(ctx, user))

	byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "Alice", byEmail.DisplayName)
	assert.Equal(t, "+1 555 0100", byEmail.Phone)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	byID, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, byEmail, byID)

	_, err = store.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	dup := models.NewUser("ALICE@example.com", "Other Alice", "hash2")
	assert.ErrorIs(t, store.CreateUser(ctx, dup), storage.ErrAlreadyExists)
}

func testFriends(t *testing.T, store storage.Store) {
	ctx := context.Background()
	add := func(id, name string) {
		t.Helper()
		require.NoError(t, store.AddFriend(ctx, &models.Friend{
			ID: id, UserID: "alice", Name: name, Email: id + "@example.com", CreatedAt: base.Unix(),
		}))
	}
	add("f2", "zoe")
	add("f1", "Bob")

	friends, err := store.ListFriends(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, friends, 2)
	assert.Equal(t, "Bob", friends[0].Name)
	assert.Equal(t, "zoe", friends[1].Name)
	assert.Equal(t, "f1@example.com", friends[0].Email)

	other, err := store.ListFriends(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, other)

	err = store.AddFriend(ctx, &models.Friend{ID: "f1", UserID: "alice", Name: "Bob again"})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	require.NoError(t, store.RemoveFriend(ctx, "alice", "f1"))
	assert.ErrorIs(t, store.RemoveFriend(ctx, "alice", "f1"), storage.ErrNotFound)

	friends, err = store.ListFriends(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "f2", friends[0].ID)
}
