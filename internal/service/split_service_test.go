package service

import (
	"context"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/money"
)

func owed(shares []models.Share) map[string]string {
	out := make(map[string]string, len(shares))
	for _, s := range shares {
		out[s.ParticipantID] = s.OwedAmount.String()
	}
	return out
}

func TestPreviewSplit_EqualSplit(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	resp, err := env.split.PreviewSplit(context.Background(), as(alice, &PreviewSplitRequest{
		Split: SplitInput{
			Mode:         "equal",
			Total:        money.MustParse("100.01"),
			Participants: []ParticipantInput{alice.participant(), bob.participant()},
		},
	}))
	require.NoError(t, err)

	assert.Equal(t, money.MustParse("100.01"), resp.Msg.Total)
	require.Len(t, resp.Msg.Shares, 2)
	assert.Equal(t, alice.ID, resp.Msg.Shares[0].ParticipantID)
	assert.Equal(t, "50.01", resp.Msg.Shares[0].OwedAmount.String())
	assert.Equal(t, "50.00", resp.Msg.Shares[1].OwedAmount.String())
}

func TestPreviewSplit_ExplicitRemainderToCaller(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	resp, err := env.split.PreviewSplit(context.Background(), as(alice, &PreviewSplitRequest{
		Split: SplitInput{
			Mode:            "explicit",
			Total:           money.MustParse("50.00"),
			Participants:    []ParticipantInput{alice.participant(), bob.participant()},
			ExplicitAmounts: map[string]money.Money{bob.ID: money.MustParse("20.00")},
		},
	}))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{alice.ID: "30.00", bob.ID: "20.00"}, owed(resp.Msg.Shares))
}

func TestPreviewSplit_WithItems(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	resp, err := env.split.PreviewSplit(context.Background(), as(alice, &PreviewSplitRequest{
		Split: SplitInput{
			Mode:         "itemized",
			Participants: []ParticipantInput{alice.participant(), bob.participant()},
			Items: []LineItemInput{
				{Label: "Pizza", Amount: money.MustParse("20.00"), ParticipantIDs: []string{alice.ID}},
				{Label: "Salad", Amount: money.MustParse("10.00"), ParticipantIDs: []string{bob.ID}},
			},
			TaxPercent: "10",
		},
	}))
	require.NoError(t, err)

	// Alice: $20 subtotal, $2 tax, $22 total
	// Bob: $10 subtotal, $1 tax, $11 total
	assert.Equal(t, "33.00", resp.Msg.Total.String())
	assert.Equal(t, "30.00", resp.Msg.Subtotal.String())
	assert.Equal(t, "3.00", resp.Msg.Tax.String())
	assert.Equal(t, map[string]string{alice.ID: "22.00", bob.ID: "11.00"}, owed(resp.Msg.Shares))

	require.Len(t, resp.Msg.Breakdown, 2)
	aliceSplit := resp.Msg.Breakdown[0]
	assert.Equal(t, "20.00", aliceSplit.Subtotal.String())
	assert.Equal(t, "2.00", aliceSplit.TaxAndTip.String())
	require.Len(t, aliceSplit.Items, 1)
	assert.Equal(t, "Pizza", aliceSplit.Items[0].Label)
}

func TestPreviewSplit_CategoryWeighted(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	resp, err := env.split.PreviewSplit(context.Background(), as(alice, &PreviewSplitRequest{
		Split: SplitInput{
			Mode:         "category_weighted",
			Participants: []ParticipantInput{alice.participant(), bob.participant()},
			Items: []LineItemInput{
				{Label: "Double", Amount: money.MustParse("100.00"), Quantity: 2},
				{Label: "Single", Amount: money.MustParse("50.00")},
			},
		},
	}))
	require.NoError(t, err)

	assert.Equal(t, "250.00", resp.Msg.Total.String())
	assert.Equal(t, map[string]string{alice.ID: "125.00", bob.ID: "125.00"}, owed(resp.Msg.Shares))
}

func TestPreviewSplit_Errors(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	both := []ParticipantInput{alice.participant(), bob.participant()}

	tests := []struct {
		name  string
		split SplitInput
	}{
		{
			name: "explicit amounts exceed total",
			split: SplitInput{
				Mode:            "explicit",
				Total:           money.MustParse("50.00"),
				Participants:    both,
				ExplicitAmounts: map[string]money.Money{bob.ID: money.MustParse("60.00")},
			},
		},
		{
			name:  "missing mode",
			split: SplitInput{Total: money.MustParse("10.00"), Participants: both},
		},
		{
			name:  "no participants",
			split: SplitInput{Mode: "equal", Total: money.MustParse("10.00")},
		},
		{
			name:  "bad tax percent",
			split: SplitInput{Mode: "itemized", Participants: both, TaxPercent: "abc"},
		},
		{
			name: "item assigned to a stranger",
			split: SplitInput{
				Mode:         "itemized",
				Participants: both,
				Items: []LineItemInput{
					{Label: "Wine", Amount: money.MustParse("30.00"), ParticipantIDs: []string{"carol"}},
				},
			},
		},
		{
			name: "quantity above the limit",
			split: SplitInput{
				Mode:         "category_weighted",
				Participants: both,
				Items:        []LineItemInput{{Label: "Room", Amount: 4, Quantity: 1<<62 + 1}},
			},
		},
		{
			name: "item total above the ceiling",
			split: SplitInput{
				Mode:         "itemized",
				Participants: both,
				Items: []LineItemInput{
					{Label: "Yacht", Amount: money.MaxMoney, Quantity: 2048, ParticipantIDs: []string{alice.ID}},
				},
			},
		},
		{
			name:  "tax percent in exponent form",
			split: SplitInput{Mode: "itemized", Participants: both, TaxPercent: "1e20"},
		},
		{
			name: "explicit amount for the remainder payer",
			split: SplitInput{
				Mode:         "explicit",
				Total:        money.MustParse("50.00"),
				Participants: both,
				ExplicitAmounts: map[string]money.Money{
					alice.ID: money.MustParse("10.00"),
					bob.ID:   money.MustParse("10.00"),
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.split.PreviewSplit(context.Background(), as(alice, &PreviewSplitRequest{Split: tt.split}))
			require.Error(t, err)
			assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
		})
	}

	n, err := testutil.GatherAndCount(env.registry, "splitkit_split_failures_total")
	require.NoError(t, err)
	assert.Greater(t, n, 1)
}

func TestPreviewSplit_Unauthenticated(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.split.PreviewSplit(context.Background(), connect.NewRequest(&PreviewSplitRequest{
		Split: SplitInput{Mode: "equal", Total: money.MustParse("10.00")},
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}

func TestCreateBill_AndGetBill(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")

	created := env.createBill(t, alice, "sports", "30.00", bob)
	bill := created.Bill

	assert.NotEmpty(t, bill.ID)
	assert.Equal(t, "Split with alice, bob", bill.Description)
	assert.Equal(t, alice.ID, bill.CreatedBy)
	assert.True(t, testNow.Equal(bill.CreatedAt))
	assert.Equal(t, models.CategorySports, bill.Category)
	assert.Equal(t, models.ModeEqual, bill.Mode)
	assert.True(t, bill.SplitEqually)
	assert.Equal(t, bill.Total, models.SumShares(bill.Shares))

	require.NotNil(t, created.Details)
	assert.Equal(t, models.CategorySports, created.Details.Type)
	assert.True(t, created.Details.SplitEqually)

	got, err := env.split.GetBill(context.Background(), as(bob, &GetBillRequest{BillID: bill.ID}))
	require.NoError(t, err)
	assert.Equal(t, bill.ID, got.Msg.Bill.ID)
	assert.Equal(t, owed(bill.Shares), owed(got.Msg.Bill.Shares))
	assert.Equal(t, created.Details, got.Msg.Details)

	_, err = env.split.GetBill(context.Background(), as(carol, &GetBillRequest{BillID: bill.ID}))
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	_, err = env.split.GetBill(context.Background(), as(alice, &GetBillRequest{BillID: "nonexistent-id"}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = env.split.GetBill(context.Background(), as(alice, &GetBillRequest{}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	n, err := testutil.GatherAndCount(env.registry, "splitkit_bills_created_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateBill_WeightedManualReceipt(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	created, err := env.split.CreateBill(context.Background(), as(alice, &CreateBillRequest{
		Category: string(models.CategoryManualReceipt),
		Split: SplitInput{
			Mode:         "category_weighted",
			Participants: []ParticipantInput{alice.participant(), bob.participant()},
			Items:        []LineItemInput{{Label: "Dinner", Amount: money.MustParse("10.00")}},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{alice.ID: "5.00", bob.ID: "5.00"}, owed(created.Msg.Bill.Shares))
	require.NotNil(t, created.Msg.Details)
	require.Len(t, created.Msg.Details.Items, 1)
	assert.Empty(t, created.Msg.Details.Items[0].Participants)

	got, err := env.split.GetBill(context.Background(), as(bob, &GetBillRequest{BillID: created.Msg.Bill.ID}))
	require.NoError(t, err)
	assert.Equal(t, created.Msg.Details, got.Msg.Details)
}

func TestCreateBill_DefaultsAndDescription(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	resp, err := env.split.CreateBill(context.Background(), as(alice, &CreateBillRequest{
		Description: "  Dinner at Luigi's ",
		Split: SplitInput{
			Mode:         "itemized",
			Participants: []ParticipantInput{alice.participant(), bob.participant()},
			Items: []LineItemInput{
				{Label: "Pizza", Amount: money.MustParse("10.00"), Quantity: 2, ParticipantIDs: []string{alice.ID, bob.ID}},
			},
			TipPercent: "15",
		},
	}))
	require.NoError(t, err)

	bill := resp.Msg.Bill
	assert.Equal(t, "Dinner at Luigi's", bill.Description)
	assert.Equal(t, models.CategoryRegular, bill.Category)
	assert.Equal(t, "23.00", bill.Total.String())
	assert.Equal(t, "3.00", bill.Tip.String())
	require.Len(t, bill.Items, 1)
	assert.Equal(t, int64(2), bill.Items[0].Quantity)
	assert.Equal(t, map[string]string{alice.ID: "11.50", bob.ID: "11.50"}, owed(bill.Shares))
}

func TestCreateBill_CreatorMustParticipate(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")

	_, err := env.split.CreateBill(context.Background(), as(alice, &CreateBillRequest{
		Split: SplitInput{
			Mode:         "equal",
			Total:        money.MustParse("20.00"),
			Participants: []ParticipantInput{bob.participant(), carol.participant()},
		},
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	list, err := env.split.ListBills(context.Background(), as(bob, &ListBillsRequest{}))
	require.NoError(t, err)
	assert.Empty(t, list.Msg.Bills)
}

func TestCreateBill_InvalidCategory(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice")

	_, err := env.split.CreateBill(context.Background(), as(alice, &CreateBillRequest{
		Category: "groceries",
		Split: SplitInput{
			Mode:         "equal",
			Total:        money.MustParse("20.00"),
			Participants: []ParticipantInput{alice.participant()},
		},
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestListBills(t *testing.T) {
	env := setupTestServer(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	carol := env.register(t, "carol")

	first := env.createBill(t, alice, "sports", "20.00", bob)
	second := env.createBill(t, bob, "entertainment", "30.00", carol)
	third := env.createBill(t, carol, "sports", "40.00", alice)

	ids := func(resp *connect.Response[ListBillsResponse]) []string {
		out := make([]string, len(resp.Msg.Bills))
		for i, b := range resp.Msg.Bills {
			out[i] = b.ID
		}
		return out
	}

	resp, err := env.split.ListBills(context.Background(), as(alice, &ListBillsRequest{}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{first.Bill.ID, third.Bill.ID}, ids(resp))

	resp, err = env.split.ListBills(context.Background(), as(bob, &ListBillsRequest{Category: "entertainment"}))
	require.NoError(t, err)
	assert.Equal(t, []string{second.Bill.ID}, ids(resp))

	resp, err = env.split.ListBills(context.Background(), as(carol, &ListBillsRequest{Limit: 1}))
	require.NoError(t, err)
	assert.Len(t, resp.Msg.Bills, 1)

	since := testNow.Add(time.Hour)
	until := testNow
	_, err = env.split.ListBills(context.Background(), as(alice, &ListBillsRequest{Since: &since, Until: &until}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}
