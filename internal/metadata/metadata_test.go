package metadata

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/money"
)

func receiptBill() *models.Bill {
	return &models.Bill{
		ID:       "b1",
		Total:    money.MustParse("33.00"),
		Category: models.CategoryManualReceipt,
		Mode:     models.ModeItemized,
		Participants: []models.Participant{
			{ID: "u1", DisplayName: "Alice"},
			{ID: "u2", DisplayName: "Bob"},
		},
		Shares: []models.Share{
			{ParticipantID: "u1", OwedAmount: money.MustParse("16.50")},
			{ParticipantID: "u2", OwedAmount: money.MustParse("16.50")},
		},
		Subtotal: money.MustParse("30.00"),
		Tax:      money.MustParse("3.00"),
		TaxRate:  decimal.RequireFromString("0.1"),
		Items: []models.LineItem{
			{Label: "Platter", Amount: money.MustParse("30.00"), Quantity: 1, ParticipantIDs: []string{"u1", "u2"}},
		},
		Breakdown: []models.PersonSplit{
			{ParticipantID: "u1", Subtotal: 1500, TaxAndTip: 150, Total: 1650},
			{ParticipantID: "u2", Subtotal: 1500, TaxAndTip: 150, Total: 1650},
		},
	}
}

func TestEncode_ManualReceipt(t *testing.T) {
	s, err := Encode(receiptBill())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "manual-receipt",
		"participants": [
			{"id": "u1", "name": "Alice", "amount": 16.50},
			{"id": "u2", "name": "Bob", "amount": 16.50}
		],
		"splitEqually": false,
		"total": 33.00,
		"items": [{
			"name": "Platter", "price": 30.00, "quantity": 1,
			"participants": [
				{"id": "u1", "name": "Alice", "share": 15.00},
				{"id": "u2", "name": "Bob", "share": 15.00}
			]
		}],
		"tax": {"percent": 10, "amount": 3.00},
		"tip": {"percent": 0, "amount": 0.00},
		"subtotal": 30.00,
		"personTotals": [
			{"id": "u1", "subtotal": 15.00, "taxAndTipShare": 1.50, "total": 16.50},
			{"id": "u2", "subtotal": 15.00, "taxAndTipShare": 1.50, "total": 16.50}
		]
	}`, s)
}

func TestEncode_ManualReceiptWithoutAssignments(t *testing.T) {
	bill := &models.Bill{
		Total:        money.MustParse("10.00"),
		Category:     models.CategoryManualReceipt,
		Mode:         models.ModeCategoryWeighted,
		SplitEqually: true,
		Participants: []models.Participant{
			{ID: "u1", DisplayName: "Alice"},
			{ID: "u2", DisplayName: "Bob"},
		},
		Shares: []models.Share{
			{ParticipantID: "u1", OwedAmount: 500},
			{ParticipantID: "u2", OwedAmount: 500},
		},
		Subtotal: money.MustParse("10.00"),
		Items: []models.LineItem{
			{Label: "Dinner", Amount: money.MustParse("10.00"), Quantity: 1},
		},
	}

	s, err := Encode(bill)
	require.NoError(t, err)

	d, err := Decode(s)
	require.NoError(t, err)
	require.Len(t, d.Items, 1)
	assert.Equal(t, "Dinner", d.Items[0].Name)
	assert.Empty(t, d.Items[0].Participants)
	assert.Equal(t, money.MustParse("10.00"), d.Total)
}

func TestBuild_ItemOutOfRange(t *testing.T) {
	bill := &models.Bill{
		Category: models.CategoryAccommodation,
		Items:    []models.LineItem{{Label: "Suite", Amount: money.MaxMoney, Quantity: 2}},
	}
	_, err := Build(bill)
	assert.ErrorIs(t, err, money.ErrInvalidAmount)
}

func TestEncode_CategoryExtras(t *testing.T) {
	items := []models.LineItem{
		{Label: "Deluxe", Amount: money.MustParse("120.00"), Quantity: 2},
		{Label: "Standard", Amount: money.MustParse("80.00"), Quantity: 1},
	}
	base := func(c models.Category) *models.Bill {
		return &models.Bill{
			Category:     c,
			SplitEqually: true,
			Total:        money.MustParse("320.00"),
			Participants: []models.Participant{{ID: "u1", DisplayName: "Alice"}},
			Shares:       []models.Share{{ParticipantID: "u1", OwedAmount: money.MustParse("320.00")}},
			Items:        items,
		}
	}

	d, err := Build(base(models.CategoryAccommodation))
	require.NoError(t, err)
	require.NotNil(t, d.RoomDetails)
	assert.Equal(t, []string{"Deluxe", "Standard"}, d.RoomDetails.Types)
	assert.Equal(t, []money.Money{24000, 8000}, d.RoomDetails.Costs)

	d, err = Build(base(models.CategorySports))
	require.NoError(t, err)
	assert.Equal(t, []Expense{{Name: "Deluxe", Amount: 24000}, {Name: "Standard", Amount: 8000}}, d.Expenses)

	d, err = Build(base(models.CategoryEntertainment))
	require.NoError(t, err)
	require.NotNil(t, d.TicketDetails)
	assert.Equal(t, TicketCategory{Name: "Deluxe", Price: 12000, Quantity: 2}, d.TicketDetails.Categories[0])

	d, err = Build(base(models.CategoryRegular))
	require.NoError(t, err)
	assert.Nil(t, d.RoomDetails)
	assert.Nil(t, d.Expenses)
	assert.Nil(t, d.Items)
	assert.True(t, d.SplitEqually)
}

func TestDecode(t *testing.T) {
	s, err := Encode(receiptBill())
	require.NoError(t, err)

	d, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryManualReceipt, d.Type)
	require.Len(t, d.Items, 1)
	assert.Equal(t, money.MustParse("15.00"), d.Items[0].Participants[1].Share)

	rate, err := d.Tax.Rate()
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.1")))

	_, err = Decode("{")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDecode_LegacyDocument(t *testing.T) {
	// Written by the mobile client; extra fields are ignored.
	d, err := Decode(`{"type":"sports","sportType":"Football","expenses":[{"name":"Pitch","amount":"40"}],"participants":[{"id":"1","name":"You","amount":20}],"splitEqually":true}`)
	require.NoError(t, err)
	assert.Equal(t, models.CategorySports, d.Type)
	assert.Equal(t, money.MustParse("40"), d.Expenses[0].Amount)
	assert.Equal(t, money.MustParse("20"), d.Participants[0].Amount)
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		in   string
		want models.Category
	}{
		{`{"type":"accommodation"}`, models.CategoryAccommodation},
		{`{"type":"entertainment","participants":[]}`, models.CategoryEntertainment},
		{`[{"id":1,"name":"You"}]`, models.CategoryRegular},
		{`{"type":"unknown"}`, models.CategoryRegular},
		{`{}`, models.CategoryRegular},
		{``, models.CategoryRegular},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryOf(tt.in))
		})
	}
}
