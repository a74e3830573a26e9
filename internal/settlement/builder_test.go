package settlement

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitkit/internal/calculator"
	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/money"
)

var fixedTime = time.Date(2026, time.March, 14, 19, 30, 0, 0, time.UTC)

func newTestBuilder() *Builder {
	return NewBuilder(
		WithClock(func() time.Time { return fixedTime }),
		WithIDGenerator(func() string { return "bill-1" }),
	)
}

func people(ids ...string) []models.Participant {
	ps := make([]models.Participant, len(ids))
	for i, id := range ids {
		ps[i] = models.Participant{ID: id, DisplayName: id}
	}
	return ps
}

func TestBuildBill_Equal(t *testing.T) {
	b := newTestBuilder()

	bill, err := b.BuildBill(models.SplitRequest{
		Mode:         models.ModeEqual,
		Total:        money.MustParse("10.00"),
		Participants: people("Alice", "Bob", "Charlie"),
	}, "Dinner", models.CategoryRegular, "Alice")
	require.NoError(t, err)

	assert.Equal(t, "bill-1", bill.ID)
	assert.Equal(t, "Dinner", bill.Description)
	assert.Equal(t, fixedTime, bill.CreatedAt)
	assert.Equal(t, "Alice", bill.CreatedBy)
	assert.Equal(t, models.CategoryRegular, bill.Category)
	assert.True(t, bill.SplitEqually)
	assert.Equal(t, money.MustParse("10.00"), bill.Total)
	assert.Equal(t, []models.Share{
		{ParticipantID: "Alice", OwedAmount: 334},
		{ParticipantID: "Bob", OwedAmount: 333},
		{ParticipantID: "Charlie", OwedAmount: 333},
	}, bill.Shares)
}

func TestBuildBill_Itemized(t *testing.T) {
	b := newTestBuilder()
	items := []models.LineItem{
		{Label: "Platter", Amount: money.MustParse("30.00"), Quantity: 1, ParticipantIDs: []string{"A", "B"}},
	}

	bill, err := b.BuildBill(models.SplitRequest{
		Mode:      models.ModeItemized,
		LineItems: items,
		TaxRate:   decimal.RequireFromString("0.10"),
	}, "Receipt from Luigi's", models.CategoryManualReceipt, "A")
	require.NoError(t, err)

	assert.Equal(t, money.MustParse("33.00"), bill.Total)
	assert.Equal(t, money.MustParse("30.00"), bill.Subtotal)
	assert.Equal(t, money.MustParse("3.00"), bill.Tax)
	assert.False(t, bill.SplitEqually)
	assert.Equal(t, items, bill.Items)
	assert.True(t, bill.TaxRate.Equal(decimal.RequireFromString("0.10")))
	require.Len(t, bill.Breakdown, 2)
	assert.Equal(t, money.MustParse("1.50"), bill.Breakdown[1].TaxAndTip)
}

func TestBuildBill_GeneratesDescription(t *testing.T) {
	tests := []struct {
		participants []models.Participant
		want         string
	}{
		{people("Alice"), "Split with Alice"},
		{people("Alice", "Bob", "Charlie"), "Split with Alice, Bob, Charlie"},
		{people("Alice", "Bob", "Charlie", "Diana"), "Split with Alice, Bob and 2 others"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			bill, err := newTestBuilder().BuildBill(models.SplitRequest{
				Mode:         models.ModeEqual,
				Total:        money.MustParse("40.00"),
				Participants: tt.participants,
			}, "  ", models.CategoryRegular, "Alice")
			require.NoError(t, err)
			assert.Equal(t, tt.want, bill.Description)
		})
	}

	assert.Equal(t, "Bill - Mar 14, 2026", generateTitle(nil, fixedTime))
}

func TestBuildBill_RejectsInvalidInput(t *testing.T) {
	b := newTestBuilder()
	req := models.SplitRequest{
		Mode:         models.ModeEqual,
		Total:        money.MustParse("10.00"),
		Participants: people("Alice"),
	}

	_, err := b.BuildBill(req, "x", "groceries", "Alice")
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = b.BuildBill(req, "x", models.CategorySports, "")
	assert.ErrorIs(t, err, ErrMissingCreator)

	req.Participants = nil
	_, err = b.BuildBill(req, "x", models.CategorySports, "Alice")
	assert.ErrorIs(t, err, calculator.ErrNoParticipants)
}

func TestBuildBill_InvariantViolation(t *testing.T) {
	tests := []struct {
		name   string
		result *calculator.Result
	}{
		{
			name: "shares do not add up",
			result: &calculator.Result{
				Total:        1000,
				Participants: people("Alice", "Bob"),
				Shares: []models.Share{
					{ParticipantID: "Alice", OwedAmount: 500},
					{ParticipantID: "Bob", OwedAmount: 499},
				},
			},
		},
		{
			name: "negative share",
			result: &calculator.Result{
				Total:        1000,
				Participants: people("Alice", "Bob"),
				Shares: []models.Share{
					{ParticipantID: "Alice", OwedAmount: 1100},
					{ParticipantID: "Bob", OwedAmount: -100},
				},
			},
		},
		{
			name: "share for the wrong participant",
			result: &calculator.Result{
				Total:        1000,
				Participants: people("Alice", "Bob"),
				Shares: []models.Share{
					{ParticipantID: "Bob", OwedAmount: 500},
					{ParticipantID: "Alice", OwedAmount: 500},
				},
			},
		},
		{
			name: "missing share",
			result: &calculator.Result{
				Total:        1000,
				Participants: people("Alice", "Bob"),
				Shares:       []models.Share{{ParticipantID: "Alice", OwedAmount: 1000}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder()
			b.calculate = func(models.SplitRequest, string) (*calculator.Result, error) {
				return tt.result, nil
			}

			bill, err := b.BuildBill(models.SplitRequest{Mode: models.ModeEqual}, "x", models.CategoryRegular, "Alice")
			assert.ErrorIs(t, err, ErrSettlementInvariantViolation)
			assert.Nil(t, bill)
		})
	}
}

func sweepIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	return ids
}

func TestPreview_Conservation(t *testing.T) {
	b := newTestBuilder()
	taxRate := decimal.RequireFromString("0.0825")
	tipRate := decimal.RequireFromString("0.18")

	for total := money.Money(1); total < 5000; total += 311 {
		for n := 1; n <= 6; n++ {
			ids := sweepIDs(n)

			t.Run("equal", func(t *testing.T) {
				res, err := b.Preview(models.SplitRequest{
					Mode:         models.ModeEqual,
					Total:        total,
					Participants: people(ids...),
				}, "a")
				require.NoError(t, err)
				assert.Equal(t, total, models.SumShares(res.Shares))
			})

			t.Run("explicit", func(t *testing.T) {
				amounts := make(map[string]money.Money, n-1)
				for i, id := range ids[1:] {
					amount := total / money.Money(2*n)
					if total >= money.Money(2*n) {
						amount += money.Money(i % 2)
					}
					amounts[id] = amount
				}
				res, err := b.Preview(models.SplitRequest{
					Mode:            models.ModeExplicit,
					Total:           total,
					Participants:    people(ids...),
					ExplicitAmounts: amounts,
				}, "a")
				require.NoError(t, err)
				assert.Equal(t, total, models.SumShares(res.Shares))
			})

			// Uneven assignments: everyone shares the first item, the first
			// half share the second and the last person takes the third alone.
			items := []models.LineItem{
				{Label: "shared", Amount: total, Quantity: 1, ParticipantIDs: ids},
				{Label: "half", Amount: total/3 + 7, Quantity: 2, ParticipantIDs: ids[:max(1, n/2)]},
				{Label: "solo", Amount: 99, Quantity: 3, ParticipantIDs: ids[n-1:]},
			}
			itemSum := total + (total/3+7)*2 + 99*3

			t.Run("itemized", func(t *testing.T) {
				res, err := b.Preview(models.SplitRequest{
					Mode:         models.ModeItemized,
					Participants: people(ids...),
					LineItems:    items,
					TaxRate:      taxRate,
					TipRate:      tipRate,
				}, "a")
				require.NoError(t, err)
				assert.Equal(t, itemSum, res.Subtotal)
				assert.Equal(t, res.Subtotal+res.Tax+res.Tip, res.Total)
				assert.Equal(t, res.Total, models.SumShares(res.Shares))

				var subtotals, extras money.Money
				for _, person := range res.Breakdown {
					assert.Equal(t, person.Subtotal+person.TaxAndTip, person.Total)
					subtotals += person.Subtotal
					extras += person.TaxAndTip
				}
				assert.Equal(t, res.Subtotal, subtotals)
				assert.Equal(t, res.Tax+res.Tip, extras)
			})

			for _, base := range []models.SplitMode{models.ModeEqual, models.ModeExplicit} {
				t.Run("category weighted "+string(base), func(t *testing.T) {
					amounts := map[string]money.Money{}
					if base == models.ModeExplicit {
						for _, id := range ids[1:] {
							amounts[id] = total / money.Money(n)
						}
					}
					res, err := b.Preview(models.SplitRequest{
						Mode:            models.ModeCategoryWeighted,
						WeightedBase:    base,
						Participants:    people(ids...),
						LineItems:       items,
						ExplicitAmounts: amounts,
					}, "a")
					require.NoError(t, err)
					assert.Equal(t, itemSum, res.Total)
					assert.Equal(t, itemSum, models.SumShares(res.Shares))
				})
			}
		}
	}
}

func TestPreview_RejectsOutOfRangeAmounts(t *testing.T) {
	b := newTestBuilder()
	ab := people("a", "b")

	tests := []struct {
		name    string
		req     models.SplitRequest
		wantErr error
	}{
		{
			name: "bucket quantity wraps int64",
			req: models.SplitRequest{
				Mode:         models.ModeCategoryWeighted,
				Participants: ab,
				LineItems:    []models.LineItem{{Label: "room", Amount: 4, Quantity: 1<<62 + 1}},
			},
			wantErr: calculator.ErrInvalidItem,
		},
		{
			name: "bucket sum above ceiling",
			req: models.SplitRequest{
				Mode:         models.ModeCategoryWeighted,
				Participants: ab,
				LineItems: []models.LineItem{
					{Label: "one", Amount: money.MaxMoney, Quantity: 1},
					{Label: "two", Amount: 1, Quantity: 1},
				},
			},
			wantErr: calculator.ErrInvalidItem,
		},
		{
			name: "item product above ceiling",
			req: models.SplitRequest{
				Mode:      models.ModeItemized,
				LineItems: []models.LineItem{{Label: "x", Amount: money.MaxMoney, Quantity: 2048, ParticipantIDs: []string{"a"}}},
			},
			wantErr: calculator.ErrInvalidItem,
		},
		{
			name: "tax above ceiling",
			req: models.SplitRequest{
				Mode:      models.ModeItemized,
				LineItems: []models.LineItem{{Label: "x", Amount: 100, Quantity: 1, ParticipantIDs: []string{"a"}}},
				TaxRate:   decimal.RequireFromString("1e18"),
			},
			wantErr: money.ErrInvalidAmount,
		},
		{
			name: "subtotal plus tip above ceiling",
			req: models.SplitRequest{
				Mode:      models.ModeItemized,
				LineItems: []models.LineItem{{Label: "x", Amount: money.MaxMoney, Quantity: 1, ParticipantIDs: []string{"a"}}},
				TipRate:   decimal.RequireFromString("0.5"),
			},
			wantErr: money.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := b.Preview(tt.req, "a")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, res)
		})
	}
}
