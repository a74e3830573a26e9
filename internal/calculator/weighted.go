package calculator

import (
	"fmt"

	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/money"
)

// CategoryWeighted sums cost buckets (rooms, ticket tiers, expense
// categories) into a total and splits it with the base mode: Equal
// (the default) or Explicit. Bucket participant assignments are ignored.
func CategoryWeighted(buckets []models.LineItem, base models.SplitMode, participants []models.Participant, amounts map[string]money.Money, remainderPayer string) (*Result, error) {
	var total money.Money
	for i, bucket := range buckets {
		if err := validateItem(i, bucket); err != nil {
			return nil, err
		}
		bucketTotal, err := itemTotal(i, bucket)
		if err != nil {
			return nil, err
		}
		if total, err = total.AddChecked(bucketTotal); err != nil {
			return nil, fmt.Errorf("%w: bucket total: %w", ErrInvalidItem, err)
		}
	}

	var (
		shares []models.Share
		err    error
	)
	switch base {
	case "", models.ModeEqual:
		shares, err = Equal(total, participants)
	case models.ModeExplicit:
		shares, err = Explicit(total, participants, amounts, remainderPayer)
	default:
		return nil, fmt.Errorf("%w: %q cannot split a category-weighted total", ErrUnsupportedMode, base)
	}
	if err != nil {
		return nil, err
	}
	return flatResult(total, participants, shares), nil
}
