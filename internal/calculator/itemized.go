package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/money"
)

// Itemized splits each line item (amount × quantity) equally among its
// assigned participants, then apportions tax and tip by subtotal share.
//
// Algorithm:
//   - per item: item_total divided evenly over item.ParticipantIDs
//   - subtotal = Σ item totals
//   - tax = round_half_up(subtotal × taxRate), tip likewise
//   - tax + tip is divided in proportion to each person's subtotal
//
// When participants is empty the list is derived from item assignments in
// order of first appearance. Otherwise every assignee must be a participant,
// and participants without items owe nothing.
func Itemized(items []models.LineItem, participants []models.Participant, taxRate, tipRate decimal.Decimal) (*Result, error) {
	if taxRate.IsNegative() {
		return nil, fmt.Errorf("%w: tax rate %s is negative", ErrInvalidRate, taxRate)
	}
	if tipRate.IsNegative() {
		return nil, fmt.Errorf("%w: tip rate %s is negative", ErrInvalidRate, tipRate)
	}

	for i, item := range items {
		if err := validateItem(i, item); err != nil {
			return nil, err
		}
		if len(item.ParticipantIDs) == 0 {
			return nil, fmt.Errorf("%w: item %d (%q)", ErrUnassignedItem, i, item.Label)
		}
	}

	if len(participants) == 0 {
		participants = participantsFromItems(items)
	}
	if err := validateParticipants(participants); err != nil {
		return nil, err
	}

	index := make(map[string]int, len(participants))
	breakdown := make([]models.PersonSplit, len(participants))
	for i, p := range participants {
		index[p.ID] = i
		breakdown[i].ParticipantID = p.ID
	}

	var subtotal money.Money
	itemTotals := make([]money.Money, len(items))
	for i, item := range items {
		total, err := itemTotal(i, item)
		if err != nil {
			return nil, err
		}
		if subtotal, err = subtotal.AddChecked(total); err != nil {
			return nil, fmt.Errorf("%w: subtotal: %w", ErrInvalidItem, err)
		}
		itemTotals[i] = total
	}

	for i, item := range items {
		assigned := make(map[string]bool, len(item.ParticipantIDs))
		for _, id := range item.ParticipantIDs {
			if _, ok := index[id]; !ok {
				return nil, fmt.Errorf("%w: %q on item %d (%q)", ErrUnknownParticipant, id, i, item.Label)
			}
			if assigned[id] {
				return nil, fmt.Errorf("%w: %q assigned twice to item %d (%q)", ErrDuplicateParticipant, id, i, item.Label)
			}
			assigned[id] = true
		}

		parts, err := money.DivideProportionally(itemTotals[i], ones(len(item.ParticipantIDs)))
		if err != nil {
			return nil, fmt.Errorf("item %d (%q): %w", i, item.Label, err)
		}
		for j, id := range item.ParticipantIDs {
			person := &breakdown[index[id]]
			person.Subtotal = person.Subtotal.Add(parts[j])
			person.Items = append(person.Items, models.PersonItem{Label: item.Label, Amount: parts[j]})
		}
	}

	tax, err := subtotal.ApplyRate(taxRate)
	if err != nil {
		return nil, fmt.Errorf("tax: %w", err)
	}
	tip, err := subtotal.ApplyRate(tipRate)
	if err != nil {
		return nil, fmt.Errorf("tip: %w", err)
	}
	extrasTotal, err := tax.AddChecked(tip)
	if err != nil {
		return nil, fmt.Errorf("tax and tip: %w", err)
	}
	total, err := subtotal.AddChecked(extrasTotal)
	if err != nil {
		return nil, fmt.Errorf("total: %w", err)
	}

	weights := make([]int64, len(breakdown))
	for i, person := range breakdown {
		weights[i] = person.Subtotal.Cents()
	}
	extras, err := money.DivideProportionally(extrasTotal, weights)
	if err != nil {
		return nil, fmt.Errorf("apportion tax and tip: %w", err)
	}

	shares := make([]models.Share, len(breakdown))
	for i := range breakdown {
		breakdown[i].TaxAndTip = extras[i]
		breakdown[i].Total = breakdown[i].Subtotal.Add(extras[i])
		shares[i] = models.Share{ParticipantID: breakdown[i].ParticipantID, OwedAmount: breakdown[i].Total}
	}

	return &Result{
		Total:        total,
		Subtotal:     subtotal,
		Tax:          tax,
		Tip:          tip,
		Participants: participants,
		Shares:       shares,
		Breakdown:    breakdown,
	}, nil
}

func validateItem(i int, item models.LineItem) error {
	if item.Quantity < 1 {
		return fmt.Errorf("%w: item %d (%q) quantity %d", ErrInvalidItem, i, item.Label, item.Quantity)
	}
	if item.Amount.IsNegative() {
		return fmt.Errorf("%w: item %d (%q) amount %s", ErrInvalidItem, i, item.Label, item.Amount)
	}
	return nil
}

func itemTotal(i int, item models.LineItem) (money.Money, error) {
	total, err := item.Total()
	if err != nil {
		return 0, fmt.Errorf("%w: item %d (%q): %w", ErrInvalidItem, i, item.Label, err)
	}
	return total, nil
}

// participantsFromItems collects assignees in order of first appearance.
// Display names are unknown at this level, so the ID stands in.
func participantsFromItems(items []models.LineItem) []models.Participant {
	var participants []models.Participant
	seen := make(map[string]bool)
	for _, item := range items {
		for _, id := range item.ParticipantIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			participants = append(participants, models.Participant{ID: id, DisplayName: id})
		}
	}
	return participants
}

func ones(n int) []int64 {
	w := make([]int64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}
