// Package calculator computes bill splits in integer cents.
//
// Every strategy returns shares whose owed amounts sum to the effective total
// exactly. Rounding happens in exactly one place: tax and tip are each
// computed once from the subtotal (half up) and then apportioned without loss.
package calculator

import (
	"fmt"
	"maps"
	"slices"

	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/money"
)

// Result is the outcome of a split calculation.
type Result struct {
	// Total is the effective total: the request total for Equal/Explicit,
	// derived from line items otherwise.
	Total money.Money

	// Subtotal is the pre tax/tip amount. Equal to Total except for itemized splits.
	Subtotal money.Money
	Tax      money.Money
	Tip      money.Money

	// Participants is the effective participant list (itemized splits may
	// derive it from item assignments).
	Participants []models.Participant

	// Shares is ordered like Participants.
	Shares []models.Share

	// Breakdown holds per-person detail, ordered like Participants.
	Breakdown []models.PersonSplit
}

// Calculate dispatches the request to the strategy for its mode.
// defaultRemainderPayer is used when the request leaves RemainderPayerID
// empty; by convention it is the bill creator.
func Calculate(req models.SplitRequest, defaultRemainderPayer string) (*Result, error) {
	payer := req.RemainderPayerID
	if payer == "" {
		payer = defaultRemainderPayer
	}

	switch req.Mode {
	case models.ModeEqual:
		shares, err := Equal(req.Total, req.Participants)
		if err != nil {
			return nil, err
		}
		return flatResult(req.Total, req.Participants, shares), nil

	case models.ModeExplicit:
		shares, err := Explicit(req.Total, req.Participants, req.ExplicitAmounts, payer)
		if err != nil {
			return nil, err
		}
		return flatResult(req.Total, req.Participants, shares), nil

	case models.ModeItemized:
		return Itemized(req.LineItems, req.Participants, req.TaxRate, req.TipRate)

	case models.ModeCategoryWeighted:
		return CategoryWeighted(req.LineItems, req.WeightedBase, req.Participants, req.ExplicitAmounts, payer)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, req.Mode)
	}
}

// Equal divides total evenly. The first T mod N participants (in order)
// owe one extra cent.
func Equal(total money.Money, participants []models.Participant) ([]models.Share, error) {
	if err := validateParticipants(participants); err != nil {
		return nil, err
	}
	if total.IsNegative() {
		return nil, fmt.Errorf("%w: total %s is negative", money.ErrInvalidAmount, total)
	}

	weights := make([]int64, len(participants))
	for i := range weights {
		weights[i] = 1
	}
	parts, err := money.DivideProportionally(total, weights)
	if err != nil {
		return nil, err
	}
	return toShares(participants, parts), nil
}

// Explicit gives every participant except remainderPayer the amount in
// amounts; the remainder payer owes total minus the sum of those amounts.
func Explicit(total money.Money, participants []models.Participant, amounts map[string]money.Money, remainderPayer string) ([]models.Share, error) {
	if err := validateParticipants(participants); err != nil {
		return nil, err
	}
	if total.IsNegative() {
		return nil, fmt.Errorf("%w: total %s is negative", money.ErrInvalidAmount, total)
	}
	if !containsParticipant(participants, remainderPayer) {
		return nil, fmt.Errorf("%w: remainder payer %q is not a participant", ErrUnknownParticipant, remainderPayer)
	}

	for _, id := range slices.Sorted(maps.Keys(amounts)) {
		switch {
		case id == remainderPayer:
			return nil, fmt.Errorf("%w: %q", ErrConflictingAmount, id)
		case !containsParticipant(participants, id):
			return nil, fmt.Errorf("%w: explicit amount for %q", ErrUnknownParticipant, id)
		case amounts[id].IsNegative():
			return nil, fmt.Errorf("%w: amount %s for %q is negative", money.ErrInvalidAmount, amounts[id], id)
		}
	}

	shares := make([]models.Share, len(participants))
	payerIndex := 0
	var assigned money.Money
	for i, p := range participants {
		shares[i].ParticipantID = p.ID
		if p.ID == remainderPayer {
			payerIndex = i
			continue
		}
		amount, ok := amounts[p.ID]
		if !ok {
			return nil, fmt.Errorf("%w: participant %q", ErrMissingAmount, p.ID)
		}
		shares[i].OwedAmount = amount
		var err error
		if assigned, err = assigned.AddChecked(amount); err != nil {
			return nil, fmt.Errorf("explicit amounts: %w", err)
		}
	}

	remainder := total.Sub(assigned)
	if remainder.IsNegative() {
		return nil, fmt.Errorf("%w: explicit amounts %s, total %s", ErrNegativeRemainder, assigned, total)
	}
	shares[payerIndex].OwedAmount = remainder
	return shares, nil
}

func flatResult(total money.Money, participants []models.Participant, shares []models.Share) *Result {
	breakdown := make([]models.PersonSplit, len(shares))
	for i, s := range shares {
		breakdown[i] = models.PersonSplit{
			ParticipantID: s.ParticipantID,
			Subtotal:      s.OwedAmount,
			Total:         s.OwedAmount,
		}
	}
	return &Result{
		Total:        total,
		Subtotal:     total,
		Participants: participants,
		Shares:       shares,
		Breakdown:    breakdown,
	}
}

func toShares(participants []models.Participant, parts []money.Money) []models.Share {
	shares := make([]models.Share, len(participants))
	for i, p := range participants {
		shares[i] = models.Share{ParticipantID: p.ID, OwedAmount: parts[i]}
	}
	return shares
}

// validateParticipants checks the list is non-empty with unique, non-empty IDs.
func validateParticipants(participants []models.Participant) error {
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	seen := make(map[string]bool, len(participants))
	for i, p := range participants {
		if p.ID == "" {
			return fmt.Errorf("%w: participant %d has no ID", ErrUnknownParticipant, i)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateParticipant, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

func containsParticipant(participants []models.Participant, id string) bool {
	return slices.ContainsFunc(participants, func(p models.Participant) bool {
		return p.ID == id
	})
}
