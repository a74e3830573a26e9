package models

import "github.com/mmynk/splitkit/internal/money"

// Share is one participant's owed amount on a bill.
type Share struct {
	ParticipantID string      `json:"participant_id"`
	OwedAmount    money.Money `json:"owed_amount"`
}

// PersonItem is one participant's share of a single line item.
type PersonItem struct {
	Label  string      `json:"label"`
	Amount money.Money `json:"amount"`
}

// PersonSplit is the detailed breakdown of one participant's share.
// Only itemized bills populate Items and TaxAndTip.
type PersonSplit struct {
	ParticipantID string `json:"participant_id"`

	// Subtotal is the sum of this person's item shares (pre tax and tip).
	Subtotal money.Money `json:"subtotal"`

	// TaxAndTip is this person's apportioned share of tax plus tip,
	// proportional to Subtotal.
	TaxAndTip money.Money `json:"tax_and_tip"`

	// Total is Subtotal + TaxAndTip, equal to the person's Share.
	Total money.Money `json:"total"`

	Items []PersonItem `json:"items,omitempty"`
}

// SumShares adds up the owed amounts.
func SumShares(shares []Share) money.Money {
	var total money.Money
	for _, s := range shares {
		total = total.Add(s.OwedAmount)
	}
	return total
}
