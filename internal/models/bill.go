package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitkit/internal/money"
)

// SplitMode selects how a bill total is allocated among participants.
type SplitMode string

const (
	// ModeEqual divides the total evenly.
	ModeEqual SplitMode = "equal"

	// ModeExplicit takes a fixed amount for everyone except the remainder payer,
	// who covers whatever is left.
	ModeExplicit SplitMode = "explicit"

	// ModeItemized splits each receipt line among its assignees, then
	// apportions tax and tip by subtotal.
	ModeItemized SplitMode = "itemized"

	// ModeCategoryWeighted sums cost buckets into a total, then splits that
	// total with Equal or Explicit.
	ModeCategoryWeighted SplitMode = "category_weighted"
)

// Valid reports whether m is a known mode.
func (m SplitMode) Valid() bool {
	switch m {
	case ModeEqual, ModeExplicit, ModeItemized, ModeCategoryWeighted:
		return true
	}
	return false
}

// Category is the kind of expense a bill records.
// The string values match the legacy "type" tag of stored bills.
type Category string

const (
	CategoryRegular       Category = "regular"
	CategoryManualReceipt Category = "manual-receipt"
	CategorySports        Category = "sports"
	CategoryEntertainment Category = "entertainment"
	CategoryAccommodation Category = "accommodation"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryRegular,
	CategoryManualReceipt,
	CategorySports,
	CategoryEntertainment,
	CategoryAccommodation,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory converts a string to a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Participant is someone taking part in a split. IDs are opaque and unique
// within one split request.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// LineItem is a priced line on a receipt (itemized mode) or a cost bucket
// such as a room type, ticket tier or expense category (category-weighted
// mode). ParticipantIDs is only used by itemized splits.
type LineItem struct {
	Label          string      `json:"label"`
	Amount         money.Money `json:"amount"`
	Quantity       int64       `json:"quantity"`
	ParticipantIDs []string    `json:"participant_ids,omitempty"`
}

// Total returns Amount × Quantity. It fails when the product is above
// money.MaxMoney.
func (li LineItem) Total() (money.Money, error) {
	return li.Amount.Mul(li.Quantity)
}

// SplitRequest is the input to a split strategy.
type SplitRequest struct {
	Mode SplitMode

	// Total is required for Equal and Explicit. Itemized and CategoryWeighted
	// derive it from LineItems and ignore this field.
	Total money.Money

	// Participants is ordered; remainder cents are assigned in this order.
	Participants []Participant

	// ExplicitAmounts maps participant ID to a fixed amount (Explicit mode,
	// or CategoryWeighted with an Explicit base).
	ExplicitAmounts map[string]money.Money

	// RemainderPayerID covers total minus the explicit amounts. Empty means
	// the bill creator.
	RemainderPayerID string

	LineItems []LineItem

	// TaxRate and TipRate are fractions (0.0825 for 8.25%). Itemized only.
	TaxRate decimal.Decimal
	TipRate decimal.Decimal

	// WeightedBase is the mode used to split a CategoryWeighted total:
	// ModeEqual (default) or ModeExplicit.
	WeightedBase SplitMode
}

// Bill is a confirmed split. It is created once and never modified.
// Invariant: the owed amounts in Shares sum to Total exactly.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string `json:"id"`

	// Description is the human-readable name, generated from participant
	// names when the creator leaves it blank.
	Description string `json:"description"`

	// Total is the final amount including tax and tip.
	Total money.Money `json:"total"`

	// CreatedBy is the participant ID of the creator, who paid the bill.
	CreatedBy string `json:"created_by"`

	CreatedAt time.Time `json:"created_at"`
	Category  Category  `json:"category"`
	Mode      SplitMode `json:"mode"`

	// SplitEqually mirrors the legacy flag: true unless amounts were explicit.
	SplitEqually bool `json:"split_equally"`

	Participants []Participant `json:"participants"`

	// Shares is ordered like Participants.
	Shares []Share `json:"shares"`

	// Subtotal, Tax and Tip are populated for itemized bills; for the other
	// modes Subtotal equals Total.
	Subtotal money.Money     `json:"subtotal"`
	Tax      money.Money     `json:"tax"`
	Tip      money.Money     `json:"tip"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	TipRate  decimal.Decimal `json:"tip_rate"`

	Items     []LineItem    `json:"items,omitempty"`
	Breakdown []PersonSplit `json:"breakdown,omitempty"`
}

// ShareOf returns the owed amount for a participant and whether they are on the bill.
func (b *Bill) ShareOf(participantID string) (money.Money, bool) {
	for _, s := range b.Shares {
		if s.ParticipantID == participantID {
			return s.OwedAmount, true
		}
	}
	return 0, false
}

// HasParticipant reports whether id is on the bill, as creator or participant.
func (b *Bill) HasParticipant(id string) bool {
	if b.CreatedBy == id {
		return true
	}
	for _, p := range b.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

// ParticipantName returns the display name for id, or id itself when unknown.
func (b *Bill) ParticipantName(id string) string {
	for _, p := range b.Participants {
		if p.ID == id && p.DisplayName != "" {
			return p.DisplayName
		}
	}
	return id
}
