// Package metadata encodes the category-specific details of a bill in the
// legacy JSON shape the mobile client stored next to each transaction.
//
// Every document carries type, participants, splitEqually and total.
// Manual receipts add items, tax, tip, subtotal and personTotals;
// accommodation adds roomDetails, sports adds expenses and entertainment
// adds ticketDetails.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/money"
)

var ErrMalformed = errors.New("malformed bill details")

var hundred = decimal.NewFromInt(100)

// Details is the decoded legacy document.
type Details struct {
	Type          models.Category `json:"type"`
	Participants  []Participant   `json:"participants"`
	SplitEqually  bool            `json:"splitEqually"`
	Total         money.Money     `json:"total"`
	Items         []Item          `json:"items,omitempty"`
	Tax           *Charge         `json:"tax,omitempty"`
	Tip           *Charge         `json:"tip,omitempty"`
	Subtotal      *money.Money    `json:"subtotal,omitempty"`
	PersonTotals  []PersonTotal   `json:"personTotals,omitempty"`
	RoomDetails   *RoomDetails    `json:"roomDetails,omitempty"`
	Expenses      []Expense       `json:"expenses,omitempty"`
	TicketDetails *TicketDetails  `json:"ticketDetails,omitempty"`
}

type Participant struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Amount money.Money `json:"amount"`
}

// Item is a receipt line with each assignee's share of it.
type Item struct {
	Name         string      `json:"name"`
	Price        money.Money `json:"price"`
	Quantity     int64       `json:"quantity"`
	Participants []ItemShare `json:"participants"`
}

type ItemShare struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Share money.Money `json:"share"`
}

// Charge is a tax or tip line. Percent is written as a plain JSON number
// (8.25 for 8.25%).
type Charge struct {
	Percent json.Number `json:"percent"`
	Amount  money.Money `json:"amount"`
}

type PersonTotal struct {
	ID             string      `json:"id"`
	Subtotal       money.Money `json:"subtotal"`
	TaxAndTipShare money.Money `json:"taxAndTipShare"`
	Total          money.Money `json:"total"`
}

type RoomDetails struct {
	Types []string      `json:"types"`
	Costs []money.Money `json:"costs"`
}

type Expense struct {
	Name   string      `json:"name"`
	Amount money.Money `json:"amount"`
}

type TicketDetails struct {
	Categories []TicketCategory `json:"categories"`
}

type TicketCategory struct {
	Name     string      `json:"name"`
	Price    money.Money `json:"price"`
	Quantity int64       `json:"quantity"`
}

// Build maps a bill onto its legacy document.
func Build(bill *models.Bill) (*Details, error) {
	d := &Details{
		Type:         bill.Category,
		SplitEqually: bill.SplitEqually,
		Total:        bill.Total,
		Participants: make([]Participant, len(bill.Participants)),
	}
	for i, p := range bill.Participants {
		owed, _ := bill.ShareOf(p.ID)
		d.Participants[i] = Participant{ID: p.ID, Name: p.DisplayName, Amount: owed}
	}

	switch bill.Category {
	case models.CategoryManualReceipt:
		if err := addReceipt(d, bill); err != nil {
			return nil, err
		}
	case models.CategoryAccommodation:
		rooms := &RoomDetails{Types: []string{}, Costs: []money.Money{}}
		for _, item := range bill.Items {
			cost, err := lineTotal(item)
			if err != nil {
				return nil, err
			}
			rooms.Types = append(rooms.Types, item.Label)
			rooms.Costs = append(rooms.Costs, cost)
		}
		d.RoomDetails = rooms
	case models.CategorySports:
		d.Expenses = []Expense{}
		for _, item := range bill.Items {
			amount, err := lineTotal(item)
			if err != nil {
				return nil, err
			}
			d.Expenses = append(d.Expenses, Expense{Name: item.Label, Amount: amount})
		}
	case models.CategoryEntertainment:
		tickets := &TicketDetails{Categories: []TicketCategory{}}
		for _, item := range bill.Items {
			tickets.Categories = append(tickets.Categories, TicketCategory{
				Name:     item.Label,
				Price:    item.Amount,
				Quantity: item.Quantity,
			})
		}
		d.TicketDetails = tickets
	}
	return d, nil
}

func addReceipt(d *Details, bill *models.Bill) error {
	d.Items = make([]Item, len(bill.Items))
	for i, item := range bill.Items {
		shares, err := itemShares(bill, item)
		if err != nil {
			return err
		}
		d.Items[i] = Item{Name: item.Label, Price: item.Amount, Quantity: item.Quantity, Participants: shares}
	}

	subtotal := bill.Subtotal
	d.Subtotal = &subtotal
	d.Tax = &Charge{Percent: percent(bill.TaxRate), Amount: bill.Tax}
	d.Tip = &Charge{Percent: percent(bill.TipRate), Amount: bill.Tip}

	d.PersonTotals = make([]PersonTotal, len(bill.Breakdown))
	for i, person := range bill.Breakdown {
		d.PersonTotals[i] = PersonTotal{
			ID:             person.ParticipantID,
			Subtotal:       person.Subtotal,
			TaxAndTipShare: person.TaxAndTip,
			Total:          person.Total,
		}
	}
	return nil
}

// itemShares divides an item among its assignees. Items on a receipt filed
// under a non-itemized split have no assignees and get an empty list.
func itemShares(bill *models.Bill, item models.LineItem) ([]ItemShare, error) {
	shares := make([]ItemShare, len(item.ParticipantIDs))
	if len(shares) == 0 {
		return shares, nil
	}
	total, err := lineTotal(item)
	if err != nil {
		return nil, err
	}
	weights := make([]int64, len(item.ParticipantIDs))
	for j := range weights {
		weights[j] = 1
	}
	parts, err := money.DivideProportionally(total, weights)
	if err != nil {
		return nil, fmt.Errorf("item %q: %w", item.Label, err)
	}
	for j, id := range item.ParticipantIDs {
		shares[j] = ItemShare{ID: id, Name: bill.ParticipantName(id), Share: parts[j]}
	}
	return shares, nil
}

func lineTotal(item models.LineItem) (money.Money, error) {
	total, err := item.Total()
	if err != nil {
		return 0, fmt.Errorf("item %q: %w", item.Label, err)
	}
	return total, nil
}

func percent(rate decimal.Decimal) json.Number {
	return json.Number(rate.Mul(hundred).String())
}

// Encode returns the legacy JSON string for bill.
func Encode(bill *models.Bill) (string, error) {
	d, err := Build(bill)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to encode bill details: %w", err)
	}
	return string(data), nil
}

// Decode parses a legacy JSON string. A missing or unrecognised type is
// read as a regular bill.
func Decode(s string) (*Details, error) {
	var d Details
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if !d.Type.Valid() {
		d.Type = models.CategoryRegular
	}
	return &d, nil
}

// CategoryOf returns the category tag of a legacy JSON string, falling back
// to regular for anything it cannot read.
func CategoryOf(s string) models.Category {
	var head struct {
		Type models.Category `json:"type"`
	}
	if err := json.Unmarshal([]byte(s), &head); err != nil || !head.Type.Valid() {
		return models.CategoryRegular
	}
	return head.Type
}

// Rate converts a legacy percent back into a fraction.
func (c *Charge) Rate() (decimal.Decimal, error) {
	if c == nil || c.Percent == "" {
		return decimal.Zero, nil
	}
	p, err := decimal.NewFromString(c.Percent.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: percent %q", ErrMalformed, c.Percent)
	}
	return p.Div(hundred), nil
}
