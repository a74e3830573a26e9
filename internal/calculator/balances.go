package calculator

import (
	"cmp"
	"slices"

	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/money"
)

// MemberBalance represents the balance information for one participant.
type MemberBalance struct {
	ParticipantID string      `json:"participant_id"`
	DisplayName   string      `json:"display_name"`
	NetBalance    money.Money `json:"net_balance"` // Positive = owed money, Negative = owes money
	TotalPaid     money.Money `json:"total_paid"`  // Total amount paid across all bills
	TotalOwed     money.Money `json:"total_owed"`  // Total amount this person owes
}

// DebtEdge represents a debt from one person to another.
type DebtEdge struct {
	From   string      `json:"from"` // Person who owes
	To     string      `json:"to"`   // Person who is owed
	Amount money.Money `json:"amount"`
}

// CalculateBalances computes balances across bills. The creator of a bill
// paid its total; every participant owes their share (the creator's own
// share cancels out part of what they paid).
//
// Algorithm:
//   - For each bill: creator contributed +total, each participant owes their share
//   - Aggregate: net_balance = total_paid - total_owed
//   - Debt list: greedy matching of largest debtor against largest creditor
//
// Output is sorted so the same bills always produce the same edges.
func CalculateBalances(bills []*models.Bill) ([]MemberBalance, []DebtEdge) {
	balances := make(map[string]*MemberBalance)
	member := func(id, name string) *MemberBalance {
		bal, ok := balances[id]
		if !ok {
			bal = &MemberBalance{ParticipantID: id, DisplayName: name}
			balances[id] = bal
		}
		return bal
	}

	for _, bill := range bills {
		if bill.CreatedBy == "" {
			continue
		}
		payer := member(bill.CreatedBy, bill.ParticipantName(bill.CreatedBy))
		payer.TotalPaid = payer.TotalPaid.Add(bill.Total)

		for _, share := range bill.Shares {
			owes := member(share.ParticipantID, bill.ParticipantName(share.ParticipantID))
			owes.TotalOwed = owes.TotalOwed.Add(share.OwedAmount)
		}
	}

	memberBalances := make([]MemberBalance, 0, len(balances))
	for _, bal := range balances {
		bal.NetBalance = bal.TotalPaid.Sub(bal.TotalOwed)
		memberBalances = append(memberBalances, *bal)
	}
	slices.SortFunc(memberBalances, func(a, b MemberBalance) int {
		return cmp.Compare(a.ParticipantID, b.ParticipantID)
	})

	// Split into creditors (owed money) and debtors (owe money), largest first.
	var creditors, debtors []MemberBalance
	for _, bal := range memberBalances {
		if bal.NetBalance > 0 {
			creditors = append(creditors, bal)
		} else if bal.NetBalance < 0 {
			bal.NetBalance = -bal.NetBalance
			debtors = append(debtors, bal)
		}
	}
	byAmount := func(a, b MemberBalance) int {
		if c := cmp.Compare(b.NetBalance, a.NetBalance); c != 0 {
			return c
		}
		return cmp.Compare(a.ParticipantID, b.ParticipantID)
	}
	slices.SortFunc(creditors, byAmount)
	slices.SortFunc(debtors, byAmount)

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := min(debtors[i].NetBalance, creditors[j].NetBalance)
		edges = append(edges, DebtEdge{
			From:   debtors[i].ParticipantID,
			To:     creditors[j].ParticipantID,
			Amount: amount,
		})

		debtors[i].NetBalance -= amount
		creditors[j].NetBalance -= amount
		if debtors[i].NetBalance == 0 {
			i++
		}
		if creditors[j].NetBalance == 0 {
			j++
		}
	}

	return memberBalances, edges
}
