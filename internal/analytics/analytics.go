// Package analytics aggregates bill history into spending summaries.
//
// Summarize is pure: the caller supplies the window, including "now", so the
// same bills and query always produce the same snapshot.
package analytics

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/money"
)

// Query selects the bills and buckets a snapshot covers.
type Query struct {
	// Since and Until bound the category totals, inclusive. A zero value
	// leaves that side open.
	Since time.Time
	Until time.Time

	// Months is the number of calendar-month buckets to produce, ending with
	// the month containing Until. Bills after Until are left out of the last
	// bucket; Since does not apply to buckets. Zero disables monthly buckets,
	// as does a zero Until.
	Months int

	// Location decides where month boundaries fall. Defaults to UTC.
	Location *time.Location
}

// MonthlyTotal is the spending in one calendar month.
type MonthlyTotal struct {
	Label  string      `json:"label"`  // "Oct"
	Period string      `json:"period"` // "2026-10"
	Start  time.Time   `json:"start"`
	Total  money.Money `json:"total"`
}

// CategoryTotal is one row of the category breakdown.
type CategoryTotal struct {
	Category models.Category `json:"category"`
	Total    money.Money     `json:"total"`
	Count    int             `json:"count"`

	// Percent of the grand total, rounded to one decimal place.
	Percent decimal.Decimal `json:"percent"`
}

// Snapshot is a derived view of bill history. It is never persisted.
type Snapshot struct {
	CategoryTotals map[models.Category]money.Money `json:"category_totals"`
	CategoryCounts map[models.Category]int         `json:"category_counts"`
	MonthlyTotals  []MonthlyTotal                  `json:"monthly_totals"`
	GrandTotal     money.Money                     `json:"grand_total"`
	BillCount      int                             `json:"bill_count"`

	// Average is GrandTotal / BillCount rounded half up; zero without bills.
	Average money.Money `json:"average"`

	// TopCategory has the largest total, ties going to the earlier entry in
	// models.Categories. Empty without bills.
	TopCategory models.Category `json:"top_category,omitempty"`
}

// Summarize computes a snapshot of bills for q.
// An empty bill list yields zero totals, no category entries and zero-valued
// monthly buckets.
func Summarize(bills []*models.Bill, q Query) Snapshot {
	loc := q.Location
	if loc == nil {
		loc = time.UTC
	}

	snap := Snapshot{
		CategoryTotals: make(map[models.Category]money.Money),
		CategoryCounts: make(map[models.Category]int),
		MonthlyTotals:  monthBuckets(q.Until, q.Months, loc),
	}

	for _, bill := range bills {
		for i := range snap.MonthlyTotals {
			if bill.CreatedAt.After(q.Until) {
				break
			}
			bucket := &snap.MonthlyTotals[i]
			if inMonth(bill.CreatedAt, bucket.Start) {
				bucket.Total = bucket.Total.Add(bill.Total)
				break
			}
		}

		if !inWindow(bill.CreatedAt, q.Since, q.Until) {
			continue
		}
		category := bill.Category
		if !category.Valid() {
			category = models.CategoryRegular
		}
		snap.CategoryTotals[category] = snap.CategoryTotals[category].Add(bill.Total)
		snap.CategoryCounts[category]++
		snap.GrandTotal = snap.GrandTotal.Add(bill.Total)
		snap.BillCount++
	}

	snap.Average = snap.GrandTotal.DivRound(int64(snap.BillCount))

	var best money.Money
	for _, c := range models.Categories {
		total, ok := snap.CategoryTotals[c]
		if ok && (snap.TopCategory == "" || total > best) {
			snap.TopCategory, best = c, total
		}
	}
	return snap
}

// Breakdown returns the category totals largest first, with each category's
// share of the grand total.
func (s Snapshot) Breakdown() []CategoryTotal {
	rows := make([]CategoryTotal, 0, len(s.CategoryTotals))
	for _, c := range models.Categories {
		total, ok := s.CategoryTotals[c]
		if !ok {
			continue
		}
		row := CategoryTotal{Category: c, Total: total, Count: s.CategoryCounts[c], Percent: decimal.Zero}
		if s.GrandTotal > 0 {
			row.Percent = total.Decimal().Mul(decimal.NewFromInt(100)).
				Div(s.GrandTotal.Decimal()).Round(1)
		}
		rows = append(rows, row)
	}
	slices.SortStableFunc(rows, func(a, b CategoryTotal) int {
		return cmp.Compare(b.Total, a.Total)
	})
	return rows
}

func monthBuckets(until time.Time, months int, loc *time.Location) []MonthlyTotal {
	if months <= 0 || until.IsZero() {
		return []MonthlyTotal{}
	}
	u := until.In(loc)
	current := time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, loc)

	buckets := make([]MonthlyTotal, months)
	for i := range buckets {
		start := current.AddDate(0, i-months+1, 0)
		buckets[i] = MonthlyTotal{
			Label:  start.Format("Jan"),
			Period: start.Format("2006-01"),
			Start:  start,
		}
	}
	return buckets
}

func inMonth(t, start time.Time) bool {
	return !t.Before(start) && t.Before(start.AddDate(0, 1, 0))
}

func inWindow(t, since, until time.Time) bool {
	if !since.IsZero() && t.Before(since) {
		return false
	}
	if !until.IsZero() && t.After(until) {
		return false
	}
	return true
}

// TimeFilter is a preset history window.
type TimeFilter string

const (
	FilterWeek  TimeFilter = "week"
	FilterMonth TimeFilter = "month"
	FilterYear  TimeFilter = "year"
)

// ParseTimeFilter converts a string into a TimeFilter. Empty means month.
func ParseTimeFilter(s string) (TimeFilter, error) {
	switch f := TimeFilter(s); f {
	case "":
		return FilterMonth, nil
	case FilterWeek, FilterMonth, FilterYear:
		return f, nil
	}
	return "", fmt.Errorf("unknown time filter %q", s)
}

// RangeFor returns the window a preset covers, ending at now.
func RangeFor(filter TimeFilter, now time.Time) (since, until time.Time) {
	switch filter {
	case FilterWeek:
		return now.AddDate(0, 0, -7), now
	case FilterYear:
		return now.AddDate(-1, 0, 0), now
	default:
		return now.AddDate(0, -1, 0), now
	}
}
