// Package money implements fixed-point currency amounts in minor units (cents).
//
// All arithmetic is integer arithmetic. Division never drops a cent: the
// remainder of a proportional split is handed out one cent at a time so the
// parts always add back up to the whole.
package money

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents.
type Money int64

// MaxMoney is the largest amount Parse accepts (2^53 cents, roughly 90 trillion
// dollars). Sums of realistic bills stay far below the int64 ceiling.
const MaxMoney Money = 1 << 53

// MaxPercent is the largest tax or tip percentage ParsePercent accepts.
const MaxPercent = 1000

// Zero is the zero amount.
const Zero Money = 0

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidWeights = errors.New("invalid weights")
)

var (
	hundred    = decimal.NewFromInt(100)
	maxMoney   = decimal.NewFromInt(int64(MaxMoney))
	maxPercent = decimal.NewFromInt(MaxPercent)
)

// FromCents returns the amount for n cents.
func FromCents(n int64) Money {
	return Money(n)
}

// Parse converts a decimal string such as "12.5" or "0.99" into Money.
// The string must be a non-negative decimal with at most two fractional digits.
func Parse(s string) (Money, error) {
	m, err := parse(s)
	if err != nil {
		return 0, err
	}
	if m < 0 {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	return m, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func parse(s string) (Money, error) {
	if s == "" || strings.ContainsAny(s, "eE+") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.Exponent() < -2 {
		return 0, fmt.Errorf("%w: %q has more than two fractional digits", ErrInvalidAmount, s)
	}
	if d.Abs().GreaterThan(maxMoney.Div(hundred)) {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, s)
	}
	return Money(d.Mul(hundred).IntPart()), nil
}

// ParsePercent converts a percentage string ("8.25") into a rate (0.0825).
// Plain decimals between 0 and MaxPercent are accepted; exponent notation is not.
func ParsePercent(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.ContainsAny(s, "eE+") {
		return decimal.Zero, fmt.Errorf("%w: percentage %q", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: percentage %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: percentage %q is negative", ErrInvalidAmount, s)
	}
	if d.GreaterThan(maxPercent) {
		return decimal.Zero, fmt.Errorf("%w: percentage %q is above %d", ErrInvalidAmount, s, MaxPercent)
	}
	return d.Div(hundred), nil
}

// Cents returns the amount as an integer number of cents.
func (m Money) Cents() int64 {
	return int64(m)
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return m + o
}

// AddChecked returns m + o for non-negative operands, failing when the sum
// exceeds MaxMoney.
func (m Money) AddChecked(o Money) (Money, error) {
	if m < 0 || o < 0 {
		return 0, fmt.Errorf("%w: %s + %s has a negative operand", ErrInvalidAmount, m, o)
	}
	if m > MaxMoney || o > MaxMoney-m {
		return 0, fmt.Errorf("%w: %s + %s exceeds %s", ErrInvalidAmount, m, o, MaxMoney)
	}
	return m + o, nil
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return m - o
}

// Mul returns m multiplied by a non-negative integer factor, failing when
// the product exceeds MaxMoney.
func (m Money) Mul(n int64) (Money, error) {
	if m < 0 || n < 0 {
		return 0, fmt.Errorf("%w: %s × %d has a negative operand", ErrInvalidAmount, m, n)
	}
	if n != 0 && m > MaxMoney/Money(n) {
		return 0, fmt.Errorf("%w: %s × %d exceeds %s", ErrInvalidAmount, m, n, MaxMoney)
	}
	return m * Money(n), nil
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m < 0
}

// Decimal returns m in major units as a decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String formats m in major units with two fractional digits ("12.50").
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// ApplyRate returns m * rate rounded half up to the nearest cent.
// This is the only place an inexact result enters the model.
func (m Money) ApplyRate(rate decimal.Decimal) (Money, error) {
	v := decimal.NewFromInt(int64(m)).Mul(rate).Round(0)
	if v.IsNegative() || v.GreaterThan(maxMoney) {
		return 0, fmt.Errorf("%w: %s at rate %s is out of range", ErrInvalidAmount, m, rate)
	}
	return Money(v.IntPart()), nil
}

// DivRound returns m / n rounded half up to the nearest cent. n must be positive.
func (m Money) DivRound(n int64) Money {
	if n <= 0 {
		return 0
	}
	return Money(decimal.NewFromInt(int64(m)).Div(decimal.NewFromInt(n)).Round(0).IntPart())
}

// Sum adds up amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}

// DivideProportionally splits total into len(weights) parts proportional to
// the weights. Each part is floor(total*weight/sum(weights)); the leftover
// cents go one each to the parts with the largest fractional remainder, ties
// broken by input order. The parts always sum to total.
//
// A zero total divides into zeros for any weight vector, including an empty
// or all-zero one.
func DivideProportionally(total Money, weights []int64) ([]Money, error) {
	if total < 0 {
		return nil, fmt.Errorf("%w: cannot divide negative total %s", ErrInvalidAmount, total)
	}

	var sum int64
	for i, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("%w: weight %d is negative (%d)", ErrInvalidWeights, i, w)
		}
		sum += w
	}

	parts := make([]Money, len(weights))
	if total == 0 {
		return parts, nil
	}
	if sum == 0 {
		return nil, fmt.Errorf("%w: no positive weight to divide %s", ErrInvalidWeights, total)
	}

	totalD := decimal.NewFromInt(int64(total))
	sumD := decimal.NewFromInt(sum)
	remainders := make([]decimal.Decimal, len(weights))

	var allocated Money
	for i, w := range weights {
		q, r := totalD.Mul(decimal.NewFromInt(w)).QuoRem(sumD, 0)
		parts[i] = Money(q.IntPart())
		remainders[i] = r
		allocated += parts[i]
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return remainders[b].Cmp(remainders[a])
	})

	for _, i := range order[:int(total-allocated)] {
		parts[i]++
	}
	return parts, nil
}

// MarshalJSON encodes m as a JSON number in major units ("12.50").
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or string in major units. Negative
// values are accepted here so balances round-trip; callers validate signs.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := parse(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
