// Package settlement turns a split request into an immutable Bill.
//
// BuildBill is an assertion boundary: whatever strategy ran, the resulting
// shares must add up to the total before a Bill is produced. A violation is
// an arithmetic bug, never a user error, and is reported as
// ErrSettlementInvariantViolation instead of being persisted.
package settlement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitkit/internal/calculator"
	"github.com/mmynk/splitkit/internal/models"
)

var (
	ErrSettlementInvariantViolation = errors.New("settlement invariant violated")
	ErrInvalidCategory              = errors.New("invalid category")
	ErrMissingCreator               = errors.New("bill creator is required")
)

// Builder assembles bills. The zero value is not usable; call NewBuilder.
type Builder struct {
	newID     func() string
	now       func() time.Time
	calculate func(models.SplitRequest, string) (*calculator.Result, error)
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock sets the source of CreatedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithIDGenerator sets the source of bill IDs.
func WithIDGenerator(newID func() string) Option {
	return func(b *Builder) { b.newID = newID }
}

// NewBuilder returns a Builder that stamps bills with random UUIDs and the
// current UTC time unless overridden.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		newID:     uuid.NewString,
		now:       func() time.Time { return time.Now().UTC() },
		calculate: calculator.Calculate,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Preview runs the split for req and checks its invariants without building
// a bill. createdBy is the default remainder payer.
func (b *Builder) Preview(req models.SplitRequest, createdBy string) (*calculator.Result, error) {
	res, err := b.calculate(req, createdBy)
	if err != nil {
		return nil, err
	}
	if err := verify(res); err != nil {
		return nil, err
	}
	return res, nil
}

// BuildBill computes the split for req and returns the resulting Bill.
// It either returns a fully valid bill or an error; there is no partial result.
func (b *Builder) BuildBill(req models.SplitRequest, description string, category models.Category, createdBy string) (*models.Bill, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if createdBy == "" {
		return nil, ErrMissingCreator
	}

	res, err := b.Preview(req, createdBy)
	if err != nil {
		return nil, err
	}

	createdAt := b.now()
	if strings.TrimSpace(description) == "" {
		description = generateTitle(res.Participants, createdAt)
	}

	bill := &models.Bill{
		ID:           b.newID(),
		Description:  strings.TrimSpace(description),
		Total:        res.Total,
		CreatedBy:    createdBy,
		CreatedAt:    createdAt,
		Category:     category,
		Mode:         req.Mode,
		SplitEqually: splitsEqually(req),
		Participants: res.Participants,
		Shares:       res.Shares,
		Subtotal:     res.Subtotal,
		Tax:          res.Tax,
		Tip:          res.Tip,
		Breakdown:    res.Breakdown,
	}
	if req.Mode == models.ModeItemized {
		bill.TaxRate = req.TaxRate
		bill.TipRate = req.TipRate
	}
	if req.Mode == models.ModeItemized || req.Mode == models.ModeCategoryWeighted {
		bill.Items = req.LineItems
	}
	return bill, nil
}

// verify checks that the shares line up with the participants, none is
// negative, and they add up to the total exactly.
func verify(res *calculator.Result) error {
	if len(res.Shares) != len(res.Participants) {
		return fmt.Errorf("%w: %d shares for %d participants",
			ErrSettlementInvariantViolation, len(res.Shares), len(res.Participants))
	}
	for i, share := range res.Shares {
		if share.ParticipantID != res.Participants[i].ID {
			return fmt.Errorf("%w: share %d belongs to %q, expected %q",
				ErrSettlementInvariantViolation, i, share.ParticipantID, res.Participants[i].ID)
		}
		if share.OwedAmount.IsNegative() {
			return fmt.Errorf("%w: %q owes negative amount %s",
				ErrSettlementInvariantViolation, share.ParticipantID, share.OwedAmount)
		}
	}
	if sum := models.SumShares(res.Shares); sum != res.Total {
		return fmt.Errorf("%w: shares sum to %s, total is %s",
			ErrSettlementInvariantViolation, sum, res.Total)
	}
	return nil
}

func splitsEqually(req models.SplitRequest) bool {
	switch req.Mode {
	case models.ModeEqual:
		return true
	case models.ModeCategoryWeighted:
		return req.WeightedBase == "" || req.WeightedBase == models.ModeEqual
	}
	return false
}

// generateTitle creates an auto-generated description from participants.
func generateTitle(participants []models.Participant, at time.Time) string {
	if len(participants) == 0 {
		return fmt.Sprintf("Bill - %s", at.Format("Jan 2, 2006"))
	}
	names := make([]string, len(participants))
	for i, p := range participants {
		names[i] = p.DisplayName
		if names[i] == "" {
			names[i] = p.ID
		}
	}
	if len(names) <= 3 {
		return fmt.Sprintf("Split with %s", strings.Join(names, ", "))
	}
	return fmt.Sprintf("Split with %s and %d others",
		strings.Join(names[:2], ", "),
		len(names)-2,
	)
}
