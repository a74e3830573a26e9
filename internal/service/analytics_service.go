package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitkit/internal/analytics"
	"github.com/mmynk/splitkit/internal/calculator"
	"github.com/mmynk/splitkit/internal/middleware"
	"github.com/mmynk/splitkit/internal/storage"
	"github.com/mmynk/splitkit/internal/validation"
)

// AnalyticsService derives spending summaries and balances from bill history.
type AnalyticsService struct {
	store  storage.BillStore
	months int
	now    func() time.Time
	logger *slog.Logger
}

// NewAnalyticsService creates an AnalyticsService producing months monthly
// buckets unless a request asks otherwise.
func NewAnalyticsService(store storage.BillStore, months int, logger *slog.Logger) *AnalyticsService {
	if months <= 0 {
		months = 6
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsService{store: store, months: months, now: time.Now, logger: logger}
}

// Summarize aggregates the caller's bills by category and month.
func (s *AnalyticsService) Summarize(ctx context.Context, req *connect.Request[SummarizeRequest]) (*connect.Response[SummarizeResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, toConnectError(errAuthRequired)
	}
	if err := validation.Default().Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	loc := time.UTC
	if req.Msg.TimeZone != "" {
		var err error
		if loc, err = time.LoadLocation(req.Msg.TimeZone); err != nil {
			return nil, toConnectError(fmt.Errorf("%w: %q", errInvalidZone, req.Msg.TimeZone))
		}
	}

	filter, err := analytics.ParseTimeFilter(req.Msg.Filter)
	if err != nil {
		return nil, toConnectError(fmt.Errorf("%w: %v", validation.ErrInvalid, err))
	}
	since, until := analytics.RangeFor(filter, s.now().In(loc))
	if req.Msg.Since != nil {
		since = *req.Msg.Since
	}
	if req.Msg.Until != nil {
		until = *req.Msg.Until
	}
	if since.After(until) {
		return nil, toConnectError(errInvalidRange)
	}

	months := req.Msg.Months
	if months == 0 {
		months = s.months
	}

	bills, err := s.store.ListBills(ctx, storage.BillFilter{
		ParticipantID: userID,
		Since:         earliest(since, until, months, loc),
		Until:         until,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Summarize failed to list bills", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	snapshot := analytics.Summarize(bills, analytics.Query{
		Since:    since,
		Until:    until,
		Months:   months,
		Location: loc,
	})
	return connect.NewResponse(&SummarizeResponse{
		Since:     since,
		Until:     until,
		Snapshot:  snapshot,
		Breakdown: snapshot.Breakdown(),
	}), nil
}

// earliest returns the start of whichever comes first: the category window
// or the oldest monthly bucket.
func earliest(since, until time.Time, months int, loc *time.Location) time.Time {
	u := until.In(loc)
	first := time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -(months - 1), 0)
	if since.Before(first) {
		return since
	}
	return first
}

// GetBalances nets out every bill the caller takes part in.
func (s *AnalyticsService) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, toConnectError(errAuthRequired)
	}

	bills, err := s.store.ListBills(ctx, storage.BillFilter{ParticipantID: userID})
	if err != nil {
		s.logger.ErrorContext(ctx, "GetBalances failed to list bills", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	balances, debts := calculator.CalculateBalances(bills)
	s.logger.DebugContext(ctx, "Balances computed", "user_id", userID, "bills", len(bills), "debts", len(debts))
	return connect.NewResponse(&GetBalancesResponse{Balances: balances, Debts: debts}), nil
}
