package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitkit/internal/metadata"
	"github.com/mmynk/splitkit/internal/metrics"
	"github.com/mmynk/splitkit/internal/middleware"
	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/settlement"
	"github.com/mmynk/splitkit/internal/storage"
	"github.com/mmynk/splitkit/internal/validation"
)

const defaultListLimit = 100

// SplitService computes, saves and looks up bills.
type SplitService struct {
	store   storage.BillStore
	builder *settlement.Builder
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewSplitService creates a SplitService. m may be nil.
func NewSplitService(store storage.BillStore, builder *settlement.Builder, m *metrics.Metrics, logger *slog.Logger) *SplitService {
	if builder == nil {
		builder = settlement.NewBuilder()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SplitService{store: store, builder: builder, metrics: m, logger: logger}
}

// rejectSplit records a split failure and converts it to a Connect error.
func (s *SplitService) rejectSplit(ctx context.Context, op string, err error) error {
	reason := failureReason(err)
	s.metrics.RecordSplitFailure(reason)
	if isClientError(err) {
		s.logger.DebugContext(ctx, op+" rejected", "reason", reason, "error", err)
	} else {
		s.logger.ErrorContext(ctx, op+" failed", "reason", reason, "error", err)
	}
	return toConnectError(err)
}

// PreviewSplit computes a split without saving it. The caller is the
// default remainder payer.
func (s *SplitService) PreviewSplit(ctx context.Context, req *connect.Request[PreviewSplitRequest]) (*connect.Response[PreviewSplitResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, toConnectError(errAuthRequired)
	}
	if err := validation.Default().Struct(req.Msg); err != nil {
		return nil, s.rejectSplit(ctx, "PreviewSplit", err)
	}

	splitReq, err := req.Msg.Split.toRequest()
	if err != nil {
		return nil, s.rejectSplit(ctx, "PreviewSplit", err)
	}

	res, err := s.builder.Preview(splitReq, userID)
	if err != nil {
		return nil, s.rejectSplit(ctx, "PreviewSplit", err)
	}

	s.logger.DebugContext(ctx, "Split previewed",
		"mode", splitReq.Mode,
		"total", res.Total,
		"participants", len(res.Participants),
	)
	return connect.NewResponse(previewFromResult(res)), nil
}

// CreateBill builds a bill paid by the caller and persists it.
func (s *SplitService) CreateBill(ctx context.Context, req *connect.Request[CreateBillRequest]) (*connect.Response[BillResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, toConnectError(errAuthRequired)
	}
	if err := validation.Default().Struct(req.Msg); err != nil {
		return nil, s.rejectSplit(ctx, "CreateBill", err)
	}

	splitReq, err := req.Msg.Split.toRequest()
	if err != nil {
		return nil, s.rejectSplit(ctx, "CreateBill", err)
	}

	category := models.Category(req.Msg.Category)
	if category == "" {
		category = models.CategoryRegular
	}

	bill, err := s.builder.BuildBill(splitReq, req.Msg.Description, category, userID)
	if err != nil {
		return nil, s.rejectSplit(ctx, "CreateBill", err)
	}
	if _, ok := bill.ShareOf(userID); !ok {
		return nil, s.rejectSplit(ctx, "CreateBill", errNotParticipant)
	}

	details, err := metadata.Build(bill)
	if err != nil {
		return nil, s.rejectSplit(ctx, "CreateBill", err)
	}

	if err := s.store.CreateBill(ctx, bill); err != nil {
		s.logger.ErrorContext(ctx, "CreateBill failed to save", "bill_id", bill.ID, "error", err)
		return nil, toConnectError(fmt.Errorf("failed to save bill: %w", err))
	}
	s.metrics.RecordBill(bill)

	s.logger.InfoContext(ctx, "Bill created",
		"bill_id", bill.ID,
		"category", bill.Category,
		"mode", bill.Mode,
		"total", bill.Total,
	)
	return connect.NewResponse(&BillResponse{Bill: bill, Details: details}), nil
}

// GetBill returns a bill the caller takes part in.
func (s *SplitService) GetBill(ctx context.Context, req *connect.Request[GetBillRequest]) (*connect.Response[BillResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, toConnectError(errAuthRequired)
	}
	if err := validation.Default().Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	bill, err := s.store.GetBill(ctx, req.Msg.BillID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !bill.HasParticipant(userID) {
		return nil, toConnectError(errNotParticipant)
	}

	details, err := metadata.Build(bill)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&BillResponse{Bill: bill, Details: details}), nil
}

// ListBills returns the caller's bill history, newest first.
func (s *SplitService) ListBills(ctx context.Context, req *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, toConnectError(errAuthRequired)
	}
	if err := validation.Default().Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	filter := storage.BillFilter{
		ParticipantID: userID,
		Category:      models.Category(req.Msg.Category),
		Limit:         req.Msg.Limit,
	}
	if filter.Limit == 0 {
		filter.Limit = defaultListLimit
	}
	if req.Msg.Since != nil {
		filter.Since = *req.Msg.Since
	}
	if req.Msg.Until != nil {
		filter.Until = *req.Msg.Until
	}
	if !filter.Since.IsZero() && !filter.Until.IsZero() && filter.Since.After(filter.Until) {
		return nil, toConnectError(errInvalidRange)
	}

	bills, err := s.store.ListBills(ctx, filter)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListBillsResponse{Bills: bills}), nil
}
