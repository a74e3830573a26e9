package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/splitkit/internal/auth"
	"github.com/mmynk/splitkit/internal/calculator"
	"github.com/mmynk/splitkit/internal/money"
	"github.com/mmynk/splitkit/internal/settlement"
	"github.com/mmynk/splitkit/internal/storage"
	"github.com/mmynk/splitkit/internal/validation"
)

var (
	errAuthRequired   = errors.New("authentication required")
	errNotParticipant = errors.New("you must be a participant on this bill")
	errSelfFriend     = errors.New("cannot add yourself as a friend")
	errInvalidRange   = errors.New("since must not be after until")
	errInvalidZone    = errors.New("unknown time zone")
)

// failureReasons labels split rejections for metrics, most specific first.
var failureReasons = []struct {
	err    error
	reason string
}{
	{settlement.ErrSettlementInvariantViolation, "invariant_violation"},
	{settlement.ErrInvalidCategory, "invalid_category"},
	{calculator.ErrNoParticipants, "no_participants"},
	{calculator.ErrMissingAmount, "missing_amount"},
	{calculator.ErrNegativeRemainder, "negative_remainder"},
	{calculator.ErrUnassignedItem, "unassigned_item"},
	{calculator.ErrUnknownParticipant, "unknown_participant"},
	{calculator.ErrDuplicateParticipant, "duplicate_participant"},
	{calculator.ErrConflictingAmount, "conflicting_amount"},
	{calculator.ErrInvalidItem, "invalid_item"},
	{calculator.ErrInvalidRate, "invalid_rate"},
	{calculator.ErrUnsupportedMode, "unsupported_mode"},
	{money.ErrInvalidAmount, "invalid_amount"},
	{money.ErrInvalidWeights, "invalid_weights"},
	{validation.ErrInvalid, "validation"},
	{errNotParticipant, "not_participant"},
}

func failureReason(err error) string {
	for _, fr := range failureReasons {
		if errors.Is(err, fr.err) {
			return fr.reason
		}
	}
	return "other"
}

// isClientError reports whether err is the caller's fault.
func isClientError(err error) bool {
	switch connect.CodeOf(toConnectError(err)) {
	case connect.CodeInternal, connect.CodeUnknown, connect.CodeUnavailable:
		return false
	}
	return true
}

// toConnectError maps domain errors onto Connect codes.
func toConnectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	switch {
	case errors.Is(err, settlement.ErrSettlementInvariantViolation):
		return connect.NewError(connect.CodeInternal, err)
	case errors.Is(err, errAuthRequired), errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, errNotParticipant):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrAlreadyExists), errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case failureReason(err) != "other",
		errors.Is(err, settlement.ErrMissingCreator),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, errSelfFriend),
		errors.Is(err, errInvalidRange),
		errors.Is(err, errInvalidZone):
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
