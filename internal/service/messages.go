package service

import (
	"fmt"
	"time"

	"github.com/mmynk/splitkit/internal/analytics"
	"github.com/mmynk/splitkit/internal/calculator"
	"github.com/mmynk/splitkit/internal/metadata"
	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/money"
)

// ParticipantInput names someone taking part in a split.
type ParticipantInput struct {
	ID          string `json:"id" validate:"required,max=64"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

// LineItemInput is a receipt line or a cost bucket. Quantity 0 means 1.
type LineItemInput struct {
	Label          string      `json:"label" validate:"required,max=200"`
	Amount         money.Money `json:"amount" validate:"gte=0"`
	Quantity       int64       `json:"quantity" validate:"gte=0,max=1000000"`
	ParticipantIDs []string    `json:"participant_ids" validate:"dive,required"`
}

// SplitInput describes a split in any mode.
type SplitInput struct {
	Mode             string                 `json:"mode" validate:"split_mode"`
	Total            money.Money            `json:"total" validate:"gte=0"`
	Participants     []ParticipantInput     `json:"participants" validate:"dive"`
	ExplicitAmounts  map[string]money.Money `json:"explicit_amounts"`
	RemainderPayerID string                 `json:"remainder_payer_id"`
	Items            []LineItemInput        `json:"items" validate:"dive"`

	// TaxPercent and TipPercent are percentages ("8.25"), itemized only.
	TaxPercent string `json:"tax_percent" validate:"percent"`
	TipPercent string `json:"tip_percent" validate:"percent"`

	// WeightedBase splits a category-weighted total: "equal" (default) or "explicit".
	WeightedBase string `json:"weighted_base" validate:"omitempty,oneof=equal explicit"`
}

// toRequest converts the wire shape into a models.SplitRequest.
func (in SplitInput) toRequest() (models.SplitRequest, error) {
	taxRate, err := money.ParsePercent(in.TaxPercent)
	if err != nil {
		return models.SplitRequest{}, fmt.Errorf("tax: %w", err)
	}
	tipRate, err := money.ParsePercent(in.TipPercent)
	if err != nil {
		return models.SplitRequest{}, fmt.Errorf("tip: %w", err)
	}

	req := models.SplitRequest{
		Mode:             models.SplitMode(in.Mode),
		Total:            in.Total,
		ExplicitAmounts:  in.ExplicitAmounts,
		RemainderPayerID: in.RemainderPayerID,
		TaxRate:          taxRate,
		TipRate:          tipRate,
		WeightedBase:     models.SplitMode(in.WeightedBase),
	}
	for _, p := range in.Participants {
		req.Participants = append(req.Participants, models.Participant{ID: p.ID, DisplayName: p.DisplayName})
	}
	for _, item := range in.Items {
		quantity := item.Quantity
		if quantity == 0 {
			quantity = 1
		}
		req.LineItems = append(req.LineItems, models.LineItem{
			Label:          item.Label,
			Amount:         item.Amount,
			Quantity:       quantity,
			ParticipantIDs: item.ParticipantIDs,
		})
	}
	return req, nil
}

type PreviewSplitRequest struct {
	Split SplitInput `json:"split"`
}

// PreviewSplitResponse is a computed split that has not been saved.
type PreviewSplitResponse struct {
	Total        money.Money          `json:"total"`
	Subtotal     money.Money          `json:"subtotal"`
	Tax          money.Money          `json:"tax"`
	Tip          money.Money          `json:"tip"`
	Participants []models.Participant `json:"participants"`
	Shares       []models.Share       `json:"shares"`
	Breakdown    []models.PersonSplit `json:"breakdown,omitempty"`
}

func previewFromResult(res *calculator.Result) *PreviewSplitResponse {
	return &PreviewSplitResponse{
		Total:        res.Total,
		Subtotal:     res.Subtotal,
		Tax:          res.Tax,
		Tip:          res.Tip,
		Participants: res.Participants,
		Shares:       res.Shares,
		Breakdown:    res.Breakdown,
	}
}

type CreateBillRequest struct {
	// Description is generated from participant names when blank.
	Description string `json:"description" validate:"max=200"`

	// Category defaults to regular.
	Category string     `json:"category" validate:"omitempty,category"`
	Split    SplitInput `json:"split"`
}

type GetBillRequest struct {
	BillID string `json:"bill_id" validate:"required"`
}

// BillResponse carries a bill and its legacy details document.
type BillResponse struct {
	Bill    *models.Bill      `json:"bill"`
	Details *metadata.Details `json:"details"`
}

type ListBillsRequest struct {
	Category string     `json:"category" validate:"omitempty,category"`
	Since    *time.Time `json:"since,omitempty"`
	Until    *time.Time `json:"until,omitempty"`

	// Limit defaults to 100.
	Limit int `json:"limit" validate:"gte=0,max=500"`
}

type ListBillsResponse struct {
	Bills []*models.Bill `json:"bills"`
}

// SummarizeRequest selects a history window. Since and Until override the
// preset Filter when set.
type SummarizeRequest struct {
	Filter string     `json:"filter" validate:"omitempty,oneof=week month year"`
	Since  *time.Time `json:"since,omitempty"`
	Until  *time.Time `json:"until,omitempty"`

	// Months is the number of monthly buckets. Zero uses the server default.
	Months int `json:"months" validate:"gte=0,max=36"`

	// TimeZone is an IANA name deciding month boundaries. Defaults to UTC.
	TimeZone string `json:"time_zone" validate:"max=64"`
}

type SummarizeResponse struct {
	Since     time.Time                 `json:"since"`
	Until     time.Time                 `json:"until"`
	Snapshot  analytics.Snapshot        `json:"snapshot"`
	Breakdown []analytics.CategoryTotal `json:"breakdown"`
}

type GetBalancesRequest struct{}

type GetBalancesResponse struct {
	Balances []calculator.MemberBalance `json:"balances"`
	Debts    []calculator.DebtEdge      `json:"debts"`
}

type ListFriendsRequest struct{}

type ListFriendsResponse struct {
	Friends []*models.Friend `json:"friends"`
}

type AddFriendRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"max=32"`
}

type AddFriendResponse struct {
	Friend *models.Friend `json:"friend"`

	// Registered is true when the email belongs to an existing account.
	Registered bool `json:"registered"`
}

type RemoveFriendRequest struct {
	FriendID string `json:"friend_id" validate:"required"`
}

type RemoveFriendResponse struct{}

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
	Phone       string `json:"phone" validate:"max=32"`
	Password    string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserInfo is the public view of an account.
type UserInfo struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Phone       string    `json:"phone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func userInfo(u *models.User) *UserInfo {
	return &UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Phone:       u.Phone,
		CreatedAt:   time.Unix(u.CreatedAt, 0).UTC(),
	}
}

// SessionResponse is returned by Register and Login.
type SessionResponse struct {
	User      *UserInfo `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *UserInfo `json:"user"`
}
