package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/splitkit/internal/auth"
	"github.com/mmynk/splitkit/internal/middleware"
	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/storage"
	"github.com/mmynk/splitkit/internal/validation"
)

// FriendStore is the storage FriendService needs.
type FriendStore interface {
	storage.FriendStore
	storage.UserStore
}

// FriendService manages the caller's friend list.
type FriendService struct {
	store  FriendStore
	now    func() time.Time
	logger *slog.Logger
}

func NewFriendService(store FriendStore, logger *slog.Logger) *FriendService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FriendService{store: store, now: time.Now, logger: logger}
}

func (s *FriendService) ListFriends(ctx context.Context, req *connect.Request[ListFriendsRequest]) (*connect.Response[ListFriendsResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, toConnectError(errAuthRequired)
	}

	friends, err := s.store.ListFriends(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListFriendsResponse{Friends: friends}), nil
}

// AddFriend adds a contact by email. When the email belongs to an account,
// the friend's ID is that account's ID so bills line up across users.
func (s *FriendService) AddFriend(ctx context.Context, req *connect.Request[AddFriendRequest]) (*connect.Response[AddFriendResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, toConnectError(errAuthRequired)
	}
	if err := validation.Default().Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	email := auth.NormalizeEmail(req.Msg.Email)
	friend := &models.Friend{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      strings.TrimSpace(req.Msg.Name),
		Email:     email,
		Phone:     strings.TrimSpace(req.Msg.Phone),
		CreatedAt: s.now().Unix(),
	}

	registered := false
	account, err := s.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if account.ID == userID {
			return nil, toConnectError(errSelfFriend)
		}
		friend.ID = account.ID
		registered = true
	case !errors.Is(err, storage.ErrNotFound):
		return nil, toConnectError(fmt.Errorf("failed to look up friend: %w", err))
	}

	existing, err := s.store.ListFriends(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	for _, f := range existing {
		if f.Email == email {
			return nil, toConnectError(fmt.Errorf("%w: friend %s", storage.ErrAlreadyExists, email))
		}
	}

	if err := s.store.AddFriend(ctx, friend); err != nil {
		return nil, toConnectError(err)
	}

	s.logger.InfoContext(ctx, "Friend added", "user_id", userID, "friend_id", friend.ID, "registered", registered)
	return connect.NewResponse(&AddFriendResponse{Friend: friend, Registered: registered}), nil
}

func (s *FriendService) RemoveFriend(ctx context.Context, req *connect.Request[RemoveFriendRequest]) (*connect.Response[RemoveFriendResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, toConnectError(errAuthRequired)
	}
	if err := validation.Default().Struct(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.RemoveFriend(ctx, userID, req.Msg.FriendID); err != nil {
		return nil, toConnectError(err)
	}

	s.logger.InfoContext(ctx, "Friend removed", "user_id", userID, "friend_id", req.Msg.FriendID)
	return connect.NewResponse(&RemoveFriendResponse{}), nil
}
