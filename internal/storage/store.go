// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/splitkit/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a record violates a uniqueness
	// constraint, such as a second account for the same email.
	ErrAlreadyExists = errors.New("already exists")
)

// BillStore persists confirmed bills. Bills are immutable: there is no
// update or delete.
type BillStore interface {
	// CreateBill persists a bill built by the settlement builder.
	// The bill must already carry its ID and CreatedAt.
	CreateBill(ctx context.Context, bill *models.Bill) error

	// GetBill retrieves a bill by its ID.
	// Returns ErrNotFound if the bill does not exist.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// ListBills returns bills matching filter, newest first.
	ListBills(ctx context.Context, filter BillFilter) ([]*models.Bill, error)
}

// UserStore persists accounts.
type UserStore interface {
	// CreateUser returns ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail and GetUserByID return ErrNotFound for unknown users.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// FriendStore persists each user's friend list.
type FriendStore interface {
	// AddFriend returns ErrAlreadyExists when the friend is already listed.
	AddFriend(ctx context.Context, friend *models.Friend) error
	ListFriends(ctx context.Context, userID string) ([]*models.Friend, error)

	// RemoveFriend returns ErrNotFound when the friend is not listed.
	RemoveFriend(ctx context.Context, userID, friendID string) error
}

// Store defines the full set of storage operations.
// This abstraction allows swapping storage backends (SQLite, Bolt)
// without changing the service layer.
type Store interface {
	BillStore
	UserStore
	FriendStore

	// Close releases any resources held by the store.
	Close() error
}

// BillFilter narrows ListBills. Zero fields match everything.
type BillFilter struct {
	// ParticipantID keeps bills the participant created or has a share in.
	ParticipantID string

	Category models.Category

	// Since and Until bound CreatedAt, inclusive.
	Since time.Time
	Until time.Time

	// Limit caps the number of bills returned. Zero means no limit.
	Limit int
}

// Matches reports whether bill passes the filter, ignoring Limit.
func (f BillFilter) Matches(bill *models.Bill) bool {
	if f.ParticipantID != "" && !bill.HasParticipant(f.ParticipantID) {
		return false
	}
	if f.Category != "" && bill.Category != f.Category {
		return false
	}
	if !f.Since.IsZero() && bill.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && bill.CreatedAt.After(f.Until) {
		return false
	}
	return true
}
