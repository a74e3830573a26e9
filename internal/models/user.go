package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	// It is also the participant ID the user carries in bills.
	ID string `json:"id"`

	// DisplayName is the name shown to friends and on bills.
	DisplayName string `json:"display_name"`

	// Email is the user's email address (unique). Used for login.
	Email string `json:"email"`

	// Phone is optional.
	Phone string `json:"phone,omitempty"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"password_hash"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// NewUser creates a user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.NewString(),
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Participant returns the user as a bill participant.
func (u *User) Participant() Participant {
	return Participant{ID: u.ID, DisplayName: u.DisplayName}
}

// Friend is a contact in a user's friend list.
// When the friend has an account, ID equals that user's ID.
type Friend struct {
	// ID is the friend's participant ID.
	ID string `json:"id"`

	// UserID is the owner of the friend list.
	UserID string `json:"user_id"`

	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`

	CreatedAt int64 `json:"created_at"`
}

// Participant returns the friend as a bill participant.
func (f *Friend) Participant() Participant {
	return Participant{ID: f.ID, DisplayName: f.Name}
}
