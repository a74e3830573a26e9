// Package bolt provides a BoltDB-backed implementation of the storage.Store
// interface.
//
// BoltDB is an embedded key/value store kept in a single file. Records are
// stored as JSON under their ID:
//
//	bills        bill ID -> bill
//	users        user ID -> user
//	user_emails  lower-cased email -> user ID
//	friends      user ID -> nested bucket of friend ID -> friend
package bolt

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	bolt "github.com/boltdb/bolt"

	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/storage"
)

var (
	billsBucket      = []byte("bills")
	usersBucket      = []byte("users")
	userEmailsBucket = []byte("user_emails")
	friendsBucket    = []byte("friends")
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store implements storage.Store on a BoltDB file.
type Store struct {
	db *bolt.DB
}

// New opens (or creates) a BoltDB database at path and ensures the buckets exist.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{billsBucket, usersBucket, userEmailsBucket, friendsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

func put(b *bolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return b.Put([]byte(key), data)
}

// CreateBill persists a bill. Bills are never overwritten.
func (s *Store) CreateBill(ctx context.Context, bill *models.Bill) error {
	if bill.ID == "" {
		return errors.New("bill ID is required")
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(billsBucket)
		if b.Get([]byte(bill.ID)) != nil {
			return fmt.Errorf("bill %s: %w", bill.ID, storage.ErrAlreadyExists)
		}
		return put(b, bill.ID, bill)
	})
}

// GetBill retrieves a bill by ID.
func (s *Store) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	var bill models.Bill
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(billsBucket).Get([]byte(billID))
		if v == nil {
			return fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
		}
		return json.Unmarshal(v, &bill)
	})
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// ListBills scans every bill and keeps those matching filter, newest first.
func (s *Store) ListBills(ctx context.Context, filter storage.BillFilter) ([]*models.Bill, error) {
	bills := []*models.Bill{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(billsBucket).ForEach(func(k, v []byte) error {
			var bill models.Bill
			if err := json.Unmarshal(v, &bill); err != nil {
				return fmt.Errorf("failed to decode bill %s: %w", k, err)
			}
			if filter.Matches(&bill) {
				bills = append(bills, &bill)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(bills, func(a, b *models.Bill) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if filter.Limit > 0 && len(bills) > filter.Limit {
		bills = bills[:filter.Limit]
	}
	return bills, nil
}

// CreateUser stores a user and claims its email.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	email := strings.ToLower(user.Email)
	return s.db.Update(func(tx *bolt.Tx) error {
		emails := tx.Bucket(userEmailsBucket)
		if emails.Get([]byte(email)) != nil {
			return fmt.Errorf("user with email %s: %w", email, storage.ErrAlreadyExists)
		}
		users := tx.Bucket(usersBucket)
		if users.Get([]byte(user.ID)) != nil {
			return fmt.Errorf("user %s: %w", user.ID, storage.ErrAlreadyExists)
		}

		stored := *user
		stored.Email = email
		if err := put(users, user.ID, &stored); err != nil {
			return err
		}
		return emails.Put([]byte(email), []byte(user.ID))
	})
}

// GetUserByEmail retrieves a user by their email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user *models.User
	err := s.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(userEmailsBucket).Get([]byte(strings.ToLower(email)))
		if id == nil {
			return fmt.Errorf("user with email %s: %w", email, storage.ErrNotFound)
		}
		var err error
		user, err = getUser(tx, string(id))
		return err
	})
	return user, err
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user *models.User
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		user, err = getUser(tx, id)
		return err
	})
	return user, err
}

func getUser(tx *bolt.Tx, id string) (*models.User, error) {
	v := tx.Bucket(usersBucket).Get([]byte(id))
	if v == nil {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	var user models.User
	if err := json.Unmarshal(v, &user); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", id, err)
	}
	return &user, nil
}

// AddFriend adds a contact to the owner's nested friends bucket.
func (s *Store) AddFriend(ctx context.Context, friend *models.Friend) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(friendsBucket).CreateBucketIfNotExists([]byte(friend.UserID))
		if err != nil {
			return fmt.Errorf("failed to create friend list: %w", err)
		}
		if b.Get([]byte(friend.ID)) != nil {
			return fmt.Errorf("friend %s: %w", friend.ID, storage.ErrAlreadyExists)
		}
		return put(b, friend.ID, friend)
	})
}

// ListFriends returns a user's friends ordered by name.
func (s *Store) ListFriends(ctx context.Context, userID string) ([]*models.Friend, error) {
	friends := []*models.Friend{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(friendsBucket).Bucket([]byte(userID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var f models.Friend
			if err := json.Unmarshal(v, &f); err != nil {
				return fmt.Errorf("failed to decode friend %s: %w", k, err)
			}
			friends = append(friends, &f)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(friends, func(a, b *models.Friend) int {
		if c := cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return friends, nil
}

// RemoveFriend deletes a contact from a user's friend list.
func (s *Store) RemoveFriend(ctx context.Context, userID, friendID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(friendsBucket).Bucket([]byte(userID))
		if b == nil || b.Get([]byte(friendID)) == nil {
			return fmt.Errorf("friend %s: %w", friendID, storage.ErrNotFound)
		}
		return b.Delete([]byte(friendID))
	})
}
