package sqlite

import (
	"context"
	"fmt"

	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/storage"
)

// AddFriend adds a contact to a user's friend list.
func (s *SQLiteStore) AddFriend(ctx context.Context, friend *models.Friend) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO friends (user_id, id, name, email, phone, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		friend.UserID, friend.ID, friend.Name, friend.Email, friend.Phone, friend.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add friend: %w", translate(err))
	}
	return nil
}

// ListFriends returns a user's friends ordered by name.
func (s *SQLiteStore) ListFriends(ctx context.Context, userID string) ([]*models.Friend, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, id, name, email, phone, created_at
		 FROM friends WHERE user_id = ? ORDER BY name COLLATE NOCASE, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	friends := []*models.Friend{}
	for rows.Next() {
		f := &models.Friend{}
		if err := rows.Scan(&f.UserID, &f.ID, &f.Name, &f.Email, &f.Phone, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		friends = append(friends, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate friends: %w", err)
	}

	return friends, nil
}

// RemoveFriend deletes a contact from a user's friend list.
func (s *SQLiteStore) RemoveFriend(ctx context.Context, userID, friendID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM friends WHERE user_id = ? AND id = ?",
		userID, friendID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("friend %s: %w", friendID, storage.ErrNotFound)
	}
	return nil
}
