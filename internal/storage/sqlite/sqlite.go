// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/splitkit/internal/metadata"
	"github.com/mmynk/splitkit/internal/models"
	"github.com/mmynk/splitkit/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateBill persists a bill with its shares and line items in one transaction.
func (s *SQLiteStore) CreateBill(ctx context.Context, bill *models.Bill) error {
	if bill.ID == "" {
		return errors.New("bill ID is required")
	}

	details, err := metadata.Encode(bill)
	if err != nil {
		return err
	}
	breakdown, err := json.Marshal(bill.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to encode breakdown: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bills (id, description, total_cents, subtotal_cents, tax_cents, tip_cents,
			tax_rate, tip_rate, created_by, created_at, category, mode, split_equally, details, breakdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID, bill.Description, bill.Total.Cents(), bill.Subtotal.Cents(), bill.Tax.Cents(), bill.Tip.Cents(),
		bill.TaxRate.String(), bill.TipRate.String(), bill.CreatedBy, bill.CreatedAt.UnixNano(),
		string(bill.Category), string(bill.Mode), bill.SplitEqually, details, string(breakdown),
	)
	if err != nil {
		return fmt.Errorf("failed to insert bill: %w", translate(err))
	}

	for i, p := range bill.Participants {
		owed, _ := bill.ShareOf(p.ID)
		_, err = tx.ExecContext(ctx,
			"INSERT INTO bill_shares (bill_id, position, participant_id, display_name, owed_cents) VALUES (?, ?, ?, ?, ?)",
			bill.ID, i, p.ID, p.DisplayName, owed.Cents(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert share: %w", translate(err))
		}
	}

	for i, item := range bill.Items {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO items (bill_id, position, label, amount_cents, quantity) VALUES (?, ?, ?, ?, ?)",
			bill.ID, i, item.Label, item.Amount.Cents(), item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}

		for j, participantID := range item.ParticipantIDs {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO item_assignments (bill_id, item_position, position, participant_id) VALUES (?, ?, ?, ?)",
				bill.ID, i, j, participantID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item assignment: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

const billColumns = `id, description, total_cents, subtotal_cents, tax_cents, tip_cents, tax_rate, tip_rate,
	created_by, created_at, category, mode, split_equally, details, breakdown`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (*models.Bill, error) {
	var (
		bill      models.Bill
		createdAt int64
		category  string
		mode      string
		details   string
		breakdown string
	)
	err := row.Scan(&bill.ID, &bill.Description, &bill.Total, &bill.Subtotal, &bill.Tax, &bill.Tip,
		&bill.TaxRate, &bill.TipRate, &bill.CreatedBy, &createdAt, &category, &mode, &bill.SplitEqually,
		&details, &breakdown)
	if err != nil {
		return nil, err
	}

	bill.CreatedAt = time.Unix(0, createdAt).UTC()
	bill.Mode = models.SplitMode(mode)
	bill.Category = models.Category(category)
	if !bill.Category.Valid() {
		bill.Category = metadata.CategoryOf(details)
	}
	if err := json.Unmarshal([]byte(breakdown), &bill.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to decode breakdown: %w", err)
	}
	return &bill, nil
}

// GetBill retrieves a bill by ID, including shares and line items.
func (s *SQLiteStore) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	bill, err := scanBill(s.db.QueryRowContext(ctx,
		"SELECT "+billColumns+" FROM bills WHERE id = ?", billID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bill %s: %w", billID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	if err := s.loadChildren(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

// ListBills returns bills matching filter, newest first.
func (s *SQLiteStore) ListBills(ctx context.Context, filter storage.BillFilter) ([]*models.Bill, error) {
	var (
		where []string
		args  []any
	)
	if filter.ParticipantID != "" {
		where = append(where, "(created_by = ? OR id IN (SELECT bill_id FROM bill_shares WHERE participant_id = ?))")
		args = append(args, filter.ParticipantID, filter.ParticipantID)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(filter.Category))
	}
	if !filter.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, filter.Since.UnixNano())
	}
	if !filter.Until.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, filter.Until.UnixNano())
	}

	query := "SELECT " + billColumns + " FROM bills"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	bills := []*models.Bill{}
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	rows.Close()

	for _, bill := range bills {
		if err := s.loadChildren(ctx, bill); err != nil {
			return nil, err
		}
	}
	return bills, nil
}

// loadChildren fills in shares and line items.
func (s *SQLiteStore) loadChildren(ctx context.Context, bill *models.Bill) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT participant_id, display_name, owed_cents FROM bill_shares WHERE bill_id = ? ORDER BY position",
		bill.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p     models.Participant
			share models.Share
		)
		if err := rows.Scan(&p.ID, &p.DisplayName, &share.OwedAmount); err != nil {
			return fmt.Errorf("failed to scan share: %w", err)
		}
		share.ParticipantID = p.ID
		bill.Participants = append(bill.Participants, p)
		bill.Shares = append(bill.Shares, share)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate shares: %w", err)
	}

	itemRows, err := s.db.QueryContext(ctx,
		"SELECT label, amount_cents, quantity FROM items WHERE bill_id = ? ORDER BY position",
		bill.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item models.LineItem
		if err := itemRows.Scan(&item.Label, &item.Amount, &item.Quantity); err != nil {
			return fmt.Errorf("failed to scan item: %w", err)
		}
		bill.Items = append(bill.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate items: %w", err)
	}

	assignRows, err := s.db.QueryContext(ctx,
		"SELECT item_position, participant_id FROM item_assignments WHERE bill_id = ? ORDER BY item_position, position",
		bill.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get item assignments: %w", err)
	}
	defer assignRows.Close()

	for assignRows.Next() {
		var (
			pos           int
			participantID string
		)
		if err := assignRows.Scan(&pos, &participantID); err != nil {
			return fmt.Errorf("failed to scan assignment: %w", err)
		}
		if pos < 0 || pos >= len(bill.Items) {
			return fmt.Errorf("assignment for missing item %d on bill %s", pos, bill.ID)
		}
		bill.Items[pos].ParticipantIDs = append(bill.Items[pos].ParticipantIDs, participantID)
	}
	if err := assignRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate assignments: %w", err)
	}

	return nil
}

// translate maps uniqueness violations onto storage.ErrAlreadyExists.
func translate(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%w: %v", storage.ErrAlreadyExists, err)
	}
	return err
}
