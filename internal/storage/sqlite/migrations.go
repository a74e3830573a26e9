package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Amounts are integer cents; rates are decimal strings.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS friends (
    user_id TEXT NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL,
    email TEXT NOT NULL DEFAULT '',
    phone TEXT NOT NULL DEFAULT '',
    created_at INTEGER NOT NULL,
    PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS bills (
    id TEXT PRIMARY KEY,
    description TEXT NOT NULL,
    total_cents INTEGER NOT NULL,
    subtotal_cents INTEGER NOT NULL,
    tax_cents INTEGER NOT NULL DEFAULT 0,
    tip_cents INTEGER NOT NULL DEFAULT 0,
    tax_rate TEXT NOT NULL DEFAULT '0',
    tip_rate TEXT NOT NULL DEFAULT '0',
    created_by TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    category TEXT NOT NULL,
    mode TEXT NOT NULL,
    split_equally INTEGER NOT NULL,
    details TEXT NOT NULL,
    breakdown TEXT NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS bill_shares (
    bill_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    participant_id TEXT NOT NULL,
    display_name TEXT NOT NULL,
    owed_cents INTEGER NOT NULL,
    PRIMARY KEY (bill_id, participant_id),
    FOREIGN KEY (bill_id) REFERENCES bills(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS items (
    bill_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    label TEXT NOT NULL,
    amount_cents INTEGER NOT NULL,
    quantity INTEGER NOT NULL,
    PRIMARY KEY (bill_id, position),
    FOREIGN KEY (bill_id) REFERENCES bills(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS item_assignments (
    bill_id TEXT NOT NULL,
    item_position INTEGER NOT NULL,
    position INTEGER NOT NULL,
    participant_id TEXT NOT NULL,
    PRIMARY KEY (bill_id, item_position, participant_id),
    FOREIGN KEY (bill_id, item_position) REFERENCES items(bill_id, position) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_bills_created_at ON bills(created_at);
CREATE INDEX IF NOT EXISTS idx_bills_created_by ON bills(created_by);
CREATE INDEX IF NOT EXISTS idx_bill_shares_participant ON bill_shares(participant_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
