/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements persistence for the catalog, the ledger engine, and the
  audit trail in one store. The same patterns apply to a server-grade
  database - only SQL dialect differences.

INTERFACES IMPLEMENTED:
  catalog.Store: Item maintenance and audit appends
  ledger.Store:  Transactional apply surface (WithTx) and settings
  audit.Reader:  Ordered read-back of logs and sales

KEY TABLES:
  items:             Current catalog state; barcode UNIQUE
  transactions:      One row per applied transaction; idempotency_key UNIQUE
  transaction_items: One row per line, with before/after snapshots
  logs:              Append-only audit trail
  sales:             Denormalized sale projection
  settings:          Key/value store (low_stock_threshold)

ATOMICITY:
  The ledger engine runs its whole read-compute-write inside WithTx. A
  returned error rolls back every write of the attempt; foreign keys
  from logs/sales/transaction_items are advisory and never cascade.

CONCURRENCY:
  sync.RWMutex serializes writers on top of SQLite's own locking. The
  database is opened in WAL mode: readers don't block, one writer at a
  time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/inventory.db")
  if err != nil { ... }
  defer store.Close()
  engine := ledger.NewEngine(store)

MIGRATION:
  Schema is auto-migrated on New(). Use ":memory:" for tests.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/stockroom/inventory-engine/audit"
	"github.com/stockroom/inventory-engine/catalog"
	"github.com/stockroom/inventory-engine/ledger"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ catalog.Store = (*Store)(nil)
	_ ledger.Store  = (*Store)(nil)
	_ audit.Reader  = (*Store)(nil)
)

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Catalog: current item state. Barcode is the unique external identifier.
	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		category TEXT,
		barcode TEXT UNIQUE,
		quantity INTEGER NOT NULL DEFAULT 0,
		supplier TEXT,
		purchase_price TEXT NOT NULL DEFAULT '0',
		sale_price TEXT NOT NULL DEFAULT '0',
		location TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_barcode ON items(barcode);

	-- Transactions (immutable once committed)
	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		user TEXT,
		type TEXT NOT NULL,
		customer TEXT,
		total_amount TEXT NOT NULL DEFAULT '0',
		notes TEXT,
		idempotency_key TEXT UNIQUE
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_timestamp
		ON transactions(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_type
		ON transactions(type);

	-- Line items: denormalized barcode/name snapshot so history survives
	-- item rename or delete. Foreign keys are advisory, no cascade.
	CREATE TABLE IF NOT EXISTS transaction_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_id INTEGER NOT NULL,
		item_id INTEGER,
		barcode TEXT,
		item_name TEXT,
		quantity_changed INTEGER NOT NULL,
		quantity_before INTEGER NOT NULL,
		quantity_after INTEGER NOT NULL,
		unit_price TEXT NOT NULL DEFAULT '0',
		FOREIGN KEY(transaction_id) REFERENCES transactions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_transaction_items_tx
		ON transaction_items(transaction_id);

	-- Audit trail (append-only)
	CREATE TABLE IF NOT EXISTS logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		user TEXT,
		action TEXT,
		item_id INTEGER,
		quantity INTEGER,
		location TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON logs(timestamp DESC);

	-- Sale projection (append-only)
	CREATE TABLE IF NOT EXISTS sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		user TEXT,
		item_id INTEGER,
		qty_sold INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_sales_timestamp ON sales(timestamp DESC);

	-- Settings
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// queryable is satisfied by both *sql.DB and *sql.Tx.
type queryable interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// CATALOG STORE (catalog.Store interface)
// =============================================================================

// InsertItem persists a new item and returns its assigned id.
func (s *Store) InsertItem(ctx context.Context, item catalog.Item) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO items (name, category, barcode, quantity, supplier, purchase_price, sale_price, location, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Name,
		item.Category,
		item.Barcode,
		item.Quantity,
		item.Supplier,
		item.PurchasePrice.String(),
		item.SalePrice.String(),
		item.Location,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, catalog.ErrDuplicateBarcode
		}
		return 0, fmt.Errorf("failed to insert item: %w", err)
	}
	return res.LastInsertId()
}

// ItemByBarcode resolves an item by external identifier.
func (s *Store) ItemByBarcode(ctx context.Context, code string) (*catalog.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return itemByBarcode(ctx, s.db, code)
}

func itemByBarcode(ctx context.Context, q queryable, code string) (*catalog.Item, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, name, category, barcode, quantity, supplier, purchase_price, sale_price, location, created_at
		FROM items WHERE barcode = ?`, code)

	item, err := scanItem(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query item: %w", err)
	}
	return item, nil
}

// ListItems returns all items ordered by id.
func (s *Store) ListItems(ctx context.Context) ([]catalog.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, barcode, quantity, supplier, purchase_price, sale_price, location, created_at
		FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []catalog.Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func scanItem(scan func(dest ...any) error) (*catalog.Item, error) {
	var (
		item                     catalog.Item
		category, supplier       sql.NullString
		barcode, location        sql.NullString
		purchasePrice, salePrice string
		createdAt                string
	)

	err := scan(&item.ID, &item.Name, &category, &barcode, &item.Quantity,
		&supplier, &purchasePrice, &salePrice, &location, &createdAt)
	if err != nil {
		return nil, err
	}

	item.Category = category.String
	item.Barcode = barcode.String
	item.Supplier = supplier.String
	item.Location = location.String
	item.PurchasePrice = mustDecimal(purchasePrice)
	item.SalePrice = mustDecimal(salePrice)
	item.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &item, nil
}

// SetItemQuantity writes the quantity unconditionally.
func (s *Store) SetItemQuantity(ctx context.Context, itemID, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return updateItemQuantity(ctx, s.db, itemID, quantity)
}

func updateItemQuantity(ctx context.Context, q queryable, itemID, quantity int64) error {
	_, err := q.ExecContext(ctx, "UPDATE items SET quantity = ? WHERE id = ?", quantity, itemID)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}
	return nil
}

// DeleteItem removes an item. No cascade to historical line items.
func (s *Store) DeleteItem(ctx context.Context, itemID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM items WHERE id = ?", itemID)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

// AppendLog writes one audit trail entry.
func (s *Store) AppendLog(ctx context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return appendLog(ctx, s.db, entry)
}

func appendLog(ctx context.Context, q queryable, entry audit.Entry) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO logs (timestamp, user, action, item_id, quantity, location)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ts.Format(time.RFC3339), entry.User, entry.Action, entry.ItemID, entry.Quantity, entry.Location)
	if err != nil {
		return fmt.Errorf("failed to append log: %w", err)
	}
	return nil
}

// =============================================================================
// TRANSACTIONAL STORE (ledger.Store interface)
// =============================================================================

// WithTx executes fn within a database transaction. An error from fn
// rolls back everything written through the Tx.
func (s *Store) WithTx(ctx context.Context, fn func(ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore is the ledger.Tx write surface. It must not take the store
// mutex: WithTx already holds it.
type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) ItemByBarcode(ctx context.Context, code string) (*catalog.Item, error) {
	return itemByBarcode(ctx, ts.tx, code)
}

func (ts *txStore) UpdateItemQuantity(ctx context.Context, itemID, quantity int64) error {
	return updateItemQuantity(ctx, ts.tx, itemID, quantity)
}

func (ts *txStore) InsertTransaction(ctx context.Context, tx *ledger.Transaction) error {
	res, err := ts.tx.ExecContext(ctx, `
		INSERT INTO transactions (timestamp, user, type, customer, total_amount, notes, idempotency_key)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.Timestamp.Format(time.RFC3339),
		tx.PerformedBy,
		string(tx.Type),
		tx.Customer,
		tx.TotalAmount.String(),
		tx.Notes,
		nullString(tx.IdempotencyKey),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateTransaction
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	tx.ID, err = res.LastInsertId()
	return err
}

func (ts *txStore) InsertLine(ctx context.Context, transactionID int64, line *ledger.Line) error {
	res, err := ts.tx.ExecContext(ctx, `
		INSERT INTO transaction_items
		(transaction_id, item_id, barcode, item_name, quantity_changed, quantity_before, quantity_after, unit_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		transactionID,
		line.ItemID,
		line.Barcode,
		line.ItemName,
		line.QuantityChanged,
		line.QuantityBefore,
		line.QuantityAfter,
		line.UnitPrice.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction item: %w", err)
	}
	line.ID, err = res.LastInsertId()
	return err
}

func (ts *txStore) InsertLog(ctx context.Context, entry audit.Entry) error {
	return appendLog(ctx, ts.tx, entry)
}

func (ts *txStore) InsertSale(ctx context.Context, rec audit.SaleRecord) error {
	at := rec.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := ts.tx.ExecContext(ctx, `
		INSERT INTO sales (timestamp, user, item_id, qty_sold)
		VALUES (?, ?, ?, ?)`,
		at.Format(time.RFC3339), rec.User, rec.ItemID, rec.QtySold)
	if err != nil {
		return fmt.Errorf("failed to insert sale record: %w", err)
	}
	return nil
}

// =============================================================================
// SETTINGS
// =============================================================================

const lowStockKey = "low_stock_threshold"

// LowStockThreshold returns the configured threshold, defaulting to
// ledger.DefaultLowStockThreshold when unset or malformed.
func (s *Store) LowStockThreshold(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", lowStockKey).Scan(&value)
	if err == sql.ErrNoRows {
		return ledger.DefaultLowStockThreshold, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read setting: %w", err)
	}

	threshold, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return ledger.DefaultLowStockThreshold, nil
	}
	return threshold, nil
}

// SetLowStockThreshold updates the configured threshold.
func (s *Store) SetLowStockThreshold(ctx context.Context, threshold int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		lowStockKey, strconv.FormatInt(threshold, 10))
	if err != nil {
		return fmt.Errorf("failed to write setting: %w", err)
	}
	return nil
}

// =============================================================================
// TRANSACTION READ-BACK (presentation and export)
// =============================================================================

// RecentTransactions returns transactions most-recent-first, without
// their line items.
func (s *Store) RecentTransactions(ctx context.Context, limit int) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, user, type, customer, total_amount, notes, idempotency_key
		FROM transactions
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// TransactionByID returns one transaction with its line items, or nil
// when missing.
func (s *Store) TransactionByID(ctx context.Context, id int64) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, user, type, customer, total_amount, notes, idempotency_key
		FROM transactions WHERE id = ?`, id)

	tx, err := scanTransaction(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}

	tx.Lines, err = s.linesFor(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// AllTransactionsWithLines returns every transaction with its line
// items, most-recent-first. Used by the CSV exporter.
func (s *Store) AllTransactionsWithLines(ctx context.Context) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, user, type, customer, total_amount, notes, idempotency_key
		FROM transactions
		ORDER BY timestamp DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txs, err := collectTransactions(rows)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		txs[i].Lines, err = s.linesFor(ctx, txs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return txs, nil
}

func collectTransactions(rows *sql.Rows) ([]ledger.Transaction, error) {
	var txs []ledger.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

func scanTransaction(scan func(dest ...any) error) (*ledger.Transaction, error) {
	var (
		tx                     ledger.Transaction
		timestamp, totalAmount string
		user, customer, notes  sql.NullString
		idempotencyKey         sql.NullString
		txType                 string
	)

	err := scan(&tx.ID, &timestamp, &user, &txType, &customer, &totalAmount, &notes, &idempotencyKey)
	if err != nil {
		return nil, err
	}

	tx.Timestamp, _ = time.Parse(time.RFC3339, timestamp)
	tx.PerformedBy = user.String
	tx.Type = ledger.TransactionType(txType)
	tx.Customer = customer.String
	tx.TotalAmount = mustDecimal(totalAmount)
	tx.Notes = notes.String
	tx.IdempotencyKey = idempotencyKey.String
	return &tx, nil
}

func (s *Store) linesFor(ctx context.Context, transactionID int64) ([]ledger.Line, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item_id, barcode, item_name, quantity_changed, quantity_before, quantity_after, unit_price
		FROM transaction_items
		WHERE transaction_id = ?
		ORDER BY id`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction items: %w", err)
	}
	defer rows.Close()

	var lines []ledger.Line
	for rows.Next() {
		var (
			ln                ledger.Line
			barcode, itemName sql.NullString
			unitPrice         string
		)
		if err := rows.Scan(&ln.ID, &ln.ItemID, &barcode, &itemName,
			&ln.QuantityChanged, &ln.QuantityBefore, &ln.QuantityAfter, &unitPrice); err != nil {
			return nil, err
		}
		ln.Barcode = barcode.String
		ln.ItemName = itemName.String
		ln.UnitPrice = mustDecimal(unitPrice)
		lines = append(lines, ln)
	}
	return lines, rows.Err()
}

// =============================================================================
// AUDIT READ-BACK (audit.Reader interface)
// =============================================================================

// RecentEntries returns audit log rows most-recent-first.
func (s *Store) RecentEntries(ctx context.Context, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, user, action, item_id, quantity, location
		FROM logs
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			e                      audit.Entry
			timestamp              string
			user, action, location sql.NullString
			itemID, quantity       sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &timestamp, &user, &action, &itemID, &quantity, &location); err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(time.RFC3339, timestamp)
		e.User = user.String
		e.Action = action.String
		e.ItemID = itemID.Int64
		e.Quantity = quantity.Int64
		e.Location = location.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecentSales returns sale projection rows most-recent-first.
func (s *Store) RecentSales(ctx context.Context, limit int) ([]audit.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, user, item_id, qty_sold
		FROM sales
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var records []audit.SaleRecord
	for rows.Next() {
		var (
			r               audit.SaleRecord
			timestamp       string
			user            sql.NullString
			itemID, qtySold sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &timestamp, &user, &itemID, &qtySold); err != nil {
			return nil, err
		}
		r.Timestamp, _ = time.Parse(time.RFC3339, timestamp)
		r.User = user.String
		r.ItemID = itemID.Int64
		r.QtySold = qtySold.Int64
		records = append(records, r)
	}
	return records, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// CountRows returns the row count of a known table. Used by tests to
// assert no partial effects after failed applies.
func (s *Store) CountRows(ctx context.Context, table string) (int64, error) {
	switch table {
	case "items", "transactions", "transaction_items", "logs", "sales":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
	return count, err
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
