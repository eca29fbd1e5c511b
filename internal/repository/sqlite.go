package repository

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteDB wraps the store database. The pool is capped at a single
// connection, so every transaction runs serialized against the file: a
// Reserve batch or a status CAS always sees a consistent snapshot.
type SQLiteDB struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteDB opens the database and initializes the schema.
func NewSQLiteDB(path string, logger *zap.Logger) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sdb := &SQLiteDB{db: db, logger: logger}
	if err := sdb.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDB) initSchema() error {
	schema := `
	-- Products table: catalog plus the stock ledger (single source of truth)
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		unit_price INTEGER NOT NULL,
		stock INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		CHECK(unit_price >= 0),
		CHECK(stock >= 0)
	);

	-- Orders table: status is transitioned only via compare-and-swap updates
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		expires_at INTEGER NOT NULL,
		paid_at INTEGER,
		CHECK(status IN ('CREATED', 'PAID', 'CANCELLED', 'EXPIRED'))
	);

	-- Order lines: name/price snapshots taken at creation time
	CREATE TABLE IF NOT EXISTS order_lines (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id),
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		unit_price INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		position INTEGER NOT NULL,
		CHECK(quantity > 0)
	);

	CREATE INDEX IF NOT EXISTS idx_order_lines_order_id ON order_lines(order_id);
	CREATE INDEX IF NOT EXISTS idx_order_lines_product_id ON order_lines(product_id);
	CREATE INDEX IF NOT EXISTS idx_orders_status_expires ON orders(status, expires_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	s.logger.Info("Database schema initialized")
	return nil
}

func nullableTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}
