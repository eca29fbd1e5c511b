package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"store-service/internal/domain"

	"github.com/google/uuid"
)

// SQLiteOrderRepository persists orders with their line snapshots and
// implements the status compare-and-swap as a guarded UPDATE.
type SQLiteOrderRepository struct {
	sdb *SQLiteDB
}

func NewSQLiteOrderRepository(sdb *SQLiteDB) *SQLiteOrderRepository {
	return &SQLiteOrderRepository{sdb: sdb}
}

func (r *SQLiteOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin create transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, status, created_at, expires_at, paid_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		order.ID.String(),
		string(order.Status),
		order.CreatedAt.UnixNano(),
		order.ExpiresAt.UnixNano(),
		nullableTime(order.PaidAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i, line := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (id, order_id, product_id, product_name, unit_price, quantity, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			line.ID.String(),
			order.ID.String(),
			line.ProductID.String(),
			line.ProductName,
			line.UnitPrice,
			line.Quantity,
			i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.sdb.db.QueryRowContext(ctx, `
		SELECT id, status, created_at, expires_at, paid_at
		FROM orders
		WHERE id = ?
	`, id.String())

	order, err := scanOrder(row)
	if err != nil {
		return nil, err
	}

	order.Lines, err = r.findLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *SQLiteOrderRepository) List(ctx context.Context, page, pageSize int) ([]domain.Order, int, error) {
	var total int
	if err := r.sdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	rows, err := r.sdb.db.QueryContext(ctx, `
		SELECT id, status, created_at, expires_at, paid_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}

	for i := range orders {
		orders[i].Lines, err = r.findLines(ctx, orders[i].ID)
		if err != nil {
			return nil, 0, err
		}
	}
	return orders, total, nil
}

func (r *SQLiteOrderRepository) FindExpired(ctx context.Context, before time.Time) ([]domain.Order, error) {
	rows, err := r.sdb.db.QueryContext(ctx, `
		SELECT id, status, created_at, expires_at, paid_at
		FROM orders
		WHERE status = ? AND expires_at < ?
		ORDER BY expires_at ASC
	`, string(domain.StatusCreated), before.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to query expired orders: %w", err)
	}

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Lines, err = r.findLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// UpdateStatus succeeds only when the stored status still equals from: the
// WHERE clause makes the check and the write one indivisible statement.
func (r *SQLiteOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus, paidAt *time.Time) error {
	result, err := r.sdb.db.ExecContext(ctx, `
		UPDATE orders
		SET status = ?, paid_at = COALESCE(?, paid_at)
		WHERE id = ? AND status = ?
	`, string(to), nullableTime(paidAt), id.String(), string(from))
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// The swap did not land: distinguish a missing order from a lost race.
	var current string
	err = r.sdb.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = ?`, id.String()).Scan(&current)
	if err == sql.ErrNoRows {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read order status: %w", err)
	}
	return domain.ErrStatusConflict
}

func (r *SQLiteOrderRepository) ProductInActiveOrder(ctx context.Context, productID uuid.UUID) (bool, error) {
	var exists bool
	err := r.sdb.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1
			FROM order_lines l
			JOIN orders o ON o.id = l.order_id
			WHERE l.product_id = ? AND o.status = ?
		)
	`, productID.String(), string(domain.StatusCreated)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active orders: %w", err)
	}
	return exists, nil
}

func (r *SQLiteOrderRepository) findLines(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLine, error) {
	rows, err := r.sdb.db.QueryContext(ctx, `
		SELECT id, product_id, product_name, unit_price, quantity
		FROM order_lines
		WHERE order_id = ?
		ORDER BY position ASC
	`, orderID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.OrderLine, 0)
	for rows.Next() {
		var line domain.OrderLine
		var idStr, productIDStr string
		if err := rows.Scan(&idStr, &productIDStr, &line.ProductName, &line.UnitPrice, &line.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		if line.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("failed to parse line id: %w", err)
		}
		if line.ProductID, err = uuid.Parse(productIDStr); err != nil {
			return nil, fmt.Errorf("failed to parse line product id: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order lines: %w", err)
	}
	return lines, nil
}

func scanOrder(row *sql.Row) (*domain.Order, error) {
	var order domain.Order
	var idStr, status string
	var createdAt, expiresAt int64
	var paidAt sql.NullInt64

	err := row.Scan(&idStr, &status, &createdAt, &expiresAt, &paidAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	if order.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("failed to parse order id: %w", err)
	}
	order.Status = domain.OrderStatus(status)
	order.CreatedAt = time.Unix(0, createdAt)
	order.ExpiresAt = time.Unix(0, expiresAt)
	if paidAt.Valid {
		t := time.Unix(0, paidAt.Int64)
		order.PaidAt = &t
	}
	return &order, nil
}

func collectOrders(rows *sql.Rows) ([]domain.Order, error) {
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		var order domain.Order
		var idStr, status string
		var createdAt, expiresAt int64
		var paidAt sql.NullInt64

		if err := rows.Scan(&idStr, &status, &createdAt, &expiresAt, &paidAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse order id: %w", err)
		}
		order.ID = id
		order.Status = domain.OrderStatus(status)
		order.CreatedAt = time.Unix(0, createdAt)
		order.ExpiresAt = time.Unix(0, expiresAt)
		if paidAt.Valid {
			t := time.Unix(0, paidAt.Int64)
			order.PaidAt = &t
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}
