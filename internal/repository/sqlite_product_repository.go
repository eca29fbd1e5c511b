package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"store-service/internal/domain"

	"github.com/google/uuid"
)

// SQLiteProductRepository persists the catalog and runs reserve/release as
// single transactions against the serialized connection.
type SQLiteProductRepository struct {
	sdb *SQLiteDB
}

func NewSQLiteProductRepository(sdb *SQLiteDB) *SQLiteProductRepository {
	return &SQLiteProductRepository{sdb: sdb}
}

func (r *SQLiteProductRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, unit_price, stock, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.sdb.db.ExecContext(ctx, query,
		product.ID.String(),
		product.Name,
		product.UnitPrice,
		product.Stock,
		product.Version,
		product.CreatedAt.UnixNano(),
		product.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *SQLiteProductRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = ?, unit_price = ?, stock = ?, version = version + 1, updated_at = ?
		WHERE id = ?
	`
	result, err := r.sdb.db.ExecContext(ctx, query,
		product.Name,
		product.UnitPrice,
		product.Stock,
		time.Now().UnixNano(),
		product.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *SQLiteProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `
		SELECT id, name, unit_price, stock, version, created_at, updated_at
		FROM products
		WHERE id = ?
	`
	return r.scanProduct(r.sdb.db.QueryRowContext(ctx, query, id.String()))
}

func (r *SQLiteProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	query := `
		SELECT id, name, unit_price, stock, version, created_at, updated_at
		FROM products
		WHERE name = ? COLLATE NOCASE
	`
	return r.scanProduct(r.sdb.db.QueryRowContext(ctx, query, name))
}

func (r *SQLiteProductRepository) List(ctx context.Context, nameFilter string, page, pageSize int) ([]domain.Product, int, error) {
	where := ""
	args := []interface{}{}
	if nameFilter != "" {
		where = `WHERE name LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(nameFilter)+"%")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM products " + where
	if err := r.sdb.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, unit_price, stock, version, created_at, updated_at
		FROM products %s
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`, where)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.sdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		product, err := r.scanProductRow(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

func (r *SQLiteProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.sdb.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Reserve checks and decrements all lines inside one transaction. Either the
// whole batch commits or nothing changes.
func (r *SQLiteProductRepository) Reserve(ctx context.Context, lines []domain.StockLine) error {
	tx, err := r.sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reserve transaction: %w", err)
	}
	defer tx.Rollback()

	for _, line := range lines {
		var stock int
		err := tx.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = ?`, line.ProductID.String()).Scan(&stock)
		if err == sql.ErrNoRows {
			return domain.ErrProductNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read stock: %w", err)
		}
		if stock < line.Quantity {
			return &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Available: stock,
				Requested: line.Quantity,
			}
		}
	}

	now := time.Now().UnixNano()
	for _, line := range lines {
		_, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - ?, version = version + 1, updated_at = ?
			WHERE id = ?
		`, line.Quantity, now, line.ProductID.String())
		if err != nil {
			return fmt.Errorf("failed to decrement stock: %w", err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteProductRepository) Release(ctx context.Context, lines []domain.StockLine) error {
	tx, err := r.sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin release transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixNano()
	for _, line := range lines {
		// A deleted product leaves nothing to restore.
		_, err := tx.ExecContext(ctx, `
			UPDATE products
			SET stock = stock + ?, version = version + 1, updated_at = ?
			WHERE id = ?
		`, line.Quantity, now, line.ProductID.String())
		if err != nil {
			return fmt.Errorf("failed to increment stock: %w", err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteProductRepository) scanProduct(row *sql.Row) (*domain.Product, error) {
	var product domain.Product
	var idStr string
	var createdAt, updatedAt int64

	err := row.Scan(&idStr, &product.Name, &product.UnitPrice, &product.Stock, &product.Version, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	product.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse product id: %w", err)
	}
	product.CreatedAt = time.Unix(0, createdAt)
	product.UpdatedAt = time.Unix(0, updatedAt)
	return &product, nil
}

func (r *SQLiteProductRepository) scanProductRow(rows *sql.Rows) (*domain.Product, error) {
	var product domain.Product
	var idStr string
	var createdAt, updatedAt int64

	err := rows.Scan(&idStr, &product.Name, &product.UnitPrice, &product.Stock, &product.Version, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	product.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse product id: %w", err)
	}
	product.CreatedAt = time.Unix(0, createdAt)
	product.UpdatedAt = time.Unix(0, updatedAt)
	return &product, nil
}

// escapeLike escapes LIKE metacharacters so a filter matches them literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
