package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"orderflow/internal/domain"
)

type MySQLOrderItemRepository struct {
	db *sql.DB
}

func NewMySQLOrderItemRepository(db *sql.DB) *MySQLOrderItemRepository {
	return &MySQLOrderItemRepository{db: db}
}

func (r *MySQLOrderItemRepository) Insert(ctx context.Context, tx *sql.Tx, item domain.OrderItem) (uint, error) {
	query := `
		INSERT INTO OrderItems (
			orderId, productId, productName, productDescription, productImage, quantity,
			unitPrice, discountRate, unitDiscount, finalUnitPrice, subtotal, discountTotal, lineTotal
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		item.OrderID, item.ProductID, item.ProductName, item.ProductDescription, item.ProductImage, item.Quantity,
		item.UnitPrice, item.DiscountRate, item.UnitDiscount, item.FinalUnitPrice, item.Subtotal, item.DiscountTotal, item.LineTotal,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting order item: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return uint(lastInsertID), nil
}

// FindByOrderIDs loads the items of several orders in one query, keyed by
// order id and kept in insertion order.
func (r *MySQLOrderItemRepository) FindByOrderIDs(ctx context.Context, orderIDs []uint) (map[uint][]domain.OrderItem, error) {
	items := make(map[uint][]domain.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return items, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(orderIDs)), ",")
	query := `
		SELECT id, orderId, productId, productName, productDescription, productImage, quantity,
		       unitPrice, discountRate, unitDiscount, finalUnitPrice, subtotal, discountTotal, lineTotal
		FROM OrderItems
		WHERE orderId IN (` + placeholders + `)
		ORDER BY orderId, id
	`

	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		var description sql.NullString
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &description, &item.ProductImage, &item.Quantity,
			&item.UnitPrice, &item.DiscountRate, &item.UnitDiscount, &item.FinalUnitPrice, &item.Subtotal, &item.DiscountTotal, &item.LineTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		item.ProductDescription = description.String
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order items: %w", err)
	}

	return items, nil
}
