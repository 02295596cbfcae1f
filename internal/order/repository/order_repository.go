package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"orderflow/internal/domain"
	"orderflow/internal/errors"
)

const orderColumns = `
	id, userId, orderNumber, status, subtotal, discountTotal, total,
	shipStreet, shipNumber, shipApartment, shipDistrict, shipCity, shipRegion, shipPostalCode, shipReference,
	paymentType, paymentLastDigits, paymentHolderName, paymentBank, paymentTransactionNumber,
	createdAt, updatedAt`

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

func (r *MySQLOrderRepository) Insert(ctx context.Context, tx *sql.Tx, order *domain.Order) (uint, error) {
	query := `
		INSERT INTO Orders (
			userId, orderNumber, status, subtotal, discountTotal, total,
			shipStreet, shipNumber, shipApartment, shipDistrict, shipCity, shipRegion, shipPostalCode, shipReference,
			paymentType, paymentLastDigits, paymentHolderName, paymentBank, paymentTransactionNumber,
			createdAt, updatedAt
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	ship := order.ShippingAddress
	pay := order.PaymentMethod
	result, err := tx.ExecContext(ctx, query,
		order.UserID, order.OrderNumber, string(order.Status), order.Subtotal, order.DiscountTotal, order.Total,
		ship.Street, ship.Number, ship.Apartment, ship.District, ship.City, ship.Region, ship.PostalCode, ship.Reference,
		pay.Type, pay.LastDigits, pay.HolderName, pay.Bank, pay.TransactionNumber,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting order: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return uint(lastInsertID), nil
}

// FindByIDAndUser returns the order header without items. An order that
// belongs to another user is reported as not found.
func (r *MySQLOrderRepository) FindByIDAndUser(ctx context.Context, id uint, userID int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM Orders WHERE id = ? AND userId = ?`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	return order, nil
}

// FindByUser returns the user's orders, most recent first.
func (r *MySQLOrderRepository) FindByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM Orders WHERE userId = ? ORDER BY createdAt DESC, id DESC`
	return r.queryOrders(ctx, query, userID)
}

func (r *MySQLOrderRepository) FindByUserAndStatus(ctx context.Context, userID int64, status domain.OrderStatus) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM Orders WHERE userId = ? AND status = ? ORDER BY createdAt DESC, id DESC`
	return r.queryOrders(ctx, query, userID, string(status))
}

// UpdateStatus moves the order from the expected status to the new one. When
// no row matches, either the order does not exist for the user or its status
// changed concurrently; both are reported as not found.
func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, id uint, userID int64, expected, status domain.OrderStatus, updatedAt time.Time) error {
	query := `UPDATE Orders SET status = ?, updatedAt = ? WHERE id = ? AND userId = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, string(status), updatedAt, id, userID, string(expected))
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("order with id %d not found in status %s", id, expected))
	}

	return nil
}

func (r *MySQLOrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}

	return orders, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var status string
	ship := &order.ShippingAddress
	pay := &order.PaymentMethod

	err := row.Scan(
		&order.ID, &order.UserID, &order.OrderNumber, &status,
		&order.Subtotal, &order.DiscountTotal, &order.Total,
		&ship.Street, &ship.Number, &ship.Apartment, &ship.District, &ship.City, &ship.Region, &ship.PostalCode, &ship.Reference,
		&pay.Type, &pay.LastDigits, &pay.HolderName, &pay.Bank, &pay.TransactionNumber,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatus(status)
	return &order, nil
}
