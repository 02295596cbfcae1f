package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"orderflow/internal/domain"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type OrderRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, order *domain.Order) (uint, error)
}

type OrderItemRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, item domain.OrderItem) (uint, error)
}

// PlacementService writes an order and its items in a single transaction.
type PlacementService struct {
	db            TransactionManager
	orderRepo     OrderRepository
	orderItemRepo OrderItemRepository
	logger        *zap.Logger
	txTimeout     time.Duration
}

func NewPlacementService(
	db TransactionManager,
	orderRepo OrderRepository,
	orderItemRepo OrderItemRepository,
	logger *zap.Logger,
	txTimeout time.Duration,
) *PlacementService {
	return &PlacementService{
		db:            db,
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		logger:        logger,
		txTimeout:     txTimeout,
	}
}

// Place persists the order. Ids are assigned to the order and its items only
// after the commit succeeds, so a failed attempt leaves them untouched. A
// non-positive txTimeout leaves the caller's deadline in charge.
func (s *PlacementService) Place(ctx context.Context, order *domain.Order) error {
	txCtx := ctx
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	tx, err := s.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return err
	}
	// MySQL ignores rollback if already committed.
	defer tx.Rollback()

	orderID, err := s.orderRepo.Insert(txCtx, tx, order)
	if err != nil {
		s.logger.Error("failed to insert order", zap.String("orderNumber", order.OrderNumber), zap.Error(err))
		return err
	}

	itemIDs := make([]uint, len(order.Items))
	for i, item := range order.Items {
		item.OrderID = orderID
		itemIDs[i], err = s.orderItemRepo.Insert(txCtx, tx, item)
		if err != nil {
			s.logger.Error("failed to insert order item", zap.Uint("orderId", orderID), zap.Int64("productId", item.ProductID), zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.Uint("orderId", orderID), zap.Error(err))
		return err
	}

	order.ID = orderID
	for i := range order.Items {
		order.Items[i].OrderID = orderID
		order.Items[i].ID = itemIDs[i]
	}

	s.logger.Info("order persisted", zap.Uint("orderId", orderID), zap.String("orderNumber", order.OrderNumber), zap.Int("itemCount", len(order.Items)))
	return nil
}
