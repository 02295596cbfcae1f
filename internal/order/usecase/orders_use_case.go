package usecase

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"orderflow/internal/domain"
	"orderflow/internal/dto"
	apperrors "orderflow/internal/errors"
	"orderflow/internal/metrics"
)

type CartClient interface {
	FetchActive(ctx context.Context, userID int64) (*domain.Cart, error)
	Clear(ctx context.Context, cartID int64) error
}

type OrderPlacer interface {
	Place(ctx context.Context, order *domain.Order) error
}

type OrderRepository interface {
	FindByIDAndUser(ctx context.Context, id uint, userID int64) (*domain.Order, error)
	FindByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	FindByUserAndStatus(ctx context.Context, userID int64, status domain.OrderStatus) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uint, userID int64, expected, status domain.OrderStatus, updatedAt time.Time) error
}

type OrderItemRepository interface {
	FindByOrderIDs(ctx context.Context, orderIDs []uint) (map[uint][]domain.OrderItem, error)
}

type OrdersUseCase struct {
	carts            CartClient
	placer           OrderPlacer
	orderRepo        OrderRepository
	orderItemRepo    OrderItemRepository
	logger           *zap.Logger
	maxRetryAttempts int
	requestTimeout   time.Duration
	backoffs         []time.Duration
	now              func() time.Time
}

func NewOrdersUseCase(
	carts CartClient,
	placer OrderPlacer,
	orderRepo OrderRepository,
	orderItemRepo OrderItemRepository,
	logger *zap.Logger,
	maxRetryAttempts int,
	requestTimeout time.Duration,
) *OrdersUseCase {
	return &OrdersUseCase{
		carts:            carts,
		placer:           placer,
		orderRepo:        orderRepo,
		orderItemRepo:    orderItemRepo,
		logger:           logger,
		maxRetryAttempts: maxRetryAttempts,
		requestTimeout:   requestTimeout,
		// attempt 1 waits 100ms before retrying, attempt 2 200ms, then 400ms onwards.
		backoffs: []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond},
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateFromActiveCart turns the user's active cart into a persisted order.
// The cart is cleared afterwards on a best-effort basis: once the order is
// stored, nothing that happens to the cart can undo it.
func (uc *OrdersUseCase) CreateFromActiveCart(ctx context.Context, req dto.CreateOrderRequest, userID int64) (*domain.Order, error) {
	if uc.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.requestTimeout)
		defer cancel()
	}

	logger := uc.logger.With(zap.Int64("userId", userID))
	logger.Info("create order started")

	// Bloque 1: carrito activo
	cart, err := uc.carts.FetchActive(ctx, userID)
	if err != nil {
		logger.Warn("fetching active cart failed", zap.Error(err))
		metrics.OrdersTotal.WithLabelValues("cart_unavailable").Inc()
		return nil, err
	}

	if !cart.IsOrderable() {
		logger.Info("no orderable cart")
		metrics.OrdersTotal.WithLabelValues("empty_cart").Inc()
		return nil, apperrors.NewEmptyCartError(userID)
	}

	if req.CartID != nil && *req.CartID != cart.ID {
		logger.Debug("requested cart differs from active cart", zap.Int64("requestedCartId", *req.CartID), zap.Int64("cartId", cart.ID))
	}

	// Bloque 2: snapshot
	order, err := domain.NewOrderFromCart(cart, req.ShippingAddress.ToDomain(), req.PaymentMethod.ToDomain(), uc.now())
	if err != nil {
		logger.Warn("cart cannot be turned into an order", zap.Int64("cartId", cart.ID), zap.Error(err))
		metrics.OrdersTotal.WithLabelValues("invalid_cart").Inc()
		return nil, apperrors.NewValidationError("cart contains invalid items", apperrors.ValidationDetail{
			Field:   "cart",
			Message: err.Error(),
		})
	}
	order.UserID = userID

	// Bloque 3: persistencia con retry
	if err := uc.placeWithRetry(ctx, order); err != nil {
		logger.Error("persisting order failed", zap.String("orderNumber", order.OrderNumber), zap.Error(err))
		metrics.OrdersTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	// Bloque 4: vaciar carrito (best-effort)
	if err := uc.carts.Clear(ctx, cart.ID); err != nil {
		logger.Warn("clearing cart failed, order kept", zap.Uint("orderId", order.ID), zap.Int64("cartId", cart.ID), zap.Error(err))
		metrics.CartClearFailures.Inc()
	}

	metrics.OrdersTotal.WithLabelValues("created").Inc()
	logger.Info("order created", zap.Uint("orderId", order.ID), zap.String("orderNumber", order.OrderNumber), zap.String("total", order.Total.String()))

	return order, nil
}

func (uc *OrdersUseCase) UpdateStatus(ctx context.Context, orderID uint, newStatus domain.OrderStatus, userID int64) (*domain.Order, error) {
	order, err := uc.GetByID(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if err := order.ChangeStatus(newStatus, uc.now()); err != nil {
		uc.logger.Info("status change rejected", zap.Uint("orderId", orderID), zap.String("from", string(previous)), zap.String("to", string(newStatus)))
		return nil, err
	}

	if err := uc.saveStatus(ctx, order, previous, userID); err != nil {
		return nil, err
	}

	uc.logger.Info("order status updated", zap.Uint("orderId", orderID), zap.String("from", string(previous)), zap.String("to", string(order.Status)))
	return order, nil
}

func (uc *OrdersUseCase) Cancel(ctx context.Context, orderID uint, userID int64) (*domain.Order, error) {
	order, err := uc.GetByID(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if err := order.Cancel(uc.now()); err != nil {
		uc.logger.Info("cancellation rejected", zap.Uint("orderId", orderID), zap.String("status", string(previous)))
		return nil, err
	}

	if err := uc.saveStatus(ctx, order, previous, userID); err != nil {
		return nil, err
	}

	uc.logger.Info("order cancelled", zap.Uint("orderId", orderID), zap.String("from", string(previous)))
	return order, nil
}

func (uc *OrdersUseCase) GetByID(ctx context.Context, orderID uint, userID int64) (*domain.Order, error) {
	order, err := uc.orderRepo.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	if err := uc.attachItems(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

// ListByUser returns the user's orders, most recent first.
func (uc *OrdersUseCase) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	orders, err := uc.orderRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := uc.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (uc *OrdersUseCase) ListByStatus(ctx context.Context, userID int64, status domain.OrderStatus) ([]*domain.Order, error) {
	orders, err := uc.orderRepo.FindByUserAndStatus(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	if err := uc.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (uc *OrdersUseCase) CanCancel(ctx context.Context, orderID uint, userID int64) (bool, error) {
	order, err := uc.orderRepo.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		return false, err
	}
	return order.Status.CanCancel(), nil
}

// saveStatus writes the new status only if the stored one is still previous.
// Losing that race surfaces the same error the state machine would have
// produced against the status that won.
func (uc *OrdersUseCase) saveStatus(ctx context.Context, order *domain.Order, previous domain.OrderStatus, userID int64) error {
	err := uc.orderRepo.UpdateStatus(ctx, order.ID, userID, previous, order.Status, order.UpdatedAt)
	if err == nil {
		metrics.OrderStatusChanges.WithLabelValues(string(order.Status)).Inc()
		return nil
	}

	if _, ok := apperrors.IsNotFoundError(err); !ok {
		return err
	}

	current, findErr := uc.orderRepo.FindByIDAndUser(ctx, order.ID, userID)
	if findErr != nil {
		return findErr
	}

	uc.logger.Warn("concurrent status change detected", zap.Uint("orderId", order.ID), zap.String("expected", string(previous)), zap.String("current", string(current.Status)))
	if order.Status == domain.OrderStatusCancelled && !current.Status.CanCancel() {
		return apperrors.NewInvalidCancellationError(string(current.Status))
	}
	return apperrors.NewIllegalTransitionError(string(current.Status), string(order.Status))
}

func (uc *OrdersUseCase) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uint, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	items, err := uc.orderItemRepo.FindByOrderIDs(ctx, ids)
	if err != nil {
		return err
	}

	for _, o := range orders {
		o.Items = items[o.ID]
	}
	return nil
}

func (uc *OrdersUseCase) placeWithRetry(ctx context.Context, order *domain.Order) error {
	maxAttempts := uc.maxRetryAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := uc.placer.Place(ctx, order)
		if err == nil {
			return nil
		}

		switch {
		case isDeadlockError(err):
			if attempt == maxAttempts {
				return apperrors.NewDeadlockError("max retries exceeded")
			}
			uc.logger.Warn("deadlock detected, retrying", zap.Int("attempt", attempt), zap.Int("maxAttempts", maxAttempts), zap.String("orderNumber", order.OrderNumber))
			if err := uc.sleep(ctx, attempt); err != nil {
				return err
			}

		case isDuplicateKeyError(err):
			if attempt == maxAttempts {
				return apperrors.NewInternalError("could not allocate a unique order number", err)
			}
			previous := order.OrderNumber
			order.OrderNumber = domain.NewOrderNumber(uc.now())
			uc.logger.Warn("order number collision, regenerating", zap.String("previous", previous), zap.String("orderNumber", order.OrderNumber))

		default:
			return err
		}
	}

	return apperrors.NewDeadlockError("max retries exceeded")
}

// sleep waits the backoff for attempt with ±20% jitter, or until ctx is done.
func (uc *OrdersUseCase) sleep(ctx context.Context, attempt int) error {
	if len(uc.backoffs) == 0 {
		return nil
	}
	base := uc.backoffs[min(attempt-1, len(uc.backoffs)-1)]
	jitter := time.Duration(float64(base) * (rand.Float64()*0.4 - 0.2))

	timer := time.NewTimer(base + jitter)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isDeadlockError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}
