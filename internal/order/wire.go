package order

import (
	"database/sql"

	"go.uber.org/zap"

	"orderflow/internal/config"
	"orderflow/internal/order/controller"
	orderrepo "orderflow/internal/order/repository"
	"orderflow/internal/order/service"
	"orderflow/internal/order/usecase"
)

func NewModule(db *sql.DB, cfg *config.Config, carts usecase.CartClient, logger *zap.Logger) *controller.OrdersController {
	orderRepo := orderrepo.NewMySQLOrderRepository(db)
	orderItemRepo := orderrepo.NewMySQLOrderItemRepository(db)

	placement := service.NewPlacementService(
		db,
		orderRepo,
		orderItemRepo,
		logger,
		cfg.Order.RequestTimeout,
	)

	useCase := usecase.NewOrdersUseCase(
		carts,
		placement,
		orderRepo,
		orderItemRepo,
		logger,
		cfg.Order.PersistMaxAttempts,
		cfg.Order.RequestTimeout,
	)

	return controller.NewOrdersController(useCase, logger)
}
