package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"orderflow/internal/domain"
	"orderflow/internal/dto"
	apperrors "orderflow/internal/errors"
)

const userIDHeader = "X-User-Id"

type OrdersUseCase interface {
	CreateFromActiveCart(ctx context.Context, req dto.CreateOrderRequest, userID int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, orderID uint, newStatus domain.OrderStatus, userID int64) (*domain.Order, error)
	Cancel(ctx context.Context, orderID uint, userID int64) (*domain.Order, error)
	GetByID(ctx context.Context, orderID uint, userID int64) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	ListByStatus(ctx context.Context, userID int64, status domain.OrderStatus) ([]*domain.Order, error)
	CanCancel(ctx context.Context, orderID uint, userID int64) (bool, error)
}

type OrdersController struct {
	useCase OrdersUseCase
	logger  *zap.Logger
}

func NewOrdersController(useCase OrdersUseCase, logger *zap.Logger) *OrdersController {
	return &OrdersController{
		useCase: useCase,
		logger:  logger,
	}
}

// Routes mounts the order endpoints on r.
func (c *OrdersController) Routes(r chi.Router) {
	r.Post("/", c.Create)
	r.Get("/", c.List)
	r.Get("/status/{status}", c.ListByStatus)
	r.Get("/{orderId}", c.Get)
	r.Put("/{orderId}/status", c.UpdateStatus)
	r.Put("/{orderId}/cancel", c.Cancel)
	r.Get("/{orderId}/can-cancel", c.CanCancel)
}

func (c *OrdersController) Create(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.trace(r)

	userID, ok := c.userID(w, r, traceID, logger)
	if !ok {
		return
	}

	var req dto.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if validationErr := c.validateCreateOrderRequest(req); validationErr != nil {
		ve, _ := apperrors.IsValidationError(validationErr)
		c.writeValidationError(w, traceID, ve.Message, ve.Details...)
		return
	}

	order, err := c.useCase.CreateFromActiveCart(r.Context(), req, userID)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusCreated, dto.NewOrderResponse(order))
}

func (c *OrdersController) List(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.trace(r)

	userID, ok := c.userID(w, r, traceID, logger)
	if !ok {
		return
	}

	orders, err := c.useCase.ListByUser(r.Context(), userID)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.NewOrderResponses(orders))
}

func (c *OrdersController) ListByStatus(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.trace(r)

	userID, ok := c.userID(w, r, traceID, logger)
	if !ok {
		return
	}

	status, ok := c.status(w, chi.URLParam(r, "status"), "status", traceID)
	if !ok {
		return
	}

	orders, err := c.useCase.ListByStatus(r.Context(), userID, status)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.NewOrderResponses(orders))
}

func (c *OrdersController) Get(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.trace(r)

	userID, ok := c.userID(w, r, traceID, logger)
	if !ok {
		return
	}
	orderID, ok := c.orderID(w, r, traceID, logger)
	if !ok {
		return
	}

	order, err := c.useCase.GetByID(r.Context(), orderID, userID)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.NewOrderResponse(order))
}

func (c *OrdersController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.trace(r)

	userID, ok := c.userID(w, r, traceID, logger)
	if !ok {
		return
	}
	orderID, ok := c.orderID(w, r, traceID, logger)
	if !ok {
		return
	}
	status, ok := c.status(w, r.URL.Query().Get("newStatus"), "newStatus", traceID)
	if !ok {
		return
	}

	order, err := c.useCase.UpdateStatus(r.Context(), orderID, status, userID)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.NewOrderResponse(order))
}

func (c *OrdersController) Cancel(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.trace(r)

	userID, ok := c.userID(w, r, traceID, logger)
	if !ok {
		return
	}
	orderID, ok := c.orderID(w, r, traceID, logger)
	if !ok {
		return
	}

	order, err := c.useCase.Cancel(r.Context(), orderID, userID)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.NewOrderResponse(order))
}

func (c *OrdersController) CanCancel(w http.ResponseWriter, r *http.Request) {
	traceID, logger := c.trace(r)

	userID, ok := c.userID(w, r, traceID, logger)
	if !ok {
		return
	}
	orderID, ok := c.orderID(w, r, traceID, logger)
	if !ok {
		return
	}

	canCancel, err := c.useCase.CanCancel(r.Context(), orderID, userID)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.CanCancelResponse{OrderID: orderID, CanCancel: canCancel})
}

func (c *OrdersController) trace(r *http.Request) (string, *zap.Logger) {
	traceID := middleware.GetReqID(r.Context())
	if traceID == "" {
		traceID = uuid.New().String()
	}
	return traceID, c.logger.With(zap.String("traceId", traceID))
}

func (c *OrdersController) userID(w http.ResponseWriter, r *http.Request, traceID string, logger *zap.Logger) (int64, bool) {
	raw := r.Header.Get(userIDHeader)
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		logger.Warn("invalid user id header", zap.String("value", raw))
		c.writeValidationError(w, traceID, "invalid "+userIDHeader+" header", apperrors.ValidationDetail{
			Field:   userIDHeader,
			Message: userIDHeader + " must be a positive integer",
		})
		return 0, false
	}
	return userID, true
}

func (c *OrdersController) orderID(w http.ResponseWriter, r *http.Request, traceID string, logger *zap.Logger) (uint, bool) {
	raw := chi.URLParam(r, "orderId")
	orderID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || orderID == 0 {
		logger.Warn("invalid orderId in path", zap.String("value", raw))
		c.writeValidationError(w, traceID, "invalid orderId", apperrors.ValidationDetail{
			Field:   "orderId",
			Message: "orderId must be a positive integer",
		})
		return 0, false
	}
	return uint(orderID), true
}

func (c *OrdersController) status(w http.ResponseWriter, raw, field, traceID string) (domain.OrderStatus, bool) {
	status, ok := domain.ParseOrderStatus(raw)
	if !ok {
		c.writeValidationError(w, traceID, "invalid "+field, apperrors.ValidationDetail{
			Field:   field,
			Message: field + " must be one of PENDING_PAYMENT, IN_PREPARATION, DELIVERED, CANCELLED",
		})
		return "", false
	}
	return status, true
}

func (c *OrdersController) validateCreateOrderRequest(req dto.CreateOrderRequest) error {
	var details []apperrors.ValidationDetail

	if req.CartID != nil && *req.CartID <= 0 {
		details = append(details, apperrors.ValidationDetail{
			Field:   "cartId",
			Message: "cartId must be a positive integer",
		})
	}

	if digits := req.PaymentMethod.LastDigits; digits != "" {
		if len(digits) > 4 || !allDigits(digits) {
			details = append(details, apperrors.ValidationDetail{
				Field:   "paymentMethod.lastDigits",
				Message: "lastDigits must be at most 4 digits",
			})
		}
	}

	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details...)
	}

	return nil
}

func (c *OrdersController) handleUseCaseError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeValidationError(w, traceID, ve.Message, ve.Details...)
		return
	}

	if _, ok := apperrors.IsEmptyCartError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusBadRequest, "EMPTY_CART", err.Error(), "")
		return
	}

	if ic, ok := apperrors.IsInvalidCancellationError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusConflict, "INVALID_CANCELLATION", err.Error(), ic.CurrentStatus)
		return
	}

	if it, ok := apperrors.IsIllegalTransitionError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusConflict, "ILLEGAL_TRANSITION", err.Error(), it.CurrentStatus)
		return
	}

	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusNotFound, "NOT_FOUND", err.Error(), "")
		return
	}

	if _, ok := apperrors.IsUnauthenticatedError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusUnauthorized, "UNAUTHENTICATED", err.Error(), "")
		return
	}

	if du, ok := apperrors.IsDownstreamUnavailableError(err); ok {
		logger.Warn("downstream unavailable", zap.Error(err))
		c.writeErrorResponse(w, traceID, http.StatusServiceUnavailable, "DOWNSTREAM_UNAVAILABLE", du.Service+" unavailable", "")
		return
	}

	if _, ok := apperrors.IsUnavailableError(err); ok {
		logger.Warn("downstream unavailable", zap.Error(err))
		c.writeErrorResponse(w, traceID, http.StatusServiceUnavailable, "DOWNSTREAM_UNAVAILABLE", "a downstream service is unavailable", "")
		return
	}

	if rr, ok := apperrors.IsRemoteRejectedError(err); ok {
		logger.Warn("downstream rejected request", zap.Int("remoteStatus", rr.Status), zap.Error(err))
		c.writeErrorResponse(w, traceID, http.StatusBadGateway, "REMOTE_REJECTED", rr.Message, "")
		return
	}

	if _, ok := apperrors.IsDeadlockError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusConflict, "DEADLOCK", err.Error(), "")
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeErrorResponse(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", "")
}

func (c *OrdersController) writeErrorResponse(w http.ResponseWriter, traceID string, statusCode int, code, message, currentStatus string) {
	response := dto.ErrorResponse{
		TraceID:       traceID,
		Status:        statusCode,
		Code:          code,
		Message:       message,
		CurrentStatus: currentStatus,
		Timestamp:     time.Now().UTC(),
	}

	c.writeJSON(w, statusCode, response)
}

func (c *OrdersController) writeValidationError(w http.ResponseWriter, traceID string, message string, details ...apperrors.ValidationDetail) {
	response := dto.ErrorResponse{
		TraceID:   traceID,
		Status:    http.StatusBadRequest,
		Code:      "VALIDATION_ERROR",
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}

	c.writeJSON(w, http.StatusBadRequest, response)
}

func (c *OrdersController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
