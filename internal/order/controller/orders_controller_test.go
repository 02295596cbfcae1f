package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"orderflow/internal/domain"
	"orderflow/internal/dto"
	apperrors "orderflow/internal/errors"
)

type mockOrdersUseCase struct {
	CreateFromActiveCartFunc func(ctx context.Context, req dto.CreateOrderRequest, userID int64) (*domain.Order, error)
	UpdateStatusFunc         func(ctx context.Context, orderID uint, newStatus domain.OrderStatus, userID int64) (*domain.Order, error)
	CancelFunc               func(ctx context.Context, orderID uint, userID int64) (*domain.Order, error)
	GetByIDFunc              func(ctx context.Context, orderID uint, userID int64) (*domain.Order, error)
	ListByUserFunc           func(ctx context.Context, userID int64) ([]*domain.Order, error)
	ListByStatusFunc         func(ctx context.Context, userID int64, status domain.OrderStatus) ([]*domain.Order, error)
	CanCancelFunc            func(ctx context.Context, orderID uint, userID int64) (bool, error)
}

func (m *mockOrdersUseCase) CreateFromActiveCart(ctx context.Context, req dto.CreateOrderRequest, userID int64) (*domain.Order, error) {
	return m.CreateFromActiveCartFunc(ctx, req, userID)
}

func (m *mockOrdersUseCase) UpdateStatus(ctx context.Context, orderID uint, newStatus domain.OrderStatus, userID int64) (*domain.Order, error) {
	return m.UpdateStatusFunc(ctx, orderID, newStatus, userID)
}

func (m *mockOrdersUseCase) Cancel(ctx context.Context, orderID uint, userID int64) (*domain.Order, error) {
	return m.CancelFunc(ctx, orderID, userID)
}

func (m *mockOrdersUseCase) GetByID(ctx context.Context, orderID uint, userID int64) (*domain.Order, error) {
	return m.GetByIDFunc(ctx, orderID, userID)
}

func (m *mockOrdersUseCase) ListByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return m.ListByUserFunc(ctx, userID)
}

func (m *mockOrdersUseCase) ListByStatus(ctx context.Context, userID int64, status domain.OrderStatus) ([]*domain.Order, error) {
	return m.ListByStatusFunc(ctx, userID, status)
}

func (m *mockOrdersUseCase) CanCancel(ctx context.Context, orderID uint, userID int64) (bool, error) {
	return m.CanCancelFunc(ctx, orderID, userID)
}

func newTestRouter(uc OrdersUseCase) http.Handler {
	r := chi.NewRouter()
	r.Route("/orders", NewOrdersController(uc, zap.NewNop()).Routes)
	return r
}

func sampleOrder(status domain.OrderStatus) *domain.Order {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	return &domain.Order{
		ID:          1,
		UserID:      7,
		OrderNumber: "ORD-ABCDEF12-1760702400000",
		Status:      status,
		Subtotal:    decimal.RequireFromString("100"),
		Total:       decimal.RequireFromString("100"),
		Items: []domain.OrderItem{
			{ID: 1, OrderID: 1, ProductID: 10, ProductName: "Catan", Quantity: 2, UnitPrice: decimal.RequireFromString("50"), LineTotal: decimal.RequireFromString("100")},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func do(t *testing.T, h http.Handler, method, target, body string, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreate_Success(t *testing.T) {
	var gotReq dto.CreateOrderRequest
	var gotUser int64
	uc := &mockOrdersUseCase{
		CreateFromActiveCartFunc: func(ctx context.Context, req dto.CreateOrderRequest, userID int64) (*domain.Order, error) {
			gotReq = req
			gotUser = userID
			return sampleOrder(domain.OrderStatusPendingPayment), nil
		},
	}

	body := `{"cartId":55,"shippingAddress":{"street":"Av. Siempre Viva","city":"Santiago"},"paymentMethod":{"type":"CARD","lastDigits":"4242"}}`
	rec := do(t, newTestRouter(uc), http.MethodPost, "/orders", body, "7")

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(7), gotUser)
	require.NotNil(t, gotReq.CartID)
	assert.Equal(t, int64(55), *gotReq.CartID)
	assert.Equal(t, "Santiago", gotReq.ShippingAddress.City)

	var resp dto.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "PENDING_PAYMENT", resp.Status)
	assert.Len(t, resp.Items, 1)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("100")))
}

func TestCreate_EmptyBodyIsAccepted(t *testing.T) {
	uc := &mockOrdersUseCase{
		CreateFromActiveCartFunc: func(ctx context.Context, req dto.CreateOrderRequest, userID int64) (*domain.Order, error) {
			assert.Nil(t, req.CartID)
			return sampleOrder(domain.OrderStatusPendingPayment), nil
		},
	}

	rec := do(t, newTestRouter(uc), http.MethodPost, "/orders", "", "7")

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		userID string
		field  string
	}{
		{"missing user header", `{}`, "", "X-User-Id"},
		{"non numeric user header", `{}`, "abc", "X-User-Id"},
		{"malformed JSON", `{"cartId":`, "7", "body"},
		{"negative cart id", `{"cartId":-1}`, "7", "cartId"},
		{"bad last digits", `{"paymentMethod":{"lastDigits":"12345"}}`, "7", "paymentMethod.lastDigits"},
		{"signed last digits", `{"paymentMethod":{"lastDigits":"-12"}}`, "7", "paymentMethod.lastDigits"},
		{"plus-prefixed last digits", `{"paymentMethod":{"lastDigits":"+1"}}`, "7", "paymentMethod.lastDigits"},
		{"non ascii last digits", `{"paymentMethod":{"lastDigits":"١٢"}}`, "7", "paymentMethod.lastDigits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockOrdersUseCase{}

			rec := do(t, newTestRouter(uc), http.MethodPost, "/orders", tt.body, tt.userID)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, "VALIDATION_ERROR", resp.Code)
			require.NotEmpty(t, resp.Details)
			assert.Equal(t, tt.field, resp.Details[0].Field)
		})
	}
}

func TestCreate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		status        int
		code          string
		currentStatus string
	}{
		{"empty cart", apperrors.NewEmptyCartError(7), http.StatusBadRequest, "EMPTY_CART", ""},
		{"cart down", apperrors.NewDownstreamUnavailableError("cart-service", nil), http.StatusServiceUnavailable, "DOWNSTREAM_UNAVAILABLE", ""},
		{"transport", apperrors.NewUnavailableError("http://cart", nil), http.StatusServiceUnavailable, "DOWNSTREAM_UNAVAILABLE", ""},
		{"rejected", apperrors.NewRemoteRejectedError("http://cart/7", 403, "forbidden"), http.StatusBadGateway, "REMOTE_REJECTED", ""},
		{"deadlock", apperrors.NewDeadlockError("max retries exceeded"), http.StatusConflict, "DEADLOCK", ""},
		{"validation", apperrors.NewValidationError("cart contains invalid items"), http.StatusBadRequest, "VALIDATION_ERROR", ""},
		{"unexpected", apperrors.NewInternalError("boom", nil), http.StatusInternalServerError, "INTERNAL_ERROR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &mockOrdersUseCase{
				CreateFromActiveCartFunc: func(ctx context.Context, req dto.CreateOrderRequest, userID int64) (*domain.Order, error) {
					return nil, tt.err
				},
			}

			rec := do(t, newTestRouter(uc), http.MethodPost, "/orders", `{}`, "7")

			require.Equal(t, tt.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.status, resp.Status)
			assert.NotEmpty(t, resp.TraceID)
			assert.False(t, resp.Timestamp.IsZero())
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	uc := &mockOrdersUseCase{
		GetByIDFunc: func(ctx context.Context, orderID uint, userID int64) (*domain.Order, error) {
			assert.Equal(t, uint(42), orderID)
			assert.Equal(t, int64(7), userID)
			return nil, apperrors.NewNotFoundError("order with id 42 not found")
		},
	}

	rec := do(t, newTestRouter(uc), http.MethodGet, "/orders/42", "", "7")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestGet_InvalidOrderID(t *testing.T) {
	rec := do(t, newTestRouter(&mockOrdersUseCase{}), http.MethodGet, "/orders/abc", "", "7")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "orderId", decodeError(t, rec).Details[0].Field)
}

func TestList(t *testing.T) {
	uc := &mockOrdersUseCase{
		ListByUserFunc: func(ctx context.Context, userID int64) ([]*domain.Order, error) {
			return []*domain.Order{sampleOrder(domain.OrderStatusDelivered), sampleOrder(domain.OrderStatusPendingPayment)}, nil
		},
	}

	rec := do(t, newTestRouter(uc), http.MethodGet, "/orders", "", "7")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []dto.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "DELIVERED", resp[0].Status)
}

func TestList_EmptyIsArray(t *testing.T) {
	uc := &mockOrdersUseCase{
		ListByUserFunc: func(ctx context.Context, userID int64) ([]*domain.Order, error) {
			return []*domain.Order{}, nil
		},
	}

	rec := do(t, newTestRouter(uc), http.MethodGet, "/orders", "", "7")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListByStatus(t *testing.T) {
	uc := &mockOrdersUseCase{
		ListByStatusFunc: func(ctx context.Context, userID int64, status domain.OrderStatus) ([]*domain.Order, error) {
			assert.Equal(t, domain.OrderStatusCancelled, status)
			return []*domain.Order{sampleOrder(status)}, nil
		},
	}

	rec := do(t, newTestRouter(uc), http.MethodGet, "/orders/status/cancelled", "", "7")

	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, newTestRouter(uc), http.MethodGet, "/orders/status/SHIPPED", "", "7")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateStatus_Success(t *testing.T) {
	uc := &mockOrdersUseCase{
		UpdateStatusFunc: func(ctx context.Context, orderID uint, newStatus domain.OrderStatus, userID int64) (*domain.Order, error) {
			assert.Equal(t, uint(1), orderID)
			assert.Equal(t, domain.OrderStatusInPreparation, newStatus)
			return sampleOrder(newStatus), nil
		},
	}

	rec := do(t, newTestRouter(uc), http.MethodPut, "/orders/1/status?newStatus=IN_PREPARATION", "", "7")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "IN_PREPARATION", resp.Status)
}

func TestUpdateStatus_UnknownStatusIsValidationError(t *testing.T) {
	rec := do(t, newTestRouter(&mockOrdersUseCase{}), http.MethodPut, "/orders/1/status?newStatus=SHIPPED", "", "7")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "newStatus", decodeError(t, rec).Details[0].Field)
}

func TestUpdateStatus_IllegalTransition(t *testing.T) {
	uc := &mockOrdersUseCase{
		UpdateStatusFunc: func(ctx context.Context, orderID uint, newStatus domain.OrderStatus, userID int64) (*domain.Order, error) {
			return nil, apperrors.NewIllegalTransitionError("CANCELLED", string(newStatus))
		},
	}

	rec := do(t, newTestRouter(uc), http.MethodPut, "/orders/1/status?newStatus=IN_PREPARATION", "", "7")

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "ILLEGAL_TRANSITION", resp.Code)
	assert.Equal(t, "CANCELLED", resp.CurrentStatus)
}

func TestCancel_InvalidCancellation(t *testing.T) {
	uc := &mockOrdersUseCase{
		CancelFunc: func(ctx context.Context, orderID uint, userID int64) (*domain.Order, error) {
			return nil, apperrors.NewInvalidCancellationError("DELIVERED")
		},
	}

	rec := do(t, newTestRouter(uc), http.MethodPut, "/orders/1/cancel", "", "7")

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "INVALID_CANCELLATION", resp.Code)
	assert.Equal(t, "DELIVERED", resp.CurrentStatus)
}

func TestCancel_Success(t *testing.T) {
	uc := &mockOrdersUseCase{
		CancelFunc: func(ctx context.Context, orderID uint, userID int64) (*domain.Order, error) {
			return sampleOrder(domain.OrderStatusCancelled), nil
		},
	}

	rec := do(t, newTestRouter(uc), http.MethodPut, "/orders/1/cancel", "", "7")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"CANCELLED"`)
}

func TestCanCancel(t *testing.T) {
	uc := &mockOrdersUseCase{
		CanCancelFunc: func(ctx context.Context, orderID uint, userID int64) (bool, error) {
			return true, nil
		},
	}

	rec := do(t, newTestRouter(uc), http.MethodGet, "/orders/3/can-cancel", "", "7")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"orderId":3,"canCancel":true}`, rec.Body.String())
}
