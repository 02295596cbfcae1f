package domain

import (
	"slices"
	"strings"

	apperrors "orderflow/internal/errors"
)

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusInPreparation  OrderStatus = "IN_PREPARATION"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// orderStatusTransitions is the only place order lifecycle rules live.
// Terminal statuses have no entry.
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment: {OrderStatusInPreparation, OrderStatusCancelled},
	OrderStatusInPreparation:  {OrderStatusDelivered, OrderStatusCancelled},
}

// ParseOrderStatus accepts the canonical names case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsKnown() {
		return "", false
	}
	return status, true
}

func (s OrderStatus) IsKnown() bool {
	switch s {
	case OrderStatusPendingPayment, OrderStatusInPreparation, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	_, ok := orderStatusTransitions[s]
	return s.IsKnown() && !ok
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	return s.checkTransition(target) == nil
}

func (s OrderStatus) CanCancel() bool {
	return s.checkCancellation() == nil
}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) checkTransition(target OrderStatus) error {
	if !target.IsKnown() {
		return apperrors.NewIllegalTransitionError(string(s), string(target))
	}
	if !slices.Contains(orderStatusTransitions[s], target) {
		return apperrors.NewIllegalTransitionError(string(s), string(target))
	}
	return nil
}

func (s OrderStatus) checkCancellation() error {
	if !slices.Contains(orderStatusTransitions[s], OrderStatusCancelled) {
		return apperrors.NewInvalidCancellationError(string(s))
	}
	return nil
}
