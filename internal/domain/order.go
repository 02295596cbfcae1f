package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID              uint
	UserID          int64
	OrderNumber     string
	Status          OrderStatus
	Subtotal        decimal.Decimal
	DiscountTotal   decimal.Decimal
	Total           decimal.Decimal
	ShippingAddress ShippingAddress
	PaymentMethod   PaymentMethod
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is a frozen copy of a cart line. Nothing here is ever re-read
// from the catalog after the order is created.
type OrderItem struct {
	ID                 uint
	OrderID            uint
	ProductID          int64
	ProductName        string
	ProductDescription string
	ProductImage       string
	Quantity           int
	UnitPrice          decimal.Decimal
	DiscountRate       decimal.Decimal
	UnitDiscount       decimal.Decimal
	FinalUnitPrice     decimal.Decimal
	Subtotal           decimal.Decimal
	DiscountTotal      decimal.Decimal
	LineTotal          decimal.Decimal
}

type ShippingAddress struct {
	Street     string
	Number     string
	Apartment  string
	District   string
	City       string
	Region     string
	PostalCode string
	Reference  string
}

type PaymentMethod struct {
	Type              string
	LastDigits        string
	HolderName        string
	Bank              string
	TransactionNumber string
}

// NewOrderFromCart snapshots every cart line into an order. Totals are summed
// from the computed line totals so they always agree with the items.
func NewOrderFromCart(cart *Cart, shipping ShippingAddress, payment PaymentMethod, now time.Time) (*Order, error) {
	if cart == nil || len(cart.Items) == 0 {
		return nil, fmt.Errorf("cannot build an order from an empty cart")
	}

	items := make([]OrderItem, 0, len(cart.Items))
	subtotal := decimal.Zero
	discountTotal := decimal.Zero
	total := decimal.Zero

	for _, ci := range cart.Items {
		item, err := snapshotItem(ci)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		subtotal = subtotal.Add(item.Subtotal)
		discountTotal = discountTotal.Add(item.DiscountTotal)
		total = total.Add(item.LineTotal)
	}

	return &Order{
		UserID:          cart.UserID,
		OrderNumber:     NewOrderNumber(now),
		Status:          OrderStatusPendingPayment,
		Subtotal:        subtotal,
		DiscountTotal:   discountTotal,
		Total:           total,
		ShippingAddress: shipping,
		PaymentMethod:   payment,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// moneyScale matches the DECIMAL(12,2) columns. Amounts are rounded per unit
// before any line or order total is derived, so stored totals add up.
const moneyScale = 2

func snapshotItem(ci CartItem) (OrderItem, error) {
	if ci.Quantity <= 0 {
		return OrderItem{}, fmt.Errorf("cart item for product %d has invalid quantity %d", ci.ProductID, ci.Quantity)
	}
	if ci.UnitPrice.IsNegative() || ci.UnitDiscount.IsNegative() {
		return OrderItem{}, fmt.Errorf("cart item for product %d has a negative price or discount", ci.ProductID)
	}

	qty := decimal.NewFromInt(int64(ci.Quantity))
	unitPrice := ci.UnitPrice.Round(moneyScale)
	finalUnit := unitPrice.Sub(ci.UnitDiscount.Round(moneyScale))
	if finalUnit.IsNegative() {
		finalUnit = decimal.Zero
	}

	return OrderItem{
		ProductID:          ci.ProductID,
		ProductName:        ci.ProductName,
		ProductDescription: ci.ProductDescription,
		ProductImage:       ci.ProductImage,
		Quantity:           ci.Quantity,
		UnitPrice:          unitPrice,
		DiscountRate:       ci.DiscountRate.Round(moneyScale),
		UnitDiscount:       unitPrice.Sub(finalUnit),
		FinalUnitPrice:     finalUnit,
		Subtotal:           unitPrice.Mul(qty),
		DiscountTotal:      unitPrice.Sub(finalUnit).Mul(qty),
		LineTotal:          finalUnit.Mul(qty),
	}, nil
}

// NewOrderNumber combines a random component with the creation instant, e.g.
// ORD-3F2A9C1B-1760675400123.
func NewOrderNumber(now time.Time) string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%d", random, now.UnixMilli())
}

// ChangeStatus applies an explicit status update through the transition table.
func (o *Order) ChangeStatus(target OrderStatus, now time.Time) error {
	if err := o.Status.checkTransition(target); err != nil {
		return err
	}
	o.Status = target
	o.UpdatedAt = now
	return nil
}

// Cancel moves the order to CANCELLED when the current status allows it.
func (o *Order) Cancel(now time.Time) error {
	if err := o.Status.checkCancellation(); err != nil {
		return err
	}
	o.Status = OrderStatusCancelled
	o.UpdatedAt = now
	return nil
}
