package domain

import "github.com/shopspring/decimal"

// Cart is the cart service's view of a user's cart. This service only reads
// and clears it.
type Cart struct {
	ID            int64
	UserID        int64
	Status        CartStatus
	Subtotal      decimal.Decimal
	DiscountTotal decimal.Decimal
	Total         decimal.Decimal
	Items         []CartItem
}

type CartItem struct {
	ProductID          int64
	ProductName        string
	ProductDescription string
	ProductImage       string
	Quantity           int
	UnitPrice          decimal.Decimal
	DiscountRate       decimal.Decimal
	UnitDiscount       decimal.Decimal
}

type CartStatus string

const (
	CartStatusActive    CartStatus = "ACTIVE"
	CartStatusCompleted CartStatus = "COMPLETED"
	CartStatusAbandoned CartStatus = "ABANDONED"
)

// IsOrderable reports whether an order may be built from the cart. A cart
// without a status is treated as active.
func (c *Cart) IsOrderable() bool {
	if c == nil || len(c.Items) == 0 {
		return false
	}
	return c.Status == "" || c.Status == CartStatusActive
}
