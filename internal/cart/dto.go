package cart

import (
	"github.com/shopspring/decimal"

	"orderflow/internal/domain"
)

// cartResponse is the cart service's JSON representation of a cart.
type cartResponse struct {
	ID            int64            `json:"id"`
	UserID        int64            `json:"userId"`
	Status        string           `json:"status"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	DiscountTotal decimal.Decimal  `json:"discountTotal"`
	Total         decimal.Decimal  `json:"total"`
	Items         []cartItemResult `json:"items"`
}

type cartItemResult struct {
	ProductID          int64           `json:"productId"`
	ProductName        string          `json:"productName"`
	ProductDescription string          `json:"productDescription"`
	ProductImage       string          `json:"productImage"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	DiscountRate       decimal.Decimal `json:"discountRate"`
	UnitDiscount       decimal.Decimal `json:"unitDiscount"`
}

func (r cartResponse) toDomain() *domain.Cart {
	items := make([]domain.CartItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, domain.CartItem{
			ProductID:          it.ProductID,
			ProductName:        it.ProductName,
			ProductDescription: it.ProductDescription,
			ProductImage:       it.ProductImage,
			Quantity:           it.Quantity,
			UnitPrice:          it.UnitPrice,
			DiscountRate:       it.DiscountRate,
			UnitDiscount:       it.UnitDiscount,
		})
	}

	return &domain.Cart{
		ID:            r.ID,
		UserID:        r.UserID,
		Status:        domain.CartStatus(r.Status),
		Subtotal:      r.Subtotal,
		DiscountTotal: r.DiscountTotal,
		Total:         r.Total,
		Items:         items,
	}
}
