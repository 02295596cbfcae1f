package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"orderflow/internal/domain"
)

type OrderResponse struct {
	ID              uint                `json:"id"`
	OrderNumber     string              `json:"orderNumber"`
	UserID          int64               `json:"userId"`
	Status          string              `json:"status"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	DiscountTotal   decimal.Decimal     `json:"discountTotal"`
	Total           decimal.Decimal     `json:"total"`
	ShippingAddress ShippingAddressDTO  `json:"shippingAddress"`
	PaymentMethod   PaymentMethodDTO    `json:"paymentMethod"`
	Items           []OrderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

type OrderItemResponse struct {
	ID                 uint            `json:"id"`
	ProductID          int64           `json:"productId"`
	ProductName        string          `json:"productName"`
	ProductDescription string          `json:"productDescription,omitempty"`
	ProductImage       string          `json:"productImage,omitempty"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unitPrice"`
	DiscountRate       decimal.Decimal `json:"discountRate"`
	UnitDiscount       decimal.Decimal `json:"unitDiscount"`
	FinalUnitPrice     decimal.Decimal `json:"finalUnitPrice"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountTotal      decimal.Decimal `json:"discountTotal"`
	LineTotal          decimal.Decimal `json:"lineTotal"`
}

type CanCancelResponse struct {
	OrderID   uint `json:"orderId"`
	CanCancel bool `json:"canCancel"`
}

func NewOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ID:                 it.ID,
			ProductID:          it.ProductID,
			ProductName:        it.ProductName,
			ProductDescription: it.ProductDescription,
			ProductImage:       it.ProductImage,
			Quantity:           it.Quantity,
			UnitPrice:          it.UnitPrice,
			DiscountRate:       it.DiscountRate,
			UnitDiscount:       it.UnitDiscount,
			FinalUnitPrice:     it.FinalUnitPrice,
			Subtotal:           it.Subtotal,
			DiscountTotal:      it.DiscountTotal,
			LineTotal:          it.LineTotal,
		}
	}

	ship := o.ShippingAddress
	pay := o.PaymentMethod
	return OrderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Status:        string(o.Status),
		Subtotal:      o.Subtotal,
		DiscountTotal: o.DiscountTotal,
		Total:         o.Total,
		ShippingAddress: ShippingAddressDTO{
			Street:     ship.Street,
			Number:     ship.Number,
			Apartment:  ship.Apartment,
			District:   ship.District,
			City:       ship.City,
			Region:     ship.Region,
			PostalCode: ship.PostalCode,
			Reference:  ship.Reference,
		},
		PaymentMethod: PaymentMethodDTO{
			Type:              pay.Type,
			LastDigits:        pay.LastDigits,
			HolderName:        pay.HolderName,
			Bank:              pay.Bank,
			TransactionNumber: pay.TransactionNumber,
		},
		Items:     items,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func NewOrderResponses(orders []*domain.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = NewOrderResponse(o)
	}
	return out
}
