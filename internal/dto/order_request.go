package dto

import "orderflow/internal/domain"

type CreateOrderRequest struct {
	// CartID is informational; the order is always built from the user's
	// active cart as reported by the cart service.
	CartID          *int64             `json:"cartId,omitempty"`
	ShippingAddress ShippingAddressDTO `json:"shippingAddress"`
	PaymentMethod   PaymentMethodDTO   `json:"paymentMethod"`
}

type ShippingAddressDTO struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Apartment  string `json:"apartment,omitempty"`
	District   string `json:"district"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postalCode"`
	Reference  string `json:"reference,omitempty"`
}

type PaymentMethodDTO struct {
	Type              string `json:"type"`
	LastDigits        string `json:"lastDigits,omitempty"`
	HolderName        string `json:"holderName,omitempty"`
	Bank              string `json:"bank,omitempty"`
	TransactionNumber string `json:"transactionNumber,omitempty"`
}

func (s ShippingAddressDTO) ToDomain() domain.ShippingAddress {
	return domain.ShippingAddress{
		Street:     s.Street,
		Number:     s.Number,
		Apartment:  s.Apartment,
		District:   s.District,
		City:       s.City,
		Region:     s.Region,
		PostalCode: s.PostalCode,
		Reference:  s.Reference,
	}
}

func (p PaymentMethodDTO) ToDomain() domain.PaymentMethod {
	return domain.PaymentMethod{
		Type:              p.Type,
		LastDigits:        p.LastDigits,
		HolderName:        p.HolderName,
		Bank:              p.Bank,
		TransactionNumber: p.TransactionNumber,
	}
}
