package order

import "context"

// LineItem references a product by id; the upstream resolves prices.
type LineItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Address is the billing/shipping shape WooCommerce expects.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
}

// Meta is an order metadata entry.
type Meta struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Payload is the order creation body. Write-only: this system never
// reads order state back beyond the created id.
type Payload struct {
	PaymentMethod      string     `json:"payment_method"`
	PaymentMethodTitle string     `json:"payment_method_title"`
	SetPaid            bool       `json:"set_paid"`
	Status             string     `json:"status,omitempty"`
	LineItems          []LineItem `json:"line_items"`
	Billing            *Address   `json:"billing,omitempty"`
	Shipping           *Address   `json:"shipping,omitempty"`
	MetaData           []Meta     `json:"meta_data,omitempty"`
}

// Order is the created order readback.
type Order struct {
	ID int64 `json:"id"`
}

// Repository creates orders against the commerce backend.
type Repository interface {
	Create(ctx context.Context, p *Payload) (*Order, error)
}
