package service

// CheckoutRequest represents the checkout submission payload
type CheckoutRequest struct {
	Items    []CheckoutItem  `json:"items" binding:"required,min=1"`
	Customer CustomerInfo    `json:"customer" binding:"required"`
	Shipping ShippingAddress `json:"shipping" binding:"required"`
	Total    float64         `json:"total" binding:"required,min=0"`
}

type CheckoutItem struct {
	ProductID string  `json:"product_id" binding:"required"`
	Title     string  `json:"title" binding:"required"`
	Price     float64 `json:"price" binding:"required,min=0"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`
}

type CustomerInfo struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type ShippingAddress struct {
	Street     string  `json:"street" binding:"required"`
	City       string  `json:"city" binding:"required"`
	State      *string `json:"state,omitempty"`
	PostalCode string  `json:"postal_code" binding:"required"`
	Country    string  `json:"country" binding:"required"`
}

// CheckoutResponse carries the created order and where to pay it
type CheckoutResponse struct {
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	InitPoint   string `json:"init_point"`
}
