package domain

import (
	"context"
	"time"
)

type OrderFilter struct {
	Page          int
	Limit         int
	Status        string
	PayStatus     string
	PaymentMethod string
	Search        string
}

// --- Order Entities ---

type Order struct {
	ID              string        `json:"id"`
	UserID          string        `json:"userId"`
	User            User          `json:"user"`
	Status          OrderStatus   `json:"orderStatus"`
	PayStatus       PayStatus     `json:"payStatus"`
	RefundStatus    RefundStatus  `json:"refundStatus"`
	RefundProof     *string       `json:"refundProof"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"` // immutable after checkout
	TotalAmount     float64       `json:"totalAmount"`
	ShippingFee     float64       `json:"shippingFee"`
	ShippingAddress JSONB         `json:"shippingAddress"`
	Items           []OrderItem   `json:"items"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

type OrderItem struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"orderId"`
	ProductID string  `json:"productId"`
	Product   Product `json:"product"`
	VariantID *string `json:"variantId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"` // Price at time of purchase
}

// OrderPatch is a partial update to an order's status fields. A nil field
// means "untouched"; diffing against the stored snapshot happens in the
// rule engine, not here.
type OrderPatch struct {
	Status       *OrderStatus  `json:"orderStatus"`
	PayStatus    *PayStatus    `json:"payStatus"`
	RefundStatus *RefundStatus `json:"refundStatus"`
	RefundProof  *string       `json:"refundProof"`
}

// IsEmpty reports whether the patch touches no fields at all.
func (p OrderPatch) IsEmpty() bool {
	return p.Status == nil && p.PayStatus == nil && p.RefundStatus == nil && p.RefundProof == nil
}

type OrderHistory struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	PreviousStatus *string   `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Reason         *string   `json:"reason"`
	CreatedBy      *string   `json:"createdBy"`
	CreatedName    *string   `json:"createdName,omitempty"` // Enriched
	CreatedAt      time.Time `json:"createdAt"`
}

// --- Interfaces ---

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetByUserID(ctx context.Context, userID string) ([]Order, error)
	GetAll(ctx context.Context, filter OrderFilter) ([]Order, int64, error)

	// ApplyPatch persists only the fields present in the patch.
	ApplyPatch(ctx context.Context, id string, patch OrderPatch) error

	CreateOrderHistory(ctx context.Context, history *OrderHistory) error
	GetOrderHistory(ctx context.Context, orderID string) ([]OrderHistory, error)

	CountByStatus(ctx context.Context) (map[OrderStatus]int64, error)
}
