package domain

import (
	"context"
	"time"
)

// ImportBillStatus is the intake state of a stock purchase from a supplier.
type ImportBillStatus string

const (
	ImportBillDraft     ImportBillStatus = "draft"
	ImportBillReceived  ImportBillStatus = "received"
	ImportBillCancelled ImportBillStatus = "cancelled"
)

func (s ImportBillStatus) IsValid() bool {
	switch s {
	case ImportBillDraft, ImportBillReceived, ImportBillCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether the bill accepts no further changes.
func (s ImportBillStatus) IsTerminal() bool {
	return s == ImportBillReceived || s == ImportBillCancelled
}

type ImportBill struct {
	ID         string           `json:"id"`
	Code       string           `json:"code"` // human-facing, e.g. IMP-20260829-ab12
	Supplier   string           `json:"supplier"`
	Note       string           `json:"note"`
	Status     ImportBillStatus `json:"status"`
	TotalCost  float64          `json:"totalCost"`
	Items      []ImportBillItem `json:"items"`
	CreatedBy  string           `json:"createdBy"`
	ReceivedAt *time.Time       `json:"receivedAt"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

type ImportBillItem struct {
	ID        string  `json:"id"`
	BillID    string  `json:"billId"`
	ProductID string  `json:"productId"`
	VariantID string  `json:"variantId"`
	Quantity  int     `json:"quantity"`
	UnitCost  float64 `json:"unitCost"`
}

type ImportBillFilter struct {
	Page   int
	Limit  int
	Status string
	Search string
}

type ImportBillRepository interface {
	Create(ctx context.Context, bill *ImportBill) error
	GetByID(ctx context.Context, id string) (*ImportBill, error)
	GetAll(ctx context.Context, filter ImportBillFilter) ([]ImportBill, int64, error)
	SetStatus(ctx context.Context, id string, status ImportBillStatus, receivedAt *time.Time) error
}
