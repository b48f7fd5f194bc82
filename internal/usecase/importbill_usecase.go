package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bazarhub-backend/internal/domain"
	"bazarhub-backend/internal/events"
	"bazarhub-backend/pkg/logger"
	"bazarhub-backend/pkg/utils"
)

type ImportBillUsecase struct {
	billRepo    domain.ImportBillRepository
	productRepo domain.ProductRepository
	txManager   domain.TransactionManager
	hub         *events.Hub
}

func NewImportBillUsecase(billRepo domain.ImportBillRepository, productRepo domain.ProductRepository, txManager domain.TransactionManager, hub *events.Hub) *ImportBillUsecase {
	return &ImportBillUsecase{
		billRepo:    billRepo,
		productRepo: productRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

type ImportBillItemReq struct {
	ProductID string  `json:"productId"`
	VariantID string  `json:"variantId"`
	Quantity  int     `json:"quantity"`
	UnitCost  float64 `json:"unitCost"`
}

type CreateImportBillReq struct {
	Supplier string              `json:"supplier"`
	Note     string              `json:"note"`
	Items    []ImportBillItemReq `json:"items"`
}

// Create records a draft bill. Stock does not move until the bill is received.
func (u *ImportBillUsecase) Create(ctx context.Context, req CreateImportBillReq, adminID string) (*domain.ImportBill, error) {
	if strings.TrimSpace(req.Supplier) == "" {
		return nil, fmt.Errorf("supplier is required")
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("bill must contain at least one item")
	}

	bill := &domain.ImportBill{
		ID:        utils.GenerateUUID(),
		Code:      generateBillCode(),
		Supplier:  req.Supplier,
		Note:      req.Note,
		Status:    domain.ImportBillDraft,
		CreatedBy: adminID,
	}

	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("invalid quantity for variant %s", item.VariantID)
		}
		if item.UnitCost < 0 {
			return nil, fmt.Errorf("invalid unit cost for variant %s", item.VariantID)
		}
		variant, err := u.productRepo.GetVariantByID(ctx, item.VariantID)
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", item.VariantID, err)
		}
		if variant.ProductID != item.ProductID {
			return nil, fmt.Errorf("variant %s does not belong to product %s", item.VariantID, item.ProductID)
		}

		bill.Items = append(bill.Items, domain.ImportBillItem{
			ID:        utils.GenerateUUID(),
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitCost:  item.UnitCost,
		})
		bill.TotalCost += item.UnitCost * float64(item.Quantity)
	}

	if err := u.billRepo.Create(ctx, bill); err != nil {
		return nil, err
	}

	logger.Get().Info().
		Str("bill_id", bill.ID).
		Str("code", bill.Code).
		Float64("total_cost", bill.TotalCost).
		Msg("Import bill drafted")
	return bill, nil
}

func generateBillCode() string {
	// IMP-YYYYMMDD-xxxx, short uuid suffix keeps same-day codes unique.
	return fmt.Sprintf("IMP-%s-%s", time.Now().Format("20060102"), utils.GenerateUUID()[:4])
}

func (u *ImportBillUsecase) GetByID(ctx context.Context, id string) (*domain.ImportBill, error) {
	return u.billRepo.GetByID(ctx, id)
}

func (u *ImportBillUsecase) GetAll(ctx context.Context, filter domain.ImportBillFilter) ([]domain.ImportBill, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return u.billRepo.GetAll(ctx, filter)
}

// Receive finalizes a draft bill: every item's stock is incremented and the
// bill flips to received, all in one transaction. A bill that already left
// draft is immutable.
func (u *ImportBillUsecase) Receive(ctx context.Context, id, adminID string) (*domain.ImportBill, error) {
	bill, err := u.billRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill.Status != domain.ImportBillDraft {
		return nil, fmt.Errorf("import bill %s is %s, only draft bills can be received", bill.Code, bill.Status)
	}

	now := time.Now().UTC()
	err = u.txManager.Do(ctx, func(txCtx context.Context) error {
		for _, item := range bill.Items {
			if err := u.productRepo.UpdateStock(txCtx, item.VariantID, item.Quantity, "import_received", bill.ID); err != nil {
				return err
			}
		}
		return u.billRepo.SetStatus(txCtx, bill.ID, domain.ImportBillReceived, &now)
	})
	if err != nil {
		return nil, err
	}

	bill.Status = domain.ImportBillReceived
	bill.ReceivedAt = &now

	logger.Get().Info().
		Str("bill_id", bill.ID).
		Str("code", bill.Code).
		Str("admin_id", adminID).
		Msg("Import bill received")

	u.hub.Publish("import_bill.received", bill)
	return bill, nil
}

// Cancel voids a draft bill without touching stock.
func (u *ImportBillUsecase) Cancel(ctx context.Context, id, adminID string) (*domain.ImportBill, error) {
	bill, err := u.billRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bill.Status != domain.ImportBillDraft {
		return nil, fmt.Errorf("import bill %s is %s, only draft bills can be cancelled", bill.Code, bill.Status)
	}

	if err := u.billRepo.SetStatus(ctx, bill.ID, domain.ImportBillCancelled, nil); err != nil {
		return nil, err
	}
	bill.Status = domain.ImportBillCancelled

	logger.Get().Info().
		Str("bill_id", bill.ID).
		Str("code", bill.Code).
		Str("admin_id", adminID).
		Msg("Import bill cancelled")
	return bill, nil
}
