package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazarhub-backend/internal/domain"
	"bazarhub-backend/internal/events"
)

type fakeBillRepo struct {
	bills map[string]*domain.ImportBill
}

func newFakeBillRepo(bills ...*domain.ImportBill) *fakeBillRepo {
	m := map[string]*domain.ImportBill{}
	for _, b := range bills {
		m[b.ID] = b
	}
	return &fakeBillRepo{bills: m}
}

func (r *fakeBillRepo) Create(ctx context.Context, bill *domain.ImportBill) error {
	r.bills[bill.ID] = bill
	return nil
}

func (r *fakeBillRepo) GetByID(ctx context.Context, id string) (*domain.ImportBill, error) {
	b, ok := r.bills[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBillRepo) GetAll(ctx context.Context, filter domain.ImportBillFilter) ([]domain.ImportBill, int64, error) {
	out := []domain.ImportBill{}
	for _, b := range r.bills {
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (r *fakeBillRepo) SetStatus(ctx context.Context, id string, status domain.ImportBillStatus, receivedAt *time.Time) error {
	b, ok := r.bills[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Status = status
	b.ReceivedAt = receivedAt
	return nil
}

func billFixtures(status domain.ImportBillStatus) (*fakeBillRepo, *fakeProductRepo) {
	prodRepo := newFakeProductRepo()
	prodRepo.addVariant(
		&domain.Product{ID: "p1", Name: "Mug", BasePrice: 250},
		&domain.Variant{ID: "v1", SKU: "MUG-RED", Stock: 3},
	)
	billRepo := newFakeBillRepo(&domain.ImportBill{
		ID:       "b1",
		Code:     "IMP-20260829-abcd",
		Supplier: "Acme Supplies",
		Status:   status,
		Items: []domain.ImportBillItem{
			{ID: "i1", BillID: "b1", ProductID: "p1", VariantID: "v1", Quantity: 20, UnitCost: 120},
		},
	})
	return billRepo, prodRepo
}

func newBillUsecase(billRepo *fakeBillRepo, prodRepo *fakeProductRepo) *ImportBillUsecase {
	return NewImportBillUsecase(billRepo, prodRepo, fakeTx{}, events.NewHub())
}

func TestImportBillCreate(t *testing.T) {
	billRepo, prodRepo := billFixtures(domain.ImportBillDraft)
	uc := newBillUsecase(billRepo, prodRepo)

	bill, err := uc.Create(context.Background(), CreateImportBillReq{
		Supplier: "Acme Supplies",
		Items: []ImportBillItemReq{
			{ProductID: "p1", VariantID: "v1", Quantity: 10, UnitCost: 115.5},
		},
	}, "admin-1")

	require.NoError(t, err)
	assert.Equal(t, domain.ImportBillDraft, bill.Status)
	assert.Equal(t, 10*115.5, bill.TotalCost)
	assert.Regexp(t, `^IMP-\d{8}-`, bill.Code)
	assert.Empty(t, prodRepo.changes, "drafting a bill must not move stock")
}

func TestImportBillCreate_Validation(t *testing.T) {
	billRepo, prodRepo := billFixtures(domain.ImportBillDraft)
	uc := newBillUsecase(billRepo, prodRepo)

	_, err := uc.Create(context.Background(), CreateImportBillReq{Supplier: " "}, "admin-1")
	assert.ErrorContains(t, err, "supplier is required")

	_, err = uc.Create(context.Background(), CreateImportBillReq{Supplier: "Acme"}, "admin-1")
	assert.ErrorContains(t, err, "at least one item")

	_, err = uc.Create(context.Background(), CreateImportBillReq{
		Supplier: "Acme",
		Items:    []ImportBillItemReq{{ProductID: "p1", VariantID: "v1", Quantity: 0, UnitCost: 5}},
	}, "admin-1")
	assert.ErrorContains(t, err, "invalid quantity")
}

func TestImportBillReceive_IncrementsStock(t *testing.T) {
	billRepo, prodRepo := billFixtures(domain.ImportBillDraft)
	uc := newBillUsecase(billRepo, prodRepo)

	bill, err := uc.Receive(context.Background(), "b1", "admin-1")
	require.NoError(t, err)

	assert.Equal(t, domain.ImportBillReceived, bill.Status)
	require.NotNil(t, bill.ReceivedAt)

	assert.Equal(t, 23, prodRepo.variants["v1"].Stock)
	require.Len(t, prodRepo.changes, 1)
	assert.Equal(t, "import_received", prodRepo.changes[0].reason)
	assert.Equal(t, "b1", prodRepo.changes[0].reference)

	stored, err := billRepo.GetByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, domain.ImportBillReceived, stored.Status)
}

func TestImportBillReceive_OnlyFromDraft(t *testing.T) {
	for _, status := range []domain.ImportBillStatus{domain.ImportBillReceived, domain.ImportBillCancelled} {
		billRepo, prodRepo := billFixtures(status)
		uc := newBillUsecase(billRepo, prodRepo)

		_, err := uc.Receive(context.Background(), "b1", "admin-1")
		assert.ErrorContains(t, err, "only draft bills can be received")
		assert.Empty(t, prodRepo.changes, "stock must not move for a %s bill", status)
	}
}

func TestImportBillCancel(t *testing.T) {
	billRepo, prodRepo := billFixtures(domain.ImportBillDraft)
	uc := newBillUsecase(billRepo, prodRepo)

	bill, err := uc.Cancel(context.Background(), "b1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ImportBillCancelled, bill.Status)
	assert.Empty(t, prodRepo.changes)

	// Terminal either way now.
	_, err = uc.Cancel(context.Background(), "b1", "admin-1")
	assert.ErrorContains(t, err, "only draft bills can be cancelled")
}
