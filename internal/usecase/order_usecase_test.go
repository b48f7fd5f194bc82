package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazarhub-backend/internal/domain"
	"bazarhub-backend/internal/events"
	"bazarhub-backend/internal/orderrules"
)

// --- Fakes ---

type fakeTx struct{}

func (fakeTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type appliedPatch struct {
	orderID string
	patch   domain.OrderPatch
}

type fakeOrderRepo struct {
	orders    map[string]*domain.Order
	patches   []appliedPatch
	histories []domain.OrderHistory
}

func newFakeOrderRepo(orders ...*domain.Order) *fakeOrderRepo {
	m := map[string]*domain.Order{}
	for _, o := range orders {
		m[o.ID] = o
	}
	return &fakeOrderRepo{orders: m}
}

func (r *fakeOrderRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) GetAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	out := []domain.Order{}
	for _, o := range r.orders {
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) ApplyPatch(ctx context.Context, id string, patch domain.OrderPatch) error {
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.patches = append(r.patches, appliedPatch{orderID: id, patch: patch})
	if patch.Status != nil {
		o.Status = *patch.Status
	}
	if patch.PayStatus != nil {
		o.PayStatus = *patch.PayStatus
	}
	if patch.RefundStatus != nil {
		o.RefundStatus = *patch.RefundStatus
	}
	if patch.RefundProof != nil {
		o.RefundProof = patch.RefundProof
	}
	return nil
}

func (r *fakeOrderRepo) CreateOrderHistory(ctx context.Context, history *domain.OrderHistory) error {
	r.histories = append(r.histories, *history)
	return nil
}

func (r *fakeOrderRepo) GetOrderHistory(ctx context.Context, orderID string) ([]domain.OrderHistory, error) {
	out := []domain.OrderHistory{}
	for _, h := range r.histories {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	counts := map[domain.OrderStatus]int64{}
	for _, o := range r.orders {
		counts[o.Status]++
	}
	return counts, nil
}

type stockChange struct {
	variantID string
	quantity  int
	reason    string
	reference string
}

type fakeProductRepo struct {
	domain.ProductRepository

	products map[string]*domain.Product
	variants map[string]*domain.Variant
	changes  []stockChange
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: map[string]*domain.Product{},
		variants: map[string]*domain.Variant{},
	}
}

func (r *fakeProductRepo) addVariant(p *domain.Product, v *domain.Variant) {
	v.ProductID = p.ID
	r.products[p.ID] = p
	r.variants[v.ID] = v
}

func (r *fakeProductRepo) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (r *fakeProductRepo) GetVariantByID(ctx context.Context, id string) (*domain.Variant, error) {
	v, ok := r.variants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (r *fakeProductRepo) UpdateStock(ctx context.Context, variantID string, quantity int, reason, referenceID string) error {
	v, ok := r.variants[variantID]
	if !ok {
		return domain.ErrNotFound
	}
	v.Stock += quantity
	r.changes = append(r.changes, stockChange{variantID, quantity, reason, referenceID})
	return nil
}

func testOrder(id string, method domain.PaymentMethod, status domain.OrderStatus, pay domain.PayStatus, refund domain.RefundStatus) *domain.Order {
	return &domain.Order{
		ID:            id,
		UserID:        "user-1",
		Status:        status,
		PayStatus:     pay,
		RefundStatus:  refund,
		PaymentMethod: method,
		TotalAmount:   1500,
	}
}

func newOrderUsecase(repo *fakeOrderRepo, prodRepo *fakeProductRepo) *OrderUsecase {
	return NewOrderUsecase(repo, prodRepo, fakeTx{}, events.NewHub())
}

// --- UpdateOrder ---

func TestUpdateOrder_RejectionWritesNothing(t *testing.T) {
	repo := newFakeOrderRepo(testOrder("o1", domain.PaymentMethodCOD,
		domain.OrderStatusConfirmed, domain.PayStatusUnpaid, domain.RefundStatusNotApplicable))
	uc := newOrderUsecase(repo, newFakeProductRepo())

	paid := domain.PayStatusPaid
	_, err := uc.UpdateOrder(context.Background(), "o1", domain.OrderPatch{PayStatus: &paid}, "admin-1")

	require.Error(t, err)
	var reason orderrules.RejectReason
	require.True(t, errors.As(err, &reason))
	assert.Equal(t, orderrules.ReasonCodPaidBeforeDelivery, reason)

	assert.Empty(t, repo.patches, "rejected update must not hit persistence")
	assert.Empty(t, repo.histories)
}

func TestUpdateOrder_NoOpSkipsPersistence(t *testing.T) {
	repo := newFakeOrderRepo(testOrder("o1", domain.PaymentMethodCOD,
		domain.OrderStatusShipping, domain.PayStatusUnpaid, domain.RefundStatusNotApplicable))
	uc := newOrderUsecase(repo, newFakeProductRepo())

	shipping := domain.OrderStatusShipping
	unpaid := domain.PayStatusUnpaid
	order, err := uc.UpdateOrder(context.Background(), "o1",
		domain.OrderPatch{Status: &shipping, PayStatus: &unpaid}, "admin-1")

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipping, order.Status)
	assert.Empty(t, repo.patches, "no-op must not hit persistence")
	assert.Empty(t, repo.histories)
}

func TestUpdateOrder_AcceptedPersistsPatchAndHistory(t *testing.T) {
	repo := newFakeOrderRepo(testOrder("o1", domain.PaymentMethodCOD,
		domain.OrderStatusConfirmed, domain.PayStatusUnpaid, domain.RefundStatusNotApplicable))
	uc := newOrderUsecase(repo, newFakeProductRepo())

	shipping := domain.OrderStatusShipping
	unpaid := domain.PayStatusUnpaid
	updated, err := uc.UpdateOrder(context.Background(), "o1",
		domain.OrderPatch{Status: &shipping, PayStatus: &unpaid}, "admin-1")

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipping, updated.Status)

	require.Len(t, repo.patches, 1)
	applied := repo.patches[0].patch
	require.NotNil(t, applied.Status)
	assert.Equal(t, domain.OrderStatusShipping, *applied.Status)
	assert.Nil(t, applied.PayStatus, "unchanged fields must be stripped before persistence")

	require.Len(t, repo.histories, 1)
	h := repo.histories[0]
	require.NotNil(t, h.PreviousStatus)
	assert.Equal(t, "confirmed", *h.PreviousStatus)
	assert.Equal(t, "shipping", h.NewStatus)
	require.NotNil(t, h.CreatedBy)
	assert.Equal(t, "admin-1", *h.CreatedBy)
}

func TestUpdateOrder_DeliverAndCollectCOD(t *testing.T) {
	repo := newFakeOrderRepo(testOrder("o1", domain.PaymentMethodCOD,
		domain.OrderStatusShipping, domain.PayStatusUnpaid, domain.RefundStatusNotApplicable))
	uc := newOrderUsecase(repo, newFakeProductRepo())

	delivered := domain.OrderStatusDelivered
	paid := domain.PayStatusPaid
	updated, err := uc.UpdateOrder(context.Background(), "o1",
		domain.OrderPatch{Status: &delivered, PayStatus: &paid}, "admin-1")

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, updated.Status)
	assert.Equal(t, domain.PayStatusPaid, updated.PayStatus)
}

func TestUpdateOrder_NotFound(t *testing.T) {
	uc := newOrderUsecase(newFakeOrderRepo(), newFakeProductRepo())

	paid := domain.PayStatusPaid
	_, err := uc.UpdateOrder(context.Background(), "missing", domain.OrderPatch{PayStatus: &paid}, "admin-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// --- GetTransitions ---

func TestGetTransitions(t *testing.T) {
	repo := newFakeOrderRepo(
		testOrder("shipping", domain.PaymentMethodCOD,
			domain.OrderStatusShipping, domain.PayStatusUnpaid, domain.RefundStatusNotApplicable),
		testOrder("delivered", domain.PaymentMethodCOD,
			domain.OrderStatusDelivered, domain.PayStatusPaid, domain.RefundStatusNotApplicable),
	)
	uc := newOrderUsecase(repo, newFakeProductRepo())

	next, err := uc.GetTransitions(context.Background(), "shipping")
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.OrderStatus{domain.OrderStatusDelivered, domain.OrderStatusCancelled}, next)

	next, err = uc.GetTransitions(context.Background(), "delivered")
	require.NoError(t, err)
	assert.Empty(t, next, "terminal orders have no outgoing transitions")
}

// --- Checkout ---

func checkoutFixtures() (*fakeProductRepo, CheckoutReq) {
	prodRepo := newFakeProductRepo()
	prodRepo.addVariant(
		&domain.Product{ID: "p1", Name: "Mug", BasePrice: 250},
		&domain.Variant{ID: "v1", SKU: "MUG-RED", Stock: 10},
	)
	return prodRepo, CheckoutReq{
		Items:         []CheckoutItem{{ProductID: "p1", VariantID: "v1", Quantity: 2}},
		PaymentMethod: "COD",
		ShippingFee:   60,
	}
}

func TestCheckout_CODStartsUnpaid(t *testing.T) {
	repo := newFakeOrderRepo()
	prodRepo, req := checkoutFixtures()
	uc := newOrderUsecase(repo, prodRepo)

	order, err := uc.Checkout(context.Background(), "user-1", req)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PayStatusUnpaid, order.PayStatus)
	assert.Equal(t, domain.RefundStatusNotApplicable, order.RefundStatus)
	assert.Equal(t, domain.PaymentMethodCOD, order.PaymentMethod)
	assert.Equal(t, 2*250.0+60, order.TotalAmount)

	require.Len(t, prodRepo.changes, 1)
	change := prodRepo.changes[0]
	assert.Equal(t, -2, change.quantity)
	assert.Equal(t, "order_placed", change.reason)
	assert.Equal(t, order.ID, change.reference)
	assert.Equal(t, 8, prodRepo.variants["v1"].Stock)

	require.Len(t, repo.histories, 1)
	assert.Equal(t, "pending", repo.histories[0].NewStatus)
}

func TestCheckout_OnlineStartsPaid(t *testing.T) {
	repo := newFakeOrderRepo()
	prodRepo, req := checkoutFixtures()
	req.PaymentMethod = "ONLINE"
	uc := newOrderUsecase(repo, prodRepo)

	order, err := uc.Checkout(context.Background(), "user-1", req)
	require.NoError(t, err)
	assert.Equal(t, domain.PayStatusPaid, order.PayStatus)
}

func TestCheckout_InsufficientStock(t *testing.T) {
	repo := newFakeOrderRepo()
	prodRepo, req := checkoutFixtures()
	req.Items[0].Quantity = 99
	uc := newOrderUsecase(repo, prodRepo)

	_, err := uc.Checkout(context.Background(), "user-1", req)
	assert.ErrorContains(t, err, "insufficient stock")
	assert.Empty(t, prodRepo.changes)
}

func TestCheckout_RejectsBadPaymentMethod(t *testing.T) {
	repo := newFakeOrderRepo()
	prodRepo, req := checkoutFixtures()
	req.PaymentMethod = "CRYPTO"
	uc := newOrderUsecase(repo, prodRepo)

	_, err := uc.Checkout(context.Background(), "user-1", req)
	assert.ErrorContains(t, err, "unknown payment method")
}

func TestCheckout_VariantProductMismatch(t *testing.T) {
	repo := newFakeOrderRepo()
	prodRepo, req := checkoutFixtures()
	req.Items[0].ProductID = "p2"
	prodRepo.products["p2"] = &domain.Product{ID: "p2", Name: "Plate", BasePrice: 100}
	uc := newOrderUsecase(repo, prodRepo)

	_, err := uc.Checkout(context.Background(), "user-1", req)
	assert.ErrorContains(t, err, "does not belong to product")
}
