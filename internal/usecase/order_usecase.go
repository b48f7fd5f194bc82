package usecase

import (
	"context"
	"fmt"
	"strings"

	"bazarhub-backend/internal/domain"
	"bazarhub-backend/internal/events"
	"bazarhub-backend/internal/orderrules"
	"bazarhub-backend/pkg/logger"
	"bazarhub-backend/pkg/utils"
)

type OrderUsecase struct {
	orderRepo   domain.OrderRepository
	productRepo domain.ProductRepository
	txManager   domain.TransactionManager
	hub         *events.Hub
}

func NewOrderUsecase(repo domain.OrderRepository, pRepo domain.ProductRepository, txManager domain.TransactionManager, hub *events.Hub) *OrderUsecase {
	return &OrderUsecase{
		orderRepo:   repo,
		productRepo: pRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

// --- Checkout ---

type CheckoutItem struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

type CheckoutReq struct {
	Items           []CheckoutItem `json:"items"`
	PaymentMethod   string         `json:"paymentMethod"`
	ShippingFee     float64        `json:"shippingFee"`
	ShippingAddress domain.JSONB   `json:"shippingAddress"`
}

// Checkout places an order. COD orders start unpaid; online orders are
// created only after the gateway has captured the charge, so they start paid.
func (u *OrderUsecase) Checkout(ctx context.Context, userID string, req CheckoutReq) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}

	method := domain.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return nil, fmt.Errorf("unknown payment method: %s", req.PaymentMethod)
	}

	order := &domain.Order{
		ID:              utils.GenerateUUID(),
		UserID:          userID,
		Status:          domain.OrderStatusPending,
		PayStatus:       domain.PayStatusUnpaid,
		RefundStatus:    domain.RefundStatusNotApplicable,
		PaymentMethod:   method,
		ShippingFee:     req.ShippingFee,
		ShippingAddress: req.ShippingAddress,
	}
	if method == domain.PaymentMethodOnline {
		order.PayStatus = domain.PayStatusPaid
	}

	err := u.txManager.Do(ctx, func(txCtx context.Context) error {
		total := req.ShippingFee
		for _, item := range req.Items {
			if item.Quantity <= 0 {
				return fmt.Errorf("invalid quantity for variant %s", item.VariantID)
			}
			variant, err := u.productRepo.GetVariantByID(txCtx, item.VariantID)
			if err != nil {
				return fmt.Errorf("variant %s: %w", item.VariantID, err)
			}
			if variant.ProductID != item.ProductID {
				return fmt.Errorf("variant %s does not belong to product %s", item.VariantID, item.ProductID)
			}
			if variant.Stock < item.Quantity {
				return fmt.Errorf("insufficient stock for %s (have %d, want %d)", variant.SKU, variant.Stock, item.Quantity)
			}

			product, err := u.productRepo.GetProductByID(txCtx, item.ProductID)
			if err != nil {
				return err
			}
			price := effectivePrice(product, variant)

			vID := item.VariantID
			order.Items = append(order.Items, domain.OrderItem{
				ID:        utils.GenerateUUID(),
				ProductID: item.ProductID,
				VariantID: &vID,
				Quantity:  item.Quantity,
				Price:     price,
			})
			total += price * float64(item.Quantity)

			if err := u.productRepo.UpdateStock(txCtx, item.VariantID, -item.Quantity, "order_placed", order.ID); err != nil {
				return err
			}
		}
		order.TotalAmount = total

		if err := u.orderRepo.CreateOrder(txCtx, order); err != nil {
			return err
		}

		reason := "Order placed"
		newStatus := string(order.Status)
		return u.orderRepo.CreateOrderHistory(txCtx, &domain.OrderHistory{
			ID:        utils.GenerateUUID(),
			OrderID:   order.ID,
			NewStatus: newStatus,
			Reason:    &reason,
			CreatedBy: &userID,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info().
		Str("order_id", order.ID).
		Str("payment_method", string(method)).
		Float64("total", order.TotalAmount).
		Msg("Order placed")

	u.hub.Publish("order.created", order)
	return order, nil
}

// effectivePrice prefers the variant price override, then the sale price.
func effectivePrice(p *domain.Product, v *domain.Variant) float64 {
	if v.SalePrice != nil {
		return *v.SalePrice
	}
	if v.Price != nil {
		return *v.Price
	}
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.BasePrice
}

// --- Reads ---

func (u *OrderUsecase) GetMyOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return u.orderRepo.GetByUserID(ctx, userID)
}

func (u *OrderUsecase) GetAllOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	return u.orderRepo.GetAll(ctx, filter)
}

func (u *OrderUsecase) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return u.orderRepo.GetByID(ctx, id)
}

func (u *OrderUsecase) GetOrderHistory(ctx context.Context, orderID string) ([]domain.OrderHistory, error) {
	return u.orderRepo.GetOrderHistory(ctx, orderID)
}

// GetTransitions returns the statuses an order may move to next, so the
// dashboard can render only the buttons that will actually succeed.
func (u *OrderUsecase) GetTransitions(ctx context.Context, orderID string) ([]domain.OrderStatus, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next := orderrules.NextStatuses(order.Status)
	if next == nil {
		next = []domain.OrderStatus{}
	}
	// Cancellation is additionally open to any non-terminal order.
	if !order.Status.IsTerminal() && !containsStatus(next, domain.OrderStatusCancelled) {
		next = append(next, domain.OrderStatusCancelled)
	}
	return next, nil
}

func containsStatus(list []domain.OrderStatus, s domain.OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// --- Admin update ---

// UpdateOrder runs the proposed partial update through the rule engine and,
// if accepted, persists it atomically with a history entry. A rejected update
// returns the orderrules.RejectReason as the error; an accepted no-op returns
// the unchanged order without touching the database.
func (u *OrderUsecase) UpdateOrder(ctx context.Context, orderID string, patch domain.OrderPatch, actorID string) (*domain.Order, error) {
	order, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	decision := orderrules.Validate(orderrules.SnapshotOf(order), patch)
	if !decision.Allowed {
		logger.Get().Warn().
			Str("order_id", orderID).
			Str("actor_id", actorID).
			Str("reason", string(decision.Reason)).
			Msg("Order update rejected")
		return nil, decision.Reason
	}
	if decision.NoOp {
		return order, nil
	}

	oldStatus := string(order.Status)
	err = u.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := u.orderRepo.ApplyPatch(txCtx, orderID, decision.Changed); err != nil {
			return err
		}

		reason := describePatch(decision.Changed)
		history := domain.OrderHistory{
			ID:             utils.GenerateUUID(),
			OrderID:        orderID,
			PreviousStatus: &oldStatus,
			NewStatus:      oldStatus,
			Reason:         &reason,
			CreatedBy:      &actorID,
		}
		if decision.Changed.Status != nil {
			history.NewStatus = string(*decision.Changed.Status)
		}
		return u.orderRepo.CreateOrderHistory(txCtx, &history)
	})
	if err != nil {
		return nil, err
	}

	updated, err := u.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	logger.Get().Info().
		Str("order_id", orderID).
		Str("actor_id", actorID).
		Str("status", string(updated.Status)).
		Msg("Order updated")

	u.hub.Publish("order.updated", updated)
	return updated, nil
}

// describePatch builds the audit line for a history entry.
func describePatch(p domain.OrderPatch) string {
	parts := []string{}
	if p.Status != nil {
		parts = append(parts, fmt.Sprintf("status=%s", *p.Status))
	}
	if p.PayStatus != nil {
		parts = append(parts, fmt.Sprintf("payStatus=%s", *p.PayStatus))
	}
	if p.RefundStatus != nil {
		parts = append(parts, fmt.Sprintf("refundStatus=%s", *p.RefundStatus))
	}
	if p.RefundProof != nil {
		parts = append(parts, "refundProof updated")
	}
	return "Admin update: " + strings.Join(parts, ", ")
}
