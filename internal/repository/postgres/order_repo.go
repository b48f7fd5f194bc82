package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bazarhub-backend/internal/domain"
)

type OrderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

func (r *OrderRepo) CreateOrder(ctx context.Context, order *domain.Order) error {
	q := queryFrom(ctx, r.pool)

	row := q.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, order_status, pay_status, refund_status,
			payment_method, total_amount, shipping_fee, shipping_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		order.ID, order.UserID, order.Status, order.PayStatus, order.RefundStatus,
		order.PaymentMethod, order.TotalAmount, order.ShippingFee, order.ShippingAddress)
	if err := row.Scan(&order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		_, err := q.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, variant_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, item.OrderID, item.ProductID, item.VariantID, item.Quantity, item.Price)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

const orderSelect = `
	SELECT o.id, o.user_id, o.order_status, o.pay_status, o.refund_status,
		o.refund_proof, o.payment_method, o.total_amount, o.shipping_fee,
		o.shipping_address, o.created_at, o.updated_at,
		u.email, u.first_name, u.last_name, u.phone
	FROM orders o
	JOIN users u ON u.id = o.user_id`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID, &o.Status, &o.PayStatus, &o.RefundStatus,
		&o.RefundProof, &o.PaymentMethod, &o.TotalAmount, &o.ShippingFee,
		&o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt,
		&o.User.Email, &o.User.FirstName, &o.User.LastName, &o.User.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	o.User.ID = o.UserID
	return &o, nil
}

func (r *OrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	q := queryFrom(ctx, r.pool)

	order, err := scanOrder(q.QueryRow(ctx, orderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		return nil, err
	}

	items, err := r.loadItems(ctx, q, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, q querier, orderID string) ([]domain.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, i.variant_id, i.quantity, i.price,
			p.name, p.slug
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = $1
		ORDER BY i.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.VariantID,
			&it.Quantity, &it.Price, &it.Product.Name, &it.Product.Slug); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		it.Product.ID = it.ProductID
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *OrderRepo) GetByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	q := queryFrom(ctx, r.pool)

	rows, err := q.Query(ctx, orderSelect+` WHERE o.user_id = $1 ORDER BY o.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.loadItems(ctx, q, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *OrderRepo) GetAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	q := queryFrom(ctx, r.pool)

	where := []string{"1=1"}
	args := []any{}
	argN := 1

	if filter.Status != "" {
		where = append(where, fmt.Sprintf("o.order_status = $%d", argN))
		args = append(args, filter.Status)
		argN++
	}
	if filter.PayStatus != "" {
		where = append(where, fmt.Sprintf("o.pay_status = $%d", argN))
		args = append(args, filter.PayStatus)
		argN++
	}
	if filter.PaymentMethod != "" {
		where = append(where, fmt.Sprintf("o.payment_method = $%d", argN))
		args = append(args, filter.PaymentMethod)
		argN++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(o.id::text ILIKE $%d OR u.email ILIKE $%d OR u.phone ILIKE $%d)", argN, argN, argN))
		args = append(args, "%"+filter.Search+"%")
		argN++
	}
	whereSQL := strings.Join(where, " AND ")

	var total int64
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders o JOIN users u ON u.id = o.user_id WHERE `+whereSQL,
		args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	rows, err := q.Query(ctx, fmt.Sprintf(
		`%s WHERE %s ORDER BY o.created_at DESC LIMIT $%d OFFSET $%d`,
		orderSelect, whereSQL, argN, argN+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ApplyPatch writes only the fields the patch carries. Callers are expected
// to have validated the patch already; this is plain persistence.
func (r *OrderRepo) ApplyPatch(ctx context.Context, id string, patch domain.OrderPatch) error {
	if patch.IsEmpty() {
		return nil
	}
	q := queryFrom(ctx, r.pool)

	set := []string{}
	args := []any{id}
	argN := 2

	if patch.Status != nil {
		set = append(set, fmt.Sprintf("order_status = $%d", argN))
		args = append(args, *patch.Status)
		argN++
	}
	if patch.PayStatus != nil {
		set = append(set, fmt.Sprintf("pay_status = $%d", argN))
		args = append(args, *patch.PayStatus)
		argN++
	}
	if patch.RefundStatus != nil {
		set = append(set, fmt.Sprintf("refund_status = $%d", argN))
		args = append(args, *patch.RefundStatus)
		argN++
	}
	if patch.RefundProof != nil {
		set = append(set, fmt.Sprintf("refund_proof = $%d", argN))
		args = append(args, *patch.RefundProof)
		argN++
	}
	set = append(set, "updated_at = NOW()")

	tag, err := q.Exec(ctx,
		fmt.Sprintf("UPDATE orders SET %s WHERE id = $1", strings.Join(set, ", ")),
		args...)
	if err != nil {
		return fmt.Errorf("patch order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepo) CreateOrderHistory(ctx context.Context, history *domain.OrderHistory) error {
	q := queryFrom(ctx, r.pool)
	row := q.QueryRow(ctx, `
		INSERT INTO order_history (id, order_id, previous_status, new_status, reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		history.ID, history.OrderID, history.PreviousStatus, history.NewStatus,
		history.Reason, history.CreatedBy)
	if err := row.Scan(&history.CreatedAt); err != nil {
		return fmt.Errorf("insert order history: %w", err)
	}
	return nil
}

func (r *OrderRepo) GetOrderHistory(ctx context.Context, orderID string) ([]domain.OrderHistory, error) {
	q := queryFrom(ctx, r.pool)
	rows, err := q.Query(ctx, `
		SELECT h.id, h.order_id, h.previous_status, h.new_status, h.reason,
			h.created_by, TRIM(COALESCE(u.first_name, '') || ' ' || COALESCE(u.last_name, '')),
			h.created_at
		FROM order_history h
		LEFT JOIN users u ON u.id = h.created_by
		WHERE h.order_id = $1
		ORDER BY h.created_at DESC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order history: %w", err)
	}
	defer rows.Close()

	entries := []domain.OrderHistory{}
	for rows.Next() {
		var h domain.OrderHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.PreviousStatus, &h.NewStatus,
			&h.Reason, &h.CreatedBy, &h.CreatedName, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order history: %w", err)
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

func (r *OrderRepo) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	q := queryFrom(ctx, r.pool)
	rows, err := q.Query(ctx,
		`SELECT order_status, COUNT(*) FROM orders GROUP BY order_status`)
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	defer rows.Close()

	counts := map[domain.OrderStatus]int64{}
	for rows.Next() {
		var status domain.OrderStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
