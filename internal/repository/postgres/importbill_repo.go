package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bazarhub-backend/internal/domain"
)

type ImportBillRepo struct {
	pool *pgxpool.Pool
}

func NewImportBillRepo(pool *pgxpool.Pool) *ImportBillRepo {
	return &ImportBillRepo{pool: pool}
}

const importBillColumns = `id, code, supplier, note, status, total_cost, created_by, received_at, created_at, updated_at`

func scanImportBill(row pgx.Row) (*domain.ImportBill, error) {
	var b domain.ImportBill
	err := row.Scan(&b.ID, &b.Code, &b.Supplier, &b.Note, &b.Status, &b.TotalCost,
		&b.CreatedBy, &b.ReceivedAt, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan import bill: %w", err)
	}
	return &b, nil
}

func (r *ImportBillRepo) Create(ctx context.Context, bill *domain.ImportBill) error {
	q := queryFrom(ctx, r.pool)

	row := q.QueryRow(ctx, `
		INSERT INTO import_bills (id, code, supplier, note, status, total_cost, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		bill.ID, bill.Code, bill.Supplier, bill.Note, bill.Status, bill.TotalCost, bill.CreatedBy)
	if err := row.Scan(&bill.CreatedAt, &bill.UpdatedAt); err != nil {
		return fmt.Errorf("insert import bill: %w", err)
	}

	for i := range bill.Items {
		item := &bill.Items[i]
		item.BillID = bill.ID
		_, err := q.Exec(ctx, `
			INSERT INTO import_bill_items (id, bill_id, product_id, variant_id, quantity, unit_cost)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			item.ID, item.BillID, item.ProductID, item.VariantID, item.Quantity, item.UnitCost)
		if err != nil {
			return fmt.Errorf("insert import bill item: %w", err)
		}
	}
	return nil
}

func (r *ImportBillRepo) GetByID(ctx context.Context, id string) (*domain.ImportBill, error) {
	q := queryFrom(ctx, r.pool)

	bill, err := scanImportBill(q.QueryRow(ctx,
		`SELECT `+importBillColumns+` FROM import_bills WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, bill_id, product_id, variant_id, quantity, unit_cost
		FROM import_bill_items WHERE bill_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("load import bill items: %w", err)
	}
	defer rows.Close()

	items := []domain.ImportBillItem{}
	for rows.Next() {
		var it domain.ImportBillItem
		if err := rows.Scan(&it.ID, &it.BillID, &it.ProductID, &it.VariantID,
			&it.Quantity, &it.UnitCost); err != nil {
			return nil, fmt.Errorf("scan import bill item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	bill.Items = items
	return bill, nil
}

func (r *ImportBillRepo) GetAll(ctx context.Context, filter domain.ImportBillFilter) ([]domain.ImportBill, int64, error) {
	q := queryFrom(ctx, r.pool)

	where := []string{"1=1"}
	args := []any{}
	argN := 1

	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argN))
		args = append(args, filter.Status)
		argN++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(code ILIKE $%d OR supplier ILIKE $%d)", argN, argN))
		args = append(args, "%"+filter.Search+"%")
		argN++
	}
	whereSQL := strings.Join(where, " AND ")

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM import_bills WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count import bills: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	rows, err := q.Query(ctx, fmt.Sprintf(
		`SELECT %s FROM import_bills WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		importBillColumns, whereSQL, argN, argN+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list import bills: %w", err)
	}
	defer rows.Close()

	bills := []domain.ImportBill{}
	for rows.Next() {
		b, err := scanImportBill(rows)
		if err != nil {
			return nil, 0, err
		}
		bills = append(bills, *b)
	}
	return bills, total, rows.Err()
}

func (r *ImportBillRepo) SetStatus(ctx context.Context, id string, status domain.ImportBillStatus, receivedAt *time.Time) error {
	q := queryFrom(ctx, r.pool)
	tag, err := q.Exec(ctx, `
		UPDATE import_bills
		SET status = $2, received_at = $3, updated_at = NOW()
		WHERE id = $1`, id, status, receivedAt)
	if err != nil {
		return fmt.Errorf("set import bill status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
