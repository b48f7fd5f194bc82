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

type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

// --- Categories ---

func (r *ProductRepo) GetCategories(ctx context.Context, isActive *bool) ([]domain.Category, error) {
	q := queryFrom(ctx, r.pool)

	sql := `SELECT id, name, slug, parent_id, order_index, image, is_active FROM categories`
	args := []any{}
	if isActive != nil {
		sql += ` WHERE is_active = $1`
		args = append(args, *isActive)
	}
	sql += ` ORDER BY order_index, name`

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	cats := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.OrderIndex, &c.Image, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *ProductRepo) CreateCategory(ctx context.Context, category *domain.Category) error {
	q := queryFrom(ctx, r.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO categories (id, name, slug, parent_id, order_index, image, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		category.ID, category.Name, category.Slug, category.ParentID,
		category.OrderIndex, category.Image, category.IsActive)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *ProductRepo) UpdateCategory(ctx context.Context, category *domain.Category) error {
	q := queryFrom(ctx, r.pool)
	tag, err := q.Exec(ctx, `
		UPDATE categories
		SET name = $2, slug = $3, parent_id = $4, order_index = $5, image = $6, is_active = $7
		WHERE id = $1`,
		category.ID, category.Name, category.Slug, category.ParentID,
		category.OrderIndex, category.Image, category.IsActive)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) DeleteCategory(ctx context.Context, id string) error {
	q := queryFrom(ctx, r.pool)
	tag, err := q.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --- Products ---

const productColumns = `id, name, slug, description, base_price, sale_price, stock, is_active, images, created_at, updated_at`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.BasePrice,
		&p.SalePrice, &p.Stock, &p.IsActive, &p.Images, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

func (r *ProductRepo) GetProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	q := queryFrom(ctx, r.pool)

	where := []string{"1=1"}
	args := []any{}
	argN := 1

	if filter.IsActive != nil {
		where = append(where, fmt.Sprintf("p.is_active = $%d", argN))
		args = append(args, *filter.IsActive)
		argN++
	}
	if filter.CategorySlug != "" {
		where = append(where, fmt.Sprintf(
			"p.id IN (SELECT pc.product_id FROM product_categories pc JOIN categories c ON c.id = pc.category_id WHERE c.slug = $%d)", argN))
		args = append(args, filter.CategorySlug)
		argN++
	}
	if filter.Query != "" {
		where = append(where, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", argN, argN))
		args = append(args, "%"+filter.Query+"%")
		argN++
	}
	if filter.MinPrice > 0 {
		where = append(where, fmt.Sprintf("COALESCE(p.sale_price, p.base_price) >= $%d", argN))
		args = append(args, filter.MinPrice)
		argN++
	}
	if filter.MaxPrice > 0 {
		where = append(where, fmt.Sprintf("COALESCE(p.sale_price, p.base_price) <= $%d", argN))
		args = append(args, filter.MaxPrice)
		argN++
	}
	whereSQL := strings.Join(where, " AND ")

	orderBy := "p.created_at DESC"
	switch filter.Sort {
	case "price_asc":
		orderBy = "COALESCE(p.sale_price, p.base_price) ASC"
	case "price_desc":
		orderBy = "COALESCE(p.sale_price, p.base_price) DESC"
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM products p WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := q.Query(ctx, fmt.Sprintf(
		`SELECT p.id, p.name, p.slug, p.description, p.base_price, p.sale_price,
			p.stock, p.is_active, p.images, p.created_at, p.updated_at
		FROM products p WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		whereSQL, orderBy, argN, argN+1), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *ProductRepo) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.getProduct(ctx, `slug = $1`, slug)
}

func (r *ProductRepo) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.getProduct(ctx, `id = $1`, id)
}

func (r *ProductRepo) getProduct(ctx context.Context, cond string, arg any) (*domain.Product, error) {
	q := queryFrom(ctx, r.pool)

	p, err := scanProduct(q.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE `+cond, arg))
	if err != nil {
		return nil, err
	}

	variants, err := r.loadVariants(ctx, q, p.ID)
	if err != nil {
		return nil, err
	}
	p.Variants = variants

	cats, err := r.loadProductCategories(ctx, q, p.ID)
	if err != nil {
		return nil, err
	}
	p.Categories = cats
	return p, nil
}

func (r *ProductRepo) loadVariants(ctx context.Context, q querier, productID string) ([]domain.Variant, error) {
	rows, err := q.Query(ctx, `
		SELECT id, product_id, name, sku, stock, price, sale_price, image
		FROM variants WHERE product_id = $1 ORDER BY name`, productID)
	if err != nil {
		return nil, fmt.Errorf("load variants: %w", err)
	}
	defer rows.Close()

	variants := []domain.Variant{}
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU, &v.Stock,
			&v.Price, &v.SalePrice, &v.Image); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (r *ProductRepo) loadProductCategories(ctx context.Context, q querier, productID string) ([]domain.Category, error) {
	rows, err := q.Query(ctx, `
		SELECT c.id, c.name, c.slug, c.parent_id, c.order_index, c.image, c.is_active
		FROM categories c
		JOIN product_categories pc ON pc.category_id = c.id
		WHERE pc.product_id = $1`, productID)
	if err != nil {
		return nil, fmt.Errorf("load product categories: %w", err)
	}
	defer rows.Close()

	cats := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID, &c.OrderIndex, &c.Image, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan product category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *ProductRepo) CreateProduct(ctx context.Context, product *domain.Product) error {
	q := queryFrom(ctx, r.pool)

	row := q.QueryRow(ctx, `
		INSERT INTO products (id, name, slug, description, base_price, sale_price, stock, is_active, images)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		product.ID, product.Name, product.Slug, product.Description, product.BasePrice,
		product.SalePrice, product.Stock, product.IsActive, product.Images)
	if err := row.Scan(&product.CreatedAt, &product.UpdatedAt); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	for i := range product.Variants {
		v := &product.Variants[i]
		v.ProductID = product.ID
		_, err := q.Exec(ctx, `
			INSERT INTO variants (id, product_id, name, sku, stock, price, sale_price, image)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			v.ID, v.ProductID, v.Name, v.SKU, v.Stock, v.Price, v.SalePrice, v.Image)
		if err != nil {
			return fmt.Errorf("insert variant: %w", err)
		}
	}

	for _, c := range product.Categories {
		_, err := q.Exec(ctx, `
			INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2)`,
			product.ID, c.ID)
		if err != nil {
			return fmt.Errorf("link product category: %w", err)
		}
	}
	return nil
}

func (r *ProductRepo) UpdateProduct(ctx context.Context, product *domain.Product) error {
	q := queryFrom(ctx, r.pool)

	tag, err := q.Exec(ctx, `
		UPDATE products
		SET name = $2, slug = $3, description = $4, base_price = $5, sale_price = $6,
			images = $7, updated_at = NOW()
		WHERE id = $1`,
		product.ID, product.Name, product.Slug, product.Description,
		product.BasePrice, product.SalePrice, product.Images)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	// Category links are replaced wholesale; simpler than diffing.
	if _, err := q.Exec(ctx, `DELETE FROM product_categories WHERE product_id = $1`, product.ID); err != nil {
		return fmt.Errorf("clear product categories: %w", err)
	}
	for _, c := range product.Categories {
		_, err := q.Exec(ctx, `
			INSERT INTO product_categories (product_id, category_id) VALUES ($1, $2)`,
			product.ID, c.ID)
		if err != nil {
			return fmt.Errorf("link product category: %w", err)
		}
	}
	return nil
}

func (r *ProductRepo) UpdateProductStatus(ctx context.Context, id string, isActive bool) error {
	q := queryFrom(ctx, r.pool)
	tag, err := q.Exec(ctx,
		`UPDATE products SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, isActive)
	if err != nil {
		return fmt.Errorf("update product status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) DeleteProduct(ctx context.Context, id string) error {
	q := queryFrom(ctx, r.pool)
	tag, err := q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --- Inventory ---

func (r *ProductRepo) GetVariantByID(ctx context.Context, id string) (*domain.Variant, error) {
	q := queryFrom(ctx, r.pool)
	var v domain.Variant
	err := q.QueryRow(ctx, `
		SELECT id, product_id, name, sku, stock, price, sale_price, image
		FROM variants WHERE id = $1`, id).
		Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU, &v.Stock, &v.Price, &v.SalePrice, &v.Image)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get variant: %w", err)
	}
	return &v, nil
}

// UpdateStock adjusts a variant's stock by quantity (signed) and records an
// inventory log row. The stock CHECK keeps it from going negative; callers
// run this inside a transaction when the adjustment spans multiple variants.
func (r *ProductRepo) UpdateStock(ctx context.Context, variantID string, quantity int, reason, referenceID string) error {
	q := queryFrom(ctx, r.pool)

	var productID string
	err := q.QueryRow(ctx, `
		UPDATE variants SET stock = stock + $2 WHERE id = $1
		RETURNING product_id`, variantID, quantity).Scan(&productID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("adjust variant stock: %w", err)
	}

	// Keep the denormalized product-level stock in step.
	if _, err := q.Exec(ctx, `
		UPDATE products SET stock = (SELECT COALESCE(SUM(stock), 0) FROM variants WHERE product_id = $1)
		WHERE id = $1`, productID); err != nil {
		return fmt.Errorf("sync product stock: %w", err)
	}

	if _, err := q.Exec(ctx, `
		INSERT INTO inventory_logs (product_id, variant_id, change_amount, reason, reference_id)
		VALUES ($1, $2, $3, $4, $5)`,
		productID, variantID, quantity, reason, referenceID); err != nil {
		return fmt.Errorf("insert inventory log: %w", err)
	}
	return nil
}

func (r *ProductRepo) GetInventoryLogs(ctx context.Context, productID string, limit, offset int) ([]domain.InventoryLog, int64, error) {
	q := queryFrom(ctx, r.pool)

	var total int64
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM inventory_logs WHERE product_id = $1`, productID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count inventory logs: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT id, product_id, variant_id, change_amount, reason, reference_id, created_at
		FROM inventory_logs
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, productID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list inventory logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.InventoryLog{}
	for rows.Next() {
		var l domain.InventoryLog
		if err := rows.Scan(&l.ID, &l.ProductID, &l.VariantID, &l.ChangeAmount,
			&l.Reason, &l.ReferenceID, &l.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan inventory log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}

func (r *ProductRepo) GetLowStockVariants(ctx context.Context, threshold, limit int32) ([]domain.Variant, error) {
	q := queryFrom(ctx, r.pool)
	rows, err := q.Query(ctx, `
		SELECT id, product_id, name, sku, stock, price, sale_price, image
		FROM variants
		WHERE stock <= $1
		ORDER BY stock ASC
		LIMIT $2`, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("list low stock variants: %w", err)
	}
	defer rows.Close()

	variants := []domain.Variant{}
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU, &v.Stock,
			&v.Price, &v.SalePrice, &v.Image); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}
