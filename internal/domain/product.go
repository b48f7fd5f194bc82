package domain

import (
	"context"
	"time"
)

type Category struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Slug       string  `json:"slug"`
	ParentID   *string `json:"parentId"`
	OrderIndex int     `json:"orderIndex"`
	Image      string  `json:"image"`
	IsActive   bool    `json:"isActive"`
}

type Product struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	BasePrice   float64    `json:"basePrice"`
	SalePrice   *float64   `json:"salePrice"`
	Stock       int        `json:"stock"`
	IsActive    bool       `json:"isActive"`
	Images      []string   `json:"images"`
	Variants    []Variant  `json:"variants"`
	Categories  []Category `json:"categories"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Variant struct {
	ID        string   `json:"id"`
	ProductID string   `json:"productId"`
	Name      string   `json:"name"`
	SKU       string   `json:"sku"`
	Stock     int      `json:"stock"`
	Price     *float64 `json:"price"` // Override base price
	SalePrice *float64 `json:"salePrice"`
	Image     string   `json:"image"`
}

type InventoryLog struct {
	ID           int64     `json:"id"`
	ProductID    string    `json:"productId"`
	VariantID    *string   `json:"variantId"`
	ChangeAmount int       `json:"changeAmount"` // +10 or -5
	Reason       string    `json:"reason"`       // order_placed, import_received, adjustment
	ReferenceID  string    `json:"referenceId"`  // OrderID, ImportBillID or Admin UserID
	CreatedAt    time.Time `json:"createdAt"`
}

type ProductFilter struct {
	CategorySlug string
	Query        string
	MinPrice     float64
	MaxPrice     float64
	Sort         string // newest, price_asc, price_desc
	Limit        int
	Offset       int
	IsActive     *bool // nil = all, true = active, false = inactive
}

// --- Interfaces ---

type ProductRepository interface {
	// Category Management
	GetCategories(ctx context.Context, isActive *bool) ([]Category, error)
	CreateCategory(ctx context.Context, category *Category) error
	UpdateCategory(ctx context.Context, category *Category) error
	DeleteCategory(ctx context.Context, id string) error

	// Product Management
	GetProducts(ctx context.Context, filter ProductFilter) ([]Product, int64, error)
	GetProductBySlug(ctx context.Context, slug string) (*Product, error)
	GetProductByID(ctx context.Context, id string) (*Product, error)
	CreateProduct(ctx context.Context, product *Product) error
	UpdateProduct(ctx context.Context, product *Product) error
	UpdateProductStatus(ctx context.Context, id string, isActive bool) error
	DeleteProduct(ctx context.Context, id string) error

	// Inventory
	GetVariantByID(ctx context.Context, id string) (*Variant, error)
	UpdateStock(ctx context.Context, variantID string, quantity int, reason, referenceID string) error
	GetInventoryLogs(ctx context.Context, productID string, limit, offset int) ([]InventoryLog, int64, error)
	GetLowStockVariants(ctx context.Context, threshold, limit int32) ([]Variant, error)
}
