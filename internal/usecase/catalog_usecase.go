package usecase

import (
	"context"
	"fmt"
	"time"

	"bazarhub-backend/internal/domain"
	"bazarhub-backend/pkg/cache"
	"bazarhub-backend/pkg/logger"
	"bazarhub-backend/pkg/utils"
)

type CatalogUsecase struct {
	productRepo domain.ProductRepository
	txManager   domain.TransactionManager
	cache       cache.CacheService
	cacheTTL    time.Duration
}

func NewCatalogUsecase(repo domain.ProductRepository, txManager domain.TransactionManager, c cache.CacheService, cacheTTL time.Duration) *CatalogUsecase {
	return &CatalogUsecase{
		productRepo: repo,
		txManager:   txManager,
		cache:       c,
		cacheTTL:    cacheTTL,
	}
}

// --- Categories ---

func (u *CatalogUsecase) GetCategories(ctx context.Context, isActive *bool) ([]domain.Category, error) {
	// Only the public storefront view (active categories) is cached; the
	// admin view must always be fresh.
	cacheable := isActive != nil && *isActive
	if cacheable {
		if val, found := u.cache.Get("catalog:categories:active"); found {
			return val.([]domain.Category), nil
		}
	}

	cats, err := u.productRepo.GetCategories(ctx, isActive)
	if err != nil {
		return nil, err
	}
	if cacheable {
		u.cache.Set("catalog:categories:active", cats, u.cacheTTL)
	}
	return cats, nil
}

func (u *CatalogUsecase) CreateCategory(ctx context.Context, category *domain.Category) error {
	category.ID = utils.GenerateUUID()
	if category.Slug == "" {
		category.Slug = utils.GenerateSlug(category.Name)
	}
	if err := u.productRepo.CreateCategory(ctx, category); err != nil {
		return err
	}
	u.cache.Delete("catalog:categories:active")
	return nil
}

func (u *CatalogUsecase) UpdateCategory(ctx context.Context, category *domain.Category) error {
	if category.Slug == "" {
		category.Slug = utils.GenerateSlug(category.Name)
	}
	if err := u.productRepo.UpdateCategory(ctx, category); err != nil {
		return err
	}
	u.cache.Delete("catalog:categories:active")
	return nil
}

func (u *CatalogUsecase) DeleteCategory(ctx context.Context, id string) error {
	if err := u.productRepo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	u.cache.Delete("catalog:categories:active")
	return nil
}

// --- Products ---

func (u *CatalogUsecase) GetProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return u.productRepo.GetProducts(ctx, filter)
}

func (u *CatalogUsecase) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	cacheKey := "catalog:product:" + slug
	if val, found := u.cache.Get(cacheKey); found {
		return val.(*domain.Product), nil
	}

	product, err := u.productRepo.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	u.cache.Set(cacheKey, product, u.cacheTTL)
	return product, nil
}

func (u *CatalogUsecase) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	return u.productRepo.GetProductByID(ctx, id)
}

func (u *CatalogUsecase) CreateProduct(ctx context.Context, product *domain.Product) error {
	product.ID = utils.GenerateUUID()
	if product.Slug == "" {
		product.Slug = utils.GenerateSlug(product.Name)
	}
	for i := range product.Variants {
		product.Variants[i].ID = utils.GenerateUUID()
	}
	if len(product.Variants) == 0 {
		// Every product carries at least one variant so stock and pricing
		// always hang off a variant row.
		product.Variants = []domain.Variant{{
			ID:    utils.GenerateUUID(),
			Name:  "Default",
			SKU:   utils.GenerateSlug(product.Name) + "-default",
			Stock: product.Stock,
		}}
	}

	err := u.txManager.Do(ctx, func(txCtx context.Context) error {
		return u.productRepo.CreateProduct(txCtx, product)
	})
	if err != nil {
		return err
	}

	logger.Get().Info().Str("product_id", product.ID).Str("slug", product.Slug).Msg("Product created")
	return nil
}

func (u *CatalogUsecase) UpdateProduct(ctx context.Context, product *domain.Product) error {
	existing, err := u.productRepo.GetProductByID(ctx, product.ID)
	if err != nil {
		return err
	}
	if product.Slug == "" {
		product.Slug = existing.Slug
	}

	err = u.txManager.Do(ctx, func(txCtx context.Context) error {
		return u.productRepo.UpdateProduct(txCtx, product)
	})
	if err != nil {
		return err
	}

	u.cache.Delete("catalog:product:" + existing.Slug)
	u.cache.Delete("catalog:product:" + product.Slug)
	return nil
}

func (u *CatalogUsecase) SetProductStatus(ctx context.Context, id string, isActive bool) error {
	product, err := u.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return err
	}
	if err := u.productRepo.UpdateProductStatus(ctx, id, isActive); err != nil {
		return err
	}
	u.cache.Delete("catalog:product:" + product.Slug)
	return nil
}

func (u *CatalogUsecase) DeleteProduct(ctx context.Context, id string) error {
	product, err := u.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return err
	}
	if err := u.productRepo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	u.cache.Delete("catalog:product:" + product.Slug)
	return nil
}

// --- Inventory ---

// AdjustStock is the manual correction path. Imports and orders adjust stock
// through their own flows with their own log reasons.
func (u *CatalogUsecase) AdjustStock(ctx context.Context, variantID string, quantity int, adminID string) error {
	if quantity == 0 {
		return fmt.Errorf("adjustment must be non-zero")
	}
	variant, err := u.productRepo.GetVariantByID(ctx, variantID)
	if err != nil {
		return err
	}
	if variant.Stock+quantity < 0 {
		return fmt.Errorf("adjustment would make stock negative (have %d, delta %d)", variant.Stock, quantity)
	}

	err = u.txManager.Do(ctx, func(txCtx context.Context) error {
		return u.productRepo.UpdateStock(txCtx, variantID, quantity, "adjustment", adminID)
	})
	if err != nil {
		return err
	}

	logger.Get().Info().
		Str("variant_id", variantID).
		Int("delta", quantity).
		Str("admin_id", adminID).
		Msg("Stock adjusted")
	return nil
}

func (u *CatalogUsecase) GetInventoryLogs(ctx context.Context, productID string, limit, offset int) ([]domain.InventoryLog, int64, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return u.productRepo.GetInventoryLogs(ctx, productID, limit, offset)
}
