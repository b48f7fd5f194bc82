package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"bazarhub-backend/internal/domain"
	"bazarhub-backend/pkg/cache"
)

// StatsUsecase runs read-only aggregate queries straight against the pool.
// Frontend controls date ranges and pagination; this layer only validates.
type StatsUsecase struct {
	db        *pgxpool.Pool
	orderRepo domain.OrderRepository
	prodRepo  domain.ProductRepository
	cache     cache.CacheService
	cacheTTL  time.Duration
}

func NewStatsUsecase(db *pgxpool.Pool, orderRepo domain.OrderRepository, prodRepo domain.ProductRepository, c cache.CacheService, cacheTTL time.Duration) *StatsUsecase {
	return &StatsUsecase{
		db:        db,
		orderRepo: orderRepo,
		prodRepo:  prodRepo,
		cache:     c,
		cacheTTL:  cacheTTL,
	}
}

func validateRange(start, end time.Time) error {
	if end.Before(start) {
		return errors.New("end date must be after start date")
	}
	if end.Sub(start) > 365*24*time.Hour {
		return errors.New("date range cannot exceed 1 year")
	}
	return nil
}

type RevenueKPIs struct {
	TotalRevenue  float64 `json:"totalRevenue"`
	OrderCount    int64   `json:"orderCount"`
	PaidCount     int64   `json:"paidCount"`
	AvgOrderValue float64 `json:"avgOrderValue"`
	CodRevenue    float64 `json:"codRevenue"`
	OnlineRevenue float64 `json:"onlineRevenue"`
}

// GetRevenueKPIs sums over paid, non-cancelled orders in the window.
func (u *StatsUsecase) GetRevenueKPIs(ctx context.Context, start, end time.Time) (*RevenueKPIs, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("stats:kpis:%s:%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	if val, found := u.cache.Get(cacheKey); found {
		return val.(*RevenueKPIs), nil
	}

	var k RevenueKPIs
	err := u.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(total_amount) FILTER (WHERE pay_status = 'paid' AND order_status <> 'cancelled'), 0),
			COUNT(*),
			COUNT(*) FILTER (WHERE pay_status = 'paid' AND order_status <> 'cancelled'),
			COALESCE(SUM(total_amount) FILTER (WHERE pay_status = 'paid' AND order_status <> 'cancelled' AND payment_method = 'COD'), 0),
			COALESCE(SUM(total_amount) FILTER (WHERE pay_status = 'paid' AND order_status <> 'cancelled' AND payment_method = 'ONLINE'), 0)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2`,
		start, end).
		Scan(&k.TotalRevenue, &k.OrderCount, &k.PaidCount, &k.CodRevenue, &k.OnlineRevenue)
	if err != nil {
		return nil, fmt.Errorf("revenue kpis: %w", err)
	}
	if k.PaidCount > 0 {
		k.AvgOrderValue = k.TotalRevenue / float64(k.PaidCount)
	}

	u.cache.Set(cacheKey, &k, u.cacheTTL)
	return &k, nil
}

type DailySales struct {
	Day        time.Time `json:"day"`
	Revenue    float64   `json:"revenue"`
	OrderCount int64     `json:"orderCount"`
}

func (u *StatsUsecase) GetDailySales(ctx context.Context, start, end time.Time, limit, offset int32) ([]DailySales, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}

	cacheKey := fmt.Sprintf("stats:daily_sales:%s:%s:%d:%d",
		start.Format("2006-01-02"), end.Format("2006-01-02"), limit, offset)
	if val, found := u.cache.Get(cacheKey); found {
		return val.([]DailySales), nil
	}

	rows, err := u.db.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day,
			COALESCE(SUM(total_amount) FILTER (WHERE pay_status = 'paid' AND order_status <> 'cancelled'), 0),
			COUNT(*)
		FROM orders
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY day
		ORDER BY day DESC
		LIMIT $3 OFFSET $4`,
		start, end, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("daily sales: %w", err)
	}
	defer rows.Close()

	sales := []DailySales{}
	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.Day, &d.Revenue, &d.OrderCount); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		sales = append(sales, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	u.cache.Set(cacheKey, sales, u.cacheTTL)
	return sales, nil
}

// GetStatusBreakdown returns live order counts per status. Not cached: this
// drives the dashboard header and must reflect updates immediately.
func (u *StatsUsecase) GetStatusBreakdown(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	counts, err := u.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	// Every known status appears, zero or not, so the dashboard never has
	// to special-case missing keys.
	for _, s := range domain.OrderStatuses {
		if _, ok := counts[s]; !ok {
			counts[s] = 0
		}
	}
	return counts, nil
}

type TopSellingProduct struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	UnitsSold int64   `json:"unitsSold"`
	Revenue   float64 `json:"revenue"`
}

func (u *StatsUsecase) GetTopSelling(ctx context.Context, start, end time.Time, limit int32) ([]TopSellingProduct, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}

	cacheKey := fmt.Sprintf("stats:top_selling:%s:%s:%d",
		start.Format("2006-01-02"), end.Format("2006-01-02"), limit)
	if val, found := u.cache.Get(cacheKey); found {
		return val.([]TopSellingProduct), nil
	}

	rows, err := u.db.Query(ctx, `
		SELECT p.id, p.name, p.slug,
			SUM(i.quantity), SUM(i.quantity * i.price)
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		JOIN products p ON p.id = i.product_id
		WHERE o.created_at >= $1 AND o.created_at < $2
			AND o.order_status <> 'cancelled'
		GROUP BY p.id, p.name, p.slug
		ORDER BY SUM(i.quantity) DESC
		LIMIT $3`,
		start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("top selling: %w", err)
	}
	defer rows.Close()

	top := []TopSellingProduct{}
	for rows.Next() {
		var t TopSellingProduct
		if err := rows.Scan(&t.ProductID, &t.Name, &t.Slug, &t.UnitsSold, &t.Revenue); err != nil {
			return nil, fmt.Errorf("scan top selling: %w", err)
		}
		top = append(top, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	u.cache.Set(cacheKey, top, u.cacheTTL)
	return top, nil
}

func (u *StatsUsecase) GetLowStock(ctx context.Context, threshold, limit int32) ([]domain.Variant, error) {
	if threshold < 0 {
		threshold = 5
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return u.prodRepo.GetLowStockVariants(ctx, threshold, limit)
}
