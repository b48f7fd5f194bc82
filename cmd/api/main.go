package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"golang.org/x/time/rate"

	"bazarhub-backend/config"
	"bazarhub-backend/internal/delivery/http/middleware"
	v1 "bazarhub-backend/internal/delivery/http/v1"
	"bazarhub-backend/internal/events"
	"bazarhub-backend/internal/repository/postgres"
	"bazarhub-backend/internal/usecase"
	"bazarhub-backend/pkg/cache"
	"bazarhub-backend/pkg/logger"
	"bazarhub-backend/pkg/storage"
	"bazarhub-backend/pkg/utils"
)

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	pgxPool, err := postgres.NewPgxPool(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgxPool.Close()
	log.Info().Msg("Connected to PostgreSQL")

	// Repositories
	userRepo := postgres.NewUserRepo(pgxPool)
	productRepo := postgres.NewProductRepo(pgxPool)
	orderRepo := postgres.NewOrderRepo(pgxPool)
	billRepo := postgres.NewImportBillRepo(pgxPool)
	txManager := postgres.NewTxManager(pgxPool)

	// In-memory cache, default expiration 30m, cleanup every 60m
	memCache := cache.NewMemoryCache(30*time.Minute, 60*time.Minute)

	// Websocket hub for admin dashboard push updates
	hub := events.NewHub()
	go hub.Run()

	mux := http.NewServeMux()

	// --- Modules ---

	// Auth
	authUC := usecase.NewAuthUsecase(userRepo, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	authHandler := v1.NewAuthHandler(authUC, cfg.Env == "production")

	// Storage (R2)
	r2Storage, err := storage.NewR2Storage(
		context.Background(),
		cfg.R2AccountID,
		cfg.R2AccessKeyID,
		cfg.R2AccessKeySecret,
		cfg.R2BucketName,
		cfg.R2PublicURL,
		cfg.R2UploadTimeout,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize R2 storage")
	}
	uploadHandler := v1.NewUploadHandler(r2Storage, cfg.MaxUploadSizeMB)

	// Catalog
	catalogUC := usecase.NewCatalogUsecase(productRepo, txManager, memCache, cfg.CacheCatalogTTL)
	catalogHandler := v1.NewCatalogHandler(catalogUC)
	adminCatalogHandler := v1.NewAdminCatalogHandler(catalogUC)

	// Orders
	orderUC := usecase.NewOrderUsecase(orderRepo, productRepo, txManager, hub)
	orderHandler := v1.NewOrderHandler(orderUC)
	adminOrderHandler := v1.NewAdminOrderHandler(orderUC)

	// Import bills
	billUC := usecase.NewImportBillUsecase(billRepo, productRepo, txManager, hub)
	adminBillHandler := v1.NewAdminImportBillHandler(billUC)

	// Stats
	statsUC := usecase.NewStatsUsecase(pgxPool, orderRepo, productRepo, memCache, cfg.CacheStatsTTL)
	adminStatsHandler := v1.NewAdminStatsHandler(statsUC)

	// Enums / config
	configHandler := v1.NewConfigHandler(memCache)

	// --- Routes ---

	// Public
	mux.HandleFunc("GET /api/v1/config/enums", configHandler.GetEnums)
	mux.HandleFunc("GET /api/v1/categories", catalogHandler.GetCategories)
	mux.HandleFunc("GET /api/v1/products", catalogHandler.ListProducts)
	mux.HandleFunc("GET /api/v1/products/{slug}", catalogHandler.GetProductBySlug)

	// Auth
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/v1/auth/me", middleware.Auth(http.HandlerFunc(authHandler.Me)))
	mux.Handle("PUT /api/v1/user/profile", middleware.Auth(http.HandlerFunc(authHandler.UpdateProfile)))

	// Customer orders
	mux.Handle("POST /api/v1/checkout", middleware.Auth(http.HandlerFunc(orderHandler.Checkout)))
	mux.Handle("GET /api/v1/orders", middleware.Auth(http.HandlerFunc(orderHandler.GetMyOrders)))
	mux.Handle("GET /api/v1/orders/{id}", middleware.Auth(http.HandlerFunc(orderHandler.GetMyOrder)))

	// Admin routes: staff can work orders and inventory, admin-only for
	// user management.
	staff := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(middleware.RequireRoles("admin", "staff")(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.Auth(middleware.RequireRoles("admin")(h))
	}

	// Admin orders
	mux.Handle("GET /api/v1/admin/orders", staff(adminOrderHandler.ListOrders))
	mux.Handle("GET /api/v1/admin/orders/{id}", staff(adminOrderHandler.GetOrder))
	mux.Handle("PATCH /api/v1/admin/orders/{id}", staff(adminOrderHandler.PatchOrder))
	mux.Handle("GET /api/v1/admin/orders/{id}/transitions", staff(adminOrderHandler.GetTransitions))
	mux.Handle("GET /api/v1/admin/orders/{id}/history", staff(adminOrderHandler.GetHistory))

	// Admin catalog
	mux.Handle("GET /api/v1/admin/categories", staff(adminCatalogHandler.ListCategories))
	mux.Handle("POST /api/v1/admin/categories", staff(adminCatalogHandler.CreateCategory))
	mux.Handle("PUT /api/v1/admin/categories/{id}", staff(adminCatalogHandler.UpdateCategory))
	mux.Handle("DELETE /api/v1/admin/categories/{id}", admin(adminCatalogHandler.DeleteCategory))
	mux.Handle("GET /api/v1/admin/products", staff(adminCatalogHandler.ListProducts))
	mux.Handle("GET /api/v1/admin/products/{id}", staff(adminCatalogHandler.GetProduct))
	mux.Handle("POST /api/v1/admin/products", staff(adminCatalogHandler.CreateProduct))
	mux.Handle("PUT /api/v1/admin/products/{id}", staff(adminCatalogHandler.UpdateProduct))
	mux.Handle("PATCH /api/v1/admin/products/{id}/status", staff(adminCatalogHandler.UpdateProductStatus))
	mux.Handle("DELETE /api/v1/admin/products/{id}", admin(adminCatalogHandler.DeleteProduct))
	mux.Handle("POST /api/v1/admin/inventory/adjust", staff(adminCatalogHandler.AdjustStock))
	mux.Handle("GET /api/v1/admin/inventory/logs", staff(adminCatalogHandler.GetInventoryLogs))

	// Admin import bills
	mux.Handle("GET /api/v1/admin/import-bills", staff(adminBillHandler.List))
	mux.Handle("POST /api/v1/admin/import-bills", staff(adminBillHandler.Create))
	mux.Handle("GET /api/v1/admin/import-bills/{id}", staff(adminBillHandler.Get))
	mux.Handle("POST /api/v1/admin/import-bills/{id}/receive", staff(adminBillHandler.Receive))
	mux.Handle("POST /api/v1/admin/import-bills/{id}/cancel", staff(adminBillHandler.Cancel))

	// Admin stats
	mux.Handle("GET /api/v1/admin/stats/kpis", staff(adminStatsHandler.GetRevenueKPIs))
	mux.Handle("GET /api/v1/admin/stats/revenue", staff(adminStatsHandler.GetDailySales))
	mux.Handle("GET /api/v1/admin/stats/status-breakdown", staff(adminStatsHandler.GetStatusBreakdown))
	mux.Handle("GET /api/v1/admin/stats/products/top-selling", staff(adminStatsHandler.GetTopSelling))
	mux.Handle("GET /api/v1/admin/stats/inventory/low-stock", staff(adminStatsHandler.GetLowStock))

	// Admin users (admin-only)
	mux.Handle("GET /api/v1/admin/users", admin(authHandler.ListUsers))
	mux.Handle("PATCH /api/v1/admin/users/{id}/status", admin(authHandler.SetUserStatus))
	mux.Handle("PATCH /api/v1/admin/users/{id}/role", admin(authHandler.SetUserRole))

	// Uploads
	mux.Handle("POST /api/v1/admin/uploads", staff(uploadHandler.UploadImage))

	// Health check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler)

	rateLimiter := middleware.NewRateLimiter(
		context.Background(),
		rate.Limit(cfg.RateLimitPerSecond),
		cfg.RateLimitBurst,
		time.Minute,
		3*time.Minute,
	)

	// The websocket endpoint bypasses gzip: a compressed writer cannot be
	// hijacked for the upgrade.
	eventsRoute := staff(hub.ServeWS)

	root := http.NewServeMux()
	root.Handle("GET /api/v1/admin/events", eventsRoute)
	root.Handle("/", gziphandler.GzipHandler(mux))

	handler := middleware.NewCORS(cfg)(root)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		log.Info().Msgf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	rateLimiter.Shutdown()
	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
