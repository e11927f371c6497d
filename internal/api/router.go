package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcpops/portal/internal/api/handler"
	"github.com/mcpops/portal/internal/api/middleware"
	"github.com/mcpops/portal/internal/api/spec"
	"github.com/mcpops/portal/internal/config"
	"github.com/mcpops/portal/internal/domain"
	"github.com/mcpops/portal/internal/idempotency"
	"github.com/mcpops/portal/internal/repository"
	"github.com/mcpops/portal/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type Router struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *pgxpool.Pool
	store     *repository.Store
	idemStore *idempotency.Store
	redis     redis.Cmdable
}

func NewRouter(cfg *config.Config, logger *zap.Logger, db *pgxpool.Pool, store *repository.Store, idemStore *idempotency.Store, redisClient redis.Cmdable) *Router {
	return &Router{cfg: cfg, logger: logger, db: db, store: store, idemStore: idemStore, redis: redisClient}
}

func (rt *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(rt.logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RecoverMiddleware(rt.logger))

	// Services
	walletSvc := service.NewWalletService(rt.store)
	orderSvc := service.NewOrderService(rt.store)
	partnerSvc := service.NewPartnerService(rt.store)

	// Handlers
	authHandler := handler.NewAuthHandler(rt.store, rt.cfg.TokenTTL)
	walletHandler := handler.NewWalletHandler(walletSvc)
	orderHandler := handler.NewOrderHandler(orderSvc)
	partnerHandler := handler.NewPartnerHandler(partnerSvc)
	healthHandler := handler.NewHealthHandler(rt.db, rt.redis)

	idempotent := middleware.IdempotencyMiddleware(rt.idemStore, rt.logger)

	// Operational endpoints
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz/live", healthHandler.Live)
	r.Get("/healthz/ready", healthHandler.Ready)
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(rt.cfg.PublicRateLimitRPS))

		r.Post("/api/auth/register", authHandler.Register)
		r.Post("/api/auth/login", authHandler.Login)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(rt.cfg.AuthRateLimitRPS))

		// Profile
		r.Get("/api/auth/profile", authHandler.Profile)
		r.Put("/api/auth/profile", authHandler.UpdateProfile)

		// Wallet
		r.Get("/api/wallet", walletHandler.GetWallet)
		r.With(idempotent).Post("/api/wallet/funds", walletHandler.AddFunds)
		r.With(idempotent).Post("/api/wallet/withdraw", walletHandler.Withdraw)
		r.With(idempotent, middleware.RequireRole(domain.RoleMCP)).Post("/api/wallet/transfer", walletHandler.Transfer)

		// Orders
		r.With(middleware.RequireRole(domain.RoleMCP)).Get("/api/order/mcp", orderHandler.ListForMCP)
		r.With(middleware.RequireRole(domain.RolePartner)).Get("/api/order/partner", orderHandler.ListForPartner)
		r.With(middleware.RequireRole(domain.RoleMCP)).Post("/api/order", orderHandler.Create)
		r.Get("/api/order/{id}", orderHandler.GetByID)
		r.With(idempotent).Put("/api/order/{id}/status", orderHandler.UpdateStatus)
		r.With(middleware.RequireRole(domain.RoleMCP)).Put("/api/order/{id}/assign", orderHandler.Assign)

		// Partners
		r.With(middleware.RequireRole(domain.RoleMCP)).Get("/api/partner", partnerHandler.List)
		r.With(middleware.RequireRole(domain.RoleMCP)).Put("/api/partner/{id}/status", partnerHandler.UpdateStatus)
		r.Get("/api/partner/{id}", partnerHandler.Get)
		r.Get("/api/partner/{id}/location", partnerHandler.Location)
	})

	return r
}
