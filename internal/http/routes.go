package http

import (
	"time"

	"storebot/internal/config"
	"storebot/internal/http/handlers"
	"storebot/internal/http/middleware"
	"storebot/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes wires the operator dashboard API. Everything except auth,
// health and metrics requires an operator JWT.
func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, engine *service.Engine, cfg *config.Config, version string) {
	h := handlers.NewHandler(engine, cfg)
	healthHandler := handlers.NewHealthHandler(db, version)

	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiRateWindow := time.Duration(cfg.APIRateWindow) * time.Second

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, apiRateWindow))

	v1.POST("/auth", h.Auth)

	auth := v1.Group("")
	auth.Use(middleware.JWT())
	{
		auth.GET("/users", h.ListUsers)
		auth.GET("/users/:id", h.GetUser)
		auth.POST("/users/:id/ban", h.BanUser)
		auth.POST("/users/:id/balance", h.AdjustBalance)
		auth.POST("/users/:id/points", h.AdjustPoints)
		auth.POST("/users/:id/vip", h.SetVIP)

		auth.GET("/categories", h.ListCategories)
		auth.POST("/categories", h.CreateCategory)
		auth.PUT("/categories/:id", h.UpdateCategory)

		auth.GET("/products", h.ListProducts)
		auth.POST("/products", h.CreateProduct)
		auth.PUT("/products/:id", h.UpdateProduct)

		auth.GET("/variants", h.ListVariants)
		auth.POST("/variants", h.CreateVariant)
		auth.DELETE("/variants/:id", h.DeleteVariant)

		auth.GET("/settings", h.ListSettings)
		auth.PUT("/settings/:key", h.SetSetting)
		auth.GET("/vip-levels", h.ListVIPLevels)
		auth.PUT("/vip-levels/:level", h.UpsertVIPLevel)

		auth.GET("/requests/pending", h.PendingRequests)
		auth.POST("/requests/topups/:id/approve", h.ApproveTopup)
		auth.POST("/requests/topups/:id/reject", h.RejectTopup)
		auth.POST("/requests/orders/:id/complete", h.CompleteOrder)
		auth.POST("/requests/orders/:id/fail", h.FailOrder)
		auth.POST("/requests/redemptions/:id/approve", h.ApproveRedemption)
		auth.POST("/requests/redemptions/:id/reject", h.RejectRedemption)

		auth.GET("/reports/totals", h.Totals)
		auth.GET("/reports/daily", h.DailyReport)
	}
}
