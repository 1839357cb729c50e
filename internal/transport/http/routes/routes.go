package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/domain"
	"github.com/ryu-qqq/AuthHub-sub012/internal/infra/config"
	"github.com/ryu-qqq/AuthHub-sub012/internal/transport/http/handlers"
	"github.com/ryu-qqq/AuthHub-sub012/internal/transport/http/middleware"
	"github.com/ryu-qqq/AuthHub-sub012/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth       *usecase.AuthService
	RateLimits *usecase.RateLimitService
	Blacklist  *usecase.BlacklistService
	Resolver   *usecase.PermissionResolver
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Metrics     *middleware.HTTPMetrics
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	authMiddleware := middleware.RequireAuth(deps.Services.Auth)

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authHandler := handlers.NewAuthHandler(deps.Services.Auth)
		authHandler.RegisterRoutes(authGroup, loginMiddlewares(deps), refreshMiddlewares(deps))

		gatewayGroup := api.Group("/gateway")
		if mw := gatewayMiddlewares(deps); len(mw) > 0 {
			gatewayGroup.Use(mw...)
		}
		gatewayHandler := handlers.NewGatewayHandler(deps.Services.Resolver, deps.Services.Auth)
		gatewayHandler.RegisterRoutes(gatewayGroup)

		adminGroup := api.Group("/admin")
		adminGroup.Use(authMiddleware, middleware.RequireRole("ADMIN"))
		adminHandler := handlers.NewAdminHandler(deps.Services.RateLimits, deps.Services.Blacklist, deps.Services.Resolver)
		adminHandler.RegisterRoutes(adminGroup)
	}

	return r
}

func loginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	return ipRateLimit(deps, "login_ip", deps.Config.RateLimit.LoginMaxAttempts)
}

func refreshMiddlewares(deps Dependencies) []gin.HandlerFunc {
	return ipRateLimit(deps, "refresh_ip", deps.Config.RateLimit.RefreshMaxAttempts)
}

func gatewayMiddlewares(deps Dependencies) []gin.HandlerFunc {
	return ipRateLimit(deps, "gateway_ip", deps.Config.RateLimit.GatewayMaxAttempts)
}

func ipRateLimit(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return nil
	}

	rule := middleware.RateLimitRule{
		Name:       name,
		Limit:      int64(limit),
		Window:     deps.Config.RateLimit.WindowDuration,
		Type:       domain.RateLimitTypeIP,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
