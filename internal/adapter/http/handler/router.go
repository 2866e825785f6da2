package handler

import (
	"github.com/GiantDole/okayokayokay/internal/adapter/http/middleware"
	redisStore "github.com/GiantDole/okayokayokay/internal/adapter/storage/redis"
	"github.com/GiantDole/okayokayokay/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	ProxySvc       ports.ProxyService
	BalanceSvc     ports.BalanceService
	ResourceRepo   ports.ResourceRepository
	RequestRepo    ports.RequestRepository
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes. Sessions are self-issued bearer identifiers; there is no
	// authentication layer, a session's wallet is reachable only by callers
	// who know the session id.
	v1 := r.Group("/api/v1")

	proxyHandler := NewProxyHandler(deps.ProxySvc)
	walletHandler := NewWalletHandler(deps.BalanceSvc)
	resourceHandler := NewResourceHandler(deps.ResourceRepo)
	requestHandler := NewRequestHandler(deps.RequestRepo)

	v1.POST("/proxy", rl("proxy"), proxyHandler.Proxy)
	v1.GET("/server-wallet", rl("wallet"), walletHandler.GetServerWallet)
	v1.GET("/resources", rl("resources"), resourceHandler.ListResources)
	v1.GET("/requests", rl("requests"), requestHandler.ListRequests)

	return r
}
