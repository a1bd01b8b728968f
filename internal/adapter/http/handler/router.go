package handler

import (
	"finance-ledger/internal/adapter/http/middleware"
	redisStore "finance-ledger/internal/adapter/storage/redis"
	"finance-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	WalletSvc      ports.WalletService
	EntrySvc       ports.EntryService
	DebtSvc        ports.DebtService
	TokenSvc       ports.TokenService
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

	// API v1 routes. Every route resolves the acting user from the
	// bearer token.
	auth := middleware.BearerAuth(deps.TokenSvc, deps.Logger)
	v1 := r.Group("/api/v1", auth)

	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallets := v1.Group("/wallets")
	{
		wallets.POST("", rl("wallets"), walletHandler.Create)
		wallets.GET("/:id", rl("wallets"), walletHandler.Get)
		wallets.GET("/:id/mutations", rl("wallets"), walletHandler.ListMutations)
	}
	v1.POST("/transfers", rl("transfers"), walletHandler.Transfer)

	entryHandler := NewEntryHandler(deps.EntrySvc)
	transactions := v1.Group("/transactions")
	{
		transactions.POST("", rl("entries"), entryHandler.CreateTransaction)
		transactions.DELETE("/:id", rl("entries"), entryHandler.DeleteTransaction)
	}
	incomes := v1.Group("/incomes")
	{
		incomes.POST("", rl("entries"), entryHandler.CreateIncome)
		incomes.DELETE("/:id", rl("entries"), entryHandler.DeleteIncome)
	}

	debtHandler := NewDebtHandler(deps.DebtSvc)
	debts := v1.Group("/debts")
	{
		debts.POST("", rl("debts"), debtHandler.Create)
		debts.GET("/:id", rl("debts"), debtHandler.Get)
		debts.POST("/:id/payments", rl("debts"), debtHandler.Pay)
		debts.DELETE("/:id", rl("debts"), debtHandler.Delete)
	}

	return r
}
