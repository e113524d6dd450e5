package handler

import (
	"installment-platform/internal/adapter/http/middleware"
	"installment-platform/internal/adapter/ws"
	"installment-platform/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	TxnSvc         ports.TransactionService
	QRSvc          ports.QRService
	TokenSvc       ports.TokenService
	UserRepo       ports.UserRepository
	OTPSvc         ports.OTPService
	RateLimitStore ports.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Hub            *ws.Hub // nil = live updates disabled
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
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

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- Transaction flows. Create variants authenticate inside the
	// orchestrator via signature digest, OTP, or the staged record; the
	// routes stay public like any payment callback endpoint. ---
	txnHandler := NewTransactionHandler(deps.TxnSvc)
	transactions := v1.Group("/transactions")
	{
		transactions.POST("", rl("transactions"), txnHandler.Create)
		transactions.POST("/callback/:gateway", rl("transactions"), txnHandler.WalletCallback)
		transactions.POST("/pre-approved", rl("transactions"), txnHandler.PreApproved)
		transactions.POST("/init", rl("transactions"), txnHandler.InitPending)
		transactions.GET("", rl("lookup"), txnHandler.List)
		transactions.GET("/:number", rl("lookup"), txnHandler.GetByNumber)
	}

	// --- Store QR generation ---
	qrHandler := NewQRHandler(deps.QRSvc)
	v1.POST("/stores/:store_id/qr", rl("qr"), qrHandler.Generate)

	// --- Live updates (websocket) ---
	if deps.Hub != nil {
		liveHandler := NewLiveHandler(deps.Hub, deps.UserRepo, deps.OTPSvc)
		r.GET("/ws/:channel", liveHandler.Stream)

		jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
		v1.GET("/users/me/otp", jwtAuth, liveHandler.OTPStream)
	}

	return r
}
