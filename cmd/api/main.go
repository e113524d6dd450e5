package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"installment-platform/config"
	"installment-platform/internal/adapter/gateway"
	httpHandler "installment-platform/internal/adapter/http/handler"
	"installment-platform/internal/adapter/notify"
	pgStorage "installment-platform/internal/adapter/storage/postgres"
	redisStorage "installment-platform/internal/adapter/storage/redis"
	"installment-platform/internal/adapter/ws"
	"installment-platform/internal/core/ports"
	"installment-platform/internal/scheduler"
	"installment-platform/internal/service"
	"installment-platform/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Installment Platform")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	userRepo := pgStorage.NewUserRepo(pool)
	storeRepo := pgStorage.NewStoreRepo(pool)
	merchantRepo := pgStorage.NewMerchantRepo(pool)
	pendingRepo := pgStorage.NewPendingRepo(pool)
	txnRepo := pgStorage.NewTransactionRepo(pool)
	logRepo := pgStorage.NewPaymentLogRepo(pool)
	notifRepo := pgStorage.NewNotificationRepo(pool)
	voucherRepo := pgStorage.NewVoucherRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize Redis stores
	chargeGuard := redisStorage.NewChargeGuard(rdb)
	replayCache := redisStorage.NewReplayCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	encSvc, err := service.NewAESEncryptionService(cfg.AES.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	sigSvc := service.NewMD5SignatureService()
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	otpSvc := service.NewTOTPService(cfg.OTP.Digits, cfg.OTP.Step, log)

	// Initialize payment gateways (all charge calls behind a circuit breaker)
	midtrans := gateway.WithBreaker(gateway.NewMidtransGateway(cfg.Midtrans, log), log)
	xendit := gateway.WithBreaker(gateway.NewXenditGateway(cfg.Xendit, log), log)
	resolver := gateway.NewResolver(midtrans, xendit)
	vaClient := gateway.NewVAClient(cfg.VA, log)

	// Initialize notification adapters
	webhookSender := notify.NewWebhookSender(log)
	var mailer ports.Mailer = notify.NopMailer{}
	if cfg.SMTP.Host != "" {
		smtpMailer, err := notify.NewSMTPMailer(cfg.SMTP, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize SMTP mailer")
		}
		mailer = smtpMailer
	} else {
		log.Warn().Msg("SMTP not configured, emails disabled")
	}
	var pusher ports.Pusher = notify.NopPusher{}
	if cfg.FCM.CredentialsFile != "" {
		fcmPusher, err := notify.NewFCMPusher(ctx, cfg.FCM, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize FCM pusher")
		}
		pusher = fcmPusher
	} else {
		log.Warn().Msg("FCM not configured, push notifications disabled")
	}

	// Live connection registry
	hub := ws.NewHub(log)

	// Initialize business services
	authSvc := service.NewAuthService(userRepo, hashSvc, tokenSvc, log)
	scheduleSvc := service.NewScheduleService(vaClient, log)
	fanoutSvc := service.NewFanoutService(notifRepo, webhookSender, mailer, pusher, hub, log)
	qrSvc := service.NewQRGenService(storeRepo, merchantRepo, notifRepo, sigSvc, log)
	txnSvc := service.NewTransactionOrchestrator(service.OrchestratorDeps{
		UserRepo:     userRepo,
		StoreRepo:    storeRepo,
		MerchantRepo: merchantRepo,
		PendingRepo:  pendingRepo,
		TxnRepo:      txnRepo,
		LogRepo:      logRepo,
		VoucherRepo:  voucherRepo,
		Guard:        chargeGuard,
		Replay:       replayCache,
		Transactor:   transactor,
		Schedule:     scheduleSvc,
		SigSvc:       sigSvc,
		OTPSvc:       otpSvc,
		TokenSvc:     tokenSvc,
		EncSvc:       encSvc,
		Resolver:     resolver,
		Notifier:     fanoutSvc,
		Logger:       log,
	})

	// Pending-transaction expiry sweeper
	sweeper, err := scheduler.NewExpirySweeper(pendingRepo, cfg.Scheduler, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize expiry sweeper")
	}
	if err := sweeper.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start expiry sweeper")
	}
	defer func() {
		if err := sweeper.Stop(); err != nil {
			log.Warn().Err(err).Msg("expiry sweeper shutdown")
		}
	}()

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		TxnSvc:         txnSvc,
		QRSvc:          qrSvc,
		TokenSvc:       tokenSvc,
		UserRepo:       userRepo,
		OTPSvc:         otpSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Hub:            hub,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
