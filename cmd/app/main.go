package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-purchase-platform/internal/config"
	"course-purchase-platform/internal/domain/ports/adapter"
	pg "course-purchase-platform/internal/infra/db/postgres"
	"course-purchase-platform/internal/infra/logging"
	"course-purchase-platform/internal/infra/metrics"
	"course-purchase-platform/internal/infra/payment"
	red "course-purchase-platform/internal/infra/redis"
	"course-purchase-platform/internal/infra/signature"
	"course-purchase-platform/internal/infra/web"
	"course-purchase-platform/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (mock payment verification, fake gateway)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled; mock payment credentials will be accepted")
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)

	// ---- Metrics ----
	metrics.MustRegister()

	// ---- Repositories ----
	purchaseRepo := pg.NewPurchaseRepo(pool)
	itemRepo := pg.NewItemRepo(pool)
	txManager := pg.NewTxManager(pool)

	// ---- Payment gateway and signature verifier ----
	var gateway adapter.OrderGateway
	var verifier adapter.SignatureVerifier
	if cfg.Runtime.Dev {
		gateway = payment.NewNoopGateway()
		// Without a secret in dev, the mock prefixes are the only way through.
		var next adapter.SignatureVerifier
		if hmacVerifier, err := signature.NewHMACVerifier(cfg.Gateway.Secret, logger); err == nil {
			next = hmacVerifier
		}
		verifier = signature.NewMockVerifier(next, logger)
	} else {
		gateway, err = payment.NewRazorpayGateway(cfg.Gateway.KeyID, cfg.Gateway.Secret, cfg.Gateway.BaseURL, cfg.Gateway.Timeout, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("payment gateway")
		}
		verifier, err = signature.NewHMACVerifier(cfg.Gateway.Secret, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("signature verifier")
		}
	}
	logger.Info().Str("gateway", gateway.Name()).Str("verifier", verifier.Name()).Msg("payment stack ready")

	// ---- Use cases ----
	purchaseUC := usecase.NewPurchaseUseCase(
		purchaseRepo, itemRepo, gateway, verifier,
		txManager, locker, cfg.Redis.LockTTL, *logger,
	)
	accessUC := usecase.NewAccessUseCase(purchaseRepo, itemRepo, *logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.Server.AuthSecret, cfg.Server.SessionTTL)
	srv := web.NewServer(purchaseUC, accessUC, auth, logger)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
