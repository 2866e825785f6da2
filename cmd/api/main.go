package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GiantDole/okayokayokay/config"
	httpHandler "github.com/GiantDole/okayokayokay/internal/adapter/http/handler"
	pgStorage "github.com/GiantDole/okayokayokay/internal/adapter/storage/postgres"
	redisStorage "github.com/GiantDole/okayokayokay/internal/adapter/storage/redis"
	"github.com/GiantDole/okayokayokay/internal/core/ports"
	"github.com/GiantDole/okayokayokay/internal/service"
	"github.com/GiantDole/okayokayokay/pkg/logger"

	"github.com/ethereum/go-ethereum/ethclient"
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
		Str("network", cfg.X402.Network).
		Msg("Starting x402 resource proxy")

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

	// Chain RPC client for balance reads
	chainClient, err := ethclient.DialContext(ctx, cfg.Chain.RPCURL)
	if err != nil {
		log.Fatal().Err(err).Str("rpc_url", cfg.Chain.RPCURL).Msg("Failed to connect to chain RPC")
	}
	defer chainClient.Close()
	log.Info().Str("rpc_url", cfg.Chain.RPCURL).Msg("Chain RPC connected")

	// Initialize repositories
	walletRepo := pgStorage.NewWalletRepo(pool)
	resourceRepo := pgStorage.NewResourceRepo(pool)
	requestRepo := pgStorage.NewRequestRepo(pool)

	// Initialize Redis stores
	nonceStore := redisStorage.NewNonceStore(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	// Initialize core services
	keyCipher := service.NewPassphraseKeyCipher(cfg.Wallet.Passphrase)
	walletSvc := service.NewWalletService(walletRepo, keyCipher, log)
	paymentClient := service.NewX402PaymentClient(
		&http.Client{Timeout: cfg.X402.RequestTimeout},
		nonceStore,
		cfg.X402.Network,
		cfg.X402.NonceTTL,
		log,
	)
	proxySvc := service.NewProxyService(resourceRepo, requestRepo, walletSvc, paymentClient, cfg.X402.RequestTimeout, log)
	balanceSvc := service.NewBalanceService(walletSvc, chainClient, cfg.Chain.USDCContract, cfg.Chain.TokenDecimals, log)

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		ProxySvc:       proxySvc,
		BalanceSvc:     balanceSvc,
		ResourceRepo:   resourceRepo,
		RequestRepo:    requestRepo,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
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
