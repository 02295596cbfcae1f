package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"orderflow/internal/auth"
	"orderflow/internal/breaker"
	"orderflow/internal/cart"
	"orderflow/internal/config"
	"orderflow/internal/infrastructure/logger"
	"orderflow/internal/infrastructure/mysql"
	"orderflow/internal/infrastructure/redis"
	"orderflow/internal/order"
	"orderflow/internal/remote"
	"orderflow/internal/server"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file; environment variables take precedence")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mysql.EnsureSchema(schemaCtx, db); err != nil {
		cancelSchema()
		zapLogger.Fatal("applying schema", zap.Error(err))
	}
	cancelSchema()

	rdb, err := redis.NewConnection(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("connecting to redis", zap.Error(err))
	}
	if rdb != nil {
		defer rdb.Close()
		zapLogger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	breakers := breaker.NewRegistry(breaker.Settings{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Cooldown:         cfg.Breaker.Cooldown,
	}, zapLogger)

	carts := cart.NewClient(remote.NewClient(cfg.Cart.Timeout, zapLogger), breakers, cfg.Cart.ServiceURL, zapLogger)

	var validator auth.Validator
	switch cfg.Auth.Mode {
	case config.AuthModeLocal:
		validator = auth.NewLocalValidator(cfg.Auth.JWTSecret)
	default:
		var cache *auth.VerdictCache
		if rdb != nil {
			cache = auth.NewVerdictCache(rdb, zapLogger)
		}
		validator = auth.NewRemoteValidator(
			remote.NewClient(cfg.Auth.Timeout, zapLogger),
			breakers,
			cfg.Auth.ServiceURL,
			cache,
			cfg.Auth.CacheTTL,
			zapLogger,
		)
	}
	zapLogger.Info("token validation configured", zap.String("mode", cfg.Auth.Mode))

	ordersCtrl := order.NewModule(db, cfg, carts, zapLogger)
	authFilter := auth.NewFilter(validator, cfg.Auth.Mode, zapLogger)

	router := server.NewRouter(ordersCtrl, authFilter.Middleware, breakers, zapLogger)

	srv := server.New(cfg.Server.Port, router, cfg.Order.RequestTimeout+5*time.Second, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
