// Command accountd serves account registration, confirmation, password
// reset and email change over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/accountkit/internal/api"
	"github.com/dmitrymomot/accountkit/internal/mailer"
	"github.com/dmitrymomot/accountkit/pkg/auth"
	"github.com/dmitrymomot/accountkit/pkg/config"
	"github.com/dmitrymomot/accountkit/pkg/email"
	"github.com/dmitrymomot/accountkit/pkg/httpserver"
	"github.com/dmitrymomot/accountkit/pkg/logger"
	"github.com/dmitrymomot/accountkit/pkg/token"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "accountd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := newLogger(cfg)
	logger.SetAsDefault(log)

	tokens, err := token.New([]byte(cfg.TokenSecret),
		token.WithDefaultTTL(cfg.TokenDefaultTTL),
		token.WithIssuer(cfg.TokenIssuer),
		token.WithLogger(log),
	)
	if err != nil {
		return fmt.Errorf("failed to create token service: %w", err)
	}

	store, err := openStore(ctx, cfg.StoreBackend, log)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
	}
	rdb, err := openRedis(ctx, cfg.needsRedis())
	if err != nil {
		closeAll(context.Background(), log, store.close)
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	limiter, err := openRateLimiter(cfg.RateLimitBackend, cfg.RateLimit, rdb.value)
	if err != nil {
		closeAll(context.Background(), log, rdb.close, store.close)
		return fmt.Errorf("failed to create %s rate limiter: %w", cfg.RateLimitBackend, err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		closeAll(ctx, log, limiter.close, rdb.close, store.close)
	}()

	throttle, err := openThrottle(cfg.ThrottleBackend, rdb.value)
	if err != nil {
		return fmt.Errorf("failed to open %s throttle: %w", cfg.ThrottleBackend, err)
	}

	sender, err := email.New(cfg.Email)
	if err != nil {
		return err
	}
	notifier, err := mailer.New(sender, cfg.BaseURL, cfg.Name, log)
	if err != nil {
		return err
	}

	authOpts := []auth.Option{
		auth.WithLogger(log),
		auth.WithBcryptCost(cfg.BcryptCost),
		auth.WithPasswordPolicy(cfg.MinPasswordLength),
		auth.WithConfirmTTL(cfg.ConfirmTokenTTL),
		auth.WithResetTTL(cfg.ResetTokenTTL),
		auth.WithEmailChangeTTL(cfg.EmailChangeTokenTTL),
	}
	if throttle != nil {
		authOpts = append(authOpts, auth.WithThrottle(throttle, cfg.ThrottleWindow))
	}
	accounts := auth.NewService(store.value, tokens, authOpts...)

	var checks []httpserver.Check
	for _, c := range []*httpserver.Check{store.check, rdb.check} {
		if c != nil {
			checks = append(checks, *c)
		}
	}

	routerOpts := []api.Option{
		api.WithLogger(log),
		api.WithRequestTimeout(cfg.HTTP.RequestTimeout),
		api.WithHealthChecks(
			httpserver.LivenessHandler(),
			httpserver.ReadinessHandler(log, 2*time.Second, checks...),
		),
	}
	if limiter.value != nil {
		routerOpts = append(routerOpts, api.WithRateLimit(limiter.value))
	}
	router := api.NewRouter(accounts, notifier, routerOpts...)

	log.InfoContext(ctx, "starting accountd",
		slog.String("store", cfg.StoreBackend),
		slog.String("throttle", cfg.ThrottleBackend),
		slog.String("rate_limit", cfg.RateLimitBackend),
		slog.String("email", cfg.Email.Backend),
	)
	return httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, router)
}

func newLogger(cfg appConfig) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithContextExtractors(requestIDFromContext),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevelName(cfg.LogLevel))
	}
	return logger.New(opts...)
}

func requestIDFromContext(ctx context.Context) (slog.Attr, bool) {
	id := middleware.GetReqID(ctx)
	return logger.RequestID(id), id != ""
}
