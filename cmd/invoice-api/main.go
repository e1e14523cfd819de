package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whitelist-vpn-miniapp/internal/config"
	"whitelist-vpn-miniapp/internal/infra/clock"
	"whitelist-vpn-miniapp/internal/infra/i18n"
	"whitelist-vpn-miniapp/internal/infra/invoiceapi"
	"whitelist-vpn-miniapp/internal/infra/logging"
	"whitelist-vpn-miniapp/internal/infra/metrics"
	red "whitelist-vpn-miniapp/internal/infra/redis"
	"whitelist-vpn-miniapp/internal/infra/telegram"
	"whitelist-vpn-miniapp/internal/infra/worker"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer logging")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ValidateInvoiceAPI(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	clk := clock.System{}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	issued := red.NewInvoiceRepo(redisClient, cfg.Redis.TTL)
	audience := red.NewAudience(redisClient)
	limiter := red.NewRateLimiter(redisClient)

	// ---- Telegram ----
	bot, err := telegram.NewBotAPI(&cfg.Bot)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram")
	}
	logger.Info().Str("bot", bot.Self.UserName).Msg("telegram bot authorized")
	if cfg.Bot.Username != "" && cfg.Bot.Username != bot.Self.UserName {
		logger.Warn().Str("configured", cfg.Bot.Username).Str("actual", bot.Self.UserName).Msg("bot.username does not match the token")
	}
	linker := telegram.NewInvoiceLinker(bot, issued, clk, logger)

	pool := worker.NewPool(cfg.Bot.Workers, logger)
	pool.Start(ctx)
	defer pool.Stop()
	poller := telegram.NewPoller(bot, issued, audience, pool, i18n.MustDefault(), logger)
	poller.Dev = cfg.Runtime.Dev
	go func() {
		if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Sessions ----
	secret := cfg.API.JWTSecret
	if secret == "" {
		secret = randomSecret()
		logger.Warn().Msg("api.jwt_secret not set; sessions are signed with a per-process key")
	}
	auth := invoiceapi.NewAuthManager(secret, cfg.API.SessionTTL, clk)

	// ---- HTTP server ----
	srv := invoiceapi.NewServer(invoiceapi.Config{
		BotToken:       cfg.Bot.Token,
		InitDataMaxAge: cfg.API.InitDataMaxAge,
		RateLimit:      cfg.API.RateLimit,
		RateWindow:     cfg.API.RateWindow,
		AllowAnonymous: cfg.API.AllowAnonymous,
		RequestTimeout: cfg.App.RequestTimeout,
	}, auth, linker, limiter, audience, clk, logger)
	server := &http.Server{
		Addr:              cfg.API.Listen,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("version", version).Msg("invoice api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("jwt secret: %v", err)
	}
	return hex.EncodeToString(b)
}
