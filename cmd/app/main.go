package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whitelist-vpn-miniapp/internal/application"
	"whitelist-vpn-miniapp/internal/config"
	"whitelist-vpn-miniapp/internal/domain/model"
	"whitelist-vpn-miniapp/internal/domain/ports/adapter"
	"whitelist-vpn-miniapp/internal/domain/ports/repository"
	"whitelist-vpn-miniapp/internal/infra/backend"
	"whitelist-vpn-miniapp/internal/infra/bridge"
	"whitelist-vpn-miniapp/internal/infra/clock"
	"whitelist-vpn-miniapp/internal/infra/i18n"
	"whitelist-vpn-miniapp/internal/infra/logging"
	"whitelist-vpn-miniapp/internal/infra/metrics"
	red "whitelist-vpn-miniapp/internal/infra/redis"
	"whitelist-vpn-miniapp/internal/infra/store"
	"whitelist-vpn-miniapp/internal/infra/web"
	"whitelist-vpn-miniapp/internal/usecase"
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
	devMode := flag.Bool("dev", false, "enable developer mode (offline backend, simulated invoices)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.ValidateApp(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	clk := clock.System{}
	tr := i18n.MustDefault()

	// ---- Subscription store ----
	var subs repository.SubscriptionStore
	switch cfg.Store.Driver {
	case "redis":
		client, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer client.Close()
		subs = red.NewSubscriptionStore(client, cfg.Store.KeyPrefix, logger)
	default:
		fs, err := store.NewFileStore(cfg.Store.Path, logger)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("file store")
		}
		subs = fs
	}

	// ---- Invoice backend ----
	var (
		invoices adapter.InvoiceClient
		stats    adapter.StatsClient
	)
	if cfg.Backend.BaseURL == "" {
		logger.Warn().Msg("backend.base_url not set; invoices and counters are offline")
		invoices, stats = backend.Offline{}, backend.Offline{}
	} else {
		c := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)
		invoices, stats = c, c
	}

	// ---- Host bridge ----
	relay := bridge.NewRelay(bridge.RelayConfig{
		BotToken:         cfg.Bot.Token,
		InitDataMaxAge:   cfg.API.InitDataMaxAge,
		AllowedOrigins:   cfg.Bridge.AllowedOrigins,
		HandshakeTimeout: cfg.Bridge.HandshakeTimeout,
		Dev:              cfg.Runtime.Dev,
	}, logger)
	var host adapter.HostBridge = relay
	if cfg.Runtime.Dev {
		host = &bridge.Switch{Primary: relay, Fallback: bridge.NewNoop(cfg.Bridge.SimulatedStatus)}
	}

	// ---- Use cases ----
	state := application.NewStateContainer(model.InitialAppState())
	purchaseUC := usecase.NewPurchaseUseCase(subs, invoices, host, state, tr, clk, cfg.Payment.ConfirmTimeout, logger)
	sessionUC := usecase.NewSessionUseCase(host, subs, invoices, stats, state, cfg.Runtime.Dev, logger)
	profileUC := usecase.NewProfileUseCase(state, host, tr, clk, cfg.App.ReferralLinkTemplate, cfg.App.SetupURL, logger)
	planUC := usecase.NewPlanUseCase(model.DefaultCatalog())

	// ---- Facade ----
	app := application.NewMiniApp(purchaseUC, sessionUC, profileUC, planUC, state, tr)
	state.Subscribe(relay.PushState)
	relay.OnHello(func(ctx context.Context) {
		if _, err := app.Bootstrap(ctx); err != nil {
			logger.Error().Err(err).Msg("bootstrap after hello")
		}
	})
	if _, err := app.Bootstrap(ctx); err != nil {
		logger.Error().Err(err).Msg("initial bootstrap")
	}

	// ---- HTTP server ----
	srv := web.NewServer(app, relay, clk, cfg.App.RequestTimeout, logger)
	server := &http.Server{
		Addr:              cfg.App.Listen,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("version", version).Msg("mini-app listening")
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
