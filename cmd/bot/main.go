package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/yupvendas/storebot/api/routes"
	"github.com/yupvendas/storebot/internal/campaign"
	"github.com/yupvendas/storebot/internal/cart"
	"github.com/yupvendas/storebot/internal/catalog"
	"github.com/yupvendas/storebot/internal/chat"
	"github.com/yupvendas/storebot/internal/customers"
	"github.com/yupvendas/storebot/internal/dialog"
	"github.com/yupvendas/storebot/internal/live"
	"github.com/yupvendas/storebot/internal/lookup"
	"github.com/yupvendas/storebot/internal/orders"
	"github.com/yupvendas/storebot/internal/payment"
	"github.com/yupvendas/storebot/internal/session"
	"github.com/yupvendas/storebot/internal/settings"
	"github.com/yupvendas/storebot/internal/users"
	"github.com/yupvendas/storebot/internal/waitlist"
	"github.com/yupvendas/storebot/internal/whatsapp"
	"github.com/yupvendas/storebot/pkg/config"
	"github.com/yupvendas/storebot/pkg/db"
	"github.com/yupvendas/storebot/pkg/logger"
	"github.com/yupvendas/storebot/pkg/metrics"
	"github.com/yupvendas/storebot/pkg/migrate"
	"github.com/yupvendas/storebot/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "bot"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "bot",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(cfg.DB)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRun(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gdb := dbClient.DB()

	emitter, err := live.NewEmitter(redisClient)
	if err != nil {
		logg.Error(ctx, "failed to create live emitter", err)
		os.Exit(1)
	}

	messenger, err := whatsapp.NewClient(cfg.WhatsApp)
	if err != nil {
		logg.Error(ctx, "failed to create whatsapp client", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(gdb)
	catalogSvc, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	cartStore := cart.NewStore()
	cartSvc, err := cart.NewService(cartStore, cart.NewRepository(gdb), catalogRepo)
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}

	customersSvc, err := customers.NewService(customers.NewRepository(gdb))
	if err != nil {
		logg.Error(ctx, "failed to create customers service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(orders.NewRepository(gdb), catalogRepo, dbClient)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	waitlistSvc, err := waitlist.NewService(waitlist.NewRepository(gdb), messenger, logg)
	if err != nil {
		logg.Error(ctx, "failed to create waitlist service", err)
		os.Exit(1)
	}

	chatSvc, err := chat.NewService(chat.NewRepository(gdb), emitter, logg)
	if err != nil {
		logg.Error(ctx, "failed to create chat service", err)
		os.Exit(1)
	}

	settingsSvc, err := settings.NewService(settings.NewRepository(gdb))
	if err != nil {
		logg.Error(ctx, "failed to create settings service", err)
		os.Exit(1)
	}

	usersSvc, err := users.NewService(users.NewRepository(gdb), logg)
	if err != nil {
		logg.Error(ctx, "failed to create users service", err)
		os.Exit(1)
	}
	if err := usersSvc.EnsureDefaultAdmin(ctx); err != nil {
		logg.Error(ctx, "failed to seed default admin", err)
		os.Exit(1)
	}

	campaignSvc, err := campaign.NewService(customersSvc, messenger, settingsSvc, cfg.Campaign.SendDelay, logg)
	if err != nil {
		logg.Error(ctx, "failed to create campaign service", err)
		os.Exit(1)
	}

	lookupClient, err := lookup.NewClient(cfg.Lookup)
	if err != nil {
		logg.Error(ctx, "failed to create lookup client", err)
		os.Exit(1)
	}

	var paymentClient *payment.Client
	if cfg.Payment.AccessToken != "" {
		paymentClient, err = payment.NewClient(cfg.Payment)
		if err != nil {
			logg.Error(ctx, "failed to create payment client", err)
			os.Exit(1)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	botMetrics := metrics.NewBotMetrics(registry)

	copyRepo := dialog.NewCopyRepository(gdb)

	engineDeps := dialog.Deps{
		Sessions:    session.NewStore(),
		Carts:       cartSvc,
		Catalog:     catalogSvc,
		Orders:      ordersSvc,
		Saved:       orders.NewSavedRepository(gdb),
		Waitlist:    waitlistSvc,
		Customers:   customersSvc,
		Chat:        chatSvc,
		Settings:    settingsSvc,
		Messenger:   messenger,
		Copy:        dialog.NewCopyStore(copyRepo),
		Logger:      logg,
		Lookup:      lookupClient,
		Campaigns:   campaignSvc,
		Metrics:     botMetrics,
		CompanyName: cfg.Company.Name,
	}
	if paymentClient != nil {
		engineDeps.Payments = paymentClient
	}
	engine, err := dialog.NewEngine(engineDeps)
	if err != nil {
		logg.Error(ctx, "failed to create dialogue engine", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Cfg:       cfg,
		Logg:      logg,
		DB:        dbClient,
		Redis:     redisClient,
		Users:     usersSvc,
		Catalog:   catalogSvc,
		Customers: customersSvc,
		Orders:    ordersSvc,
		Chat:      chatSvc,
		Settings:  settingsSvc,
		Campaigns: campaignSvc,
		CopyRepo:  copyRepo,
		Messenger: messenger,
		Engine:    engine,
		Payments:  paymentClient,
		Registry:  registry,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting bot server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(startCtx, "bot server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(startCtx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(startCtx, "graceful shutdown failed", err)
		}
	}
}
