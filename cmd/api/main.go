package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/adspotmarket/adspot-backend/api/routes"
	"github.com/adspotmarket/adspot-backend/internal/assignments"
	"github.com/adspotmarket/adspot-backend/internal/auth"
	"github.com/adspotmarket/adspot-backend/internal/billboards"
	"github.com/adspotmarket/adspot-backend/internal/kyc"
	"github.com/adspotmarket/adspot-backend/internal/notifications"
	"github.com/adspotmarket/adspot-backend/internal/sitevisits"
	"github.com/adspotmarket/adspot-backend/internal/users"
	"github.com/adspotmarket/adspot-backend/pkg/auth/session"
	"github.com/adspotmarket/adspot-backend/pkg/config"
	"github.com/adspotmarket/adspot-backend/pkg/db"
	"github.com/adspotmarket/adspot-backend/pkg/logger"
	"github.com/adspotmarket/adspot-backend/pkg/migrate"
	"github.com/adspotmarket/adspot-backend/pkg/outbox"
	"github.com/adspotmarket/adspot-backend/pkg/outbox/idempotency"
	"github.com/adspotmarket/adspot-backend/pkg/pubsub"
	"github.com/adspotmarket/adspot-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	authRepo := auth.NewRepository(dbClient.DB())

	sessionSource, err := auth.NewSessionSource(authRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create session source", err)
		os.Exit(1)
	}
	sessionManager, err := session.NewManager(redisClient, sessionSource)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	limiter := auth.NewLoginLimiter(authRepo, cfg.AuthRateLimit, logg)

	authService, err := auth.NewService(authRepo, dbClient, outboxSvc, limiter, redisClient, cfg.JWT, cfg.Password, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	usersService, err := users.NewService(usersRepo, dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}
	deletionService, err := users.NewDeletionService(usersRepo, dbClient, outboxSvc, authService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create deletion service", err)
		os.Exit(1)
	}

	kycService, err := kyc.NewService(kyc.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create kyc service", err)
		os.Exit(1)
	}

	billboardService, err := billboards.NewService(billboards.NewRepository(dbClient.DB()), dbClient, outboxSvc, kycService)
	if err != nil {
		logg.Error(context.Background(), "failed to create billboards service", err)
		os.Exit(1)
	}

	assignmentService, err := assignments.NewService(assignments.NewRepository(dbClient.DB()), dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create assignments service", err)
		os.Exit(1)
	}

	siteVisitService, err := sitevisits.NewService(sitevisits.NewRepository(dbClient.DB()), dbClient, outboxSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create site visits service", err)
		os.Exit(1)
	}

	notificationsRepo := notifications.NewRepository(dbClient.DB())
	notificationService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	// The hub only reaches dashboards connected to this process, so the
	// admin-console consumer runs here. The domain-topic consumer stays in
	// the worker.
	hub := notifications.NewHub()
	idempotencyManager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}
	notificationConsumer, err := notifications.NewConsumer(
		notificationsRepo,
		pubsubClient.NotificationSubscription(),
		idempotencyManager,
		hub,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification consumer", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			sessionManager,
			authService,
			usersService,
			deletionService,
			kycService,
			billboardService,
			assignmentService,
			siteVisitService,
			notificationService,
			hub,
		),
	}

	consumerErr := make(chan error, 1)
	go func() {
		consumerErr <- notificationConsumer.Run(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case err := <-consumerErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "notification consumer stopped unexpectedly", err)
			os.Exit(1)
		}
	}

	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "graceful shutdown failed", err)
	}
	logg.Info(ctx, "api server shutting down gracefully")
}
