package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adspotmarket/adspot-backend/internal/notifications"
	"github.com/adspotmarket/adspot-backend/pkg/config"
	"github.com/adspotmarket/adspot-backend/pkg/db"
	"github.com/adspotmarket/adspot-backend/pkg/logger"
	"github.com/adspotmarket/adspot-backend/pkg/pubsub"
	"github.com/adspotmarket/adspot-backend/pkg/redis"
)

const metricsShutdownGrace = 5 * time.Second

type ServiceParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             *db.Client
	Redis          *redis.Client
	PubSub         *pubsub.Client
	DomainConsumer *notifications.Consumer
	Registry       *prometheus.Registry
	MetricsAddr    string
}

// Service runs the domain-event consumer and serves prometheus metrics. The
// admin-console consumer lives in the API process next to the live hub; this
// process handles everything that only needs durable persistence.
type Service struct {
	cfg            *config.Config
	logg           *logger.Logger
	db             *db.Client
	redis          *redis.Client
	pubsub         *pubsub.Client
	domainConsumer *notifications.Consumer
	registry       *prometheus.Registry
	metricsAddr    string
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.DomainConsumer == nil {
		return nil, errors.New("domain consumer is required")
	}
	if params.Registry == nil {
		return nil, errors.New("metrics registry is required")
	}
	if params.MetricsAddr == "" {
		return nil, errors.New("metrics address is required")
	}

	return &Service{
		cfg:            params.Config,
		logg:           params.Logger,
		db:             params.DB,
		redis:          params.Redis,
		pubsub:         params.PubSub,
		domainConsumer: params.DomainConsumer,
		registry:       params.Registry,
		metricsAddr:    params.MetricsAddr,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping); err != nil {
		return err
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) metricsServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &http.Server{Addr: s.metricsAddr, Handler: mux}
}

// Run blocks until the context is canceled or a component fails.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	server := s.metricsServer()
	errCh := make(chan error, 2)
	go func() {
		errCh <- s.domainConsumer.Run(ctx)
	}()
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.logg.Info(ctx, "worker context canceled")
		runErr = ctx.Err()
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(ctx, "worker component stopped unexpectedly", err)
		}
		runErr = err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownGrace)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logg.Error(ctx, "metrics server shutdown failed", err)
	}
	return runErr
}
