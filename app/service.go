// Package app wires the engine to its collaborators from configuration.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apidispatch "github.com/tambula/dispatch/api/dispatch"
	"github.com/tambula/dispatch/config"
	"github.com/tambula/dispatch/core/dispatch"
	coremetrics "github.com/tambula/dispatch/core/metrics"
	"github.com/tambula/dispatch/infra/logger"
	"github.com/tambula/dispatch/infra/metrics"
	"github.com/tambula/dispatch/infra/mqtt"
	"github.com/tambula/dispatch/infra/postgres"
	"github.com/tambula/dispatch/infra/redisfeed"
	"github.com/tambula/dispatch/internal/eventbus"
)

// Service owns the engine and its infrastructure.
type Service struct {
	Engine *dispatch.Engine

	cfg       *config.Config
	bus       *eventbus.Bus
	feed      *redisfeed.Feed
	counter   *redisfeed.Counter
	stores    *postgres.Stores
	transport *mqtt.PahoTransport
	log       logger.Logger
}

// New creates a Service from the configuration. Postgres is optional: with
// an empty DSN the engine runs on fare/stat defaults and skips booking
// persistence.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	log := logger.New("service")

	transport, err := mqtt.NewPahoTransport(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt transport: %w", err)
	}
	feed := redisfeed.New(cfg.Redis)
	counter := redisfeed.NewCounter(cfg.Redis)

	col := dispatch.Collaborators{
		Feed:      feed,
		Counter:   counter,
		Transport: transport,
	}
	var stores *postgres.Stores
	if cfg.Postgres.DSN != "" {
		stores, err = postgres.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		col.Profiles = stores
		col.Stats = stores
		col.Rules = stores
		col.Booking = stores
	} else {
		log.Warnf("postgres disabled, running on fare and stats defaults")
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.MetricsSink
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	bus := eventbus.New()
	engine, err := dispatch.NewEngine(col, cfg.Dispatch, cfg.Pricing, cfg.Zones, log, sink, bus)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	return &Service{
		Engine:    engine,
		cfg:       cfg,
		bus:       bus,
		feed:      feed,
		counter:   counter,
		stores:    stores,
		transport: transport,
		log:       log,
	}, nil
}

// Run starts the HTTP servers and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	apidispatch.NewHandler(s.Engine, s.feed, s.counter).RegisterRoutes(router)

	srv := &http.Server{Addr: s.cfg.HTTP.Addr, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Infof("dispatch API listening on %s", s.cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.transport.Disconnect()
	s.bus.Close()
	if s.stores != nil {
		s.stores.Close()
	}
	if err := s.feed.Close(); err != nil {
		return err
	}
	return s.counter.Close()
}
