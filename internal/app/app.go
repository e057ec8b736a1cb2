// Package app wires configuration, storage, services and transports into a
// runnable HTTP service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"bookbff/internal/author"
	"bookbff/internal/book"
	"bookbff/internal/config"
	"bookbff/internal/httpx"
	"bookbff/internal/metrics"
	"bookbff/internal/platform/authorsvc"
	"bookbff/internal/platform/mqttbroker"
	"bookbff/internal/platform/notify"
	"bookbff/internal/server"
	"bookbff/internal/store"
	"bookbff/internal/telemetry"
)

type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	listener  net.Listener
	srv       *http.Server
	telemetry *telemetry.Provider
	broker    *mqttbroker.Broker
	mqtt      *notify.MQTTTransport
	limiter   *httpx.RateLimiter
}

// New builds the service and binds its listener. Nothing is served until Run.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Server.Addr, err)
	}
	a.listener = ln

	a.telemetry = telemetry.New(cfg.App.Name)
	recorder, err := metrics.NewRecorder(a.telemetry.Meter("bookbff"))
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("metrics: %w", err)
	}

	transport, err := a.openTransport(ctx)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	var groups []server.RouteRegistrar
	if cfg.HasDomain(config.DomainAuthors) {
		pub := notify.NewPublisher(config.DomainAuthors, transport, recorder,
			notify.WithTimeout(cfg.Broker.PublishTimeout), notify.WithLogger(logger))
		svc := author.NewService(store.NewMemory[author.Author](), pub, recorder,
			author.WithTopic(cfg.Broker.Topic), author.WithLogger(logger))
		groups = append(groups, author.NewHTTPHandler(svc))
	}
	if cfg.HasDomain(config.DomainBooks) {
		baseURL := cfg.Authors.BaseURL
		if baseURL == "" {
			baseURL = "http://" + ln.Addr().String()
		}
		resolver := authorsvc.NewClient(baseURL,
			authorsvc.WithTimeout(cfg.Authors.Timeout),
			authorsvc.WithRateLimit(cfg.Authors.RPS),
			authorsvc.WithLogger(logger))
		pub := notify.NewPublisher(config.DomainBooks, transport, recorder,
			notify.WithTimeout(cfg.Broker.PublishTimeout), notify.WithLogger(logger))
		svc := book.NewService(store.NewMemory[book.Book](), resolver, pub, recorder,
			book.WithTopic(cfg.Broker.Topic), book.WithLogger(logger))
		groups = append(groups, book.NewHTTPHandler(svc))
	}

	if cfg.RateLimit.Enabled {
		a.limiter = httpx.NewRateLimiter(float64(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	}

	rcfg := server.RouterConfig{
		Logger:         logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		RateLimiter:    a.limiter,
		Metrics:        a.telemetry.Handler(),
		Groups:         groups,
	}
	if a.mqtt != nil {
		rcfg.Ready = a.mqtt.Connected
	}

	a.srv = &http.Server{
		Handler:      server.NewRouter(rcfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return a, nil
}

func (a *App) openTransport(ctx context.Context) (notify.Transport, error) {
	if a.cfg.Broker.Embedded {
		b, err := mqttbroker.New(a.cfg.Broker.EmbeddedAddr, a.logger)
		if err != nil {
			return nil, fmt.Errorf("embedded broker: %w", err)
		}
		if err := b.Start(ctx); err != nil {
			return nil, fmt.Errorf("embedded broker: %w", err)
		}
		a.broker = b
	}

	url := a.cfg.BrokerURL()
	if url == "" {
		a.logger.Info("no broker configured, notifications go to the log")
		return notify.NewLogTransport(a.logger), nil
	}

	a.mqtt = notify.NewMQTTTransport(notify.MQTTConfig{
		BrokerURL:      url,
		ClientID:       a.cfg.Broker.ClientID,
		QoS:            byte(a.cfg.Broker.QoS),
		Retain:         a.cfg.Broker.Retain,
		ConnectTimeout: a.cfg.Broker.ConnectTimeout,
	}, a.logger)

	connectCtx, cancel := context.WithTimeout(ctx, a.cfg.Broker.ConnectTimeout)
	defer cancel()
	if err := a.mqtt.Connect(connectCtx); err != nil {
		// Notifications are best-effort; keep serving while the client retries.
		a.logger.Warn("mqtt broker unavailable", "broker", url, "error", err)
	}
	return a.mqtt, nil
}

// Addr is the address the HTTP listener is bound to.
func (a *App) Addr() string {
	return a.listener.Addr().String()
}

// Handler exposes the router.
func (a *App) Handler() http.Handler {
	return a.srv.Handler
}

// Run serves until ctx is cancelled and then releases every resource.
func (a *App) Run(ctx context.Context) error {
	done := make(chan struct{})
	if a.limiter != nil {
		go a.limiter.Sweep(done)
	}

	err := server.Run(ctx, a.srv, a.listener, a.cfg.Server.ShutdownTimeout, a.logger)
	close(done)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return errors.Join(err, a.close(shutdownCtx))
}

func (a *App) close(ctx context.Context) error {
	var errs []error
	if a.mqtt != nil {
		a.mqtt.Close()
	}
	if a.broker != nil {
		errs = append(errs, a.broker.Stop(ctx))
	}
	if a.telemetry != nil {
		errs = append(errs, a.telemetry.Shutdown(ctx))
	}
	if a.srv == nil && a.listener != nil {
		errs = append(errs, a.listener.Close())
	}
	return errors.Join(errs...)
}
