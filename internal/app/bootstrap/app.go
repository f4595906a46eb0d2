package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/no2forms/intake-assistant/internal/api/router"
	"github.com/no2forms/intake-assistant/internal/booking"
	appconfig "github.com/no2forms/intake-assistant/internal/config"
	"github.com/no2forms/intake-assistant/internal/dialogue"
	"github.com/no2forms/intake-assistant/internal/http/handlers"
	httpmiddleware "github.com/no2forms/intake-assistant/internal/http/middleware"
	"github.com/no2forms/intake-assistant/internal/observability/metrics"
	"github.com/no2forms/intake-assistant/internal/poll"
	"github.com/no2forms/intake-assistant/internal/webchat"
	"github.com/no2forms/intake-assistant/pkg/logging"
)

// App is the fully wired service.
type App struct {
	Handler     http.Handler
	Coordinator *booking.Coordinator
	Machine     *dialogue.Machine
	RateLimiter *httpmiddleware.RateLimiter

	closers []func()
}

// Close releases every backend connection opened by Build.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Options tune Build for different entry points.
type Options struct {
	// Registerer receives the metrics collectors; defaults to a fresh registry.
	Registerer prometheus.Registerer
	// Gatherer serves /metrics; defaults to the registry above.
	Gatherer prometheus.Gatherer
	// LoadAWS is called lazily when a backend needs AWS.
	LoadAWS AWSConfigLoader
}

// Build wires config into a ready-to-serve App.
func Build(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Registerer == nil {
		reg := prometheus.NewRegistry()
		opts.Registerer, opts.Gatherer = reg, reg
	}
	loadAWS := onceAWS(opts.LoadAWS)
	app := &App{}

	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
	}

	store, closeStore, err := BuildLedgerStore(ctx, cfg, redisClient, loadAWS, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, closeStore)

	notifier, closeNotifier, err := BuildNotifier(ctx, cfg, loadAWS, logger)
	app.closers = append(app.closers, closeNotifier)
	if err != nil {
		app.Close()
		return nil, err
	}

	sessionStore, err := BuildSessionStore(cfg, redisClient, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	m := metrics.NewIntakeMetrics(opts.Registerer)
	normalizer := booking.NewNormalizer(booking.SlotLocation(cfg.SlotTimezone))
	ledger := booking.NewLedger(store, logger, booking.WithNormalizer(normalizer))
	app.Coordinator = booking.NewCoordinator(ledger, notifier, logger, booking.WithMetrics(m))

	app.Machine = dialogue.NewMachine(dialogue.MachineConfig{
		Oracle:    BuildOracle(ctx, cfg, loadAWS, logger),
		Committer: app.Coordinator,
		Metrics:   m,
		Logger:    logger,
		Notes:     fmt.Sprintf("Collected via AI agent flow on %s.com", cfg.SiteName),
	})

	var pollStore poll.Store = poll.NewFileStore(cfg.PollPath)
	if redisClient != nil && cfg.LedgerBackend == "redis" {
		pollStore = poll.NewRedisStore(redisClient, "")
	}

	app.RateLimiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	var metricsHandler http.Handler
	if opts.Gatherer != nil {
		metricsHandler = promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})
	}

	app.Handler = router.New(&router.Config{
		Logger:             logger,
		Chat:               handlers.NewChatHandler(app.Machine, logger),
		Bookings:           handlers.NewBookingsHandler(app.Coordinator, logger),
		Poll:               handlers.NewPollHandler(poll.New(pollStore, poll.ParseSeed(cfg.PollSeed), logger), logger),
		WebChat:            webchat.NewHandler(webchat.NewSessions(app.Machine, sessionStore, logger), logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        app.RateLimiter,
	})
	return app, nil
}
