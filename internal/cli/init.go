// Package cli holds the startup steps shared by cmd/bizdash,
// cmd/bizdash-worker and cmd/billing-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bizdash/internal/amqp"
	"bizdash/internal/backend"
	"bizdash/internal/cache"
	"bizdash/internal/calendar"
	"bizdash/internal/config"
	"bizdash/internal/ledger"
	"bizdash/internal/log"
	"bizdash/internal/metrics"
	"bizdash/internal/services"
	"bizdash/internal/sheets"
	gsheet "bizdash/internal/sheets/google"
	memsheet "bizdash/internal/sheets/memory"
	"bizdash/internal/storage"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger and installs it as the slog default.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{Level: log.ParseLevel(level), Component: log.ComponentApp})
	log.SetDefault(logger)
	return logger
}

// LoadConfig reads and validates the environment configuration.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenStore opens the configured datastore.
func OpenStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger).CreateBackend(ctx, bcfg)
}

// ConnectAMQP returns nil without error when AMQP is not configured.
func ConnectAMQP(cfg *config.Config, logger *log.Logger) (*amqp.Client, error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP disabled, payment events will not be published")
		return nil, nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to AMQP: %w", err)
	}
	return client, nil
}

// SummaryCache picks Redis when REDIS_ADDR is set and an in-process LRU
// otherwise. The returned stop function releases the cache's resources.
func SummaryCache(ctx context.Context, cfg *config.Config, logger *log.Logger) (cache.Cache[ledger.Summary], func(), error) {
	if cfg.RedisAddr != "" {
		client, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Dashboard cache backed by Redis", "addr", cfg.RedisAddr)
		return cache.NewRedisCache[ledger.Summary](client, "bizdash:", cfg.CacheTTL, logger),
			func() { _ = client.Close() }, nil
	}

	lru := cache.NewLRUCache[ledger.Summary](cfg.CacheSize, cfg.CacheTTL)
	manager := cache.NewManager()
	manager.Register(lru)
	manager.StartCleanup(10 * time.Minute)
	logger.Info("Dashboard cache in memory", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
	return lru, manager.Stop, nil
}

// Calendar returns nil when no calendar is configured. A configured but
// unreachable calendar is an error.
func Calendar(ctx context.Context, cfg *config.Config, logger *log.Logger) (services.EventCalendar, error) {
	if !cfg.CalendarEnabled() {
		logger.Info("Google Calendar sync disabled")
		return nil, nil
	}
	creds, err := cfg.GoogleCredentials()
	if err != nil {
		return nil, err
	}
	cal, err := calendar.New(ctx, cfg.GoogleCalendarID, creds, cfg.Location(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to Google Calendar: %w", err)
	}
	return cal, nil
}

// Mirror returns the Google Sheets mirror when configured, else an
// in-memory one that only keeps rows for the life of the process.
func Mirror(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.PaymentMirror, error) {
	if !cfg.SheetsEnabled() {
		logger.Warn("Google Sheets not configured, mirroring payments in memory only")
		return memsheet.New(), nil
	}
	creds, err := cfg.GoogleCredentials()
	if err != nil {
		return nil, err
	}
	mirror, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, creds, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to Google Sheets: %w", err)
	}
	return mirror, nil
}

// NewReconciler builds the ledger reconciler with the process clock in the
// configured zone, reporting writes to notifiers.
func NewReconciler(app *App, notifiers ...ledger.Notifier) *ledger.Reconciler {
	loc := app.Config.Location()
	return ledger.NewReconciler(app.Store.Payments(),
		ledger.WithLogger(app.Logger),
		ledger.WithClock(func() time.Time { return time.Now().In(loc) }),
		ledger.WithNotifier(ledger.Notifiers(notifiers)),
	)
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// App bundles what every command starts from.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Store   storage.Store
	Metrics *metrics.Metrics
	cleanup backend.CleanupFunc
}

// Bootstrap loads .env and the configuration, sets up logging and opens the store.
func Bootstrap(ctx context.Context) (*App, error) {
	LoadEnvFile()
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := SetupLogger(cfg.LogLevel)
	res, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   res.Store,
		Metrics: metrics.New(),
		cleanup: res.Cleanup,
	}, nil
}

// Close releases the store.
func (a *App) Close() {
	if a.cleanup == nil {
		return
	}
	if err := a.cleanup(); err != nil {
		a.Logger.Error("Failed to close store", log.FieldError, err)
	}
}

// LedgerNotifiers lists what observes ledger writes: metrics, the AMQP
// publisher (skipped when client is nil) and dashboard cache invalidation.
func LedgerNotifiers(app *App, client *amqp.Client, summaries cache.Cache[ledger.Summary]) []ledger.Notifier {
	var publisher services.PaymentEventPublisher
	if client != nil {
		publisher = client
	}
	notifiers := []ledger.Notifier{
		app.Metrics,
		services.NewEventPublisher(publisher, app.Logger, app.Metrics),
	}
	if summaries != nil {
		notifiers = append(notifiers, services.NewSummaryInvalidator(summaries, app.Logger))
	}
	return notifiers
}
