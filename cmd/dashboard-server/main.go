// cmd/dashboard-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/alerts"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/config"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/database"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/logger"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/metrics"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/observability"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/models"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/server"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting dashboard server...")

	obs := observability.New("dashboard-server")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	st := store.New(pg.GetDB(), log)

	// --- Init Redis snapshot cache with retry (optional) ---
	var cache *store.SnapshotCache
	if cfg.Cache.Enabled {
		var rd *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rd, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rd.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rd.Close()
		zapLog.Info("Redis connected successfully")

		ttl := config.GetDuration(cfg.Cache.SnapshotTTL)
		cache = store.NewSnapshotCache(rd.GetClient(), ttl, log)
	}

	// --- Init alert notifier (optional) ---
	var notifier *alerts.Notifier
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		notifier, err = alerts.NewNotifier(ctx, &alerts.NotifierConfig{
			EmailEnabled: cfg.Notifications.Email.Enabled,
			SMSEnabled:   cfg.Notifications.SMS.Enabled,
			FromEmail:    cfg.Notifications.Email.FromEmail,
			EmailTo:      cfg.Notifications.Email.To,
			SMSTo:        cfg.Notifications.SMS.To,
			AWSRegion:    cfg.Notifications.AWS.Region,
			Timeout:      10 * time.Second,
		}, log)
		if err != nil {
			zapLog.Fatal("notifier init failed", zap.Error(err))
		}
		zapLog.Info("Alert notifier initialized")
	}

	// --- Background alert evaluation ---
	alertCtx, stopAlerts := context.WithCancel(ctx)
	defer stopAlerts()
	go runAlertLoop(alertCtx, cfg, st, notifier, log)

	// --- HTTP server ---
	srv := server.New(cfg, st, cache, obs, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}

	stopAlerts()
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("shutdown incomplete", zap.Error(err))
	}

	zapLog.Info("Dashboard server stopped")
}

// runAlertLoop periodically evaluates the device snapshot and hands
// breaches to the notifier.
func runAlertLoop(ctx context.Context, cfg *config.Config, st *store.Store, notifier *alerts.Notifier, log logger.Logger) {
	interval := config.GetDuration(cfg.Alerts.EvaluationInterval)
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		devices, err := st.ListDevices(ctx)
		if err != nil {
			log.Error("alert evaluation: device load failed", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}

		summary := alerts.Evaluate(
			models.DeviceRecords(devices),
			alerts.Thresholds{StaleMinutes: cfg.Alerts.StaleMinutes},
			time.Now(),
		)
		metrics.AlertsDown.Set(float64(summary.Down))
		metrics.AlertsStale.Set(float64(summary.Stale))

		if notifier == nil {
			continue
		}
		if _, err := notifier.Notify(ctx, summary); err != nil {
			log.Error("alert notification failed", map[string]interface{}{
				"down":  summary.Down,
				"stale": summary.Stale,
				"error": err.Error(),
			})
		}
	}
}
