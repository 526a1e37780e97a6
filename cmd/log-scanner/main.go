// cmd/log-scanner/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/config"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/database"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/logger"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/scanner"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/store"
)

func main() {
	once := flag.Bool("once", false, "run a single scan pass and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting log scanner...",
		zap.String("basePath", cfg.Scanner.BasePath),
	)

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres connection failed", zap.Error(err))
	}
	defer pg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := pg.Ping(ctx); err != nil {
		zapLog.Fatal("postgres ping failed", zap.Error(err))
	}

	st := store.New(pg.GetDB(), log)
	processor := scanner.NewProcessor(st, log)

	if *once {
		scanAll(ctx, cfg, st, processor, log)
		return
	}

	interval := config.GetDuration(cfg.Scanner.ScanInterval)
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	scanAll(ctx, cfg, st, processor, log)
	for {
		select {
		case <-ctx.Done():
			zapLog.Info("Log scanner stopped")
			return
		case <-ticker.C:
			scanAll(ctx, cfg, st, processor, log)
		}
	}
}

// scanAll runs one pass over every VM directory under the base path, then
// applies the retention policy.
func scanAll(ctx context.Context, cfg *config.Config, st *store.Store, processor *scanner.Processor, log logger.Logger) {
	entries, err := os.ReadDir(cfg.Scanner.BasePath)
	if err != nil {
		log.Error("scan pass failed: cannot read base path", map[string]interface{}{
			"basePath": cfg.Scanner.BasePath,
			"error":    err.Error(),
		})
		return
	}

	totalSaved := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(cfg.Scanner.BasePath, entry.Name())
		stats, err := processor.ProcessDir(ctx, dir)
		if err != nil {
			log.Error("vm scan failed", map[string]interface{}{
				"vm":    entry.Name(),
				"error": err.Error(),
			})
			continue
		}
		totalSaved += stats.TotalSaved
		log.Info("vm scanned", map[string]interface{}{
			"vm":         entry.Name(),
			"files":      stats.FilesProcessed,
			"events":     stats.TotalEvents,
			"saved":      stats.TotalSaved,
			"durationMs": stats.Duration.Milliseconds(),
		})
	}
	log.Info("scan pass complete", map[string]interface{}{
		"vmDirs": len(entries),
		"saved":  totalSaved,
	})

	if cfg.Scanner.RetentionDays > 0 {
		before := time.Now().AddDate(0, 0, -cfg.Scanner.RetentionDays)
		deleted, err := st.DeleteOldSecurityEvents(ctx, before)
		if err != nil {
			log.Error("retention cleanup failed", map[string]interface{}{
				"error": err.Error(),
			})
		} else if deleted > 0 {
			log.Info("retention cleanup", map[string]interface{}{
				"deleted":       deleted,
				"retentionDays": cfg.Scanner.RetentionDays,
			})
		}
	}
}
