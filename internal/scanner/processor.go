// internal/scanner/processor.go
package scanner

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/logger"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/metrics"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/models"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/pipeline"
)

// LogFiles are the collected log names processed per VM directory.
var LogFiles = []string{models.SourceAuthLog, models.SourceKernLog, models.SourceSyslog}

// EventStore persists classified events. The store resolves VM names to IDs
// and owns duplicate handling.
type EventStore interface {
	EnsureVM(ctx context.Context, vmName string) (int64, error)
	SaveSecurityEvent(ctx context.Context, event *models.SecurityEvent) error
}

// FileStats aggregates the outcome of one log file pass.
type FileStats struct {
	File           string         `json:"file"`
	LinesProcessed int            `json:"linesProcessed"`
	EventsFound    int            `json:"eventsFound"`
	EventsSaved    int            `json:"eventsSaved"`
	BySeverity     map[string]int `json:"bySeverity"`
	ByRule         map[string]int `json:"byRule"`
	Duration       time.Duration  `json:"duration"`
}

// ScanStats aggregates one full scan across all log files.
type ScanStats struct {
	FilesProcessed int         `json:"filesProcessed"`
	TotalEvents    int         `json:"totalEvents"`
	TotalSaved     int         `json:"totalSaved"`
	Duration       time.Duration `json:"duration"`
	Files          []FileStats `json:"files"`
}

// Processor runs log lines through the rule table and persists the matches.
// The VM ID cache lives for the processor's lifetime; a long-running scanner
// reuses one processor across ticks.
type Processor struct {
	store   EventStore
	logger  logger.Logger
	vmCache map[string]int64
	now     func() time.Time
}

// NewProcessor builds a processor over an event store.
func NewProcessor(store EventStore, log logger.Logger) *Processor {
	return &Processor{
		store:   store,
		logger:  log.WithFields(map[string]interface{}{"component": "security-processor"}),
		vmCache: make(map[string]int64),
		now:     time.Now,
	}
}

// ProcessReader scans lines from r, classifying and saving each match.
func (p *Processor) ProcessReader(ctx context.Context, r *bufio.Scanner, name string) FileStats {
	stats := FileStats{
		File:       name,
		BySeverity: map[string]int{},
		ByRule:     map[string]int{},
	}
	start := p.now()

	for r.Scan() {
		stats.LinesProcessed++

		event := ParseLine(r.Text(), p.now())
		if event == nil {
			continue
		}
		stats.EventsFound++
		stats.BySeverity[event.Severity]++
		stats.ByRule[event.Rule]++

		if event.Severity == models.SeverityCritical {
			p.logger.Error("critical security event", map[string]interface{}{
				"rule":    event.Rule,
				"vm":      event.VMName,
				"message": truncate(event.Message, 200),
			})
		}

		if err := p.save(ctx, event); err != nil {
			p.logger.Error("failed to save event", map[string]interface{}{
				"error": err,
				"rule":  event.Rule,
				"vm":    event.VMName,
			})
			continue
		}
		stats.EventsSaved++
	}

	stats.Duration = p.now().Sub(start)
	return stats
}

// ProcessFile scans a single collected log file.
func (p *Processor) ProcessFile(ctx context.Context, path string) (FileStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileStats{File: path}, fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	stats := p.ProcessReader(ctx, bufio.NewScanner(f), path)
	p.logger.Info("log file processed", map[string]interface{}{
		"file":        path,
		"lines":       stats.LinesProcessed,
		"eventsFound": stats.EventsFound,
		"eventsSaved": stats.EventsSaved,
	})
	return stats, nil
}

// ProcessDir scans the three collected log files inside dir. Missing files
// are skipped, not failed: a VM that never produced a kern.log is normal.
func (p *Processor) ProcessDir(ctx context.Context, dir string) (ScanStats, error) {
	stats := ScanStats{}
	start := p.now()

	for _, name := range LogFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			p.logger.Warn("log file not found", map[string]interface{}{"file": path})
			continue
		}

		fileStats, err := p.ProcessFile(ctx, path)
		if err != nil {
			return stats, err
		}
		stats.Files = append(stats.Files, fileStats)
		stats.FilesProcessed++
		stats.TotalEvents += fileStats.EventsFound
		stats.TotalSaved += fileStats.EventsSaved
	}

	stats.Duration = p.now().Sub(start)
	return stats, nil
}

func (p *Processor) save(ctx context.Context, event *Event) error {
	vmID, ok := p.vmCache[event.VMName]
	if !ok {
		id, err := p.store.EnsureVM(ctx, event.VMName)
		if err != nil {
			return fmt.Errorf("ensure VM %q: %w", event.VMName, err)
		}
		p.vmCache[event.VMName] = id
		vmID = id
	}

	err := p.store.SaveSecurityEvent(ctx, &models.SecurityEvent{
		VMID:      vmID,
		Timestamp: event.Timestamp.Format(pipeline.TimeLayout),
		Source:    event.Source,
		Severity:  event.Severity,
		Rule:      event.Rule,
		Message:   event.Message,
	})
	if err != nil {
		return err
	}
	metrics.SecurityEventsSaved.WithLabelValues(event.Severity, event.Rule).Inc()
	return nil
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
