// Package alerts evaluates threshold alerts over device snapshots and
// delivers notifications for them. Evaluation is stateless: every call scans
// the snapshot fresh against a fixed "now", so results are never cached or
// mutated in place.
package alerts

import (
	"strings"
	"time"

	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/models"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/pipeline"
)

// Thresholds configures the evaluator. StaleMinutes is the age beyond which
// a record's last_seen counts as stale.
type Thresholds struct {
	StaleMinutes int `json:"staleMinutes"`
}

// Evaluate scans records once and counts two independent conditions: an
// explicit down status, and a last_seen older than the stale threshold. A
// record can count toward both. A last_seen that fails to parse is treated
// as the earliest possible instant and therefore stale.
func Evaluate(records []pipeline.Record, thresholds Thresholds, now time.Time) models.AlertSummary {
	summary := models.AlertSummary{
		DownNames:   []string{},
		StaleNames:  []string{},
		EvaluatedAt: now.Format(pipeline.TimeLayout),
	}
	cutoff := now.Add(-time.Duration(thresholds.StaleMinutes) * time.Minute)

	for _, rec := range records {
		name := recordName(rec)

		if status, ok := rec.Get("status"); ok &&
			strings.EqualFold(strings.TrimSpace(pipeline.Text(status)), "down") {
			summary.Down++
			summary.DownNames = append(summary.DownNames, name)
		}

		if lastSeen, ok := rec.Get("last_seen"); ok {
			if pipeline.ParseTime(lastSeen).Before(cutoff) {
				summary.Stale++
				summary.StaleNames = append(summary.StaleNames, name)
			}
		}
	}
	return summary
}

func recordName(rec pipeline.Record) string {
	if name, ok := rec.Get("name"); ok {
		return pipeline.Text(name)
	}
	if id, ok := rec.Get("id"); ok {
		return pipeline.Text(id)
	}
	return ""
}
