// internal/models/security_event.go
package models

import "github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/pipeline"

// Severity levels assigned by the scanner rules, highest first.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Log sources the scanner watches on each VM.
const (
	SourceAuthLog = "auth.log"
	SourceKernLog = "kern.log"
	SourceSyslog  = "syslog"
)

// SecurityEvent is one rule match extracted from a VM log line.
// Acknowledgement state lives only in the store; it is not part of the
// tabular column set.
type SecurityEvent struct {
	ID             int64   `json:"id" db:"id"`
	VMID           int64   `json:"vmId" db:"vm_id"`
	Timestamp      string  `json:"timestamp" db:"timestamp"`
	Source         string  `json:"source" db:"source"`
	Severity       string  `json:"severity" db:"severity"`
	Rule           string  `json:"rule" db:"rule"`
	Message        string  `json:"message" db:"message"`
	Acknowledged   bool    `json:"acknowledged" db:"acknowledged"`
	AcknowledgedBy *string `json:"acknowledgedBy,omitempty" db:"acknowledged_by"`
	AcknowledgedAt *string `json:"acknowledgedAt,omitempty" db:"acknowledged_at"`
}

// ToRecord flattens the event into the column order declared for the
// security_events collection.
func (e SecurityEvent) ToRecord() pipeline.Record {
	return pipeline.NewRecord(
		pipeline.Field{Name: "id", Value: e.ID},
		pipeline.Field{Name: "vm_id", Value: e.VMID},
		pipeline.Field{Name: "timestamp", Value: e.Timestamp},
		pipeline.Field{Name: "source", Value: e.Source},
		pipeline.Field{Name: "severity", Value: e.Severity},
		pipeline.Field{Name: "rule", Value: e.Rule},
		pipeline.Field{Name: "message", Value: e.Message},
	)
}

// SecurityEventRecords converts an event slice preserving order.
func SecurityEventRecords(events []SecurityEvent) []pipeline.Record {
	out := make([]pipeline.Record, len(events))
	for i, e := range events {
		out[i] = e.ToRecord()
	}
	return out
}

// SecurityStats aggregates events since a cutoff for the dashboard header.
// Last24h counts events inside the trailing 24-hour window regardless of the
// cutoff; Acknowledged and Unacknowledged always sum to Total.
type SecurityStats struct {
	Total          int            `json:"total"`
	BySeverity     map[string]int `json:"bySeverity"`
	ByRule         map[string]int `json:"byRule"`
	Last24h        int            `json:"last24h"`
	Acknowledged   int            `json:"acknowledged"`
	Unacknowledged int            `json:"unacknowledged"`
}
