// internal/scanner/parser.go
package scanner

import (
	"strings"
	"time"

	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/pipeline"
)

// Event is one classified log line before persistence. VMName is resolved
// to a database ID at save time.
type Event struct {
	VMName    string
	Timestamp time.Time
	Source    string
	Message   string
	Severity  string
	Rule      string
	Metadata  map[string]string
}

// ParseLine parses one collected log line of the form
//
//	TIMESTAMP | VM_NAME | LOG_SOURCE | ORIGINAL_LOG_ENTRY
//
// and classifies the original entry against the rule table. It returns nil
// for blank lines, lines not in the collected format, and lines matching no
// rule. A malformed timestamp falls back to now rather than dropping an
// otherwise valid event.
func ParseLine(line string, now time.Time) *Event {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	parts := strings.SplitN(line, " | ", 4)
	if len(parts) != 4 {
		return nil
	}
	timestampStr, vmName, source, original := parts[0], parts[1], parts[2], parts[3]

	rule, severity, metadata, ok := Classify(original)
	if !ok {
		return nil
	}

	timestamp, err := time.Parse(pipeline.TimeLayout, timestampStr)
	if err != nil {
		timestamp = now
	}

	return &Event{
		VMName:    vmName,
		Timestamp: timestamp,
		Source:    source,
		Message:   line,
		Severity:  severity,
		Rule:      rule,
		Metadata:  metadata,
	}
}
