// internal/store/security_events.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/models"

	"github.com/lib/pq"
)

// SecurityEventFilters narrows the event listing. Zero values mean "no
// filter on this dimension"; Acknowledged is a tri-state through the
// pointer.
type SecurityEventFilters struct {
	VMID         int64
	Severity     string
	Rule         string
	Since        string
	Until        string
	Acknowledged *bool
}

// ListSecurityEvents returns one page of events newest-first plus the total
// matching count. Unlike the snapshot collections, security events are
// filtered and paginated in SQL: the event table grows unbounded and is
// never loaded whole.
func (s *Store) ListSecurityEvents(ctx context.Context, filters SecurityEventFilters, page, limit int) ([]models.SecurityEvent, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	var conditions []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.VMID != 0 {
		conditions = append(conditions, "vm_id = "+arg(filters.VMID))
	}
	if filters.Severity != "" {
		conditions = append(conditions, "severity = "+arg(filters.Severity))
	}
	if filters.Rule != "" {
		conditions = append(conditions, "rule = "+arg(filters.Rule))
	}
	if filters.Since != "" {
		conditions = append(conditions, "timestamp >= "+arg(filters.Since))
	}
	if filters.Until != "" {
		conditions = append(conditions, "timestamp <= "+arg(filters.Until))
	}
	if filters.Acknowledged != nil {
		if *filters.Acknowledged {
			conditions = append(conditions, "acknowledged_at IS NOT NULL")
		} else {
			conditions = append(conditions, "acknowledged_at IS NULL")
		}
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM security_events " + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count security events: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT id, vm_id, timestamp, source, severity, rule, message, acknowledged_by, acknowledged_at
		FROM security_events %s
		ORDER BY timestamp DESC
		LIMIT %s OFFSET %s`, where, arg(limit), arg((page-1)*limit))

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list security events: %w", err)
	}
	defer rows.Close()

	var events []models.SecurityEvent
	for rows.Next() {
		var e models.SecurityEvent
		var ackBy, ackAt sql.NullString
		if err := rows.Scan(&e.ID, &e.VMID, &e.Timestamp, &e.Source, &e.Severity, &e.Rule, &e.Message, &ackBy, &ackAt); err != nil {
			return nil, 0, fmt.Errorf("scan security event: %w", err)
		}
		if ackAt.Valid {
			e.Acknowledged = true
			e.AcknowledgedAt = &ackAt.String
		}
		if ackBy.Valid {
			e.AcknowledgedBy = &ackBy.String
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

// SecurityEventStats aggregates all events since a cutoff, acknowledged and
// not. last24h is a second cutoff counted independently so the dashboard can
// show the trailing-day total inside a wider window.
func (s *Store) SecurityEventStats(ctx context.Context, since, last24h time.Time) (*models.SecurityStats, error) {
	const query = `
		SELECT severity, rule, acknowledged_at IS NOT NULL, timestamp >= $2, COUNT(*)
		FROM security_events
		WHERE timestamp >= $1
		GROUP BY severity, rule, acknowledged_at IS NOT NULL, timestamp >= $2`

	rows, err := s.db.QueryContext(ctx, query, since, last24h)
	if err != nil {
		return nil, fmt.Errorf("security event stats: %w", err)
	}
	defer rows.Close()

	stats := &models.SecurityStats{
		BySeverity: map[string]int{},
		ByRule:     map[string]int{},
	}
	for rows.Next() {
		var severity, rule string
		var acknowledged, recent bool
		var count int
		if err := rows.Scan(&severity, &rule, &acknowledged, &recent, &count); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats.Total += count
		stats.BySeverity[severity] += count
		stats.ByRule[rule] += count
		if acknowledged {
			stats.Acknowledged += count
		} else {
			stats.Unacknowledged += count
		}
		if recent {
			stats.Last24h += count
		}
	}
	return stats, rows.Err()
}

// SaveSecurityEvent inserts one classified event.
func (s *Store) SaveSecurityEvent(ctx context.Context, event *models.SecurityEvent) error {
	const query = `
		INSERT INTO security_events (vm_id, timestamp, source, severity, rule, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id`

	if err := s.db.QueryRowContext(ctx, query,
		event.VMID, event.Timestamp, event.Source, event.Severity, event.Rule, event.Message,
	).Scan(&event.ID); err != nil {
		return fmt.Errorf("save security event: %w", err)
	}
	return nil
}

// AcknowledgeSecurityEvent stamps one unacknowledged event. Acknowledging
// an unknown or already-acknowledged event fails with ErrEventNotFound.
func (s *Store) AcknowledgeSecurityEvent(ctx context.Context, id int64, by string) error {
	const query = `
		UPDATE security_events
		SET acknowledged_by = $2, acknowledged_at = NOW()
		WHERE id = $1 AND acknowledged_at IS NULL`

	result, err := s.db.ExecContext(ctx, query, id, by)
	if err != nil {
		return fmt.Errorf("acknowledge security event: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrEventNotFound, id)
	}
	return nil
}

// AcknowledgeSecurityEvents stamps a batch, skipping already-acknowledged
// events, and returns how many were updated.
func (s *Store) AcknowledgeSecurityEvents(ctx context.Context, ids []int64, by string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	const query = `
		UPDATE security_events
		SET acknowledged_by = $2, acknowledged_at = NOW()
		WHERE id = ANY($1) AND acknowledged_at IS NULL`

	result, err := s.db.ExecContext(ctx, query, pq.Array(ids), by)
	if err != nil {
		return 0, fmt.Errorf("acknowledge security events: %w", err)
	}
	return result.RowsAffected()
}

// EnsureVM resolves a VM name to its ID, inserting a placeholder row the
// first time a scanner reports a VM the poller has not registered yet.
func (s *Store) EnsureVM(ctx context.Context, vmName string) (int64, error) {
	const query = `
		INSERT INTO vms (name, host, machine_id, ip, os, status, last_seen)
		VALUES ($1, '', $1, '', '', 'running', NOW())
		ON CONFLICT (machine_id) DO UPDATE SET last_seen = NOW()
		RETURNING id`

	var id int64
	if err := s.db.QueryRowContext(ctx, query, vmName).Scan(&id); err != nil {
		return 0, fmt.Errorf("ensure vm %q: %w", vmName, err)
	}
	return id, nil
}

// CleanupDuplicateSecurityEvents removes events that repeat another row's
// vm_id, source, message and timestamp, keeping the lowest id of each group,
// and returns the number removed. Scanner re-reads of the same log produce
// these duplicates.
func (s *Store) CleanupDuplicateSecurityEvents(ctx context.Context) (int64, error) {
	const query = `
		DELETE FROM security_events se1
		WHERE EXISTS (
			SELECT 1 FROM security_events se2
			WHERE se2.vm_id = se1.vm_id
			AND se2.source = se1.source
			AND se2.message = se1.message
			AND se2.timestamp = se1.timestamp
			AND se2.id < se1.id
		)`

	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("cleanup duplicate security events: %w", err)
	}
	return result.RowsAffected()
}

// DeleteOldSecurityEvents trims acknowledged events older than the cutoff
// and returns the number removed.
func (s *Store) DeleteOldSecurityEvents(ctx context.Context, before time.Time) (int64, error) {
	const query = `
		DELETE FROM security_events
		WHERE acknowledged_at IS NOT NULL AND timestamp < $1`

	result, err := s.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("delete old security events: %w", err)
	}
	return result.RowsAffected()
}
