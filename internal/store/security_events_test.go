package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/logger"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, logger.NewNoOpLogger()), mock
}

func boolPtr(b bool) *bool { return &b }

// ==========================
// Security Event Listing
// ==========================

func TestListSecurityEvents_NoFilters(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM security_events`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	mock.ExpectQuery(`SELECT id, vm_id, timestamp, source, severity, rule, message`).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "vm_id", "timestamp", "source", "severity", "rule", "message", "acknowledged_by", "acknowledged_at",
		}).
			AddRow(2, 7, "2024-05-01 09:00:00", "auth.log", "high", "brute_force", "msg-2", nil, nil).
			AddRow(1, 7, "2024-05-01 08:00:00", "kern.log", "medium", "oom_kill", "msg-1", "ops", "2024-05-01 10:00:00"))

	events, total, err := s.ListSecurityEvents(context.Background(), SecurityEventFilters{}, 1, 50)
	require.NoError(t, err)

	assert.Equal(t, 2, total)
	require.Len(t, events, 2)
	assert.False(t, events[0].Acknowledged)
	assert.True(t, events[1].Acknowledged)
	require.NotNil(t, events[1].AcknowledgedBy)
	assert.Equal(t, "ops", *events[1].AcknowledgedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSecurityEvents_FiltersBuildConditions(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM security_events WHERE vm_id = \$1 AND severity = \$2 AND acknowledged_at IS NULL`).
		WithArgs(int64(7), "critical").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectQuery(`FROM security_events WHERE vm_id = \$1 AND severity = \$2 AND acknowledged_at IS NULL`).
		WithArgs(int64(7), "critical", 10, 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "vm_id", "timestamp", "source", "severity", "rule", "message", "acknowledged_by", "acknowledged_at",
		}))

	filters := SecurityEventFilters{VMID: 7, Severity: "critical", Acknowledged: boolPtr(false)}
	events, total, err := s.ListSecurityEvents(context.Background(), filters, 2, 10)
	require.NoError(t, err)

	assert.Equal(t, 0, total)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Stats / Acknowledge
// ==========================

func TestSecurityEventStats(t *testing.T) {
	s, mock := newTestStore(t)
	since := time.Date(2024, 4, 24, 0, 0, 0, 0, time.UTC)
	last24h := time.Date(2024, 4, 30, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT severity, rule, acknowledged_at IS NOT NULL, timestamp >= \$2, COUNT\(\*\)`).
		WithArgs(since, last24h).
		WillReturnRows(sqlmock.NewRows([]string{"severity", "rule", "acknowledged", "recent", "count"}).
			AddRow("critical", "egress", false, true, 1).
			AddRow("high", "brute_force", true, false, 4).
			AddRow("high", "brute_force", false, true, 2).
			AddRow("medium", "sudo", false, false, 2))

	stats, err := s.SecurityEventStats(context.Background(), since, last24h)
	require.NoError(t, err)

	assert.Equal(t, 9, stats.Total)
	assert.Equal(t, 1, stats.BySeverity["critical"])
	assert.Equal(t, 6, stats.ByRule["brute_force"])
	assert.Equal(t, 3, stats.Last24h)
	assert.Equal(t, 4, stats.Acknowledged)
	assert.Equal(t, 5, stats.Unacknowledged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcknowledgeSecurityEvent(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE security_events`).
		WithArgs(int64(9), "ops").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.AcknowledgeSecurityEvent(context.Background(), 9, "ops")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcknowledgeSecurityEvent_AlreadyAcknowledged(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`UPDATE security_events`).
		WithArgs(int64(9), "ops").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.AcknowledgeSecurityEvent(context.Background(), 9, "ops")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestAcknowledgeSecurityEvents_EmptyBatch(t *testing.T) {
	s, _ := newTestStore(t)

	updated, err := s.AcknowledgeSecurityEvents(context.Background(), nil, "ops")
	require.NoError(t, err)
	assert.Equal(t, int64(0), updated)
}

// ==========================
// Event Persistence
// ==========================

func TestSaveSecurityEvent(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`INSERT INTO security_events`).
		WithArgs(int64(7), "2024-05-01 08:30:00", "auth.log", "high", "brute_force", "msg").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))

	event := &models.SecurityEvent{
		VMID:      7,
		Timestamp: "2024-05-01 08:30:00",
		Source:    "auth.log",
		Severity:  "high",
		Rule:      "brute_force",
		Message:   "msg",
	}
	require.NoError(t, s.SaveSecurityEvent(context.Background(), event))
	assert.Equal(t, int64(101), event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureVM(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery(`INSERT INTO vms`).
		WithArgs("u2-vm30000").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := s.EnsureVM(context.Background(), "u2-vm30000")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestCleanupDuplicateSecurityEvents(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(`DELETE FROM security_events se1\s+WHERE EXISTS`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	removed, err := s.CleanupDuplicateSecurityEvents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOldSecurityEvents(t *testing.T) {
	s, mock := newTestStore(t)
	before := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM security_events`).
		WithArgs(before).
		WillReturnResult(sqlmock.NewResult(0, 12))

	removed, err := s.DeleteOldSecurityEvents(context.Background(), before)
	require.NoError(t, err)
	assert.Equal(t, int64(12), removed)
}
