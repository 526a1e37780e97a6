// test/e2e/e2e_test.go
package e2e

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/config"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/logger"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/models"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/pipeline"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/server"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/store"
)

// The e2e suite drives the full request path: router -> middleware ->
// snapshot load -> redis cache -> pipeline -> response encoding. Postgres
// is mocked at the driver level and Redis runs in-process.

type env struct {
	srv  *httptest.Server
	mock sqlmock.Sqlmock
}

func newEnv(t *testing.T) *env {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{}
	cfg.Server.DefaultPageSize = 50
	cfg.Server.MaxPageSize = 500
	cfg.Alerts.StaleMinutes = 60

	log := logger.NewNoOpLogger()
	st := store.New(db, log)
	cache := store.NewSnapshotCache(client, time.Minute, log)

	s := server.New(cfg, st, cache, nil, log)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return &env{srv: ts, mock: mock}
}

func (e *env) get(t *testing.T, path string) (*http.Response, []byte) {
	resp, err := http.Get(e.srv.URL + path)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	return resp, body
}

func expectVMSnapshot(mock sqlmock.Sqlmock) {
	rows := sqlmock.NewRows([]string{
		"id", "name", "host", "machine_id", "ip", "os", "status", "last_seen",
	})
	for i := 1; i <= 5; i++ {
		status := "running"
		if i == 4 {
			status = "down"
		}
		rows.AddRow(i, fmt.Sprintf("u2-vm3000%d", i), "host-01",
			fmt.Sprintf("mid-%d", i), fmt.Sprintf("10.0.0.%d", i),
			"ubuntu-22.04", status, "2024-05-01 09:30:00")
	}
	mock.ExpectQuery(`SELECT id, name, host, machine_id, ip, os, status, last_seen`).
		WillReturnRows(rows)
}

type pageEnvelope struct {
	Data       []pipeline.Record `json:"data"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"totalPages"`
}

// ==========================
// Full Query Flow
// ==========================

func TestE2E_PageWalkCoversWholeCollection(t *testing.T) {
	e := newEnv(t)

	// One DB load; every page after the first is served from the cache.
	expectVMSnapshot(e.mock)

	seen := map[string]bool{}
	page := 1
	for {
		resp, body := e.get(t, fmt.Sprintf("/api/vms?sort=name&order=asc&page=%d&limit=2", page))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result pageEnvelope
		require.NoError(t, json.Unmarshal(body, &result))
		assert.Equal(t, 5, result.Total)
		assert.Equal(t, 3, result.TotalPages)

		if len(result.Data) == 0 {
			break
		}
		for _, rec := range result.Data {
			name, _ := rec.Get("name")
			seen[pipeline.Text(name)] = true
		}
		page++
	}

	assert.Len(t, seen, 5)
	assert.NoError(t, e.mock.ExpectationsWereMet())
}

func TestE2E_FilterThenExportAgree(t *testing.T) {
	e := newEnv(t)
	expectVMSnapshot(e.mock)

	resp, body := e.get(t, "/api/vms?status=down")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result pageEnvelope
	require.NoError(t, json.Unmarshal(body, &result))
	require.Equal(t, 1, result.Total)

	// Export over the same filter returns the same single row (plus header).
	resp, body = e.get(t, "/api/vms/export.csv?status=down")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,name,host,machine_id,ip,os,status,last_seen", lines[0])
	assert.Contains(t, lines[1], `"u2-vm30004"`)
}

func TestE2E_AlertsOverVMSnapshot(t *testing.T) {
	e := newEnv(t)
	expectVMSnapshot(e.mock)

	resp, body := e.get(t, "/api/alerts?type=vms&staleMinutes=30")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary models.AlertSummary
	require.NoError(t, json.Unmarshal(body, &summary))

	assert.Equal(t, 1, summary.Down)
	assert.Equal(t, []string{"u2-vm30004"}, summary.DownNames)
	// Staleness depends on wall-clock now; the 2024 fixture is long past it.
	assert.Equal(t, 5, summary.Stale)
}

func TestE2E_UnknownFieldSurfacesTypedError(t *testing.T) {
	e := newEnv(t)
	expectVMSnapshot(e.mock)

	resp, body := e.get(t, "/api/vms?flavor=mint")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "UNKNOWN_FIELD", errResp["code"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
