// Package store persists the dashboard's record collections in PostgreSQL
// and caches snapshots in Redis. The query pipeline never touches the
// store: callers load a snapshot here and hand it to the pipeline as plain
// records.
package store

import (
	"database/sql"
	"errors"

	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/logger"
)

var (
	ErrEventNotFound = errors.New("EVENT_NOT_FOUND")
)

// Store wraps the SQL connection for all dashboard repositories.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

// New builds a store over an open connection.
func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "store"}),
	}
}

// DB exposes the underlying connection for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}
