// internal/server/handlers.go
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/alerts"
	stderrors "github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/errors"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/metrics"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/export"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/models"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/pipeline"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/store"
)

// pageResponse is the envelope of every paginated listing.
type pageResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"totalPages"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// pipelineError maps the pipeline's sentinel errors onto the API error
// vocabulary; anything else passes through for the handler to normalize.
func pipelineError(rt pipeline.RecordType, err error) error {
	switch {
	case errors.Is(err, pipeline.ErrUnknownField):
		return stderrors.NewUnknownFieldError(err.Error())
	case errors.Is(err, pipeline.ErrUnknownRecordType):
		return stderrors.NewUnknownRecordTypeError(string(rt))
	default:
		return err
	}
}

func (s *Server) handleList(rt pipeline.RecordType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := s.parseQuery(r)
		if err != nil {
			metrics.QueriesFailed.WithLabelValues(string(rt), errorCode(err)).Inc()
			s.errs.HandleError(w, r, err)
			return
		}

		records, err := s.snapshot(r.Context(), rt)
		if err != nil {
			metrics.QueriesFailed.WithLabelValues(string(rt), errorCode(err)).Inc()
			s.errs.HandleError(w, r, err)
			return
		}

		start := time.Now()
		result, err := s.pipe.Run(rt, records, q)
		if err != nil {
			err = pipelineError(rt, err)
			metrics.QueriesFailed.WithLabelValues(string(rt), errorCode(err)).Inc()
			s.recordQuery(r, rt, "error")
			s.errs.HandleError(w, r, err)
			return
		}
		metrics.QueriesTotal.WithLabelValues(string(rt)).Inc()
		metrics.QueryDuration.WithLabelValues(string(rt)).Observe(time.Since(start).Seconds())
		s.recordQuery(r, rt, "ok")
		if s.obs != nil {
			s.obs.RecordQueryDuration(r.Context(), string(rt), time.Since(start))
		}

		writeJSON(w, http.StatusOK, pageResponse{
			Data:       result.Items,
			Total:      result.Total,
			Page:       q.Page.Page,
			Limit:      q.Page.Size,
			TotalPages: result.TotalPages(q.Page.Size),
		})
	}
}

func (s *Server) handleExport(rt pipeline.RecordType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := s.parseQuery(r)
		if err != nil {
			s.errs.HandleError(w, r, err)
			return
		}

		records, err := s.snapshot(r.Context(), rt)
		if err != nil {
			s.errs.HandleError(w, r, err)
			return
		}

		filtered, err := s.pipe.Filter(rt, records, q.Filters)
		if err != nil {
			s.errs.HandleError(w, r, pipelineError(rt, err))
			return
		}
		if q.Sort != nil && q.Sort.Field != "" {
			filtered, err = s.pipe.Sort(rt, filtered, *q.Sort)
			if err != nil {
				s.errs.HandleError(w, r, pipelineError(rt, err))
				return
			}
		}

		s.writeCSV(w, r, rt, filtered)
	}
}

// writeCSV streams the export. An empty collection produces no body at all,
// signalled as 204 so clients suppress the download.
func (s *Server) writeCSV(w http.ResponseWriter, r *http.Request, rt pipeline.RecordType, records []pipeline.Record) {
	if len(records) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename(rt, s.now())))
	if err := export.WriteCSV(w, records); err != nil {
		// Headers are gone at this point; log instead of rewriting status.
		s.logger.Error("csv export failed mid-stream", map[string]interface{}{
			"recordType": string(rt),
			"error":      err.Error(),
		})
		return
	}
	metrics.ExportsTotal.WithLabelValues(string(rt)).Inc()
}

// Alert evaluation runs over the snapshots that carry status + last_seen.
var alertableTypes = map[string]pipeline.RecordType{
	"devices": pipeline.RecordTypeDevices,
	"vms":     pipeline.RecordTypeVMs,
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	staleMinutes := s.cfg.Alerts.StaleMinutes
	if raw := r.URL.Query().Get("staleMinutes"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.errs.HandleError(w, r, stderrors.NewInvalidFilterFormatError("staleMinutes must be a positive integer"))
			return
		}
		staleMinutes = n
	}

	typeParam := r.URL.Query().Get("type")
	if typeParam == "" {
		typeParam = "devices"
	}
	rt, ok := alertableTypes[typeParam]
	if !ok {
		s.errs.HandleError(w, r, stderrors.NewUnknownRecordTypeError(typeParam))
		return
	}

	records, err := s.snapshot(r.Context(), rt)
	if err != nil {
		s.errs.HandleError(w, r, err)
		return
	}

	summary := alerts.Evaluate(records, alerts.Thresholds{StaleMinutes: staleMinutes}, s.now())
	metrics.AlertsDown.Set(float64(summary.Down))
	metrics.AlertsStale.Set(float64(summary.Stale))

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSecurityEvents(w http.ResponseWriter, r *http.Request) {
	filters, page, limit, err := s.parseSecurityFilters(r)
	if err != nil {
		s.errs.HandleError(w, r, err)
		return
	}

	events, total, err := s.store.ListSecurityEvents(r.Context(), filters, page, limit)
	if err != nil {
		s.errs.HandleError(w, r, stderrors.NewQueryExecutionFailedError(string(pipeline.RecordTypeSecurityEvents), err))
		return
	}

	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	writeJSON(w, http.StatusOK, pageResponse{
		Data:       events,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	})
}

func (s *Server) handleSecurityExport(w http.ResponseWriter, r *http.Request) {
	filters, _, _, err := s.parseSecurityFilters(r)
	if err != nil {
		s.errs.HandleError(w, r, err)
		return
	}

	// Exports are bounded by the max page size rather than streaming the
	// whole table.
	limit := s.cfg.Server.MaxPageSize
	if limit <= 0 {
		limit = 1000
	}
	events, _, err := s.store.ListSecurityEvents(r.Context(), filters, 1, limit)
	if err != nil {
		s.errs.HandleError(w, r, stderrors.NewExportFailedError(string(pipeline.RecordTypeSecurityEvents), err))
		return
	}

	s.writeCSV(w, r, pipeline.RecordTypeSecurityEvents, models.SecurityEventRecords(events))
}

func (s *Server) handleSecurityStats(w http.ResponseWriter, r *http.Request) {
	// Default window is the last 7 days; the trailing-day count is always
	// measured against now.
	since := s.now().AddDate(0, 0, -7)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(pipeline.TimeLayout, raw)
		if err != nil {
			s.errs.HandleError(w, r, stderrors.NewInvalidFilterFormatError("since must use format "+pipeline.TimeLayout))
			return
		}
		since = parsed
	}

	stats, err := s.store.SecurityEventStats(r.Context(), since, s.now().Add(-24*time.Hour))
	if err != nil {
		s.errs.HandleError(w, r, stderrors.NewQueryExecutionFailedError(string(pipeline.RecordTypeSecurityEvents), err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type acknowledgeRequest struct {
	By  string  `json:"by"`
	IDs []int64 `json:"ids,omitempty"`
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.errs.HandleError(w, r, stderrors.NewInvalidFilterFormatError("event id must be an integer"))
		return
	}

	var req acknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errs.HandleError(w, r, stderrors.NewInvalidFilterFormatError("body must be JSON with a \"by\" field"))
		return
	}

	if err := s.store.AcknowledgeSecurityEvent(r.Context(), id, req.By); err != nil {
		if errors.Is(err, store.ErrEventNotFound) {
			s.errs.HandleError(w, r, stderrors.NewEventNotFoundError(id))
			return
		}
		s.errs.HandleError(w, r, stderrors.NewQueryExecutionFailedError(string(pipeline.RecordTypeSecurityEvents), err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"acknowledged": id})
}

func (s *Server) handleAcknowledgeBatch(w http.ResponseWriter, r *http.Request) {
	var req acknowledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		s.errs.HandleError(w, r, stderrors.NewInvalidFilterFormatError("body must be JSON with a non-empty \"ids\" array"))
		return
	}

	count, err := s.store.AcknowledgeSecurityEvents(r.Context(), req.IDs, req.By)
	if err != nil {
		s.errs.HandleError(w, r, stderrors.NewQueryExecutionFailedError(string(pipeline.RecordTypeSecurityEvents), err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"acknowledged": count})
}

func (s *Server) handleCleanupDuplicates(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.store.CleanupDuplicateSecurityEvents(r.Context())
	if err != nil {
		s.errs.HandleError(w, r, stderrors.NewQueryExecutionFailedError(string(pipeline.RecordTypeSecurityEvents), err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": deleted})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"postgres": "ok"}
	healthy := true

	if err := s.store.DB().PingContext(r.Context()); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	}
	if s.cache != nil {
		checks["redis"] = "ok"
		if err := s.cache.Ping(r.Context()); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"status": map[bool]string{true: "healthy", false: "unhealthy"}[healthy],
		"checks": checks,
	})
}

func (s *Server) parseSecurityFilters(r *http.Request) (store.SecurityEventFilters, int, int, error) {
	params := r.URL.Query()
	var filters store.SecurityEventFilters

	if raw := params.Get("vmId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filters, 0, 0, stderrors.NewInvalidFilterFormatError("vmId must be an integer")
		}
		filters.VMID = id
	}
	filters.Severity = params.Get("severity")
	filters.Rule = params.Get("rule")
	for name, dst := range map[string]*string{"since": &filters.Since, "until": &filters.Until} {
		raw := params.Get(name)
		if raw == "" {
			continue
		}
		if _, err := time.Parse(pipeline.TimeLayout, raw); err != nil {
			return filters, 0, 0, stderrors.NewInvalidFilterFormatError(name + " must use format " + pipeline.TimeLayout)
		}
		*dst = raw
	}
	if raw := params.Get("acknowledged"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, 0, 0, stderrors.NewInvalidFilterFormatError("acknowledged must be true or false")
		}
		filters.Acknowledged = &v
	}

	page := 1
	if raw := params.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return filters, 0, 0, stderrors.NewInvalidPageRequestError("page must be a positive integer")
		}
		page = n
	}
	limit := s.cfg.Server.DefaultPageSize
	if limit <= 0 {
		limit = pipeline.DefaultPageSize
	}
	if raw := params.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return filters, 0, 0, stderrors.NewInvalidPageRequestError("limit must be a positive integer")
		}
		limit = n
	}

	return filters, page, limit, nil
}

func (s *Server) recordQuery(r *http.Request, rt pipeline.RecordType, status string) {
	if s.obs == nil {
		return
	}
	s.obs.RecordQuery(r.Context(), string(rt), status)
}

func errorCode(err error) string {
	if stdErr, ok := stderrors.AsStandardError(err); ok {
		return string(stdErr.Code)
	}
	return "INTERNAL_ERROR"
}
