// internal/server/query.go
package server

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"

	stderrors "github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/errors"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/metrics"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/common/validation"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/models"
	"github.com/VatsalGoel3/i4ops-dashboard-sub002/internal/pipeline"
)

// Query parameter names reserved for paging and sorting; every other
// parameter is treated as a filter on the field of the same name.
var reservedParams = map[string]bool{
	"page":  true,
	"limit": true,
	"sort":  true,
	"order": true,
}

// Free-text search fields match by substring instead of exact value.
var containsFields = map[string]bool{
	"ticket":  true,
	"message": true,
}

// parseQuery turns the request's URL parameters into a pipeline query.
// Unknown-field errors are left to the pipeline, which resolves fields
// against the schema registry.
func (s *Server) parseQuery(r *http.Request) (pipeline.Query, error) {
	params := r.URL.Query()

	page := 1
	if raw := params.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return pipeline.Query{}, stderrors.NewInvalidPageRequestError("page must be an integer")
		}
		page = n
	}

	limit := s.cfg.Server.DefaultPageSize
	if limit <= 0 {
		limit = pipeline.DefaultPageSize
	}
	if raw := params.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return pipeline.Query{}, stderrors.NewInvalidPageRequestError("limit must be an integer")
		}
		limit = n
	}

	filters := make(map[string]string)
	for key, values := range params {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		filters[key] = values[0]
	}

	req := validation.QueryRequest{
		Filters:   filters,
		SortField: params.Get("sort"),
		SortOrder: params.Get("order"),
		Page:      page,
		Limit:     limit,
	}
	if result := validation.ValidateQueryRequest(req, s.cfg.Server.MaxPageSize); !result.Valid {
		details := strings.Join(result.GetErrorMessages(), "; ")
		if result.HasErrors("page") || result.HasErrors("limit") {
			return pipeline.Query{}, stderrors.NewInvalidPageRequestError(details)
		}
		return pipeline.Query{}, stderrors.NewInvalidFilterFormatError(details)
	}

	q := pipeline.Query{
		Page: pipeline.PageRequest{Page: page, Size: limit},
	}

	fields := make([]string, 0, len(filters))
	for field := range filters {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		mode := pipeline.FilterEquals
		if containsFields[field] {
			mode = pipeline.FilterContains
		}
		q.Filters = append(q.Filters, pipeline.Predicate{
			Field: field,
			Mode:  mode,
			Value: filters[field],
		})
	}

	if req.SortField != "" {
		direction := pipeline.SortAsc
		if req.SortOrder == "desc" {
			direction = pipeline.SortDesc
		}
		q.Sort = &pipeline.SortSpec{Field: req.SortField, Direction: direction}
	}

	return q, nil
}

// snapshot loads the full record collection for a record type, going
// through the cache when one is configured. Cache failures degrade to a
// database load, never to a request failure.
func (s *Server) snapshot(ctx context.Context, rt pipeline.RecordType) ([]pipeline.Record, error) {
	if s.cache != nil {
		if records, ok := s.cache.Get(ctx, rt); ok {
			metrics.SnapshotCacheHits.WithLabelValues(string(rt), "hit").Inc()
			return records, nil
		}
		metrics.SnapshotCacheHits.WithLabelValues(string(rt), "miss").Inc()
	}

	records, err := s.loadFromStore(ctx, rt)
	if err != nil {
		return nil, stderrors.NewQueryExecutionFailedError(string(rt), err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, rt, records); err != nil {
			s.logger.Warn("snapshot cache write failed", map[string]interface{}{
				"recordType": string(rt),
				"error":      err.Error(),
			})
		}
	}
	return records, nil
}

func (s *Server) loadFromStore(ctx context.Context, rt pipeline.RecordType) ([]pipeline.Record, error) {
	switch rt {
	case pipeline.RecordTypeDevices:
		devices, err := s.store.ListDevices(ctx)
		if err != nil {
			return nil, err
		}
		return models.DeviceRecords(devices), nil
	case pipeline.RecordTypeFirmwareEvents:
		events, err := s.store.ListFirmwareEvents(ctx)
		if err != nil {
			return nil, err
		}
		return models.FirmwareEventRecords(events), nil
	case pipeline.RecordTypeHosts:
		hosts, err := s.store.ListHosts(ctx)
		if err != nil {
			return nil, err
		}
		return models.HostRecords(hosts), nil
	case pipeline.RecordTypeVMs:
		vms, err := s.store.ListVMs(ctx)
		if err != nil {
			return nil, err
		}
		return models.VMRecords(vms), nil
	default:
		return nil, stderrors.NewUnknownRecordTypeError(string(rt))
	}
}
