package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/models"
)

// ParseID extracts the {id} path value as an int64. Writes a 400 response
// and returns false when it is missing or malformed.
func ParseID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_id", "Invalid ID format"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return id, true
}

// ParseIDList parses a comma-separated ids query parameter.
func ParseIDList(w http.ResponseWriter, r *http.Request, logger *zap.Logger) ([]int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("ids"))
	if raw == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_ids", "The ids parameter is required"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}

	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_ids", "The ids parameter must be a comma-separated list of numeric ids"); err != nil {
				logger.Error("Failed to write error response", zap.Error(err))
			}
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}

// ParseLogFilters reads the change log list query parameters. Unparseable
// values are ignored rather than rejected; an audit listing with a bad
// filter is still a valid listing.
func ParseLogFilters(r *http.Request) models.ChangeLogFilters {
	q := r.URL.Query()
	var filters models.ChangeLogFilters

	if v := q.Get("since"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.Since = &t
		}
	}
	if v := q.Get("until"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.Until = &t
		}
	}
	filters.ActorQuery = q.Get("actor")
	if v := q.Get("action"); v != "" {
		filters.Action = models.ChangeAction(v)
	}
	if v := q.Get("entityId"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			filters.EntityID = &id
		}
	}
	if v := q.Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			filters.Page = page
		}
	}
	if v := q.Get("pageSize"); v != "" {
		if size, err := strconv.Atoi(v); err == nil && size > 0 && size <= 200 {
			filters.PageSize = size
		}
	}
	return filters
}
