package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/brightmall/backoffice-engine/pkg/auth"
	"github.com/brightmall/backoffice-engine/pkg/models"
	"github.com/brightmall/backoffice-engine/pkg/services"
)

// ChangeLogHandler serves the per-entity change log listings. Every entity
// surface exposes the same GET .../logs shape: {data, total, totalPages}.
type ChangeLogHandler struct {
	changeLogService services.ChangeLogService
	logger           *zap.Logger
}

// NewChangeLogHandler creates a new change log handler.
func NewChangeLogHandler(changeLogService services.ChangeLogService, logger *zap.Logger) *ChangeLogHandler {
	return &ChangeLogHandler{
		changeLogService: changeLogService,
		logger:           logger,
	}
}

// logRoutes pairs URL segments with the entity kind they expose.
var logRoutes = []struct {
	path string
	kind models.EntityKind
}{
	{"users", models.EntityKindUser},
	{"departments", models.EntityKindDepartment},
	{"categories", models.EntityKindCategory},
	{"products", models.EntityKindProduct},
	{"orders", models.EntityKindOrder},
	{"bookings", models.EntityKindBooking},
	{"service-kits", models.EntityKindServiceKit},
}

// RegisterRoutes registers the log listing routes on the given mux.
func (h *ChangeLogHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	logsView := authMiddleware.RequirePermission(auth.PermLogsView)
	for _, route := range logRoutes {
		mux.HandleFunc("GET /api/"+route.path+"/logs", logsView(h.listFor(route.kind)))
	}
}

func (h *ChangeLogHandler) listFor(kind models.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters := ParseLogFilters(r)

		entries, total, err := h.changeLogService.List(r.Context(), kind, filters)
		if err != nil {
			h.logger.Error("Failed to list change log",
				zap.String("entity_kind", string(kind)),
				zap.Error(err))
			handleServiceError(w, h.logger, err, "list_logs_failed")
			return
		}
		if entries == nil {
			entries = []*models.ChangeLogEntry{}
		}

		pageSize := filters.PageSize
		if pageSize <= 0 {
			pageSize = 50
		}
		totalPages := (total + pageSize - 1) / pageSize

		if err := WriteJSON(w, http.StatusOK, ListResponse{
			Data:       entries,
			Total:      total,
			TotalPages: totalPages,
		}); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
	}
}
