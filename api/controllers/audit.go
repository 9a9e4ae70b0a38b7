package controllers

import (
	"net/http"
	"strconv"

	"github.com/hmansour/farmgate-pos/api/responses"
	"github.com/hmansour/farmgate-pos/internal/audit"
	"github.com/hmansour/farmgate-pos/pkg/db/models"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
	"github.com/hmansour/farmgate-pos/pkg/logger"
	"github.com/hmansour/farmgate-pos/pkg/pagination"
)

type auditLogPage struct {
	Entries    []models.AuditLog `json:"entries"`
	NextCursor *string           `json:"next_cursor,omitempty"`
}

// AuditLogList returns the audit trail, newest first. With entity_id set
// it returns the full history of one record instead, oldest first, so an
// admin can replay how a row ended up in its current state.
func AuditLogList(repo audit.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit repository unavailable"))
			return
		}

		query := r.URL.Query()
		table := query.Get("table")

		if entityID := query.Get("entity_id"); entityID != "" {
			if table == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "table is required when entity_id is set"))
				return
			}
			entries, err := repo.ListByEntity(r.Context(), table, entityID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list audit entries"))
				return
			}
			responses.WriteSuccess(w, auditLogPage{Entries: entries})
			return
		}

		limit := 0
		if raw := query.Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid limit"))
				return
			}
			limit = parsed
		}
		cursor, err := pagination.ParseCursor(query.Get("cursor"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
			return
		}

		entries, next, err := repo.List(r.Context(), audit.ListParams{
			Table:  table,
			Cursor: cursor,
			Limit:  limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list audit entries"))
			return
		}

		page := auditLogPage{Entries: entries}
		if next != nil {
			encoded := pagination.EncodeCursor(*next)
			page.NextCursor = &encoded
		}
		responses.WriteSuccess(w, page)
	}
}
