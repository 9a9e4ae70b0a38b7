package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hmansour/farmgate-pos/api/middleware"
	"github.com/hmansour/farmgate-pos/api/responses"
	"github.com/hmansour/farmgate-pos/api/validators"
	"github.com/hmansour/farmgate-pos/internal/loads"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
	"github.com/hmansour/farmgate-pos/pkg/logger"
)

type loadCreateRequest struct {
	TruckID        uuid.UUID       `json:"truck_id" validate:"required"`
	LoadDate       string          `json:"load_date,omitempty"`
	TotalWeight    decimal.Decimal `json:"total_weight" validate:"required"`
	CagesCount     int             `json:"cages_count" validate:"required,min=1"`
	Notes          *string         `json:"notes,omitempty"`
	AllowOutOfBand bool            `json:"allow_out_of_band,omitempty"`
}

type loadStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// LoadCreate registers a morning truck load.
func LoadCreate(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "load service unavailable"))
			return
		}

		var req loadCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		loadDate, err := parseDate(req.LoadDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateLoad(r.Context(), loads.CreateLoadInput{
			TruckID:        req.TruckID,
			LoadDate:       loadDate,
			TotalWeight:    req.TotalWeight,
			CagesCount:     req.CagesCount,
			Notes:          sanitizeNotes(req.Notes),
			AllowOutOfBand: req.AllowOutOfBand,
		}, middleware.OperatorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessWarnings(w, http.StatusCreated, result.Load, result.Warnings)
	}
}

// LoadUpdateStatus advances a load through LOADED -> IN_TRANSIT -> COMPLETED.
func LoadUpdateStatus(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "load service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "loadID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid load id"))
			return
		}

		var req loadStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseLoadStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		load, err := svc.UpdateStatus(r.Context(), id, status, middleware.OperatorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, load)
	}
}

// LoadGet returns a single load.
func LoadGet(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "load service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "loadID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid load id"))
			return
		}

		load, err := svc.GetLoad(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, load)
	}
}

// LoadList returns the loads for one truck.
func LoadList(svc loads.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "load service unavailable"))
			return
		}

		truckID, err := uuid.Parse(r.URL.Query().Get("truck_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid truck id"))
			return
		}

		result, err := svc.ListByTruck(r.Context(), truckID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// sanitizeNotes trims operator-typed notes; barcode scanners in the field
// like to append whitespace.
func sanitizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	cleaned := validators.SanitizeString(*notes, 500)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid date, expected YYYY-MM-DD")
	}
	return parsed, nil
}
