package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hmansour/farmgate-pos/api/middleware"
	"github.com/hmansour/farmgate-pos/api/responses"
	"github.com/hmansour/farmgate-pos/api/validators"
	"github.com/hmansour/farmgate-pos/internal/trucks"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
	"github.com/hmansour/farmgate-pos/pkg/logger"
)

type truckCreateRequest struct {
	Number     string `json:"number" validate:"required,min=1"`
	DriverName string `json:"driver_name" validate:"required,min=1"`
}

type truckUpdateRequest struct {
	DriverName *string `json:"driver_name,omitempty" validate:"omitempty,min=1"`
	IsActive   *bool   `json:"is_active,omitempty"`
}

// TruckCreate registers a truck.
func TruckCreate(svc trucks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "truck service unavailable"))
			return
		}

		var req truckCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		truck, err := svc.CreateTruck(r.Context(), trucks.CreateTruckInput{
			Number:     req.Number,
			DriverName: req.DriverName,
		}, middleware.OperatorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, truck)
	}
}

// TruckUpdate adjusts mutable truck fields.
func TruckUpdate(svc trucks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "truck service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "truckID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid truck id"))
			return
		}

		var req truckUpdateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		truck, err := svc.UpdateTruck(r.Context(), id, trucks.UpdateTruckInput{
			DriverName: req.DriverName,
			IsActive:   req.IsActive,
		}, middleware.OperatorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, truck)
	}
}

// TruckDelete removes a truck that has no recorded history.
func TruckDelete(svc trucks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "truck service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "truckID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid truck id"))
			return
		}

		if err := svc.DeleteTruck(r.Context(), id, middleware.OperatorIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// TruckGet returns a single truck.
func TruckGet(svc trucks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "truck service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "truckID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid truck id"))
			return
		}

		truck, err := svc.GetTruck(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, truck)
	}
}

// TruckList returns the fleet, optionally active trucks only.
func TruckList(svc trucks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "truck service unavailable"))
			return
		}

		activeOnly := r.URL.Query().Get("active") == "true"
		result, err := svc.ListTrucks(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
