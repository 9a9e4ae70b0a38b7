package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hmansour/farmgate-pos/api/middleware"
	"github.com/hmansour/farmgate-pos/api/responses"
	"github.com/hmansour/farmgate-pos/api/validators"
	"github.com/hmansour/farmgate-pos/internal/operators"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
	"github.com/hmansour/farmgate-pos/pkg/logger"
)

type operatorCreateRequest struct {
	LoginName   string `json:"login_name" validate:"required,min=1"`
	DisplayName string `json:"display_name" validate:"required,min=1"`
	PIN         string `json:"pin" validate:"required,min=4"`
	Role        string `json:"role" validate:"required"`
}

type operatorActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// OperatorCreate registers a terminal operator. Admin only.
func OperatorCreate(svc operators.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "operator service unavailable"))
			return
		}

		var req operatorCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := enums.ParseOperatorRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		operator, err := svc.CreateOperator(r.Context(), operators.CreateOperatorInput{
			LoginName:   req.LoginName,
			DisplayName: req.DisplayName,
			PIN:         req.PIN,
			Role:        role,
		}, middleware.OperatorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, operator)
	}
}

// OperatorList returns all operators. Admin only.
func OperatorList(svc operators.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "operator service unavailable"))
			return
		}

		result, err := svc.ListOperators(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// OperatorSetActive enables or disables an operator's terminal access.
func OperatorSetActive(svc operators.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "operator service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "operatorID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid operator id"))
			return
		}

		var req operatorActiveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		operator, err := svc.SetActive(r.Context(), id, *req.Active, middleware.OperatorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, operator)
	}
}
