package controllers

import (
	"net/http"

	"github.com/hmansour/farmgate-pos/api/responses"
	"github.com/hmansour/farmgate-pos/api/validators"
	"github.com/hmansour/farmgate-pos/internal/operators"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
	"github.com/hmansour/farmgate-pos/pkg/logger"
)

type loginRequest struct {
	LoginName string `json:"login_name" validate:"required,min=1"`
	PIN       string `json:"pin" validate:"required,min=4"`
}

// Login authenticates an operator by login name and PIN.
func Login(svc operators.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "operator service unavailable"))
			return
		}

		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), operators.LoginInput{
			LoginName: req.LoginName,
			PIN:       req.PIN,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
