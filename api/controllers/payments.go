package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hmansour/farmgate-pos/api/middleware"
	"github.com/hmansour/farmgate-pos/api/responses"
	"github.com/hmansour/farmgate-pos/api/validators"
	"github.com/hmansour/farmgate-pos/internal/payments"
	"github.com/hmansour/farmgate-pos/internal/salestx"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
	"github.com/hmansour/farmgate-pos/pkg/logger"
)

type paymentRequest struct {
	CustomerID uuid.UUID       `json:"customer_id" validate:"required"`
	InvoiceID  *uuid.UUID      `json:"invoice_id,omitempty"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
	Method     string          `json:"method" validate:"required"`
	Notes      *string         `json:"notes,omitempty"`
}

// PaymentCreate records a standalone debt payment.
func PaymentCreate(svc salestx.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		var req paymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(req.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		result, err := svc.ProcessPaymentOnly(r.Context(), salestx.PaymentInput{
			CustomerID: req.CustomerID,
			InvoiceID:  req.InvoiceID,
			Amount:     req.Amount,
			Method:     method,
			Notes:      sanitizeNotes(req.Notes),
		}, middleware.OperatorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentList returns payments filtered by customer or invoice.
func PaymentList(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		query := r.URL.Query()
		if raw := query.Get("invoice_id"); raw != "" {
			invoiceID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice id"))
				return
			}
			result, err := svc.ListByInvoice(r.Context(), invoiceID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, result)
			return
		}

		customerID, err := uuid.Parse(query.Get("customer_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}
		result, err := svc.ListByCustomer(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
