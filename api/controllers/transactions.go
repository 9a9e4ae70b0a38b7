package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hmansour/farmgate-pos/api/middleware"
	"github.com/hmansour/farmgate-pos/api/responses"
	"github.com/hmansour/farmgate-pos/api/validators"
	"github.com/hmansour/farmgate-pos/internal/salestx"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
	"github.com/hmansour/farmgate-pos/pkg/logger"
)

type invoiceRequest struct {
	CustomerID         uuid.UUID       `json:"customer_id" validate:"required"`
	TruckID            uuid.UUID       `json:"truck_id" validate:"required"`
	GrossWeight        decimal.Decimal `json:"gross_weight" validate:"required"`
	CagesWeight        decimal.Decimal `json:"cages_weight"`
	CagesCount         int             `json:"cages_count" validate:"required,min=1"`
	UnitPrice          decimal.Decimal `json:"unit_price" validate:"required"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	AllowOutOfBand     bool            `json:"allow_out_of_band,omitempty"`
}

type transactionRequest struct {
	invoiceRequest
	PaymentAmount decimal.Decimal `json:"payment_amount" validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
	PaymentNotes  *string         `json:"payment_notes,omitempty"`
}

func (r invoiceRequest) toInput() salestx.InvoiceInput {
	return salestx.InvoiceInput{
		CustomerID:         r.CustomerID,
		TruckID:            r.TruckID,
		GrossWeight:        r.GrossWeight,
		CagesWeight:        r.CagesWeight,
		CagesCount:         r.CagesCount,
		UnitPrice:          r.UnitPrice,
		DiscountPercentage: r.DiscountPercentage,
		AllowOutOfBand:     r.AllowOutOfBand,
	}
}

// TransactionCreate processes a sale settled at the counter: invoice plus
// payment in one transaction.
func TransactionCreate(svc salestx.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		var req transactionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		result, err := svc.ProcessTransactionWithPayment(r.Context(), salestx.TransactionInput{
			Invoice:       req.invoiceRequest.toInput(),
			PaymentAmount: req.PaymentAmount,
			PaymentMethod: method,
			PaymentNotes:  sanitizeNotes(req.PaymentNotes),
		}, middleware.OperatorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessWarnings(w, http.StatusCreated, result, result.Warnings)
	}
}

// InvoiceCreate records a sale on credit.
func InvoiceCreate(svc salestx.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		var req invoiceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateInvoice(r.Context(), req.toInput(), middleware.OperatorIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessWarnings(w, http.StatusCreated, result, result.Warnings)
	}
}

// InvoiceGet returns one invoice with its payments.
func InvoiceGet(svc salestx.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid invoice id"))
			return
		}

		invoice, err := svc.GetInvoice(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, invoice)
	}
}

// InvoiceList returns a customer's invoices.
func InvoiceList(svc salestx.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transaction service unavailable"))
			return
		}

		customerID, err := uuid.Parse(r.URL.Query().Get("customer_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer id"))
			return
		}

		result, err := svc.ListInvoicesByCustomer(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
