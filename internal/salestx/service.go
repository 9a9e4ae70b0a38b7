package salestx

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/internal/audit"
	"github.com/hmansour/farmgate-pos/internal/customers"
	"github.com/hmansour/farmgate-pos/internal/ledgercalc"
	"github.com/hmansour/farmgate-pos/internal/payments"
	"github.com/hmansour/farmgate-pos/internal/trucks"
	"github.com/hmansour/farmgate-pos/internal/uow"
	"github.com/hmansour/farmgate-pos/pkg/config"
	"github.com/hmansour/farmgate-pos/pkg/db"
	"github.com/hmansour/farmgate-pos/pkg/db/models"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
	"github.com/hmansour/farmgate-pos/pkg/metrics"
)

// invoice numbers are sequential per day; two terminals racing on the same
// sequence lose on the unique constraint and the whole transaction retries.
var errNumberCollision = stdErrors.New("invoice number collision")

const maxNumberRetries = 3

const overpaymentNote = "overpayment credit"

// InvoiceInput carries the raw figures of a slaughter sale.
type InvoiceInput struct {
	CustomerID         uuid.UUID
	TruckID            uuid.UUID
	InvoiceDate        time.Time
	GrossWeight        decimal.Decimal
	CagesWeight        decimal.Decimal
	CagesCount         int
	UnitPrice          decimal.Decimal
	DiscountPercentage decimal.Decimal
	AllowOutOfBand     bool
}

// PaymentInput carries a debt-reducing payment. InvoiceID links the payment
// to a specific invoice; nil means a general debt reduction.
type PaymentInput struct {
	CustomerID  uuid.UUID
	InvoiceID   *uuid.UUID
	PaymentDate time.Time
	Amount      decimal.Decimal
	Method      enums.PaymentMethod
	Notes       *string
}

// TransactionInput is a sale settled (fully or partially) at the counter.
type TransactionInput struct {
	Invoice       InvoiceInput
	PaymentAmount decimal.Decimal
	PaymentMethod enums.PaymentMethod
	PaymentNotes  *string
}

// TransactionResult is the committed outcome of a sale or payment operation.
// Customer reflects the post-commit debt and version; the monetary summary
// fields are what the counter terminal prints on the receipt.
type TransactionResult struct {
	Success           bool             `json:"success"`
	Invoice           *models.Invoice  `json:"invoice,omitempty"`
	Payments          []models.Payment `json:"payments,omitempty"`
	Customer          *models.Customer `json:"customer"`
	AmountDue         decimal.Decimal  `json:"amount_due"`
	AmountReceived    decimal.Decimal  `json:"amount_received"`
	RemainingBalance  decimal.Decimal  `json:"remaining_balance"`
	OverpaymentAmount decimal.Decimal  `json:"overpayment_amount"`
	Message           string           `json:"message"`
	Warnings          []string         `json:"warnings,omitempty"`
}

// Service is the transactional core: every operation here either commits all
// of its rows (invoice, payments, customer debt, audit trail) or none.
type Service interface {
	ProcessTransactionWithPayment(ctx context.Context, input TransactionInput, operatorID uuid.UUID) (*TransactionResult, error)
	CreateInvoice(ctx context.Context, input InvoiceInput, operatorID uuid.UUID) (*TransactionResult, error)
	ProcessPaymentOnly(ctx context.Context, input PaymentInput, operatorID uuid.UUID) (*TransactionResult, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	ListInvoicesByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Invoice, error)
	GetCustomerBalanceInfo(ctx context.Context, customerID uuid.UUID) (*customers.BalanceInfo, error)
}

type service struct {
	invoices  Repository
	customers customers.Repository
	payments  payments.Repository
	trucks    trucks.Repository
	balances  customers.Service
	uow       *uow.Factory
	metrics   *metrics.TransactionMetrics
	sanity    config.SanityConfig
	now       func() time.Time
}

// NewService wires the sales transaction service.
func NewService(
	invoiceRepo Repository,
	customerRepo customers.Repository,
	paymentRepo payments.Repository,
	truckRepo trucks.Repository,
	customerSvc customers.Service,
	factory *uow.Factory,
	txMetrics *metrics.TransactionMetrics,
	sanity config.SanityConfig,
) (Service, error) {
	if invoiceRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "salestx: invoice repository is required")
	}
	if customerRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "salestx: customer repository is required")
	}
	if paymentRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "salestx: payment repository is required")
	}
	if truckRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "salestx: truck repository is required")
	}
	if customerSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "salestx: customer service is required")
	}
	if factory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "salestx: uow factory is required")
	}
	return &service{
		invoices:  invoiceRepo,
		customers: customerRepo,
		payments:  paymentRepo,
		trucks:    truckRepo,
		balances:  customerSvc,
		uow:       factory,
		metrics:   txMetrics,
		sanity:    sanity,
		now:       time.Now,
	}, nil
}

// ProcessTransactionWithPayment creates the invoice and applies the payment
// against it in one transaction. A zero amount skips the payment step and
// books the sale on credit; a payment above the invoice's final amount is
// split into a linked settlement plus an unlinked overpayment credit.
func (s *service) ProcessTransactionWithPayment(ctx context.Context, input TransactionInput, operatorID uuid.UUID) (*TransactionResult, error) {
	const operation = "transaction_with_payment"
	start := s.now()

	received := input.PaymentAmount.Round(2)
	if received.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount cannot be negative")
	}
	if received.IsPositive() && !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	result, err := s.withNumberRetry(func() (*TransactionResult, error) {
		unit := s.uow.New()
		if err := unit.Begin(ctx); err != nil {
			return nil, err
		}
		defer unit.Rollback()

		invoice, customer, warnings, err := s.createInvoiceTx(ctx, unit, input.Invoice)
		if err != nil {
			return nil, err
		}

		var applied []models.Payment
		remaining := invoice.FinalAmount
		if received.IsPositive() {
			applied, remaining, err = s.applyPaymentTx(ctx, unit, customer, invoice, appliedPayment{
				date:   invoice.InvoiceDate,
				amount: received,
				method: input.PaymentMethod,
				notes:  input.PaymentNotes,
			})
			if err != nil {
				return nil, err
			}
		}

		if err := unit.SaveChanges(ctx, operatorID); err != nil {
			return nil, err
		}
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}

		overpayment := received.Sub(invoice.FinalAmount)
		if overpayment.IsNegative() {
			overpayment = decimal.Zero
		}
		return &TransactionResult{
			Success:           true,
			Invoice:           invoice,
			Payments:          applied,
			Customer:          customer,
			AmountDue:         invoice.FinalAmount,
			AmountReceived:    received,
			RemainingBalance:  remaining,
			OverpaymentAmount: overpayment,
			Message:           summaryMessage(invoice, received, remaining, overpayment),
			Warnings:          warnings,
		}, nil
	})

	s.metrics.ObserveDuration(operation, s.now().Sub(start))
	if err != nil {
		s.metrics.IncRolledBack(operation)
		return nil, err
	}
	s.metrics.IncCommitted(operation)
	return result, nil
}

// CreateInvoice records a sale on credit: the invoice is written and the full
// final amount lands on the customer's debt.
func (s *service) CreateInvoice(ctx context.Context, input InvoiceInput, operatorID uuid.UUID) (*TransactionResult, error) {
	const operation = "invoice_only"
	start := s.now()

	result, err := s.withNumberRetry(func() (*TransactionResult, error) {
		unit := s.uow.New()
		if err := unit.Begin(ctx); err != nil {
			return nil, err
		}
		defer unit.Rollback()

		invoice, customer, warnings, err := s.createInvoiceTx(ctx, unit, input)
		if err != nil {
			return nil, err
		}
		if err := unit.SaveChanges(ctx, operatorID); err != nil {
			return nil, err
		}
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		return &TransactionResult{
			Success:           true,
			Invoice:           invoice,
			Customer:          customer,
			AmountDue:         invoice.FinalAmount,
			AmountReceived:    decimal.Zero,
			RemainingBalance:  invoice.FinalAmount,
			OverpaymentAmount: decimal.Zero,
			Message:           summaryMessage(invoice, decimal.Zero, invoice.FinalAmount, decimal.Zero),
			Warnings:          warnings,
		}, nil
	})

	s.metrics.ObserveDuration(operation, s.now().Sub(start))
	if err != nil {
		s.metrics.IncRolledBack(operation)
		return nil, err
	}
	s.metrics.IncCommitted(operation)
	return result, nil
}

// ProcessPaymentOnly records a standalone payment against the customer's
// debt. When linked to an invoice, any surplus above the invoice's remaining
// balance becomes an unlinked overpayment credit.
func (s *service) ProcessPaymentOnly(ctx context.Context, input PaymentInput, operatorID uuid.UUID) (*TransactionResult, error) {
	const operation = "payment_only"
	start := s.now()

	if err := validatePaymentInput(input); err != nil {
		return nil, err
	}

	unit := s.uow.New()
	if err := unit.Begin(ctx); err != nil {
		return nil, err
	}
	defer unit.Rollback()

	customer, err := s.loadCustomerTx(ctx, unit)(input.CustomerID)
	if err != nil {
		s.metrics.IncRolledBack(operation)
		return nil, err
	}

	var invoice *models.Invoice
	if input.InvoiceID != nil {
		invoice, err = s.invoices.WithTx(unit.Tx()).FindByID(ctx, *input.InvoiceID)
		if err != nil {
			s.metrics.IncRolledBack(operation)
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
		}
		if invoice.CustomerID != customer.ID {
			s.metrics.IncRolledBack(operation)
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice belongs to a different customer")
		}
	}

	paymentDate := input.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = s.now()
	}
	received := input.Amount.Round(2)
	applied, remaining, err := s.applyPaymentTx(ctx, unit, customer, invoice, appliedPayment{
		date:   paymentDate,
		amount: received,
		method: input.Method,
		notes:  input.Notes,
	})
	if err != nil {
		s.metrics.IncRolledBack(operation)
		return nil, err
	}

	if err := unit.SaveChanges(ctx, operatorID); err != nil {
		s.metrics.IncRolledBack(operation)
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		s.metrics.IncRolledBack(operation)
		return nil, err
	}

	due := decimal.Zero
	overpayment := decimal.Zero
	if invoice != nil {
		due = invoice.FinalAmount
		for _, row := range applied {
			if row.InvoiceID == nil {
				overpayment = overpayment.Add(row.Amount)
			}
		}
	}

	s.metrics.ObserveDuration(operation, s.now().Sub(start))
	s.metrics.IncCommitted(operation)
	return &TransactionResult{
		Success:           true,
		Invoice:           invoice,
		Payments:          applied,
		Customer:          customer,
		AmountDue:         due,
		AmountReceived:    received,
		RemainingBalance:  remaining,
		OverpaymentAmount: overpayment,
		Message:           summaryMessage(invoice, received, remaining, overpayment),
	}, nil
}

func (s *service) GetInvoice(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return invoice, nil
}

func (s *service) ListInvoicesByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Invoice, error) {
	invoices, err := s.invoices.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list invoices")
	}
	return invoices, nil
}

func (s *service) GetCustomerBalanceInfo(ctx context.Context, customerID uuid.UUID) (*customers.BalanceInfo, error) {
	return s.balances.GetBalanceInfo(ctx, customerID)
}

// createInvoiceTx validates, derives the figures, writes the invoice and
// moves the customer's debt, all inside the unit's transaction.
func (s *service) createInvoiceTx(ctx context.Context, unit *uow.UnitOfWork, input InvoiceInput) (*models.Invoice, *models.Customer, []string, error) {
	warnings, err := validateInvoiceInput(input, s.sanity)
	if err != nil {
		return nil, nil, nil, err
	}

	customer, err := s.loadCustomerTx(ctx, unit)(input.CustomerID)
	if err != nil {
		return nil, nil, nil, err
	}
	if _, err := s.trucks.WithTx(unit.Tx()).FindByID(ctx, input.TruckID); err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "truck not found")
		}
		return nil, nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load truck")
	}

	invoiceDate := input.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = s.now()
	}

	calc := ledgercalc.Calculate(ledgercalc.Input{
		GrossWeight:        input.GrossWeight,
		CagesWeight:        input.CagesWeight,
		CagesCount:         input.CagesCount,
		UnitPrice:          input.UnitPrice,
		DiscountPercentage: input.DiscountPercentage,
		PreviousBalance:    customer.TotalDebt,
	})

	repo := s.invoices.WithTx(unit.Tx())
	number, err := s.nextInvoiceNumber(ctx, repo, invoiceDate)
	if err != nil {
		return nil, nil, nil, err
	}

	customerSnapshot := audit.SnapshotCustomer(customer)
	invoice := &models.Invoice{
		Number:             number,
		CustomerID:         customer.ID,
		TruckID:            input.TruckID,
		InvoiceDate:        invoiceDate,
		GrossWeight:        input.GrossWeight.Round(2),
		CagesWeight:        input.CagesWeight.Round(2),
		CagesCount:         input.CagesCount,
		NetWeight:          calc.NetWeight,
		UnitPrice:          input.UnitPrice.Round(2),
		TotalAmount:        calc.TotalAmount,
		DiscountPercentage: input.DiscountPercentage.Round(2),
		FinalAmount:        calc.FinalAmount,
		PreviousBalance:    calc.PreviousBalance,
		CurrentBalance:     calc.CurrentBalance,
	}
	if _, err := repo.Create(ctx, invoice); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, nil, nil, fmt.Errorf("%w: %s", errNumberCollision, number)
		}
		return nil, nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create invoice")
	}

	if err := s.adjustDebtTx(ctx, unit, customer, calc.FinalAmount, customerSnapshot); err != nil {
		return nil, nil, nil, err
	}

	unit.Record(audit.Change{
		Table:     "invoices",
		Operation: enums.AuditOperationInsert,
		EntityID:  invoice.ID.String(),
		New:       audit.SnapshotInvoice(invoice),
	})
	return invoice, customer, warnings, nil
}

type appliedPayment struct {
	date   time.Time
	amount decimal.Decimal
	method enums.PaymentMethod
	notes  *string
}

// applyPaymentTx writes the payment rows and reduces the customer's debt by
// the full amount. With a linked invoice the amount is capped at the
// invoice's remaining balance; the surplus becomes an unlinked credit. The
// returned decimal is the invoice's outstanding balance after this payment
// (zero when no invoice is linked). The amount is rounded to 2dp once here so
// the debt delta and the payment rows always agree to the cent.
func (s *service) applyPaymentTx(ctx context.Context, unit *uow.UnitOfWork, customer *models.Customer, invoice *models.Invoice, input appliedPayment) ([]models.Payment, decimal.Decimal, error) {
	repo := s.payments.WithTx(unit.Tx())

	var rows []models.Payment
	amount := input.amount.Round(2)
	remaining := amount
	afterBalance := decimal.Zero

	if invoice != nil {
		alreadyPaid, err := repo.SumForInvoice(ctx, invoice.ID)
		if err != nil {
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum invoice payments")
		}
		outstanding := invoice.FinalAmount.Sub(alreadyPaid)
		if outstanding.IsNegative() {
			outstanding = decimal.Zero
		}
		linked := decimal.Min(remaining, outstanding)
		if linked.IsPositive() {
			invoiceID := invoice.ID
			rows = append(rows, models.Payment{
				CustomerID:    customer.ID,
				InvoiceID:     &invoiceID,
				PaymentDate:   input.date,
				Amount:        linked,
				PaymentMethod: input.method,
				Notes:         input.notes,
			})
			remaining = remaining.Sub(linked)
		}
		afterBalance = outstanding.Sub(linked)
	}

	if remaining.IsPositive() {
		notes := input.notes
		if invoice != nil {
			credit := overpaymentNote
			notes = &credit
			s.metrics.IncOverpaymentSplit()
		}
		rows = append(rows, models.Payment{
			CustomerID:    customer.ID,
			PaymentDate:   input.date,
			Amount:        remaining,
			PaymentMethod: input.method,
			Notes:         notes,
		})
	}

	customerSnapshot := audit.SnapshotCustomer(customer)
	for i := range rows {
		if _, err := repo.Create(ctx, &rows[i]); err != nil {
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}
		unit.Record(audit.Change{
			Table:     "payments",
			Operation: enums.AuditOperationInsert,
			EntityID:  rows[i].ID.String(),
			New:       audit.SnapshotPayment(&rows[i]),
		})
	}

	if err := s.adjustDebtTx(ctx, unit, customer, amount.Neg(), customerSnapshot); err != nil {
		return nil, decimal.Zero, err
	}
	return rows, afterBalance, nil
}

// summaryMessage is the receipt line for a committed operation.
func summaryMessage(invoice *models.Invoice, received, remaining, overpayment decimal.Decimal) string {
	if invoice == nil {
		return fmt.Sprintf("payment of %s received on account", received.StringFixed(2))
	}
	due := invoice.FinalAmount.StringFixed(2)
	switch {
	case received.IsZero():
		return fmt.Sprintf("invoice %s for %s recorded on credit", invoice.Number, due)
	case overpayment.IsPositive():
		return fmt.Sprintf("invoice %s for %s settled, overpayment of %s credited", invoice.Number, due, overpayment.StringFixed(2))
	case remaining.IsPositive():
		return fmt.Sprintf("invoice %s for %s, received %s, %s remaining", invoice.Number, due, received.StringFixed(2), remaining.StringFixed(2))
	default:
		return fmt.Sprintf("invoice %s for %s settled in full", invoice.Number, due)
	}
}

// adjustDebtTx moves the customer's running debt under the optimistic version
// guard. A lost race surfaces as a retryable concurrency conflict carrying
// the refreshed customer state.
func (s *service) adjustDebtTx(ctx context.Context, unit *uow.UnitOfWork, customer *models.Customer, delta decimal.Decimal, before map[string]any) error {
	repo := s.customers.WithTx(unit.Tx())
	ok, err := repo.AdjustDebt(ctx, customer, delta)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust customer debt")
	}
	if !ok {
		s.metrics.IncConcurrencyConflict()
		details := map[string]any{"customer_id": customer.ID.String()}
		// read the fresh row outside the aborting transaction
		if fresh, ferr := s.customers.FindByID(ctx, customer.ID); ferr == nil {
			details["current_version"] = fresh.Version
			details["total_debt"] = fresh.TotalDebt.StringFixed(2)
		}
		return pkgerrors.New(pkgerrors.CodeConcurrency, "customer balance changed concurrently").
			WithDetails(details)
	}

	unit.Record(audit.Change{
		Table:     "customers",
		Operation: enums.AuditOperationUpdate,
		EntityID:  customer.ID.String(),
		Old:       before,
		New:       audit.SnapshotCustomer(customer),
	})
	return nil
}

func (s *service) loadCustomerTx(ctx context.Context, unit *uow.UnitOfWork) func(uuid.UUID) (*models.Customer, error) {
	return func(id uuid.UUID) (*models.Customer, error) {
		customer, err := s.customers.WithTx(unit.Tx()).FindByID(ctx, id)
		if err != nil {
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
		}
		if !customer.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer is inactive")
		}
		return customer, nil
	}
}

func (s *service) nextInvoiceNumber(ctx context.Context, repo Repository, invoiceDate time.Time) (string, error) {
	count, err := repo.CountForDay(ctx, invoiceDate)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count invoices")
	}
	return fmt.Sprintf("INV-%s-%04d", invoiceDate.UTC().Format("20060102"), count+1), nil
}

func (s *service) withNumberRetry(fn func() (*TransactionResult, error)) (*TransactionResult, error) {
	var lastErr error
	for attempt := 0; attempt < maxNumberRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !stdErrors.Is(err, errNumberCollision) {
			return nil, err
		}
		lastErr = err
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "could not allocate invoice number")
}
