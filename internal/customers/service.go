package customers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/internal/audit"
	"github.com/hmansour/farmgate-pos/internal/uow"
	"github.com/hmansour/farmgate-pos/pkg/db/models"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
	"github.com/hmansour/farmgate-pos/pkg/pagination"
)

// CreateCustomerInput carries the fields needed to register a customer.
type CreateCustomerInput struct {
	Name    string
	Phone   *string
	Address *string
}

// UpdateCustomerInput carries mutable customer fields. Nil pointers leave the
// current value untouched. TotalDebt is never updated here; it only moves
// through invoices and payments.
type UpdateCustomerInput struct {
	Name     *string
	Phone    *string
	Address  *string
	IsActive *bool
}

// ListCustomersInput filters and pages the customer list.
type ListCustomersInput struct {
	Search     string
	ActiveOnly bool
	Pagination pagination.Params
}

// CustomerPage is one page of customers, newest first.
type CustomerPage struct {
	Customers  []models.Customer `json:"customers"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// BalanceInfo is the customer's ledger position: the stored running debt plus
// the aggregates it must reconcile with.
type BalanceInfo struct {
	Customer          *models.Customer `json:"customer"`
	TotalInvoiced     decimal.Decimal  `json:"total_invoiced"`
	TotalPaid         decimal.Decimal  `json:"total_paid"`
	InvoiceCount      int64            `json:"invoice_count"`
	PaymentCount      int64            `json:"payment_count"`
	LastPaymentDate   *time.Time       `json:"last_payment_date,omitempty"`
	LastPaymentAmount *decimal.Decimal `json:"last_payment_amount,omitempty"`
	Consistent        bool             `json:"consistent"`
}

// Service defines customer master-data and balance operations.
type Service interface {
	CreateCustomer(ctx context.Context, input CreateCustomerInput, operatorID uuid.UUID) (*models.Customer, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, input UpdateCustomerInput, operatorID uuid.UUID) (*models.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	ListCustomers(ctx context.Context, input ListCustomersInput) (*CustomerPage, error)
	GetBalanceInfo(ctx context.Context, id uuid.UUID) (*BalanceInfo, error)
}

type service struct {
	repo Repository
	uow  *uow.Factory
}

// NewService wires the customer service.
func NewService(repo Repository, factory *uow.Factory) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customers: repository is required")
	}
	if factory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customers: uow factory is required")
	}
	return &service{repo: repo, uow: factory}, nil
}

func (s *service) CreateCustomer(ctx context.Context, input CreateCustomerInput, operatorID uuid.UUID) (*models.Customer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}

	unit := s.uow.New()
	if err := unit.Begin(ctx); err != nil {
		return nil, err
	}
	defer unit.Rollback()

	customer := &models.Customer{
		Name:      name,
		Phone:     input.Phone,
		Address:   input.Address,
		TotalDebt: decimal.Zero,
		IsActive:  true,
	}
	if _, err := s.repo.WithTx(unit.Tx()).Create(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}

	unit.Record(audit.Change{
		Table:     "customers",
		Operation: enums.AuditOperationInsert,
		EntityID:  customer.ID.String(),
		New:       audit.SnapshotCustomer(customer),
	})
	if err := unit.SaveChanges(ctx, operatorID); err != nil {
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *service) UpdateCustomer(ctx context.Context, id uuid.UUID, input UpdateCustomerInput, operatorID uuid.UUID) (*models.Customer, error) {
	unit := s.uow.New()
	if err := unit.Begin(ctx); err != nil {
		return nil, err
	}
	defer unit.Rollback()

	repo := s.repo.WithTx(unit.Tx())
	customer, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}

	before := audit.SnapshotCustomer(customer)
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name cannot be empty")
		}
		customer.Name = name
	}
	if input.Phone != nil {
		customer.Phone = input.Phone
	}
	if input.Address != nil {
		customer.Address = input.Address
	}
	if input.IsActive != nil {
		customer.IsActive = *input.IsActive
	}

	if err := repo.Update(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
	}

	unit.Record(audit.Change{
		Table:     "customers",
		Operation: enums.AuditOperationUpdate,
		EntityID:  customer.ID.String(),
		Old:       before,
		New:       audit.SnapshotCustomer(customer),
	})
	if err := unit.SaveChanges(ctx, operatorID); err != nil {
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *service) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return customer, nil
}

func (s *service) ListCustomers(ctx context.Context, input ListCustomersInput) (*CustomerPage, error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	customers, next, err := s.repo.List(ctx, ListParams{
		Search:     strings.TrimSpace(input.Search),
		ActiveOnly: input.ActiveOnly,
		Cursor:     cursor,
		Limit:      input.Pagination.Limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customers")
	}

	page := &CustomerPage{Customers: customers}
	if next != nil {
		page.NextCursor = pagination.EncodeCursor(*next)
	}
	return page, nil
}

// GetBalanceInfo reads the stored debt and the invoice/payment aggregates in
// one shot. Consistent is false when the running balance has drifted from
// invoiced-minus-paid; reconciliation surfaces those for review.
func (s *service) GetBalanceInfo(ctx context.Context, id uuid.UUID) (*BalanceInfo, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	agg, err := s.repo.Aggregates(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "aggregate customer ledger")
	}

	expected := agg.TotalInvoiced.Sub(agg.TotalPaid).Round(2)
	info := &BalanceInfo{
		Customer:      customer,
		TotalInvoiced: agg.TotalInvoiced.Round(2),
		TotalPaid:     agg.TotalPaid.Round(2),
		InvoiceCount:  agg.InvoiceCount,
		PaymentCount:  agg.PaymentCount,
		Consistent:    customer.TotalDebt.Equal(expected),
	}
	if agg.LastPayment != nil {
		info.LastPaymentDate = &agg.LastPayment.PaymentDate
		info.LastPaymentAmount = &agg.LastPayment.Amount
	}
	return info, nil
}
