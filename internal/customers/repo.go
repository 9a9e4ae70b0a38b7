package customers

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/pkg/db/models"
	"github.com/hmansour/farmgate-pos/pkg/pagination"
)

// BalanceAggregates holds the ledger sums used to cross-check TotalDebt.
type BalanceAggregates struct {
	TotalInvoiced decimal.Decimal
	TotalPaid     decimal.Decimal
	InvoiceCount  int64
	PaymentCount  int64
	LastPayment   *models.Payment
}

// ListParams filters and pages the customer list.
type ListParams struct {
	Search     string
	ActiveOnly bool
	Cursor     *pagination.Cursor
	Limit      int
}

// Repository manages customer persistence including the guarded debt ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, customer *models.Customer) (*models.Customer, error)
	Update(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, params ListParams) ([]models.Customer, *pagination.Cursor, error)
	AdjustDebt(ctx context.Context, customer *models.Customer, delta decimal.Decimal) (bool, error)
	Aggregates(ctx context.Context, customerID uuid.UUID) (*BalanceAggregates, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a customers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func (r *repository) Update(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]models.Customer, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Customer{})
	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if params.Search != "" {
		like := "%" + params.Search + "%"
		query = query.Where("name LIKE ? OR phone LIKE ?", like, like)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var customers []models.Customer
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&customers).Error; err != nil {
		return nil, nil, err
	}

	if len(customers) > normalized {
		customers = customers[:normalized]
		last := customers[normalized-1]
		return customers, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return customers, nil, nil
}

// AdjustDebt applies delta to the customer's debt with an optimistic version
// guard. It returns false when the row was changed by another transaction
// since the caller read it; in that case the in-memory customer is untouched.
// On success the customer's TotalDebt and Version reflect the new row state.
func (r *repository) AdjustDebt(ctx context.Context, customer *models.Customer, delta decimal.Decimal) (bool, error) {
	newDebt := customer.TotalDebt.Add(delta).Round(2)
	result := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ? AND version = ?", customer.ID, customer.Version).
		Updates(map[string]any{
			"total_debt": newDebt,
			"version":    customer.Version + 1,
		})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	customer.TotalDebt = newDebt
	customer.Version++
	return true, nil
}

func (r *repository) Aggregates(ctx context.Context, customerID uuid.UUID) (*BalanceAggregates, error) {
	agg := &BalanceAggregates{}

	invoiceRow := struct {
		Total decimal.Decimal
		Count int64
	}{}
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Select("COALESCE(SUM(final_amount), 0) AS total, COUNT(*) AS count").
		Where("customer_id = ?", customerID).
		Scan(&invoiceRow).Error
	if err != nil {
		return nil, err
	}
	agg.TotalInvoiced = invoiceRow.Total
	agg.InvoiceCount = invoiceRow.Count

	paymentRow := struct {
		Total decimal.Decimal
		Count int64
	}{}
	err = r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Where("customer_id = ?", customerID).
		Scan(&paymentRow).Error
	if err != nil {
		return nil, err
	}
	agg.TotalPaid = paymentRow.Total
	agg.PaymentCount = paymentRow.Count

	if agg.PaymentCount > 0 {
		var last models.Payment
		err = r.db.WithContext(ctx).
			Where("customer_id = ?", customerID).
			Order("payment_date DESC, created_at DESC").
			First(&last).Error
		if err != nil {
			return nil, err
		}
		agg.LastPayment = &last
	}

	return agg, nil
}
