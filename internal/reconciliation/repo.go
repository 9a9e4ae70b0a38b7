package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/pkg/db/models"
)

// Repository manages daily reconciliation persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rec *models.DailyReconciliation) (*models.DailyReconciliation, error)
	Update(ctx context.Context, rec *models.DailyReconciliation) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.DailyReconciliation, error)
	FindByTruckDate(ctx context.Context, truckID uuid.UUID, date time.Time) (*models.DailyReconciliation, error)
	ListByDate(ctx context.Context, date time.Time) ([]models.DailyReconciliation, error)
	SumSoldWeightForTruckDate(ctx context.Context, truckID uuid.UUID, date time.Time) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reconciliation repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, rec *models.DailyReconciliation) (*models.DailyReconciliation, error) {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *repository) Update(ctx context.Context, rec *models.DailyReconciliation) error {
	return r.db.WithContext(ctx).Save(rec).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DailyReconciliation, error) {
	var rec models.DailyReconciliation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) FindByTruckDate(ctx context.Context, truckID uuid.UUID, date time.Time) (*models.DailyReconciliation, error) {
	var rec models.DailyReconciliation
	err := r.db.WithContext(ctx).
		Where("truck_id = ? AND date = ?", truckID, date).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) ListByDate(ctx context.Context, date time.Time) ([]models.DailyReconciliation, error) {
	var recs []models.DailyReconciliation
	err := r.db.WithContext(ctx).
		Where("date = ?", date).
		Order("created_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// SumSoldWeightForTruckDate totals the net weight invoiced off a truck on a
// given calendar day.
func (r *repository) SumSoldWeightForTruckDate(ctx context.Context, truckID uuid.UUID, date time.Time) (decimal.Decimal, error) {
	dayStart := date
	dayEnd := date.Add(24 * time.Hour)
	row := struct{ Total decimal.Decimal }{}
	err := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Select("COALESCE(SUM(net_weight), 0) AS total").
		Where("truck_id = ? AND invoice_date >= ? AND invoice_date < ?", truckID, dayStart, dayEnd).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}
