package loads

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/pkg/db/models"
)

// Repository manages truck load persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, load *models.TruckLoad) (*models.TruckLoad, error)
	Update(ctx context.Context, load *models.TruckLoad) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.TruckLoad, error)
	ListByTruck(ctx context.Context, truckID uuid.UUID) ([]models.TruckLoad, error)
	SumWeightForTruckDate(ctx context.Context, truckID uuid.UUID, date time.Time) (decimal.Decimal, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a loads repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, load *models.TruckLoad) (*models.TruckLoad, error) {
	if err := r.db.WithContext(ctx).Create(load).Error; err != nil {
		return nil, err
	}
	return load, nil
}

func (r *repository) Update(ctx context.Context, load *models.TruckLoad) error {
	return r.db.WithContext(ctx).Save(load).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.TruckLoad, error) {
	var load models.TruckLoad
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&load).Error; err != nil {
		return nil, err
	}
	return &load, nil
}

func (r *repository) ListByTruck(ctx context.Context, truckID uuid.UUID) ([]models.TruckLoad, error) {
	var loads []models.TruckLoad
	err := r.db.WithContext(ctx).
		Where("truck_id = ?", truckID).
		Order("load_date DESC").
		Find(&loads).Error
	if err != nil {
		return nil, err
	}
	return loads, nil
}

func (r *repository) SumWeightForTruckDate(ctx context.Context, truckID uuid.UUID, date time.Time) (decimal.Decimal, error) {
	row := struct{ Total decimal.Decimal }{}
	err := r.db.WithContext(ctx).
		Model(&models.TruckLoad{}).
		Select("COALESCE(SUM(total_weight), 0) AS total").
		Where("truck_id = ? AND load_date = ?", truckID, date).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}
