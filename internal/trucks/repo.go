package trucks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/pkg/db/models"
)

// Repository manages truck persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, truck *models.Truck) (*models.Truck, error)
	Update(ctx context.Context, truck *models.Truck) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Truck, error)
	FindByNumber(ctx context.Context, number string) (*models.Truck, error)
	List(ctx context.Context, activeOnly bool) ([]models.Truck, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a trucks repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, truck *models.Truck) (*models.Truck, error) {
	if err := r.db.WithContext(ctx).Create(truck).Error; err != nil {
		return nil, err
	}
	return truck, nil
}

func (r *repository) Update(ctx context.Context, truck *models.Truck) error {
	return r.db.WithContext(ctx).Save(truck).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Truck{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Truck, error) {
	var truck models.Truck
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&truck).Error; err != nil {
		return nil, err
	}
	return &truck, nil
}

func (r *repository) FindByNumber(ctx context.Context, number string) (*models.Truck, error) {
	var truck models.Truck
	if err := r.db.WithContext(ctx).Where("number = ?", number).First(&truck).Error; err != nil {
		return nil, err
	}
	return &truck, nil
}

func (r *repository) List(ctx context.Context, activeOnly bool) ([]models.Truck, error) {
	query := r.db.WithContext(ctx).Order("number ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var trucks []models.Truck
	if err := query.Find(&trucks).Error; err != nil {
		return nil, err
	}
	return trucks, nil
}
