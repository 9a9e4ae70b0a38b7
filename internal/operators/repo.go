package operators

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/pkg/db/models"
)

// Repository manages operator persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, operator *models.Operator) (*models.Operator, error)
	Update(ctx context.Context, operator *models.Operator) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Operator, error)
	FindByLoginName(ctx context.Context, loginName string) (*models.Operator, error)
	List(ctx context.Context) ([]models.Operator, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an operators repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, operator *models.Operator) (*models.Operator, error) {
	if err := r.db.WithContext(ctx).Create(operator).Error; err != nil {
		return nil, err
	}
	return operator, nil
}

func (r *repository) Update(ctx context.Context, operator *models.Operator) error {
	return r.db.WithContext(ctx).Save(operator).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Operator, error) {
	var operator models.Operator
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&operator).Error; err != nil {
		return nil, err
	}
	return &operator, nil
}

func (r *repository) FindByLoginName(ctx context.Context, loginName string) (*models.Operator, error) {
	var operator models.Operator
	if err := r.db.WithContext(ctx).Where("login_name = ?", loginName).First(&operator).Error; err != nil {
		return nil, err
	}
	return &operator, nil
}

func (r *repository) List(ctx context.Context) ([]models.Operator, error) {
	var result []models.Operator
	if err := r.db.WithContext(ctx).Order("login_name ASC").Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}
