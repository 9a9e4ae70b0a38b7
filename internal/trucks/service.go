package trucks

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/internal/audit"
	"github.com/hmansour/farmgate-pos/internal/uow"
	"github.com/hmansour/farmgate-pos/pkg/db"
	"github.com/hmansour/farmgate-pos/pkg/db/models"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
)

// CreateTruckInput carries the fields needed to register a truck.
type CreateTruckInput struct {
	Number     string
	DriverName string
}

// UpdateTruckInput carries mutable truck fields. Nil pointers leave the
// current value untouched.
type UpdateTruckInput struct {
	DriverName *string
	IsActive   *bool
}

// Service defines truck fleet operations.
type Service interface {
	CreateTruck(ctx context.Context, input CreateTruckInput, operatorID uuid.UUID) (*models.Truck, error)
	UpdateTruck(ctx context.Context, id uuid.UUID, input UpdateTruckInput, operatorID uuid.UUID) (*models.Truck, error)
	DeleteTruck(ctx context.Context, id uuid.UUID, operatorID uuid.UUID) error
	GetTruck(ctx context.Context, id uuid.UUID) (*models.Truck, error)
	ListTrucks(ctx context.Context, activeOnly bool) ([]models.Truck, error)
}

type service struct {
	repo Repository
	uow  *uow.Factory
}

// NewService wires the truck service.
func NewService(repo Repository, factory *uow.Factory) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "trucks: repository is required")
	}
	if factory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "trucks: uow factory is required")
	}
	return &service{repo: repo, uow: factory}, nil
}

func (s *service) CreateTruck(ctx context.Context, input CreateTruckInput, operatorID uuid.UUID) (*models.Truck, error) {
	number := strings.TrimSpace(input.Number)
	driver := strings.TrimSpace(input.DriverName)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "truck number is required")
	}
	if driver == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver name is required")
	}

	unit := s.uow.New()
	if err := unit.Begin(ctx); err != nil {
		return nil, err
	}
	defer unit.Rollback()

	truck := &models.Truck{Number: number, DriverName: driver, IsActive: true}
	if _, err := s.repo.WithTx(unit.Tx()).Create(ctx, truck); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "truck number already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create truck")
	}

	unit.Record(audit.Change{
		Table:     "trucks",
		Operation: enums.AuditOperationInsert,
		EntityID:  truck.ID.String(),
		New:       audit.SnapshotTruck(truck),
	})
	if err := unit.SaveChanges(ctx, operatorID); err != nil {
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, err
	}
	return truck, nil
}

func (s *service) UpdateTruck(ctx context.Context, id uuid.UUID, input UpdateTruckInput, operatorID uuid.UUID) (*models.Truck, error) {
	unit := s.uow.New()
	if err := unit.Begin(ctx); err != nil {
		return nil, err
	}
	defer unit.Rollback()

	repo := s.repo.WithTx(unit.Tx())
	truck, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "truck not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load truck")
	}

	before := audit.SnapshotTruck(truck)
	if input.DriverName != nil {
		driver := strings.TrimSpace(*input.DriverName)
		if driver == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "driver name cannot be empty")
		}
		truck.DriverName = driver
	}
	if input.IsActive != nil {
		truck.IsActive = *input.IsActive
	}

	if err := repo.Update(ctx, truck); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update truck")
	}

	unit.Record(audit.Change{
		Table:     "trucks",
		Operation: enums.AuditOperationUpdate,
		EntityID:  truck.ID.String(),
		Old:       before,
		New:       audit.SnapshotTruck(truck),
	})
	if err := unit.SaveChanges(ctx, operatorID); err != nil {
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, err
	}
	return truck, nil
}

// DeleteTruck removes a truck with no history. Trucks referenced by loads,
// invoices, or reconciliations are protected by FK restriction; those should
// be deactivated instead.
func (s *service) DeleteTruck(ctx context.Context, id uuid.UUID, operatorID uuid.UUID) error {
	unit := s.uow.New()
	if err := unit.Begin(ctx); err != nil {
		return err
	}
	defer unit.Rollback()

	repo := s.repo.WithTx(unit.Tx())
	truck, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "truck not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load truck")
	}

	if err := repo.Delete(ctx, id); err != nil {
		if db.IsForeignKeyViolation(err) {
			return pkgerrors.New(pkgerrors.CodeConflict, "truck has recorded history, deactivate it instead")
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "truck not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete truck")
	}

	unit.Record(audit.Change{
		Table:     "trucks",
		Operation: enums.AuditOperationDelete,
		EntityID:  truck.ID.String(),
		Old:       audit.SnapshotTruck(truck),
	})
	if err := unit.SaveChanges(ctx, operatorID); err != nil {
		return err
	}
	return unit.Commit(ctx)
}

func (s *service) GetTruck(ctx context.Context, id uuid.UUID) (*models.Truck, error) {
	truck, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "truck not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load truck")
	}
	return truck, nil
}

func (s *service) ListTrucks(ctx context.Context, activeOnly bool) ([]models.Truck, error) {
	trucks, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list trucks")
	}
	return trucks, nil
}
