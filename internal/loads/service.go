package loads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/internal/audit"
	"github.com/hmansour/farmgate-pos/internal/trucks"
	"github.com/hmansour/farmgate-pos/internal/uow"
	"github.com/hmansour/farmgate-pos/pkg/config"
	"github.com/hmansour/farmgate-pos/pkg/db/models"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
)

// CreateLoadInput carries the fields needed to register a morning load.
type CreateLoadInput struct {
	TruckID        uuid.UUID
	LoadDate       time.Time
	TotalWeight    decimal.Decimal
	CagesCount     int
	Notes          *string
	AllowOutOfBand bool
}

// LoadResult pairs a persisted load with any sanity warnings raised while
// accepting it.
type LoadResult struct {
	Load     *models.TruckLoad `json:"load"`
	Warnings []string          `json:"warnings,omitempty"`
}

// Service defines truck load operations.
type Service interface {
	CreateLoad(ctx context.Context, input CreateLoadInput, operatorID uuid.UUID) (*LoadResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, target enums.LoadStatus, operatorID uuid.UUID) (*models.TruckLoad, error)
	GetLoad(ctx context.Context, id uuid.UUID) (*models.TruckLoad, error)
	ListByTruck(ctx context.Context, truckID uuid.UUID) ([]models.TruckLoad, error)
}

type service struct {
	repo   Repository
	trucks trucks.Repository
	uow    *uow.Factory
	sanity config.SanityConfig
}

// NewService wires the load service.
func NewService(repo Repository, truckRepo trucks.Repository, factory *uow.Factory, sanity config.SanityConfig) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "loads: repository is required")
	}
	if truckRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "loads: truck repository is required")
	}
	if factory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "loads: uow factory is required")
	}
	return &service{repo: repo, trucks: truckRepo, uow: factory, sanity: sanity}, nil
}

func (s *service) CreateLoad(ctx context.Context, input CreateLoadInput, operatorID uuid.UUID) (*LoadResult, error) {
	if input.TotalWeight.LessThanOrEqual(decimal.Zero) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total weight must be positive")
	}
	if input.CagesCount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cages count must be positive")
	}

	warnings, err := s.checkWeightBand(input.TotalWeight, input.CagesCount, input.AllowOutOfBand)
	if err != nil {
		return nil, err
	}

	unit := s.uow.New()
	if err := unit.Begin(ctx); err != nil {
		return nil, err
	}
	defer unit.Rollback()

	if _, err := s.trucks.WithTx(unit.Tx()).FindByID(ctx, input.TruckID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "truck not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load truck")
	}

	load := &models.TruckLoad{
		TruckID:     input.TruckID,
		LoadDate:    normalizeDate(input.LoadDate),
		TotalWeight: input.TotalWeight.Round(2),
		CagesCount:  input.CagesCount,
		Status:      enums.LoadStatusLoaded,
		Notes:       input.Notes,
	}
	if _, err := s.repo.WithTx(unit.Tx()).Create(ctx, load); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create load")
	}

	unit.Record(audit.Change{
		Table:     "truck_loads",
		Operation: enums.AuditOperationInsert,
		EntityID:  load.ID.String(),
		New:       audit.SnapshotTruckLoad(load),
	})
	if err := unit.SaveChanges(ctx, operatorID); err != nil {
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, err
	}
	return &LoadResult{Load: load, Warnings: warnings}, nil
}

// UpdateStatus advances a load through its day. Transitions only move
// forward; anything else is a state conflict.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, target enums.LoadStatus, operatorID uuid.UUID) (*models.TruckLoad, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown load status")
	}

	unit := s.uow.New()
	if err := unit.Begin(ctx); err != nil {
		return nil, err
	}
	defer unit.Rollback()

	repo := s.repo.WithTx(unit.Tx())
	load, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "load not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load truck load")
	}

	if !load.Status.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move load from %s to %s", load.Status, target))
	}

	before := audit.SnapshotTruckLoad(load)
	load.Status = target
	if err := repo.Update(ctx, load); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update load status")
	}

	unit.Record(audit.Change{
		Table:     "truck_loads",
		Operation: enums.AuditOperationUpdate,
		EntityID:  load.ID.String(),
		Old:       before,
		New:       audit.SnapshotTruckLoad(load),
	})
	if err := unit.SaveChanges(ctx, operatorID); err != nil {
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, err
	}
	return load, nil
}

func (s *service) GetLoad(ctx context.Context, id uuid.UUID) (*models.TruckLoad, error) {
	load, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "load not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load truck load")
	}
	return load, nil
}

func (s *service) ListByTruck(ctx context.Context, truckID uuid.UUID) ([]models.TruckLoad, error) {
	result, err := s.repo.ListByTruck(ctx, truckID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list loads")
	}
	return result, nil
}

// checkWeightBand enforces the plausibility band on weight per cage. Outside
// the band the load is rejected unless the operator explicitly overrides, in
// which case it is accepted with a warning.
func (s *service) checkWeightBand(totalWeight decimal.Decimal, cagesCount int, allowOverride bool) ([]string, error) {
	perCage := totalWeight.Div(decimal.NewFromInt(int64(cagesCount))).Round(2)
	min := decimal.NewFromFloat(s.sanity.MinWeightPerCage)
	max := decimal.NewFromFloat(s.sanity.MaxWeightPerCage)

	if perCage.GreaterThanOrEqual(min) && perCage.LessThanOrEqual(max) {
		return nil, nil
	}

	message := fmt.Sprintf("weight per cage %s kg is outside the expected %s-%s kg range",
		perCage, min, max)
	if !allowOverride {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, message)
	}
	return []string{message}, nil
}

func normalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
