package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/internal/audit"
	"github.com/hmansour/farmgate-pos/internal/loads"
	"github.com/hmansour/farmgate-pos/internal/uow"
	"github.com/hmansour/farmgate-pos/pkg/db"
	"github.com/hmansour/farmgate-pos/pkg/db/models"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// CreateInput identifies the truck-day to reconcile. Weights are derived
// from the day's loads and invoices, not supplied by the caller.
type CreateInput struct {
	TruckID uuid.UUID
	Date    time.Time
	Notes   *string
}

// Service defines end-of-day reconciliation operations.
type Service interface {
	CreateDaily(ctx context.Context, input CreateInput, operatorID uuid.UUID) (*models.DailyReconciliation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, target enums.ReconciliationStatus, operatorID uuid.UUID) (*models.DailyReconciliation, error)
	GetReconciliation(ctx context.Context, id uuid.UUID) (*models.DailyReconciliation, error)
	ListByDate(ctx context.Context, date time.Time) ([]models.DailyReconciliation, error)
}

type service struct {
	repo  Repository
	loads loads.Repository
	uow   *uow.Factory
}

// NewService wires the reconciliation service.
func NewService(repo Repository, loadRepo loads.Repository, factory *uow.Factory) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation: repository is required")
	}
	if loadRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation: load repository is required")
	}
	if factory == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reconciliation: uow factory is required")
	}
	return &service{repo: repo, loads: loadRepo, uow: factory}, nil
}

// CreateDaily computes the truck's wastage for the day: load weight from the
// morning loads, sold weight from the day's invoices, wastage as the
// difference. One reconciliation per truck per day.
func (s *service) CreateDaily(ctx context.Context, input CreateInput, operatorID uuid.UUID) (*models.DailyReconciliation, error) {
	date := normalizeDate(input.Date)

	unit := s.uow.New()
	if err := unit.Begin(ctx); err != nil {
		return nil, err
	}
	defer unit.Rollback()

	repo := s.repo.WithTx(unit.Tx())

	loadWeight, err := s.loads.WithTx(unit.Tx()).SumWeightForTruckDate(ctx, input.TruckID, date)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum load weight")
	}
	if loadWeight.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no loads recorded for this truck and date")
	}

	soldWeight, err := repo.SumSoldWeightForTruckDate(ctx, input.TruckID, date)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum sold weight")
	}

	wastage := loadWeight.Sub(soldWeight).Round(2)
	if wastage.IsNegative() {
		wastage = decimal.Zero
	}
	wastagePct := decimal.Zero
	if loadWeight.IsPositive() {
		wastagePct = wastage.Div(loadWeight).Mul(oneHundred).Round(2)
	}

	rec := &models.DailyReconciliation{
		TruckID:           input.TruckID,
		Date:              date,
		LoadWeight:        loadWeight.Round(2),
		SoldWeight:        soldWeight.Round(2),
		WastageWeight:     wastage,
		WastagePercentage: wastagePct,
		Status:            enums.ReconciliationStatusPending,
		Notes:             input.Notes,
	}
	if _, err := repo.Create(ctx, rec); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "reconciliation already exists for this truck and date")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reconciliation")
	}

	unit.Record(audit.Change{
		Table:     "daily_reconciliations",
		Operation: enums.AuditOperationInsert,
		EntityID:  rec.ID.String(),
		New:       audit.SnapshotReconciliation(rec),
	})
	if err := unit.SaveChanges(ctx, operatorID); err != nil {
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateStatus moves a reconciliation forward: PENDING -> COMPLETED ->
// REVIEWED. Backward moves are state conflicts.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, target enums.ReconciliationStatus, operatorID uuid.UUID) (*models.DailyReconciliation, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown reconciliation status")
	}

	unit := s.uow.New()
	if err := unit.Begin(ctx); err != nil {
		return nil, err
	}
	defer unit.Rollback()

	repo := s.repo.WithTx(unit.Tx())
	rec, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reconciliation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reconciliation")
	}

	if !rec.Status.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move reconciliation from %s to %s", rec.Status, target))
	}

	before := audit.SnapshotReconciliation(rec)
	rec.Status = target
	if err := repo.Update(ctx, rec); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update reconciliation")
	}

	unit.Record(audit.Change{
		Table:     "daily_reconciliations",
		Operation: enums.AuditOperationUpdate,
		EntityID:  rec.ID.String(),
		Old:       before,
		New:       audit.SnapshotReconciliation(rec),
	})
	if err := unit.SaveChanges(ctx, operatorID); err != nil {
		return nil, err
	}
	if err := unit.Commit(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *service) GetReconciliation(ctx context.Context, id uuid.UUID) (*models.DailyReconciliation, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reconciliation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reconciliation")
	}
	return rec, nil
}

func (s *service) ListByDate(ctx context.Context, date time.Time) ([]models.DailyReconciliation, error) {
	recs, err := s.repo.ListByDate(ctx, normalizeDate(date))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reconciliations")
	}
	return recs, nil
}

func normalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
