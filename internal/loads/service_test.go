package loads

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/internal/trucks"
	"github.com/hmansour/farmgate-pos/internal/uow"
	"github.com/hmansour/farmgate-pos/pkg/config"
	"github.com/hmansour/farmgate-pos/pkg/db/models"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
	"github.com/hmansour/farmgate-pos/pkg/logger"
)

func newTestService(t *testing.T) (Service, *models.Truck) {
	t.Helper()

	dsn := "file:loads_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Truck{}, &models.TruckLoad{}, &models.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := logger.New(logger.Options{ServiceName: "loads-test", Output: io.Discard})
	factory, err := uow.NewFactory(conn, log)
	if err != nil {
		t.Fatalf("uow factory: %v", err)
	}
	svc, err := NewService(NewRepository(conn), trucks.NewRepository(conn), factory,
		config.SanityConfig{MinWeightPerCage: 5, MaxWeightPerCage: 100})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	truck := &models.Truck{Number: "TRK-1", DriverName: "Karim", IsActive: true}
	if err := conn.Create(truck).Error; err != nil {
		t.Fatalf("seed truck: %v", err)
	}
	return svc, truck
}

func TestCreateLoadWithinBand(t *testing.T) {
	t.Parallel()

	svc, truck := newTestService(t)
	result, err := svc.CreateLoad(context.Background(), CreateLoadInput{
		TruckID:     truck.ID,
		LoadDate:    time.Date(2026, 8, 20, 6, 30, 0, 0, time.UTC),
		TotalWeight: decimal.NewFromInt(480),
		CagesCount:  12, // 40 kg per cage
	}, uuid.New())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("in-band load should carry no warnings: %v", result.Warnings)
	}
	if result.Load.Status != enums.LoadStatusLoaded {
		t.Fatalf("new load status: %s", result.Load.Status)
	}
	if !result.Load.LoadDate.Equal(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("load date not normalized to day: %s", result.Load.LoadDate)
	}
}

func TestCreateLoadOutOfBandRejected(t *testing.T) {
	t.Parallel()

	svc, truck := newTestService(t)
	_, err := svc.CreateLoad(context.Background(), CreateLoadInput{
		TruckID:     truck.ID,
		TotalWeight: decimal.NewFromInt(480),
		CagesCount:  2, // 240 kg per cage
	}, uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation rejection, got %v", err)
	}
}

func TestCreateLoadOutOfBandOverride(t *testing.T) {
	t.Parallel()

	svc, truck := newTestService(t)
	result, err := svc.CreateLoad(context.Background(), CreateLoadInput{
		TruckID:        truck.ID,
		TotalWeight:    decimal.NewFromInt(480),
		CagesCount:     2,
		AllowOutOfBand: true,
	}, uuid.New())
	if err != nil {
		t.Fatalf("create with override: %v", err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("override should downgrade to one warning, got %v", result.Warnings)
	}
}

func TestCreateLoadUnknownTruck(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.CreateLoad(context.Background(), CreateLoadInput{
		TruckID:     uuid.New(),
		TotalWeight: decimal.NewFromInt(480),
		CagesCount:  12,
	}, uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	t.Parallel()

	svc, truck := newTestService(t)
	ctx := context.Background()
	operatorID := uuid.New()

	result, err := svc.CreateLoad(ctx, CreateLoadInput{
		TruckID:     truck.ID,
		TotalWeight: decimal.NewFromInt(480),
		CagesCount:  12,
	}, operatorID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	load, err := svc.UpdateStatus(ctx, result.Load.ID, enums.LoadStatusInTransit, operatorID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if load.Status != enums.LoadStatusInTransit {
		t.Fatalf("status after advance: %s", load.Status)
	}

	_, err = svc.UpdateStatus(ctx, load.ID, enums.LoadStatusLoaded, operatorID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("backward move should be a state conflict, got %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, load.ID, enums.LoadStatusCompleted, operatorID); err != nil {
		t.Fatalf("complete: %v", err)
	}
}
