package reconciliation

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/internal/loads"
	"github.com/hmansour/farmgate-pos/internal/uow"
	"github.com/hmansour/farmgate-pos/pkg/db/models"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
	"github.com/hmansour/farmgate-pos/pkg/logger"
)

var testDay = time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (Service, *gorm.DB, uuid.UUID) {
	t.Helper()

	dsn := "file:reconciliation_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = conn.AutoMigrate(&models.Truck{}, &models.TruckLoad{}, &models.Invoice{},
		&models.DailyReconciliation{}, &models.AuditLog{})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := logger.New(logger.Options{ServiceName: "reconciliation-test", Output: io.Discard})
	factory, err := uow.NewFactory(conn, log)
	if err != nil {
		t.Fatalf("uow factory: %v", err)
	}
	svc, err := NewService(NewRepository(conn), loads.NewRepository(conn), factory)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	truck := &models.Truck{Number: "TRK-1", DriverName: "Karim", IsActive: true}
	if err := conn.Create(truck).Error; err != nil {
		t.Fatalf("seed truck: %v", err)
	}
	return svc, conn, truck.ID
}

func seedLoad(t *testing.T, conn *gorm.DB, truckID uuid.UUID, weight int64) {
	t.Helper()
	load := &models.TruckLoad{
		TruckID:     truckID,
		LoadDate:    testDay,
		TotalWeight: decimal.NewFromInt(weight),
		CagesCount:  12,
		Status:      enums.LoadStatusCompleted,
	}
	if err := conn.Create(load).Error; err != nil {
		t.Fatalf("seed load: %v", err)
	}
}

func seedInvoice(t *testing.T, conn *gorm.DB, truckID uuid.UUID, number string, netWeight int64) {
	t.Helper()
	amount := decimal.NewFromInt(netWeight).Mul(decimal.NewFromFloat(1.80)).Round(2)
	invoice := &models.Invoice{
		Number:          number,
		CustomerID:      uuid.New(),
		TruckID:         truckID,
		InvoiceDate:     testDay.Add(10 * time.Hour),
		GrossWeight:     decimal.NewFromInt(netWeight + 24),
		CagesWeight:     decimal.NewFromInt(24),
		CagesCount:      12,
		NetWeight:       decimal.NewFromInt(netWeight),
		UnitPrice:       decimal.NewFromFloat(1.80),
		TotalAmount:     amount,
		FinalAmount:     amount,
		PreviousBalance: decimal.Zero,
		CurrentBalance:  amount,
	}
	if err := conn.Create(invoice).Error; err != nil {
		t.Fatalf("seed invoice %s: %v", number, err)
	}
}

func TestCreateDailyComputesWastage(t *testing.T) {
	t.Parallel()

	svc, conn, truckID := newTestService(t)
	ctx := context.Background()

	seedLoad(t, conn, truckID, 300)
	seedLoad(t, conn, truckID, 200)
	seedInvoice(t, conn, truckID, "INV-20260820-0001", 250)
	seedInvoice(t, conn, truckID, "INV-20260820-0002", 200)

	rec, err := svc.CreateDaily(ctx, CreateInput{TruckID: truckID, Date: testDay.Add(21 * time.Hour)}, uuid.New())
	if err != nil {
		t.Fatalf("create daily: %v", err)
	}
	if !rec.LoadWeight.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("load weight: %s", rec.LoadWeight)
	}
	if !rec.SoldWeight.Equal(decimal.NewFromInt(450)) {
		t.Fatalf("sold weight: %s", rec.SoldWeight)
	}
	if !rec.WastageWeight.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("wastage: %s", rec.WastageWeight)
	}
	if !rec.WastagePercentage.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("wastage percentage: %s", rec.WastagePercentage)
	}
	if rec.Status != enums.ReconciliationStatusPending {
		t.Fatalf("new reconciliation status: %s", rec.Status)
	}
}

func TestCreateDailyClampsNegativeWastage(t *testing.T) {
	t.Parallel()

	svc, conn, truckID := newTestService(t)
	ctx := context.Background()

	// Sold more than loaded (scale drift); wastage floors at zero.
	seedLoad(t, conn, truckID, 400)
	seedInvoice(t, conn, truckID, "INV-20260820-0003", 410)

	rec, err := svc.CreateDaily(ctx, CreateInput{TruckID: truckID, Date: testDay}, uuid.New())
	if err != nil {
		t.Fatalf("create daily: %v", err)
	}
	if !rec.WastageWeight.IsZero() {
		t.Fatalf("wastage should clamp to zero, got %s", rec.WastageWeight)
	}
}

func TestCreateDailyRequiresLoads(t *testing.T) {
	t.Parallel()

	svc, _, truckID := newTestService(t)
	_, err := svc.CreateDaily(context.Background(), CreateInput{TruckID: truckID, Date: testDay}, uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error with no loads, got %v", err)
	}
}

func TestCreateDailyOncePerTruckDay(t *testing.T) {
	t.Parallel()

	svc, conn, truckID := newTestService(t)
	ctx := context.Background()
	operatorID := uuid.New()

	seedLoad(t, conn, truckID, 500)

	if _, err := svc.CreateDaily(ctx, CreateInput{TruckID: truckID, Date: testDay}, operatorID); err != nil {
		t.Fatalf("first reconciliation: %v", err)
	}
	_, err := svc.CreateDaily(ctx, CreateInput{TruckID: truckID, Date: testDay}, operatorID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for duplicate truck-day, got %v", err)
	}
}

func TestUpdateStatusMonotonic(t *testing.T) {
	t.Parallel()

	svc, conn, truckID := newTestService(t)
	ctx := context.Background()
	operatorID := uuid.New()

	seedLoad(t, conn, truckID, 500)
	rec, err := svc.CreateDaily(ctx, CreateInput{TruckID: truckID, Date: testDay}, operatorID)
	if err != nil {
		t.Fatalf("create daily: %v", err)
	}

	rec, err = svc.UpdateStatus(ctx, rec.ID, enums.ReconciliationStatusCompleted, operatorID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if rec.Status != enums.ReconciliationStatusCompleted {
		t.Fatalf("status after complete: %s", rec.Status)
	}

	_, err = svc.UpdateStatus(ctx, rec.ID, enums.ReconciliationStatusPending, operatorID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("backward move should be a state conflict, got %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, rec.ID, enums.ReconciliationStatusReviewed, operatorID); err != nil {
		t.Fatalf("review: %v", err)
	}
}
