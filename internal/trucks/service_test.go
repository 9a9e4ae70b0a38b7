package trucks

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/internal/uow"
	"github.com/hmansour/farmgate-pos/pkg/db/models"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
	"github.com/hmansour/farmgate-pos/pkg/logger"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	dsn := "file:trucks_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Truck{}, &models.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := logger.New(logger.Options{ServiceName: "trucks-test", Output: io.Discard})
	factory, err := uow.NewFactory(conn, log)
	if err != nil {
		t.Fatalf("uow factory: %v", err)
	}
	svc, err := NewService(NewRepository(conn), factory)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func TestCreateTruckRejectsDuplicateNumber(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	operatorID := uuid.New()

	if _, err := svc.CreateTruck(ctx, CreateTruckInput{Number: "TRK-7", DriverName: "Karim"}, operatorID); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.CreateTruck(ctx, CreateTruckInput{Number: "TRK-7", DriverName: "Omar"}, operatorID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for duplicate number, got %v", err)
	}
}

func TestDeleteTruckRemovesRowAndWritesAudit(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()
	operatorID := uuid.New()

	truck, err := svc.CreateTruck(ctx, CreateTruckInput{Number: "TRK-9", DriverName: "Karim"}, operatorID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteTruck(ctx, truck.ID, operatorID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var count int64
	if err := conn.Model(&models.Truck{}).Count(&count).Error; err != nil {
		t.Fatalf("count trucks: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected truck gone, %d rows remain", count)
	}

	var entries []models.AuditLog
	if err := conn.Where("operation = ?", enums.AuditOperationDelete).Find(&entries).Error; err != nil {
		t.Fatalf("load audit rows: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 delete audit row, got %d", len(entries))
	}
	if entries[0].EntityID != truck.ID.String() {
		t.Fatalf("audit entity mismatch: %s vs %s", entries[0].EntityID, truck.ID)
	}
	if len(entries[0].OldValues) == 0 {
		t.Fatal("delete audit row should carry the old snapshot")
	}
}

func TestDeleteTruckMissing(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	err := svc.DeleteTruck(context.Background(), uuid.New(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateTruckDeactivates(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()
	operatorID := uuid.New()

	truck, err := svc.CreateTruck(ctx, CreateTruckInput{Number: "TRK-3", DriverName: "Karim"}, operatorID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	inactive := false
	updated, err := svc.UpdateTruck(ctx, truck.ID, UpdateTruckInput{IsActive: &inactive}, operatorID)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.IsActive {
		t.Fatal("expected truck to be deactivated")
	}

	active, err := svc.ListTrucks(ctx, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("deactivated truck still listed as active: %d", len(active))
	}
}
