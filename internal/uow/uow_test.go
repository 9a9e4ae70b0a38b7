package uow

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/internal/audit"
	"github.com/hmansour/farmgate-pos/pkg/db/models"
	"github.com/hmansour/farmgate-pos/pkg/enums"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
	"github.com/hmansour/farmgate-pos/pkg/logger"
)

func newTestFactory(t *testing.T) (*Factory, *gorm.DB) {
	t.Helper()
	dsn := "file:uow_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Customer{}, &models.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	log := logger.New(logger.Options{ServiceName: "uow-test", Output: io.Discard})
	factory, err := NewFactory(db, log)
	if err != nil {
		t.Fatalf("new factory: %v", err)
	}
	return factory, db
}

func TestBeginTwiceConflicts(t *testing.T) {
	t.Parallel()

	factory, _ := newTestFactory(t)
	u := factory.New()
	ctx := context.Background()

	if err := u.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer u.Rollback()

	err := u.Begin(ctx)
	if err == nil {
		t.Fatal("expected second begin to fail")
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRollbackWithoutBeginIsNoop(t *testing.T) {
	t.Parallel()

	factory, _ := newTestFactory(t)
	u := factory.New()

	if err := u.Rollback(); err != nil {
		t.Fatalf("rollback without begin should be a no-op, got %v", err)
	}
	if err := u.Rollback(); err != nil {
		t.Fatalf("repeated rollback should be a no-op, got %v", err)
	}
}

func TestSaveChangesWritesAuditRows(t *testing.T) {
	t.Parallel()

	factory, db := newTestFactory(t)
	u := factory.New()
	ctx := context.Background()
	operatorID := uuid.New()

	if err := u.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer u.Rollback()

	customer := &models.Customer{Name: "Road Stand"}
	if err := u.Tx().Create(customer).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	u.Record(audit.Change{
		Table:     "customers",
		Operation: enums.AuditOperationInsert,
		EntityID:  customer.ID.String(),
		New:       audit.SnapshotCustomer(customer),
	})

	if err := u.SaveChanges(ctx, operatorID); err != nil {
		t.Fatalf("save changes: %v", err)
	}
	if err := u.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var entries []models.AuditLog
	if err := db.Find(&entries).Error; err != nil {
		t.Fatalf("load audit logs: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit row, got %d", len(entries))
	}
	entry := entries[0]
	if entry.TableName != "customers" || entry.Operation != enums.AuditOperationInsert {
		t.Fatalf("unexpected audit row: %+v", entry)
	}
	if entry.EntityID != customer.ID.String() {
		t.Fatalf("audit entity mismatch: %s vs %s", entry.EntityID, customer.ID)
	}
	if entry.UserID != operatorID {
		t.Fatalf("audit user mismatch: %s vs %s", entry.UserID, operatorID)
	}
	if entry.OldValues != nil {
		t.Fatalf("insert should carry no old values: %s", entry.OldValues)
	}
	if len(entry.NewValues) == 0 {
		t.Fatal("insert should carry new values")
	}
}

func TestRollbackDiscardsEverything(t *testing.T) {
	t.Parallel()

	factory, db := newTestFactory(t)
	u := factory.New()
	ctx := context.Background()

	if err := u.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}

	customer := &models.Customer{Name: "Gone Farm"}
	if err := u.Tx().Create(customer).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}
	u.Record(audit.Change{
		Table:     "customers",
		Operation: enums.AuditOperationInsert,
		EntityID:  customer.ID.String(),
		New:       audit.SnapshotCustomer(customer),
	})
	if err := u.SaveChanges(ctx, uuid.New()); err != nil {
		t.Fatalf("save changes: %v", err)
	}

	if err := u.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	var customerCount, auditCount int64
	if err := db.Model(&models.Customer{}).Count(&customerCount).Error; err != nil {
		t.Fatalf("count customers: %v", err)
	}
	if err := db.Model(&models.AuditLog{}).Count(&auditCount).Error; err != nil {
		t.Fatalf("count audit logs: %v", err)
	}
	if customerCount != 0 || auditCount != 0 {
		t.Fatalf("rollback left rows behind: customers=%d audits=%d", customerCount, auditCount)
	}
	if u.Active() {
		t.Fatal("unit should be inactive after rollback")
	}
}

func TestCommitRefusesUnsavedChanges(t *testing.T) {
	t.Parallel()

	factory, _ := newTestFactory(t)
	u := factory.New()
	ctx := context.Background()

	if err := u.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer u.Rollback()

	u.Record(audit.Change{
		Table:     "customers",
		Operation: enums.AuditOperationUpdate,
		EntityID:  uuid.NewString(),
		New:       map[string]any{"name": "changed"},
	})

	err := u.Commit(ctx)
	if err == nil {
		t.Fatal("expected commit to refuse unsaved changes")
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSaveChangesWithoutTransaction(t *testing.T) {
	t.Parallel()

	factory, _ := newTestFactory(t)
	u := factory.New()

	err := u.SaveChanges(context.Background(), uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestUnserializableSnapshotWritesSentinel(t *testing.T) {
	t.Parallel()

	factory, db := newTestFactory(t)
	u := factory.New()
	ctx := context.Background()

	if err := u.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer u.Rollback()

	u.Record(audit.Change{
		Table:     "customers",
		Operation: enums.AuditOperationUpdate,
		EntityID:  uuid.NewString(),
		Old:       map[string]any{"bad": make(chan int)},
		New:       map[string]any{"name": "fine"},
	})

	if err := u.SaveChanges(ctx, uuid.New()); err != nil {
		t.Fatalf("save changes should tolerate bad snapshots: %v", err)
	}
	if err := u.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var entry models.AuditLog
	if err := db.First(&entry).Error; err != nil {
		t.Fatalf("load audit log: %v", err)
	}
	if string(entry.OldValues) != `{"error":"serialization failed"}` {
		t.Fatalf("expected sentinel old values, got %s", entry.OldValues)
	}
	if string(entry.NewValues) != `{"name":"fine"}` {
		t.Fatalf("expected intact new values, got %s", entry.NewValues)
	}
}
