package uow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/internal/audit"
	"github.com/hmansour/farmgate-pos/pkg/db/models"
	pkgerrors "github.com/hmansour/farmgate-pos/pkg/errors"
	"github.com/hmansour/farmgate-pos/pkg/logger"
)

// serialization failures must never block a commit; the audit row is written
// with this sentinel instead of the snapshot.
var sentinelSnapshot = json.RawMessage(`{"error":"serialization failed"}`)

// UnitOfWork wraps a single database transaction and collects audit changes
// recorded against it. Lifecycle: Begin, zero or more Record calls from
// repositories, SaveChanges to materialize audit rows, then Commit or
// Rollback. A UnitOfWork is single-use and not safe for concurrent use.
type UnitOfWork struct {
	base      *gorm.DB
	log       *logger.Logger
	tx        *gorm.DB
	pending   []audit.Change
	unflushed int
}

// Factory creates fresh units of work bound to the application database.
type Factory struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFactory(db *gorm.DB, log *logger.Logger) (*Factory, error) {
	if db == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "uow: db is required")
	}
	if log == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "uow: logger is required")
	}
	return &Factory{db: db, log: log}, nil
}

func (f *Factory) New() *UnitOfWork {
	return &UnitOfWork{base: f.db, log: f.log}
}

// Begin opens the transaction. Calling Begin on a unit with an open
// transaction is a caller bug and fails with a state conflict.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction already open")
	}
	tx := u.base.WithContext(ctx).Begin()
	if tx.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, tx.Error, "begin transaction")
	}
	u.tx = tx
	return nil
}

// Active reports whether a transaction is open.
func (u *UnitOfWork) Active() bool {
	return u.tx != nil
}

// Tx exposes the open transaction for repository binding. It is nil before
// Begin and after Commit/Rollback.
func (u *UnitOfWork) Tx() *gorm.DB {
	return u.tx
}

// Record queues an audit change for the next SaveChanges. Implements
// audit.Recorder.
func (u *UnitOfWork) Record(change audit.Change) {
	u.pending = append(u.pending, change)
	u.unflushed++
}

// SaveChanges materializes all queued audit changes as audit log rows inside
// the open transaction, stamped with the acting operator. A snapshot that
// cannot be serialized is written as a sentinel value rather than failing the
// save; the failure is logged.
func (u *UnitOfWork) SaveChanges(ctx context.Context, userID uuid.UUID) error {
	if u.tx == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "no open transaction")
	}
	if u.unflushed == 0 {
		return nil
	}

	start := len(u.pending) - u.unflushed
	entries := make([]models.AuditLog, 0, u.unflushed)
	var marshalErrs error
	for _, change := range u.pending[start:] {
		oldValues, err := marshalSnapshot(change.Old)
		if err != nil {
			marshalErrs = multierr.Append(marshalErrs, fmt.Errorf("%s/%s old: %w", change.Table, change.EntityID, err))
		}
		newValues, err := marshalSnapshot(change.New)
		if err != nil {
			marshalErrs = multierr.Append(marshalErrs, fmt.Errorf("%s/%s new: %w", change.Table, change.EntityID, err))
		}
		entries = append(entries, models.AuditLog{
			TableName: change.Table,
			Operation: change.Operation,
			EntityID:  change.EntityID,
			OldValues: oldValues,
			NewValues: newValues,
			UserID:    userID,
		})
	}
	if marshalErrs != nil {
		u.log.Warn(ctx, "audit snapshot serialization failed: "+marshalErrs.Error())
	}

	repo := audit.NewRepository(u.tx)
	if err := repo.CreateBatch(ctx, entries); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write audit logs")
	}
	u.unflushed = 0
	return nil
}

// Commit commits the open transaction. Recorded changes that were never
// flushed with SaveChanges indicate a caller bug and block the commit.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "no open transaction")
	}
	if u.unflushed > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "recorded changes not saved, call SaveChanges before Commit")
	}
	tx := u.tx
	u.tx = nil
	if err := tx.WithContext(ctx).Commit().Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit transaction")
	}
	u.pending = nil
	return nil
}

// Rollback aborts the open transaction and discards queued changes. Calling
// it without an open transaction is a no-op, so it is always safe to defer.
func (u *UnitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}
	tx := u.tx
	u.tx = nil
	u.pending = nil
	u.unflushed = 0
	if err := tx.Rollback().Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rollback transaction")
	}
	return nil
}

func marshalSnapshot(snapshot map[string]any) (json.RawMessage, error) {
	if snapshot == nil {
		return nil, nil
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return sentinelSnapshot, err
	}
	return raw, nil
}
