package audit

import (
	"context"

	"github.com/hmansour/farmgate-pos/pkg/db/models"
	"github.com/hmansour/farmgate-pos/pkg/pagination"
	"gorm.io/gorm"
)

// ListParams filters the audit trail. Table is optional; an empty table
// returns entries across all tables.
type ListParams struct {
	Table  string
	Cursor *pagination.Cursor
	Limit  int
}

// Repository manages persistence for audit log rows. Audit logs are
// append-only; there are no update or delete operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditLog) error
	CreateBatch(ctx context.Context, entries []models.AuditLog) error
	ListByEntity(ctx context.Context, table, entityID string) ([]models.AuditLog, error)
	List(ctx context.Context, params ListParams) ([]models.AuditLog, *pagination.Cursor, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) CreateBatch(ctx context.Context, entries []models.AuditLog) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *repository) ListByEntity(ctx context.Context, table, entityID string) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	if err := r.db.WithContext(ctx).
		Where("table_name = ? AND entity_id = ?", table, entityID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]models.AuditLog, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if params.Table != "" {
		query = query.Where("table_name = ?", params.Table)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var entries []models.AuditLog
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&entries).Error; err != nil {
		return nil, nil, err
	}

	if len(entries) > normalized {
		entries = entries[:normalized]
		// Cursor points at the last returned row; the next query's strict
		// (created_at, id) < predicate resumes right after it.
		last := entries[normalized-1]
		return entries, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return entries, nil, nil
}
