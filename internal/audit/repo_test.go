package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/pkg/db/models"
	"github.com/hmansour/farmgate-pos/pkg/enums"
)

func newTestRepo(t *testing.T) Repository {
	t.Helper()
	dsn := "file:audit_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AuditLog{}))
	return NewRepository(db)
}

func seedAuditRows(t *testing.T, repo Repository, table string, n int) []models.AuditLog {
	t.Helper()
	base := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	entries := make([]models.AuditLog, 0, n)
	for i := 0; i < n; i++ {
		entry := models.AuditLog{
			TableName: table,
			Operation: enums.AuditOperationInsert,
			EntityID:  uuid.NewString(),
			UserID:    uuid.New(),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(context.Background(), &entry))
		entries = append(entries, entry)
	}
	return entries
}

func TestListPagesNewestFirst(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	seeded := seedAuditRows(t, repo, "invoices", 5)

	page, next, err := repo.List(context.Background(), ListParams{Limit: 3})
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.NotNil(t, next, "expected a next cursor with rows remaining")
	// Newest row seeded last comes back first.
	assert.Equal(t, seeded[4].ID, page[0].ID)

	rest, next, err := repo.List(context.Background(), ListParams{Limit: 3, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Nil(t, next, "last page should carry no cursor")
	assert.Equal(t, seeded[1].ID, rest[0].ID)
	assert.Equal(t, seeded[0].ID, rest[1].ID)
}

func TestListFiltersByTable(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	seedAuditRows(t, repo, "invoices", 2)
	seedAuditRows(t, repo, "payments", 3)

	page, next, err := repo.List(context.Background(), ListParams{Table: "payments", Limit: 10})
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, page, 3)
	for _, entry := range page {
		assert.Equal(t, "payments", entry.TableName)
	}
}

func TestListByEntityReturnsOldestFirst(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	entityID := uuid.NewString()
	base := time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)
	ops := []enums.AuditOperation{enums.AuditOperationInsert, enums.AuditOperationUpdate}
	for i, op := range ops {
		entry := models.AuditLog{
			TableName: "customers",
			Operation: op,
			EntityID:  entityID,
			UserID:    uuid.New(),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Create(context.Background(), &entry))
	}

	entries, err := repo.ListByEntity(context.Background(), "customers", entityID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, enums.AuditOperationInsert, entries[0].Operation)
	assert.Equal(t, enums.AuditOperationUpdate, entries[1].Operation)
}
