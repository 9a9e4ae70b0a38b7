package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/pkg/enums"
)

// AuditLog is an append-only record of a single entity mutation. Old values
// are present for updates/deletes, new values for inserts/updates. Audit rows
// themselves are never audited.
type AuditLog struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TableName string               `gorm:"column:table_name;not null;index" json:"table_name"`
	Operation enums.AuditOperation `gorm:"column:operation;not null" json:"operation"`
	EntityID  string               `gorm:"column:entity_id;not null;index" json:"entity_id"`
	OldValues json.RawMessage      `gorm:"column:old_values;type:jsonb" json:"old_values,omitempty"`
	NewValues json.RawMessage      `gorm:"column:new_values;type:jsonb" json:"new_values,omitempty"`
	UserID    uuid.UUID            `gorm:"column:user_id;type:uuid;not null" json:"user_id"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
