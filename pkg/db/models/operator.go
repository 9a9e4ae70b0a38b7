package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/pkg/enums"
)

// Operator is a POS user account. The operator's id attributes every audit
// log row written during their session.
type Operator struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	LoginName   string             `gorm:"column:login_name;not null;uniqueIndex" json:"login_name"`
	DisplayName string             `gorm:"column:display_name;not null" json:"display_name"`
	PinHash     string             `gorm:"column:pin_hash;not null" json:"-"`
	Role        enums.OperatorRole `gorm:"column:role;not null;default:'cashier'" json:"role"`
	IsActive    bool               `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (o *Operator) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
