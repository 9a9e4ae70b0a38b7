package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Customer is a buyer with a running debt balance. TotalDebt must always equal
// the sum of invoice final amounts minus the sum of payment amounts for the
// customer; it is adjusted incrementally inside the same transaction as the
// invoice/payment rows that justify each change. Version guards those
// adjustments against concurrent terminals.
type Customer struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name      string          `gorm:"column:name;not null" json:"name"`
	Phone     *string         `gorm:"column:phone" json:"phone,omitempty"`
	Address   *string         `gorm:"column:address" json:"address,omitempty"`
	TotalDebt decimal.Decimal `gorm:"column:total_debt;type:numeric(12,2);not null;default:0" json:"total_debt"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	Version   int64           `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (c *Customer) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
