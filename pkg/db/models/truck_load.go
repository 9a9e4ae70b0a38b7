package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/pkg/enums"
)

// TruckLoad records the weight and cage count loaded onto a truck at the
// start of a delivery day.
type TruckLoad struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TruckID     uuid.UUID        `gorm:"column:truck_id;type:uuid;not null;index" json:"truck_id"`
	LoadDate    time.Time        `gorm:"column:load_date;not null" json:"load_date"`
	TotalWeight decimal.Decimal  `gorm:"column:total_weight;type:numeric(10,2);not null" json:"total_weight"`
	CagesCount  int              `gorm:"column:cages_count;not null" json:"cages_count"`
	Status      enums.LoadStatus `gorm:"column:status;not null;default:'LOADED'" json:"status"`
	Notes       *string          `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Truck *Truck `gorm:"foreignKey:TruckID" json:"truck,omitempty"`
}

func (l *TruckLoad) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
