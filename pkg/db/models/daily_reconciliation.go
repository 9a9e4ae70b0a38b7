package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hmansour/farmgate-pos/pkg/enums"
)

// DailyReconciliation compares a truck's loaded weight against its sold
// weight for one day. Wastage derivations are computed server-side; exactly
// one row exists per (truck, date).
type DailyReconciliation struct {
	ID                 uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TruckID            uuid.UUID                  `gorm:"column:truck_id;type:uuid;not null;uniqueIndex:idx_reconciliation_truck_date" json:"truck_id"`
	Date               time.Time                  `gorm:"column:date;not null;uniqueIndex:idx_reconciliation_truck_date" json:"date"`
	LoadWeight         decimal.Decimal            `gorm:"column:load_weight;type:numeric(10,2);not null" json:"load_weight"`
	SoldWeight         decimal.Decimal            `gorm:"column:sold_weight;type:numeric(10,2);not null" json:"sold_weight"`
	WastageWeight      decimal.Decimal            `gorm:"column:wastage_weight;type:numeric(10,2);not null" json:"wastage_weight"`
	WastagePercentage  decimal.Decimal            `gorm:"column:wastage_percentage;type:numeric(5,2);not null" json:"wastage_percentage"`
	Status             enums.ReconciliationStatus `gorm:"column:status;not null;default:'PENDING'" json:"status"`
	Notes              *string                    `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt          time.Time                  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time                  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Truck *Truck `gorm:"foreignKey:TruckID" json:"truck,omitempty"`
}

func (r *DailyReconciliation) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
