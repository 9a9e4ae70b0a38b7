package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Truck is a delivery vehicle in the fleet. Trucks are deactivated rather
// than deleted once loads or invoices reference them.
type Truck struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Number     string    `gorm:"column:number;not null;uniqueIndex" json:"number"`
	DriverName string    `gorm:"column:driver_name;not null" json:"driver_name"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (t *Truck) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
