package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice is a single weight-based slaughter sale. The derived fields
// (NetWeight, TotalAmount, FinalAmount, CurrentBalance) are computed by the
// ledger calculator before persistence and are immutable afterwards.
// PreviousBalance snapshots the customer's debt at creation time.
type Invoice struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Number             string          `gorm:"column:number;not null;uniqueIndex" json:"number"`
	CustomerID         uuid.UUID       `gorm:"column:customer_id;type:uuid;not null;index" json:"customer_id"`
	TruckID            uuid.UUID       `gorm:"column:truck_id;type:uuid;not null;index" json:"truck_id"`
	InvoiceDate        time.Time       `gorm:"column:invoice_date;not null" json:"invoice_date"`
	GrossWeight        decimal.Decimal `gorm:"column:gross_weight;type:numeric(10,2);not null" json:"gross_weight"`
	CagesWeight        decimal.Decimal `gorm:"column:cages_weight;type:numeric(10,2);not null" json:"cages_weight"`
	CagesCount         int             `gorm:"column:cages_count;not null" json:"cages_count"`
	NetWeight          decimal.Decimal `gorm:"column:net_weight;type:numeric(10,2);not null" json:"net_weight"`
	UnitPrice          decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	TotalAmount        decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null" json:"total_amount"`
	DiscountPercentage decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2);not null;default:0" json:"discount_percentage"`
	FinalAmount        decimal.Decimal `gorm:"column:final_amount;type:numeric(12,2);not null" json:"final_amount"`
	PreviousBalance    decimal.Decimal `gorm:"column:previous_balance;type:numeric(12,2);not null" json:"previous_balance"`
	CurrentBalance     decimal.Decimal `gorm:"column:current_balance;type:numeric(12,2);not null" json:"current_balance"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Truck    *Truck    `gorm:"foreignKey:TruckID" json:"truck,omitempty"`
	Payments []Payment `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
