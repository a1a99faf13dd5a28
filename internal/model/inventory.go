package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item is a stock ledger entry. Quantity never drops below zero.
type Item struct {
	ID        uuid.UUID       `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Quantity  int             `gorm:"type:int;default:0;not null" json:"quantity"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"unit_cost"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (i *Item) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// MovementType Enum Simulation
const (
	MovementTypeIn  = "IN"
	MovementTypeOut = "OUT"
)

// StockMovement records every stock change made through fulfillment
type StockMovement struct {
	ID              uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	ItemID          uuid.UUID  `gorm:"type:char(36);not null;index" json:"item_id"`
	RequestID       *uuid.UUID `gorm:"type:char(36);index" json:"request_id"` // Nullable in case of manual adjustments
	MovementType    string     `gorm:"type:varchar(10);not null" json:"movement_type"`
	QuantityChanged int        `gorm:"type:int;not null" json:"quantity_changed"`
	StockAfter      int        `gorm:"type:int;not null" json:"stock_after"`
	CreatedBy       *uuid.UUID `gorm:"type:char(36)" json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
