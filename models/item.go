package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is one row of the item master. Stock levels live in ItemStock and are
// only ever changed through ledger postings.
type Item struct {
	Id          uint            `json:"id" gorm:"primaryKey"`
	ItemNumber  string          `json:"item_number" gorm:"size:50;not null;uniqueIndex"`
	Description string          `json:"description" gorm:"not null"`
	SearchText  string          `json:"search_text"`
	Unit        string          `json:"unit" gorm:"size:20;default:pcs"`
	UnitCost    decimal.Decimal `json:"unit_cost" gorm:"type:numeric(12,2)"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2)"`
	Active      bool            `json:"active" gorm:"default:true"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
