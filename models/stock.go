package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemStock is the balance row for one item at one location. Born at zero,
// mutated only inside ledger posting / reservation functions, never deleted
// while a non-zero balance exists.
type ItemStock struct {
	Id               uint            `json:"id" gorm:"primaryKey"`
	ItemId           uint            `json:"item_id" gorm:"not null;uniqueIndex:idx_item_stocks_item_location,priority:1"`
	Item             Item            `json:"-" gorm:"foreignKey:ItemId;references:Id"`
	LocationType     LocationType    `json:"location_type" gorm:"size:20;not null;uniqueIndex:idx_item_stocks_item_location,priority:2"`
	LocationId       uint            `json:"location_id" gorm:"not null;uniqueIndex:idx_item_stocks_item_location,priority:3"`
	QuantityOnHand   decimal.Decimal `json:"quantity_on_hand" gorm:"type:numeric(20,4);not null;default:0"`
	QuantityReserved decimal.Decimal `json:"quantity_reserved" gorm:"type:numeric(20,4);not null;default:0"`
	AverageCost      decimal.Decimal `json:"average_cost" gorm:"type:numeric(12,2);not null;default:0"`
	LastCost         decimal.Decimal `json:"last_cost" gorm:"type:numeric(12,2);not null;default:0"`
	LastMovementAt   *time.Time      `json:"last_movement_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// QuantityAvailable is on-hand minus reserved.
func (s *ItemStock) QuantityAvailable() decimal.Decimal {
	return s.QuantityOnHand.Sub(s.QuantityReserved)
}

// forUpdate applies a row lock. SQLite (tests) serializes writers itself and
// rejects FOR UPDATE, so the clause is Postgres-only.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// GetOrCreateStock fetches the balance row for (item, location) under a row
// lock, creating a zero row on first touch.
func GetOrCreateStock(tx *gorm.DB, itemId uint, loc LocationRef) (*ItemStock, error) {
	stock := ItemStock{
		ItemId:       itemId,
		LocationType: loc.Type,
		LocationId:   loc.ID,
	}
	result := forUpdate(tx).
		Where("item_id = ? AND location_type = ? AND location_id = ?", itemId, loc.Type, loc.ID).
		FirstOrCreate(&stock)
	if result.Error != nil {
		return nil, result.Error
	}
	return &stock, nil
}

// GetStock is the read-only lookup; returns gorm.ErrRecordNotFound when the
// item has never moved at this location.
func GetStock(tx *gorm.DB, itemId uint, loc LocationRef) (*ItemStock, error) {
	var stock ItemStock
	err := tx.Where("item_id = ? AND location_type = ? AND location_id = ?", itemId, loc.Type, loc.ID).
		First(&stock).Error
	if err != nil {
		return nil, err
	}
	return &stock, nil
}

// WeightedAverageCost blends an incoming receipt into the current average:
// (current value + new value) / (current qty + new qty).
func WeightedAverageCost(currentQty, currentAvg, newQty, newUnitCost decimal.Decimal) decimal.Decimal {
	totalQty := currentQty.Add(newQty)
	if totalQty.Sign() <= 0 {
		if newUnitCost.Sign() > 0 {
			return newUnitCost
		}
		return currentAvg
	}
	totalValue := currentQty.Mul(currentAvg).Add(newQty.Mul(newUnitCost))
	return totalValue.Div(totalQty).Round(2)
}

// StockForLocation lists all balance rows at one location.
func StockForLocation(tx *gorm.DB, loc LocationRef) ([]ItemStock, error) {
	var stocks []ItemStock
	err := tx.Preload("Item").
		Where("location_type = ? AND location_id = ?", loc.Type, loc.ID).
		Order("item_id").
		Find(&stocks).Error
	return stocks, err
}
