package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransferStatus string

const (
	TransferDraft     TransferStatus = "draft"
	TransferCompleted TransferStatus = "completed"
	TransferCancelled TransferStatus = "cancelled"
)

// StockTransfer moves quantities between two locations. Stock changes only
// on completion, as a paired transfer_out/transfer_in posting per line.
type StockTransfer struct {
	Id               uint                `json:"id" gorm:"primaryKey"`
	TransferNumber   string              `json:"transfer_number" gorm:"size:30;not null;uniqueIndex"`
	FromLocationType LocationType        `json:"from_location_type" gorm:"size:20;not null"`
	FromLocationId   uint                `json:"from_location_id" gorm:"not null"`
	ToLocationType   LocationType        `json:"to_location_type" gorm:"size:20;not null"`
	ToLocationId     uint                `json:"to_location_id" gorm:"not null"`
	Status           TransferStatus      `json:"status" gorm:"size:20;not null;default:draft"`
	Lines            []StockTransferLine `json:"lines" gorm:"foreignKey:TransferId;constraint:OnDelete:CASCADE"`
	Notes            string              `json:"notes"`
	CompletedAt      *time.Time          `json:"completed_at"`
	CreatedBy        string              `json:"created_by" gorm:"size:128"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

type StockTransferLine struct {
	Id         uint            `json:"id" gorm:"primaryKey"`
	TransferId uint            `json:"-" gorm:"not null;index"`
	ItemId     uint            `json:"item_id" gorm:"not null"`
	Item       Item            `json:"-" gorm:"foreignKey:ItemId;references:Id"`
	Quantity   decimal.Decimal `json:"quantity" gorm:"type:numeric(20,4);not null"`
}

func (t *StockTransfer) FromLocation() LocationRef {
	return LocationRef{Type: t.FromLocationType, ID: t.FromLocationId}
}

func (t *StockTransfer) ToLocation() LocationRef {
	return LocationRef{Type: t.ToLocationType, ID: t.ToLocationId}
}

// NextTransferNumber yields TRF-<year>-<seq>.
func NextTransferNumber(tx *gorm.DB) (string, error) {
	return nextDocumentNumber(tx, &StockTransfer{}, "transfer_number", "TRF")
}

// CompleteTransfer posts the paired movements for every line: transfer_out
// at the source (guarded against negative balances), transfer_in at the
// destination carrying the source's average cost. All lines post or none do.
func CompleteTransfer(tx *gorm.DB, transferId uint, actor string) (*StockTransfer, error) {
	var transfer StockTransfer
	if err := forUpdate(tx).Preload("Lines").First(&transfer, transferId).Error; err != nil {
		return nil, err
	}
	if transfer.Status != TransferDraft {
		return nil, fmt.Errorf("%w: transfer %s is %s, cannot complete", ErrInvalidState, transfer.TransferNumber, transfer.Status)
	}

	source := SourceRef{Type: SourceTransfer, ID: transferId}
	for _, line := range transfer.Lines {
		fromStock, err := GetOrCreateStock(tx, line.ItemId, transfer.FromLocation())
		if err != nil {
			return nil, err
		}
		unitCost := fromStock.AverageCost

		out := &LedgerEntry{
			MovementType: MovementTransferOut,
			Quantity:     line.Quantity.Neg(),
			UnitCost:     unitCost,
			TotalCost:    unitCost.Mul(line.Quantity).Round(2),
			SourceType:   source.Type,
			SourceId:     source.ID,
			CreatedBy:    actor,
		}
		if err := PostLedgerEntry(tx, fromStock, out); err != nil {
			return nil, err
		}

		toStock, err := GetOrCreateStock(tx, line.ItemId, transfer.ToLocation())
		if err != nil {
			return nil, err
		}
		toStock.AverageCost = WeightedAverageCost(toStock.QuantityOnHand, toStock.AverageCost, line.Quantity, unitCost)
		toStock.LastCost = unitCost

		in := &LedgerEntry{
			MovementType: MovementTransferIn,
			Quantity:     line.Quantity,
			UnitCost:     unitCost,
			TotalCost:    unitCost.Mul(line.Quantity).Round(2),
			SourceType:   source.Type,
			SourceId:     source.ID,
			CreatedBy:    actor,
		}
		if err := PostLedgerEntry(tx, toStock, in); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	transfer.Status = TransferCompleted
	transfer.CompletedAt = &now
	if err := tx.Model(&StockTransfer{}).Where("id = ?", transfer.Id).
		Updates(map[string]any{"status": TransferCompleted, "completed_at": &now}).Error; err != nil {
		return nil, err
	}
	return &transfer, nil
}
