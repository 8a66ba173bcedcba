package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementType classifies a ledger entry. The on-hand types carry a signed
// on-hand delta in Quantity; reserve/unreserve carry a signed delta to the
// reserved quantity and leave the running balance untouched.
type MovementType string

const (
	MovementReceive     MovementType = "receive"
	MovementIssue       MovementType = "issue"
	MovementReturn      MovementType = "return"
	MovementTransferIn  MovementType = "transfer_in"
	MovementTransferOut MovementType = "transfer_out"
	MovementAdjust      MovementType = "adjust"
	MovementReserve     MovementType = "reserve"
	MovementUnreserve   MovementType = "unreserve"
)

// AffectsOnHand reports whether entries of this type move quantity_on_hand.
func (m MovementType) AffectsOnHand() bool {
	return m != MovementReserve && m != MovementUnreserve
}

func (m MovementType) numberPrefix() string {
	switch m {
	case MovementReceive:
		return "RCV"
	case MovementIssue:
		return "ISS"
	case MovementReturn:
		return "RET"
	case MovementTransferIn:
		return "TRI"
	case MovementTransferOut:
		return "TRO"
	case MovementAdjust:
		return "ADJ"
	case MovementReserve:
		return "RSV"
	case MovementUnreserve:
		return "URS"
	}
	return "LDG"
}

// Source reference types for ledger entries and reservations.
const (
	SourceWorkOrder  = "work_order"
	SourceTransfer   = "transfer"
	SourceInvoice    = "invoice"
	SourceAdjustment = "adjustment"
)

// SourceRef ties a stock movement to the business document that caused it.
type SourceRef struct {
	Type string `json:"type" validate:"required,oneof=work_order transfer invoice adjustment"`
	ID   uint   `json:"id" validate:"required"`
}

func (s SourceRef) String() string {
	return fmt.Sprintf("%s/%d", s.Type, s.ID)
}

// LedgerEntry is one immutable stock movement. Entries are never updated or
// deleted; corrections are new postings.
type LedgerEntry struct {
	Id                uint            `json:"id" gorm:"primaryKey"`
	TransactionNumber string          `json:"transaction_number" gorm:"size:30;not null;uniqueIndex"`
	ItemId            uint            `json:"item_id" gorm:"not null;index:idx_ledger_item_location_date,priority:1"`
	Item              Item            `json:"-" gorm:"foreignKey:ItemId;references:Id"`
	LocationType      LocationType    `json:"location_type" gorm:"size:20;not null;index:idx_ledger_item_location_date,priority:2"`
	LocationId        uint            `json:"location_id" gorm:"not null;index:idx_ledger_item_location_date,priority:3"`
	MovementType      MovementType    `json:"movement_type" gorm:"size:20;not null"`
	Quantity          decimal.Decimal `json:"quantity" gorm:"type:numeric(20,4);not null"`
	RunningBalance    decimal.Decimal `json:"running_balance" gorm:"type:numeric(20,4);not null"`
	Unit              string          `json:"unit" gorm:"size:20"`
	UnitCost          decimal.Decimal `json:"unit_cost" gorm:"type:numeric(12,2)"`
	TotalCost         decimal.Decimal `json:"total_cost" gorm:"type:numeric(12,2)"`
	SourceType        string          `json:"source_type" gorm:"size:20;index:idx_ledger_source,priority:1"`
	SourceId          uint            `json:"source_id" gorm:"index:idx_ledger_source,priority:2"`
	Notes             string          `json:"notes"`
	TransactionDate   time.Time       `json:"transaction_date" gorm:"not null;index:idx_ledger_item_location_date,priority:4"`
	CreatedBy         string          `json:"created_by" gorm:"size:128"`
	CreatedAt         time.Time       `json:"created_at"`
}

// nextTransactionNumber yields <PREFIX>-<yyyymm>-<seq>, sequence per prefix
// and month. Callers hold the stock row lock, which serializes concurrent
// postings for the same item/location.
func nextTransactionNumber(tx *gorm.DB, prefix string, at time.Time) (string, error) {
	full := fmt.Sprintf("%s-%d%02d-", prefix, at.Year(), int(at.Month()))

	var last LedgerEntry
	err := tx.Where("transaction_number LIKE ?", full+"%").
		Order("id DESC").
		First(&last).Error
	seq := 1
	if err == nil {
		var n int
		if _, scanErr := fmt.Sscanf(last.TransactionNumber[len(full):], "%d", &n); scanErr == nil {
			seq = n + 1
		}
	} else if err != gorm.ErrRecordNotFound {
		return "", err
	}
	return fmt.Sprintf("%s%05d", full, seq), nil
}

// PostLedgerEntry is the single point of truth for balance mutation: it
// applies the entry's signed quantity to the locked stock row, computes the
// resulting running balance and appends the entry. Postings that would drive
// on-hand negative fail with ErrNegativeBalance; postings that would cut
// on-hand below the reserved quantity fail with ErrInsufficientStock. The
// entry and the balance update share the caller's transaction.
func PostLedgerEntry(tx *gorm.DB, stock *ItemStock, entry *LedgerEntry) error {
	if entry.TransactionDate.IsZero() {
		entry.TransactionDate = time.Now().UTC()
	}
	entry.ItemId = stock.ItemId
	entry.LocationType = stock.LocationType
	entry.LocationId = stock.LocationId

	if entry.MovementType.AffectsOnHand() {
		newOnHand := stock.QuantityOnHand.Add(entry.Quantity)
		if newOnHand.Sign() < 0 {
			return fmt.Errorf("%w: item %d at %s/%d, on hand %s, movement %s",
				ErrNegativeBalance, stock.ItemId, stock.LocationType, stock.LocationId,
				stock.QuantityOnHand, entry.Quantity)
		}
		if newOnHand.LessThan(stock.QuantityReserved) {
			return fmt.Errorf("%w: item %d at %s/%d, movement would cut on hand %s below reserved %s",
				ErrInsufficientStock, stock.ItemId, stock.LocationType, stock.LocationId,
				newOnHand, stock.QuantityReserved)
		}
		stock.QuantityOnHand = newOnHand
	} else {
		newReserved := stock.QuantityReserved.Add(entry.Quantity)
		if newReserved.Sign() < 0 {
			return fmt.Errorf("%w: item %d at %s/%d, reserved %s, movement %s",
				ErrOverRelease, stock.ItemId, stock.LocationType, stock.LocationId,
				stock.QuantityReserved, entry.Quantity)
		}
		if newReserved.GreaterThan(stock.QuantityOnHand) {
			return fmt.Errorf("%w: item %d at %s/%d, available %s, requested %s",
				ErrInsufficientStock, stock.ItemId, stock.LocationType, stock.LocationId,
				stock.QuantityAvailable(), entry.Quantity)
		}
		stock.QuantityReserved = newReserved
	}

	now := entry.TransactionDate
	stock.LastMovementAt = &now
	entry.RunningBalance = stock.QuantityOnHand

	number, err := nextTransactionNumber(tx, entry.MovementType.numberPrefix(), entry.TransactionDate)
	if err != nil {
		return err
	}
	entry.TransactionNumber = number

	if err := tx.Save(stock).Error; err != nil {
		return err
	}
	return tx.Create(entry).Error
}

// LedgerHistory returns the time-ordered movement history for one item at one
// location. Pure read; no cursor state.
func LedgerHistory(tx *gorm.DB, itemId uint, loc LocationRef) ([]LedgerEntry, error) {
	var entries []LedgerEntry
	err := tx.Where("item_id = ? AND location_type = ? AND location_id = ?", itemId, loc.Type, loc.ID).
		Order("transaction_date, id").
		Find(&entries).Error
	return entries, err
}
