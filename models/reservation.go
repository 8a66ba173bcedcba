package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReservationStatus is the explicit state of a stock hold:
// reserved -> committed (work order approved) or reserved -> released.
type ReservationStatus string

const (
	ReservationReserved  ReservationStatus = "reserved"
	ReservationCommitted ReservationStatus = "committed"
	ReservationReleased  ReservationStatus = "released"
)

// Reservation is a provisional hold on stock pending work-order approval.
// One row per (item, location, source); repeated reserves against the same
// source accumulate on the outstanding quantity. State is stored, never
// inferred from ledger entry presence.
type Reservation struct {
	Id           uint              `json:"id" gorm:"primaryKey"`
	ItemId       uint              `json:"item_id" gorm:"not null;uniqueIndex:idx_reservations_item_loc_source,priority:1"`
	LocationType LocationType      `json:"location_type" gorm:"size:20;not null;uniqueIndex:idx_reservations_item_loc_source,priority:2"`
	LocationId   uint              `json:"location_id" gorm:"not null;uniqueIndex:idx_reservations_item_loc_source,priority:3"`
	SourceType   string            `json:"source_type" gorm:"size:20;not null;uniqueIndex:idx_reservations_item_loc_source,priority:4"`
	SourceId     uint              `json:"source_id" gorm:"not null;uniqueIndex:idx_reservations_item_loc_source,priority:5"`
	Outstanding  decimal.Decimal   `json:"outstanding" gorm:"type:numeric(20,4);not null;default:0"`
	Committed    decimal.Decimal   `json:"committed" gorm:"type:numeric(20,4);not null;default:0"`
	Released     decimal.Decimal   `json:"released" gorm:"type:numeric(20,4);not null;default:0"`
	Status       ReservationStatus `json:"status" gorm:"size:20;not null;default:reserved"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func findReservation(tx *gorm.DB, itemId uint, loc LocationRef, source SourceRef) (*Reservation, error) {
	var res Reservation
	err := forUpdate(tx).
		Where("item_id = ? AND location_type = ? AND location_id = ? AND source_type = ? AND source_id = ?",
			itemId, loc.Type, loc.ID, source.Type, source.ID).
		First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Reserve holds quantity against a source (typically an unapproved work
// order). Fails with ErrInsufficientStock when the request exceeds
// on-hand minus already-reserved. The reservation record, the stock row and
// the reserve ledger entry change atomically within tx.
func Reserve(tx *gorm.DB, itemId uint, loc LocationRef, quantity decimal.Decimal, source SourceRef, actor string) (*LedgerEntry, error) {
	if quantity.Sign() <= 0 {
		return nil, fmt.Errorf("reserve quantity must be positive, got %s", quantity)
	}

	stock, err := GetOrCreateStock(tx, itemId, loc)
	if err != nil {
		return nil, err
	}
	if quantity.GreaterThan(stock.QuantityAvailable()) {
		return nil, fmt.Errorf("%w: item %d at %s, available %s, requested %s",
			ErrInsufficientStock, itemId, loc, stock.QuantityAvailable(), quantity)
	}

	res, err := findReservation(tx, itemId, loc, source)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		res = &Reservation{
			ItemId:       itemId,
			LocationType: loc.Type,
			LocationId:   loc.ID,
			SourceType:   source.Type,
			SourceId:     source.ID,
			Status:       ReservationReserved,
		}
	} else if err != nil {
		return nil, err
	}
	res.Outstanding = res.Outstanding.Add(quantity)
	res.Status = ReservationReserved
	if err := tx.Save(res).Error; err != nil {
		return nil, err
	}

	entry := &LedgerEntry{
		MovementType: MovementReserve,
		Quantity:     quantity,
		SourceType:   source.Type,
		SourceId:     source.ID,
		CreatedBy:    actor,
	}
	if err := PostLedgerEntry(tx, stock, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Release gives a held quantity back (work-order item returned before
// approval). Fails with ErrReservationNotFound when nothing is outstanding
// for the source and with ErrOverRelease when the quantity exceeds the
// outstanding hold.
func Release(tx *gorm.DB, itemId uint, loc LocationRef, quantity decimal.Decimal, source SourceRef, actor string) (*LedgerEntry, error) {
	if quantity.Sign() <= 0 {
		return nil, fmt.Errorf("release quantity must be positive, got %s", quantity)
	}

	res, err := findReservation(tx, itemId, loc, source)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && res.Outstanding.Sign() == 0) {
		return nil, fmt.Errorf("%w: item %d at %s for %s", ErrReservationNotFound, itemId, loc, source)
	} else if err != nil {
		return nil, err
	}
	if quantity.GreaterThan(res.Outstanding) {
		return nil, fmt.Errorf("%w: item %d at %s for %s, outstanding %s, requested %s",
			ErrOverRelease, itemId, loc, source, res.Outstanding, quantity)
	}

	stock, err := GetOrCreateStock(tx, itemId, loc)
	if err != nil {
		return nil, err
	}

	res.Outstanding = res.Outstanding.Sub(quantity)
	res.Released = res.Released.Add(quantity)
	if res.Outstanding.Sign() == 0 && res.Committed.Sign() == 0 {
		res.Status = ReservationReleased
	}
	if err := tx.Save(res).Error; err != nil {
		return nil, err
	}

	entry := &LedgerEntry{
		MovementType: MovementUnreserve,
		Quantity:     quantity.Neg(),
		SourceType:   source.Type,
		SourceId:     source.ID,
		CreatedBy:    actor,
	}
	if err := PostLedgerEntry(tx, stock, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Commit converts an outstanding reservation into a permanent deduction on
// work-order approval: on-hand and reserved both drop by the quantity and a
// single issue entry is posted. Fails with ErrReservationNotFound when no
// outstanding reservation matches the source, ErrOverRelease when the
// quantity exceeds the outstanding hold.
func Commit(tx *gorm.DB, itemId uint, loc LocationRef, quantity decimal.Decimal, source SourceRef, actor string) (*LedgerEntry, error) {
	if quantity.Sign() <= 0 {
		return nil, fmt.Errorf("commit quantity must be positive, got %s", quantity)
	}

	res, err := findReservation(tx, itemId, loc, source)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && res.Outstanding.Sign() == 0) {
		return nil, fmt.Errorf("%w: item %d at %s for %s", ErrReservationNotFound, itemId, loc, source)
	} else if err != nil {
		return nil, err
	}
	if quantity.GreaterThan(res.Outstanding) {
		return nil, fmt.Errorf("%w: item %d at %s for %s, outstanding %s, commit %s",
			ErrOverRelease, itemId, loc, source, res.Outstanding, quantity)
	}

	stock, err := GetOrCreateStock(tx, itemId, loc)
	if err != nil {
		return nil, err
	}

	res.Outstanding = res.Outstanding.Sub(quantity)
	res.Committed = res.Committed.Add(quantity)
	if res.Outstanding.Sign() == 0 {
		res.Status = ReservationCommitted
	}
	if err := tx.Save(res).Error; err != nil {
		return nil, err
	}

	// Drop the hold first so the issue posting does not trip the
	// on-hand-below-reserved guard.
	stock.QuantityReserved = stock.QuantityReserved.Sub(quantity)

	entry := &LedgerEntry{
		MovementType: MovementIssue,
		Quantity:     quantity.Neg(),
		UnitCost:     stock.AverageCost,
		TotalCost:    stock.AverageCost.Mul(quantity).Round(2),
		SourceType:   source.Type,
		SourceId:     source.ID,
		CreatedBy:    actor,
	}
	if err := PostLedgerEntry(tx, stock, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// OutstandingReservations lists the still-held reservations for one source,
// e.g. every line a work order holds at approval time.
func OutstandingReservations(tx *gorm.DB, source SourceRef) ([]Reservation, error) {
	var res []Reservation
	err := tx.Where("source_type = ? AND source_id = ? AND outstanding > 0", source.Type, source.ID).
		Order("id").
		Find(&res).Error
	return res, err
}
