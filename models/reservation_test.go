package models

import (
	"errors"
	"testing"
)

func TestReserve_InsufficientStock(t *testing.T) {
	db := testDB(t)
	item := testItem(t, db, "ITM-010")
	loc := LocationRef{Type: LocationWarehouse, ID: 1}
	receive(t, db, item.Id, loc, "10", "5.00")

	source := SourceRef{Type: SourceWorkOrder, ID: 1}
	if _, err := Reserve(db, item.Id, loc, dec("10"), source, "tech"); err != nil {
		t.Fatalf("reserving full stock: %v", err)
	}

	// Everything is held now; a second hold must fail even though on-hand
	// is unchanged.
	other := SourceRef{Type: SourceWorkOrder, ID: 2}
	_, err := Reserve(db, item.Id, loc, dec("5"), other, "tech")
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("got %v, want ErrInsufficientStock", err)
	}

	stock, _ := GetStock(db, item.Id, loc)
	wantDecimal(t, "on hand", stock.QuantityOnHand, "10")
	wantDecimal(t, "reserved", stock.QuantityReserved, "10")
	wantDecimal(t, "available", stock.QuantityAvailable(), "0")
}

func TestReserveReleaseCommit_Flow(t *testing.T) {
	db := testDB(t)
	item := testItem(t, db, "ITM-011")
	loc := LocationRef{Type: LocationDevice, ID: 3}
	receive(t, db, item.Id, loc, "10", "8.00")

	source := SourceRef{Type: SourceWorkOrder, ID: 5}
	if _, err := Reserve(db, item.Id, loc, dec("4"), source, "tech"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := Release(db, item.Id, loc, dec("1"), source, "tech"); err != nil {
		t.Fatalf("release: %v", err)
	}

	stock, _ := GetStock(db, item.Id, loc)
	wantDecimal(t, "on hand after release", stock.QuantityOnHand, "10")
	wantDecimal(t, "reserved after release", stock.QuantityReserved, "3")

	entry, err := Commit(db, item.Id, loc, dec("3"), source, "boss")
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if entry.MovementType != MovementIssue {
		t.Errorf("commit posted %s, want issue", entry.MovementType)
	}
	wantDecimal(t, "commit quantity", entry.Quantity, "-3")
	wantDecimal(t, "commit unit cost", entry.UnitCost, "8.00")

	stock, _ = GetStock(db, item.Id, loc)
	wantDecimal(t, "on hand after commit", stock.QuantityOnHand, "7")
	wantDecimal(t, "reserved after commit", stock.QuantityReserved, "0")

	res, err := findReservation(db, item.Id, loc, source)
	if err != nil {
		t.Fatalf("load reservation: %v", err)
	}
	if res.Status != ReservationCommitted {
		t.Errorf("status = %s, want committed", res.Status)
	}
	wantDecimal(t, "outstanding", res.Outstanding, "0")
	wantDecimal(t, "committed", res.Committed, "3")
	wantDecimal(t, "released", res.Released, "1")
}

func TestRelease_WithoutReservation(t *testing.T) {
	db := testDB(t)
	item := testItem(t, db, "ITM-012")
	loc := LocationRef{Type: LocationWarehouse, ID: 1}
	receive(t, db, item.Id, loc, "10", "5.00")

	source := SourceRef{Type: SourceWorkOrder, ID: 9}
	_, err := Release(db, item.Id, loc, dec("1"), source, "tech")
	if !errors.Is(err, ErrReservationNotFound) {
		t.Fatalf("got %v, want ErrReservationNotFound", err)
	}
}

func TestRelease_OverRelease(t *testing.T) {
	db := testDB(t)
	item := testItem(t, db, "ITM-013")
	loc := LocationRef{Type: LocationWarehouse, ID: 1}
	receive(t, db, item.Id, loc, "10", "5.00")

	source := SourceRef{Type: SourceWorkOrder, ID: 4}
	if _, err := Reserve(db, item.Id, loc, dec("2"), source, "tech"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	_, err := Release(db, item.Id, loc, dec("3"), source, "tech")
	if !errors.Is(err, ErrOverRelease) {
		t.Fatalf("got %v, want ErrOverRelease", err)
	}

	// The hold is untouched after the failed release.
	stock, _ := GetStock(db, item.Id, loc)
	wantDecimal(t, "reserved", stock.QuantityReserved, "2")
}

func TestReserve_AccumulatesPerSource(t *testing.T) {
	db := testDB(t)
	item := testItem(t, db, "ITM-014")
	loc := LocationRef{Type: LocationWarehouse, ID: 2}
	receive(t, db, item.Id, loc, "10", "5.00")

	source := SourceRef{Type: SourceWorkOrder, ID: 6}
	if _, err := Reserve(db, item.Id, loc, dec("2"), source, "tech"); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	if _, err := Reserve(db, item.Id, loc, dec("3"), source, "tech"); err != nil {
		t.Fatalf("second reserve: %v", err)
	}

	res, err := findReservation(db, item.Id, loc, source)
	if err != nil {
		t.Fatalf("load reservation: %v", err)
	}
	wantDecimal(t, "outstanding", res.Outstanding, "5")

	var count int64
	db.Model(&Reservation{}).Count(&count)
	if count != 1 {
		t.Errorf("got %d reservation rows, want 1", count)
	}
}

func TestReserve_DoesNotMoveRunningBalance(t *testing.T) {
	db := testDB(t)
	item := testItem(t, db, "ITM-015")
	loc := LocationRef{Type: LocationWarehouse, ID: 1}
	receive(t, db, item.Id, loc, "10", "5.00")

	source := SourceRef{Type: SourceWorkOrder, ID: 8}
	entry, err := Reserve(db, item.Id, loc, dec("4"), source, "tech")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	wantDecimal(t, "reserve running balance", entry.RunningBalance, "10")

	rel, err := Release(db, item.Id, loc, dec("4"), source, "tech")
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	wantDecimal(t, "release quantity", rel.Quantity, "-4")
	wantDecimal(t, "release running balance", rel.RunningBalance, "10")
}
