package models

import (
	"errors"
	"strings"
	"testing"
)

func TestPostLedgerEntry_RunningBalance(t *testing.T) {
	db := testDB(t)
	item := testItem(t, db, "ITM-001")
	loc := LocationRef{Type: LocationWarehouse, ID: 1}

	first := receive(t, db, item.Id, loc, "10", "5.00")
	wantDecimal(t, "first running balance", first.RunningBalance, "10")
	if !strings.HasPrefix(first.TransactionNumber, "RCV-") {
		t.Errorf("transaction number %q, want RCV- prefix", first.TransactionNumber)
	}

	stock, err := GetStock(db, item.Id, loc)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	out := &LedgerEntry{
		MovementType: MovementIssue,
		Quantity:     dec("-3"),
		SourceType:   SourceWorkOrder,
		SourceId:     1,
	}
	if err := PostLedgerEntry(db, stock, out); err != nil {
		t.Fatalf("issue posting: %v", err)
	}
	wantDecimal(t, "second running balance", out.RunningBalance, "7")
	wantDecimal(t, "on hand", stock.QuantityOnHand, "7")
	if !strings.HasPrefix(out.TransactionNumber, "ISS-") {
		t.Errorf("transaction number %q, want ISS- prefix", out.TransactionNumber)
	}
}

func TestPostLedgerEntry_NegativeBalanceRejected(t *testing.T) {
	db := testDB(t)
	item := testItem(t, db, "ITM-002")
	loc := LocationRef{Type: LocationWarehouse, ID: 1}
	receive(t, db, item.Id, loc, "2", "5.00")

	stock, err := GetStock(db, item.Id, loc)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	err = PostLedgerEntry(db, stock, &LedgerEntry{
		MovementType: MovementIssue,
		Quantity:     dec("-5"),
		SourceType:   SourceWorkOrder,
		SourceId:     1,
	})
	if !errors.Is(err, ErrNegativeBalance) {
		t.Fatalf("got %v, want ErrNegativeBalance", err)
	}

	// Failed posting must leave no trace.
	var count int64
	db.Model(&LedgerEntry{}).Where("movement_type = ?", MovementIssue).Count(&count)
	if count != 0 {
		t.Errorf("found %d issue entries after rejected posting", count)
	}
	fresh, _ := GetStock(db, item.Id, loc)
	wantDecimal(t, "on hand after rejection", fresh.QuantityOnHand, "2")
}

func TestLedgerHistory_ReplayMatchesBalance(t *testing.T) {
	db := testDB(t)
	item := testItem(t, db, "ITM-003")
	loc := LocationRef{Type: LocationDevice, ID: 7}

	receive(t, db, item.Id, loc, "10", "4.00")
	receive(t, db, item.Id, loc, "5", "6.00")

	stock, _ := GetStock(db, item.Id, loc)
	if err := PostLedgerEntry(db, stock, &LedgerEntry{
		MovementType: MovementAdjust,
		Quantity:     dec("-2"),
		SourceType:   SourceAdjustment,
		SourceId:     1,
	}); err != nil {
		t.Fatalf("adjust posting: %v", err)
	}

	entries, err := LedgerHistory(db, item.Id, loc)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	// Replaying the signed on-hand movements reproduces the balance.
	sum := dec("0")
	for _, e := range entries {
		if e.MovementType.AffectsOnHand() {
			sum = sum.Add(e.Quantity)
		}
	}
	fresh, _ := GetStock(db, item.Id, loc)
	if !sum.Equal(fresh.QuantityOnHand) {
		t.Errorf("replayed sum %s != on hand %s", sum, fresh.QuantityOnHand)
	}
	wantDecimal(t, "on hand", fresh.QuantityOnHand, "13")
	wantDecimal(t, "last running balance", entries[2].RunningBalance, "13")
}

func TestWeightedAverageCost(t *testing.T) {
	cases := []struct {
		name                                  string
		curQty, curAvg, newQty, newCost, want string
	}{
		{"empty stock takes new cost", "0", "0", "10", "4.50", "4.50"},
		{"equal quantities average", "10", "4.00", "10", "6.00", "5.00"},
		{"weights by quantity", "30", "2.00", "10", "6.00", "3.00"},
		{"zero-cost receipt keeps average", "10", "4.00", "0", "0", "4.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := WeightedAverageCost(dec(tc.curQty), dec(tc.curAvg), dec(tc.newQty), dec(tc.newCost))
			if !got.Equal(dec(tc.want)) {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}
