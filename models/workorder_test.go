package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"
)

func testWorkOrder(t *testing.T, db *gorm.DB, title string) *WorkOrder {
	t.Helper()
	number, err := NextWorkOrderNumber(db)
	if err != nil {
		t.Fatalf("work order number: %v", err)
	}
	wo := WorkOrder{
		WoNumber:  number,
		Title:     title,
		Status:    WorkOrderOpen,
		CreatedBy: "test",
	}
	if err := db.Create(&wo).Error; err != nil {
		t.Fatalf("create work order: %v", err)
	}
	return &wo
}

func TestNextWorkOrderNumber_Sequence(t *testing.T) {
	db := testDB(t)
	year := time.Now().Year()

	first := testWorkOrder(t, db, "pump service")
	if first.WoNumber != fmt.Sprintf("WO-%d-00001", year) {
		t.Errorf("first number = %s", first.WoNumber)
	}
	second := testWorkOrder(t, db, "filter swap")
	if second.WoNumber != fmt.Sprintf("WO-%d-00002", year) {
		t.Errorf("second number = %s", second.WoNumber)
	}
}

func TestApproveWorkOrder_CommitsReservations(t *testing.T) {
	db := testDB(t)
	item := testItem(t, db, "ITM-020")
	loc := LocationRef{Type: LocationDevice, ID: 2}
	receive(t, db, item.Id, loc, "10", "6.00")

	wo := testWorkOrder(t, db, "boiler maintenance")
	source := SourceRef{Type: SourceWorkOrder, ID: wo.Id}
	if _, err := Reserve(db, item.Id, loc, dec("4"), source, "tech"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	approved, err := ApproveWorkOrder(db, wo.Id, "boss")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != WorkOrderApproved || approved.ApprovedAt == nil {
		t.Fatalf("approval not stamped: %+v", approved)
	}

	stock, _ := GetStock(db, item.Id, loc)
	wantDecimal(t, "on hand", stock.QuantityOnHand, "6")
	wantDecimal(t, "reserved", stock.QuantityReserved, "0")

	// Approving twice is a state error.
	if _, err := ApproveWorkOrder(db, wo.Id, "boss"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second approve: got %v, want ErrInvalidState", err)
	}
}

func TestCancelWorkOrder_BeforeApproval(t *testing.T) {
	db := testDB(t)
	item := testItem(t, db, "ITM-021")
	loc := LocationRef{Type: LocationWarehouse, ID: 1}
	receive(t, db, item.Id, loc, "10", "6.00")

	wo := testWorkOrder(t, db, "leak check")
	source := SourceRef{Type: SourceWorkOrder, ID: wo.Id}
	if _, err := Reserve(db, item.Id, loc, dec("3"), source, "tech"); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	cancelled, err := CancelWorkOrder(db, wo.Id, "customer declined", "boss")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != WorkOrderCancelled {
		t.Errorf("status = %s", cancelled.Status)
	}

	// Holds are given back, nothing was deducted.
	stock, _ := GetStock(db, item.Id, loc)
	wantDecimal(t, "on hand", stock.QuantityOnHand, "10")
	wantDecimal(t, "reserved", stock.QuantityReserved, "0")
}

func TestCancelWorkOrder_AfterApproval(t *testing.T) {
	db := testDB(t)
	item := testItem(t, db, "ITM-022")
	loc := LocationRef{Type: LocationDevice, ID: 4}
	receive(t, db, item.Id, loc, "10", "6.00")

	wo := testWorkOrder(t, db, "valve replacement")
	source := SourceRef{Type: SourceWorkOrder, ID: wo.Id}
	if _, err := Reserve(db, item.Id, loc, dec("4"), source, "tech"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := ApproveWorkOrder(db, wo.Id, "boss"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := CancelWorkOrder(db, wo.Id, "wrong site", "boss"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// Committed quantities come back as return postings.
	stock, _ := GetStock(db, item.Id, loc)
	wantDecimal(t, "on hand restored", stock.QuantityOnHand, "10")

	entries, _ := LedgerHistory(db, item.Id, loc)
	var returns int
	for _, e := range entries {
		if e.MovementType == MovementReturn {
			returns++
			wantDecimal(t, "return quantity", e.Quantity, "4")
		}
	}
	if returns != 1 {
		t.Errorf("got %d return entries, want 1", returns)
	}
}
