package models

import (
	"errors"
	"testing"

	"gorm.io/gorm"
)

func testTransfer(t *testing.T, db *gorm.DB, from, to LocationRef, itemId uint, qty string) *StockTransfer {
	t.Helper()
	number, err := NextTransferNumber(db)
	if err != nil {
		t.Fatalf("transfer number: %v", err)
	}
	transfer := StockTransfer{
		TransferNumber:   number,
		FromLocationType: from.Type,
		FromLocationId:   from.ID,
		ToLocationType:   to.Type,
		ToLocationId:     to.ID,
		Status:           TransferDraft,
		Lines: []StockTransferLine{
			{ItemId: itemId, Quantity: dec(qty)},
		},
		CreatedBy: "test",
	}
	if err := db.Create(&transfer).Error; err != nil {
		t.Fatalf("create transfer: %v", err)
	}
	return &transfer
}

func TestCompleteTransfer_MovesStock(t *testing.T) {
	db := testDB(t)
	item := testItem(t, db, "ITM-030")
	warehouse := LocationRef{Type: LocationWarehouse, ID: 1}
	device := LocationRef{Type: LocationDevice, ID: 1}
	receive(t, db, item.Id, warehouse, "10", "4.00")

	transfer := testTransfer(t, db, warehouse, device, item.Id, "6")
	completed, err := CompleteTransfer(db, transfer.Id, "tech")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != TransferCompleted || completed.CompletedAt == nil {
		t.Fatalf("completion not stamped: %+v", completed)
	}

	fromStock, _ := GetStock(db, item.Id, warehouse)
	toStock, _ := GetStock(db, item.Id, device)
	wantDecimal(t, "source on hand", fromStock.QuantityOnHand, "4")
	wantDecimal(t, "destination on hand", toStock.QuantityOnHand, "6")
	// Cost travels with the stock.
	wantDecimal(t, "destination average cost", toStock.AverageCost, "4.00")

	// Paired entries on both sides.
	outHist, _ := LedgerHistory(db, item.Id, warehouse)
	inHist, _ := LedgerHistory(db, item.Id, device)
	if outHist[len(outHist)-1].MovementType != MovementTransferOut {
		t.Errorf("source last movement = %s", outHist[len(outHist)-1].MovementType)
	}
	if inHist[len(inHist)-1].MovementType != MovementTransferIn {
		t.Errorf("destination last movement = %s", inHist[len(inHist)-1].MovementType)
	}
}

func TestCompleteTransfer_InsufficientSourceStock(t *testing.T) {
	db := testDB(t)
	item := testItem(t, db, "ITM-031")
	warehouse := LocationRef{Type: LocationWarehouse, ID: 1}
	device := LocationRef{Type: LocationDevice, ID: 1}
	receive(t, db, item.Id, warehouse, "2", "4.00")

	transfer := testTransfer(t, db, warehouse, device, item.Id, "5")
	_, err := CompleteTransfer(db, transfer.Id, "tech")
	if !errors.Is(err, ErrNegativeBalance) {
		t.Fatalf("got %v, want ErrNegativeBalance", err)
	}
}

func TestCompleteTransfer_OnlyFromDraft(t *testing.T) {
	db := testDB(t)
	item := testItem(t, db, "ITM-032")
	warehouse := LocationRef{Type: LocationWarehouse, ID: 1}
	device := LocationRef{Type: LocationDevice, ID: 2}
	receive(t, db, item.Id, warehouse, "10", "4.00")

	transfer := testTransfer(t, db, warehouse, device, item.Id, "3")
	if _, err := CompleteTransfer(db, transfer.Id, "tech"); err != nil {
		t.Fatalf("first complete: %v", err)
	}
	_, err := CompleteTransfer(db, transfer.Id, "tech")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second complete: got %v, want ErrInvalidState", err)
	}
}

func TestCompleteTransfer_BlendsDestinationCost(t *testing.T) {
	db := testDB(t)
	item := testItem(t, db, "ITM-033")
	warehouse := LocationRef{Type: LocationWarehouse, ID: 1}
	device := LocationRef{Type: LocationDevice, ID: 1}
	receive(t, db, item.Id, warehouse, "10", "6.00")
	receive(t, db, item.Id, device, "10", "2.00")

	transfer := testTransfer(t, db, warehouse, device, item.Id, "10")
	if _, err := CompleteTransfer(db, transfer.Id, "tech"); err != nil {
		t.Fatalf("complete: %v", err)
	}

	toStock, _ := GetStock(db, item.Id, device)
	wantDecimal(t, "blended average", toStock.AverageCost, "4.00")
}
