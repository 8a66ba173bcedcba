package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens a fresh in-memory database with the tenant tables.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&Client{},
		&Site{},
		&Project{},
		&Contract{},
		&Supplier{},
		&Item{},
		&Warehouse{},
		&HandheldDevice{},
		&ItemStock{},
		&LedgerEntry{},
		&Reservation{},
		&StockTransfer{},
		&StockTransferLine{},
		&WorkOrder{},
		&SupplierInvoice{},
		&InvoiceAllocation{},
		&AllocationPeriod{},
		&RecognitionLog{},
		&RecognitionCounter{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testItem(t *testing.T, db *gorm.DB, number string) *Item {
	t.Helper()
	item := Item{
		ItemNumber:  number,
		Description: "test item " + number,
		Unit:        "pcs",
		UnitCost:    dec("10.00"),
		UnitPrice:   dec("15.00"),
		Active:      true,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}
	return &item
}

// receive posts an incoming movement so tests have stock to work with.
func receive(t *testing.T, db *gorm.DB, itemId uint, loc LocationRef, qty, unitCost string) *LedgerEntry {
	t.Helper()
	stock, err := GetOrCreateStock(db, itemId, loc)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	cost := dec(unitCost)
	stock.AverageCost = WeightedAverageCost(stock.QuantityOnHand, stock.AverageCost, dec(qty), cost)
	stock.LastCost = cost
	entry := &LedgerEntry{
		MovementType: MovementReceive,
		Quantity:     dec(qty),
		UnitCost:     cost,
		TotalCost:    cost.Mul(dec(qty)).Round(2),
		SourceType:   SourceInvoice,
		SourceId:     1,
		CreatedBy:    "test",
	}
	if err := PostLedgerEntry(db, stock, entry); err != nil {
		t.Fatalf("receive posting: %v", err)
	}
	return entry
}

func wantDecimal(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}
