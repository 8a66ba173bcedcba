package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testInvoice(t *testing.T, db *gorm.DB, number string, total string) *SupplierInvoice {
	t.Helper()
	inv := SupplierInvoice{
		InvoiceNumber: number,
		VendorName:    "ACME Parts GmbH",
		TotalAmount:   dec(total),
		Currency:      "EUR",
		Status:        InvoicePending,
	}
	if err := db.Create(&inv).Error; err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return &inv
}

func uintPtr(v uint) *uint { return &v }

func testContract(t *testing.T, db *gorm.DB, number string) *Contract {
	t.Helper()
	contract := Contract{
		ContractNumber: number,
		Name:           "maintenance " + number,
		StartDate:      date(2025, time.January, 1),
		EndDate:        date(2025, time.December, 31),
		ContractValue:  dec("12000.00"),
		Active:         true,
	}
	if err := db.Create(&contract).Error; err != nil {
		t.Fatalf("create contract: %v", err)
	}
	return &contract
}

func TestCalculatePeriods_MonthlyRemainder(t *testing.T) {
	periods, err := calculatePeriods(dec("1000.00"), DistributionMonthly,
		date(2025, time.January, 1), date(2025, time.March, 31), nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if len(periods) != 3 {
		t.Fatalf("got %d periods, want 3", len(periods))
	}
	wantDecimal(t, "period 1", periods[0].Amount, "333.33")
	wantDecimal(t, "period 2", periods[1].Amount, "333.33")
	wantDecimal(t, "period 3", periods[2].Amount, "333.34")

	sum := decimal.Zero
	for _, p := range periods {
		sum = sum.Add(p.Amount)
	}
	wantDecimal(t, "sum", sum, "1000.00")

	if !periods[0].PeriodStart.Equal(date(2025, time.January, 1)) {
		t.Errorf("period 1 starts %s", periods[0].PeriodStart)
	}
	if !periods[0].PeriodEnd.Equal(date(2025, time.January, 31)) {
		t.Errorf("period 1 ends %s", periods[0].PeriodEnd)
	}
	if !periods[2].PeriodEnd.Equal(date(2025, time.March, 31)) {
		t.Errorf("period 3 ends %s", periods[2].PeriodEnd)
	}
}

func TestCalculatePeriods_Quarterly(t *testing.T) {
	periods, err := calculatePeriods(dec("1200.00"), DistributionQuarterly,
		date(2025, time.January, 1), date(2025, time.December, 31), nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if len(periods) != 4 {
		t.Fatalf("got %d periods, want 4", len(periods))
	}
	for i, p := range periods {
		wantDecimal(t, "quarter amount", p.Amount, "300.00")
		if p.PeriodNumber != i+1 {
			t.Errorf("period number %d at index %d", p.PeriodNumber, i)
		}
	}
}

func TestCalculatePeriods_OneTime(t *testing.T) {
	periods, err := calculatePeriods(dec("500.00"), DistributionOneTime,
		date(2025, time.June, 1), date(2025, time.June, 30), nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if len(periods) != 1 {
		t.Fatalf("got %d periods, want 1", len(periods))
	}
	wantDecimal(t, "amount", periods[0].Amount, "500.00")
}

func TestCalculatePeriods_MonthEndClamping(t *testing.T) {
	// Starting on Jan 31 must not skid into March.
	periods, err := calculatePeriods(dec("300.00"), DistributionMonthly,
		date(2025, time.January, 31), date(2025, time.April, 29), nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if len(periods) != 3 {
		t.Fatalf("got %d periods, want 3", len(periods))
	}
	if !periods[1].PeriodStart.Equal(date(2025, time.February, 28)) {
		t.Errorf("period 2 starts %s, want 2025-02-28", periods[1].PeriodStart.Format("2006-01-02"))
	}
}

func TestCalculatePeriods_CustomValidation(t *testing.T) {
	start := date(2025, time.January, 1)
	end := date(2025, time.February, 28)

	cases := []struct {
		name    string
		periods []PeriodInput
	}{
		{"sum mismatch", []PeriodInput{
			{PeriodStart: start, PeriodEnd: date(2025, time.January, 31), Amount: dec("400.00")},
			{PeriodStart: date(2025, time.February, 1), PeriodEnd: end, Amount: dec("500.00")},
		}},
		{"gap between periods", []PeriodInput{
			{PeriodStart: start, PeriodEnd: date(2025, time.January, 30), Amount: dec("500.00")},
			{PeriodStart: date(2025, time.February, 1), PeriodEnd: end, Amount: dec("500.00")},
		}},
		{"ends before window", []PeriodInput{
			{PeriodStart: start, PeriodEnd: date(2025, time.January, 31), Amount: dec("500.00")},
			{PeriodStart: date(2025, time.February, 1), PeriodEnd: date(2025, time.February, 27), Amount: dec("500.00")},
		}},
		{"no periods", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := calculatePeriods(dec("1000.00"), DistributionCustom, start, end, tc.periods)
			if !errors.Is(err, ErrPeriodMismatch) {
				t.Fatalf("got %v, want ErrPeriodMismatch", err)
			}
		})
	}

	valid := []PeriodInput{
		{PeriodStart: start, PeriodEnd: date(2025, time.January, 31), Amount: dec("700.00")},
		{PeriodStart: date(2025, time.February, 1), PeriodEnd: end, Amount: dec("300.00")},
	}
	periods, err := calculatePeriods(dec("1000.00"), DistributionCustom, start, end, valid)
	if err != nil {
		t.Fatalf("valid custom periods rejected: %v", err)
	}
	if len(periods) != 2 {
		t.Fatalf("got %d periods, want 2", len(periods))
	}
}

func TestCreateAllocation_TargetValidation(t *testing.T) {
	db := testDB(t)
	inv := testInvoice(t, db, "INV-100", "1000.00")
	contract := testContract(t, db, "CTR-100")

	base := NewAllocation{
		InvoiceId:        inv.Id,
		TotalAmount:      dec("1000.00"),
		DistributionType: DistributionOneTime,
		StartDate:        date(2025, time.January, 1),
		EndDate:          date(2025, time.January, 31),
	}

	// No target
	in := base
	if _, err := CreateAllocation(db, &in, "acct"); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("no target: got %v, want ErrInvalidTarget", err)
	}

	// Two targets
	in = base
	in.ContractId = uintPtr(contract.Id)
	in.SiteId = uintPtr(1)
	if _, err := CreateAllocation(db, &in, "acct"); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("two targets: got %v, want ErrInvalidTarget", err)
	}

	// Exactly one
	in = base
	in.ContractId = uintPtr(contract.Id)
	allocation, err := CreateAllocation(db, &in, "acct")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if allocation.TargetKind != TargetContract {
		t.Errorf("target kind = %s, want contract", allocation.TargetKind)
	}
	if allocation.NumberOfPeriods != 1 {
		t.Errorf("number of periods = %d, want 1", allocation.NumberOfPeriods)
	}
}

func TestCreateAllocation_DuplicateInvoice(t *testing.T) {
	db := testDB(t)
	inv := testInvoice(t, db, "INV-101", "600.00")
	contract := testContract(t, db, "CTR-101")

	in := NewAllocation{
		InvoiceId:        inv.Id,
		ContractId:       uintPtr(contract.Id),
		TotalAmount:      dec("600.00"),
		DistributionType: DistributionMonthly,
		StartDate:        date(2025, time.January, 1),
		EndDate:          date(2025, time.June, 30),
	}
	if _, err := CreateAllocation(db, &in, "acct"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := CreateAllocation(db, &in, "acct")
	if !errors.Is(err, ErrDuplicateAllocation) {
		t.Fatalf("got %v, want ErrDuplicateAllocation", err)
	}
}

func TestCancelAllocation_ForwardOnly(t *testing.T) {
	db := testDB(t)
	inv := testInvoice(t, db, "INV-102", "900.00")
	contract := testContract(t, db, "CTR-102")

	allocation, err := CreateAllocation(db, &NewAllocation{
		InvoiceId:        inv.Id,
		ContractId:       uintPtr(contract.Id),
		TotalAmount:      dec("900.00"),
		DistributionType: DistributionMonthly,
		StartDate:        date(2025, time.January, 1),
		EndDate:          date(2025, time.March, 31),
	}, "acct")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Recognize the first period, then cancel.
	if _, err := RecognizePeriod(db, allocation.Periods[0].Id, "JRN-1", "", "acct"); err != nil {
		t.Fatalf("recognize: %v", err)
	}
	cancelled, err := CancelAllocation(db, allocation.Id)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != AllocationCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}

	// Cancelling again fails.
	if _, err := CancelAllocation(db, allocation.Id); !errors.Is(err, ErrAllocationNotActive) {
		t.Fatalf("second cancel: got %v, want ErrAllocationNotActive", err)
	}

	// Recognized period stays recognized; remaining periods are closed off.
	var first AllocationPeriod
	db.First(&first, allocation.Periods[0].Id)
	if !first.IsRecognized {
		t.Error("recognized period lost its recognition on cancel")
	}
	if _, err := RecognizePeriod(db, allocation.Periods[1].Id, "", "", "acct"); !errors.Is(err, ErrAllocationNotActive) {
		t.Fatalf("recognize on cancelled: got %v, want ErrAllocationNotActive", err)
	}
}

func TestDeleteAllocation_BlockedAfterRecognition(t *testing.T) {
	db := testDB(t)
	inv := testInvoice(t, db, "INV-103", "300.00")
	contract := testContract(t, db, "CTR-103")

	allocation, err := CreateAllocation(db, &NewAllocation{
		InvoiceId:        inv.Id,
		ContractId:       uintPtr(contract.Id),
		TotalAmount:      dec("300.00"),
		DistributionType: DistributionMonthly,
		StartDate:        date(2025, time.January, 1),
		EndDate:          date(2025, time.March, 31),
	}, "acct")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := RecognizePeriod(db, allocation.Periods[0].Id, "", "", "acct"); err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if err := DeleteAllocation(db, allocation.Id); !errors.Is(err, ErrAlreadyRecognized) {
		t.Fatalf("got %v, want ErrAlreadyRecognized", err)
	}
}
