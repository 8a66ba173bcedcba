package models

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"
)

func activeAllocation(t *testing.T, db *gorm.DB, invoice, contract string, months int) *InvoiceAllocation {
	t.Helper()
	inv := testInvoice(t, db, invoice, "900.00")
	ctr := testContract(t, db, contract)
	allocation, err := CreateAllocation(db, &NewAllocation{
		InvoiceId:        inv.Id,
		ContractId:       uintPtr(ctr.Id),
		TotalAmount:      dec("900.00"),
		DistributionType: DistributionMonthly,
		StartDate:        date(2025, time.January, 1),
		EndDate:          date(2025, time.Month(months), 1).AddDate(0, 1, -1),
	}, "acct")
	if err != nil {
		t.Fatalf("create allocation: %v", err)
	}
	return allocation
}

func TestRecognizePeriod_StampsAndLogs(t *testing.T) {
	db := testDB(t)
	allocation := activeAllocation(t, db, "INV-200", "CTR-200", 3)
	periodId := allocation.Periods[0].Id

	period, err := RecognizePeriod(db, periodId, "JRN-42", "monthly close", "acct")
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if !period.IsRecognized || period.RecognizedAt == nil {
		t.Fatal("period not stamped")
	}
	if period.RecognitionNumber == nil || *period.RecognitionNumber == "" {
		t.Fatal("no recognition number assigned")
	}
	want := fmt.Sprintf("REC-%d-0001", time.Now().Year())
	if *period.RecognitionNumber != want {
		t.Errorf("number = %s, want %s", *period.RecognitionNumber, want)
	}

	logs, err := RecognitionHistory(db, periodId)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("got %d log entries, want 1", len(logs))
	}
	if logs[0].Action != ActionRecognized || logs[0].RecognitionNumber != want {
		t.Errorf("log = %+v", logs[0])
	}
}

func TestRecognizePeriod_AlreadyRecognized(t *testing.T) {
	db := testDB(t)
	allocation := activeAllocation(t, db, "INV-201", "CTR-201", 3)
	periodId := allocation.Periods[0].Id

	if _, err := RecognizePeriod(db, periodId, "", "", "acct"); err != nil {
		t.Fatalf("recognize: %v", err)
	}
	_, err := RecognizePeriod(db, periodId, "", "", "acct")
	if !errors.Is(err, ErrAlreadyRecognized) {
		t.Fatalf("got %v, want ErrAlreadyRecognized", err)
	}
}

func TestUnrecognizePeriod_Reverses(t *testing.T) {
	db := testDB(t)
	allocation := activeAllocation(t, db, "INV-202", "CTR-202", 3)
	periodId := allocation.Periods[0].Id

	if _, err := UnrecognizePeriod(db, periodId, "", "admin"); !errors.Is(err, ErrNotRecognized) {
		t.Fatalf("unrecognize fresh period: got %v, want ErrNotRecognized", err)
	}

	recognized, err := RecognizePeriod(db, periodId, "JRN-1", "", "acct")
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	firstNumber := *recognized.RecognitionNumber

	period, err := UnrecognizePeriod(db, periodId, "correction", "admin")
	if err != nil {
		t.Fatalf("unrecognize: %v", err)
	}
	if period.IsRecognized || period.RecognitionNumber != nil || period.RecognizedAt != nil {
		t.Fatal("period not fully cleared")
	}

	// Recognize again: the counter never resets, so the number advances.
	again, err := RecognizePeriod(db, periodId, "JRN-2", "", "acct")
	if err != nil {
		t.Fatalf("second recognize: %v", err)
	}
	if *again.RecognitionNumber == firstNumber {
		t.Errorf("recognition number reused: %s", firstNumber)
	}

	logs, err := RecognitionHistory(db, periodId)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("got %d log entries, want 3", len(logs))
	}
	// Newest first.
	if logs[0].Action != ActionRecognized || logs[1].Action != ActionUnrecognized || logs[2].Action != ActionRecognized {
		t.Errorf("log order: %s, %s, %s", logs[0].Action, logs[1].Action, logs[2].Action)
	}
	// The reversal keeps the original number for traceability.
	if logs[1].RecognitionNumber != firstNumber {
		t.Errorf("unrecognize log number = %s, want %s", logs[1].RecognitionNumber, firstNumber)
	}
}

func TestRecognitionNumber_SequenceAcrossPeriods(t *testing.T) {
	db := testDB(t)
	allocation := activeAllocation(t, db, "INV-203", "CTR-203", 3)

	year := time.Now().Year()
	for i, p := range allocation.Periods {
		got, err := RecognizePeriod(db, p.Id, "", "", "acct")
		if err != nil {
			t.Fatalf("recognize period %d: %v", i+1, err)
		}
		want := fmt.Sprintf("REC-%d-%04d", year, i+1)
		if *got.RecognitionNumber != want {
			t.Errorf("period %d number = %s, want %s", i+1, *got.RecognitionNumber, want)
		}
	}
}

func TestRecognition_CompletesAllocation(t *testing.T) {
	db := testDB(t)
	allocation := activeAllocation(t, db, "INV-204", "CTR-204", 2)

	for _, p := range allocation.Periods {
		if _, err := RecognizePeriod(db, p.Id, "", "", "acct"); err != nil {
			t.Fatalf("recognize: %v", err)
		}
	}
	var reloaded InvoiceAllocation
	db.First(&reloaded, allocation.Id)
	if reloaded.Status != AllocationCompleted {
		t.Errorf("status = %s, want completed", reloaded.Status)
	}

	// Reversing one period reopens the allocation.
	if _, err := UnrecognizePeriod(db, allocation.Periods[0].Id, "", "admin"); err != nil {
		t.Fatalf("unrecognize: %v", err)
	}
	db.First(&reloaded, allocation.Id)
	if reloaded.Status != AllocationActive {
		t.Errorf("status = %s, want active", reloaded.Status)
	}
}

func TestUnrecognize_AllowedOnCancelledAllocation(t *testing.T) {
	db := testDB(t)
	allocation := activeAllocation(t, db, "INV-205", "CTR-205", 3)

	if _, err := RecognizePeriod(db, allocation.Periods[0].Id, "", "", "acct"); err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if _, err := CancelAllocation(db, allocation.Id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := UnrecognizePeriod(db, allocation.Periods[0].Id, "undo", "admin"); err != nil {
		t.Fatalf("unrecognize on cancelled allocation: %v", err)
	}
}
