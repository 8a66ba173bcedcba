package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RecognitionAction string

const (
	ActionRecognized   RecognitionAction = "recognized"
	ActionUnrecognized RecognitionAction = "unrecognized"
	ActionModified     RecognitionAction = "modified"
)

// RecognitionLog is the append-only audit trail for period recognition.
// Entries are never mutated or deleted.
type RecognitionLog struct {
	Id                uint              `json:"id" gorm:"primaryKey"`
	PeriodId          uint              `json:"period_id" gorm:"not null;index:idx_recognition_logs_period"`
	Action            RecognitionAction `json:"action" gorm:"size:20;not null"`
	RecognitionNumber string            `json:"recognition_number" gorm:"size:30"`
	PreviousStatus    bool              `json:"previous_status"`
	NewStatus         bool              `json:"new_status"`
	Reference         string            `json:"reference" gorm:"size:100"`
	Notes             string            `json:"notes"`
	Snapshot          datatypes.JSON    `json:"snapshot" gorm:"type:jsonb"`
	CreatedBy         string            `json:"created_by" gorm:"size:128"`
	CreatedAt         time.Time         `json:"created_at" gorm:"index:idx_recognition_logs_created,sort:desc"`
}

// RecognitionCounter is the storage-owned sequence behind recognition
// numbers. Single row, incremented under a row lock. The counter never
// resets; only the displayed year prefix rolls.
type RecognitionCounter struct {
	Id      uint  `json:"id" gorm:"primaryKey"`
	NextSeq int64 `json:"next_seq" gorm:"not null;default:1"`
}

// NextRecognitionNumber returns REC-<year>-<seq>, seq zero-padded to 4
// digits. Safe under concurrent service instances: the counter row is
// locked for the duration of the caller's transaction.
func NextRecognitionNumber(tx *gorm.DB, at time.Time) (string, error) {
	counter := RecognitionCounter{Id: 1, NextSeq: 1}
	if err := forUpdate(tx).FirstOrCreate(&counter, RecognitionCounter{Id: 1}).Error; err != nil {
		return "", err
	}
	seq := counter.NextSeq
	counter.NextSeq++
	if err := tx.Save(&counter).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("REC-%d-%04d", at.Year(), seq), nil
}

func lockPeriodWithAllocation(tx *gorm.DB, periodId uint) (*AllocationPeriod, *InvoiceAllocation, error) {
	var period AllocationPeriod
	if err := forUpdate(tx).First(&period, periodId).Error; err != nil {
		return nil, nil, err
	}
	var allocation InvoiceAllocation
	if err := forUpdate(tx).First(&allocation, period.AllocationId).Error; err != nil {
		return nil, nil, err
	}
	return &period, &allocation, nil
}

func snapshotPeriod(p *AllocationPeriod) datatypes.JSON {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

// RecognizePeriod marks a period's cost as formally posted. Generates the
// recognition number, stamps the period and appends the audit entry in the
// caller's transaction. The period row is locked so concurrent toggles on
// the same period serialize. Fails with ErrAlreadyRecognized when already
// recognized and ErrAllocationNotActive when the parent allocation has been
// cancelled (cancellation force-closes unrecognized periods). The parent
// flips to completed when its last period is recognized.
func RecognizePeriod(tx *gorm.DB, periodId uint, reference, notes, actor string) (*AllocationPeriod, error) {
	period, allocation, err := lockPeriodWithAllocation(tx, periodId)
	if err != nil {
		return nil, err
	}
	if period.IsRecognized {
		return nil, fmt.Errorf("%w: period %d (%s)", ErrAlreadyRecognized, periodId, derefString(period.RecognitionNumber))
	}
	if allocation.Status == AllocationCancelled {
		return nil, fmt.Errorf("%w: allocation %d is cancelled", ErrAllocationNotActive, allocation.Id)
	}

	now := time.Now().UTC()
	number, err := NextRecognitionNumber(tx, now)
	if err != nil {
		return nil, err
	}

	period.IsRecognized = true
	period.RecognizedAt = &now
	period.RecognitionNumber = &number
	period.RecognitionReference = reference
	period.RecognitionNotes = notes
	period.RecognizedBy = actor
	if err := tx.Save(period).Error; err != nil {
		return nil, err
	}

	log := RecognitionLog{
		PeriodId:          periodId,
		Action:            ActionRecognized,
		RecognitionNumber: number,
		PreviousStatus:    false,
		NewStatus:         true,
		Reference:         reference,
		Notes:             notes,
		Snapshot:          snapshotPeriod(period),
		CreatedBy:         actor,
	}
	if err := tx.Create(&log).Error; err != nil {
		return nil, err
	}

	// Last period recognized: allocation is complete.
	var pending int64
	if err := tx.Model(&AllocationPeriod{}).
		Where("allocation_id = ? AND is_recognized = ?", allocation.Id, false).
		Count(&pending).Error; err != nil {
		return nil, err
	}
	if pending == 0 && allocation.Status == AllocationActive {
		allocation.Status = AllocationCompleted
		if err := tx.Save(allocation).Error; err != nil {
			return nil, err
		}
	}
	return period, nil
}

// UnrecognizePeriod reverses a recognition for corrections. The original
// recognition number is preserved on the audit entry for traceability.
// Fails with ErrNotRecognized when the period is not recognized. A completed
// parent allocation flips back to active.
func UnrecognizePeriod(tx *gorm.DB, periodId uint, notes, actor string) (*AllocationPeriod, error) {
	period, allocation, err := lockPeriodWithAllocation(tx, periodId)
	if err != nil {
		return nil, err
	}
	if !period.IsRecognized {
		return nil, fmt.Errorf("%w: period %d", ErrNotRecognized, periodId)
	}

	oldNumber := derefString(period.RecognitionNumber)
	log := RecognitionLog{
		PeriodId:          periodId,
		Action:            ActionUnrecognized,
		RecognitionNumber: oldNumber,
		PreviousStatus:    true,
		NewStatus:         false,
		Notes:             notes,
		Snapshot:          snapshotPeriod(period),
		CreatedBy:         actor,
	}
	if err := tx.Create(&log).Error; err != nil {
		return nil, err
	}

	period.IsRecognized = false
	period.RecognizedAt = nil
	period.RecognitionNumber = nil
	period.RecognitionReference = ""
	period.RecognitionNotes = ""
	period.RecognizedBy = ""
	if err := tx.Save(period).Error; err != nil {
		return nil, err
	}

	if allocation.Status == AllocationCompleted {
		allocation.Status = AllocationActive
		if err := tx.Save(allocation).Error; err != nil {
			return nil, err
		}
	}
	return period, nil
}

// RecognitionHistory returns the audit entries for a period, newest first.
func RecognitionHistory(tx *gorm.DB, periodId uint) ([]RecognitionLog, error) {
	var logs []RecognitionLog
	err := tx.Where("period_id = ?", periodId).
		Order("created_at DESC, id DESC").
		Find(&logs).Error
	return logs, err
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
