package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type WorkOrderStatus string

const (
	WorkOrderOpen      WorkOrderStatus = "open"
	WorkOrderApproved  WorkOrderStatus = "approved"
	WorkOrderCancelled WorkOrderStatus = "cancelled"
)

// WorkOrder is a maintenance job. While open, issued items are only reserved;
// approval converts the reservations to permanent deductions.
type WorkOrder struct {
	Id               uint            `json:"id" gorm:"primaryKey"`
	WoNumber         string          `json:"wo_number" gorm:"size:30;not null;uniqueIndex"`
	Title            string          `json:"title" gorm:"not null"`
	Description      string          `json:"description"`
	SiteId           *uint           `json:"site_id"`
	Site             *Site           `json:"-" gorm:"foreignKey:SiteId;references:Id"`
	AssignedDeviceId *uint           `json:"assigned_device_id"`
	AssignedDevice   *HandheldDevice `json:"-" gorm:"foreignKey:AssignedDeviceId;references:Id"`
	Status           WorkOrderStatus `json:"status" gorm:"size:20;not null;default:open"`
	ApprovedBy       string          `json:"approved_by" gorm:"size:128"`
	ApprovedAt       *time.Time      `json:"approved_at"`
	CancelReason     string          `json:"cancel_reason"`
	CancelledAt      *time.Time      `json:"cancelled_at"`
	CreatedBy        string          `json:"created_by" gorm:"size:128"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NextWorkOrderNumber yields WO-<year>-<seq>.
func NextWorkOrderNumber(tx *gorm.DB) (string, error) {
	return nextDocumentNumber(tx, &WorkOrder{}, "wo_number", "WO")
}

// nextDocumentNumber generates <prefix>-<year>-<seq %05d> against the given
// model's number column.
func nextDocumentNumber(tx *gorm.DB, model any, column, prefix string) (string, error) {
	full := fmt.Sprintf("%s-%d-", prefix, time.Now().Year())

	var last []string
	err := tx.Model(model).
		Where(column+" LIKE ?", full+"%").
		Order("id DESC").
		Limit(1).
		Pluck(column, &last).Error
	if err != nil {
		return "", err
	}
	seq := 1
	if len(last) > 0 {
		var n int
		if _, scanErr := fmt.Sscanf(last[0][len(full):], "%d", &n); scanErr == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%05d", full, seq), nil
}

func lockWorkOrder(tx *gorm.DB, woId uint) (*WorkOrder, error) {
	var wo WorkOrder
	if err := forUpdate(tx).First(&wo, woId).Error; err != nil {
		return nil, err
	}
	return &wo, nil
}

// ApproveWorkOrder commits every outstanding reservation held by the work
// order and stamps the approval. The work order must still be open.
func ApproveWorkOrder(tx *gorm.DB, woId uint, actor string) (*WorkOrder, error) {
	wo, err := lockWorkOrder(tx, woId)
	if err != nil {
		return nil, err
	}
	if wo.Status != WorkOrderOpen {
		return nil, fmt.Errorf("%w: work order %s is %s, cannot approve", ErrInvalidState, wo.WoNumber, wo.Status)
	}

	source := SourceRef{Type: SourceWorkOrder, ID: woId}
	held, err := OutstandingReservations(tx, source)
	if err != nil {
		return nil, err
	}
	for _, r := range held {
		loc := LocationRef{Type: r.LocationType, ID: r.LocationId}
		if _, err := Commit(tx, r.ItemId, loc, r.Outstanding, source, actor); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	wo.Status = WorkOrderApproved
	wo.ApprovedBy = actor
	wo.ApprovedAt = &now
	if err := tx.Save(wo).Error; err != nil {
		return nil, err
	}
	return wo, nil
}

// CancelWorkOrder reverses the work order's stock effects. Pre-approval the
// items were only reserved, so the holds are released; post-approval the
// committed quantities are restored with return postings.
func CancelWorkOrder(tx *gorm.DB, woId uint, reason, actor string) (*WorkOrder, error) {
	wo, err := lockWorkOrder(tx, woId)
	if err != nil {
		return nil, err
	}
	if wo.Status == WorkOrderCancelled {
		return nil, fmt.Errorf("%w: work order %s is already cancelled", ErrInvalidState, wo.WoNumber)
	}

	source := SourceRef{Type: SourceWorkOrder, ID: woId}
	wasApproved := wo.Status == WorkOrderApproved

	if wasApproved {
		var committed []Reservation
		if err := tx.Where("source_type = ? AND source_id = ? AND committed > 0", source.Type, source.ID).
			Find(&committed).Error; err != nil {
			return nil, err
		}
		for _, r := range committed {
			loc := LocationRef{Type: r.LocationType, ID: r.LocationId}
			stock, err := GetOrCreateStock(tx, r.ItemId, loc)
			if err != nil {
				return nil, err
			}
			entry := &LedgerEntry{
				MovementType: MovementReturn,
				Quantity:     r.Committed,
				UnitCost:     stock.AverageCost,
				TotalCost:    stock.AverageCost.Mul(r.Committed).Round(2),
				SourceType:   source.Type,
				SourceId:     source.ID,
				Notes:        fmt.Sprintf("Restored on cancellation of %s", wo.WoNumber),
				CreatedBy:    actor,
			}
			if err := PostLedgerEntry(tx, stock, entry); err != nil {
				return nil, err
			}
		}
	} else {
		held, err := OutstandingReservations(tx, source)
		if err != nil {
			return nil, err
		}
		for _, r := range held {
			loc := LocationRef{Type: r.LocationType, ID: r.LocationId}
			if _, err := Release(tx, r.ItemId, loc, r.Outstanding, source, actor); err != nil {
				return nil, err
			}
		}
	}

	now := time.Now().UTC()
	wo.Status = WorkOrderCancelled
	wo.CancelReason = reason
	wo.CancelledAt = &now
	if err := tx.Save(wo).Error; err != nil {
		return nil, err
	}
	return wo, nil
}
