package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DistributionType string

const (
	DistributionOneTime   DistributionType = "one_time"
	DistributionMonthly   DistributionType = "monthly"
	DistributionQuarterly DistributionType = "quarterly"
	DistributionCustom    DistributionType = "custom"
)

type AllocationStatus string

const (
	AllocationActive    AllocationStatus = "active"
	AllocationCancelled AllocationStatus = "cancelled"
	AllocationCompleted AllocationStatus = "completed"
)

// TargetKind names the one entity an allocation books its cost against.
type TargetKind string

const (
	TargetContract TargetKind = "contract"
	TargetSite     TargetKind = "site"
	TargetProject  TargetKind = "project"
)

// AllocationTarget is the tagged form of the exactly-one-of
// contract/site/project rule.
type AllocationTarget struct {
	Kind TargetKind `json:"kind"`
	ID   uint       `json:"id"`
}

// InvoiceAllocation distributes one invoice total across time periods against
// a single target. Unique per invoice; the three target columns are mutually
// exclusive (CHECK constraint in the tenant migration, plus code validation).
type InvoiceAllocation struct {
	Id               uint               `json:"id" gorm:"primaryKey"`
	InvoiceId        uint               `json:"invoice_id" gorm:"not null;uniqueIndex"`
	Invoice          SupplierInvoice    `json:"-" gorm:"foreignKey:InvoiceId;references:Id"`
	ContractId       *uint              `json:"contract_id"`
	SiteId           *uint              `json:"site_id"`
	ProjectId        *uint              `json:"project_id"`
	TargetKind       TargetKind         `json:"target_kind" gorm:"size:20;not null"`
	TotalAmount      decimal.Decimal    `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	DistributionType DistributionType   `json:"distribution_type" gorm:"size:20;not null;default:one_time"`
	StartDate        time.Time          `json:"start_date" gorm:"not null"`
	EndDate          time.Time          `json:"end_date" gorm:"not null"`
	NumberOfPeriods  int                `json:"number_of_periods" gorm:"not null;default:1"`
	Status           AllocationStatus   `json:"status" gorm:"size:20;not null;default:active"`
	Notes            string             `json:"notes"`
	CreatedBy        string             `json:"created_by" gorm:"size:128"`
	Periods          []AllocationPeriod `json:"periods" gorm:"foreignKey:AllocationId;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// Target returns the tagged target of this allocation.
func (a *InvoiceAllocation) Target() AllocationTarget {
	switch {
	case a.ContractId != nil:
		return AllocationTarget{Kind: TargetContract, ID: *a.ContractId}
	case a.SiteId != nil:
		return AllocationTarget{Kind: TargetSite, ID: *a.SiteId}
	default:
		return AllocationTarget{Kind: TargetProject, ID: derefUint(a.ProjectId)}
	}
}

func derefUint(p *uint) uint {
	if p == nil {
		return 0
	}
	return *p
}

// AllocationPeriod is one slice of an allocation's total. Period numbers are
// 1-based, contiguous and unique per allocation; the amounts sum to the
// allocation total exactly.
type AllocationPeriod struct {
	Id                   uint            `json:"id" gorm:"primaryKey"`
	AllocationId         uint            `json:"allocation_id" gorm:"not null;uniqueIndex:idx_allocation_periods_number,priority:1"`
	PeriodNumber         int             `json:"period_number" gorm:"not null;uniqueIndex:idx_allocation_periods_number,priority:2"`
	PeriodStart          time.Time       `json:"period_start" gorm:"not null"`
	PeriodEnd            time.Time       `json:"period_end" gorm:"not null"`
	Amount               decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	IsRecognized         bool            `json:"is_recognized" gorm:"not null;default:false"`
	RecognizedAt         *time.Time      `json:"recognized_at"`
	RecognitionNumber    *string         `json:"recognition_number" gorm:"size:30"`
	RecognitionReference string          `json:"recognition_reference" gorm:"size:100"`
	RecognitionNotes     string          `json:"recognition_notes"`
	RecognizedBy         string          `json:"recognized_by" gorm:"size:128"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// PeriodInput is a caller-supplied slice for custom distributions.
type PeriodInput struct {
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Amount      decimal.Decimal `json:"amount"`
}

// NewAllocation is the creation input. Exactly one target pointer must be
// set; custom distributions supply their own period boundaries and amounts.
type NewAllocation struct {
	InvoiceId        uint             `json:"invoice_id" validate:"required"`
	ContractId       *uint            `json:"contract_id"`
	SiteId           *uint            `json:"site_id"`
	ProjectId        *uint            `json:"project_id"`
	TotalAmount      decimal.Decimal  `json:"total_amount"`
	DistributionType DistributionType `json:"distribution_type" validate:"required,oneof=one_time monthly quarterly custom"`
	StartDate        time.Time        `json:"start_date"`
	EndDate          time.Time        `json:"end_date"`
	CustomPeriods    []PeriodInput    `json:"custom_periods"`
	Notes            string           `json:"notes"`
}

// Target validates the exactly-one rule and returns the tagged target.
func (in *NewAllocation) Target() (AllocationTarget, error) {
	var targets []AllocationTarget
	if in.ContractId != nil {
		targets = append(targets, AllocationTarget{Kind: TargetContract, ID: *in.ContractId})
	}
	if in.SiteId != nil {
		targets = append(targets, AllocationTarget{Kind: TargetSite, ID: *in.SiteId})
	}
	if in.ProjectId != nil {
		targets = append(targets, AllocationTarget{Kind: TargetProject, ID: *in.ProjectId})
	}
	if len(targets) != 1 {
		return AllocationTarget{}, fmt.Errorf("%w: got %d of contract/site/project", ErrInvalidTarget, len(targets))
	}
	return targets[0], nil
}

// addMonths advances a date by whole months, clamping the day to the last
// day of the target month (Jan 31 + 1 month = Feb 28, not Mar 3).
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

func minDate(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// cadencePeriods slices [start, end] into spans of `step` months, assigning
// total/n rounded to cents per period and the rounding remainder to the last
// period so the sum equals total exactly. Boundaries are always computed
// from the window start so a month-end start date does not drift.
func cadencePeriods(total decimal.Decimal, start, end time.Time, step int) []AllocationPeriod {
	n := 0
	for addMonths(start, n*step).Before(end) {
		n++
	}
	if n == 0 {
		n = 1
	}

	per := total.Div(decimal.NewFromInt(int64(n))).Round(2)
	periods := make([]AllocationPeriod, 0, n)
	allocated := decimal.Zero
	for i := 1; i <= n; i++ {
		amount := per
		if i == n {
			amount = total.Sub(allocated)
		}
		allocated = allocated.Add(amount)
		periods = append(periods, AllocationPeriod{
			PeriodNumber: i,
			PeriodStart:  addMonths(start, (i-1)*step),
			PeriodEnd:    minDate(addMonths(start, i*step).AddDate(0, 0, -1), end),
			Amount:       amount,
		})
	}
	return periods
}

// calculatePeriods builds the period set for an allocation. Custom inputs
// must partition [start, end] with no gaps or overlaps and sum to the total;
// violations fail with ErrPeriodMismatch.
func calculatePeriods(total decimal.Decimal, dist DistributionType, start, end time.Time, custom []PeriodInput) ([]AllocationPeriod, error) {
	switch dist {
	case DistributionOneTime:
		return []AllocationPeriod{{
			PeriodNumber: 1,
			PeriodStart:  start,
			PeriodEnd:    end,
			Amount:       total,
		}}, nil

	case DistributionMonthly:
		return cadencePeriods(total, start, end, 1), nil

	case DistributionQuarterly:
		return cadencePeriods(total, start, end, 3), nil

	case DistributionCustom:
		if len(custom) == 0 {
			return nil, fmt.Errorf("%w: custom distribution without periods", ErrPeriodMismatch)
		}
		periods := make([]AllocationPeriod, 0, len(custom))
		sum := decimal.Zero
		for i, in := range custom {
			if !in.PeriodStart.Before(in.PeriodEnd) && !in.PeriodStart.Equal(in.PeriodEnd) {
				return nil, fmt.Errorf("%w: period %d start %s after end %s",
					ErrPeriodMismatch, i+1, in.PeriodStart.Format("2006-01-02"), in.PeriodEnd.Format("2006-01-02"))
			}
			if i == 0 {
				if !in.PeriodStart.Equal(start) {
					return nil, fmt.Errorf("%w: first period starts %s, window starts %s",
						ErrPeriodMismatch, in.PeriodStart.Format("2006-01-02"), start.Format("2006-01-02"))
				}
			} else {
				want := custom[i-1].PeriodEnd.AddDate(0, 0, 1)
				if !in.PeriodStart.Equal(want) {
					return nil, fmt.Errorf("%w: period %d starts %s, expected %s",
						ErrPeriodMismatch, i+1, in.PeriodStart.Format("2006-01-02"), want.Format("2006-01-02"))
				}
			}
			sum = sum.Add(in.Amount)
			periods = append(periods, AllocationPeriod{
				PeriodNumber: i + 1,
				PeriodStart:  in.PeriodStart,
				PeriodEnd:    in.PeriodEnd,
				Amount:       in.Amount,
			})
		}
		if !custom[len(custom)-1].PeriodEnd.Equal(end) {
			return nil, fmt.Errorf("%w: last period ends %s, window ends %s",
				ErrPeriodMismatch, custom[len(custom)-1].PeriodEnd.Format("2006-01-02"), end.Format("2006-01-02"))
		}
		if !sum.Equal(total) {
			return nil, fmt.Errorf("%w: periods sum to %s, total is %s", ErrPeriodMismatch, sum, total)
		}
		return periods, nil
	}
	return nil, fmt.Errorf("unknown distribution type %q", dist)
}

// CreateAllocation creates the allocation and its complete period set in one
// transaction; a partial period set is never visible. Fails with
// ErrInvalidTarget, ErrDuplicateAllocation or ErrPeriodMismatch.
func CreateAllocation(tx *gorm.DB, input *NewAllocation, actor string) (*InvoiceAllocation, error) {
	target, err := input.Target()
	if err != nil {
		return nil, err
	}
	if input.TotalAmount.Sign() <= 0 {
		return nil, fmt.Errorf("total amount must be positive, got %s", input.TotalAmount)
	}
	if !input.StartDate.Before(input.EndDate) {
		return nil, fmt.Errorf("end date must be after start date")
	}

	var invoice SupplierInvoice
	if err := tx.First(&invoice, input.InvoiceId).Error; err != nil {
		return nil, err
	}

	var existing InvoiceAllocation
	err = tx.Where("invoice_id = ?", input.InvoiceId).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: invoice %d (allocation %d)", ErrDuplicateAllocation, input.InvoiceId, existing.Id)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	periods, err := calculatePeriods(input.TotalAmount, input.DistributionType, input.StartDate, input.EndDate, input.CustomPeriods)
	if err != nil {
		return nil, err
	}

	allocation := InvoiceAllocation{
		InvoiceId:        input.InvoiceId,
		ContractId:       input.ContractId,
		SiteId:           input.SiteId,
		ProjectId:        input.ProjectId,
		TargetKind:       target.Kind,
		TotalAmount:      input.TotalAmount,
		DistributionType: input.DistributionType,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		NumberOfPeriods:  len(periods),
		Status:           AllocationActive,
		Notes:            input.Notes,
		CreatedBy:        actor,
		Periods:          periods,
	}
	if err := tx.Create(&allocation).Error; err != nil {
		return nil, err
	}
	return &allocation, nil
}

// CancelAllocation transitions active -> cancelled. Forward-only: already
// recognized periods stay recognized; unrecognized periods become ineligible
// for recognition. Fails with ErrAllocationNotActive otherwise.
func CancelAllocation(tx *gorm.DB, allocationId uint) (*InvoiceAllocation, error) {
	var allocation InvoiceAllocation
	if err := forUpdate(tx).First(&allocation, allocationId).Error; err != nil {
		return nil, err
	}
	if allocation.Status != AllocationActive {
		return nil, fmt.Errorf("%w: allocation %d is %s", ErrAllocationNotActive, allocationId, allocation.Status)
	}
	allocation.Status = AllocationCancelled
	if err := tx.Save(&allocation).Error; err != nil {
		return nil, err
	}
	return &allocation, nil
}

// DeleteAllocation removes an allocation and its periods. Blocked once any
// period has been recognized; cancel instead.
func DeleteAllocation(tx *gorm.DB, allocationId uint) error {
	var allocation InvoiceAllocation
	if err := tx.First(&allocation, allocationId).Error; err != nil {
		return err
	}
	var recognized int64
	if err := tx.Model(&AllocationPeriod{}).
		Where("allocation_id = ? AND is_recognized = ?", allocationId, true).
		Count(&recognized).Error; err != nil {
		return err
	}
	if recognized > 0 {
		return fmt.Errorf("%w: allocation %d has %d recognized periods, cancel instead",
			ErrAlreadyRecognized, allocationId, recognized)
	}
	if err := tx.Where("allocation_id = ?", allocationId).Delete(&AllocationPeriod{}).Error; err != nil {
		return err
	}
	return tx.Delete(&allocation).Error
}

// ReplacePeriods recalculates the period set after a distribution change.
// Blocked once any period has been recognized.
func ReplacePeriods(tx *gorm.DB, allocation *InvoiceAllocation, custom []PeriodInput) error {
	var recognized int64
	if err := tx.Model(&AllocationPeriod{}).
		Where("allocation_id = ? AND is_recognized = ?", allocation.Id, true).
		Count(&recognized).Error; err != nil {
		return err
	}
	if recognized > 0 {
		return fmt.Errorf("%w: allocation %d has recognized periods", ErrAlreadyRecognized, allocation.Id)
	}

	periods, err := calculatePeriods(allocation.TotalAmount, allocation.DistributionType,
		allocation.StartDate, allocation.EndDate, custom)
	if err != nil {
		return err
	}
	if err := tx.Where("allocation_id = ?", allocation.Id).Delete(&AllocationPeriod{}).Error; err != nil {
		return err
	}
	for i := range periods {
		periods[i].AllocationId = allocation.Id
	}
	if err := tx.Create(&periods).Error; err != nil {
		return err
	}
	allocation.NumberOfPeriods = len(periods)
	allocation.Periods = periods
	return tx.Save(allocation).Error
}
