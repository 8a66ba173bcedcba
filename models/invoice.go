package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type InvoiceStatus string

const (
	InvoicePending   InvoiceStatus = "pending"
	InvoiceConfirmed InvoiceStatus = "confirmed"
)

// SupplierInvoice is an ingested vendor invoice. The OCR/AI extraction
// pipeline is an external service; Extracted holds whatever structured
// payload it produced, alongside the fields the backend works with.
type SupplierInvoice struct {
	Id            uint            `json:"id" gorm:"primaryKey"`
	InvoiceNumber string          `json:"invoice_number" gorm:"size:100;not null;uniqueIndex"`
	SupplierId    *uint           `json:"supplier_id"`
	Supplier      *Supplier       `json:"supplier" gorm:"foreignKey:SupplierId;references:Id"`
	VendorName    string          `json:"vendor_name"`
	InvoiceDate   *time.Time      `json:"invoice_date"`
	TotalAmount   decimal.Decimal `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	Currency      string          `json:"currency" gorm:"size:3;default:EUR"`
	Status        InvoiceStatus   `json:"status" gorm:"size:20;not null;default:pending"`
	ContractId    *uint           `json:"contract_id"`
	Extracted     datatypes.JSON  `json:"extracted" gorm:"type:jsonb"`
	Notes         string          `json:"notes"`
	CreatedBy     string          `json:"created_by" gorm:"size:128"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}
