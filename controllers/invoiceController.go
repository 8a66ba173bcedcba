package controllers

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"fieldserve-backend/database"
	"fieldserve-backend/middlewares"
	"fieldserve-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type InvoiceCreateDTO struct {
	InvoiceNumber string          `json:"invoice_number" validate:"required,min=1,max=100"`
	SupplierId    *uint           `json:"supplier_id" validate:"omitempty"`
	VendorName    string          `json:"vendor_name" validate:"omitempty"`
	InvoiceDate   *time.Time      `json:"invoice_date" validate:"omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency" validate:"omitempty,len=3"`
	ContractId    *uint           `json:"contract_id" validate:"omitempty"`
	Extracted     datatypes.JSON  `json:"extracted" validate:"omitempty"`
	Notes         string          `json:"notes" validate:"omitempty"`
}

// ReceiveItemDTO books one invoice line into stock.
type ReceiveItemDTO struct {
	ItemId       uint                `json:"item_id" validate:"required"`
	LocationType models.LocationType `json:"location_type" validate:"required,oneof=warehouse device"`
	LocationId   uint                `json:"location_id" validate:"required"`
	Quantity     decimal.Decimal     `json:"quantity"`
	UnitCost     decimal.Decimal     `json:"unit_cost"`
}

// POST /api/invoice
func CreateSupplierInvoice(c *fiber.Ctx) error {
	var in InvoiceCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.TotalAmount.Sign() <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "total amount must be positive")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}
	actor, _ := c.Locals("userID").(string)

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "EUR"
	}
	invoice := models.SupplierInvoice{
		InvoiceNumber: strings.TrimSpace(in.InvoiceNumber),
		SupplierId:    in.SupplierId,
		VendorName:    strings.TrimSpace(in.VendorName),
		InvoiceDate:   in.InvoiceDate,
		TotalAmount:   in.TotalAmount.Round(2),
		Currency:      currency,
		Status:        models.InvoicePending,
		ContractId:    in.ContractId,
		Extracted:     in.Extracted,
		Notes:         strings.TrimSpace(in.Notes),
		CreatedBy:     actor,
	}
	if err := db.Create(&invoice).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create invoice (number taken?)")
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// GET /api/invoices?status=pending
func GetSupplierInvoices(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	q := db.Preload("Supplier").Order("id DESC")
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	}

	var invoices []models.SupplierInvoice
	if err := q.Find(&invoices).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(invoices)
}

// GET /api/invoice/:id
func GetSupplierInvoice(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var invoice models.SupplierInvoice
	if err := db.Preload("Supplier").First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "invoice not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(invoice)
}

// PUT /api/invoice/:id/confirm
func ConfirmSupplierInvoice(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var invoice models.SupplierInvoice
	if err := db.First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "invoice not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	if invoice.Status == models.InvoiceConfirmed {
		return fiber.NewError(fiber.StatusConflict, "invoice already confirmed")
	}

	invoice.Status = models.InvoiceConfirmed
	if err := db.Save(&invoice).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not confirm invoice")
	}
	return c.JSON(invoice)
}

// POST /api/invoice/:id/receive-item
// Books a received quantity into stock: posts a receive entry and folds the
// line's unit cost into the location's weighted average.
func ReceiveInvoiceItem(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid invoice id")
	}

	var in ReceiveItemDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.Quantity.Sign() <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
	}
	if in.UnitCost.Sign() < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "unit cost cannot be negative")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}
	actor, _ := c.Locals("userID").(string)

	var invoice models.SupplierInvoice
	if err := db.First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "invoice not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	loc := models.LocationRef{Type: in.LocationType, ID: in.LocationId}
	stock, err := models.GetOrCreateStock(db, in.ItemId, loc)
	if err != nil {
		return err
	}

	unitCost := in.UnitCost.Round(2)
	stock.AverageCost = models.WeightedAverageCost(stock.QuantityOnHand, stock.AverageCost, in.Quantity, unitCost)
	stock.LastCost = unitCost

	entry := &models.LedgerEntry{
		MovementType: models.MovementReceive,
		Quantity:     in.Quantity,
		UnitCost:     unitCost,
		TotalCost:    unitCost.Mul(in.Quantity).Round(2),
		SourceType:   models.SourceInvoice,
		SourceId:     invoice.Id,
		Notes:        "Received against " + invoice.InvoiceNumber,
		CreatedBy:    actor,
	}
	if err := models.PostLedgerEntry(db, stock, entry); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"entry": entry,
		"stock": stock,
	})
}
