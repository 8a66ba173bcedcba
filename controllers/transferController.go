package controllers

import (
	"errors"
	"strconv"
	"strings"

	"fieldserve-backend/database"
	"fieldserve-backend/middlewares"
	"fieldserve-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransferLineDTO struct {
	ItemId   uint            `json:"item_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

type TransferCreateDTO struct {
	FromLocationType models.LocationType `json:"from_location_type" validate:"required,oneof=warehouse device"`
	FromLocationId   uint                `json:"from_location_id" validate:"required"`
	ToLocationType   models.LocationType `json:"to_location_type" validate:"required,oneof=warehouse device"`
	ToLocationId     uint                `json:"to_location_id" validate:"required"`
	Lines            []TransferLineDTO   `json:"lines" validate:"required,min=1,dive"`
	Notes            string              `json:"notes" validate:"omitempty"`
}

// POST /api/transfer
func CreateTransfer(c *fiber.Ctx) error {
	var in TransferCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.FromLocationType == in.ToLocationType && in.FromLocationId == in.ToLocationId {
		return fiber.NewError(fiber.StatusBadRequest, "source and destination are the same location")
	}
	for _, line := range in.Lines {
		if line.Quantity.Sign() <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "line quantities must be positive")
		}
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}
	actor, _ := c.Locals("userID").(string)

	number, err := models.NextTransferNumber(db)
	if err != nil {
		return err
	}
	transfer := models.StockTransfer{
		TransferNumber:   number,
		FromLocationType: in.FromLocationType,
		FromLocationId:   in.FromLocationId,
		ToLocationType:   in.ToLocationType,
		ToLocationId:     in.ToLocationId,
		Status:           models.TransferDraft,
		Notes:            strings.TrimSpace(in.Notes),
		CreatedBy:        actor,
	}
	for _, line := range in.Lines {
		transfer.Lines = append(transfer.Lines, models.StockTransferLine{
			ItemId:   line.ItemId,
			Quantity: line.Quantity,
		})
	}
	if err := db.Create(&transfer).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create transfer")
	}
	return c.Status(fiber.StatusCreated).JSON(transfer)
}

// GET /api/transfers?status=draft
func GetTransfers(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	q := db.Preload("Lines").Order("id DESC")
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	}

	var transfers []models.StockTransfer
	if err := q.Find(&transfers).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(transfers)
}

// GET /api/transfer/:id
func GetTransfer(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var transfer models.StockTransfer
	if err := db.Preload("Lines").First(&transfer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "transfer not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(transfer)
}

// PUT /api/transfer/:id/complete
func CompleteTransfer(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid transfer id")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}
	actor, _ := c.Locals("userID").(string)

	transfer, err := models.CompleteTransfer(db, uint(id), actor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "transfer not found")
		}
		return err
	}
	return c.JSON(transfer)
}
