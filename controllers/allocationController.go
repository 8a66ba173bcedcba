package controllers

import (
	"errors"
	"strconv"
	"strings"

	"fieldserve-backend/database"
	"fieldserve-backend/middlewares"
	"fieldserve-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RecognizeDTO struct {
	Reference string `json:"reference" validate:"omitempty,max=100"`
	Notes     string `json:"notes" validate:"omitempty"`
}

type UnrecognizeDTO struct {
	Notes string `json:"notes" validate:"omitempty"`
}

// POST /api/allocation
func CreateAllocation(c *fiber.Ctx) error {
	var in models.NewAllocation
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}
	actor, _ := c.Locals("userID").(string)

	allocation, err := models.CreateAllocation(db, &in, actor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "invoice not found")
		}
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(allocation)
}

// GET /api/allocations?status=active
func GetAllocations(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	q := db.Preload("Periods").Order("id DESC")
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	}

	var allocations []models.InvoiceAllocation
	if err := q.Find(&allocations).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(allocations)
}

// GET /api/allocation/:id
func GetAllocation(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var allocation models.InvoiceAllocation
	if err := db.Preload("Periods", func(db *gorm.DB) *gorm.DB {
		return db.Order("period_number")
	}).First(&allocation, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "allocation not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(allocation)
}

// PUT /api/allocation/:id/cancel
func CancelAllocation(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid allocation id")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	allocation, err := models.CancelAllocation(db, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "allocation not found")
		}
		return err
	}
	return c.JSON(allocation)
}

// DELETE /api/allocation/:id
func DeleteAllocation(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid allocation id")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	if err := models.DeleteAllocation(db, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "allocation not found")
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PUT /api/period/:id/recognize
func RecognizePeriod(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid period id")
	}

	var in RecognizeDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}
	actor, _ := c.Locals("userID").(string)

	period, err := models.RecognizePeriod(db, uint(id), strings.TrimSpace(in.Reference), strings.TrimSpace(in.Notes), actor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "period not found")
		}
		return err
	}
	return c.JSON(period)
}

// PUT /api/period/:id/unrecognize (admin only, wired in routes)
func UnrecognizePeriod(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid period id")
	}

	var in UnrecognizeDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}
	actor, _ := c.Locals("userID").(string)

	period, err := models.UnrecognizePeriod(db, uint(id), strings.TrimSpace(in.Notes), actor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "period not found")
		}
		return err
	}
	return c.JSON(period)
}

// GET /api/period/:id/history
func GetRecognitionHistory(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid period id")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	logs, err := models.RecognitionHistory(db, uint(id))
	if err != nil {
		return err
	}
	return c.JSON(logs)
}
