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

type ItemCreateDTO struct {
	ItemNumber  string          `json:"item_number" validate:"required,min=1,max=50"`
	Description string          `json:"description" validate:"required,min=1"`
	SearchText  string          `json:"search_text" validate:"omitempty"`
	Unit        string          `json:"unit" validate:"omitempty,max=20"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type ItemUpdateDTO struct {
	Description *string          `json:"description" validate:"omitempty,min=1"`
	SearchText  *string          `json:"search_text" validate:"omitempty"`
	Unit        *string          `json:"unit" validate:"omitempty,max=20"`
	UnitCost    *decimal.Decimal `json:"unit_cost" validate:"omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price" validate:"omitempty"`
	Active      *bool            `json:"active" validate:"omitempty"`
}

// POST /api/item
func CreateItem(c *fiber.Ctx) error {
	var in ItemCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = "pcs"
	}
	item := models.Item{
		ItemNumber:  strings.TrimSpace(in.ItemNumber),
		Description: strings.TrimSpace(in.Description),
		SearchText:  strings.TrimSpace(in.SearchText),
		Unit:        unit,
		UnitCost:    in.UnitCost.Round(2),
		UnitPrice:   in.UnitPrice.Round(2),
		Active:      true,
	}
	if err := db.Create(&item).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create item (number taken?)")
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// GET /api/items?q=<search>
func GetItems(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	q := db.Where("active = ?", true)
	if search := strings.TrimSpace(c.Query("q")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where("LOWER(item_number) LIKE ? OR LOWER(description) LIKE ? OR LOWER(search_text) LIKE ?",
			like, like, like)
	}

	var items []models.Item
	if err := q.Order("item_number").Find(&items).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(items)
}

// GET /api/item/:id
func GetItem(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var item models.Item
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "item not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(item)
}

// PUT /api/item/:id
func UpdateItem(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))

	var in ItemUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var existing models.Item
	if err := db.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "item not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	updates := map[string]interface{}{}
	if in.Description != nil {
		updates["description"] = strings.TrimSpace(*in.Description)
	}
	if in.SearchText != nil {
		updates["search_text"] = strings.TrimSpace(*in.SearchText)
	}
	if in.Unit != nil {
		updates["unit"] = strings.TrimSpace(*in.Unit)
	}
	if in.UnitCost != nil {
		updates["unit_cost"] = in.UnitCost.Round(2)
	}
	if in.UnitPrice != nil {
		updates["unit_price"] = in.UnitPrice.Round(2)
	}
	if in.Active != nil {
		updates["active"] = *in.Active
	}
	if len(updates) > 0 {
		if err := db.Model(&models.Item{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not update item")
		}
	}

	var out models.Item
	if err := db.First(&out, "id = ?", id).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reload item")
	}
	return c.JSON(out)
}

// locationFromQuery reads location_type + location_id query params.
func locationFromQuery(c *fiber.Ctx) (models.LocationRef, error) {
	locType := models.LocationType(strings.TrimSpace(c.Query("location_type")))
	if locType != models.LocationWarehouse && locType != models.LocationDevice {
		return models.LocationRef{}, fiber.NewError(fiber.StatusBadRequest, "location_type must be warehouse or device")
	}
	locID, err := strconv.Atoi(c.Query("location_id"))
	if err != nil || locID <= 0 {
		return models.LocationRef{}, fiber.NewError(fiber.StatusBadRequest, "invalid location_id")
	}
	return models.LocationRef{Type: locType, ID: uint(locID)}, nil
}

// GET /api/item/:id/ledger?location_type=warehouse&location_id=1
func GetItemLedger(c *fiber.Ctx) error {
	itemID, err := strconv.Atoi(c.Params("id"))
	if err != nil || itemID <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid item id")
	}
	loc, err := locationFromQuery(c)
	if err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	entries, err := models.LedgerHistory(db, uint(itemID), loc)
	if err != nil {
		return err
	}
	return c.JSON(entries)
}
