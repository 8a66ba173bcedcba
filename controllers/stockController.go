package controllers

import (
	"errors"
	"strconv"

	"fieldserve-backend/database"
	"fieldserve-backend/middlewares"
	"fieldserve-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AdjustStockDTO struct {
	ItemId       uint                `json:"item_id" validate:"required"`
	LocationType models.LocationType `json:"location_type" validate:"required,oneof=warehouse device"`
	LocationId   uint                `json:"location_id" validate:"required"`
	Quantity     decimal.Decimal     `json:"quantity"`
	Reason       string              `json:"reason" validate:"required,min=3"`
}

// GET /api/stock?location_type=warehouse&location_id=1
func GetStockByLocation(c *fiber.Ctx) error {
	loc, err := locationFromQuery(c)
	if err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	stocks, err := models.StockForLocation(db, loc)
	if err != nil {
		return err
	}
	return c.JSON(stocks)
}

// GET /api/stock/item/:id?location_type=warehouse&location_id=1
func GetItemStock(c *fiber.Ctx) error {
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

	stock, err := models.GetStock(db, uint(itemID), loc)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Never moved here: report a zero balance instead of a 404.
			return c.JSON(fiber.Map{
				"item_id":           itemID,
				"location_type":     loc.Type,
				"location_id":       loc.ID,
				"quantity_on_hand":  decimal.Zero,
				"quantity_reserved": decimal.Zero,
			})
		}
		return err
	}
	return c.JSON(stock)
}

// POST /api/stock/adjust
// Signed quantity: positive counts stock in, negative writes it off.
func AdjustStock(c *fiber.Ctx) error {
	var in AdjustStockDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.Quantity.Sign() == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must be non-zero")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}
	actor, _ := c.Locals("userID").(string)

	loc := models.LocationRef{Type: in.LocationType, ID: in.LocationId}
	stock, err := models.GetOrCreateStock(db, in.ItemId, loc)
	if err != nil {
		return err
	}

	entry := &models.LedgerEntry{
		MovementType: models.MovementAdjust,
		Quantity:     in.Quantity,
		UnitCost:     stock.AverageCost,
		TotalCost:    stock.AverageCost.Mul(in.Quantity.Abs()).Round(2),
		SourceType:   models.SourceAdjustment,
		SourceId:     in.ItemId,
		Notes:        in.Reason,
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
