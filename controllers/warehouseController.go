package controllers

import (
	"errors"
	"strings"

	"fieldserve-backend/database"
	"fieldserve-backend/middlewares"
	"fieldserve-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type WarehouseCreateDTO struct {
	Name    string `json:"name" validate:"required,min=1"`
	Address string `json:"address" validate:"omitempty"`
	IsMain  bool   `json:"is_main"`
}

type DeviceCreateDTO struct {
	DeviceCode  string `json:"device_code" validate:"required,min=1,max=50"`
	Name        string `json:"name" validate:"required,min=1"`
	WarehouseId *uint  `json:"warehouse_id" validate:"omitempty"`
}

// POST /api/warehouse
func CreateWarehouse(c *fiber.Ctx) error {
	var in WarehouseCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	wh := models.Warehouse{
		Name:    strings.TrimSpace(in.Name),
		Address: strings.TrimSpace(in.Address),
		IsMain:  in.IsMain,
		Active:  true,
	}
	if err := db.Create(&wh).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create warehouse")
	}
	return c.Status(fiber.StatusCreated).JSON(wh)
}

// GET /api/warehouses
func GetWarehouses(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var warehouses []models.Warehouse
	if err := db.Where("active = ?", true).Order("name").Find(&warehouses).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(warehouses)
}

// POST /api/device
func CreateDevice(c *fiber.Ctx) error {
	var in DeviceCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	if in.WarehouseId != nil {
		var wh models.Warehouse
		if err := db.First(&wh, "id = ?", *in.WarehouseId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusBadRequest, "warehouse not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "db error")
		}
	}

	device := models.HandheldDevice{
		DeviceCode:  strings.TrimSpace(in.DeviceCode),
		Name:        strings.TrimSpace(in.Name),
		WarehouseId: in.WarehouseId,
		Active:      true,
	}
	if err := db.Create(&device).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create device (code taken?)")
	}
	return c.Status(fiber.StatusCreated).JSON(device)
}

// GET /api/warehouse/:id/stock
func GetWarehouseStock(c *fiber.Ctx) error {
	return stockForLocationParam(c, models.LocationWarehouse)
}

// GET /api/device/:id/stock
func GetDeviceStock(c *fiber.Ctx) error {
	return stockForLocationParam(c, models.LocationDevice)
}

func stockForLocationParam(c *fiber.Ctx, locType models.LocationType) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid location id")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	stocks, err := models.StockForLocation(db, models.LocationRef{Type: locType, ID: uint(id)})
	if err != nil {
		return err
	}
	return c.JSON(stocks)
}

// GET /api/devices
func GetDevices(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var devices []models.HandheldDevice
	if err := db.Where("active = ?", true).Order("device_code").Find(&devices).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(devices)
}
