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

type WorkOrderCreateDTO struct {
	Title            string `json:"title" validate:"required,min=1"`
	Description      string `json:"description" validate:"omitempty"`
	SiteId           *uint  `json:"site_id" validate:"omitempty"`
	AssignedDeviceId *uint  `json:"assigned_device_id" validate:"omitempty"`
}

// WorkOrderItemDTO is the payload for issuing or returning one line of
// material against a work order.
type WorkOrderItemDTO struct {
	ItemId       uint                `json:"item_id" validate:"required"`
	LocationType models.LocationType `json:"location_type" validate:"required,oneof=warehouse device"`
	LocationId   uint                `json:"location_id" validate:"required"`
	Quantity     decimal.Decimal     `json:"quantity"`
}

type WorkOrderCancelDTO struct {
	Reason string `json:"reason" validate:"omitempty"`
}

// POST /api/work-order
func CreateWorkOrder(c *fiber.Ctx) error {
	var in WorkOrderCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}
	actor, _ := c.Locals("userID").(string)

	number, err := models.NextWorkOrderNumber(db)
	if err != nil {
		return err
	}
	wo := models.WorkOrder{
		WoNumber:         number,
		Title:            strings.TrimSpace(in.Title),
		Description:      strings.TrimSpace(in.Description),
		SiteId:           in.SiteId,
		AssignedDeviceId: in.AssignedDeviceId,
		Status:           models.WorkOrderOpen,
		CreatedBy:        actor,
	}
	if err := db.Create(&wo).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create work order")
	}
	return c.Status(fiber.StatusCreated).JSON(wo)
}

// GET /api/work-orders?status=open
func GetWorkOrders(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	q := db.Order("id DESC")
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	}

	var orders []models.WorkOrder
	if err := q.Find(&orders).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(orders)
}

// GET /api/work-order/:id
func GetWorkOrder(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid work order id")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var wo models.WorkOrder
	if err := db.First(&wo, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "work order not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	reservations, err := models.OutstandingReservations(db, models.SourceRef{Type: models.SourceWorkOrder, ID: wo.Id})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"work_order":   wo,
		"reservations": reservations,
	})
}

func loadOpenWorkOrder(db *gorm.DB, id int) (*models.WorkOrder, error) {
	var wo models.WorkOrder
	if err := db.First(&wo, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "work order not found")
		}
		return nil, fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	if wo.Status != models.WorkOrderOpen {
		return nil, fiber.NewError(fiber.StatusConflict, "work order is "+string(wo.Status))
	}
	return &wo, nil
}

// POST /api/work-order/:id/issue-item
// Issuing against an open work order only reserves the stock; the deduction
// becomes permanent on approval.
func IssueWorkOrderItem(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid work order id")
	}

	var in WorkOrderItemDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.Quantity.Sign() <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}
	actor, _ := c.Locals("userID").(string)

	wo, err := loadOpenWorkOrder(db, id)
	if err != nil {
		return err
	}

	loc := models.LocationRef{Type: in.LocationType, ID: in.LocationId}
	source := models.SourceRef{Type: models.SourceWorkOrder, ID: wo.Id}
	entry, err := models.Reserve(db, in.ItemId, loc, in.Quantity, source, actor)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// POST /api/work-order/:id/return-item
// Returning before approval just gives the hold back.
func ReturnWorkOrderItem(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid work order id")
	}

	var in WorkOrderItemDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.Quantity.Sign() <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must be positive")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}
	actor, _ := c.Locals("userID").(string)

	wo, err := loadOpenWorkOrder(db, id)
	if err != nil {
		return err
	}

	loc := models.LocationRef{Type: in.LocationType, ID: in.LocationId}
	source := models.SourceRef{Type: models.SourceWorkOrder, ID: wo.Id}
	entry, err := models.Release(db, in.ItemId, loc, in.Quantity, source, actor)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// PUT /api/work-order/:id/approve
func ApproveWorkOrder(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid work order id")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}
	actor, _ := c.Locals("userID").(string)

	wo, err := models.ApproveWorkOrder(db, uint(id), actor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "work order not found")
		}
		return err
	}
	return c.JSON(wo)
}

// PUT /api/work-order/:id/cancel
func CancelWorkOrder(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid work order id")
	}

	var in WorkOrderCancelDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}
	actor, _ := c.Locals("userID").(string)

	wo, err := models.CancelWorkOrder(db, uint(id), strings.TrimSpace(in.Reason), actor)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "work order not found")
		}
		return err
	}
	return c.JSON(wo)
}
