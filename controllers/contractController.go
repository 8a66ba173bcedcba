package controllers

import (
	"errors"
	"strings"
	"time"

	"fieldserve-backend/database"
	"fieldserve-backend/middlewares"
	"fieldserve-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ContractCreateDTO struct {
	ContractNumber string          `json:"contract_number" validate:"required,min=1,max=50"`
	Name           string          `json:"name" validate:"required,min=1"`
	ClientId       *uint           `json:"client_id" validate:"omitempty"`
	StartDate      time.Time       `json:"start_date" validate:"required"`
	EndDate        time.Time       `json:"end_date" validate:"required"`
	ContractValue  decimal.Decimal `json:"contract_value"`
}

type SiteCreateDTO struct {
	Name     string `json:"name" validate:"required,min=1"`
	ClientId *uint  `json:"client_id" validate:"omitempty"`
	Address  string `json:"address" validate:"omitempty"`
	City     string `json:"city" validate:"omitempty"`
}

type ProjectCreateDTO struct {
	Name      string     `json:"name" validate:"required,min=1"`
	SiteId    uint       `json:"site_id" validate:"required"`
	StartDate *time.Time `json:"start_date" validate:"omitempty"`
	EndDate   *time.Time `json:"end_date" validate:"omitempty"`
}

// POST /api/contract
func CreateContract(c *fiber.Ctx) error {
	var in ContractCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if !in.StartDate.Before(in.EndDate) {
		return fiber.NewError(fiber.StatusBadRequest, "end date must be after start date")
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	contract := models.Contract{
		ContractNumber: strings.TrimSpace(in.ContractNumber),
		Name:           strings.TrimSpace(in.Name),
		ClientId:       in.ClientId,
		StartDate:      in.StartDate,
		EndDate:        in.EndDate,
		ContractValue:  in.ContractValue.Round(2),
		Active:         true,
	}
	if err := db.Create(&contract).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create contract (number taken?)")
	}
	return c.Status(fiber.StatusCreated).JSON(contract)
}

// GET /api/contracts
func GetContracts(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var contracts []models.Contract
	if err := db.Where("active = ?", true).Order("contract_number").Find(&contracts).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(contracts)
}

// GET /api/contract/:id
func GetContract(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var contract models.Contract
	if err := db.First(&contract, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "contract not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(contract)
}

// GET /api/contract/:id/allocations
// Contract cost summary: every allocation booked against the contract with
// recognized/unrecognized amounts rolled up.
func GetContractAllocations(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var contract models.Contract
	if err := db.First(&contract, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "contract not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	var allocations []models.InvoiceAllocation
	if err := db.Preload("Periods").
		Where("contract_id = ?", contract.Id).
		Order("id").
		Find(&allocations).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	total := decimal.Zero
	recognized := decimal.Zero
	for _, a := range allocations {
		if a.Status == models.AllocationCancelled {
			continue
		}
		total = total.Add(a.TotalAmount)
		for _, p := range a.Periods {
			if p.IsRecognized {
				recognized = recognized.Add(p.Amount)
			}
		}
	}

	return c.JSON(fiber.Map{
		"contract":     contract,
		"allocations":  allocations,
		"total_amount": total,
		"recognized":   recognized,
		"unrecognized": total.Sub(recognized),
	})
}

// POST /api/site
func CreateSite(c *fiber.Ctx) error {
	var in SiteCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	site := models.Site{
		Name:     strings.TrimSpace(in.Name),
		ClientId: in.ClientId,
		Address:  strings.TrimSpace(in.Address),
		City:     strings.TrimSpace(in.City),
		Active:   true,
	}
	if err := db.Create(&site).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create site")
	}
	return c.Status(fiber.StatusCreated).JSON(site)
}

// GET /api/sites
func GetSites(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var sites []models.Site
	if err := db.Where("active = ?", true).Order("name").Find(&sites).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(sites)
}

// POST /api/project
func CreateProject(c *fiber.Ctx) error {
	var in ProjectCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var site models.Site
	if err := db.First(&site, "id = ?", in.SiteId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, "site not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}

	project := models.Project{
		Name:      strings.TrimSpace(in.Name),
		SiteId:    in.SiteId,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Active:    true,
	}
	if err := db.Create(&project).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create project")
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// GET /api/projects
func GetProjects(c *fiber.Ctx) error {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "tenant db unavailable")
	}

	var projects []models.Project
	if err := db.Where("active = ?", true).Order("name").Find(&projects).Error; err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "db error")
	}
	return c.JSON(projects)
}
