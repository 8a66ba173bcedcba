package routes

import (
	"github.com/gofiber/fiber/v2"

	"fieldserve-backend/controllers"
	"fieldserve-backend/middlewares"
	"fieldserve-backend/models"
)

// Register wires all HTTP routes.
func Register(app *fiber.App) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", controllers.Register)
	api.Post("/login", controllers.Login)
	api.Post("/logout", controllers.Logout)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency())

	// Then per-request tenant transaction (pins search_path and commits/rolls back)
	protected.Use(middlewares.TenantTx())

	// Clients & suppliers
	protected.Post("/client", controllers.CreateClient)
	protected.Get("/clients", controllers.GetClients)
	protected.Get("/client/:id", controllers.GetClient)
	protected.Put("/client/:id", controllers.UpdateClient)
	protected.Post("/supplier", controllers.CreateSupplier)
	protected.Get("/suppliers", controllers.GetSuppliers)
	protected.Get("/supplier/:id", controllers.GetSupplier)
	protected.Put("/supplier/:id", controllers.UpdateSupplier)

	// Item master + ledger
	protected.Post("/item", controllers.CreateItem)
	protected.Get("/items", controllers.GetItems)
	protected.Get("/item/:id", controllers.GetItem)
	protected.Put("/item/:id", controllers.UpdateItem)
	protected.Get("/item/:id/ledger", controllers.GetItemLedger)

	// Stock locations
	protected.Post("/warehouse", controllers.CreateWarehouse)
	protected.Get("/warehouses", controllers.GetWarehouses)
	protected.Get("/warehouse/:id/stock", controllers.GetWarehouseStock)
	protected.Post("/device", controllers.CreateDevice)
	protected.Get("/devices", controllers.GetDevices)
	protected.Get("/device/:id/stock", controllers.GetDeviceStock)

	// Stock queries & adjustments
	protected.Get("/stock", controllers.GetStockByLocation)
	protected.Get("/stock/item/:id", controllers.GetItemStock)
	protected.Post("/stock/adjust", controllers.AdjustStock)

	// Stock transfers
	protected.Post("/transfer", controllers.CreateTransfer)
	protected.Get("/transfers", controllers.GetTransfers)
	protected.Get("/transfer/:id", controllers.GetTransfer)
	protected.Put("/transfer/:id/complete", controllers.CompleteTransfer)

	// Work orders (reserve on issue, commit on approval)
	protected.Post("/work-order", controllers.CreateWorkOrder)
	protected.Get("/work-orders", controllers.GetWorkOrders)
	protected.Get("/work-order/:id", controllers.GetWorkOrder)
	protected.Post("/work-order/:id/issue-item", controllers.IssueWorkOrderItem)
	protected.Post("/work-order/:id/return-item", controllers.ReturnWorkOrderItem)
	protected.Put("/work-order/:id/approve", controllers.ApproveWorkOrder)
	protected.Put("/work-order/:id/cancel", controllers.CancelWorkOrder)

	// Contracts, sites, projects
	protected.Post("/contract", controllers.CreateContract)
	protected.Get("/contracts", controllers.GetContracts)
	protected.Get("/contract/:id", controllers.GetContract)
	protected.Get("/contract/:id/allocations", controllers.GetContractAllocations)
	protected.Post("/site", controllers.CreateSite)
	protected.Get("/sites", controllers.GetSites)
	protected.Post("/project", controllers.CreateProject)
	protected.Get("/projects", controllers.GetProjects)

	// Supplier invoices
	protected.Post("/invoice", controllers.CreateSupplierInvoice)
	protected.Get("/invoices", controllers.GetSupplierInvoices)
	protected.Get("/invoice/:id", controllers.GetSupplierInvoice)
	protected.Put("/invoice/:id/confirm", controllers.ConfirmSupplierInvoice)
	protected.Post("/invoice/:id/receive-item", controllers.ReceiveInvoiceItem)

	// Cost allocations & recognition
	protected.Post("/allocation", controllers.CreateAllocation)
	protected.Get("/allocations", controllers.GetAllocations)
	protected.Get("/allocation/:id", controllers.GetAllocation)
	protected.Put("/allocation/:id/cancel", controllers.CancelAllocation)
	protected.Delete("/allocation/:id", controllers.DeleteAllocation)
	protected.Put("/period/:id/recognize", controllers.RecognizePeriod)
	protected.Put("/period/:id/unrecognize",
		middlewares.RequireRole(models.RoleAdmin), controllers.UnrecognizePeriod)
	protected.Get("/period/:id/history", controllers.GetRecognitionHistory)
}
