package handler

import (
	"github.com/deppfellow/storeops/internal/server"
	"github.com/deppfellow/storeops/internal/service"
)

// Handlers groups every HTTP handler so the router receives one value.
type Handlers struct {
	Health      *HealthHandler
	OpenAPI     *OpenAPIHandler
	Auth        *AuthHandler
	Store       *StoreHandler
	Employee    *EmployeeHandler
	Attendance  *AttendanceHandler
	Revenue     *RevenueHandler
	Inventory   *InventoryHandler
	Maintenance *MaintenanceHandler
	Report      *ReportHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(s),
		OpenAPI:     NewOpenAPIHandler(s),
		Auth:        NewAuthHandler(s, services.Auth),
		Store:       NewStoreHandler(s, services.Store, services.Inventory),
		Employee:    NewEmployeeHandler(s, services.Employee),
		Attendance:  NewAttendanceHandler(s, services.Attendance),
		Revenue:     NewRevenueHandler(s, services.Revenue),
		Inventory:   NewInventoryHandler(s, services.Inventory),
		Maintenance: NewMaintenanceHandler(s, services.Maintenance),
		Report:      NewReportHandler(s, services.Report),
	}
}
