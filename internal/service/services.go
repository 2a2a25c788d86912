package service

import (
	"github.com/deppfellow/storeops/internal/lib/job"
	"github.com/deppfellow/storeops/internal/repository"
	"github.com/deppfellow/storeops/internal/server"
)

type Services struct {
	Auth        *AuthService
	Store       *StoreService
	Employee    *EmployeeService
	Attendance  *AttendanceService
	Revenue     *RevenueService
	Inventory   *InventoryService
	Maintenance *MaintenanceService
	Report      *ReportService
	Job         *job.JobService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	reportService := NewReportService(s, repos)
	if err := reportService.RegisterJobs(); err != nil {
		return nil, err
	}

	return &Services{
		Job:         s.Job,
		Auth:        NewAuthService(s, repos),
		Store:       NewStoreService(s, repos),
		Employee:    NewEmployeeService(s, repos),
		Attendance:  NewAttendanceService(s, repos),
		Revenue:     NewRevenueService(s, repos),
		Inventory:   NewInventoryService(s, repos),
		Maintenance: NewMaintenanceService(s, repos),
		Report:      reportService,
	}, nil
}
