package handler

import (
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/deppfellow/storeops/internal/service"
	"github.com/labstack/echo/v4"
)

type MaintenanceHandler struct {
	Handler
	maintenance *service.MaintenanceService
}

func NewMaintenanceHandler(s *server.Server, maintenance *service.MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{
		Handler:     NewHandler(s),
		maintenance: maintenance,
	}
}

func (h *MaintenanceHandler) Create(c echo.Context, req *model.CreateMaintenancePayload) (*model.MaintenanceRequest, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.maintenance.Create(c.Request().Context(), p, req)
}

func (h *MaintenanceHandler) List(c echo.Context, req *model.ListMaintenancePayload) (model.ListResponse[model.MaintenanceRequest], error) {
	p, err := principal(c)
	if err != nil {
		return model.ListResponse[model.MaintenanceRequest]{}, err
	}
	rows, err := h.maintenance.List(c.Request().Context(), p, req)
	if err != nil {
		return model.ListResponse[model.MaintenanceRequest]{}, err
	}
	return model.NewList(rows), nil
}

func (h *MaintenanceHandler) Get(c echo.Context, req *model.GetMaintenancePayload) (*model.MaintenanceRequest, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.maintenance.Get(c.Request().Context(), p, req.ID)
}

func (h *MaintenanceHandler) UpdateStatus(c echo.Context, req *model.UpdateMaintenanceStatusPayload) (*model.MaintenanceRequest, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.maintenance.UpdateStatus(c.Request().Context(), p, req)
}
