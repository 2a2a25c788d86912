package handler

import (
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/deppfellow/storeops/internal/service"
	"github.com/labstack/echo/v4"
)

type EmployeeHandler struct {
	Handler
	employees *service.EmployeeService
}

func NewEmployeeHandler(s *server.Server, employees *service.EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{
		Handler:   NewHandler(s),
		employees: employees,
	}
}

func (h *EmployeeHandler) Create(c echo.Context, req *model.CreateEmployeePayload) (*model.User, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.employees.Create(c.Request().Context(), p, req)
}

func (h *EmployeeHandler) List(c echo.Context, req *model.ListEmployeesPayload) (model.ListResponse[model.User], error) {
	p, err := principal(c)
	if err != nil {
		return model.ListResponse[model.User]{}, err
	}
	users, err := h.employees.List(c.Request().Context(), p, req)
	if err != nil {
		return model.ListResponse[model.User]{}, err
	}
	return model.NewList(users), nil
}

func (h *EmployeeHandler) Get(c echo.Context, req *model.GetEmployeePayload) (*model.User, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.employees.Get(c.Request().Context(), p, req.ID)
}

func (h *EmployeeHandler) Update(c echo.Context, req *model.UpdateEmployeePayload) (*model.User, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.employees.Update(c.Request().Context(), p, req)
}

func (h *EmployeeHandler) Deactivate(c echo.Context, req *model.GetEmployeePayload) (*model.User, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.employees.Deactivate(c.Request().Context(), p, req.ID)
}

func (h *EmployeeHandler) Delete(c echo.Context, req *model.GetEmployeePayload) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return h.employees.Delete(c.Request().Context(), p, req.ID)
}
