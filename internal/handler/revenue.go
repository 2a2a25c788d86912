package handler

import (
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/deppfellow/storeops/internal/service"
	"github.com/labstack/echo/v4"
)

type RevenueHandler struct {
	Handler
	revenue *service.RevenueService
}

func NewRevenueHandler(s *server.Server, revenue *service.RevenueService) *RevenueHandler {
	return &RevenueHandler{
		Handler: NewHandler(s),
		revenue: revenue,
	}
}

func (h *RevenueHandler) Record(c echo.Context, req *model.RecordRevenuePayload) (*model.Revenue, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.revenue.Record(c.Request().Context(), p, req)
}

func (h *RevenueHandler) List(c echo.Context, req *model.ListRevenuePayload) (model.ListResponse[model.Revenue], error) {
	p, err := principal(c)
	if err != nil {
		return model.ListResponse[model.Revenue]{}, err
	}
	rows, err := h.revenue.List(c.Request().Context(), p, req)
	if err != nil {
		return model.ListResponse[model.Revenue]{}, err
	}
	return model.NewList(rows), nil
}

func (h *RevenueHandler) Summary(c echo.Context, req *model.ListRevenuePayload) (*model.RevenueSummary, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.revenue.Summary(c.Request().Context(), p, req)
}
