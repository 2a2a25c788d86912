package handler

import (
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/deppfellow/storeops/internal/service"
	"github.com/labstack/echo/v4"
)

// InventoryHandler serves the product catalogue and store orders.
type InventoryHandler struct {
	Handler
	inventory *service.InventoryService
}

func NewInventoryHandler(s *server.Server, inventory *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{
		Handler:   NewHandler(s),
		inventory: inventory,
	}
}

func (h *InventoryHandler) CreateProduct(c echo.Context, req *model.CreateProductPayload) (*model.Product, error) {
	return h.inventory.CreateProduct(c.Request().Context(), req)
}

func (h *InventoryHandler) ListProducts(c echo.Context, _ *model.Empty) (model.ListResponse[model.Product], error) {
	p, err := principal(c)
	if err != nil {
		return model.ListResponse[model.Product]{}, err
	}
	products, err := h.inventory.ListProducts(c.Request().Context(), p)
	if err != nil {
		return model.ListResponse[model.Product]{}, err
	}
	return model.NewList(products), nil
}

func (h *InventoryHandler) UpdateProduct(c echo.Context, req *model.UpdateProductPayload) (*model.Product, error) {
	return h.inventory.UpdateProduct(c.Request().Context(), req)
}

func (h *InventoryHandler) DeleteProduct(c echo.Context, req *model.IDParam) error {
	return h.inventory.DeleteProduct(c.Request().Context(), req.ID)
}

// PlaceOrder answers 201 whatever the outcome; the result's status tells
// whether the order was held, approved or sent to review.
func (h *InventoryHandler) PlaceOrder(c echo.Context, req *model.PlaceOrderPayload) (*model.PlaceOrderResult, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.inventory.PlaceOrder(c.Request().Context(), p, req)
}

func (h *InventoryHandler) ListOrders(c echo.Context, req *model.ListOrdersPayload) (model.ListResponse[model.Order], error) {
	p, err := principal(c)
	if err != nil {
		return model.ListResponse[model.Order]{}, err
	}
	orders, err := h.inventory.ListOrders(c.Request().Context(), p, req)
	if err != nil {
		return model.ListResponse[model.Order]{}, err
	}
	return model.NewList(orders), nil
}

func (h *InventoryHandler) GetOrder(c echo.Context, req *model.GetOrderPayload) (*model.Order, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.inventory.GetOrder(c.Request().Context(), p, req.ID)
}

func (h *InventoryHandler) Approve(c echo.Context, req *model.DecideOrderPayload) (*model.Order, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.inventory.Approve(c.Request().Context(), p, req)
}

func (h *InventoryHandler) Reject(c echo.Context, req *model.DecideOrderPayload) (*model.Order, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.inventory.Reject(c.Request().Context(), p, req)
}

func (h *InventoryHandler) Deliver(c echo.Context, req *model.GetOrderPayload) (*model.Order, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.inventory.MarkDelivered(c.Request().Context(), p, req.ID)
}

func (h *InventoryHandler) Overdue(c echo.Context, req *model.OverduePayload) (model.ListResponse[model.OverdueProduct], error) {
	p, err := principal(c)
	if err != nil {
		return model.ListResponse[model.OverdueProduct]{}, err
	}
	rows, err := h.inventory.AnomalyScan(c.Request().Context(), p, req)
	if err != nil {
		return model.ListResponse[model.OverdueProduct]{}, err
	}
	return model.NewList(rows), nil
}
