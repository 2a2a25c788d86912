package handler

import (
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/deppfellow/storeops/internal/service"
	"github.com/labstack/echo/v4"
)

type StoreHandler struct {
	Handler
	stores    *service.StoreService
	inventory *service.InventoryService
}

func NewStoreHandler(s *server.Server, stores *service.StoreService, inventory *service.InventoryService) *StoreHandler {
	return &StoreHandler{
		Handler:   NewHandler(s),
		stores:    stores,
		inventory: inventory,
	}
}

func (h *StoreHandler) Create(c echo.Context, req *model.CreateStorePayload) (*model.Store, error) {
	return h.stores.Create(c.Request().Context(), req)
}

func (h *StoreHandler) List(c echo.Context, _ *model.Empty) (model.ListResponse[model.Store], error) {
	stores, err := h.stores.List(c.Request().Context())
	if err != nil {
		return model.ListResponse[model.Store]{}, err
	}
	return model.NewList(stores), nil
}

func (h *StoreHandler) Get(c echo.Context, req *model.GetStorePayload) (*model.Store, error) {
	return h.stores.Get(c.Request().Context(), req.ID)
}

func (h *StoreHandler) Update(c echo.Context, req *model.UpdateStorePayload) (*model.Store, error) {
	return h.stores.Update(c.Request().Context(), req)
}

func (h *StoreHandler) Delete(c echo.Context, req *model.GetStorePayload) error {
	return h.stores.Delete(c.Request().Context(), req.ID)
}

// DeliveryThreshold previews how far the store's held basket is from
// triggering a delivery.
func (h *StoreHandler) DeliveryThreshold(c echo.Context, req *model.GetStorePayload) (*model.DeliveryThresholdStatus, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.inventory.CheckDeliveryThreshold(c.Request().Context(), p, req.ID)
}
