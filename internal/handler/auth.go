package handler

import (
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/deppfellow/storeops/internal/service"
	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	Handler
	auth *service.AuthService
}

func NewAuthHandler(s *server.Server, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{
		Handler: NewHandler(s),
		auth:    auth,
	}
}

func (h *AuthHandler) Login(c echo.Context, req *model.LoginPayload) (*model.LoginResponse, error) {
	return h.auth.Login(c.Request().Context(), req)
}

func (h *AuthHandler) Me(c echo.Context, _ *model.Empty) (*model.User, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.auth.Me(c.Request().Context(), p)
}

func (h *AuthHandler) ChangePassword(c echo.Context, req *model.ChangePasswordPayload) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	return h.auth.ChangePassword(c.Request().Context(), p, req)
}
