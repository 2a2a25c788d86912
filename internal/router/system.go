package router

import (
	"github.com/deppfellow/storeops/internal/handler"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/deppfellow/storeops/static"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes mounts the endpoints outside the business API:
// health, Prometheus metrics and the docs UI with its assets.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers, s *server.Server) {
	r.GET("/status", h.Health.CheckHealth)

	r.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))

	r.StaticFS("/static", static.FS)

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
