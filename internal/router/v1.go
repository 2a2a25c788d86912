package router

import (
	"net/http"

	"github.com/deppfellow/storeops/internal/handler"
	"github.com/deppfellow/storeops/internal/middleware"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/labstack/echo/v4"
)

func registerV1Routes(v1 *echo.Group, h *handler.Handlers, m *middleware.Middlewares) {
	adminOnly := middleware.RequireRole(model.RoleAdmin)
	managers := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	v1.POST("/auth/login",
		handler.Handle(h.Auth.Handler, h.Auth.Login, http.StatusOK, &model.LoginPayload{}),
		m.RateLimit.LoginLimiter())

	api := v1.Group("", m.Auth.RequireAuth)

	auth := api.Group("/auth")
	auth.GET("/me", handler.Handle(h.Auth.Handler, h.Auth.Me, http.StatusOK, &model.Empty{}))
	auth.POST("/password", handler.HandleNoContent(h.Auth.Handler, h.Auth.ChangePassword, http.StatusNoContent, &model.ChangePasswordPayload{}))

	stores := api.Group("/stores")
	stores.GET("", handler.Handle(h.Store.Handler, h.Store.List, http.StatusOK, &model.Empty{}))
	stores.POST("", handler.Handle(h.Store.Handler, h.Store.Create, http.StatusCreated, &model.CreateStorePayload{}), adminOnly)
	stores.GET("/:id", handler.Handle(h.Store.Handler, h.Store.Get, http.StatusOK, &model.GetStorePayload{}))
	stores.PUT("/:id", handler.Handle(h.Store.Handler, h.Store.Update, http.StatusOK, &model.UpdateStorePayload{}), adminOnly)
	stores.DELETE("/:id", handler.HandleNoContent(h.Store.Handler, h.Store.Delete, http.StatusNoContent, &model.GetStorePayload{}), adminOnly)
	stores.GET("/:id/delivery-threshold", handler.Handle(h.Store.Handler, h.Store.DeliveryThreshold, http.StatusOK, &model.GetStorePayload{}), managers)

	employees := api.Group("/employees")
	employees.GET("", handler.Handle(h.Employee.Handler, h.Employee.List, http.StatusOK, &model.ListEmployeesPayload{}), managers)
	employees.POST("", handler.Handle(h.Employee.Handler, h.Employee.Create, http.StatusCreated, &model.CreateEmployeePayload{}), managers)
	// Staff may read their own record; the service enforces it.
	employees.GET("/:id", handler.Handle(h.Employee.Handler, h.Employee.Get, http.StatusOK, &model.GetEmployeePayload{}))
	employees.PUT("/:id", handler.Handle(h.Employee.Handler, h.Employee.Update, http.StatusOK, &model.UpdateEmployeePayload{}), managers)
	employees.DELETE("/:id", handler.HandleNoContent(h.Employee.Handler, h.Employee.Delete, http.StatusNoContent, &model.GetEmployeePayload{}), managers)
	employees.POST("/:id/deactivate", handler.Handle(h.Employee.Handler, h.Employee.Deactivate, http.StatusOK, &model.GetEmployeePayload{}), managers)

	attendance := api.Group("/attendance")
	attendance.POST("/clock-in", handler.Handle(h.Attendance.Handler, h.Attendance.ClockIn, http.StatusCreated, &model.ClockPayload{}))
	attendance.POST("/clock-out", handler.Handle(h.Attendance.Handler, h.Attendance.ClockOut, http.StatusOK, &model.ClockPayload{}))
	attendance.GET("/current", handler.Handle(h.Attendance.Handler, h.Attendance.Current, http.StatusOK, &model.Empty{}))
	attendance.GET("", handler.Handle(h.Attendance.Handler, h.Attendance.List, http.StatusOK, &model.ListAttendancePayload{}))
	attendance.GET("/summary", handler.Handle(h.Attendance.Handler, h.Attendance.Summary, http.StatusOK, &model.AttendanceSummaryPayload{}), managers)

	revenue := api.Group("/revenue")
	revenue.POST("", handler.Handle(h.Revenue.Handler, h.Revenue.Record, http.StatusCreated, &model.RecordRevenuePayload{}))
	revenue.GET("", handler.Handle(h.Revenue.Handler, h.Revenue.List, http.StatusOK, &model.ListRevenuePayload{}))
	revenue.GET("/summary", handler.Handle(h.Revenue.Handler, h.Revenue.Summary, http.StatusOK, &model.ListRevenuePayload{}), managers)

	products := api.Group("/products")
	products.GET("", handler.Handle(h.Inventory.Handler, h.Inventory.ListProducts, http.StatusOK, &model.Empty{}))
	products.POST("", handler.Handle(h.Inventory.Handler, h.Inventory.CreateProduct, http.StatusCreated, &model.CreateProductPayload{}), adminOnly)
	products.PUT("/:id", handler.Handle(h.Inventory.Handler, h.Inventory.UpdateProduct, http.StatusOK, &model.UpdateProductPayload{}), adminOnly)
	products.DELETE("/:id", handler.HandleNoContent(h.Inventory.Handler, h.Inventory.DeleteProduct, http.StatusNoContent, &model.IDParam{}), adminOnly)

	orders := api.Group("/orders")
	orders.POST("", handler.Handle(h.Inventory.Handler, h.Inventory.PlaceOrder, http.StatusCreated, &model.PlaceOrderPayload{}))
	orders.GET("", handler.Handle(h.Inventory.Handler, h.Inventory.ListOrders, http.StatusOK, &model.ListOrdersPayload{}))
	orders.GET("/anomalies/overdue", handler.Handle(h.Inventory.Handler, h.Inventory.Overdue, http.StatusOK, &model.OverduePayload{}), managers)
	orders.GET("/:id", handler.Handle(h.Inventory.Handler, h.Inventory.GetOrder, http.StatusOK, &model.GetOrderPayload{}))
	orders.POST("/:id/approve", handler.Handle(h.Inventory.Handler, h.Inventory.Approve, http.StatusOK, &model.DecideOrderPayload{}), managers)
	orders.POST("/:id/reject", handler.Handle(h.Inventory.Handler, h.Inventory.Reject, http.StatusOK, &model.DecideOrderPayload{}), managers)
	orders.POST("/:id/deliver", handler.Handle(h.Inventory.Handler, h.Inventory.Deliver, http.StatusOK, &model.GetOrderPayload{}), managers)

	maintenance := api.Group("/maintenance")
	maintenance.POST("", handler.Handle(h.Maintenance.Handler, h.Maintenance.Create, http.StatusCreated, &model.CreateMaintenancePayload{}))
	maintenance.GET("", handler.Handle(h.Maintenance.Handler, h.Maintenance.List, http.StatusOK, &model.ListMaintenancePayload{}))
	maintenance.GET("/:id", handler.Handle(h.Maintenance.Handler, h.Maintenance.Get, http.StatusOK, &model.GetMaintenancePayload{}))
	maintenance.PATCH("/:id/status", handler.Handle(h.Maintenance.Handler, h.Maintenance.UpdateStatus, http.StatusOK, &model.UpdateMaintenanceStatusPayload{}), managers)

	reports := api.Group("/reports", managers)
	reports.GET("/daily", handler.Handle(h.Report.Handler, h.Report.Preview, http.StatusOK, &model.DailyReportPayload{}))
	reports.GET("/daily/text", handler.HandleText(h.Report.Handler, h.Report.PreviewText, http.StatusOK, &model.DailyReportPayload{}))
	reports.POST("/daily", handler.Handle(h.Report.Handler, h.Report.Send, http.StatusAccepted, &model.DailyReportPayload{}))
}
