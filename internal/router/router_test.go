package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/storeops/internal/config"
	"github.com/deppfellow/storeops/internal/errs"
	"github.com/deppfellow/storeops/internal/handler"
	"github.com/deppfellow/storeops/internal/middleware"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/repository"
	"github.com/deppfellow/storeops/internal/service"
	"github.com/deppfellow/storeops/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type api struct {
	t       *testing.T
	e       *echo.Echo
	store   *model.Store
	admin   *model.User
	manager *model.User
	staff   *model.User
}

func newAPI(t *testing.T, opts ...func(*config.Config)) *api {
	t.Helper()

	srv := testutil.NewServer(t, opts...)
	services, err := service.NewService(srv, repository.NewRepositories(srv))
	require.NoError(t, err)

	seed := testutil.NewSeeder(t, srv)
	store := seed.Store("Kemang", -6.2607, 106.8137, "100")

	return &api{
		t:       t,
		e:       NewRouter(srv, handler.NewHandlers(srv, services), services),
		store:   store,
		admin:   seed.User(nil, "admin", model.RoleAdmin, ""),
		manager: seed.User(&store.ID, "manager", model.RoleManager, ""),
		staff:   seed.User(&store.ID, "staff", model.RoleStaff, ""),
	}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *api) login(username string) string {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": testutil.Password,
	})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	var res model.LoginResponse
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(a.t, res.Token)
	return res.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestSystemRoutes(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "sqlite", health["database"])
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = a.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storeops_http_requests_total")

	rec = a.do(http.MethodGet, "/docs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/static/openapi.json")

	rec = a.do(http.MethodGet, "/static/openapi.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/orders")
}

func TestUnknownRoute(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[errs.HTTPError](t, rec)
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodGet, "/api/v1/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "staff", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := a.login("staff")
	rec = a.do(http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[model.User](t, rec)
	assert.Equal(t, "staff", me.Username)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = a.do(http.MethodPost, "/api/v1/auth/password", token, map[string]string{
		"old_password": testutil.Password,
		"new_password": "a-better-password",
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "staff", "password": "a-better-password"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginValidation(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "staff"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[errs.HTTPError](t, rec)
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "password", body.Errors[0].Field)
}

func TestLoginRateLimit(t *testing.T) {
	a := newAPI(t, func(cfg *config.Config) { cfg.Server.LoginRateLimit = 2 })

	for range 2 {
		rec := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "staff", "password": "wrong-password"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "staff", "password": testutil.Password})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decode[errs.HTTPError](t, rec).Code)
}

func TestRoleGuards(t *testing.T) {
	a := newAPI(t)
	staff := a.login("staff")
	manager := a.login("manager")

	cases := []struct {
		method string
		path   string
		token  string
		want   int
	}{
		{http.MethodGet, "/api/v1/stores", staff, http.StatusOK},
		{http.MethodPost, "/api/v1/stores", manager, http.StatusForbidden},
		{http.MethodGet, "/api/v1/employees", staff, http.StatusForbidden},
		{http.MethodGet, "/api/v1/employees", manager, http.StatusOK},
		{http.MethodGet, "/api/v1/attendance/summary", staff, http.StatusForbidden},
		{http.MethodGet, "/api/v1/revenue/summary", staff, http.StatusForbidden},
		{http.MethodPost, "/api/v1/products", manager, http.StatusForbidden},
		{http.MethodGet, "/api/v1/orders/anomalies/overdue", staff, http.StatusForbidden},
		{http.MethodGet, "/api/v1/reports/daily", staff, http.StatusForbidden},
		{http.MethodGet, fmt.Sprintf("/api/v1/stores/%d/delivery-threshold", a.store.ID), staff, http.StatusForbidden},
		{http.MethodGet, fmt.Sprintf("/api/v1/employees/%d", a.staff.ID), staff, http.StatusOK},
		{http.MethodGet, fmt.Sprintf("/api/v1/employees/%d", a.manager.ID), staff, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := a.do(tc.method, tc.path, tc.token, nil)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestStoreCRUD(t *testing.T) {
	a := newAPI(t)
	admin := a.login("admin")

	rec := a.do(http.MethodPost, "/api/v1/stores", admin, map[string]any{
		"name":      "Senopati",
		"latitude":  -6.2297,
		"longitude": 106.8096,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.Store](t, rec)
	assert.Equal(t, "Senopati", created.Name)
	assert.Equal(t, "UTC", created.Timezone)

	rec = a.do(http.MethodGet, "/api/v1/stores", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[model.ListResponse[model.Store]](t, rec)
	assert.Equal(t, 2, list.Total)

	path := fmt.Sprintf("/api/v1/stores/%d", created.ID)
	rec = a.do(http.MethodPut, path, admin, map[string]any{"name": "Senopati Raya", "id": a.store.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Store](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Senopati Raya", updated.Name)

	rec = a.do(http.MethodDelete, path, admin, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(http.MethodGet, path, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The seeded store still has employees.
	rec = a.do(http.MethodDelete, fmt.Sprintf("/api/v1/stores/%d", a.store.ID), admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAttendanceOverHTTP(t *testing.T) {
	a := newAPI(t)
	staff := a.login("staff")

	rec := a.do(http.MethodPost, "/api/v1/attendance/clock-in", staff, map[string]any{"latitude": -6.2700, "longitude": 106.8137})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "OUTSIDE_GEOFENCE", decode[errs.HTTPError](t, rec).Code)

	rec = a.do(http.MethodPost, "/api/v1/attendance/clock-in", staff, map[string]any{"latitude": -6.2607, "longitude": 106.8137})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, "/api/v1/attendance/current", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	current := decode[handler.CurrentShift](t, rec)
	assert.True(t, current.ClockedIn)
	require.NotNil(t, current.Shift)

	rec = a.do(http.MethodPost, "/api/v1/attendance/clock-out", staff, map[string]any{"latitude": -6.2607, "longitude": 106.8137, "note": "done"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, "/api/v1/attendance/current", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[handler.CurrentShift](t, rec).ClockedIn)

	rec = a.do(http.MethodGet, fmt.Sprintf("/api/v1/attendance?user_id=%d", a.manager.ID), staff, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)
	admin := a.login("admin")
	staff := a.login("staff")
	manager := a.login("manager")

	rec := a.do(http.MethodPost, "/api/v1/products", admin, map[string]any{
		"name":          "Milk",
		"unit_price":    "60",
		"frequent_days": 2,
		"rare_days":     14,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decode[model.Product](t, rec)

	// Below the store's threshold of 100: held.
	rec = a.do(http.MethodPost, "/api/v1/orders", staff, map[string]any{"product_id": product.ID, "quantity": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[model.PlaceOrderResult](t, rec)
	assert.Equal(t, model.OrderHeld, first.Order.Status)

	rec = a.do(http.MethodGet, fmt.Sprintf("/api/v1/stores/%d/delivery-threshold", a.store.ID), manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	threshold := decode[model.DeliveryThresholdStatus](t, rec)
	assert.False(t, threshold.Reached)
	assert.Equal(t, 1, threshold.HeldCount)

	// A second order of the same product the same day is frequent: review.
	rec = a.do(http.MethodPost, "/api/v1/orders", staff, map[string]any{"product_id": product.ID, "quantity": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	second := decode[model.PlaceOrderResult](t, rec)
	assert.Equal(t, model.OrderReview, second.Order.Status)
	assert.Equal(t, model.AnomalyFrequent, second.Order.Anomaly)

	path := fmt.Sprintf("/api/v1/orders/%d", second.Order.ID)
	rec = a.do(http.MethodPost, path+"/approve", staff, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPost, path+"/approve", manager, map[string]string{"reason": "party weekend"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.OrderApproved, decode[model.Order](t, rec).Status)

	rec = a.do(http.MethodPost, path+"/reject", manager, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(http.MethodPost, path+"/deliver", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.OrderDelivered, decode[model.Order](t, rec).Status)

	rec = a.do(http.MethodGet, "/api/v1/orders?status=held", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[model.ListResponse[model.Order]](t, rec).Total)

	rec = a.do(http.MethodGet, "/api/v1/orders?status=bogus", staff, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMaintenanceOverHTTP(t *testing.T) {
	a := newAPI(t)
	staff := a.login("staff")
	manager := a.login("manager")

	rec := a.do(http.MethodPost, "/api/v1/maintenance", staff, map[string]any{"title": "Leaking sink"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	req := decode[model.MaintenanceRequest](t, rec)
	assert.Equal(t, model.PriorityNormal, req.Priority)

	path := fmt.Sprintf("/api/v1/maintenance/%d/status", req.ID)
	rec = a.do(http.MethodPatch, path, manager, map[string]any{"status": "resolved"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPatch, path, manager, map[string]any{"status": "in_progress", "assignee": "Pak Budi"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.MaintenanceInProgress, decode[model.MaintenanceRequest](t, rec).Status)
}

func TestReportsOverHTTP(t *testing.T) {
	a := newAPI(t)
	manager := a.login("manager")

	rec := a.do(http.MethodGet, "/api/v1/reports/daily?date=2025-03-01", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[model.DailyReport](t, rec)
	require.Len(t, report.Stores, 1)
	assert.Equal(t, "Kemang", report.Stores[0].StoreName)

	rec = a.do(http.MethodGet, "/api/v1/reports/daily/text?date=2025-03-01", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMETextPlain))
	assert.Contains(t, rec.Body.String(), "[KEMANG]")

	rec = a.do(http.MethodPost, "/api/v1/reports/daily", manager, map[string]string{"date": "2025-03-01"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
}
