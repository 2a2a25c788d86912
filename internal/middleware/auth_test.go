package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deppfellow/storeops/internal/config"
	"github.com/deppfellow/storeops/internal/errs"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	principals map[int64]*model.Principal
}

func (f *fakeAuth) ParseToken(raw string) (int64, error) {
	if raw == "good" {
		return 7, nil
	}
	return 0, errs.NewUnauthorizedError("Unauthorized", false)
}

func (f *fakeAuth) Authenticate(_ context.Context, userID int64) (*model.Principal, error) {
	if p, ok := f.principals[userID]; ok {
		return p, nil
	}
	return nil, errs.NewUnauthorizedError("Unauthorized", false)
}

func (f *fakeAuth) AuthenticateExternal(context.Context, string) (*model.Principal, error) {
	return nil, errs.NewUnauthorizedError("Unauthorized", false)
}

func newTestServer() *server.Server {
	cfg := config.Default()
	logger := zerolog.Nop()
	return &server.Server{Config: cfg, Logger: &logger}
}

func serve(t *testing.T, h echo.HandlerFunc, header string) (echo.Context, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	c := e.NewContext(req, httptest.NewRecorder())
	return c, h(c)
}

func TestRequireAuth_Local(t *testing.T) {
	store := int64(3)
	auth := &fakeAuth{principals: map[int64]*model.Principal{
		7: {UserID: 7, StoreID: &store, Role: model.RoleManager},
	}}
	am := NewAuthMiddleware(newTestServer(), auth)

	var seen *model.Principal
	h := am.RequireAuth(func(c echo.Context) error {
		seen = GetPrincipal(c)
		return nil
	})

	c, err := serve(t, h, "Bearer good")
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, int64(7), seen.UserID)
	assert.Equal(t, "7", GetUserID(c))
	assert.Equal(t, "manager", c.Get(UserRoleKey))

	for _, header := range []string{"", "Bearer", "Basic good", "Bearer bad"} {
		seen = nil
		_, err := serve(t, h, header)
		assert.Equal(t, http.StatusUnauthorized, errs.StatusOf(err), header)
		assert.Nil(t, seen)
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(model.RoleAdmin, model.RoleManager)(func(c echo.Context) error { return nil })

	e := echo.New()
	run := func(p *model.Principal) error {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if p != nil {
			c.Set(PrincipalKey, p)
		}
		return h(c)
	}

	assert.NoError(t, run(&model.Principal{UserID: 1, Role: model.RoleAdmin}))
	assert.NoError(t, run(&model.Principal{UserID: 2, Role: model.RoleManager}))
	assert.Equal(t, http.StatusForbidden, errs.StatusOf(run(&model.Principal{UserID: 3, Role: model.RoleStaff})))
	assert.Equal(t, http.StatusUnauthorized, errs.StatusOf(run(nil)))
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	req.Header.Set(echo.HeaderAuthorization, "bearer  abc ")
	token, ok := bearerToken(req)
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	req.Header.Set(echo.HeaderAuthorization, "Token abc")
	_, ok = bearerToken(req)
	assert.False(t, ok)
}

func TestGetLogger_Fallback(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	require.NotNil(t, GetLogger(c))
	assert.Empty(t, GetRequestID(c))
}

func TestRequestID(t *testing.T) {
	e := echo.New()
	h := RequestID()(func(c echo.Context) error { return nil })

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, h(c))
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, GetRequestID(c))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	require.NoError(t, h(c))
	assert.Equal(t, "upstream-id", rec.Header().Get(RequestIDHeader))
}
