package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/storeops/internal/errs"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_FreshPayloadPerRequest(t *testing.T) {
	e := echo.New()

	var got []string
	h := Handle(Handler{}, func(c echo.Context, req *model.CreateMaintenancePayload) (string, error) {
		got = append(got, req.Title+"|"+req.Description)
		return "ok", nil
	}, http.StatusCreated, &model.CreateMaintenancePayload{})

	for _, body := range []string{
		`{"title":"Broken door","description":"hinge"}`,
		`{"title":"Dim lights"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		require.NoError(t, h(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusCreated, rec.Code)
	}

	assert.Equal(t, []string{"Broken door|hinge", "Dim lights|"}, got)
}

func TestHandle_ValidationError(t *testing.T) {
	e := echo.New()

	called := false
	h := HandleNoContent(Handler{}, func(c echo.Context, req *model.CreateMaintenancePayload) error {
		called = true
		return nil
	}, http.StatusNoContent, &model.CreateMaintenancePayload{})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"priority":"whenever"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	err := h(e.NewContext(req, httptest.NewRecorder()))

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errs.StatusOf(err))
	assert.False(t, called)
}

func TestHandleText(t *testing.T) {
	e := echo.New()
	h := HandleText(Handler{}, func(c echo.Context, _ *model.Empty) (string, error) {
		return "FLIGHT REPORT", nil
	}, http.StatusOK, &model.Empty{})

	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)))
	assert.Equal(t, "FLIGHT REPORT", rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMETextPlain))
}

func TestPrincipal_Missing(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, err := principal(c)
	assert.Equal(t, http.StatusUnauthorized, errs.StatusOf(err))
}
