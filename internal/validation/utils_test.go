package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/storeops/internal/errs"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type revenuePayload struct {
	StoreID int64           `param:"id" validate:"required,gt=0"`
	Date    string          `json:"business_date" validate:"required,datetime=2006-01-02"`
	Cash    decimal.Decimal `json:"cash" validate:"gte=0"`
	Note    string          `json:"note" validate:"max=5"`
	Shift   string          `json:"shift" validate:"omitempty,oneof=am pm"`
}

func (p *revenuePayload) Validate() error {
	return Struct(p)
}

type geoPayload struct {
	Lat float64 `json:"latitude"`
}

func (p *geoPayload) Validate() error {
	if p.Lat > 90 {
		return CustomValidationErrors{{Field: "latitude", Message: "must not exceed 90"}}
	}
	return nil
}

func bind(t *testing.T, body string, payload Validatable) error {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/stores/7/revenue", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/stores/:id/revenue")
	c.SetParamNames("id")
	c.SetParamValues("7")

	return BindAndValidate(c, payload)
}

func TestBindAndValidate_OK(t *testing.T) {
	p := &revenuePayload{}
	require.NoError(t, bind(t, `{"business_date":"2026-03-01","cash":"120.50","shift":"am"}`, p))

	assert.EqualValues(t, 7, p.StoreID)
	assert.True(t, p.Cash.Equal(decimal.RequireFromString("120.50")))
}

func TestBindAndValidate_FieldErrors(t *testing.T) {
	err := bind(t, `{"business_date":"01/03/2026","cash":"-1","note":"too long","shift":"night"}`, &revenuePayload{})

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.True(t, httpErr.Override)

	got := map[string]string{}
	for _, fe := range httpErr.Errors {
		got[fe.Field] = fe.Error
	}
	assert.Equal(t, map[string]string{
		"business_date": "must be a date in the form 2006-01-02",
		"cash":          "must be at least 0",
		"note":          "must not exceed 5 characters",
		"shift":         "must be one of: am pm",
	}, got)
}

func TestBindAndValidate_MalformedJSON(t *testing.T) {
	err := bind(t, `{"business_date":`, &revenuePayload{})

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.False(t, httpErr.Override)
	assert.NotEmpty(t, httpErr.Message)
}

func TestBindAndValidate_Custom(t *testing.T) {
	err := bind(t, `{"latitude": 91}`, &geoPayload{})

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, errs.FieldError{Field: "latitude", Error: "must not exceed 90"}, httpErr.Errors[0])
}
