package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	code := "ORDER_ALREADY_DECIDED"

	tests := []struct {
		name       string
		err        *HTTPError
		wantStatus int
		wantCode   string
	}{
		{"unauthorized", NewUnauthorizedError("no", false), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", NewForbiddenError("no", false), http.StatusForbidden, "FORBIDDEN"},
		{"bad request", NewBadRequestError("no", false, nil, nil, nil), http.StatusBadRequest, "BAD_REQUEST"},
		{"not found", NewNotFoundError("no", false, nil), http.StatusNotFound, "NOT_FOUND"},
		{"conflict custom code", NewConflictError("no", true, &code), http.StatusConflict, code},
		{"internal", NewInternalServerError(), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"explicit", New(http.StatusBadRequest, "OUTSIDE_GEOFENCE", "too far"), http.StatusBadRequest, "OUTSIDE_GEOFENCE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.Status)
			assert.Equal(t, tt.wantCode, tt.err.Code)
		})
	}
}

func TestHasCodeAndStatusOf(t *testing.T) {
	wrapped := fmt.Errorf("placing order: %w", New(http.StatusConflict, "NOT_CLOCKED_IN", "x"))

	assert.True(t, HasCode(wrapped, "NOT_CLOCKED_IN"))
	assert.False(t, HasCode(wrapped, "OTHER"))
	assert.Equal(t, http.StatusConflict, StatusOf(wrapped))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("plain")))
	assert.True(t, errors.Is(wrapped, &HTTPError{}))
}

func TestWithMessage(t *testing.T) {
	base := NewNotFoundError("Resource not found", false, nil)
	custom := base.WithMessage("store not found")

	assert.Equal(t, "Resource not found", base.Message)
	assert.Equal(t, "store not found", custom.Message)
	assert.Equal(t, base.Code, custom.Code)
}
