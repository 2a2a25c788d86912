package service

import (
	"net/http"
	"testing"

	"github.com/deppfellow/storeops/internal/errs"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActingStore(t *testing.T) {
	admin := &model.Principal{UserID: 1, Role: model.RoleAdmin}
	staff := &model.Principal{UserID: 2, Role: model.RoleStaff, StoreID: testutil.Ptr[int64](7)}
	drifter := &model.Principal{UserID: 3, Role: model.RoleStaff}

	tests := []struct {
		name      string
		p         *model.Principal
		requested *int64
		want      int64
		status    int
	}{
		{name: "staff defaults to own store", p: staff, want: 7},
		{name: "staff names own store", p: staff, requested: testutil.Ptr[int64](7), want: 7},
		{name: "staff names other store", p: staff, requested: testutil.Ptr[int64](8), status: http.StatusForbidden},
		{name: "admin names any store", p: admin, requested: testutil.Ptr[int64](8), want: 8},
		{name: "admin must name a store", p: admin, status: http.StatusBadRequest},
		{name: "user without store", p: drifter, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := actingStore(tt.p, tt.requested)
			if tt.status != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.status, errs.StatusOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListingStore(t *testing.T) {
	admin := &model.Principal{UserID: 1, Role: model.RoleAdmin}
	manager := &model.Principal{UserID: 2, Role: model.RoleManager, StoreID: testutil.Ptr[int64](7)}

	got, err := listingStore(admin, nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = listingStore(admin, testutil.Ptr[int64](9))
	require.NoError(t, err)
	assert.Equal(t, int64(9), *got)

	got, err = listingStore(manager, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(7), *got)

	_, err = listingStore(manager, testutil.Ptr[int64](9))
	assert.Equal(t, http.StatusForbidden, errs.StatusOf(err))
}
