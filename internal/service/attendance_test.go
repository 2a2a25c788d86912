package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/deppfellow/storeops/internal/errs"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/testutil"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(lat, lng float64) *model.ClockPayload {
	return &model.ClockPayload{Latitude: &lat, Longitude: &lng}
}

func TestAttendance_ClockInOut(t *testing.T) {
	f := newFixture(t)
	svc := NewAttendanceService(f.srv, f.repos)
	ctx := context.Background()
	p := f.staff.Principal()

	start := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	svc.now = clock(start)

	// About 30 m north of the store.
	shift, err := svc.ClockIn(ctx, p, at(f.store.Latitude+0.00027, f.store.Longitude))
	require.NoError(t, err)
	assert.True(t, shift.Open())
	assert.InDelta(t, 30, shift.ClockInDistanceM, 1)

	_, err = svc.ClockIn(ctx, p, at(f.store.Latitude, f.store.Longitude))
	requireCode(t, err, "ALREADY_CLOCKED_IN")
	assert.Equal(t, http.StatusConflict, errs.StatusOf(err))

	current, err := svc.Current(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, shift.ID, current.ID)

	svc.now = clock(start.Add(8*time.Hour + 30*time.Minute))
	payload := at(-6.3, 106.9)
	payload.Note = "left via back door"
	closed, err := svc.ClockOut(ctx, p, payload)
	require.NoError(t, err)
	assert.False(t, closed.Open())
	assert.Equal(t, 8*time.Hour+30*time.Minute, closed.Worked())
	assert.Equal(t, "left via back door", closed.Note)

	current, err = svc.Current(ctx, p)
	require.NoError(t, err)
	assert.Nil(t, current)

	_, err = svc.ClockOut(ctx, p, at(f.store.Latitude, f.store.Longitude))
	requireCode(t, err, "NOT_CLOCKED_IN")

	assert.Equal(t, 1.0, promtest.ToFloat64(f.srv.Metrics.ClockIns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, promtest.ToFloat64(f.srv.Metrics.ClockIns.WithLabelValues("already_clocked_in")))
}

func TestAttendance_Geofence(t *testing.T) {
	f := newFixture(t)
	svc := NewAttendanceService(f.srv, f.repos)

	// About 1.1 km south.
	_, err := svc.ClockIn(context.Background(), f.staff.Principal(), at(f.store.Latitude-0.01, f.store.Longitude))
	requireCode(t, err, "OUTSIDE_GEOFENCE")
	assert.Equal(t, http.StatusBadRequest, errs.StatusOf(err))
	assert.Contains(t, err.Error(), "1112 m")
	assert.Equal(t, 1.0, promtest.ToFloat64(f.srv.Metrics.ClockIns.WithLabelValues("outside_geofence")))
}

func TestAttendance_NoStore(t *testing.T) {
	f := newFixture(t)
	svc := NewAttendanceService(f.srv, f.repos)

	_, err := svc.ClockIn(context.Background(), f.admin.Principal(), at(0, 0))
	requireCode(t, err, "NO_STORE")
}

func TestAttendance_ListAndSummary(t *testing.T) {
	f := newFixture(t)
	svc := NewAttendanceService(f.srv, f.repos)
	ctx := context.Background()
	here := at(f.store.Latitude, f.store.Longitude)

	day := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	for _, u := range []*model.User{f.staff, f.manager} {
		svc.now = clock(day)
		_, err := svc.ClockIn(ctx, u.Principal(), here)
		require.NoError(t, err)
		svc.now = clock(day.Add(4 * time.Hour))
		_, err = svc.ClockOut(ctx, u.Principal(), here)
		require.NoError(t, err)
	}

	mine, err := svc.List(ctx, f.staff.Principal(), &model.ListAttendancePayload{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.staff.ID, mine[0].UserID)

	_, err = svc.List(ctx, f.staff.Principal(), &model.ListAttendancePayload{UserID: &f.manager.ID})
	assert.Equal(t, http.StatusForbidden, errs.StatusOf(err))

	all, err := svc.List(ctx, f.manager.Principal(), &model.ListAttendancePayload{
		From: model.NewDate(day),
		To:   model.NewDate(day),
	})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := svc.List(ctx, f.admin.Principal(), &model.ListAttendancePayload{
		StoreID: testutil.Ptr(f.store.ID),
		From:    model.NewDate(day).AddDays(1),
	})
	require.NoError(t, err)
	assert.Empty(t, none)

	summary, err := svc.Summary(ctx, f.manager.Principal(), &model.AttendanceSummaryPayload{})
	require.NoError(t, err)
	require.Len(t, summary, 2)
	for _, s := range summary {
		assert.Equal(t, 1, s.Shifts)
		assert.InDelta(t, 4.0, s.Hours, 0.001)
	}
}
