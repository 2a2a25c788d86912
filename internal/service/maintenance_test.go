package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/deppfellow/storeops/internal/errs"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaintenance_Workflow(t *testing.T) {
	f := newFixture(t)
	svc := NewMaintenanceService(f.srv, f.repos)
	ctx := context.Background()

	req, err := svc.Create(ctx, f.staff.Principal(), &model.CreateMaintenancePayload{Title: "Leaking sink"})
	require.NoError(t, err)
	assert.Equal(t, model.PriorityNormal, req.Priority)
	assert.Equal(t, model.MaintenanceOpen, req.Status)
	assert.Equal(t, f.store.ID, req.StoreID)

	update := func(status model.MaintenanceStatus) (*model.MaintenanceRequest, error) {
		return svc.UpdateStatus(ctx, f.manager.Principal(), &model.UpdateMaintenanceStatusPayload{ID: req.ID, Status: status})
	}

	_, err = update(model.MaintenanceResolved)
	requireCode(t, err, "INVALID_TRANSITION")
	assert.Equal(t, http.StatusBadRequest, errs.StatusOf(err))

	assignee := "PT Plumber"
	got, err := svc.UpdateStatus(ctx, f.manager.Principal(), &model.UpdateMaintenanceStatusPayload{
		ID: req.ID, Status: model.MaintenanceInProgress, Assignee: &assignee,
	})
	require.NoError(t, err)
	assert.Equal(t, "PT Plumber", got.Assignee)
	assert.Nil(t, got.ResolvedAt)

	got, err = update(model.MaintenanceResolved)
	require.NoError(t, err)
	assert.NotNil(t, got.ResolvedAt)

	got, err = update(model.MaintenanceClosed)
	require.NoError(t, err)
	assert.Equal(t, model.MaintenanceClosed, got.Status)

	_, err = update(model.MaintenanceOpen)
	requireCode(t, err, "INVALID_TRANSITION")

	f.srv.Job.Wait()
	assert.Empty(t, f.tg.Messages(), "only urgent requests alert")
	assert.Equal(t, 1.0, jobCount(f, "email:maintenance", "success"))
}

func TestMaintenance_UrgentAlert(t *testing.T) {
	f := newFixture(t)
	svc := NewMaintenanceService(f.srv, f.repos)

	_, err := svc.Create(context.Background(), f.staff.Principal(), &model.CreateMaintenancePayload{
		Title:    "Freezer down",
		Priority: model.PriorityUrgent,
	})
	require.NoError(t, err)

	f.srv.Job.Wait()
	msgs := f.tg.Messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "URGENT MAINTENANCE [Kemang]")
	assert.Contains(t, msgs[0], "Freezer down")
	assert.Contains(t, msgs[0], "User staff")
}

func TestMaintenance_Scope(t *testing.T) {
	f := newFixture(t)
	svc := NewMaintenanceService(f.srv, f.repos)
	ctx := context.Background()
	other := f.seed.Store("Other", 0, 0, "0")

	theirs, err := svc.Create(ctx, f.admin.Principal(), &model.CreateMaintenancePayload{StoreID: &other.ID, Title: "Door"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, f.manager.Principal(), theirs.ID)
	assert.Equal(t, http.StatusForbidden, errs.StatusOf(err))

	mine, err := svc.List(ctx, f.manager.Principal(), &model.ListMaintenancePayload{})
	require.NoError(t, err)
	assert.Empty(t, mine)

	all, err := svc.List(ctx, f.admin.Principal(), &model.ListMaintenancePayload{Status: model.MaintenanceOpen})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
