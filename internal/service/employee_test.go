package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/deppfellow/storeops/internal/errs"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/sqlerr"
	"github.com/deppfellow/storeops/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmployee(storeID *int64, username string, role model.Role) *model.CreateEmployeePayload {
	return &model.CreateEmployeePayload{
		StoreID:  storeID,
		Username: username,
		Password: "secret-pass",
		FullName: "Employee " + username,
		Role:     role,
	}
}

func TestEmployeeService_CreateScope(t *testing.T) {
	f := newFixture(t)
	svc := NewEmployeeService(f.srv, f.repos)
	ctx := context.Background()
	other := f.seed.Store("Other", 0, 0, "0")

	created, err := svc.Create(ctx, f.manager.Principal(), newEmployee(&f.store.ID, "cashier", model.RoleStaff))
	require.NoError(t, err)
	assert.True(t, created.Active)
	assert.NotEqual(t, "secret-pass", created.PasswordHash)

	_, err = svc.Create(ctx, f.manager.Principal(), newEmployee(&f.store.ID, "boss", model.RoleManager))
	assert.Equal(t, http.StatusForbidden, errs.StatusOf(err))

	_, err = svc.Create(ctx, f.manager.Principal(), newEmployee(&other.ID, "elsewhere", model.RoleStaff))
	assert.Equal(t, http.StatusForbidden, errs.StatusOf(err))

	_, err = svc.Create(ctx, f.admin.Principal(), newEmployee(&other.ID, "elsewhere", model.RoleManager))
	assert.NoError(t, err)

	_, err = svc.Create(ctx, f.admin.Principal(), newEmployee(&other.ID, "cashier", model.RoleStaff))
	assert.Equal(t, sqlerr.UniqueViolation, sqlerr.Classify(err))
}

func TestEmployeeService_WelcomeEmail(t *testing.T) {
	f := newFixture(t)
	svc := NewEmployeeService(f.srv, f.repos)

	payload := newEmployee(&f.store.ID, "mailed", model.RoleStaff)
	payload.Email = "mailed@example.com"
	_, err := svc.Create(context.Background(), f.admin.Principal(), payload)
	require.NoError(t, err)

	f.srv.Job.Wait()
	assert.Equal(t, 1.0, jobCount(f, "email:welcome", "success"))
}

func TestEmployeeService_Visibility(t *testing.T) {
	f := newFixture(t)
	svc := NewEmployeeService(f.srv, f.repos)
	ctx := context.Background()

	self, err := svc.Get(ctx, f.staff.Principal(), f.staff.ID)
	require.NoError(t, err)
	assert.Equal(t, "staff", self.Username)

	_, err = svc.Get(ctx, f.staff.Principal(), f.manager.ID)
	assert.Equal(t, http.StatusForbidden, errs.StatusOf(err))

	_, err = svc.Get(ctx, f.manager.Principal(), f.admin.ID)
	assert.Equal(t, http.StatusForbidden, errs.StatusOf(err))

	list, err := svc.List(ctx, f.manager.Principal(), &model.ListEmployeesPayload{})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	all, err := svc.List(ctx, f.admin.Principal(), &model.ListEmployeesPayload{Role: model.RoleStaff})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, f.staff.ID, all[0].ID)
}

func TestEmployeeService_Update(t *testing.T) {
	f := newFixture(t)
	svc := NewEmployeeService(f.srv, f.repos)
	ctx := context.Background()

	updated, err := svc.Update(ctx, f.manager.Principal(), &model.UpdateEmployeePayload{
		ID:       f.staff.ID,
		FullName: testutil.Ptr("Staff Renamed"),
		Password: testutil.Ptr("another-pass"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Staff Renamed", updated.FullName)

	_, err = NewAuthService(f.srv, f.repos).Login(ctx, &model.LoginPayload{Username: "staff", Password: "another-pass"})
	assert.NoError(t, err)

	promote := model.RoleManager
	_, err = svc.Update(ctx, f.manager.Principal(), &model.UpdateEmployeePayload{ID: f.staff.ID, Role: &promote})
	assert.Equal(t, http.StatusForbidden, errs.StatusOf(err))

	_, err = svc.Update(ctx, f.staff.Principal(), &model.UpdateEmployeePayload{ID: f.staff.ID, FullName: testutil.Ptr("Me")})
	assert.Equal(t, http.StatusForbidden, errs.StatusOf(err))
}

func TestEmployeeService_DeactivateAndDelete(t *testing.T) {
	f := newFixture(t)
	svc := NewEmployeeService(f.srv, f.repos)
	ctx := context.Background()

	_, err := svc.Deactivate(ctx, f.manager.Principal(), f.manager.ID)
	requireCode(t, err, "SELF_ACTION")

	user, err := svc.Deactivate(ctx, f.manager.Principal(), f.staff.ID)
	require.NoError(t, err)
	assert.False(t, user.Active)

	f.seed.Order(f.store.ID, f.seed.Product("Milk", "10", 0, 0).ID, f.staff.ID, model.OrderHeld, "10", user.CreatedAt)
	err = svc.Delete(ctx, f.admin.Principal(), f.staff.ID)
	requireCode(t, err, "USER_IN_USE")

	fresh := f.seed.User(&f.store.ID, "fresh", model.RoleStaff, "")
	require.NoError(t, svc.Delete(ctx, f.manager.Principal(), fresh.ID))
	_, err = f.repos.User.GetByID(ctx, fresh.ID)
	assert.Error(t, err)
}
