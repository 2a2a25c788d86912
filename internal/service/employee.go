package service

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/deppfellow/storeops/internal/errs"
	"github.com/deppfellow/storeops/internal/lib/email"
	"github.com/deppfellow/storeops/internal/lib/job"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/repository"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/deppfellow/storeops/internal/sqlerr"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

var (
	errManagerScope = errs.NewForbiddenError("Managers can only manage staff of their own store", true)
	errSelfAction   = errs.New(http.StatusBadRequest, "SELF_ACTION", "You cannot deactivate or delete your own account")
)

type EmployeeService struct {
	server *server.Server
	repos  *repository.Repositories
	now    func() time.Time
}

func NewEmployeeService(s *server.Server, repos *repository.Repositories) *EmployeeService {
	return &EmployeeService{
		server: s,
		repos:  repos,
		now:    time.Now,
	}
}

func (s *EmployeeService) Create(ctx context.Context, actor *model.Principal, p *model.CreateEmployeePayload) (*model.User, error) {
	if !actor.IsAdmin() {
		if p.Role != model.RoleStaff || p.StoreID == nil || !actor.InStore(*p.StoreID) {
			return nil, errManagerScope
		}
	}

	var store *model.Store
	if p.StoreID != nil {
		var err error
		if store, err = s.repos.Store.GetByID(ctx, *p.StoreID); err != nil {
			return nil, err
		}
	}

	hash, err := HashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &model.User{
		Base:         model.Base{CreatedAt: now, UpdatedAt: now},
		StoreID:      p.StoreID,
		Username:     p.Username,
		PasswordHash: hash,
		FullName:     p.FullName,
		Email:        p.Email,
		Phone:        p.Phone,
		Role:         p.Role,
		Active:       true,
		ExternalID:   p.ExternalID,
	}
	if p.HourlyWage != nil {
		user.HourlyWage = decimal.NewNullDecimal(*p.HourlyWage)
	}

	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, err
	}

	s.server.Logger.Info().
		Int64("user_id", user.ID).
		Int64("created_by", actor.UserID).
		Str("role", string(user.Role)).
		Msg("employee created")

	if user.Email != "" {
		data := email.WelcomeData{
			FullName: user.FullName,
			Username: user.Username,
			Role:     string(user.Role),
		}
		if store != nil {
			data.StoreName = store.Name
		}
		enqueue(ctx, s.server, func() (*asynq.Task, error) {
			return job.NewWelcomeEmailTask(user.Email, data)
		})
	}

	return user, nil
}

// Get returns an employee the actor may see: admins see everyone, managers
// their store, staff only themselves.
func (s *EmployeeService) Get(ctx context.Context, actor *model.Principal, id int64) (*model.User, error) {
	if actor.Role == model.RoleStaff && actor.UserID != id {
		return nil, errs.NewForbiddenError("You can only view your own profile", true)
	}

	user, err := s.repos.User.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == model.RoleManager && (user.StoreID == nil || !actor.InStore(*user.StoreID)) {
		return nil, errOtherStore
	}
	return user, nil
}

func (s *EmployeeService) List(ctx context.Context, actor *model.Principal, p *model.ListEmployeesPayload) ([]model.User, error) {
	storeID, err := listingStore(actor, p.StoreID)
	if err != nil {
		return nil, err
	}
	return s.repos.User.List(ctx, model.EmployeeFilter{
		StoreID: storeID,
		Role:    p.Role,
		Active:  p.Active,
	})
}

func (s *EmployeeService) Update(ctx context.Context, actor *model.Principal, p *model.UpdateEmployeePayload) (*model.User, error) {
	user, err := s.managed(ctx, actor, p.ID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		if p.Role != nil && *p.Role != model.RoleStaff {
			return nil, errManagerScope
		}
		if p.StoreID != nil && !actor.InStore(*p.StoreID) {
			return nil, errManagerScope
		}
	}
	if actor.UserID == user.ID && p.Active != nil && !*p.Active {
		return nil, errSelfAction
	}

	p.Apply(user)
	if user.Role != model.RoleAdmin && user.StoreID == nil {
		return nil, errs.NewBadRequestError("Validation failed", true, nil,
			[]errs.FieldError{{Field: "store_id", Error: "is required for managers and staff"}}, nil)
	}

	now := s.now().UTC()
	user.UpdatedAt = now

	err = s.server.DB.WithTx(ctx, func(tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)
		if err := repos.User.Update(ctx, user); err != nil {
			return err
		}
		if p.Password == nil {
			return nil
		}
		hash, err := HashPassword(*p.Password)
		if err != nil {
			return err
		}
		return repos.User.UpdatePassword(ctx, user.ID, hash, now)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Deactivate blocks the employee from logging in while keeping their history.
func (s *EmployeeService) Deactivate(ctx context.Context, actor *model.Principal, id int64) (*model.User, error) {
	if actor.UserID == id {
		return nil, errSelfAction
	}
	user, err := s.managed(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return user, nil
	}

	user.Active = false
	user.UpdatedAt = s.now().UTC()
	if err := s.repos.User.Update(ctx, user); err != nil {
		return nil, err
	}

	s.server.Logger.Info().
		Int64("user_id", user.ID).
		Int64("deactivated_by", actor.UserID).
		Msg("employee deactivated")
	return user, nil
}

// Delete removes an employee without history. Employees with attendance,
// orders or other records must be deactivated instead.
func (s *EmployeeService) Delete(ctx context.Context, actor *model.Principal, id int64) error {
	if actor.UserID == id {
		return errSelfAction
	}
	if _, err := s.managed(ctx, actor, id); err != nil {
		return err
	}

	if err := s.repos.User.Delete(ctx, id); err != nil {
		if sqlerr.Classify(err) == sqlerr.ForeignKeyViolation {
			code := "USER_IN_USE"
			return errs.NewConflictError("Employee has recorded history; deactivate instead", true, &code)
		}
		return err
	}
	return nil
}

// managed loads an employee the actor may modify: admins any, managers only
// staff of their own store.
func (s *EmployeeService) managed(ctx context.Context, actor *model.Principal, id int64) (*model.User, error) {
	user, err := s.repos.User.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return user, nil
	}
	if !actor.CanManage() || user.Role != model.RoleStaff || user.StoreID == nil || !actor.InStore(*user.StoreID) {
		return nil, errManagerScope
	}
	return user, nil
}
