package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/deppfellow/storeops/internal/errs"
	"github.com/deppfellow/storeops/internal/lib/email"
	"github.com/deppfellow/storeops/internal/lib/job"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/repository"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/hibiken/asynq"
)

type MaintenanceService struct {
	server *server.Server
	repos  *repository.Repositories
	now    func() time.Time
}

func NewMaintenanceService(s *server.Server, repos *repository.Repositories) *MaintenanceService {
	return &MaintenanceService{
		server: s,
		repos:  repos,
		now:    time.Now,
	}
}

// Create files a request for the caller's store. Urgent requests alert the
// Telegram channel; every request emails the store managers.
func (s *MaintenanceService) Create(ctx context.Context, p *model.Principal, payload *model.CreateMaintenancePayload) (*model.MaintenanceRequest, error) {
	storeID, err := actingStore(p, payload.StoreID)
	if err != nil {
		return nil, err
	}
	store, err := s.repos.Store.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	reporter, err := s.repos.User.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}

	priority := payload.Priority
	if priority == "" {
		priority = model.PriorityNormal
	}

	now := s.now().UTC()
	req := &model.MaintenanceRequest{
		Base:        model.Base{CreatedAt: now, UpdatedAt: now},
		StoreID:     storeID,
		ReportedBy:  p.UserID,
		Title:       payload.Title,
		Description: payload.Description,
		Priority:    priority,
		Status:      model.MaintenanceOpen,
	}
	if err := s.repos.Maintenance.Create(ctx, req); err != nil {
		return nil, err
	}

	s.server.Logger.Info().
		Int64("request_id", req.ID).
		Int64("store_id", storeID).
		Str("priority", string(priority)).
		Msg("maintenance request created")

	if priority == model.PriorityUrgent {
		text := fmt.Sprintf("URGENT MAINTENANCE [%s]\n#%d %s\nReported by %s", store.Name, req.ID, req.Title, reporter.FullName)
		enqueue(ctx, s.server, func() (*asynq.Task, error) {
			return job.NewTelegramTask(text)
		})
	}

	to, err := managerEmails(ctx, s.repos, storeID)
	if err != nil {
		s.server.Logger.Error().Err(err).Int64("store_id", storeID).Msg("failed to load store managers")
	} else if len(to) > 0 {
		data := email.MaintenanceData{
			RequestID:   req.ID,
			StoreName:   store.Name,
			Title:       req.Title,
			Description: req.Description,
			Priority:    string(req.Priority),
			ReportedBy:  reporter.FullName,
		}
		enqueue(ctx, s.server, func() (*asynq.Task, error) {
			return job.NewMaintenanceEmailTask(to, data)
		})
	}

	return req, nil
}

// UpdateStatus moves a request along its workflow.
func (s *MaintenanceService) UpdateStatus(ctx context.Context, p *model.Principal, payload *model.UpdateMaintenanceStatusPayload) (*model.MaintenanceRequest, error) {
	req, err := s.Get(ctx, p, payload.ID)
	if err != nil {
		return nil, err
	}

	if req.Status != payload.Status {
		if !req.Status.CanTransition(payload.Status) {
			return nil, errs.New(http.StatusBadRequest, "INVALID_TRANSITION",
				fmt.Sprintf("Cannot move a request from %s to %s", req.Status, payload.Status))
		}
	}

	now := s.now().UTC()
	if payload.Status == model.MaintenanceResolved && req.Status != model.MaintenanceResolved {
		req.ResolvedAt = &now
	}
	if payload.Status == model.MaintenanceOpen {
		req.ResolvedAt = nil
	}
	req.Status = payload.Status
	if payload.Assignee != nil {
		req.Assignee = *payload.Assignee
	}
	req.UpdatedAt = now

	if err := s.repos.Maintenance.Update(ctx, req); err != nil {
		return nil, err
	}

	s.server.Logger.Info().
		Int64("request_id", req.ID).
		Int64("updated_by", p.UserID).
		Str("status", string(req.Status)).
		Msg("maintenance request updated")

	return req, nil
}

func (s *MaintenanceService) Get(ctx context.Context, p *model.Principal, id int64) (*model.MaintenanceRequest, error) {
	req, err := s.repos.Maintenance.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkStore(p, req.StoreID); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *MaintenanceService) List(ctx context.Context, p *model.Principal, payload *model.ListMaintenancePayload) ([]model.MaintenanceRequest, error) {
	storeID, err := listingStore(p, payload.StoreID)
	if err != nil {
		return nil, err
	}
	return s.repos.Maintenance.List(ctx, model.MaintenanceFilter{
		StoreID: storeID,
		Status:  payload.Status,
	})
}
