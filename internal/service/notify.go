package service

import (
	"context"

	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/repository"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/hibiken/asynq"
)

// enqueue hands a notification task to the job service. Notifications never
// fail the request that triggered them; failures are logged.
func enqueue(ctx context.Context, s *server.Server, build func() (*asynq.Task, error)) {
	task, err := build()
	if err == nil {
		err = s.Job.Enqueue(ctx, task)
	}
	if err != nil {
		event := s.Logger.Error().Err(err)
		if task != nil {
			event = event.Str("task", task.Type())
		}
		event.Msg("failed to enqueue notification")
	}
}

// managerEmails returns the addresses of the store's active managers.
func managerEmails(ctx context.Context, repos *repository.Repositories, storeID int64) ([]string, error) {
	active := true
	managers, err := repos.User.List(ctx, model.EmployeeFilter{
		StoreID: &storeID,
		Role:    model.RoleManager,
		Active:  &active,
	})
	if err != nil {
		return nil, err
	}

	var out []string
	for _, m := range managers {
		if m.Email != "" {
			out = append(out, m.Email)
		}
	}
	return out, nil
}
