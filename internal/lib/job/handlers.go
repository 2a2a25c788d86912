package job

import (
	"context"

	"github.com/deppfellow/storeops/internal/lib/email"
	"github.com/deppfellow/storeops/internal/lib/telegram"
	"github.com/hibiken/asynq"
)

// InitHandlers registers the notification handlers. The report handler needs
// the repositories and is registered by the report service.
func (j *JobService) InitHandlers(emailClient *email.Client, tg *telegram.Client) {
	j.RegisterHandler(TaskTelegram, func(ctx context.Context, t *asynq.Task) error {
		p, err := Decode[TelegramPayload](t)
		if err != nil {
			return err
		}
		return tg.SendMessage(ctx, p.Text)
	})

	j.RegisterHandler(TaskWelcomeEmail, func(ctx context.Context, t *asynq.Task) error {
		p, err := Decode[WelcomeEmailPayload](t)
		if err != nil {
			return err
		}

		j.logger.Info().
			Str("type", "welcome").
			Str("to", p.To).
			Msg("processing welcome email task")

		return emailClient.SendWelcomeEmail(ctx, p.To, p.Data)
	})

	j.RegisterHandler(TaskOrderReviewEmail, func(ctx context.Context, t *asynq.Task) error {
		p, err := Decode[OrderReviewEmailPayload](t)
		if err != nil {
			return err
		}
		return emailClient.SendOrderReviewEmail(ctx, p.To, p.Data)
	})

	j.RegisterHandler(TaskMaintenanceEmail, func(ctx context.Context, t *asynq.Task) error {
		p, err := Decode[MaintenanceEmailPayload](t)
		if err != nil {
			return err
		}
		return emailClient.SendMaintenanceEmail(ctx, p.To, p.Data)
	})
}
