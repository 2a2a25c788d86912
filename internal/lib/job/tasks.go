package job

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/deppfellow/storeops/internal/lib/email"
	"github.com/hibiken/asynq"
)

// Task type names. Asynq routes tasks to handlers by these strings.
const (
	TaskDailyReport      = "report:daily"
	TaskTelegram         = "notify:telegram"
	TaskWelcomeEmail     = "email:welcome"
	TaskOrderReviewEmail = "email:order_review"
	TaskMaintenanceEmail = "email:maintenance"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// DailyReportPayload asks for the flight report of Date (YYYY-MM-DD).
// A nil StoreID covers every store.
type DailyReportPayload struct {
	StoreID *int64 `json:"store_id,omitempty"`
	Date    string `json:"date"`
}

type TelegramPayload struct {
	Text string `json:"text"`
}

type WelcomeEmailPayload struct {
	To   string            `json:"to"`
	Data email.WelcomeData `json:"data"`
}

type OrderReviewEmailPayload struct {
	To   []string              `json:"to"`
	Data email.OrderReviewData `json:"data"`
}

type MaintenanceEmailPayload struct {
	To   []string              `json:"to"`
	Data email.MaintenanceData `json:"data"`
}

func newTask(taskType string, payload any, opts ...asynq.Option) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", taskType, err)
	}
	return asynq.NewTask(taskType, b, opts...), nil
}

// Decode unmarshals a task payload. Malformed payloads are never retried.
func Decode[T any](t *asynq.Task) (T, error) {
	var p T
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("failed to unmarshal %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
	}
	return p, nil
}

func NewDailyReportTask(storeID *int64, date string) (*asynq.Task, error) {
	return newTask(TaskDailyReport, DailyReportPayload{StoreID: storeID, Date: date},
		asynq.MaxRetry(3),
		asynq.Queue(QueueDefault),
		asynq.Timeout(2*time.Minute),
	)
}

func NewTelegramTask(text string) (*asynq.Task, error) {
	return newTask(TaskTelegram, TelegramPayload{Text: text},
		asynq.MaxRetry(3),
		asynq.Queue(QueueCritical),
		asynq.Timeout(30*time.Second),
	)
}

func NewWelcomeEmailTask(to string, data email.WelcomeData) (*asynq.Task, error) {
	return newTask(TaskWelcomeEmail, WelcomeEmailPayload{To: to, Data: data},
		asynq.MaxRetry(3),
		asynq.Queue(QueueLow),
		asynq.Timeout(30*time.Second),
	)
}

func NewOrderReviewEmailTask(to []string, data email.OrderReviewData) (*asynq.Task, error) {
	return newTask(TaskOrderReviewEmail, OrderReviewEmailPayload{To: to, Data: data},
		asynq.MaxRetry(3),
		asynq.Queue(QueueCritical),
		asynq.Timeout(30*time.Second),
	)
}

// NewMaintenanceEmailTask uses the critical queue for urgent requests.
func NewMaintenanceEmailTask(to []string, data email.MaintenanceData) (*asynq.Task, error) {
	queue := QueueDefault
	if data.Priority == "urgent" {
		queue = QueueCritical
	}
	return newTask(TaskMaintenanceEmail, MaintenanceEmailPayload{To: to, Data: data},
		asynq.MaxRetry(3),
		asynq.Queue(queue),
		asynq.Timeout(30*time.Second),
	)
}
