package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/storeops/internal/lib/job"
	"github.com/deppfellow/storeops/internal/lib/telegram"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/repository"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

// ReportService builds the daily flight report and pushes it to Telegram.
type ReportService struct {
	server *server.Server
	repos  *repository.Repositories
	now    func() time.Time
}

func NewReportService(s *server.Server, repos *repository.Repositories) *ReportService {
	return &ReportService{
		server: s,
		repos:  repos,
		now:    time.Now,
	}
}

// RegisterJobs wires the report task handler and, when enabled, the daily
// cron entry that enqueues it.
func (s *ReportService) RegisterJobs() error {
	s.server.Job.RegisterHandler(job.TaskDailyReport, s.handleDailyReport)

	cfg := s.server.Config.Scheduler
	if !cfg.Enabled {
		return nil
	}
	return s.server.Job.Schedule(cfg.DailyReportSpec, cfg.Timezone, func(now time.Time) (*asynq.Task, error) {
		return job.NewDailyReportTask(nil, model.NewDate(now).String())
	})
}

func (s *ReportService) handleDailyReport(ctx context.Context, t *asynq.Task) error {
	p, err := job.Decode[job.DailyReportPayload](t)
	if err != nil {
		return err
	}

	var day model.Date
	if p.Date != "" {
		if day, err = model.ParseDate(p.Date); err != nil {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
	}
	_, err = s.Send(ctx, p.StoreID, day)
	return err
}

// Queue enqueues the report for background delivery.
func (s *ReportService) Queue(ctx context.Context, p *model.Principal, payload *model.DailyReportPayload) (*model.ReportQueued, error) {
	storeID, err := listingStore(p, payload.StoreID)
	if err != nil {
		return nil, err
	}

	day := payload.Date
	if day.IsZero() {
		day = s.today()
	}

	task, err := job.NewDailyReportTask(storeID, day.String())
	if err != nil {
		return nil, err
	}
	if err := s.server.Job.Enqueue(ctx, task); err != nil {
		return nil, err
	}
	return &model.ReportQueued{Queued: true, Date: day.String()}, nil
}

// Preview builds the report for a caller without sending it.
func (s *ReportService) Preview(ctx context.Context, p *model.Principal, payload *model.DailyReportPayload) (*model.DailyReport, error) {
	storeID, err := listingStore(p, payload.StoreID)
	if err != nil {
		return nil, err
	}
	return s.BuildDailyReport(ctx, storeID, payload.Date)
}

// Send builds, formats and pushes the report, returning the text sent.
func (s *ReportService) Send(ctx context.Context, storeID *int64, day model.Date) (string, error) {
	report, err := s.BuildDailyReport(ctx, storeID, day)
	if err != nil {
		return "", err
	}
	text, err := telegram.FormatFlightReport(report)
	if err != nil {
		return "", err
	}
	if err := s.server.Telegram.SendMessage(ctx, text); err != nil {
		return "", err
	}

	s.server.Logger.Info().
		Str("date", report.Date.String()).
		Int("stores", len(report.Stores)).
		Msg("flight report sent")

	return text, nil
}

// BuildDailyReport collects the day's figures for one store, or every store
// when storeID is nil. A zero day means today in the scheduler's timezone.
func (s *ReportService) BuildDailyReport(ctx context.Context, storeID *int64, day model.Date) (*model.DailyReport, error) {
	if day.IsZero() {
		day = s.today()
	}

	var stores []model.Store
	if storeID != nil {
		store, err := s.repos.Store.GetByID(ctx, *storeID)
		if err != nil {
			return nil, err
		}
		stores = []model.Store{*store}
	} else {
		var err error
		if stores, err = s.repos.Store.List(ctx); err != nil {
			return nil, err
		}
	}

	products, err := s.repos.Product.List(ctx, true)
	if err != nil {
		return nil, err
	}

	report := &model.DailyReport{
		Date:        day,
		GeneratedAt: s.now().UTC(),
		Stores:      make([]model.StoreReport, 0, len(stores)),
		Totals:      model.ReportTotals{Revenue: decimal.Zero},
	}

	for i := range stores {
		sr, err := s.storeReport(ctx, &stores[i], day, products)
		if err != nil {
			return nil, fmt.Errorf("store %d: %w", stores[i].ID, err)
		}
		report.Stores = append(report.Stores, *sr)

		report.Totals.Revenue = report.Totals.Revenue.Add(sr.Revenue)
		report.Totals.Anomalies += len(sr.Anomalies)
		report.Totals.OpenMaintenance += sr.OpenMaintenance
		report.Totals.ClockedIn += sr.ClockedIn
		for _, n := range sr.OrdersByStatus {
			report.Totals.Orders += n
		}
	}
	return report, nil
}

func (s *ReportService) storeReport(ctx context.Context, store *model.Store, day model.Date, products []model.Product) (*model.StoreReport, error) {
	loc := store.Location()
	from := day.Start(loc)
	to := day.AddDays(1).Start(loc)

	sr := &model.StoreReport{
		StoreID:        store.ID,
		StoreName:      store.Name,
		Revenue:        decimal.Zero,
		OrdersByStatus: map[model.OrderStatus]int{},
		Anomalies:      []model.Order{},
		Threshold:      store.DeliveryThreshold,
	}

	rev, err := s.repos.Revenue.Get(ctx, store.ID, day)
	switch {
	case err == nil:
		sr.Revenue = rev.Total
		sr.RevenueRecorded = true
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}

	shifts, err := s.repos.Attendance.List(ctx, model.AttendanceFilter{StoreID: &store.ID, From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	sr.Shifts = len(shifts)
	sr.ClockedIn = distinctUsers(shifts)

	active := true
	if sr.Employees, err = s.repos.User.Count(ctx, model.EmployeeFilter{StoreID: &store.ID, Active: &active}); err != nil {
		return nil, err
	}

	orders, err := s.repos.Order.List(ctx, model.OrderFilter{StoreID: &store.ID, From: &from, To: &to})
	if err != nil {
		return nil, err
	}
	for _, o := range orders {
		sr.OrdersByStatus[o.Status]++
		if o.Anomaly != model.AnomalyNone {
			sr.Anomalies = append(sr.Anomalies, o)
		}
	}

	held, err := s.repos.Order.Held(ctx, store.ID)
	if err != nil {
		return nil, err
	}
	sr.HeldTotal = sumTotals(held)

	if sr.OpenMaintenance, sr.UrgentOpen, err = s.repos.Maintenance.OpenCounts(ctx, store.ID); err != nil {
		return nil, err
	}

	endOfDay := to.Add(-time.Nanosecond)
	if sr.OverdueProducts, err = overdueProducts(ctx, s.repos, store, products, endOfDay); err != nil {
		return nil, err
	}
	if sr.OverdueProducts == nil {
		sr.OverdueProducts = []model.OverdueProduct{}
	}
	return sr, nil
}

// today is the current date in the scheduler's timezone.
func (s *ReportService) today() model.Date {
	loc := time.UTC
	if tz := s.server.Config.Scheduler.Timezone; tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	return model.NewDate(s.now().In(loc))
}

// distinctUsers counts the employees with at least one shift in shifts.
func distinctUsers(shifts []model.Attendance) int {
	seen := make(map[int64]struct{}, len(shifts))
	for _, a := range shifts {
		seen[a.UserID] = struct{}{}
	}
	return len(seen)
}
