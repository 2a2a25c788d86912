package service

import (
	"context"
	"time"

	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/repository"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/shopspring/decimal"
)

type RevenueService struct {
	server *server.Server
	repos  *repository.Repositories
	now    func() time.Time
}

func NewRevenueService(s *server.Server, repos *repository.Repositories) *RevenueService {
	return &RevenueService{
		server: s,
		repos:  repos,
		now:    time.Now,
	}
}

// Record stores the takings of one business day, replacing an earlier entry.
// The total is always computed here.
func (s *RevenueService) Record(ctx context.Context, p *model.Principal, payload *model.RecordRevenuePayload) (*model.Revenue, error) {
	storeID, err := actingStore(p, payload.StoreID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repos.Store.GetByID(ctx, storeID); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rev := &model.Revenue{
		Base:         model.Base{CreatedAt: now, UpdatedAt: now},
		StoreID:      storeID,
		BusinessDate: payload.BusinessDate,
		Cash:         payload.Cash,
		Card:         payload.Card,
		Other:        payload.Other,
		Total:        payload.Cash.Add(payload.Card).Add(payload.Other),
		Note:         payload.Note,
		RecordedBy:   p.UserID,
	}
	if err := s.repos.Revenue.Upsert(ctx, rev); err != nil {
		return nil, err
	}

	s.server.Logger.Info().
		Int64("store_id", storeID).
		Str("business_date", rev.BusinessDate.String()).
		Str("total", rev.Total.StringFixed(2)).
		Msg("revenue recorded")

	return rev, nil
}

func (s *RevenueService) List(ctx context.Context, p *model.Principal, payload *model.ListRevenuePayload) ([]model.Revenue, error) {
	storeID, err := listingStore(p, payload.StoreID)
	if err != nil {
		return nil, err
	}
	return s.repos.Revenue.List(ctx, revenueFilter(storeID, payload.From, payload.To))
}

// Summary totals revenue over the range. Days counts recorded days only, and
// the average is taken over them.
func (s *RevenueService) Summary(ctx context.Context, p *model.Principal, payload *model.ListRevenuePayload) (*model.RevenueSummary, error) {
	storeID, err := listingStore(p, payload.StoreID)
	if err != nil {
		return nil, err
	}

	rows, err := s.repos.Revenue.List(ctx, revenueFilter(storeID, payload.From, payload.To))
	if err != nil {
		return nil, err
	}
	return summarizeRevenue(storeID, payload.From, payload.To, rows), nil
}

func revenueFilter(storeID *int64, from, to model.Date) model.RevenueFilter {
	f := model.RevenueFilter{StoreID: storeID}
	if !from.IsZero() {
		f.From = &from
	}
	if !to.IsZero() {
		f.To = &to
	}
	return f
}

func summarizeRevenue(storeID *int64, from, to model.Date, rows []model.Revenue) *model.RevenueSummary {
	sum := &model.RevenueSummary{
		StoreID:    storeID,
		From:       from,
		To:         to,
		Cash:       decimal.Zero,
		Card:       decimal.Zero,
		Other:      decimal.Zero,
		Total:      decimal.Zero,
		AveragePer: decimal.Zero,
	}

	days := map[string]struct{}{}
	for _, r := range rows {
		sum.Cash = sum.Cash.Add(r.Cash)
		sum.Card = sum.Card.Add(r.Card)
		sum.Other = sum.Other.Add(r.Other)
		sum.Total = sum.Total.Add(r.Total)
		days[r.BusinessDate.String()] = struct{}{}
	}

	sum.Days = len(days)
	if sum.Days > 0 {
		sum.AveragePer = sum.Total.Div(decimal.NewFromInt(int64(sum.Days))).Round(2)
	}
	return sum
}
