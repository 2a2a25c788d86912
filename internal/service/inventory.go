package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/deppfellow/storeops/internal/errs"
	"github.com/deppfellow/storeops/internal/lib/cache"
	"github.com/deppfellow/storeops/internal/lib/email"
	"github.com/deppfellow/storeops/internal/lib/job"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/ordering"
	"github.com/deppfellow/storeops/internal/repository"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/deppfellow/storeops/internal/sqlerr"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

var (
	errProductInactive = errs.New(http.StatusBadRequest, "PRODUCT_INACTIVE", "This product can no longer be ordered")
	errNotDecidable    = errs.New(http.StatusConflict, "ORDER_NOT_DECIDABLE", "Only held or review orders can be approved or rejected")
	errNotApproved     = errs.New(http.StatusConflict, "ORDER_NOT_APPROVED", "Only approved orders can be marked delivered")
)

type InventoryService struct {
	server *server.Server
	repos  *repository.Repositories
	now    func() time.Time
}

func NewInventoryService(s *server.Server, repos *repository.Repositories) *InventoryService {
	return &InventoryService{
		server: s,
		repos:  repos,
		now:    time.Now,
	}
}

// ------------------------------------------------------------------ products

func (s *InventoryService) CreateProduct(ctx context.Context, p *model.CreateProductPayload) (*model.Product, error) {
	now := s.now().UTC()
	product := &model.Product{
		Base:         model.Base{CreatedAt: now, UpdatedAt: now},
		Name:         p.Name,
		Category:     p.Category,
		Unit:         p.Unit,
		UnitPrice:    p.UnitPrice,
		Supplier:     p.Supplier,
		FrequentDays: p.FrequentDays,
		RareDays:     p.RareDays,
		Active:       true,
	}
	if err := s.repos.Product.Create(ctx, product); err != nil {
		return nil, err
	}
	s.invalidateProducts(ctx)
	return product, nil
}

// ListProducts returns the catalogue, served from the cache when warm.
// Inactive products are only included for managers and admins.
func (s *InventoryService) ListProducts(ctx context.Context, p *model.Principal) ([]model.Product, error) {
	products, err := cache.GetOrLoad(ctx, s.server.Cache, cache.KeyProducts, s.server.Config.Cache.TTL, func() ([]model.Product, error) {
		return s.repos.Product.List(ctx, false)
	})
	if err != nil || p.CanManage() {
		return products, err
	}

	active := make([]model.Product, 0, len(products))
	for _, pr := range products {
		if pr.Active {
			active = append(active, pr)
		}
	}
	return active, nil
}

func (s *InventoryService) UpdateProduct(ctx context.Context, p *model.UpdateProductPayload) (*model.Product, error) {
	product, err := s.repos.Product.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if err := p.Apply(product); err != nil {
		return nil, err
	}
	product.UpdatedAt = s.now().UTC()

	if err := s.repos.Product.Update(ctx, product); err != nil {
		return nil, err
	}
	s.invalidateProducts(ctx)
	return product, nil
}

// DeleteProduct removes a product that was never ordered.
func (s *InventoryService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repos.Product.Delete(ctx, id); err != nil {
		if sqlerr.Classify(err) == sqlerr.ForeignKeyViolation {
			code := "PRODUCT_IN_USE"
			return errs.NewConflictError("Product has orders; set it inactive instead", true, &code)
		}
		return err
	}
	s.invalidateProducts(ctx)
	return nil
}

func (s *InventoryService) invalidateProducts(ctx context.Context) {
	if err := s.server.Cache.Delete(ctx, cache.KeyProducts); err != nil {
		s.server.Logger.Warn().Err(err).Str("key", cache.KeyProducts).Msg("failed to invalidate cache")
	}
}

// ------------------------------------------------------------------ orders

// PlaceOrder evaluates the anomaly and delivery-threshold rules for a new order
// and stores it, releasing the store's held orders when the threshold is met.
func (s *InventoryService) PlaceOrder(ctx context.Context, p *model.Principal, payload *model.PlaceOrderPayload) (*model.PlaceOrderResult, error) {
	storeID, err := actingStore(p, payload.StoreID)
	if err != nil {
		return nil, err
	}

	var (
		result    model.PlaceOrderResult
		store     *model.Store
		requester *model.User
	)

	err = s.server.DB.WithTx(ctx, func(tx *sql.Tx) error {
		repos := s.repos.WithTx(tx)

		// The store row lock is held until commit, so concurrent orders of
		// one store see each other's held totals.
		if store, err = repos.Store.GetForUpdate(ctx, storeID); err != nil {
			return err
		}
		product, err := repos.Product.GetByID(ctx, payload.ProductID)
		if err != nil {
			return err
		}
		if !product.Active {
			return errProductInactive
		}
		if requester, err = repos.User.GetByID(ctx, p.UserID); err != nil {
			return err
		}

		previous, err := repos.Order.LastOrderedAt(ctx, storeID, product.ID)
		if err != nil {
			return err
		}
		held, err := repos.Order.Held(ctx, storeID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		total := product.UnitPrice.Mul(decimal.NewFromInt(int64(payload.Quantity)))

		decision := ordering.Evaluate(ordering.Input{
			Rules:      ordering.RulesFor(product),
			OrderedAt:  now,
			PreviousAt: previous,
			Location:   store.Location(),
			Total:      total,
			HeldTotal:  sumTotals(held),
			Threshold:  store.DeliveryThreshold,
		})

		if decision.ReleaseHeld {
			if result.Released, err = repos.Order.ReleaseHeld(ctx, storeID, now); err != nil {
				return err
			}
		}

		order := &model.Order{
			Base:        model.Base{CreatedAt: now, UpdatedAt: now},
			StoreID:     storeID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    payload.Quantity,
			UnitPrice:   product.UnitPrice,
			Total:       total,
			Status:      decision.Status,
			Anomaly:     decision.Anomaly,
			AnomalyDays: decision.DaysSince,
			Note:        payload.Note,
			RequestedBy: p.UserID,
			OrderedAt:   now,
		}
		if order.Status == model.OrderApproved {
			order.DecidedAt = &now
		}
		if err := repos.Order.Create(ctx, order); err != nil {
			return err
		}

		result.Order = order
		result.Basket = decision.Basket
		return nil
	})
	if err != nil {
		return nil, err
	}

	order := result.Order
	if result.Released == nil {
		result.Released = []int64{}
	}
	s.server.Metrics.RecordOrder(string(order.Status), string(order.Anomaly))

	s.server.Logger.Info().
		Int64("order_id", order.ID).
		Int64("store_id", storeID).
		Int64("product_id", order.ProductID).
		Str("status", string(order.Status)).
		Str("anomaly", string(order.Anomaly)).
		Int("released", len(result.Released)).
		Msg("order placed")

	if order.Anomaly != model.AnomalyNone {
		s.notifyAnomaly(ctx, store, requester, order)
	}

	return &result, nil
}

// notifyAnomaly alerts the Telegram channel and emails the store managers
// about an order waiting for review.
func (s *InventoryService) notifyAnomaly(ctx context.Context, store *model.Store, requester *model.User, order *model.Order) {
	days := "-"
	if order.AnomalyDays != nil {
		days = fmt.Sprintf("%d", *order.AnomalyDays)
	}

	text := fmt.Sprintf("ORDER REVIEW [%s]\n%s order #%d: %s x%d (%s), %s day(s) since previous, requested by %s",
		store.Name, strings.ToUpper(string(order.Anomaly)), order.ID, order.ProductName, order.Quantity,
		order.Total.StringFixed(2), days, requester.FullName)
	enqueue(ctx, s.server, func() (*asynq.Task, error) {
		return job.NewTelegramTask(text)
	})

	to, err := managerEmails(ctx, s.repos, store.ID)
	if err != nil {
		s.server.Logger.Error().Err(err).Int64("store_id", store.ID).Msg("failed to load store managers")
		return
	}
	if len(to) == 0 {
		return
	}

	data := email.OrderReviewData{
		OrderID:     order.ID,
		StoreName:   store.Name,
		ProductName: order.ProductName,
		Quantity:    order.Quantity,
		Total:       order.Total.StringFixed(2),
		Anomaly:     string(order.Anomaly),
		DaysSince:   days,
		RequestedBy: requester.FullName,
	}
	enqueue(ctx, s.server, func() (*asynq.Task, error) {
		return job.NewOrderReviewEmailTask(to, data)
	})
}

func (s *InventoryService) GetOrder(ctx context.Context, p *model.Principal, id int64) (*model.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkStore(p, order.StoreID); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *InventoryService) ListOrders(ctx context.Context, p *model.Principal, payload *model.ListOrdersPayload) ([]model.Order, error) {
	storeID, err := listingStore(p, payload.StoreID)
	if err != nil {
		return nil, err
	}

	from, to := dayRange(payload.From, payload.To)
	return s.repos.Order.List(ctx, model.OrderFilter{
		StoreID:   storeID,
		ProductID: payload.ProductID,
		Status:    payload.Status,
		Anomaly:   payload.Anomaly,
		From:      from,
		To:        to,
	})
}

func (s *InventoryService) Approve(ctx context.Context, p *model.Principal, payload *model.DecideOrderPayload) (*model.Order, error) {
	return s.decide(ctx, p, payload, model.OrderApproved)
}

func (s *InventoryService) Reject(ctx context.Context, p *model.Principal, payload *model.DecideOrderPayload) (*model.Order, error) {
	return s.decide(ctx, p, payload, model.OrderRejected)
}

func (s *InventoryService) decide(ctx context.Context, p *model.Principal, payload *model.DecideOrderPayload, status model.OrderStatus) (*model.Order, error) {
	order, err := s.GetOrder(ctx, p, payload.ID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Decidable() {
		return nil, errNotDecidable
	}

	now := s.now().UTC()
	decidedBy := p.UserID
	observed := order.Status
	order.Status = status
	order.DecidedBy = &decidedBy
	order.DecidedAt = &now
	order.UpdatedAt = now
	if payload.Reason != "" {
		order.Note = appendNote(order.Note, string(status)+": "+payload.Reason)
	}

	if err := s.repos.Order.UpdateDecision(ctx, order, observed); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, errNotDecidable
		}
		return nil, err
	}

	s.server.Logger.Info().
		Int64("order_id", order.ID).
		Int64("decided_by", decidedBy).
		Str("status", string(status)).
		Msg("order decided")

	return order, nil
}

// MarkDelivered closes an approved order.
func (s *InventoryService) MarkDelivered(ctx context.Context, p *model.Principal, id int64) (*model.Order, error) {
	order, err := s.GetOrder(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if order.Status != model.OrderApproved {
		return nil, errNotApproved
	}

	order.Status = model.OrderDelivered
	order.UpdatedAt = s.now().UTC()
	if err := s.repos.Order.UpdateDecision(ctx, order, model.OrderApproved); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, errNotApproved
		}
		return nil, err
	}
	return order, nil
}

// CheckDeliveryThreshold previews how far the store's held basket is from
// its delivery threshold.
func (s *InventoryService) CheckDeliveryThreshold(ctx context.Context, p *model.Principal, storeID int64) (*model.DeliveryThresholdStatus, error) {
	if err := checkStore(p, storeID); err != nil {
		return nil, err
	}
	store, err := s.repos.Store.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	held, err := s.repos.Order.Held(ctx, storeID)
	if err != nil {
		return nil, err
	}

	status := ordering.ThresholdStatus(store.ID, store.DeliveryThreshold, sumTotals(held), len(held))
	return &status, nil
}

// AnomalyScan lists products the store has not reordered within their rare
// window as of the given day (today when zero).
func (s *InventoryService) AnomalyScan(ctx context.Context, p *model.Principal, payload *model.OverduePayload) ([]model.OverdueProduct, error) {
	storeID, err := listingStore(p, payload.StoreID)
	if err != nil {
		return nil, err
	}

	var stores []model.Store
	if storeID != nil {
		store, err := s.repos.Store.GetByID(ctx, *storeID)
		if err != nil {
			return nil, err
		}
		stores = []model.Store{*store}
	} else if stores, err = s.repos.Store.List(ctx); err != nil {
		return nil, err
	}

	products, err := s.repos.Product.List(ctx, true)
	if err != nil {
		return nil, err
	}

	out := []model.OverdueProduct{}
	for i := range stores {
		overdue, err := overdueProducts(ctx, s.repos, &stores[i], products, s.asOf(payload.AsOf, &stores[i]))
		if err != nil {
			return nil, err
		}
		out = append(out, overdue...)
	}
	return out, nil
}

// asOf is the end of day in the store's zone, or now when day is zero.
func (s *InventoryService) asOf(day model.Date, store *model.Store) time.Time {
	if day.IsZero() {
		return s.now()
	}
	return day.AddDays(1).Start(store.Location()).Add(-time.Nanosecond)
}

func overdueProducts(ctx context.Context, repos *repository.Repositories, store *model.Store, products []model.Product, asOf time.Time) ([]model.OverdueProduct, error) {
	last, err := repos.Order.LastOrderedByProduct(ctx, store.ID)
	if err != nil {
		return nil, err
	}

	var out []model.OverdueProduct
	for _, pr := range products {
		at, ok := last[pr.ID]
		if !ok {
			continue
		}
		overdue, days := ordering.Overdue(pr.RareDays, &at, asOf, store.Location())
		if !overdue {
			continue
		}
		lastAt := at
		out = append(out, model.OverdueProduct{
			StoreID:     store.ID,
			ProductID:   pr.ID,
			ProductName: pr.Name,
			RareDays:    pr.RareDays,
			LastOrdered: &lastAt,
			DaysSince:   days,
		})
	}
	return out, nil
}

func sumTotals(orders []model.Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.Total)
	}
	return total
}

func appendNote(note, line string) string {
	if note == "" {
		return line
	}
	return note + "\n" + line
}
