package service

import (
	"context"
	"time"

	"github.com/deppfellow/storeops/internal/errs"
	"github.com/deppfellow/storeops/internal/lib/cache"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/repository"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/deppfellow/storeops/internal/sqlerr"
)

type StoreService struct {
	server *server.Server
	repos  *repository.Repositories
	now    func() time.Time
}

func NewStoreService(s *server.Server, repos *repository.Repositories) *StoreService {
	return &StoreService{
		server: s,
		repos:  repos,
		now:    time.Now,
	}
}

func (s *StoreService) Create(ctx context.Context, p *model.CreateStorePayload) (*model.Store, error) {
	now := s.now().UTC()
	store := &model.Store{
		Base:              model.Base{CreatedAt: now, UpdatedAt: now},
		Name:              p.Name,
		Address:           p.Address,
		Latitude:          *p.Latitude,
		Longitude:         *p.Longitude,
		GeofenceRadiusM:   p.GeofenceRadiusM,
		DeliveryThreshold: s.server.Config.Ordering.DefaultDeliveryThreshold,
		Timezone:          p.Timezone,
	}
	if store.GeofenceRadiusM == 0 {
		store.GeofenceRadiusM = s.server.Config.Ordering.DefaultGeofenceRadius
	}
	if p.DeliveryThreshold != nil {
		store.DeliveryThreshold = *p.DeliveryThreshold
	}
	if store.Timezone == "" {
		store.Timezone = "UTC"
	}

	if err := s.repos.Store.Create(ctx, store); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.server.Logger.Info().
		Int64("store_id", store.ID).
		Str("name", store.Name).
		Msg("store created")

	return store, nil
}

func (s *StoreService) Get(ctx context.Context, id int64) (*model.Store, error) {
	return s.repos.Store.GetByID(ctx, id)
}

// List returns every store, served from the cache when warm.
func (s *StoreService) List(ctx context.Context) ([]model.Store, error) {
	return cache.GetOrLoad(ctx, s.server.Cache, cache.KeyStores, s.server.Config.Cache.TTL, func() ([]model.Store, error) {
		return s.repos.Store.List(ctx)
	})
}

func (s *StoreService) Update(ctx context.Context, p *model.UpdateStorePayload) (*model.Store, error) {
	store, err := s.repos.Store.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	p.Apply(store)
	store.UpdatedAt = s.now().UTC()

	if err := s.repos.Store.Update(ctx, store); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return store, nil
}

// Delete removes a store that nothing references anymore.
func (s *StoreService) Delete(ctx context.Context, id int64) error {
	if err := s.repos.Store.Delete(ctx, id); err != nil {
		if sqlerr.Classify(err) == sqlerr.ForeignKeyViolation {
			code := "STORE_IN_USE"
			return errs.NewConflictError("Store still has employees or records and cannot be deleted", true, &code)
		}
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *StoreService) invalidate(ctx context.Context) {
	if err := s.server.Cache.Delete(ctx, cache.KeyStores); err != nil {
		s.server.Logger.Warn().Err(err).Str("key", cache.KeyStores).Msg("failed to invalidate cache")
	}
}
