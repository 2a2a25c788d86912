package repository

import (
	"context"

	"github.com/deppfellow/storeops/internal/database"
	"github.com/deppfellow/storeops/internal/model"
)

type StoreRepository struct {
	db *database.Database
	q  database.DBTX
}

const storeColumns = `id, name, address, latitude, longitude, geofence_radius_m,
	delivery_threshold, timezone, created_at, updated_at`

func scanStore(row scanner) (model.Store, error) {
	var s model.Store
	err := row.Scan(&s.ID, &s.Name, &s.Address, &s.Latitude, &s.Longitude, &s.GeofenceRadiusM,
		&s.DeliveryThreshold, &s.Timezone, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *StoreRepository) Create(ctx context.Context, s *model.Store) error {
	query := r.db.Rebind(`
		INSERT INTO stores (name, address, latitude, longitude, geofence_radius_m,
			delivery_threshold, timezone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	return r.q.QueryRowContext(ctx, query,
		s.Name, s.Address, s.Latitude, s.Longitude, s.GeofenceRadiusM,
		s.DeliveryThreshold, s.Timezone, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
}

func (r *StoreRepository) GetByID(ctx context.Context, id int64) (*model.Store, error) {
	query := r.db.Rebind(`SELECT ` + storeColumns + ` FROM stores WHERE id = ?`)

	s, err := scanStore(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound("stores", err)
	}
	return &s, nil
}

// GetForUpdate loads the store and, on PostgreSQL, locks its row until the
// surrounding transaction ends. Order placement uses it to serialize the
// delivery-threshold check per store.
func (r *StoreRepository) GetForUpdate(ctx context.Context, id int64) (*model.Store, error) {
	query := r.db.Rebind(`SELECT ` + storeColumns + ` FROM stores WHERE id = ?` + r.db.ForUpdate())

	s, err := scanStore(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound("stores", err)
	}
	return &s, nil
}

func (r *StoreRepository) List(ctx context.Context) ([]model.Store, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+storeColumns+` FROM stores ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanStore)
}

func (r *StoreRepository) Update(ctx context.Context, s *model.Store) error {
	query := r.db.Rebind(`
		UPDATE stores
		SET name = ?, address = ?, latitude = ?, longitude = ?, geofence_radius_m = ?,
			delivery_threshold = ?, timezone = ?, updated_at = ?
		WHERE id = ?`)

	res, err := r.q.ExecContext(ctx, query,
		s.Name, s.Address, s.Latitude, s.Longitude, s.GeofenceRadiusM,
		s.DeliveryThreshold, s.Timezone, s.UpdatedAt, s.ID)
	if err != nil {
		return err
	}
	return affected("stores", res)
}

func (r *StoreRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, r.db.Rebind(`DELETE FROM stores WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return affected("stores", res)
}
