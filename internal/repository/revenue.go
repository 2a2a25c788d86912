package repository

import (
	"context"

	"github.com/deppfellow/storeops/internal/database"
	"github.com/deppfellow/storeops/internal/model"
)

type RevenueRepository struct {
	db *database.Database
	q  database.DBTX
}

const revenueColumns = `id, store_id, business_date, cash, card, other, total, note, recorded_by,
	created_at, updated_at`

func scanRevenue(row scanner) (model.Revenue, error) {
	var r model.Revenue
	err := row.Scan(&r.ID, &r.StoreID, &r.BusinessDate, &r.Cash, &r.Card, &r.Other, &r.Total,
		&r.Note, &r.RecordedBy, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// Upsert records the takings of (store, business date), replacing an earlier
// entry for the same day. rev is refreshed from the stored row.
func (r *RevenueRepository) Upsert(ctx context.Context, rev *model.Revenue) error {
	query := r.db.Rebind(`
		INSERT INTO revenue (store_id, business_date, cash, card, other, total, note, recorded_by,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (store_id, business_date) DO UPDATE
		SET cash = excluded.cash,
			card = excluded.card,
			other = excluded.other,
			total = excluded.total,
			note = excluded.note,
			recorded_by = excluded.recorded_by,
			updated_at = excluded.updated_at`)

	if _, err := r.q.ExecContext(ctx, query,
		rev.StoreID, rev.BusinessDate, rev.Cash, rev.Card, rev.Other, rev.Total, rev.Note, rev.RecordedBy,
		rev.CreatedAt, rev.UpdatedAt,
	); err != nil {
		return err
	}

	stored, err := r.Get(ctx, rev.StoreID, rev.BusinessDate)
	if err != nil {
		return err
	}
	*rev = *stored
	return nil
}

func (r *RevenueRepository) Get(ctx context.Context, storeID int64, day model.Date) (*model.Revenue, error) {
	query := r.db.Rebind(`SELECT ` + revenueColumns + ` FROM revenue WHERE store_id = ? AND business_date = ?`)

	rev, err := scanRevenue(r.q.QueryRowContext(ctx, query, storeID, day))
	if err != nil {
		return nil, notFound("revenue", err)
	}
	return &rev, nil
}

func (r *RevenueRepository) List(ctx context.Context, f model.RevenueFilter) ([]model.Revenue, error) {
	var w where
	if f.StoreID != nil {
		w.add("store_id = ?", *f.StoreID)
	}
	if f.From != nil {
		w.add("business_date >= ?", *f.From)
	}
	if f.To != nil {
		w.add("business_date <= ?", *f.To)
	}

	query := r.db.Rebind(`SELECT ` + revenueColumns + ` FROM revenue` + w.String() +
		` ORDER BY business_date DESC, store_id`)
	rows, err := r.q.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanRevenue)
}
