package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/deppfellow/storeops/internal/database"
	"github.com/deppfellow/storeops/internal/model"
)

type OrderRepository struct {
	db *database.Database
	q  database.DBTX
}

const orderSelect = `
	SELECT o.id, o.store_id, o.product_id, p.name, o.quantity, o.unit_price, o.total, o.status,
		o.anomaly, o.anomaly_days, o.note, o.requested_by, o.decided_by, o.decided_at,
		o.ordered_at, o.created_at, o.updated_at
	FROM orders o
	JOIN products p ON p.id = o.product_id`

func scanOrder(row scanner) (model.Order, error) {
	var (
		o       model.Order
		status  string
		anomaly string
	)
	err := row.Scan(&o.ID, &o.StoreID, &o.ProductID, &o.ProductName, &o.Quantity, &o.UnitPrice, &o.Total,
		&status, &anomaly, &o.AnomalyDays, &o.Note, &o.RequestedBy, &o.DecidedBy, &o.DecidedAt,
		&o.OrderedAt, &o.CreatedAt, &o.UpdatedAt)
	o.Status = model.OrderStatus(status)
	o.Anomaly = model.Anomaly(anomaly)
	return o, err
}

func (r *OrderRepository) Create(ctx context.Context, o *model.Order) error {
	query := r.db.Rebind(`
		INSERT INTO orders (store_id, product_id, quantity, unit_price, total, status, anomaly,
			anomaly_days, note, requested_by, decided_by, decided_at, ordered_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	return r.q.QueryRowContext(ctx, query,
		o.StoreID, o.ProductID, o.Quantity, o.UnitPrice, o.Total, string(o.Status), string(o.Anomaly),
		o.AnomalyDays, o.Note, o.RequestedBy, o.DecidedBy, o.DecidedAt, o.OrderedAt, o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	o, err := scanOrder(r.q.QueryRowContext(ctx, r.db.Rebind(orderSelect+` WHERE o.id = ?`), id))
	if err != nil {
		return nil, notFound("orders", err)
	}
	return &o, nil
}

func (r *OrderRepository) List(ctx context.Context, f model.OrderFilter) ([]model.Order, error) {
	var w where
	if f.StoreID != nil {
		w.add("o.store_id = ?", *f.StoreID)
	}
	if f.ProductID != nil {
		w.add("o.product_id = ?", *f.ProductID)
	}
	if f.Status != "" {
		w.add("o.status = ?", string(f.Status))
	}
	if f.Anomaly != "" {
		w.add("o.anomaly = ?", string(f.Anomaly))
	}
	if f.From != nil {
		w.add("o.ordered_at >= ?", f.From.UTC())
	}
	if f.To != nil {
		w.add("o.ordered_at < ?", f.To.UTC())
	}

	rows, err := r.q.QueryContext(ctx, r.db.Rebind(orderSelect+w.String()+` ORDER BY o.ordered_at DESC, o.id DESC`), w.args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanOrder)
}

// LastOrderedAt returns when the store last ordered the product, ignoring
// rejected orders; nil when it never did.
func (r *OrderRepository) LastOrderedAt(ctx context.Context, storeID, productID int64) (*time.Time, error) {
	query := r.db.Rebind(`
		SELECT ordered_at FROM orders
		WHERE store_id = ? AND product_id = ? AND status <> ?
		ORDER BY ordered_at DESC, id DESC
		LIMIT 1`)

	var at time.Time
	err := r.q.QueryRowContext(ctx, query, storeID, productID, string(model.OrderRejected)).Scan(&at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &at, nil
}

// LastOrderedByProduct maps each product the store has ordered (rejected
// orders excluded) to its most recent order time.
func (r *OrderRepository) LastOrderedByProduct(ctx context.Context, storeID int64) (map[int64]time.Time, error) {
	query := r.db.Rebind(`SELECT product_id, ordered_at FROM orders WHERE store_id = ? AND status <> ?`)

	rows, err := r.q.QueryContext(ctx, query, storeID, string(model.OrderRejected))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	last := map[int64]time.Time{}
	for rows.Next() {
		var (
			productID int64
			at        time.Time
		)
		if err := rows.Scan(&productID, &at); err != nil {
			return nil, err
		}
		if prev, ok := last[productID]; !ok || at.After(prev) {
			last[productID] = at
		}
	}
	return last, rows.Err()
}

// Held returns the store's orders waiting for the delivery threshold.
func (r *OrderRepository) Held(ctx context.Context, storeID int64) ([]model.Order, error) {
	return r.List(ctx, model.OrderFilter{StoreID: &storeID, Status: model.OrderHeld})
}

// ReleaseHeld approves every held order of the store and returns their ids.
func (r *OrderRepository) ReleaseHeld(ctx context.Context, storeID int64, at time.Time) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx,
		r.db.Rebind(`SELECT id FROM orders WHERE store_id = ? AND status = ? ORDER BY id`),
		storeID, string(model.OrderHeld))
	if err != nil {
		return nil, err
	}
	ids, err := collect(rows, func(row scanner) (int64, error) {
		var id int64
		return id, row.Scan(&id)
	})
	if err != nil || len(ids) == 0 {
		return ids, err
	}

	_, err = r.q.ExecContext(ctx,
		r.db.Rebind(`UPDATE orders SET status = ?, decided_at = ?, updated_at = ? WHERE store_id = ? AND status = ?`),
		string(model.OrderApproved), at, at, storeID, string(model.OrderHeld))
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ErrStatusChanged is returned by UpdateDecision when the order is no longer
// in any of the statuses the caller read it in.
var ErrStatusChanged = errors.New("order status changed")

// UpdateDecision persists status, decision and note changes of an order. The
// row is only written while its status is still one of from.
func (r *OrderRepository) UpdateDecision(ctx context.Context, o *model.Order, from ...model.OrderStatus) error {
	if len(from) == 0 {
		return errors.New("update decision: no expected status")
	}

	args := []any{string(o.Status), o.DecidedBy, o.DecidedAt, o.Note, o.UpdatedAt, o.ID}
	for _, status := range from {
		args = append(args, string(status))
	}

	query := r.db.Rebind(`
		UPDATE orders
		SET status = ?, decided_by = ?, decided_at = ?, note = ?, updated_at = ?
		WHERE id = ? AND status IN (` + placeholders(len(from)) + `)`)

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStatusChanged
	}
	return nil
}
