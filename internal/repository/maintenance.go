package repository

import (
	"context"

	"github.com/deppfellow/storeops/internal/database"
	"github.com/deppfellow/storeops/internal/model"
)

type MaintenanceRepository struct {
	db *database.Database
	q  database.DBTX
}

const maintenanceColumns = `id, store_id, reported_by, title, description, priority, status, assignee,
	resolved_at, created_at, updated_at`

func scanMaintenance(row scanner) (model.MaintenanceRequest, error) {
	var (
		m        model.MaintenanceRequest
		priority string
		status   string
	)
	err := row.Scan(&m.ID, &m.StoreID, &m.ReportedBy, &m.Title, &m.Description, &priority, &status,
		&m.Assignee, &m.ResolvedAt, &m.CreatedAt, &m.UpdatedAt)
	m.Priority = model.MaintenancePriority(priority)
	m.Status = model.MaintenanceStatus(status)
	return m, err
}

func (r *MaintenanceRepository) Create(ctx context.Context, m *model.MaintenanceRequest) error {
	query := r.db.Rebind(`
		INSERT INTO maintenance_requests (store_id, reported_by, title, description, priority, status,
			assignee, resolved_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	return r.q.QueryRowContext(ctx, query,
		m.StoreID, m.ReportedBy, m.Title, m.Description, string(m.Priority), string(m.Status),
		m.Assignee, m.ResolvedAt, m.CreatedAt, m.UpdatedAt,
	).Scan(&m.ID)
}

func (r *MaintenanceRepository) GetByID(ctx context.Context, id int64) (*model.MaintenanceRequest, error) {
	query := r.db.Rebind(`SELECT ` + maintenanceColumns + ` FROM maintenance_requests WHERE id = ?`)

	m, err := scanMaintenance(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound("maintenance_requests", err)
	}
	return &m, nil
}

func (r *MaintenanceRepository) List(ctx context.Context, f model.MaintenanceFilter) ([]model.MaintenanceRequest, error) {
	var w where
	if f.StoreID != nil {
		w.add("store_id = ?", *f.StoreID)
	}
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}

	query := r.db.Rebind(`SELECT ` + maintenanceColumns + ` FROM maintenance_requests` + w.String() +
		` ORDER BY created_at DESC, id DESC`)
	rows, err := r.q.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanMaintenance)
}

func (r *MaintenanceRepository) Update(ctx context.Context, m *model.MaintenanceRequest) error {
	query := r.db.Rebind(`
		UPDATE maintenance_requests
		SET status = ?, assignee = ?, resolved_at = ?, updated_at = ?
		WHERE id = ?`)

	res, err := r.q.ExecContext(ctx, query, string(m.Status), m.Assignee, m.ResolvedAt, m.UpdatedAt, m.ID)
	if err != nil {
		return err
	}
	return affected("maintenance_requests", res)
}

// OpenCounts returns the store's unfinished requests (open or in progress)
// and how many of them are urgent.
func (r *MaintenanceRepository) OpenCounts(ctx context.Context, storeID int64) (open, urgent int, err error) {
	query := r.db.Rebind(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN priority = ? THEN 1 ELSE 0 END), 0)
		FROM maintenance_requests
		WHERE store_id = ? AND status IN (?, ?)`)

	err = r.q.QueryRowContext(ctx, query, string(model.PriorityUrgent), storeID,
		string(model.MaintenanceOpen), string(model.MaintenanceInProgress)).Scan(&open, &urgent)
	return open, urgent, err
}
