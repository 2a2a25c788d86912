package repository

import (
	"context"
	"time"

	"github.com/deppfellow/storeops/internal/database"
	"github.com/deppfellow/storeops/internal/model"
)

type UserRepository struct {
	db *database.Database
	q  database.DBTX
}

const userColumns = `id, store_id, username, password_hash, full_name, email, phone, role,
	hourly_wage, active, external_id, created_at, updated_at`

func scanUser(row scanner) (model.User, error) {
	var u model.User
	var role string
	err := row.Scan(&u.ID, &u.StoreID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email, &u.Phone,
		&role, &u.HourlyWage, &u.Active, &u.ExternalID, &u.CreatedAt, &u.UpdatedAt)
	u.Role = model.Role(role)
	return u, err
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	query := r.db.Rebind(`
		INSERT INTO users (store_id, username, password_hash, full_name, email, phone, role,
			hourly_wage, active, external_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	return r.q.QueryRowContext(ctx, query,
		u.StoreID, u.Username, u.PasswordHash, u.FullName, u.Email, u.Phone, string(u.Role),
		u.HourlyWage, u.Active, u.ExternalID, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getBy(ctx, "username", username)
}

// GetByExternalID looks a user up by the identity provider's subject.
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	return r.getBy(ctx, "external_id", externalID)
}

func (r *UserRepository) getBy(ctx context.Context, column string, value any) (*model.User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = ?`)

	u, err := scanUser(r.q.QueryRowContext(ctx, query, value))
	if err != nil {
		return nil, notFound("users", err)
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, f model.EmployeeFilter) ([]model.User, error) {
	w := userWhere(f)

	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users` + w.String() + ` ORDER BY full_name, id`)
	rows, err := r.q.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUser)
}

func (r *UserRepository) Update(ctx context.Context, u *model.User) error {
	query := r.db.Rebind(`
		UPDATE users
		SET store_id = ?, full_name = ?, email = ?, phone = ?, role = ?, hourly_wage = ?,
			active = ?, external_id = ?, updated_at = ?
		WHERE id = ?`)

	res, err := r.q.ExecContext(ctx, query,
		u.StoreID, u.FullName, u.Email, u.Phone, string(u.Role), u.HourlyWage,
		u.Active, u.ExternalID, u.UpdatedAt, u.ID)
	if err != nil {
		return err
	}
	return affected("users", res)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string, at time.Time) error {
	query := r.db.Rebind(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`)

	res, err := r.q.ExecContext(ctx, query, hash, at, id)
	if err != nil {
		return err
	}
	return affected("users", res)
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return affected("users", res)
}

// Count returns how many users match f.
func (r *UserRepository) Count(ctx context.Context, f model.EmployeeFilter) (int, error) {
	w := userWhere(f)

	var n int
	err := r.q.QueryRowContext(ctx, r.db.Rebind(`SELECT COUNT(*) FROM users`+w.String()), w.args...).Scan(&n)
	return n, err
}

func userWhere(f model.EmployeeFilter) where {
	var w where
	if f.StoreID != nil {
		w.add("store_id = ?", *f.StoreID)
	}
	if f.Role != "" {
		w.add("role = ?", string(f.Role))
	}
	if f.Active != nil {
		w.add("active = ?", *f.Active)
	}
	return w
}
