package repository

import (
	"context"

	"github.com/deppfellow/storeops/internal/database"
	"github.com/deppfellow/storeops/internal/model"
)

type ProductRepository struct {
	db *database.Database
	q  database.DBTX
}

const productColumns = `id, name, category, unit, unit_price, supplier, frequent_days, rare_days,
	active, created_at, updated_at`

func scanProduct(row scanner) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Unit, &p.UnitPrice, &p.Supplier,
		&p.FrequentDays, &p.RareDays, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *ProductRepository) Create(ctx context.Context, p *model.Product) error {
	query := r.db.Rebind(`
		INSERT INTO products (name, category, unit, unit_price, supplier, frequent_days, rare_days,
			active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	return r.q.QueryRowContext(ctx, query,
		p.Name, p.Category, p.Unit, p.UnitPrice, p.Supplier, p.FrequentDays, p.RareDays,
		p.Active, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := r.db.Rebind(`SELECT ` + productColumns + ` FROM products WHERE id = ?`)

	p, err := scanProduct(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound("products", err)
	}
	return &p, nil
}

// List returns the catalogue; activeOnly hides retired products.
func (r *ProductRepository) List(ctx context.Context, activeOnly bool) ([]model.Product, error) {
	var w where
	if activeOnly {
		w.add("active = ?", true)
	}

	query := r.db.Rebind(`SELECT ` + productColumns + ` FROM products` + w.String() + ` ORDER BY name`)
	rows, err := r.q.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanProduct)
}

func (r *ProductRepository) Update(ctx context.Context, p *model.Product) error {
	query := r.db.Rebind(`
		UPDATE products
		SET name = ?, category = ?, unit = ?, unit_price = ?, supplier = ?, frequent_days = ?,
			rare_days = ?, active = ?, updated_at = ?
		WHERE id = ?`)

	res, err := r.q.ExecContext(ctx, query,
		p.Name, p.Category, p.Unit, p.UnitPrice, p.Supplier, p.FrequentDays,
		p.RareDays, p.Active, p.UpdatedAt, p.ID)
	if err != nil {
		return err
	}
	return affected("products", res)
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return affected("products", res)
}
