// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist,
// or update data, abstracting SQL logic away from the service layer.
//
// Queries are written once with `?` placeholders and rebound for the active
// dialect. Money columns are TEXT in SQLite and NUMERIC in PostgreSQL; both
// scan into decimal.Decimal. Sums over money are computed in Go so the result
// does not depend on how either engine does decimal arithmetic.
package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// notFound tags sql.ErrNoRows with the table so sqlerr can name the entity.
func notFound(table string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("table:%s: %w", table, err)
	}
	return err
}

// affected turns "no row changed" into a not-found error.
func affected(table string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(table, sql.ErrNoRows)
	}
	return nil
}

// where accumulates AND-ed conditions.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// placeholders returns n comma-separated "?" markers for an IN list.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// collect drains rows through scan.
func collect[T any](rows *sql.Rows, scan func(scanner) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
