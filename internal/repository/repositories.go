package repository

import (
	"database/sql"

	"github.com/deppfellow/storeops/internal/database"
	"github.com/deppfellow/storeops/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Store       *StoreRepository
	User        *UserRepository
	Attendance  *AttendanceRepository
	Revenue     *RevenueRepository
	Product     *ProductRepository
	Order       *OrderRepository
	Maintenance *MaintenanceRepository
}

// NewRepositories constructs the repository container on the server's database.
func NewRepositories(s *server.Server) *Repositories {
	return New(s.DB)
}

// New builds every repository on db.
func New(db *database.Database) *Repositories {
	return bind(db, db.SQL)
}

// WithTx returns the same repositories running their queries inside tx.
func (r *Repositories) WithTx(tx *sql.Tx) *Repositories {
	return bind(r.Store.db, tx)
}

func bind(db *database.Database, q database.DBTX) *Repositories {
	return &Repositories{
		Store:       &StoreRepository{db: db, q: q},
		User:        &UserRepository{db: db, q: q},
		Attendance:  &AttendanceRepository{db: db, q: q},
		Revenue:     &RevenueRepository{db: db, q: q},
		Product:     &ProductRepository{db: db, q: q},
		Order:       &OrderRepository{db: db, q: q},
		Maintenance: &MaintenanceRepository{db: db, q: q},
	}
}
