// Package testutil builds fully wired servers on an in-memory SQLite database
// for service and handler tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/deppfellow/storeops/internal/config"
	"github.com/deppfellow/storeops/internal/database"
	"github.com/deppfellow/storeops/internal/lib/cache"
	"github.com/deppfellow/storeops/internal/lib/email"
	"github.com/deppfellow/storeops/internal/lib/job"
	"github.com/deppfellow/storeops/internal/lib/metrics"
	"github.com/deppfellow/storeops/internal/lib/telegram"
	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/repository"
	"github.com/deppfellow/storeops/internal/server"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Password is the plain-text password of every seeded user.
const Password = "password123"

// Config returns the defaults with a signing key and no external integrations.
func Config() *config.Config {
	cfg := config.Default()
	cfg.Primary.Env = "test"
	cfg.Database.Path = ":memory:"
	cfg.Auth.SecretKey = "test-secret-key-0123456789"
	cfg.Integration.TelegramBotToken = ""
	cfg.Integration.ResendAPIKey = ""
	return cfg
}

// NewServer wires a Server with inline jobs, a memory cache and fresh metrics.
// Everything is closed when the test ends.
func NewServer(t *testing.T, opts ...func(*config.Config)) *server.Server {
	t.Helper()

	cfg := Config()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := zerolog.Nop()

	db, err := database.OpenSQLite(cfg.Database.Path)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background(), &logger))

	m := metrics.New()
	emailClient := email.NewClient(cfg, &logger)
	telegramClient := telegram.NewClient(cfg, &logger)

	jobs := job.NewInlineJobService(&logger, m)
	jobs.InitHandlers(emailClient, telegramClient)

	s := &server.Server{
		Config:   cfg,
		Logger:   &logger,
		DB:       db,
		Job:      jobs,
		Cache:    cache.NewMemory(time.Minute),
		Metrics:  m,
		Email:    emailClient,
		Telegram: telegramClient,
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Seeder creates fixtures through the repositories.
type Seeder struct {
	t     *testing.T
	repos *repository.Repositories
	now   time.Time
}

func NewSeeder(t *testing.T, s *server.Server) *Seeder {
	return &Seeder{t: t, repos: repository.NewRepositories(s), now: time.Now().UTC()}
}

// Store creates a store at lat/lng with a 100 m geofence and the given threshold.
func (sd *Seeder) Store(name string, lat, lng float64, threshold string) *model.Store {
	sd.t.Helper()
	s := &model.Store{
		Base:              model.Base{CreatedAt: sd.now, UpdatedAt: sd.now},
		Name:              name,
		Latitude:          lat,
		Longitude:         lng,
		GeofenceRadiusM:   100,
		DeliveryThreshold: decimal.RequireFromString(threshold),
		Timezone:          "UTC",
	}
	require.NoError(sd.t, sd.repos.Store.Create(context.Background(), s))
	return s
}

// User creates an active user whose password is Password.
func (sd *Seeder) User(storeID *int64, username string, role model.Role, emailAddr string) *model.User {
	sd.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(sd.t, err)

	u := &model.User{
		Base:         model.Base{CreatedAt: sd.now, UpdatedAt: sd.now},
		StoreID:      storeID,
		Username:     username,
		PasswordHash: string(hash),
		FullName:     "User " + username,
		Email:        emailAddr,
		Role:         role,
		Active:       true,
	}
	require.NoError(sd.t, sd.repos.User.Create(context.Background(), u))
	return u
}

// Product creates an active product with the given price and anomaly windows.
func (sd *Seeder) Product(name, price string, frequentDays, rareDays int) *model.Product {
	sd.t.Helper()
	p := &model.Product{
		Base:         model.Base{CreatedAt: sd.now, UpdatedAt: sd.now},
		Name:         name,
		Unit:         "box",
		UnitPrice:    decimal.RequireFromString(price),
		FrequentDays: frequentDays,
		RareDays:     rareDays,
		Active:       true,
	}
	require.NoError(sd.t, sd.repos.Product.Create(context.Background(), p))
	return p
}

// Order inserts an order directly, bypassing the ordering rules.
func (sd *Seeder) Order(storeID, productID, requestedBy int64, status model.OrderStatus, total string, at time.Time) *model.Order {
	sd.t.Helper()
	o := &model.Order{
		Base:        model.Base{CreatedAt: at, UpdatedAt: at},
		StoreID:     storeID,
		ProductID:   productID,
		Quantity:    1,
		UnitPrice:   decimal.RequireFromString(total),
		Total:       decimal.RequireFromString(total),
		Status:      status,
		Anomaly:     model.AnomalyNone,
		RequestedBy: requestedBy,
		OrderedAt:   at,
	}
	require.NoError(sd.t, sd.repos.Order.Create(context.Background(), o))
	return o
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
