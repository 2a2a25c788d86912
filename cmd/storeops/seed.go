package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/deppfellow/storeops/internal/model"
	"github.com/deppfellow/storeops/internal/repository"
	"github.com/deppfellow/storeops/internal/service"
)

// seedFile is the fixture document accepted by the seed command. Employees
// reference their store by name so one file can bootstrap a fresh database.
type seedFile struct {
	Stores    []seedStore    `yaml:"stores"`
	Employees []seedEmployee `yaml:"employees"`
	Products  []seedProduct  `yaml:"products"`
}

type seedStore struct {
	Name              string           `yaml:"name"`
	Address           string           `yaml:"address"`
	Latitude          float64          `yaml:"latitude"`
	Longitude         float64          `yaml:"longitude"`
	GeofenceRadiusM   float64          `yaml:"geofence_radius_m"`
	DeliveryThreshold *decimal.Decimal `yaml:"delivery_threshold"`
	Timezone          string           `yaml:"timezone"`
}

type seedEmployee struct {
	Store      string           `yaml:"store"`
	Username   string           `yaml:"username"`
	Password   string           `yaml:"password"`
	FullName   string           `yaml:"full_name"`
	Email      string           `yaml:"email"`
	Phone      string           `yaml:"phone"`
	Role       model.Role       `yaml:"role"`
	HourlyWage *decimal.Decimal `yaml:"hourly_wage"`
}

type seedProduct struct {
	Name         string          `yaml:"name"`
	Category     string          `yaml:"category"`
	Unit         string          `yaml:"unit"`
	UnitPrice    decimal.Decimal `yaml:"unit_price"`
	Supplier     string          `yaml:"supplier"`
	FrequentDays int             `yaml:"frequent_days"`
	RareDays     int             `yaml:"rare_days"`
}

// seedResult counts created and already present records.
type seedResult struct {
	Created int
	Skipped int
}

// seedActor is the principal fixtures are created as.
var seedActor = &model.Principal{Role: model.RoleAdmin}

func seedCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load stores, employees and products from a YAML file",
		Long: `Load fixtures from a YAML file. Records that already exist (stores and
products by name, employees by username) are left untouched, so the
command can be re-run safely. Pending migrations are applied first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			file, err := loadSeed(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			w, err := a.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer w.close()

			res, err := applySeed(cmd.Context(), w.repos, w.services, file)
			if err != nil {
				return err
			}

			a.logger.Info().
				Int("created", res.Created).
				Int("skipped", res.Skipped).
				Msg("seed applied")
			return nil
		},
	}
}

func loadSeed(r io.Reader) (*seedFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file seedFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return &file, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &file, nil
}

// applySeed creates stores first, then employees, then products.
func applySeed(ctx context.Context, repos *repository.Repositories, services *service.Services, file *seedFile) (seedResult, error) {
	var res seedResult

	stores, err := services.Store.List(ctx)
	if err != nil {
		return res, err
	}
	storeIDs := make(map[string]int64, len(stores))
	for _, s := range stores {
		storeIDs[s.Name] = s.ID
	}

	for i, s := range file.Stores {
		if _, ok := storeIDs[s.Name]; ok {
			res.Skipped++
			continue
		}
		payload := &model.CreateStorePayload{
			Name:              s.Name,
			Address:           s.Address,
			Latitude:          &s.Latitude,
			Longitude:         &s.Longitude,
			GeofenceRadiusM:   s.GeofenceRadiusM,
			DeliveryThreshold: s.DeliveryThreshold,
			Timezone:          s.Timezone,
		}
		if err := payload.Validate(); err != nil {
			return res, fmt.Errorf("stores[%d] %q: %w", i, s.Name, err)
		}
		created, err := services.Store.Create(ctx, payload)
		if err != nil {
			return res, fmt.Errorf("stores[%d] %q: %w", i, s.Name, err)
		}
		storeIDs[created.Name] = created.ID
		res.Created++
	}

	for i, e := range file.Employees {
		_, err := repos.User.GetByUsername(ctx, e.Username)
		if err == nil {
			res.Skipped++
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return res, fmt.Errorf("employees[%d] %q: %w", i, e.Username, err)
		}

		payload := &model.CreateEmployeePayload{
			Username:   e.Username,
			Password:   e.Password,
			FullName:   e.FullName,
			Email:      e.Email,
			Phone:      e.Phone,
			Role:       e.Role,
			HourlyWage: e.HourlyWage,
		}
		if e.Store != "" {
			id, ok := storeIDs[e.Store]
			if !ok {
				return res, fmt.Errorf("employees[%d] %q: unknown store %q", i, e.Username, e.Store)
			}
			payload.StoreID = &id
		}
		if err := payload.Validate(); err != nil {
			return res, fmt.Errorf("employees[%d] %q: %w", i, e.Username, err)
		}
		if _, err := services.Employee.Create(ctx, seedActor, payload); err != nil {
			return res, fmt.Errorf("employees[%d] %q: %w", i, e.Username, err)
		}
		res.Created++
	}

	products, err := services.Inventory.ListProducts(ctx, seedActor)
	if err != nil {
		return res, err
	}
	productNames := make(map[string]struct{}, len(products))
	for _, p := range products {
		productNames[p.Name] = struct{}{}
	}

	for i, p := range file.Products {
		if _, ok := productNames[p.Name]; ok {
			res.Skipped++
			continue
		}
		payload := &model.CreateProductPayload{
			Name:         p.Name,
			Category:     p.Category,
			Unit:         p.Unit,
			UnitPrice:    p.UnitPrice,
			Supplier:     p.Supplier,
			FrequentDays: p.FrequentDays,
			RareDays:     p.RareDays,
		}
		if err := payload.Validate(); err != nil {
			return res, fmt.Errorf("products[%d] %q: %w", i, p.Name, err)
		}
		if _, err := services.Inventory.CreateProduct(ctx, payload); err != nil {
			return res, fmt.Errorf("products[%d] %q: %w", i, p.Name, err)
		}
		productNames[p.Name] = struct{}{}
		res.Created++
	}

	return res, nil
}
