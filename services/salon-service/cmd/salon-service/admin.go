package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/md-rashed-zaman/salonbook/libs/runtime"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/catalog"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/coordinator"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/validation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and indexes for the configured storage driver",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStores(cmd.Context(), func(ctx context.Context, _ settings, st *stores) error {
				if err := st.migrate(ctx); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}
}

func repairSlotsCmd() *cobra.Command {
	var from string
	var days int
	cmd := &cobra.Command{
		Use:   "repair-slots",
		Short: "Rebuild slot boards from the booking ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 1 {
				return errors.New("--days must be at least 1")
			}
			return withStores(cmd.Context(), func(ctx context.Context, s settings, st *stores) error {
				coord := coordinator.New(coordinator.Deps{
					Ledger: st.Ledger,
					Board:  st.Board,
					Logger: runtime.NewLogger(serviceName),
				}, coordinator.Config{Location: s.Location, Hours: s.Hours})

				start := coord.Today()
				if from != "" {
					d, err := model.ParseDay(from, s.Location)
					if err != nil {
						return fmt.Errorf("--from: %w", err)
					}
					start = d
				}
				n, err := coord.RepairRange(ctx, start, days)
				fmt.Fprintf(cmd.OutOrStdout(), "repaired %d of %d days from %s\n", n, days, start.Format(model.DayLayout))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day to repair (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&days, "days", 14, "number of days to repair")
	return cmd
}

func seedServicesCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed-services",
		Short: "Load catalog services from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			services, err := parseSeed(f)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			return withStores(cmd.Context(), func(ctx context.Context, _ settings, st *stores) error {
				n, err := seedServices(ctx, st.Services, services)
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d services\n", n)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "services.yaml", "YAML file with a top-level services list")
	return cmd
}

func withStores(ctx context.Context, fn func(context.Context, settings, *stores) error) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	st, err := openStores(ctx, s, runtime.NewLogger(serviceName))
	if err != nil {
		return err
	}
	defer func() { _ = st.close(context.Background()) }()
	return fn(ctx, s, st)
}

type seedService struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	Price           *float64 `yaml:"price"`
	DurationMinutes *int     `yaml:"durationMinutes"`
	Category        string   `yaml:"category"`
	Image           string   `yaml:"image"`
}

type seedFile struct {
	Services []seedService `yaml:"services"`
}

// parseSeed validates every entry before anything is written.
func parseSeed(r io.Reader) ([]model.Service, error) {
	var doc seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(doc.Services) == 0 {
		return nil, errors.New("no services listed")
	}

	out := make([]model.Service, 0, len(doc.Services))
	for i, entry := range doc.Services {
		svc, err := validation.Service(validation.ServiceRequest{
			Name:            entry.Name,
			Description:     entry.Description,
			Price:           entry.Price,
			DurationMinutes: entry.DurationMinutes,
			Category:        entry.Category,
			Image:           entry.Image,
		})
		if err != nil {
			return nil, fmt.Errorf("services[%d]: %w", i, err)
		}
		out = append(out, svc)
	}
	return out, nil
}

func seedServices(ctx context.Context, store catalog.Store, services []model.Service) (int, error) {
	for i, svc := range services {
		if _, err := store.Create(ctx, svc); err != nil {
			return i, fmt.Errorf("create %q: %w", svc.Name, err)
		}
	}
	return len(services), nil
}
