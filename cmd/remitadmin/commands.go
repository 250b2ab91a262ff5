package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"remit/internal/app"
	"remit/internal/config"
	"remit/internal/logger"
	"remit/internal/models"
	"remit/internal/repositories"
	"remit/internal/services/corridor"
	"remit/internal/services/currency"
	"remit/internal/services/partner"
	"remit/internal/services/reporting"
	"remit/internal/utils"

	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert currencies, corridors and partners from a catalog file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if path == "" {
				path = cfg.CatalogPath
			}
			catalog, err := config.LoadCatalog(path)
			if err != nil {
				return err
			}

			log := logger.New(cfg.LogLevel)
			store, db, err := app.OpenStore(cfg, log)
			if err != nil {
				return err
			}
			if db != nil {
				defer repositories.Close(db)
			}

			ctx := cmd.Context()
			registry := currency.NewRegistry(store.Currencies, log)
			corridors := corridor.NewCatalog(store.Corridors, log)
			partners := partner.NewDirectory(store.Partners, log)
			if err := app.Seed(ctx, catalog, registry, corridors, partners); err != nil {
				return err
			}
			fmt.Printf("Seeded %d currencies, %d corridors, %d partners from %s\n",
				len(catalog.Currencies), len(catalog.Corridors), len(catalog.Partners), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "catalog", "c", "", "Catalog YAML file (defaults to CATALOG_PATH)")
	return cmd
}

func reportCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a remittance report for a time window as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseWindow(start, end)
			if err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log := logger.New(cfg.LogLevel)
			store, db, err := app.OpenStore(cfg, log)
			if err != nil {
				return err
			}
			if db != nil {
				defer repositories.Close(db)
			}

			report, err := reporting.NewAggregator(store.Transfers, cfg.ReportCacheTTL, nil, log).
				GenerateReport(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "Window start, RFC 3339 (defaults to 24h before end)")
	cmd.Flags().StringVar(&end, "end", "", "Window end, RFC 3339 (defaults to now)")
	return cmd
}

func parseWindow(start, end string) (time.Time, time.Time, error) {
	to := time.Now().UTC()
	if end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
		}
		to = t
	}
	from := to.Add(-24 * time.Hour)
	if start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
		}
		from = t
	}
	return from, to, nil
}

func tokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to mint tokens in production")
			}
			signed, err := utils.GenerateToken(cfg.JWTSecret, models.UserClaims{
				UserID: userID,
				Email:  email,
				Role:   role,
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Println(signed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id recorded as the transfer sender")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVarP(&role, "role", "r", models.RoleSender, "Role: sender, compliance or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
