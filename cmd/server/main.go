package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"logistics-backend/internal/audit"
	"logistics-backend/internal/auth"
	"logistics-backend/internal/config"
	"logistics-backend/internal/database"
	"logistics-backend/internal/geocode"
	"logistics-backend/internal/models"
	"logistics-backend/internal/podai"
	"logistics-backend/internal/report"
	"logistics-backend/internal/server"
	"logistics-backend/internal/storage"
	"logistics-backend/internal/store"
	"logistics-backend/internal/workflow"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "logistics-backend",
		Short: "Docket, manifest and proof-of-delivery backend",
		Long: `Runs the logistics workflow API: docket booking, loading sheets,
manifests, transport hire challans, POD review and the audit trail.

With no subcommand it starts the HTTP server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createUserCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			database.Init(cfg)
			fmt.Printf("%s schema is up to date (%s)\n", color.New(color.FgGreen).Sprint("✓"), cfg.DBDriver)
			return nil
		},
	}
}

func createUserCmd() *cobra.Command {
	var (
		username string
		password string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		Long: `Create a user account directly in the database. This is how further
admin accounts are made once the first one has registered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db := database.Init(cfg)

			u, err := auth.CreateUser(cmd.Context(), store.New(db), username, password, models.UserRole(role))
			if err != nil {
				fmt.Printf("%s %v\n", color.New(color.FgRed).Sprint("✗"), err)
				return err
			}

			audit.NewRecorder(db).Record(cmd.Context(), audit.Actor{}, audit.Entry{
				Action:     models.ActionUserRegistered,
				EntityType: models.EntityUser,
				EntityID:   u.ID,
				Summary:    fmt.Sprintf("User %s created from the command line as %s", u.Username, u.Role),
			})

			fmt.Printf("%s created %s (%s)\n", color.New(color.FgGreen).Sprint("✓"), u.Username, color.New(color.FgCyan).Sprint(u.Role))
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "login name (3-50 characters)")
	cmd.Flags().StringVar(&password, "password", "", "password (8 to 72 bytes)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleDispatcher), "admin, dispatcher or viewer")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func serve() error {
	cfg := config.Load()
	db := database.Init(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	objects, err := storage.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	st := store.New(db)
	rec := audit.NewRecorder(db)

	var analyzer workflow.PodAnalyzer
	if cfg.PodAIAPIKey != "" {
		analyzer = podai.New(podai.Config{
			BaseURL: cfg.PodAIURL,
			APIKey:  cfg.PodAIAPIKey,
			Model:   cfg.PodAIModel,
			Images:  objects,
		})
	}

	eng := workflow.New(st, rec, workflow.Options{
		Geocoder: geocode.New(geocode.Config{
			BaseURL:     cfg.GeocodeURL,
			UserAgent:   cfg.GeocodeUserAgent,
			MinInterval: cfg.GeocodeMinInterval,
		}),
		Analyzer:       analyzer,
		DefaultRadiusM: cfg.GeofenceRadiusM,
	})

	var renderer report.PDFRenderer = report.DisabledRenderer{}
	if cfg.ChromePDFEnabled {
		renderer = report.NewChromeRenderer()
	}

	app := server.New(server.Deps{
		Config:   cfg,
		Engine:   eng,
		Audit:    rec,
		Objects:  objects,
		Renderer: renderer,
	})

	go func() {
		<-ctx.Done()
		log.Println("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("[WARN] shutdown: %v", err)
		}
	}()

	log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
	return app.Listen(":" + cfg.HTTPPort)
}
