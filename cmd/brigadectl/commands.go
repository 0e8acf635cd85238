package main

import (
	"fmt"
	"log"

	"brigade-service/config"
	"brigade-service/internal/repository"
	"brigade-service/internal/services"
	"brigade-service/internal/storage"
	"brigade-service/pkg/database"
	"brigade-service/pkg/logger"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create extensions, enums, tables and constraints",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := database.Connect(config.LoadConfig())
			defer database.Close()

			log.Println("🚀 Running migrations...")
			if err := repository.InitSchema(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			log.Println("✅ Migrations completed successfully!")
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database connection and table status",
		RunE: func(cmd *cobra.Command, args []string) error {
			database.Connect(config.LoadConfig())
			defer database.Close()

			if err := database.Ping(); err != nil {
				return fmt.Errorf("database connection failed: %w", err)
			}
			log.Println("✅ Database connection: OK")

			for _, table := range repository.TableNames() {
				exists, err := database.TableExists(table)
				if err != nil {
					log.Printf("⚠️  Error checking table %s: %v", table, err)
					continue
				}
				if !exists {
					log.Printf("❌ Table %-12s does not exist", table)
					continue
				}
				count, _ := database.GetTableCount(table)
				log.Printf("✅ Table %-12s exists (%d rows)", table, count)
			}
			return nil
		},
	}
}

func seedAdminCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the admin account or promote an existing user",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := database.Connect(config.LoadConfig())
			defer database.Close()

			admin, err := database.SeedAdmin(cmd.Context(), db, username, password)
			if err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			log.Printf("✅ Admin user ready: %s (ID: %d)", admin.Username, admin.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "admin", "Admin username")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func seedDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-demo",
		Short: "Insert demo donations, posts and vacancies",
		RunE: func(cmd *cobra.Command, args []string) error {
			db := database.Connect(config.LoadConfig())
			defer database.Close()

			if err := database.SeedDemo(cmd.Context(), db); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			log.Println("✅ Demo data seeded!")
			return nil
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove stale pending images and orphaned objects",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			l := logger.New(cfg.LogMode)
			defer func() { _ = l.Sync() }()

			db := database.Connect(cfg)
			defer database.Close()

			store, err := storage.NewClient(cmd.Context(), storage.S3ConfigFrom(cfg))
			if err != nil {
				return fmt.Errorf("s3 client: %w", err)
			}

			images := repository.NewImageRepository(db)
			attachments := services.NewAttachmentService(images, store, l, cfg.UploadConcurrent, store.PresignTTL())
			sweeper := services.NewSweeperService(images, store, attachments, cfg.SweepPendingTTL, cfg.SweepOrphanGrace, l)

			report, err := sweeper.Sweep(cmd.Context())
			if err != nil {
				return fmt.Errorf("sweep failed: %w", err)
			}
			log.Printf("✅ Sweep done: %d pending removed, %d orphans removed, %d failed",
				report.PendingRemoved, report.OrphansRemoved, len(report.Failed))
			return nil
		},
	}
}
