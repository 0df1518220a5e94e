// Operational CLI for the analytics backend: run counter reconciliation on
// demand and check backing-service health without touching the HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/andreajoa/linktree/backend/internal/analytics"
	"github.com/andreajoa/linktree/backend/internal/cache"
	"github.com/andreajoa/linktree/backend/internal/config"
	"github.com/andreajoa/linktree/backend/internal/database"
	"github.com/andreajoa/linktree/backend/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "linktree-admin",
	Short: "Operational commands for the linktree analytics backend",
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute denormalized click and view counters from raw events",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
			return err
		}
		defer logger.Close()

		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close(db)

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()
		analytics.NewReconciler(db).Run(ctx)
		fmt.Println("Reconciliation complete")
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check database and Redis connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer database.Close(db)
		if err := database.Health(db); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		fmt.Println("database: ok")

		if !cfg.RedisConfigured() {
			fmt.Println("redis: not configured")
			return nil
		}
		c, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer c.Close()
		fmt.Println("redis: ok")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
