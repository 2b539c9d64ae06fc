package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"everytask/internal/config"
	"everytask/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the schema and seed the badge catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		log.Printf("[info] %s schema is up to date", cfg.DatabaseDriver)
		return nil
	},
}
