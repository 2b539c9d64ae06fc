package main

import (
	"fmt"

	"gorm.io/gorm"

	"everytask/internal/auth"
	"everytask/internal/config"
	"everytask/internal/repository"
	"everytask/internal/service"
)

// app holds the wired services shared by the commands.
type app struct {
	cfg        config.Config
	db         *gorm.DB
	users      *service.UserService
	tasks      *service.TaskService
	categories *service.CategoryService
	checklist  *service.ChecklistService
	stats      *service.StatsService
	reminders  *service.ReminderService
	auth       *auth.Manager
}

func newApp(cfg config.Config) (*app, error) {
	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	store := repository.NewStore(db)
	gamify := service.NewGamificationService(store)
	authManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	return &app{
		cfg:        cfg,
		db:         db,
		users:      service.NewUserService(store, authManager),
		tasks:      service.NewTaskService(store, gamify, cfg.Location),
		categories: service.NewCategoryService(store),
		checklist:  service.NewChecklistService(store),
		stats:      service.NewStatsService(store, cfg.Location),
		reminders:  service.NewReminderService(store),
		auth:       authManager,
	}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
