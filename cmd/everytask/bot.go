package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"everytask/internal/bot"
	"everytask/internal/config"
	"everytask/internal/service"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot and the report scheduler",
	RunE:  runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	telegramBot, err := bot.New(cfg.TelegramToken, bot.Services{
		Users:      a.users,
		Tasks:      a.tasks,
		Categories: a.categories,
		Stats:      a.stats,
		Reminders:  a.reminders,
	}, cfg.Location)
	if err != nil {
		return fmt.Errorf("bot: %w", err)
	}

	scheduler := service.NewSchedulerService(cfg.Location, 30*time.Second)
	if cfg.ReportInterval > 0 {
		if _, err := scheduler.ScheduleInterval("report", cfg.ReportInterval, telegramBot.SendDailyReports); err != nil {
			return fmt.Errorf("schedule reports: %w", err)
		}
	}
	if cfg.ReportDailyAt != "" {
		if _, err := scheduler.ScheduleDaily("daily report", cfg.ReportDailyAt, telegramBot.SendDailyReports); err != nil {
			return fmt.Errorf("schedule daily report: %w", err)
		}
	}
	if scheduler.HasJobs() {
		scheduler.Start()
		defer scheduler.Stop()
	}

	log.Println("[info] everytask bot started")
	if err := telegramBot.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot stopped: %w", err)
	}
	log.Println("[info] shutdown complete")
	return nil
}
