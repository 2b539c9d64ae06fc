package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"everytask/internal/gamification"
	"everytask/internal/model"
	"everytask/internal/repository"
)

// ReminderService builds human-readable digests for scheduled notifications.
type ReminderService struct {
	store *repository.Store
}

func NewReminderService(store *repository.Store) *ReminderService {
	return &ReminderService{store: store}
}

var statusTitles = map[model.TaskStatus]string{
	model.StatusTodo:       "📝 <b>К выполнению</b>",
	model.StatusInProgress: "🚧 <b>В работе</b>",
	model.StatusDone:       "✅ <b>Готово</b>",
}

func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	tasks, err := s.store.Tasks.ListByUser(ctx, user.ID, nil)
	if err != nil {
		return "", err
	}
	categories, err := s.store.Categories.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}
	catNames := make(map[uint]string, len(categories))
	for _, c := range categories {
		catNames[c.ID] = strings.TrimSpace(c.Name)
	}
	today, err := s.store.DailyStats.Find(ctx, user.ID, gamification.DateKey(now))
	if err != nil {
		return "", err
	}
	streak, err := s.store.Streaks.Find(ctx, user.ID)
	if err != nil {
		return "", err
	}
	badges, err := s.store.Badges.ListByUser(ctx, user.ID)
	if err != nil {
		return "", err
	}

	columns := map[model.TaskStatus][]model.Task{}
	for _, task := range tasks {
		columns[task.Status] = append(columns[task.Status], task)
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Ежедневный отчёт</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	for _, status := range []model.TaskStatus{model.StatusInProgress, model.StatusTodo} {
		builder.WriteString(statusTitles[status] + "\n")
		if len(columns[status]) == 0 {
			builder.WriteString("— пусто\n\n")
			continue
		}
		for _, task := range columns[status] {
			builder.WriteString(digestLine(task, catNames[categoryKey(task)], now))
		}
		builder.WriteByte('\n')
	}

	builder.WriteString("📊 <b>Сегодня</b>\n")
	builder.WriteString(fmt.Sprintf("• создано: %d · в работу: %d · выполнено: %d\n\n", today.Created, today.InProgress, today.Completed))

	level := gamification.LevelByID(user.Level)
	builder.WriteString("🏆 <b>Прогресс</b>\n")
	builder.WriteString(fmt.Sprintf("• уровень %d «%s», %d очк.\n", level.ID, html.EscapeString(level.Name), user.Points))
	if gap := gamification.PointsToNextLevel(user.Points); gap > 0 {
		builder.WriteString(fmt.Sprintf("• до следующего уровня: %d очк.\n", gap))
	}
	current := streak.Current
	if !gamification.StreakAlive(*streak, now) {
		current = 0
	}
	builder.WriteString(fmt.Sprintf("• серия: %d дн. (рекорд %d)\n", current, streak.Longest))
	builder.WriteString(fmt.Sprintf("• значков: %d из %d\n", len(badges), len(gamification.Catalog)))

	return strings.TrimSpace(builder.String()), nil
}

func categoryKey(task model.Task) uint {
	if task.CategoryID == nil {
		return 0
	}
	return *task.CategoryID
}

// digestLine renders one open task: due marker, title, reward and deadline.
func digestLine(task model.Task, category string, now time.Time) string {
	marker, deadline := "▫️", ""
	if !task.DueDate.IsZero() {
		due := task.DueDate.In(now.Location())
		left := due.Sub(now)
		switch {
		case left < 0:
			marker = "⚠️"
			deadline = fmt.Sprintf("срок %s, <b>просрочено</b>", due.Format("02.01"))
		case left <= 48*time.Hour:
			marker = "⏳"
			deadline = fmt.Sprintf("срок %s, осталось %d ч.", due.Format("02.01"), int(left.Hours()))
		default:
			deadline = fmt.Sprintf("срок %s", due.Format("02.01"))
		}
	}

	parts := []string{marker}
	if task.Emoji != "" {
		parts = append(parts, task.Emoji)
	}
	parts = append(parts, html.EscapeString(strings.TrimSpace(task.Title)))
	if category != "" {
		parts = append(parts, "#"+html.EscapeString(category))
	}
	line := strings.Join(parts, " ") + fmt.Sprintf(" <i>+%d</i>", gamification.PointsFor(task.Impact))
	if deadline != "" {
		line += "\n   " + deadline
	}
	return line + "\n"
}
