package bot

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	"everytask/internal/gamification"
	"everytask/internal/model"
	"everytask/internal/service"
)

const (
	noCategory  = "Без категории"
	iconDefault = "🟢"
	iconDue     = "⏳"
	iconOverdue = "⚠️"
)

func escape(s string) string {
	return html.EscapeString(s)
}

func statusName(status model.TaskStatus) string {
	switch status {
	case model.StatusInProgress:
		return "В работе"
	case model.StatusDone:
		return "Готово"
	default:
		return "К выполнению"
	}
}

func statusTitle(status model.TaskStatus) string {
	switch status {
	case model.StatusInProgress:
		return "🚧 <b>" + statusName(status) + "</b>"
	case model.StatusDone:
		return "✅ <b>" + statusName(status) + "</b>"
	default:
		return "📝 <b>" + statusName(status) + "</b>"
	}
}

func impactLabel(impact model.TaskImpact) string {
	for _, btn := range impactButtons {
		if btn.impact == impact {
			return btn.label
		}
	}
	return string(impact)
}

// parseDeadline reads a YYYY-MM-DD date as the end of that day in loc.
func parseDeadline(text string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(text), loc)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(24*time.Hour - time.Second), nil
}

func formatTask(task model.Task, catNames map[uint]string, now time.Time) string {
	var b strings.Builder
	due := task.DueDate.In(now.Location())
	icon := iconDefault
	switch {
	case now.After(due):
		icon = iconOverdue
	case due.Sub(now) <= 48*time.Hour:
		icon = iconDue
	}

	title := escape(normalizeTitle(task.Title))
	if task.Emoji != "" {
		title = task.Emoji + " " + title
	}
	b.WriteString(fmt.Sprintf("%s <b>#%d</b> %s\n", icon, task.ID, title))

	meta := []string{impactLabel(task.Impact)}
	if task.CategoryID != nil {
		if name := strings.TrimSpace(catNames[*task.CategoryID]); name != "" {
			meta = append(meta, categoryLabel(name))
		}
	}
	b.WriteString("   " + strings.Join(meta, " · ") + "\n")

	if now.After(due) {
		b.WriteString(fmt.Sprintf("   ⏰ Дедлайн: %s — <b>просрочено</b>\n", due.Format("2006-01-02")))
	} else {
		daysLeft := int(due.Sub(now).Hours() / 24)
		b.WriteString(fmt.Sprintf("   ⏰ Дедлайн: %s · осталось ≈%d дн.\n", due.Format("2006-01-02"), daysLeft))
	}
	if task.Description != "" {
		b.WriteString(fmt.Sprintf("   📝 %s\n", escape(task.Description)))
	}
	return b.String()
}

// formatOutcome lists what a task event earned. It is empty when nothing was earned.
func formatOutcome(outcome service.Outcome) string {
	var b strings.Builder
	if outcome.PointsAwarded > 0 {
		b.WriteString(fmt.Sprintf("\n⭐ +%d очк.", outcome.PointsAwarded))
	}
	if outcome.Streak != nil && outcome.Streak.Current > 0 {
		b.WriteString(fmt.Sprintf("\n🔥 Серия: %d дн.", outcome.Streak.Current))
	}
	if outcome.LevelUp != nil {
		b.WriteString(fmt.Sprintf("\n🆙 Новый уровень %d: «%s»!", outcome.LevelUp.ID, escape(outcome.LevelUp.Name)))
	}
	for _, badge := range outcome.Badges {
		b.WriteString(fmt.Sprintf("\n🎖 Новый значок: %s <b>%s</b>", badge.Badge.Icon, escape(badge.Badge.Name)))
	}
	return b.String()
}

func formatProfile(p service.Profile) string {
	var b strings.Builder
	b.WriteString("🏆 <b>Профиль</b>\n")
	if p.Name != "" {
		b.WriteString(fmt.Sprintf("• %s\n", escape(p.Name)))
	}
	b.WriteString(fmt.Sprintf("• Уровень %d «%s»\n", p.Level.ID, escape(p.Level.Name)))
	b.WriteString(fmt.Sprintf("• Очки: %d\n", p.Points))
	if p.Level.PointsToNextLevel > 0 {
		b.WriteString(fmt.Sprintf("• До следующего уровня: %d очк.", p.Level.PointsToNextLevel))
	} else {
		b.WriteString("• Максимальный уровень достигнут!")
	}
	return b.String()
}

func formatStreak(view service.StreakView) string {
	if view.Current == 0 {
		text := "🔥 Серии сейчас нет. Закрой задачу сегодня, чтобы начать новую."
		if view.Longest > 0 {
			text += fmt.Sprintf("\nРекорд: %d дн.", view.Longest)
		}
		return text
	}
	text := fmt.Sprintf("🔥 Серия: <b>%d дн.</b> подряд\nРекорд: %d дн.", view.Current, view.Longest)
	if view.StartedOn != "" {
		text += fmt.Sprintf("\nНачало серии: %s", view.StartedOn)
	}
	return text
}

func formatBadges(badges []model.UserBadge) string {
	if len(badges) == 0 {
		return fmt.Sprintf("🎖 Значков пока нет. Всего их %d, первый дадут за выполненную задачу.", len(gamification.Catalog))
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🎖 <b>Значки</b> (%d из %d)\n", len(badges), len(gamification.Catalog)))
	for _, badge := range badges {
		b.WriteString(fmt.Sprintf("%s <b>%s</b> — %s\n", badge.Badge.Icon, escape(badge.Badge.Name), escape(badge.Badge.Description)))
	}
	return strings.TrimSpace(b.String())
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func categoryLabel(name string) string {
	base := strings.TrimSpace(name)
	var icon string
	switch strings.ToLower(base) {
	case "учеба":
		icon = "🎓"
	case "работа":
		icon = "💼"
	case "покупки":
		icon = "🛒"
	case "здоровье":
		icon = "🩺"
	case "личное":
		icon = "🧩"
	case strings.ToLower(noCategory):
		icon = "📁"
	default:
		icon = "🏷️"
	}
	return fmt.Sprintf("%s %s", icon, escape(normalizeTitle(base)))
}
