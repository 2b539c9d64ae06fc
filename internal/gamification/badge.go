package gamification

import (
	"time"

	"everytask/internal/model"
)

// BadgeCode names a catalog badge.
type BadgeCode string

const (
	IceBreaker         BadgeCode = "ice-breaker"
	BusyBee            BadgeCode = "busy-bee"
	OverAchiever       BadgeCode = "over-achiever"
	Workaholic         BadgeCode = "workaholic"
	EarlyBird          BadgeCode = "early-bird"
	NightOwl           BadgeCode = "night-owl"
	WeekendWarrior     BadgeCode = "weekend-warrior"
	SmallWinsMatter    BadgeCode = "small-wins-matter"
	Tasks100           BadgeCode = "100-tasks"
	Tasks500           BadgeCode = "500-tasks"
	Tasks1000          BadgeCode = "1000-tasks"
	Tasks5000          BadgeCode = "5000-tasks"
	Tasks10000         BadgeCode = "10000-tasks"
	EpicAchiever       BadgeCode = "epic-achiever"
	Overcomer          BadgeCode = "overcomer"
	EarlyCompletion    BadgeCode = "early-completion"
	StreakStarter      BadgeCode = "streak-starter"
	PersistencePaysOff BadgeCode = "persistence-pays-off"
	StreakSuperstar    BadgeCode = "streak-superstar"
	LevelUpLegend      BadgeCode = "level-up-legend"
	OrganizedMaster    BadgeCode = "organized-master"
	PlanningPro        BadgeCode = "planning-pro"
	Completionist      BadgeCode = "completionist"
)

// Trigger is the event family a badge is checked on.
type Trigger int

const (
	TriggerCompletion Trigger = iota + 1
	TriggerStreak
	TriggerLevelUp
	TriggerCategorization
	TriggerCreation
	// TriggerAny rules run after every evaluation, once the other awards are known.
	TriggerAny
)

func (t Trigger) String() string {
	switch t {
	case TriggerCompletion:
		return "completion"
	case TriggerStreak:
		return "streak"
	case TriggerLevelUp:
		return "level-up"
	case TriggerCategorization:
		return "categorization"
	case TriggerCreation:
		return "creation"
	case TriggerAny:
		return "any"
	}
	return "unknown"
}

// BadgeContext is the state a badge rule may inspect.
type BadgeContext struct {
	Counter    model.TaskCounter
	Task       model.Task
	Streak     model.Streak
	User       model.User
	Held       map[BadgeCode]bool
	OccurredAt time.Time
}

// BadgeDefinition binds a code to its catalog entry and eligibility rule.
type BadgeDefinition struct {
	Code        BadgeCode
	Name        string
	Description string
	Icon        string
	Trigger     Trigger
	Rule        func(BadgeContext) bool
}

func completedAtLeast(n int) func(BadgeContext) bool {
	return func(c BadgeContext) bool { return c.Counter.Completed >= n }
}

func completedTodayAtLeast(n int) func(BadgeContext) bool {
	return func(c BadgeContext) bool { return c.Counter.CompletedToday >= n }
}

func streakAtLeast(n int) func(BadgeContext) bool {
	return func(c BadgeContext) bool { return c.Streak.Current >= n }
}

// Catalog is the fixed list of badges, in display order.
var Catalog = []BadgeDefinition{
	{IceBreaker, "Ice Breaker", "Complete your first task", "🧊", TriggerCompletion, completedAtLeast(1)},
	{BusyBee, "Busy Bee", "Complete 5 tasks in one day", "🐝", TriggerCompletion, completedTodayAtLeast(5)},
	{OverAchiever, "Over Achiever", "Complete 10 tasks in one day", "🚀", TriggerCompletion, completedTodayAtLeast(10)},
	{Workaholic, "Workaholic", "Complete 20 tasks in one day", "💼", TriggerCompletion, completedTodayAtLeast(20)},
	{EarlyBird, "Early Bird", "Complete 5 tasks before noon in one day", "🐦", TriggerCompletion,
		func(c BadgeContext) bool { return c.Counter.CompletedBeforeNoon >= 5 }},
	{NightOwl, "Night Owl", "Finish 2 tasks after 10pm in one night", "🦉", TriggerCompletion,
		func(c BadgeContext) bool { return c.Counter.CompletedAfterTenPm >= 2 }},
	{WeekendWarrior, "Weekend Warrior", "Conquer 5 tasks over the weekend", "⚔️", TriggerCompletion,
		func(c BadgeContext) bool { return c.Counter.CompletedOnWeekend >= 5 }},
	{SmallWinsMatter, "Small Wins Matter", "Complete 5 tiny tasks", "🌱", TriggerCompletion,
		func(c BadgeContext) bool { return c.Counter.TinyCompleted >= 5 }},
	{Tasks100, "100 Tasks", "Complete 100 tasks", "💯", TriggerCompletion, completedAtLeast(100)},
	{Tasks500, "500 Tasks", "Complete 500 tasks", "🏅", TriggerCompletion, completedAtLeast(500)},
	{Tasks1000, "1000 Tasks", "Complete 1000 tasks", "🥇", TriggerCompletion, completedAtLeast(1000)},
	{Tasks5000, "5000 Tasks", "Complete 5000 tasks", "🏆", TriggerCompletion, completedAtLeast(5000)},
	{Tasks10000, "10000 Tasks", "Complete 10000 tasks", "👑", TriggerCompletion, completedAtLeast(10000)},
	{EpicAchiever, "Epic Achiever", "Finish a high impact, high effort task", "🐉", TriggerCompletion,
		func(c BadgeContext) bool { return c.Task.Impact == model.ImpactHighHigh }},
	{Overcomer, "Overcomer", "Finish a task you put off for a week", "🧗", TriggerCompletion,
		func(c BadgeContext) bool {
			return !c.Task.CreatedAt.IsZero() && c.OccurredAt.Sub(c.Task.CreatedAt) >= 7*24*time.Hour
		}},
	{EarlyCompletion, "Early Completion", "Finish a major task at least 3 days ahead of schedule", "⏱️", TriggerCompletion,
		func(c BadgeContext) bool {
			return c.Task.Impact.HighImpact() && !c.Task.DueDate.IsZero() &&
				c.Task.DueDate.Sub(c.OccurredAt) >= 3*24*time.Hour
		}},
	{StreakStarter, "Streak Starter", "Begin a 3-day completion streak", "🔥", TriggerStreak, streakAtLeast(3)},
	{PersistencePaysOff, "Persistence Pays Off", "Maintain a 7-day completion streak", "📅", TriggerStreak, streakAtLeast(7)},
	{StreakSuperstar, "Streak Superstar", "Maintain a 30-day completion streak", "🌟", TriggerStreak, streakAtLeast(30)},
	{LevelUpLegend, "Level Up Legend", "Reach the highest level", "🧙", TriggerLevelUp,
		func(c BadgeContext) bool { return c.User.Level >= MaxLevel().ID }},
	{OrganizedMaster, "Organized Master", "Categorize 10 tasks", "🗂️", TriggerCategorization,
		func(c BadgeContext) bool { return c.Counter.Categorized >= 10 }},
	{PlanningPro, "Planning Pro", "Schedule a task a week or more ahead", "🗓️", TriggerCreation,
		func(c BadgeContext) bool {
			created := c.Task.CreatedAt
			if created.IsZero() {
				created = c.OccurredAt
			}
			return !c.Task.DueDate.IsZero() && c.Task.DueDate.Sub(created) >= 7*24*time.Hour
		}},
	{Completionist, "Completionist", "Earn every other badge", "🎖️", TriggerAny, nil},
}

// LookupBadge finds a catalog entry by code.
func LookupBadge(code BadgeCode) (BadgeDefinition, bool) {
	for _, def := range Catalog {
		if def.Code == code {
			return def, true
		}
	}
	return BadgeDefinition{}, false
}

// EvaluateBadges returns the codes that become eligible for the given triggers
// and that the user does not hold yet. Completionist is checked last against the
// held set plus this evaluation's awards.
func EvaluateBadges(ctx BadgeContext, triggers ...Trigger) []BadgeCode {
	wanted := make(map[Trigger]bool, len(triggers))
	for _, t := range triggers {
		wanted[t] = true
	}

	var awarded []BadgeCode
	earned := make(map[BadgeCode]bool, len(ctx.Held))
	for code, ok := range ctx.Held {
		if ok {
			earned[code] = true
		}
	}

	for _, def := range Catalog {
		if def.Rule == nil || !wanted[def.Trigger] || earned[def.Code] {
			continue
		}
		if def.Rule(ctx) {
			awarded = append(awarded, def.Code)
			earned[def.Code] = true
		}
	}

	if !earned[Completionist] && holdsAllOthers(earned) {
		awarded = append(awarded, Completionist)
	}
	return awarded
}

func holdsAllOthers(earned map[BadgeCode]bool) bool {
	for _, def := range Catalog {
		if def.Code == Completionist {
			continue
		}
		if !earned[def.Code] {
			return false
		}
	}
	return true
}
