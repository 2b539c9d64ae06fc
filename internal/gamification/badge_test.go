package gamification

import (
	"testing"
	"time"

	"everytask/internal/model"
)

func contains(codes []BadgeCode, code BadgeCode) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

func TestCatalogCodesAreUnique(t *testing.T) {
	seen := map[BadgeCode]bool{}
	for _, def := range Catalog {
		if seen[def.Code] {
			t.Fatalf("duplicate code %s", def.Code)
		}
		seen[def.Code] = true
		if def.Name == "" {
			t.Fatalf("%s has no name", def.Code)
		}
		if def.Rule == nil && def.Code != Completionist {
			t.Fatalf("%s has no rule", def.Code)
		}
	}
}

func TestEvaluateFirstCompletion(t *testing.T) {
	ctx := BadgeContext{
		Counter:    model.TaskCounter{Completed: 1, CompletedToday: 1, TinyCompleted: 1},
		Task:       model.Task{Impact: model.ImpactLowLow},
		OccurredAt: at("2024-03-04 15:00"),
	}
	got := EvaluateBadges(ctx, TriggerCompletion)
	if !contains(got, IceBreaker) {
		t.Fatalf("ice-breaker missing from %v", got)
	}
	if contains(got, SmallWinsMatter) {
		t.Fatalf("small-wins-matter awarded after one tiny task")
	}
}

func TestEvaluateSkipsHeldBadges(t *testing.T) {
	ctx := BadgeContext{
		Counter: model.TaskCounter{Completed: 5, TinyCompleted: 5},
		Held:    map[BadgeCode]bool{IceBreaker: true, SmallWinsMatter: true},
	}
	if got := EvaluateBadges(ctx, TriggerCompletion); len(got) != 0 {
		t.Fatalf("re-awarded %v", got)
	}
}

func TestEvaluateOnlyRequestedTriggers(t *testing.T) {
	ctx := BadgeContext{
		Counter: model.TaskCounter{Completed: 1, Categorized: 10},
		Streak:  model.Streak{Current: 7},
	}
	got := EvaluateBadges(ctx, TriggerStreak)
	if len(got) != 2 || !contains(got, StreakStarter) || !contains(got, PersistencePaysOff) {
		t.Fatalf("streak trigger returned %v", got)
	}
	got = EvaluateBadges(ctx, TriggerCategorization)
	if len(got) != 1 || got[0] != OrganizedMaster {
		t.Fatalf("categorization trigger returned %v", got)
	}
}

func TestEvaluateTaskRules(t *testing.T) {
	done := at("2024-03-10 12:00")
	ctx := BadgeContext{
		Counter:    model.TaskCounter{Completed: 2},
		Held:       map[BadgeCode]bool{IceBreaker: true},
		OccurredAt: done,
		Task: model.Task{
			Impact:    model.ImpactHighHigh,
			CreatedAt: done.Add(-8 * 24 * time.Hour),
			DueDate:   done.Add(4 * 24 * time.Hour),
		},
	}
	got := EvaluateBadges(ctx, TriggerCompletion)
	for _, want := range []BadgeCode{EpicAchiever, Overcomer, EarlyCompletion} {
		if !contains(got, want) {
			t.Errorf("%s missing from %v", want, got)
		}
	}

	ctx.Task.Impact = model.ImpactLowHigh
	if contains(EvaluateBadges(ctx, TriggerCompletion), EarlyCompletion) {
		t.Error("early-completion awarded for low impact task")
	}
}

func TestEvaluatePlanningPro(t *testing.T) {
	now := at("2024-03-04 09:00")
	ctx := BadgeContext{OccurredAt: now, Task: model.Task{CreatedAt: now, DueDate: now.AddDate(0, 0, 7)}}
	if got := EvaluateBadges(ctx, TriggerCreation); len(got) != 1 || got[0] != PlanningPro {
		t.Fatalf("got %v", got)
	}
	ctx.Task.DueDate = now.AddDate(0, 0, 2)
	if got := EvaluateBadges(ctx, TriggerCreation); len(got) != 0 {
		t.Fatalf("got %v for a near due date", got)
	}
}

func TestEvaluateLevelUpLegend(t *testing.T) {
	ctx := BadgeContext{User: model.User{Level: MaxLevel().ID}}
	if got := EvaluateBadges(ctx, TriggerLevelUp); len(got) != 1 || got[0] != LevelUpLegend {
		t.Fatalf("got %v", got)
	}
	ctx.User.Level = MaxLevel().ID - 1
	if got := EvaluateBadges(ctx, TriggerLevelUp); len(got) != 0 {
		t.Fatalf("got %v below max level", got)
	}
}

func TestEvaluateCompletionistAfterLastBadge(t *testing.T) {
	held := map[BadgeCode]bool{}
	for _, def := range Catalog {
		if def.Code != Completionist && def.Code != StreakSuperstar {
			held[def.Code] = true
		}
	}
	ctx := BadgeContext{Streak: model.Streak{Current: 30}, Held: held}
	got := EvaluateBadges(ctx, TriggerStreak)
	if len(got) != 2 || got[0] != StreakSuperstar || got[1] != Completionist {
		t.Fatalf("got %v", got)
	}

	held[StreakSuperstar] = true
	held[Completionist] = true
	if got := EvaluateBadges(ctx, TriggerStreak); len(got) != 0 {
		t.Fatalf("re-awarded %v", got)
	}
}
