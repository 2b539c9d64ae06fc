package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"everytask/internal/auth"
	"everytask/internal/model"
	"everytask/internal/repository"
)

type testEnv struct {
	db     *gorm.DB
	store  *repository.Store
	gamify *GamificationService
	users  *UserService
	user   *model.User
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB(repository.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := repository.NewStore(db)
	env := &testEnv{
		db:     db,
		store:  store,
		gamify: NewGamificationService(store),
		users:  NewUserService(store, auth.NewManager("test-secret", time.Hour)),
	}
	user, _, err := env.users.Register(context.Background(), "player@example.com", "Player", "Secr3tPass")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	env.user = user
	return env
}

// day returns a fixed Monday-based timestamp: day(0, 15) is 2024-03-04 15:00 UTC.
func day(offset, hour int) time.Time {
	return time.Date(2024, 3, 4+offset, hour, 0, 0, 0, time.UTC)
}

func (e *testEnv) create(t *testing.T, impact model.TaskImpact, at time.Time) *model.Task {
	t.Helper()
	task, _, err := e.gamify.CreateTask(context.Background(), e.user.ID, TaskInput{
		Title:   "task",
		Impact:  impact,
		DueDate: at.Add(48 * time.Hour),
	}, at)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func (e *testEnv) move(t *testing.T, task *model.Task, status model.TaskStatus, at time.Time) (*model.Task, Outcome) {
	t.Helper()
	updated, outcome, err := e.gamify.UpdateTask(context.Background(), e.user.ID, task.ID, TaskPatch{Status: &status}, at)
	if err != nil {
		t.Fatalf("move task %d to %s: %v", task.ID, status, err)
	}
	return updated, outcome
}

func (e *testEnv) counter(t *testing.T) model.TaskCounter {
	t.Helper()
	c, err := e.store.Counters.GetOrCreate(context.Background(), e.user.ID)
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	return *c
}

func hasBadge(badges []model.UserBadge, code string) bool {
	for _, b := range badges {
		if b.BadgeCode == code {
			return true
		}
	}
	return false
}

func TestFirstTinyCompletion(t *testing.T) {
	env := setupEnv(t)
	task := env.create(t, model.ImpactLowLow, day(0, 9))

	_, outcome := env.move(t, task, model.StatusDone, day(0, 15))

	c := env.counter(t)
	if c.Completed != 1 || c.CompletedToday != 1 {
		t.Fatalf("counter = %+v", c)
	}
	if outcome.Streak == nil || outcome.Streak.Current != 1 || outcome.Streak.Longest != 1 {
		t.Fatalf("streak = %+v", outcome.Streak)
	}
	if outcome.PointsAwarded != 10 {
		t.Fatalf("points awarded = %d", outcome.PointsAwarded)
	}
	if !hasBadge(outcome.Badges, "ice-breaker") {
		t.Fatalf("ice-breaker missing: %+v", outcome.Badges)
	}
	if hasBadge(outcome.Badges, "small-wins-matter") {
		t.Fatal("small-wins-matter awarded after one tiny task")
	}
	user, _ := env.store.Users.FindByID(context.Background(), env.user.ID)
	if user.Points != 10 || user.Level != 1 {
		t.Fatalf("user points=%d level=%d", user.Points, user.Level)
	}
}

func TestFifthTinyTaskAwardsSmallWinsOnce(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	var awardedOn []int
	for i := 0; i < 7; i++ {
		at := day(i, 15)
		task := env.create(t, model.ImpactLowLow, at)
		_, outcome := env.move(t, task, model.StatusDone, at)
		if hasBadge(outcome.Badges, "small-wins-matter") {
			awardedOn = append(awardedOn, i+1)
		}
	}
	if len(awardedOn) != 1 || awardedOn[0] != 5 {
		t.Fatalf("small-wins-matter awarded on completions %v, want [5]", awardedOn)
	}

	badges, err := env.store.Badges.ListByUser(ctx, env.user.ID)
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, b := range badges {
		if b.BadgeCode == "small-wins-matter" {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("user holds small-wins-matter %d times", n)
	}
}

func TestStreakResetsAfterGap(t *testing.T) {
	env := setupEnv(t)
	for _, offset := range []int{0, 1} {
		task := env.create(t, model.ImpactHighLow, day(offset, 10))
		env.move(t, task, model.StatusDone, day(offset, 11))
	}
	task := env.create(t, model.ImpactHighLow, day(3, 10))
	_, outcome := env.move(t, task, model.StatusDone, day(3, 11))

	if outcome.Streak.Current != 1 || outcome.Streak.Longest != 2 {
		t.Fatalf("streak = %+v, want current 1 longest 2", outcome.Streak)
	}
}

func TestSameDayCompletionsDoNotExtendStreak(t *testing.T) {
	env := setupEnv(t)
	var last Outcome
	for hour := 9; hour < 12; hour++ {
		task := env.create(t, model.ImpactLowHigh, day(0, 8))
		_, last = env.move(t, task, model.StatusDone, day(0, hour))
	}
	if last.Streak.Current != 1 {
		t.Fatalf("streak current = %d", last.Streak.Current)
	}
	if c := env.counter(t); c.CompletedToday != 3 || c.CompletedBeforeNoon != 3 {
		t.Fatalf("counter = %+v", c)
	}
}

func TestFirstCompletedAtIsSetOnce(t *testing.T) {
	env := setupEnv(t)
	task := env.create(t, model.ImpactLowLow, day(0, 8))

	done, _ := env.move(t, task, model.StatusDone, day(0, 9))
	first := *done.FirstCompletedAt

	env.move(t, task, model.StatusTodo, day(0, 10))
	again, outcome := env.move(t, task, model.StatusDone, day(1, 9))

	if !again.FirstCompletedAt.Equal(first) {
		t.Fatalf("FirstCompletedAt moved from %v to %v", first, *again.FirstCompletedAt)
	}
	if outcome.PointsAwarded != 10 {
		t.Fatalf("re-completion awarded %d points", outcome.PointsAwarded)
	}

	history, err := env.store.History.ListByTask(context.Background(), task.ID)
	if err != nil {
		t.Fatal(err)
	}
	var statuses []string
	for _, h := range history {
		statuses = append(statuses, string(h.Status))
	}
	if got := strings.Join(statuses, ","); got != "TODO,DONE,TODO,DONE" {
		t.Fatalf("history = %s", got)
	}
}

func TestConcurrentCompletionsKeepEveryIncrement(t *testing.T) {
	env := setupEnv(t)
	const n = 8
	tasks := make([]*model.Task, n)
	for i := range tasks {
		tasks[i] = env.create(t, model.ImpactLowLow, day(0, 8))
	}

	errs := make(chan error, n)
	status := model.StatusDone
	for i := range tasks {
		go func(task *model.Task) {
			_, _, err := env.gamify.UpdateTask(context.Background(), env.user.ID, task.ID, TaskPatch{Status: &status}, day(0, 14))
			errs <- err
		}(tasks[i])
	}
	for i := 0; i < n; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	c := env.counter(t)
	if c.CompletedToday != n || c.Completed != n || c.TinyCompleted != n {
		t.Fatalf("counter = %+v, want %d completions", c, n)
	}
	stat, err := env.store.DailyStats.Find(context.Background(), env.user.ID, "2024-03-04")
	if err != nil {
		t.Fatal(err)
	}
	if stat.Completed != n || stat.Created != n {
		t.Fatalf("daily stat = %+v", stat)
	}
	user, _ := env.store.Users.FindByID(context.Background(), env.user.ID)
	if user.Points != n*10 {
		t.Fatalf("points = %d", user.Points)
	}
}

func TestUnchangedStatusIsNoOp(t *testing.T) {
	env := setupEnv(t)
	task := env.create(t, model.ImpactLowLow, day(0, 8))
	before := env.counter(t)

	_, outcome := env.move(t, task, model.StatusTodo, day(0, 9))

	if len(outcome.Badges) != 0 || outcome.PointsAwarded != 0 || outcome.Streak != nil {
		t.Fatalf("outcome = %+v", outcome)
	}
	if after := env.counter(t); after != before {
		t.Fatalf("counter changed: %+v -> %+v", before, after)
	}
	history, _ := env.store.History.ListByTask(context.Background(), task.ID)
	if len(history) != 1 {
		t.Fatalf("history has %d entries, want 1", len(history))
	}
}

func TestUpdateMissingTaskIsNotFound(t *testing.T) {
	env := setupEnv(t)
	status := model.StatusDone
	_, _, err := env.gamify.UpdateTask(context.Background(), env.user.ID, 999, TaskPatch{Status: &status}, day(0, 9))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if c := env.counter(t); c.Completed != 0 {
		t.Fatalf("counter = %+v", c)
	}
}

func TestBadgeFailureRollsBackEverything(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	task := env.create(t, model.ImpactLowLow, day(0, 8))

	err := env.db.Callback().Create().Before("gorm:create").Register("test:fail_user_badges", func(db *gorm.DB) {
		if db.Statement.Table == "user_badges" {
			db.AddError(fmt.Errorf("badge store unavailable"))
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	status := model.StatusDone
	title := "renamed"
	_, outcome, err := env.gamify.UpdateTask(ctx, env.user.ID, task.ID, TaskPatch{Status: &status, Title: &title}, day(0, 15))
	if err == nil {
		t.Fatal("expected failure")
	}
	if len(outcome.Badges) != 0 || outcome.PointsAwarded != 0 {
		t.Fatalf("partial outcome returned: %+v", outcome)
	}

	stored, _ := env.store.Tasks.FindByID(ctx, env.user.ID, task.ID)
	if stored.Status != model.StatusTodo || stored.Title != "task" || stored.FirstCompletedAt != nil {
		t.Fatalf("task changed: %+v", stored)
	}
	if c := env.counter(t); c.Completed != 0 {
		t.Fatalf("counter changed: %+v", c)
	}
	user, _ := env.store.Users.FindByID(ctx, env.user.ID)
	if user.Points != 0 {
		t.Fatalf("points = %d", user.Points)
	}
	streak, _ := env.store.Streaks.Find(ctx, env.user.ID)
	if streak.ID != 0 {
		t.Fatalf("streak persisted: %+v", streak)
	}
	history, _ := env.store.History.ListByTask(ctx, task.ID)
	if len(history) != 1 {
		t.Fatalf("history has %d entries", len(history))
	}
	stat, _ := env.store.DailyStats.Find(ctx, env.user.ID, "2024-03-04")
	if stat.Completed != 0 {
		t.Fatalf("daily stat = %+v", stat)
	}
}

func TestDailyStatFollowsTransitions(t *testing.T) {
	env := setupEnv(t)
	task := env.create(t, model.ImpactLowLow, day(0, 8))
	env.move(t, task, model.StatusInProgress, day(0, 9))
	env.move(t, task, model.StatusDone, day(0, 10))

	stat, err := env.store.DailyStats.Find(context.Background(), env.user.ID, "2024-03-04")
	if err != nil {
		t.Fatal(err)
	}
	if stat.Created != 1 || stat.InProgress != 0 || stat.Completed != 1 {
		t.Fatalf("stat = %+v", stat)
	}
}

func TestLevelUpAwardsAndReports(t *testing.T) {
	env := setupEnv(t)
	var outcome Outcome
	for i := 0; i < 2; i++ {
		task := env.create(t, model.ImpactHighHigh, day(0, 8))
		_, outcome = env.move(t, task, model.StatusDone, day(0, 9))
	}
	if outcome.LevelUp == nil || outcome.LevelUp.ID != 2 {
		t.Fatalf("level up = %+v", outcome.LevelUp)
	}
	user, _ := env.store.Users.FindByID(context.Background(), env.user.ID)
	if user.Level != 2 || user.Points != 100 {
		t.Fatalf("user level=%d points=%d", user.Level, user.Points)
	}
}

func TestCategorizationCountsAndAwards(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	var last Outcome
	for i := 0; i < 9; i++ {
		_, last, _ = env.gamify.CreateTask(ctx, env.user.ID, TaskInput{
			Title: "work", Impact: model.ImpactLowLow, DueDate: day(1, 9), Category: "Work",
		}, day(0, 8))
	}
	if hasBadge(last.Badges, "organized-master") {
		t.Fatal("awarded before the tenth categorised task")
	}

	plain := env.create(t, model.ImpactLowLow, day(0, 8))
	name := "Home"
	_, outcome, err := env.gamify.UpdateTask(ctx, env.user.ID, plain.ID, TaskPatch{Category: &name}, day(0, 9))
	if err != nil {
		t.Fatal(err)
	}
	if !hasBadge(outcome.Badges, "organized-master") {
		t.Fatalf("organized-master missing: %+v", outcome.Badges)
	}
	if c := env.counter(t); c.Categorized != 10 || c.Total != 10 {
		t.Fatalf("counter = %+v", c)
	}

	work := "Work"
	if _, _, err := env.gamify.UpdateTask(ctx, env.user.ID, plain.ID, TaskPatch{Category: &work}, day(0, 10)); err != nil {
		t.Fatal(err)
	}
	if c := env.counter(t); c.Categorized != 10 {
		t.Fatalf("switching category changed the count: %+v", c)
	}
}

func TestRecategorizingOneTaskCountsOnce(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	task := env.create(t, model.ImpactLowLow, day(0, 8))

	work := "Work"
	for i := 0; i < 10; i++ {
		_, outcome, err := env.gamify.UpdateTask(ctx, env.user.ID, task.ID, TaskPatch{Category: &work}, day(0, 9))
		if err != nil {
			t.Fatalf("categorize #%d: %v", i, err)
		}
		if hasBadge(outcome.Badges, "organized-master") {
			t.Fatalf("organized-master awarded for a single task on round %d", i)
		}
		if _, _, err := env.gamify.UpdateTask(ctx, env.user.ID, task.ID, TaskPatch{ClearCategory: true}, day(0, 9)); err != nil {
			t.Fatalf("clear category #%d: %v", i, err)
		}
	}

	if c := env.counter(t); c.Categorized != 1 || c.Total != 1 {
		t.Fatalf("counter = %+v, want one categorised task", c)
	}
	held, err := env.store.Badges.HeldCodes(ctx, env.user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if held["organized-master"] {
		t.Fatal("organized-master is held")
	}
	stored, err := env.store.Tasks.FindByID(ctx, env.user.ID, task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.FirstCategorizedAt == nil || !stored.FirstCategorizedAt.Equal(day(0, 9)) {
		t.Fatalf("FirstCategorizedAt = %v", stored.FirstCategorizedAt)
	}
}

func TestCreateWithCategoryStampsFirstCategorizedAt(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	task, _, err := env.gamify.CreateTask(ctx, env.user.ID, TaskInput{
		Title: "filed", Impact: model.ImpactLowLow, DueDate: day(1, 9), Category: "Work",
	}, day(0, 8))
	if err != nil {
		t.Fatal(err)
	}
	if task.FirstCategorizedAt == nil {
		t.Fatal("FirstCategorizedAt not set on create")
	}

	if _, _, err := env.gamify.UpdateTask(ctx, env.user.ID, task.ID, TaskPatch{ClearCategory: true}, day(0, 9)); err != nil {
		t.Fatal(err)
	}
	home := "Home"
	if _, _, err := env.gamify.UpdateTask(ctx, env.user.ID, task.ID, TaskPatch{Category: &home}, day(0, 10)); err != nil {
		t.Fatal(err)
	}
	if c := env.counter(t); c.Categorized != 1 {
		t.Fatalf("counter = %+v", c)
	}
}

func TestDeleteTaskWaitsForUserLock(t *testing.T) {
	env := setupEnv(t)
	tasks := NewTaskService(env.store, env.gamify, time.UTC)
	task := env.create(t, model.ImpactLowLow, day(0, 8))

	unlock := env.gamify.locks.Lock(env.user.ID)
	done := make(chan error, 1)
	go func() {
		done <- tasks.DeleteTask(context.Background(), env.user, task.ID)
	}()

	select {
	case err := <-done:
		unlock()
		t.Fatalf("delete finished while the user was locked: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	unlock()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("delete never acquired the lock")
	}
	if _, err := env.store.Tasks.FindByID(context.Background(), env.user.ID, task.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("task still present: %v", err)
	}
}

func TestPlanningProOnCreate(t *testing.T) {
	env := setupEnv(t)
	_, outcome, err := env.gamify.CreateTask(context.Background(), env.user.ID, TaskInput{
		Title: "plan", Impact: model.ImpactHighLow, DueDate: day(8, 9),
	}, day(0, 9))
	if err != nil {
		t.Fatal(err)
	}
	if !hasBadge(outcome.Badges, "planning-pro") {
		t.Fatalf("badges = %+v", outcome.Badges)
	}
}

func TestStatusChangeAppendsToTargetColumn(t *testing.T) {
	env := setupEnv(t)
	a := env.create(t, model.ImpactLowLow, day(0, 8))
	b := env.create(t, model.ImpactLowLow, day(0, 8))
	c := env.create(t, model.ImpactLowLow, day(0, 8))
	if a.RelativeOrder != 0 || b.RelativeOrder != 1 || c.RelativeOrder != 2 {
		t.Fatalf("orders %d %d %d", a.RelativeOrder, b.RelativeOrder, c.RelativeOrder)
	}

	env.move(t, a, model.StatusInProgress, day(0, 9))
	movedB, _ := env.move(t, b, model.StatusInProgress, day(0, 9))
	if movedB.RelativeOrder != 1 {
		t.Fatalf("b order in new column = %d", movedB.RelativeOrder)
	}

	todo := model.StatusTodo
	rest, err := env.store.Tasks.ListByUser(context.Background(), env.user.ID, &todo)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 || rest[0].ID != c.ID || rest[0].RelativeOrder != 0 {
		t.Fatalf("todo column = %+v", rest)
	}
}

func TestCreateTaskForUnknownCategoryID(t *testing.T) {
	env := setupEnv(t)
	missing := uint(404)
	_, _, err := env.gamify.CreateTask(context.Background(), env.user.ID, TaskInput{
		Title: "x", Impact: model.ImpactLowLow, DueDate: day(1, 0), CategoryID: &missing,
	}, day(0, 9))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if c := env.counter(t); c.Total != 0 {
		t.Fatalf("counter = %+v", c)
	}
}
