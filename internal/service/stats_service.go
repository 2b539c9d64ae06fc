package service

import (
	"context"
	"math"
	"time"

	"everytask/internal/gamification"
	"everytask/internal/model"
	"everytask/internal/repository"
)

const uncategorized = "Uncategorized"

// Share is one bucket of a distribution.
type Share struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// DayCount is a count for one calendar date.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// SeriesPoint compares created and completed tasks on one date.
type SeriesPoint struct {
	Date      string `json:"date"`
	Created   int    `json:"created"`
	Completed int    `json:"completed"`
}

// FastestCompletion is the task that went from created to done the quickest.
type FastestCompletion struct {
	TaskID  uint    `json:"taskId"`
	Title   string  `json:"title"`
	Minutes float64 `json:"minutes"`
}

// ImpactRate is the completion rate of one impact class.
type ImpactRate struct {
	Impact    model.TaskImpact `json:"impact"`
	Total     int              `json:"total"`
	Completed int              `json:"completed"`
	Percent   float64          `json:"percent"`
}

// Workload buckets open tasks by due date.
type Workload struct {
	Overdue  int `json:"overdue"`
	Today    int `json:"today"`
	ThisWeek int `json:"thisWeek"`
	Later    int `json:"later"`
}

// StreakView is a streak as shown to the user. Current is 0 once the streak is broken.
type StreakView struct {
	Current       int    `json:"current"`
	Longest       int    `json:"longest"`
	StartedOn     string `json:"startedOn,omitempty"`
	LastUpdatedOn string `json:"lastUpdatedOn,omitempty"`
}

// StatsService computes read-only statistics for a user.
type StatsService struct {
	store *repository.Store
	loc   *time.Location
}

func NewStatsService(store *repository.Store, loc *time.Location) *StatsService {
	if loc == nil {
		loc = time.Local
	}
	return &StatsService{store: store, loc: loc}
}

func (s *StatsService) ByStatus(ctx context.Context, userID uint, since *time.Time) ([]Share, error) {
	rows, err := s.store.Stats.CountByStatus(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(model.Statuses))
	for _, st := range model.Statuses {
		labels = append(labels, string(st))
	}
	return shares(rows, labels), nil
}

func (s *StatsService) ByImpact(ctx context.Context, userID uint, since *time.Time) ([]Share, error) {
	rows, err := s.store.Stats.CountByImpact(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(model.Impacts))
	for _, im := range model.Impacts {
		labels = append(labels, string(im))
	}
	return shares(rows, labels), nil
}

func (s *StatsService) ByCategory(ctx context.Context, userID uint, since *time.Time) ([]Share, error) {
	rows, err := s.store.Stats.CountByCategory(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Label == "" {
			rows[i].Label = uncategorized
		}
	}
	return shares(rows, nil), nil
}

// CompletionCalendar returns the dates of the last two months with at least one completion.
func (s *StatsService) CompletionCalendar(ctx context.Context, userID uint, now time.Time) ([]DayCount, error) {
	now = now.In(s.loc)
	stats, err := s.store.DailyStats.ListRange(ctx, userID, gamification.DateKey(now.AddDate(0, -2, 0)), gamification.DateKey(now))
	if err != nil {
		return nil, err
	}
	days := make([]DayCount, 0, len(stats))
	for _, st := range stats {
		if st.Completed > 0 {
			days = append(days, DayCount{Date: st.Date, Count: st.Completed})
		}
	}
	return days, nil
}

// CreatedVsCompleted returns one point per day between from and to inclusive.
func (s *StatsService) CreatedVsCompleted(ctx context.Context, userID uint, from, to time.Time) ([]SeriesPoint, error) {
	from, to = from.In(s.loc), to.In(s.loc)
	if to.Before(from) {
		from, to = to, from
	}
	stats, err := s.store.DailyStats.ListRange(ctx, userID, gamification.DateKey(from), gamification.DateKey(to))
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]model.TaskDailyStat, len(stats))
	for _, st := range stats {
		byDate[st.Date] = st
	}

	var series []SeriesPoint
	last := gamification.DateKey(to)
	for day := from; ; day = day.AddDate(0, 0, 1) {
		key := gamification.DateKey(day)
		st := byDate[key]
		series = append(series, SeriesPoint{Date: key, Created: st.Created, Completed: st.Completed})
		if key >= last {
			break
		}
	}
	return series, nil
}

// MostProductiveDay returns the weekday with the most completions.
func (s *StatsService) MostProductiveDay(ctx context.Context, userID uint) (string, int, error) {
	times, err := s.store.Stats.CompletionTimes(ctx, userID, nil)
	if err != nil {
		return "", 0, err
	}
	var counts [7]int
	for _, t := range times {
		counts[t.In(s.loc).Weekday()]++
	}
	best := -1
	for day, n := range counts {
		if n > 0 && (best < 0 || n > counts[best]) {
			best = day
		}
	}
	if best < 0 {
		return "", 0, nil
	}
	return time.Weekday(best).String(), counts[best], nil
}

// Fastest returns nil when nothing was completed yet.
func (s *StatsService) Fastest(ctx context.Context, userID uint) (*FastestCompletion, error) {
	tasks, err := s.store.Stats.CompletedTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	var best *FastestCompletion
	for _, task := range tasks {
		minutes := task.FirstCompletedAt.Sub(task.CreatedAt).Minutes()
		if best == nil || minutes < best.Minutes {
			best = &FastestCompletion{TaskID: task.ID, Title: task.Title, Minutes: round2(minutes)}
		}
	}
	return best, nil
}

// AverageCompletionMinutes returns the mean time to first completion per impact.
func (s *StatsService) AverageCompletionMinutes(ctx context.Context, userID uint) (map[model.TaskImpact]float64, error) {
	tasks, err := s.store.Stats.CompletedTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	sums := map[model.TaskImpact]float64{}
	counts := map[model.TaskImpact]int{}
	for _, task := range tasks {
		sums[task.Impact] += task.FirstCompletedAt.Sub(task.CreatedAt).Minutes()
		counts[task.Impact]++
	}
	avg := make(map[model.TaskImpact]float64, len(model.Impacts))
	for _, im := range model.Impacts {
		avg[im] = 0
		if counts[im] > 0 {
			avg[im] = round2(sums[im] / float64(counts[im]))
		}
	}
	return avg, nil
}

// CompletionRate returns the share of tasks currently done per impact.
func (s *StatsService) CompletionRate(ctx context.Context, userID uint, since *time.Time) ([]ImpactRate, error) {
	tasks, err := s.store.Stats.AllTasks(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	rates := make(map[model.TaskImpact]*ImpactRate, len(model.Impacts))
	out := make([]ImpactRate, len(model.Impacts))
	for i, im := range model.Impacts {
		out[i].Impact = im
		rates[im] = &out[i]
	}
	for _, task := range tasks {
		rate, ok := rates[task.Impact]
		if !ok {
			continue
		}
		rate.Total++
		if task.Status == model.StatusDone {
			rate.Completed++
		}
	}
	for i := range out {
		out[i].Percent = percent(out[i].Completed, out[i].Total)
	}
	return out, nil
}

// BusyHours counts completions by weekday (Sunday first) and hour.
func (s *StatsService) BusyHours(ctx context.Context, userID uint, since *time.Time) ([7][24]int, error) {
	var grid [7][24]int
	times, err := s.store.Stats.CompletionTimes(ctx, userID, since)
	if err != nil {
		return grid, err
	}
	for _, t := range times {
		local := t.In(s.loc)
		grid[local.Weekday()][local.Hour()]++
	}
	return grid, nil
}

// Workload buckets the user's open tasks by how soon they are due.
func (s *StatsService) Workload(ctx context.Context, userID uint, now time.Time) (Workload, error) {
	var w Workload
	tasks, err := s.store.Stats.OpenTasks(ctx, userID)
	if err != nil {
		return w, err
	}
	now = now.In(s.loc)
	today := gamification.DateKey(now)
	weekEnd := gamification.DateKey(now.AddDate(0, 0, 7))
	for _, task := range tasks {
		due := gamification.DateKey(task.DueDate.In(s.loc))
		switch {
		case due < today:
			w.Overdue++
		case due == today:
			w.Today++
		case due <= weekEnd:
			w.ThisWeek++
		default:
			w.Later++
		}
	}
	return w, nil
}

func (s *StatsService) Streak(ctx context.Context, userID uint, now time.Time) (StreakView, error) {
	streak, err := s.store.Streaks.Find(ctx, userID)
	if err != nil {
		return StreakView{}, err
	}
	view := StreakView{
		Current:       streak.Current,
		Longest:       streak.Longest,
		StartedOn:     streak.StartedOn,
		LastUpdatedOn: streak.LastUpdatedOn,
	}
	if !gamification.StreakAlive(*streak, now.In(s.loc)) {
		view.Current = 0
	}
	return view, nil
}

func (s *StatsService) Badges(ctx context.Context, userID uint) ([]model.UserBadge, error) {
	return s.store.Badges.ListByUser(ctx, userID)
}

// shares turns grouped counts into percentages. Labels listed in fixed come
// first and appear even when empty.
func shares(rows []repository.GroupCount, fixed []string) []Share {
	total := 0
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		total += r.Count
		counts[r.Label] += r.Count
	}

	out := make([]Share, 0, len(rows)+len(fixed))
	seen := make(map[string]bool, len(fixed))
	for _, label := range fixed {
		seen[label] = true
		out = append(out, Share{Label: label, Count: counts[label], Percent: percent(counts[label], total)})
	}
	for _, r := range rows {
		if seen[r.Label] {
			continue
		}
		seen[r.Label] = true
		out = append(out, Share{Label: r.Label, Count: counts[r.Label], Percent: percent(counts[r.Label], total)})
	}
	return out
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) * 100 / float64(total))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
