package http

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"everytask/internal/gamification"
	"everytask/internal/model"
	"everytask/internal/service"
)

// FlexTime accepts the date formats browsers send. Values without a zone are
// placed in the server location by In.
type FlexTime struct {
	time.Time
	dateOnly bool
	local    bool
}

func (ft *FlexTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// <input type="date">
	if t, err := time.Parse("2006-01-02", s); err == nil {
		ft.Time, ft.dateOnly, ft.local = t, true, true
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		ft.Time = t
		return nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		ft.Time, ft.local = t, true
		return nil
	}
	return errors.New("invalid date/time format")
}

// In resolves the value in loc. A bare date means the end of that day.
func (ft *FlexTime) In(loc *time.Location) time.Time {
	t := ft.Time
	switch {
	case ft.dateOnly:
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, loc)
	case ft.local:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	}
	return t
}

type checklistItemView struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Order int    `json:"order"`
	Done  bool   `json:"done"`
}

type taskView struct {
	ID               uint                `json:"id"`
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	Emoji            string              `json:"emoji,omitempty"`
	Status           model.TaskStatus    `json:"status"`
	Impact           model.TaskImpact    `json:"impact"`
	CategoryID       *uint               `json:"categoryId"`
	DueDate          time.Time           `json:"dueDate"`
	RelativeOrder    int                 `json:"relativeOrder"`
	FirstCompletedAt *time.Time          `json:"firstCompletedAt"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
	Checklist        []checklistItemView `json:"checklist"`
}

func newTaskView(task *model.Task) taskView {
	v := taskView{
		ID:               task.ID,
		Title:            task.Title,
		Description:      task.Description,
		Emoji:            task.Emoji,
		Status:           task.Status,
		Impact:           task.Impact,
		CategoryID:       task.CategoryID,
		DueDate:          task.DueDate,
		RelativeOrder:    task.RelativeOrder,
		FirstCompletedAt: task.FirstCompletedAt,
		CreatedAt:        task.CreatedAt,
		UpdatedAt:        task.UpdatedAt,
		Checklist:        make([]checklistItemView, 0, len(task.ChecklistItems)),
	}
	for _, item := range task.ChecklistItems {
		v.Checklist = append(v.Checklist, newChecklistItemView(&item))
	}
	return v
}

func newTaskViews(tasks []model.Task) []taskView {
	out := make([]taskView, 0, len(tasks))
	for i := range tasks {
		out = append(out, newTaskView(&tasks[i]))
	}
	return out
}

func newChecklistItemView(item *model.ChecklistItem) checklistItemView {
	return checklistItemView{ID: item.ID, Title: item.Title, Order: item.Order, Done: item.Done}
}

type historyView struct {
	Status    model.TaskStatus `json:"status"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

type categoryView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type badgeView struct {
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	EarnedAt    *time.Time `json:"earnedAt,omitempty"`
}

func newBadgeViews(badges []model.UserBadge) []badgeView {
	out := make([]badgeView, 0, len(badges))
	for _, b := range badges {
		earned := b.EarnedAt
		out = append(out, badgeView{
			Code:        b.BadgeCode,
			Name:        b.Badge.Name,
			Description: b.Badge.Description,
			Icon:        b.Badge.Icon,
			EarnedAt:    &earned,
		})
	}
	return out
}

type streakView struct {
	Current       int    `json:"current"`
	Longest       int    `json:"longest"`
	StartedOn     string `json:"startedOn,omitempty"`
	LastUpdatedOn string `json:"lastUpdatedOn,omitempty"`
}

// taskResponse is returned by every task write: the task plus what it earned.
type taskResponse struct {
	Task          taskView            `json:"task"`
	Badges        []badgeView         `json:"badges"`
	PointsAwarded int                 `json:"pointsAwarded"`
	LevelUp       *gamification.Level `json:"levelUp"`
	Streak        *streakView         `json:"streak"`
}

func newTaskResponse(task *model.Task, outcome service.Outcome) taskResponse {
	resp := taskResponse{
		Task:          newTaskView(task),
		Badges:        newBadgeViews(outcome.Badges),
		PointsAwarded: outcome.PointsAwarded,
		LevelUp:       outcome.LevelUp,
	}
	if s := outcome.Streak; s != nil {
		resp.Streak = &streakView{Current: s.Current, Longest: s.Longest, StartedOn: s.StartedOn, LastUpdatedOn: s.LastUpdatedOn}
	}
	return resp
}
