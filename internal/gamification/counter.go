package gamification

import (
	"time"

	"everytask/internal/model"
)

// EventKind identifies the task lifecycle event being applied.
type EventKind int

const (
	EventCreate EventKind = iota + 1
	EventStatusChange
	EventCategorize
)

// Event is a single task lifecycle event as seen by the counter aggregator.
type Event struct {
	Kind       EventKind
	Task       model.Task
	From       model.TaskStatus
	To         model.TaskStatus
	OccurredAt time.Time
}

// ResetIfStale zeroes the daily fields when the counter was last touched before today.
func ResetIfStale(c model.TaskCounter, today string) model.TaskCounter {
	if c.UpdatedOn >= today {
		return c
	}
	c.CompletedToday = 0
	c.CompletedBeforeNoon = 0
	c.CompletedAfterTenPm = 0
	c.CompletedOnWeekend = 0
	c.CompletedTiny = 0
	c.UpdatedOn = today
	return c
}

// CompletionMetrics describes which time and size buckets a completion falls into.
type CompletionMetrics struct {
	BeforeNoon bool
	AfterTenPm bool
	OnWeekend  bool
	Tiny       bool
}

// MetricsFor classifies a completion at the given time.
// The late window covers 22:00 through 04:59, so very early completions also count as before noon.
func MetricsFor(at time.Time, impact model.TaskImpact) CompletionMetrics {
	hour := at.Hour()
	day := at.Weekday()
	return CompletionMetrics{
		BeforeNoon: hour < 12,
		AfterTenPm: hour >= 22 || hour <= 4,
		OnWeekend:  day == time.Saturday || day == time.Sunday,
		Tiny:       impact == model.ImpactLowLow,
	}
}

// ApplyEvent returns the counter after the event, resetting daily fields first if stale.
// Status changes only count when they enter DONE.
func ApplyEvent(c model.TaskCounter, ev Event) model.TaskCounter {
	c = ResetIfStale(c, DateKey(ev.OccurredAt))

	switch ev.Kind {
	case EventCreate:
		c.Total++
		if ev.Task.CategoryID != nil {
			c.Categorized++
		}
	case EventCategorize:
		c.Categorized++
	case EventStatusChange:
		if ev.To != model.StatusDone || ev.From == model.StatusDone {
			return c
		}
		c.Completed++
		c.CompletedToday++
		m := MetricsFor(ev.OccurredAt, ev.Task.Impact)
		if m.BeforeNoon {
			c.CompletedBeforeNoon++
		}
		if m.AfterTenPm {
			c.CompletedAfterTenPm++
		}
		if m.OnWeekend {
			c.CompletedOnWeekend++
		}
		if m.Tiny {
			c.CompletedTiny++
			c.TinyCompleted++
		}
	}
	return c
}

// StatDelta is the change applied to a TaskDailyStat row.
type StatDelta struct {
	Created    int
	InProgress int
	Completed  int
}

// Empty reports whether the delta changes nothing.
func (d StatDelta) Empty() bool {
	return d == StatDelta{}
}

// DailyStatDelta computes the symmetric change for an event: entering a column
// increments its count and leaving it decrements it.
func DailyStatDelta(ev Event) StatDelta {
	var d StatDelta
	switch ev.Kind {
	case EventCreate:
		d.Created = 1
	case EventStatusChange:
		if ev.From == ev.To {
			return d
		}
		switch ev.From {
		case model.StatusInProgress:
			d.InProgress--
		case model.StatusDone:
			d.Completed--
		}
		switch ev.To {
		case model.StatusInProgress:
			d.InProgress++
		case model.StatusDone:
			d.Completed++
		}
	}
	return d
}

// ApplyStatDelta adds d to the stat, never letting a count drop below zero.
func ApplyStatDelta(s model.TaskDailyStat, d StatDelta) model.TaskDailyStat {
	s.Created = clampZero(s.Created + d.Created)
	s.InProgress = clampZero(s.InProgress + d.InProgress)
	s.Completed = clampZero(s.Completed + d.Completed)
	return s
}

func clampZero(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
