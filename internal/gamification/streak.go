package gamification

import (
	"time"

	"everytask/internal/model"
)

// AdvanceStreak records a completion at the given time. It returns the updated
// streak and whether anything changed. A second completion on the same day, or
// one dated before the last recorded day, leaves the streak untouched.
func AdvanceStreak(s model.Streak, at time.Time) (model.Streak, bool) {
	today := DateKey(at)

	gap := 0
	if s.LastUpdatedOn != "" {
		days, err := DaysBetween(s.LastUpdatedOn, today)
		if err == nil {
			if days <= 0 {
				return s, false
			}
			gap = days
		}
	}

	if gap == 1 {
		s.Current++
	} else {
		s.Current = 1
		s.StartedOn = today
	}
	s.LastUpdatedOn = today
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	return s, true
}

// StreakAlive reports whether the streak still counts on the given day,
// meaning the last completion was today or yesterday.
func StreakAlive(s model.Streak, now time.Time) bool {
	if s.LastUpdatedOn == "" {
		return false
	}
	days, err := DaysBetween(s.LastUpdatedOn, DateKey(now))
	if err != nil {
		return false
	}
	return days >= 0 && days <= 1
}
