package gamification

import (
	"testing"

	"everytask/internal/model"
)

func TestAdvanceStreak(t *testing.T) {
	tests := []struct {
		name        string
		start       model.Streak
		ts          string
		wantCurrent int
		wantLongest int
		wantChanged bool
	}{
		{"first completion", model.Streak{}, "2024-03-04 10:00", 1, 1, true},
		{"yesterday extends", model.Streak{Current: 2, Longest: 2, LastUpdatedOn: "2024-03-03"}, "2024-03-04 10:00", 3, 3, true},
		{"same day is a no-op", model.Streak{Current: 2, Longest: 4, LastUpdatedOn: "2024-03-04"}, "2024-03-04 23:00", 2, 4, false},
		{"gap resets", model.Streak{Current: 5, Longest: 5, LastUpdatedOn: "2024-03-02"}, "2024-03-04 10:00", 1, 5, true},
		{"out of order is ignored", model.Streak{Current: 3, Longest: 3, LastUpdatedOn: "2024-03-05"}, "2024-03-04 10:00", 3, 3, false},
		{"month boundary", model.Streak{Current: 1, Longest: 1, LastUpdatedOn: "2024-02-29"}, "2024-03-01 00:05", 2, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := AdvanceStreak(tt.start, at(tt.ts))
			if changed != tt.wantChanged {
				t.Fatalf("changed = %v, want %v", changed, tt.wantChanged)
			}
			if got.Current != tt.wantCurrent || got.Longest != tt.wantLongest {
				t.Fatalf("got current=%d longest=%d, want %d/%d", got.Current, got.Longest, tt.wantCurrent, tt.wantLongest)
			}
			if got.Longest < got.Current {
				t.Fatalf("longest %d < current %d", got.Longest, got.Current)
			}
		})
	}
}

func TestAdvanceStreakLongestNeverBelowCurrent(t *testing.T) {
	var s model.Streak
	days := []string{"2024-01-01", "2024-01-02", "2024-01-02", "2024-01-03", "2024-01-07", "2024-01-08", "2024-01-09", "2024-01-10", "2024-01-10"}
	for _, d := range days {
		s, _ = AdvanceStreak(s, at(d+" 12:00"))
		if s.Longest < s.Current {
			t.Fatalf("%s: longest %d < current %d", d, s.Longest, s.Current)
		}
	}
	if s.Current != 4 || s.Longest != 4 || s.StartedOn != "2024-01-07" {
		t.Fatalf("final streak %+v", s)
	}
}

func TestStreakAlive(t *testing.T) {
	s := model.Streak{Current: 2, LastUpdatedOn: "2024-03-03"}
	if !StreakAlive(s, at("2024-03-04 10:00")) {
		t.Error("streak from yesterday should be alive")
	}
	if StreakAlive(s, at("2024-03-05 10:00")) {
		t.Error("streak from two days ago should be broken")
	}
	if StreakAlive(model.Streak{}, at("2024-03-05 10:00")) {
		t.Error("empty streak alive")
	}
}
