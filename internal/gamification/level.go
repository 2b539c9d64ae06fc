package gamification

// Level is a tier in the fixed progression table.
type Level struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Threshold int    `json:"-"`
}

// Levels is ordered by ascending threshold.
var Levels = []Level{
	{ID: 1, Name: "Newbie", Threshold: 0},
	{ID: 2, Name: "Apprentice", Threshold: 100},
	{ID: 3, Name: "Procrastinator Slayer", Threshold: 500},
	{ID: 4, Name: "Master of Efficiency", Threshold: 1000},
	{ID: 5, Name: "Time Lord", Threshold: 2000},
	{ID: 6, Name: "Legend", Threshold: 5000},
}

// MaxLevel returns the last level of the table.
func MaxLevel() Level {
	return Levels[len(Levels)-1]
}

// LevelByID falls back to the first level for unknown ids.
func LevelByID(id int) Level {
	for _, l := range Levels {
		if l.ID == id {
			return l
		}
	}
	return Levels[0]
}

// LevelFor returns the highest level reachable with the given points.
func LevelFor(points int) Level {
	current := Levels[0]
	for _, l := range Levels {
		if l.Threshold <= points {
			current = l
		}
	}
	return current
}

// LevelUp reports the level a user should move to after reaching points,
// or false when no level above currentID is unlocked. Levels never go down.
func LevelUp(currentID, points int) (Level, bool) {
	next := LevelFor(points)
	if next.ID <= currentID {
		return Level{}, false
	}
	return next, true
}

// PointsToNextLevel returns the gap to the next unattained threshold, or 0 at the top.
func PointsToNextLevel(points int) int {
	for _, l := range Levels {
		if l.Threshold > points {
			return l.Threshold - points
		}
	}
	return 0
}
