package gamification

import "everytask/internal/model"

var impactPoints = map[model.TaskImpact]int{
	model.ImpactLowLow:   10,
	model.ImpactHighLow:  20,
	model.ImpactLowHigh:  30,
	model.ImpactHighHigh: 50,
}

// PointsFor returns the points awarded for completing a task of the given impact.
func PointsFor(impact model.TaskImpact) int {
	return impactPoints[impact]
}
