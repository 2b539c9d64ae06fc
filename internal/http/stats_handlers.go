package http

import (
	"net/http"
	"time"
)

func (a *API) handleStatsByStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	since, ok := a.timeQuery(w, r, "since")
	if !ok {
		return
	}
	out, err := a.Stats.ByStatus(r.Context(), user.ID, since)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleStatsByImpact(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	since, ok := a.timeQuery(w, r, "since")
	if !ok {
		return
	}
	out, err := a.Stats.ByImpact(r.Context(), user.ID, since)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleStatsByCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	since, ok := a.timeQuery(w, r, "since")
	if !ok {
		return
	}
	out, err := a.Stats.ByCategory(r.Context(), user.ID, since)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleCompletionCalendar(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	out, err := a.Stats.CompletionCalendar(r.Context(), user.ID, time.Now())
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreatedVsCompleted defaults to the last 30 days.
func (a *API) handleCreatedVsCompleted(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	from, ok := a.timeQuery(w, r, "from")
	if !ok {
		return
	}
	to, ok := a.timeQuery(w, r, "to")
	if !ok {
		return
	}
	end := time.Now().In(a.location())
	if to != nil {
		end = *to
	}
	start := end.AddDate(0, 0, -29)
	if from != nil {
		start = *from
	}
	if start.After(end) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid period")
		return
	}
	out, err := a.Stats.CreatedVsCompleted(r.Context(), user.ID, start, end)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleMostProductiveDay(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	day, count, err := a.Stats.MostProductiveDay(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"day": day, "completed": count})
}

func (a *API) handleFastest(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	out, err := a.Stats.Fastest(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleAverageCompletion(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	out, err := a.Stats.AverageCompletionMinutes(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleCompletionRate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	since, ok := a.timeQuery(w, r, "since")
	if !ok {
		return
	}
	out, err := a.Stats.CompletionRate(r.Context(), user.ID, since)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type busyCell struct {
	Weekday string `json:"weekday"`
	Hour    int    `json:"hour"`
	Count   int    `json:"count"`
}

// handleBusyHours returns only the non-empty cells of the weekday by hour grid.
func (a *API) handleBusyHours(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	since, ok := a.timeQuery(w, r, "since")
	if !ok {
		return
	}
	grid, err := a.Stats.BusyHours(r.Context(), user.ID, since)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	out := []busyCell{}
	for day, hours := range grid {
		for hour, n := range hours {
			if n > 0 {
				out = append(out, busyCell{Weekday: time.Weekday(day).String(), Hour: hour, Count: n})
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleWorkload(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	out, err := a.Stats.Workload(r.Context(), user.ID, time.Now())
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleStreak(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	out, err := a.Stats.Streak(r.Context(), user.ID, time.Now())
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleUserBadges(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	badges, err := a.Stats.Badges(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, newBadgeViews(badges))
}
