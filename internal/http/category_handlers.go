package http

import (
	"net/http"

	"everytask/internal/gamification"
)

type categoryRequest struct {
	Name string `json:"name"`
}

func (a *API) handleListCategories(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	categories, err := a.Categories.List(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	out := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryView{ID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := a.Categories.Create(r.Context(), user, req.Name)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, categoryView{ID: category.ID, Name: category.Name})
}

func (a *API) handleRenameCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := a.Categories.Rename(r.Context(), user, id, req.Name)
	if err != nil {
		writeServiceError(w, r, err, "Category not found")
		return
	}
	writeJSON(w, http.StatusOK, categoryView{ID: category.ID, Name: category.Name})
}

func (a *API) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := a.Categories.Delete(r.Context(), user, id); err != nil {
		writeServiceError(w, r, err, "Category not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBadgeCatalog lists every badge, with the earn time for those the user holds.
func (a *API) handleBadgeCatalog(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	held, err := a.Stats.Badges(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	earned := make(map[string]badgeView, len(held))
	for _, b := range newBadgeViews(held) {
		earned[b.Code] = b
	}
	out := make([]badgeView, 0, len(gamification.Catalog))
	for _, def := range gamification.Catalog {
		view := badgeView{Code: string(def.Code), Name: def.Name, Description: def.Description, Icon: def.Icon}
		if b, ok := earned[view.Code]; ok {
			view.EarnedAt = b.EarnedAt
		}
		out = append(out, view)
	}
	writeJSON(w, http.StatusOK, out)
}
