package http

import (
	"net/http"

	"everytask/internal/model"
	"everytask/internal/service"
)

type taskRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Emoji       string           `json:"emoji"`
	Impact      model.TaskImpact `json:"impact"`
	DueDate     *FlexTime        `json:"dueDate"`
	CategoryID  *uint            `json:"categoryId"`
	Category    string           `json:"category"`
}

type taskPatchRequest struct {
	Title         *string           `json:"title"`
	Description   *string           `json:"description"`
	Emoji         *string           `json:"emoji"`
	Impact        *model.TaskImpact `json:"impact"`
	DueDate       *FlexTime         `json:"dueDate"`
	CategoryID    *uint             `json:"categoryId"`
	Category      *string           `json:"category"`
	ClearCategory bool              `json:"clearCategory"`
	Status        *model.TaskStatus `json:"status"`
	RelativeOrder *int              `json:"relativeOrder"`
}

type checklistRequest struct {
	Title *string `json:"title"`
	Order *int    `json:"order"`
	Done  *bool   `json:"done"`
}

func (a *API) handleListTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	var status *model.TaskStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := model.TaskStatus(raw)
		status = &st
	}
	tasks, err := a.Tasks.ListTasks(r.Context(), user, status)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, newTaskViews(tasks))
}

func (a *API) handleBoard(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	board, err := a.Tasks.Board(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	out := make(map[model.TaskStatus][]taskView, len(board))
	for status, tasks := range board {
		out[status] = newTaskViews(tasks)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleGetTask(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	task, err := a.Tasks.GetTask(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, r, err, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, newTaskView(task))
}

func (a *API) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	var req taskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	input := service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Emoji:       req.Emoji,
		Impact:      req.Impact,
		CategoryID:  req.CategoryID,
		Category:    req.Category,
	}
	if req.DueDate != nil && !req.DueDate.IsZero() {
		input.DueDate = req.DueDate.In(a.location())
	}
	task, outcome, err := a.Tasks.CreateTask(r.Context(), user, input)
	if err != nil {
		writeServiceError(w, r, err, "Category not found")
		return
	}
	writeJSON(w, http.StatusCreated, newTaskResponse(task, outcome))
}

func (a *API) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req taskPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	patch := service.TaskPatch{
		Title:         req.Title,
		Description:   req.Description,
		Emoji:         req.Emoji,
		Impact:        req.Impact,
		CategoryID:    req.CategoryID,
		Category:      req.Category,
		ClearCategory: req.ClearCategory,
		Status:        req.Status,
		RelativeOrder: req.RelativeOrder,
	}
	if req.DueDate != nil {
		due := req.DueDate.In(a.location())
		patch.DueDate = &due
	}
	task, outcome, err := a.Tasks.UpdateTask(r.Context(), user, id, patch)
	if err != nil {
		writeServiceError(w, r, err, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, newTaskResponse(task, outcome))
}

func (a *API) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	task, outcome, err := a.Tasks.CompleteTask(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, r, err, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, newTaskResponse(task, outcome))
}

func (a *API) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := a.Tasks.DeleteTask(r.Context(), user, id); err != nil {
		writeServiceError(w, r, err, "Task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleTaskHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	history, err := a.Tasks.History(r.Context(), user, id)
	if err != nil {
		writeServiceError(w, r, err, "Task not found")
		return
	}
	out := make([]historyView, 0, len(history))
	for _, h := range history {
		out = append(out, historyView{Status: h.Status, UpdatedAt: h.UpdatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleAddChecklistItem(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req checklistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	title := ""
	if req.Title != nil {
		title = *req.Title
	}
	item, err := a.Checklist.Add(r.Context(), user, taskID, title)
	if err != nil {
		writeServiceError(w, r, err, "Task not found")
		return
	}
	writeJSON(w, http.StatusCreated, newChecklistItemView(item))
}

func (a *API) handleUpdateChecklistItem(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := idParam(w, r, "itemID")
	if !ok {
		return
	}
	var req checklistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	item, err := a.Checklist.Update(r.Context(), user, taskID, itemID, service.ChecklistPatch{Title: req.Title, Order: req.Order, Done: req.Done})
	if err != nil {
		writeServiceError(w, r, err, "Checklist item not found")
		return
	}
	writeJSON(w, http.StatusOK, newChecklistItemView(item))
}

func (a *API) handleDeleteChecklistItem(w http.ResponseWriter, r *http.Request) {
	user, ok := a.currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := idParam(w, r, "itemID")
	if !ok {
		return
	}
	if err := a.Checklist.Delete(r.Context(), user, taskID, itemID); err != nil {
		writeServiceError(w, r, err, "Checklist item not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
