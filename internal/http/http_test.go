package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"everytask/internal/auth"
	"everytask/internal/repository"
	"everytask/internal/service"
)

func setupAPI(t *testing.T) http.Handler {
	t.Helper()
	db, err := repository.NewDB(repository.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	store := repository.NewStore(db)
	manager := auth.NewManager("test-secret", time.Hour)
	gamify := service.NewGamificationService(store)
	api := &API{
		Users:      service.NewUserService(store, manager),
		Tasks:      service.NewTaskService(store, gamify, time.UTC),
		Categories: service.NewCategoryService(store),
		Checklist:  service.NewChecklistService(store),
		Stats:      service.NewStatsService(store, time.UTC),
		Auth:       manager,
		Origins:    []string{"http://localhost:5173"},
		Location:   time.UTC,
	}
	return api.Router()
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func register(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "name": "Player", "password": "Secr3tPass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body)
	}
	var resp authResponse
	decode(t, rec, &resp)
	return resp.AccessToken
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	decode(t, rec, &resp)
	return resp.Error.Code
}

func TestHealth(t *testing.T) {
	h := setupAPI(t)
	rec := do(t, h, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("health = %d %s", rec.Code, rec.Body)
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	h := setupAPI(t)
	for _, path := range []string{"/me", "/tasks", "/stats/streak"} {
		rec := do(t, h, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
	rec := do(t, h, http.MethodGet, "/me", "garbage", nil)
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "UNAUTHORIZED" {
		t.Fatalf("bad token status = %d", rec.Code)
	}
}

func TestRegisterConflictAndLogin(t *testing.T) {
	h := setupAPI(t)
	register(t, h, "a@example.com")

	rec := do(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "a@example.com", "name": "Again", "password": "Secr3tPass",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@example.com", "password": "wrong"})
	if rec.Code != http.StatusUnauthorized || errorCode(t, rec) != "INVALID_CREDENTIALS" {
		t.Fatalf("bad login status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@example.com", "password": "Secr3tPass"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}
	var resp authResponse
	decode(t, rec, &resp)
	if resp.AccessToken == "" || resp.User.Level.ID != 1 || resp.User.Level.PointsToNextLevel != 100 {
		t.Fatalf("login response = %+v", resp)
	}
}

func TestCompletingTaskReturnsOutcome(t *testing.T) {
	h := setupAPI(t)
	token := register(t, h, "b@example.com")

	rec := do(t, h, http.MethodPost, "/tasks", token, map[string]any{
		"title": "water plants", "impact": "LOW_IMPACT_LOW_EFFORT", "dueDate": "2099-01-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	var created taskResponse
	decode(t, rec, &created)
	if created.Task.Status != "TODO" || created.PointsAwarded != 0 {
		t.Fatalf("created = %+v", created)
	}

	rec = do(t, h, http.MethodPut, fmt.Sprintf("/tasks/%d", created.Task.ID), token, map[string]any{"status": "DONE"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body)
	}
	var done taskResponse
	decode(t, rec, &done)
	if done.Task.Status != "DONE" || done.PointsAwarded != 10 || done.Streak == nil || done.Streak.Current != 1 {
		t.Fatalf("done = %+v", done)
	}
	found := false
	for _, b := range done.Badges {
		if b.Code == "ice-breaker" && b.Name == "Ice Breaker" {
			found = true
		}
	}
	if !found {
		t.Fatalf("badges = %+v", done.Badges)
	}

	rec = do(t, h, http.MethodGet, "/me", token, nil)
	var profile service.Profile
	decode(t, rec, &profile)
	if profile.Points != 10 {
		t.Fatalf("profile = %+v", profile)
	}

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/tasks/%d/history", created.Task.ID), token, nil)
	var history []historyView
	decode(t, rec, &history)
	if len(history) != 2 || history[1].Status != "DONE" {
		t.Fatalf("history = %+v", history)
	}
}

func TestTaskErrors(t *testing.T) {
	h := setupAPI(t)
	token := register(t, h, "c@example.com")

	rec := do(t, h, http.MethodPost, "/tasks", token, map[string]any{"title": "  "})
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "VALIDATION_ERROR" {
		t.Fatalf("blank title status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPut, "/tasks/999", token, map[string]any{"status": "DONE"})
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "NOT_FOUND" {
		t.Fatalf("missing task status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/tasks/abc", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/tasks", token, map[string]any{"title": "x", "dueDate": "tomorrow"})
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "INVALID_JSON" {
		t.Fatalf("bad date status = %d", rec.Code)
	}
}

func TestOtherUsersTasksAreHidden(t *testing.T) {
	h := setupAPI(t)
	owner := register(t, h, "owner@example.com")
	intruder := register(t, h, "intruder@example.com")

	rec := do(t, h, http.MethodPost, "/tasks", owner, map[string]any{"title": "secret"})
	var created taskResponse
	decode(t, rec, &created)

	path := fmt.Sprintf("/tasks/%d", created.Task.ID)
	if rec := do(t, h, http.MethodGet, path, intruder, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, path, intruder, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, path, owner, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("owner delete status = %d", rec.Code)
	}
}

func TestBadgeCatalogMarksEarned(t *testing.T) {
	h := setupAPI(t)
	token := register(t, h, "d@example.com")

	rec := do(t, h, http.MethodPost, "/tasks", token, map[string]any{"title": "x"})
	var created taskResponse
	decode(t, rec, &created)
	do(t, h, http.MethodPost, fmt.Sprintf("/tasks/%d/complete", created.Task.ID), token, nil)

	rec = do(t, h, http.MethodGet, "/badges", token, nil)
	var catalog []badgeView
	decode(t, rec, &catalog)
	if len(catalog) < 20 {
		t.Fatalf("catalog has %d badges", len(catalog))
	}
	for _, b := range catalog {
		if (b.Code == "ice-breaker") != (b.EarnedAt != nil) {
			t.Errorf("badge %s earnedAt = %v", b.Code, b.EarnedAt)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	h := setupAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/tasks", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Fatalf("preflight = %d %v", rec.Code, rec.Header())
	}
}

func TestFlexTime(t *testing.T) {
	loc := time.FixedZone("MSK", 3*3600)
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2024-05-01"`, time.Date(2024, 5, 1, 23, 59, 59, 0, loc)},
		{`"2024-05-01T10:30:00"`, time.Date(2024, 5, 1, 10, 30, 0, 0, loc)},
		{`"2024-05-01T10:30:00Z"`, time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		var ft FlexTime
		if err := json.Unmarshal([]byte(tt.in), &ft); err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if got := ft.In(loc); !got.Equal(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.in, got, tt.want)
		}
	}

	var ft FlexTime
	if err := json.Unmarshal([]byte(`"05/01/2024"`), &ft); err == nil {
		t.Fatal("accepted an unknown format")
	}
}
