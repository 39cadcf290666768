package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/repository"
	"github.com/Makepad-fr/tada/internal/store"
)

func newTestRouter(secret string) http.Handler {
	repo := repository.NewLocal(store.NewMemory(), "", logging.Discard())
	return Router(repo, Options{JWTSecret: secret, Logger: logging.Discard()})
}

func do(t *testing.T, h http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
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

func TestCRUD(t *testing.T) {
	h := newTestRouter("")

	rec := do(t, h, http.MethodPost, "/todos", api.TodoDTO{Title: "Buy milk"}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: got %d: %s", rec.Code, rec.Body)
	}
	var created api.TodoDTO
	_ = json.Unmarshal(rec.Body.Bytes(), &created)
	if created.ID == "" || created.CreatedAt == "" {
		t.Fatalf("create: missing id or createdAt: %+v", created)
	}

	rec = do(t, h, http.MethodPut, "/todos/"+created.ID, api.PatchDTO{Completed: boolPtr(true)}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("update: got %d: %s", rec.Code, rec.Body)
	}
	var updated api.TodoDTO
	_ = json.Unmarshal(rec.Body.Bytes(), &updated)
	if !updated.Completed || updated.UpdatedAt == nil || updated.Title != "Buy milk" {
		t.Errorf("update: got %+v", updated)
	}

	rec = do(t, h, http.MethodGet, "/todos?completed=false", nil, "")
	var list []api.TodoDTO
	_ = json.Unmarshal(rec.Body.Bytes(), &list)
	if rec.Code != http.StatusOK || len(list) != 0 {
		t.Errorf("list completed=false: got %d %v", rec.Code, list)
	}

	if rec = do(t, h, http.MethodDelete, "/todos/"+created.ID, nil, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete: got %d", rec.Code)
	}
	if rec = do(t, h, http.MethodGet, "/todos/"+created.ID, nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d", rec.Code)
	}
	if rec = do(t, h, http.MethodDelete, "/todos/"+created.ID, nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d", rec.Code)
	}
}

func TestValidation(t *testing.T) {
	h := newTestRouter("")
	if rec := do(t, h, http.MethodPost, "/todos", api.TodoDTO{Title: "  "}, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("blank title: got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/todos?completed=maybe", nil, ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad completed: got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPut, "/todos/nope", api.PatchDTO{Completed: boolPtr(true)}, ""); rec.Code != http.StatusNotFound {
		t.Errorf("update unknown: got %d", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	h := newTestRouter("s3cret")

	if rec := do(t, h, http.MethodGet, "/todos", nil, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: got %d", rec.Code)
	}
	bad, _ := auth.Mint("other", "eve", time.Hour)
	if rec := do(t, h, http.MethodGet, "/todos", nil, bad); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret: got %d", rec.Code)
	}
	good, _ := auth.Mint("s3cret", "alice", time.Hour)
	if rec := do(t, h, http.MethodGet, "/todos", nil, good); rec.Code != http.StatusOK {
		t.Errorf("valid token: got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/health", nil, ""); rec.Code != http.StatusOK {
		t.Errorf("health: got %d", rec.Code)
	}
}

func boolPtr(b bool) *bool { return &b }
