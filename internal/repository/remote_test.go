package repository_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/repository"
	"github.com/Makepad-fr/tada/internal/server"
	"github.com/Makepad-fr/tada/internal/store"
)

// newRemote serves a fresh in-memory API and returns a Remote pointed at it.
func newRemote(t *testing.T) *repository.Remote {
	t.Helper()
	backing := repository.NewLocal(store.NewMemory(), "", logging.Discard())
	srv := httptest.NewServer(server.Router(backing, server.Options{Logger: logging.Discard()}))
	t.Cleanup(srv.Close)
	return remoteFor(t, srv.URL)
}

func remoteFor(t *testing.T, url string) *repository.Remote {
	t.Helper()
	c, err := api.NewClient(url, api.WithLogger(logging.Discard()), api.WithTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return repository.NewRemote(c, "", logging.Discard())
}

func TestRemoteRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newRemote(t)
	at := time.Date(2024, 2, 3, 4, 5, 6, 789000000, time.UTC)

	created, err := r.Create(ctx, model.NewTodo{Title: "Buy milk", Description: "oat", CreatedAt: at})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create: no id assigned")
	}
	if !created.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt: got %v, want %v", created.CreatedAt, at)
	}

	got, err := r.GetByID(ctx, created.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: %v, %v", got, err)
	}
	if got.Title != "Buy milk" || got.Description != "oat" || !got.CreatedAt.Equal(at) {
		t.Errorf("GetByID: got %+v", got)
	}

	updated, err := r.Update(ctx, created.ID, model.TodoPatch{Completed: model.Bool(true)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.Completed || updated.UpdatedAt == nil || updated.Description != "oat" {
		t.Errorf("Update: got %+v", updated)
	}
	if !updated.CreatedAt.Equal(at) {
		t.Errorf("Update changed CreatedAt: %v", updated.CreatedAt)
	}

	done, _ := r.GetAll(ctx, model.TodoFilter{Completed: model.Bool(true)})
	pending, _ := r.GetAll(ctx, model.TodoFilter{Completed: model.Bool(false)})
	if len(done) != 1 || len(pending) != 0 {
		t.Errorf("filters: done=%d pending=%d", len(done), len(pending))
	}

	if !r.Delete(ctx, created.ID) {
		t.Fatal("Delete: got false")
	}
	if r.Delete(ctx, created.ID) {
		t.Error("second Delete: got true")
	}
	if got, err := r.GetByID(ctx, created.ID); err != nil || got != nil {
		t.Errorf("GetByID after delete: %v, %v", got, err)
	}
}

func TestRemoteSearch(t *testing.T) {
	ctx := context.Background()
	r := newRemote(t)
	_, _ = r.Create(ctx, model.NewTodo{Title: "Foo bar"})
	_, _ = r.Create(ctx, model.NewTodo{Title: "baz"})

	got, err := r.GetAll(ctx, model.TodoFilter{SearchTerm: "foo"})
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Foo bar" {
		t.Errorf("search: got %+v", got)
	}
}

func TestRemoteUpdateUnknownIsNotFound(t *testing.T) {
	_, err := newRemote(t).Update(context.Background(), "nope", model.TodoPatch{Completed: model.Bool(true)})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestRemoteFailures(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	r := remoteFor(t, srv.URL)

	if _, err := r.GetAll(ctx, model.TodoFilter{}); !errors.Is(err, model.ErrBackendUnavailable) {
		t.Errorf("GetAll: got %v, want ErrBackendUnavailable", err)
	}
	if _, err := r.GetByID(ctx, "x"); err == nil {
		t.Error("GetByID: 500 should propagate")
	}
	if _, err := r.Create(ctx, model.NewTodo{Title: "x"}); err == nil {
		t.Error("Create: 500 should propagate")
	}
	if r.Delete(ctx, "x") {
		t.Error("Delete: got true on 500")
	}
}

func TestRemoteBadTimestampFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"1","title":"x","completed":false,"createdAt":"not a time"}]`))
	}))
	t.Cleanup(srv.Close)
	if _, err := remoteFor(t, srv.URL).GetAll(context.Background(), model.TodoFilter{}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFilterQuery(t *testing.T) {
	q := repository.FilterQuery(model.TodoFilter{Completed: model.Bool(false), SearchTerm: "a b"})
	if got := q.Encode(); got != "completed=false&searchTerm=a+b" {
		t.Errorf("Encode: got %q", got)
	}
	if got := repository.FilterQuery(model.TodoFilter{}).Encode(); got != "" {
		t.Errorf("empty filter: got %q", got)
	}
}

func TestRemoteEscapesIDOnce(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	var uris []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		uris = append(uris, r.Method+" "+r.RequestURI)
		mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	r := remoteFor(t, srv.URL)

	if got, err := r.GetByID(ctx, "a b"); err != nil || got != nil {
		t.Fatalf("GetByID: got %v, %v", got, err)
	}
	if !r.Delete(ctx, "a b") {
		t.Fatal("Delete: got false")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"GET /todos/a%20b", "DELETE /todos/a%20b"}
	if len(uris) != len(want) {
		t.Fatalf("requests: got %v", uris)
	}
	for i := range want {
		if uris[i] != want[i] {
			t.Errorf("request %d: got %q, want %q", i, uris[i], want[i])
		}
	}
}

func TestRemoteIDWithSpaceRoundTrip(t *testing.T) {
	ctx := context.Background()
	backing := &oneTodoRepo{id: "a b"}
	srv := httptest.NewServer(server.Router(backing, server.Options{Logger: logging.Discard()}))
	t.Cleanup(srv.Close)
	r := remoteFor(t, srv.URL)

	created, err := r.Create(ctx, model.NewTodo{Title: "spaced"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "a b" {
		t.Fatalf("id: got %q", created.ID)
	}
	got, err := r.GetByID(ctx, "a b")
	if err != nil || got == nil || got.Title != "spaced" {
		t.Fatalf("GetByID: got %+v, %v", got, err)
	}
	if _, err := r.Update(ctx, "a b", model.TodoPatch{Completed: model.Bool(true)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !r.Delete(ctx, "a b") {
		t.Fatal("Delete: got false")
	}
}

// oneTodoRepo holds at most one todo, always under id.
type oneTodoRepo struct {
	mu   sync.Mutex
	id   string
	todo *model.Todo
}

func (o *oneTodoRepo) GetAll(_ context.Context, f model.TodoFilter) ([]model.Todo, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.todo == nil {
		return []model.Todo{}, nil
	}
	return f.Filter([]model.Todo{*o.todo}), nil
}

func (o *oneTodoRepo) GetByID(_ context.Context, id string) (*model.Todo, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.todo == nil || id != o.id {
		return nil, nil
	}
	t := *o.todo
	return &t, nil
}

func (o *oneTodoRepo) Create(_ context.Context, in model.NewTodo) (model.Todo, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	t := model.Todo{ID: o.id, Title: in.Title, Description: in.Description, Completed: in.Completed, CreatedAt: in.CreatedAt}
	o.todo = &t
	return t, nil
}

func (o *oneTodoRepo) Update(_ context.Context, id string, p model.TodoPatch) (model.Todo, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.todo == nil || id != o.id {
		return model.Todo{}, model.ErrNotFound
	}
	t := p.Apply(*o.todo)
	o.todo = &t
	return t, nil
}

func (o *oneTodoRepo) Delete(_ context.Context, id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.todo == nil || id != o.id {
		return false
	}
	o.todo = nil
	return true
}
