// Package state holds the todo list presentation observes and keeps it in
// step with the active backend.
package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/repository"
	"github.com/Makepad-fr/tada/internal/usecase"
)

// Backend selects which repository implementation is active.
type Backend string

const (
	BackendLocal  Backend = "local"
	BackendRemote Backend = "remote"
)

// ParseBackend accepts "local" and "remote".
func ParseBackend(s string) (Backend, error) {
	switch Backend(s) {
	case BackendLocal, BackendRemote:
		return Backend(s), nil
	}
	return "", fmt.Errorf("unknown backend %q (want local or remote)", s)
}

// Factory builds a fresh repository for a backend.
type Factory func(Backend) (repository.Repository, error)

// Snapshot is the observable state.
type Snapshot struct {
	Todos   []model.Todo
	Loading bool
	Err     string
	Filter  model.TodoFilter
	Backend Backend
}

// Coordinator is safe for concurrent use. Repository calls run without the
// lock held; results are applied only if they still belong to the latest
// fetch and the current repository.
type Coordinator struct {
	mu      sync.Mutex
	factory Factory
	logger  *log.Logger

	repo    repository.Repository
	uc      *usecase.Set
	repoGen uint64
	fetchID uint64

	todos   []model.Todo
	loading bool
	err     string
	filter  model.TodoFilter
	backend Backend

	subs   map[int]func(Snapshot)
	nextID int
}

// New builds the repository for initial. It does not fetch.
func New(factory Factory, initial Backend, logger *log.Logger) (*Coordinator, error) {
	if logger == nil {
		logger = log.Default()
	}
	repo, err := factory(initial)
	if err != nil {
		return nil, fmt.Errorf("init %s backend: %w", initial, err)
	}
	return &Coordinator{
		factory: factory,
		logger:  logger,
		repo:    repo,
		uc:      usecase.New(repo),
		repoGen: 1,
		backend: initial,
		todos:   []model.Todo{},
		subs:    map[int]func(Snapshot){},
	}, nil
}

// Snapshot returns a copy of the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	todos := make([]model.Todo, len(c.todos))
	copy(todos, c.todos)
	return Snapshot{
		Todos:   todos,
		Loading: c.loading,
		Err:     c.err,
		Filter:  c.filter,
		Backend: c.backend,
	}
}

// Subscribe registers fn to run after every state change. fn runs on the
// goroutine that made the change and must not call back into c synchronously.
func (c *Coordinator) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// changed must be called with mu held; it unlocks before notifying.
func (c *Coordinator) changed() {
	snap := c.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

// current returns the active use cases and the generation of their repository.
func (c *Coordinator) current() (*usecase.Set, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.uc, c.repoGen
}

// SetBackend swaps in a new repository and refetches. Selecting the active
// backend does nothing.
func (c *Coordinator) SetBackend(ctx context.Context, b Backend) error {
	c.mu.Lock()
	if b == c.backend {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	repo, err := c.factory(b)
	if err != nil {
		err = fmt.Errorf("switch to %s backend: %w", b, err)
		c.mu.Lock()
		c.err = err.Error()
		c.changed()
		return err
	}

	c.mu.Lock()
	c.repo = repo
	c.uc = usecase.New(repo)
	c.repoGen++
	c.backend = b
	c.logger.Debug("backend switched", "backend", b)
	c.changed()
	return c.Fetch(ctx)
}

// SetFilter stores f and refetches.
func (c *Coordinator) SetFilter(ctx context.Context, f model.TodoFilter) error {
	c.mu.Lock()
	c.filter = f
	c.changed()
	return c.Fetch(ctx)
}

// Fetch reloads the list from the active repository. On failure the list is
// left as it was and the error message is recorded.
func (c *Coordinator) Fetch(ctx context.Context) error {
	c.mu.Lock()
	c.fetchID++
	token := c.fetchID
	uc, filter := c.uc, c.filter
	c.loading = true
	c.err = ""
	c.changed()

	todos, err := uc.GetTodos.Execute(ctx, filter)

	c.mu.Lock()
	if token != c.fetchID {
		c.mu.Unlock()
		c.logger.Debug("dropping stale fetch result", "fetch", token)
		return nil
	}
	c.loading = false
	if err != nil {
		c.err = err.Error()
		c.logger.Error("error fetching todos", "error", err)
	} else {
		c.todos = todos
	}
	c.changed()
	return err
}

// record stores err as the visible error message.
func (c *Coordinator) record(err error) {
	c.mu.Lock()
	c.err = err.Error()
	c.changed()
}

// patch applies fn to the cached list if gen is still the active repository,
// then re-applies the active filter.
func (c *Coordinator) patch(gen uint64, fn func([]model.Todo) []model.Todo) {
	c.mu.Lock()
	if gen != c.repoGen {
		c.mu.Unlock()
		return
	}
	c.todos = c.filter.Filter(fn(c.todos))
	c.changed()
}

// GetByID records failures and returns nil for them and for unknown ids.
func (c *Coordinator) GetByID(ctx context.Context, id string) *model.Todo {
	uc, _ := c.current()
	t, err := uc.GetTodoByID.Execute(ctx, id)
	if err != nil {
		c.logger.Error("error getting todo", "id", id, "error", err)
		c.record(err)
		return nil
	}
	return t
}

func (c *Coordinator) Create(ctx context.Context, in model.NewTodo) (model.Todo, error) {
	uc, gen := c.current()
	t, err := uc.CreateTodo.Execute(ctx, in)
	if err != nil {
		c.logger.Error("error creating todo", "error", err)
		c.record(err)
		return model.Todo{}, err
	}
	c.patch(gen, func(todos []model.Todo) []model.Todo {
		return append(todos, t)
	})
	return t, nil
}

func (c *Coordinator) Update(ctx context.Context, id string, p model.TodoPatch) (model.Todo, error) {
	uc, gen := c.current()
	t, err := uc.UpdateTodo.Execute(ctx, id, p)
	if err != nil {
		c.logger.Error("error updating todo", "id", id, "error", err)
		c.record(err)
		return model.Todo{}, err
	}
	c.patch(gen, replace(t))
	return t, nil
}

func (c *Coordinator) Toggle(ctx context.Context, id string) (model.Todo, error) {
	uc, gen := c.current()
	t, err := uc.ToggleTodo.Execute(ctx, id)
	if err != nil {
		c.logger.Error("error toggling todo", "id", id, "error", err)
		c.record(err)
		return model.Todo{}, err
	}
	c.patch(gen, replace(t))
	return t, nil
}

// Delete removes id from the cache only when the backend reported a removal.
func (c *Coordinator) Delete(ctx context.Context, id string) bool {
	uc, gen := c.current()
	if !uc.DeleteTodo.Execute(ctx, id) {
		return false
	}
	c.patch(gen, func(todos []model.Todo) []model.Todo {
		out := todos[:0:0]
		for _, t := range todos {
			if t.ID != id {
				out = append(out, t)
			}
		}
		return out
	})
	return true
}

func replace(updated model.Todo) func([]model.Todo) []model.Todo {
	return func(todos []model.Todo) []model.Todo {
		out := make([]model.Todo, len(todos))
		for i, t := range todos {
			if t.ID == updated.ID {
				t = updated
			}
			out[i] = t
		}
		return out
	}
}
