package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
)

// DefaultStorageKey is the slot the local repository reads and writes.
const DefaultStorageKey = "todos"

// Local keeps todos in memory and mirrors the whole list into a storage slot
// after each mutation. If the slot cannot be loaded or written, persistence is
// switched off for the rest of the session and the repository keeps working
// from memory.
type Local struct {
	mu         sync.Mutex
	storage    store.Storage
	key        string
	persist    bool
	todos      []model.Todo
	logger     *log.Logger
	now        func() time.Time
	generateID func() string
}

// NewLocal loads the current list from storage. It never fails.
func NewLocal(storage store.Storage, key string, logger *log.Logger) *Local {
	if key == "" {
		key = DefaultStorageKey
	}
	if logger == nil {
		logger = log.Default()
	}
	l := &Local{
		storage:    storage,
		key:        key,
		persist:    storage != nil,
		todos:      []model.Todo{},
		logger:     logger,
		now:        time.Now,
		generateID: uuid.NewString,
	}
	if storage == nil {
		return l
	}
	todos, err := l.load()
	if err != nil {
		l.logger.Warn("failed to load local todos; continuing in memory only", "key", key, "error", err)
		l.persist = false
		return l
	}
	l.todos = todos
	return l
}

func (l *Local) load() ([]model.Todo, error) {
	raw, ok, err := l.storage.GetItem(l.key)
	if err != nil {
		return nil, err
	}
	if !ok || len(bytes.TrimSpace([]byte(raw))) == 0 {
		return []model.Todo{}, nil
	}
	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if err := validateBlob(doc); err != nil {
		return nil, err
	}
	var todos []model.Todo
	if err := json.Unmarshal([]byte(raw), &todos); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return todos, nil
}

// Persistent reports whether mutations are still being written to storage.
func (l *Local) Persistent() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persist
}

// save must be called with mu held.
func (l *Local) save() {
	if !l.persist {
		return
	}
	b, err := json.MarshalIndent(l.todos, "", "  ")
	if err == nil {
		err = l.storage.SetItem(l.key, string(b))
	}
	if err != nil {
		l.logger.Warn("failed to save local todos; continuing in memory only", "key", l.key, "error", err)
		l.persist = false
	}
}

func (l *Local) indexOf(id string) int {
	for i, t := range l.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (l *Local) GetAll(_ context.Context, filter model.TodoFilter) ([]model.Todo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return filter.Filter(l.todos), nil
}

func (l *Local) GetByID(_ context.Context, id string) (*model.Todo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.indexOf(id); i >= 0 {
		t := l.todos[i]
		return &t, nil
	}
	return nil, nil
}

func (l *Local) Create(_ context.Context, in model.NewTodo) (model.Todo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t := model.Todo{
		ID:          l.generateID(),
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
		CreatedAt:   in.CreatedAt,
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = l.now()
	}
	l.todos = append(l.todos, t)
	l.save()
	return t, nil
}

func (l *Local) Update(_ context.Context, id string, patch model.TodoPatch) (model.Todo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(id)
	if i < 0 {
		return model.Todo{}, fmt.Errorf("update %s: %w", id, model.ErrNotFound)
	}
	if patch.UpdatedAt == nil {
		now := l.now()
		patch.UpdatedAt = &now
	}
	t := patch.Apply(l.todos[i])
	l.todos[i] = t
	l.save()
	return t, nil
}

func (l *Local) Delete(_ context.Context, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexOf(id)
	if i < 0 {
		return false
	}
	l.todos = append(l.todos[:i:i], l.todos[i+1:]...)
	l.save()
	return true
}
