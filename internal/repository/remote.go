package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/model"
)

// DefaultBasePath is where the todo resource lives on the API.
const DefaultBasePath = "/todos"

// Remote talks to a todo API over the given client. Timestamps cross the wire
// as RFC 3339 text and are parsed back on every returned record.
type Remote struct {
	client   *api.Client
	basePath string
	logger   *log.Logger
	now      func() time.Time
}

func NewRemote(client *api.Client, basePath string, logger *log.Logger) *Remote {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Remote{
		client:   client,
		basePath: "/" + strings.Trim(basePath, "/"),
		logger:   logger,
		now:      time.Now,
	}
}

func (r *Remote) itemPath(id string) string {
	return r.basePath + "/" + url.PathEscape(id)
}

func (r *Remote) decode(d api.TodoDTO) (model.Todo, error) {
	t, err := d.ToTodo(r.now())
	if err != nil {
		return model.Todo{}, fmt.Errorf("decode todo %s: %w", d.ID, err)
	}
	return t, nil
}

// FilterQuery encodes a filter as the API's query parameters.
func FilterQuery(f model.TodoFilter) url.Values {
	q := url.Values{}
	if f.Completed != nil {
		q.Set("completed", strconv.FormatBool(*f.Completed))
	}
	if f.SearchTerm != "" {
		q.Set("searchTerm", f.SearchTerm)
	}
	return q
}

func (r *Remote) GetAll(ctx context.Context, filter model.TodoFilter) ([]model.Todo, error) {
	var dtos []api.TodoDTO
	if err := r.client.Get(ctx, r.basePath, FilterQuery(filter), &dtos); err != nil {
		r.logger.Error("error fetching todos", "error", err)
		return nil, fmt.Errorf("fetch todos: %w", err)
	}
	todos := make([]model.Todo, 0, len(dtos))
	for _, d := range dtos {
		t, err := r.decode(d)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, nil
}

func (r *Remote) GetByID(ctx context.Context, id string) (*model.Todo, error) {
	var d api.TodoDTO
	if err := r.client.Get(ctx, r.itemPath(id), nil, &d); err != nil {
		if api.IsStatus(err, http.StatusNotFound) {
			return nil, nil
		}
		r.logger.Error("error fetching todo", "id", id, "error", err)
		return nil, fmt.Errorf("fetch todo %s: %w", id, err)
	}
	t, err := r.decode(d)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Remote) Create(ctx context.Context, in model.NewTodo) (model.Todo, error) {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = r.now()
	}
	var d api.TodoDTO
	if err := r.client.Post(ctx, r.basePath, api.FromNewTodo(in), &d); err != nil {
		r.logger.Error("error creating todo", "error", err)
		return model.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return r.decode(d)
}

func (r *Remote) Update(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, error) {
	if patch.UpdatedAt == nil {
		now := r.now()
		patch.UpdatedAt = &now
	}
	var d api.TodoDTO
	if err := r.client.Put(ctx, r.itemPath(id), api.FromPatch(patch), &d); err != nil {
		r.logger.Error("error updating todo", "id", id, "error", err)
		return model.Todo{}, fmt.Errorf("update todo %s: %w", id, err)
	}
	return r.decode(d)
}

// Delete swallows every transport failure into false.
func (r *Remote) Delete(ctx context.Context, id string) bool {
	if err := r.client.Delete(ctx, r.itemPath(id), nil); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			r.logger.Debug("delete: todo not found", "id", id)
		} else {
			r.logger.Error("error deleting todo", "id", id, "error", err)
		}
		return false
	}
	return true
}
