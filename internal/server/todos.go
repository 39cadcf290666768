package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/repository"
)

type handler struct {
	repo   repository.Repository
	logger *log.Logger
	lists  singleflight.Group
}

func health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func toDTOs(todos []model.Todo) []api.TodoDTO {
	out := make([]api.TodoDTO, 0, len(todos))
	for _, t := range todos {
		out = append(out, api.FromTodo(t))
	}
	return out
}

func parseFilter(c *gin.Context) (model.TodoFilter, error) {
	var f model.TodoFilter
	if v := c.Query("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, err
		}
		f.Completed = &b
	}
	f.SearchTerm = c.Query("searchTerm")
	return f, nil
}

// list collapses identical concurrent queries into one repository read.
func (h *handler) list(c *gin.Context) {
	ctx := c.Request.Context()
	f, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "completed must be true or false"})
		return
	}
	key := c.Request.URL.RawQuery
	v, err, _ := h.lists.Do(key, func() (interface{}, error) {
		return h.repo.GetAll(ctx, f)
	})
	if err != nil {
		h.logger.Error("list todos failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get todos"})
		return
	}
	c.JSON(http.StatusOK, toDTOs(v.([]model.Todo)))
}

func (h *handler) get(c *gin.Context) {
	t, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("get todo failed", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get todo"})
		return
	}
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		return
	}
	c.JSON(http.StatusOK, api.FromTodo(*t))
}

func (h *handler) create(c *gin.Context) {
	var body api.TodoDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if strings.TrimSpace(body.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	in, err := body.ToNewTodo()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.repo.Create(c.Request.Context(), in)
	if err != nil {
		h.logger.Error("create todo failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create todo"})
		return
	}
	c.JSON(http.StatusCreated, api.FromTodo(t))
}

func (h *handler) update(c *gin.Context) {
	var body api.PatchDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if body.Title != nil && strings.TrimSpace(*body.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title must not be empty"})
		return
	}
	patch, err := body.ToPatch()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.repo.Update(c.Request.Context(), c.Param("id"), patch)
	if errors.Is(err, model.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		return
	}
	if err != nil {
		h.logger.Error("update todo failed", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update todo"})
		return
	}
	c.JSON(http.StatusOK, api.FromTodo(t))
}

func (h *handler) delete(c *gin.Context) {
	if !h.repo.Delete(c.Request.Context(), c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
