package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Hritabrataghosh/neon-tasks/internal/auth"
	dom "github.com/Hritabrataghosh/neon-tasks/internal/domain"
	"github.com/Hritabrataghosh/neon-tasks/internal/dto"
	"github.com/Hritabrataghosh/neon-tasks/internal/repo"
	"github.com/Hritabrataghosh/neon-tasks/internal/service"
)

type TaskHandler struct {
	svc *service.TaskService
}

func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// List godoc
// @Summary      List tasks with filtering and sorting
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        status    query  string  false  "active or completed"
// @Param        priority  query  string  false  "exact priority match"
// @Param        category  query  string  false  "exact category match"
// @Param        search    query  string  false  "substring over title/description"
// @Param        sort      query  string  false  "newest (default), oldest, priority, dueDate"
// @Success      200  {array}   dto.TaskResponse
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /todos [get]
func (h *TaskHandler) List(c *gin.Context) {
	filter := repo.ListFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	}
	list, err := h.svc.List(c.Request.Context(), auth.UserIDFromContext(c), filter)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasksToResponses(list))
}

// GetByID godoc
// @Summary      Get a task by ID
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  dto.TaskResponse
// @Failure      404  {object}  map[string]string
// @Router       /todos/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	t, err := h.svc.Get(c.Request.Context(), auth.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskToResponse(t))
}

// Create godoc
// @Summary      Create a task
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CreateTaskRequest  true  "Task body"
// @Success      201   {object}  dto.TaskResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /todos [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.svc.Create(c.Request.Context(), auth.UserIDFromContext(c), service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
		DueDate:     req.DueDate.Ptr(),
		Tags:        req.Tags,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyTitle) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "title"})
			return
		}
		internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, taskToResponse(t))
}

// Update godoc
// @Summary      Replace a task's editable fields
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Task ID"
// @Param        body  body      dto.UpdateTaskRequest  true  "Editable fields"
// @Success      200   {object}  dto.TaskResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /todos/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.svc.Update(c.Request.Context(), auth.UserIDFromContext(c), c.Param("id"), service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
		DueDate:     req.DueDate.Ptr(),
		Tags:        req.Tags,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		case errors.Is(err, service.ErrEmptyTitle):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": "title"})
		default:
			internalError(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, taskToResponse(t))
}

// Delete godoc
// @Summary      Delete a task
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  dto.DeleteTaskResponse
// @Failure      404  {object}  map[string]string
// @Router       /todos/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.Delete(c.Request.Context(), auth.UserIDFromContext(c), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DeleteTaskResponse{Message: "Deleted successfully", ID: id})
}

// Toggle godoc
// @Summary      Flip a task's completed flag
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  dto.TaskResponse
// @Failure      404  {object}  map[string]string
// @Router       /todos/{id}/toggle [patch]
func (h *TaskHandler) Toggle(c *gin.Context) {
	t, err := h.svc.Toggle(c.Request.Context(), auth.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, taskToResponse(t))
}

// BulkDeleteCompleted godoc
// @Summary      Delete all completed tasks
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.BulkDeleteResponse
// @Failure      500  {object}  map[string]string
// @Router       /todos/bulk/completed [delete]
func (h *TaskHandler) BulkDeleteCompleted(c *gin.Context) {
	n, err := h.svc.DeleteCompleted(c.Request.Context(), auth.UserIDFromContext(c))
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.BulkDeleteResponse{
		Message: strconv.FormatInt(n, 10) + " tasks deleted",
		Count:   n,
	})
}

// Stats godoc
// @Summary      Summary statistics for the dashboard panel
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.StatsResponse
// @Failure      500  {object}  map[string]string
// @Router       /todos/stats [get]
func (h *TaskHandler) Stats(c *gin.Context) {
	overview, rate, err := h.svc.Summary(c.Request.Context(), auth.UserIDFromContext(c))
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.StatsResponse{
		Overview:       overviewToResponse(overview),
		CompletionRate: rate,
	})
}

// DashboardStats godoc
// @Summary      Full analytics view
// @Tags         todos
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.DashboardStatsResponse
// @Failure      500  {object}  map[string]string
// @Router       /todos/stats/dashboard [get]
func (h *TaskHandler) DashboardStats(c *gin.Context) {
	stats, err := h.svc.Dashboard(c.Request.Context(), auth.UserIDFromContext(c))
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DashboardStatsResponse{
		Overview:       overviewToResponse(stats.Overview),
		CompletionRate: stats.CompletionRate,
		ByCategory:     bucketsToResponses(stats.ByCategory),
		ByPriority:     bucketsToResponses(stats.ByPriority),
		Activity:       activityToResponses(stats.Activity),
	})
}

// internalError hides store detail from the caller.
func internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func taskToResponse(t dom.Task) dto.TaskResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.TaskResponse{
		ID:          t.ID.Hex(),
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Category:    t.Category,
		Completed:   t.Completed,
		DueDate:     t.DueDate,
		Tags:        tags,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func tasksToResponses(list []dom.Task) []dto.TaskResponse {
	out := make([]dto.TaskResponse, len(list))
	for i := range list {
		out[i] = taskToResponse(list[i])
	}
	return out
}

func overviewToResponse(o dom.Overview) dto.OverviewResponse {
	return dto.OverviewResponse{
		Total:        o.Total,
		Completed:    o.Completed,
		Pending:      o.Pending,
		HighPriority: o.HighPriority,
		Overdue:      o.Overdue,
	}
}

func bucketsToResponses(buckets []dom.Bucket) []dto.BucketResponse {
	out := make([]dto.BucketResponse, len(buckets))
	for i, b := range buckets {
		out[i] = dto.BucketResponse{Value: b.Value, Count: b.Count}
	}
	return out
}

func activityToResponses(days []dom.DayCount) []dto.ActivityResponse {
	out := make([]dto.ActivityResponse, len(days))
	for i, d := range days {
		out[i] = dto.ActivityResponse{Date: d.Date, Count: d.Count}
	}
	return out
}
