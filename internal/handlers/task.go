package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/daily-tracker/internal/errors"
	"github.com/yukikurage/daily-tracker/internal/middleware"
	"github.com/yukikurage/daily-tracker/internal/models"
	"github.com/yukikurage/daily-tracker/internal/repository"
	"github.com/yukikurage/daily-tracker/internal/services"
)

const (
	entityTask = "task"
	taskKey    = "task"
)

type TaskHandler struct {
	taskService *services.TaskService
	events      Broadcaster
}

func NewTaskHandler(taskService *services.TaskService, events Broadcaster) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		events:      events,
	}
}

func (h *TaskHandler) LoadTask() gin.HandlerFunc {
	return middleware.RequireOwnership(taskKey, h.taskService.Get)
}

// ListTasks returns the user's tasks, newest first.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	tasks, err := h.taskService.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
	})
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.Loaded[models.Task](c, taskKey)
	if !ok {
		apierrors.NotFound(c, "")
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateTask rejects a URL already added within the duplicate window with
// 409.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	type CreateTaskRequest struct {
		Title     string     `json:"title" binding:"required"`
		Company   string     `json:"company"`
		URL       string     `json:"url"`
		Type      string     `json:"type"`
		Completed bool       `json:"completed"`
		AddedDate *time.Time `json:"addedDate"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), currentUserID(c), services.CreateTaskInput{
		Title:     req.Title,
		Company:   req.Company,
		URL:       req.URL,
		Type:      req.Type,
		Completed: req.Completed,
		AddedDate: req.AddedDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.events.Broadcast(event(entityTask, actionCreated), task)
	c.JSON(http.StatusCreated, task)
}

// CheckDuplicate reports whether url was added in the duplicate window.
func (h *TaskHandler) CheckDuplicate(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		apierrors.BadRequest(c, "url is required")
		return
	}

	duplicate, err := h.taskService.IsDuplicate(c.Request.Context(), currentUserID(c), url)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"duplicate": duplicate})
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var patch repository.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), currentUserID(c), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}

	h.events.Broadcast(event(entityTask, actionUpdated), task)
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id := c.Param("id")
	if err := h.taskService.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}

	h.events.Broadcast(event(entityTask, actionDeleted), deletedPayload{ID: id})
	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}
