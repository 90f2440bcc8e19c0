package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Falcon-J/saathi/internal/http/dto"
	"github.com/Falcon-J/saathi/internal/http/middleware"
	"github.com/Falcon-J/saathi/internal/model"
	"github.com/Falcon-J/saathi/internal/service"
)

type TaskHandler struct {
	tasks service.TaskService
}

func NewTaskHandler(tasks service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) List(c *gin.Context) {
	session := middleware.GetSession(c.Request.Context())

	tasks, err := h.tasks.List(c.Request.Context(), c.Param("workspace_id"), session.Email)
	if err != nil {
		respondError(c, err, "failed to list tasks")
		return
	}
	c.JSON(http.StatusOK, dto.TaskListResponse{Tasks: tasks})
}

func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: title is required"})
		return
	}
	session := middleware.GetSession(c.Request.Context())

	task, err := h.tasks.Create(c.Request.Context(), c.Param("workspace_id"), session.Email, service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Categories:  req.Categories,
	})
	if err != nil {
		respondError(c, err, "failed to create task")
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) Update(c *gin.Context) {
	var req model.TaskUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	session := middleware.GetSession(c.Request.Context())

	task, err := h.tasks.Update(c.Request.Context(), c.Param("workspace_id"), c.Param("task_id"), session.Email, req)
	if err != nil {
		respondError(c, err, "failed to update task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Toggle(c *gin.Context) {
	session := middleware.GetSession(c.Request.Context())

	task, err := h.tasks.Toggle(c.Request.Context(), c.Param("workspace_id"), c.Param("task_id"), session.Email)
	if err != nil {
		respondError(c, err, "failed to toggle task")
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) Delete(c *gin.Context) {
	session := middleware.GetSession(c.Request.Context())

	if err := h.tasks.Delete(c.Request.Context(), c.Param("workspace_id"), c.Param("task_id"), session.Email); err != nil {
		respondError(c, err, "failed to delete task")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) Assign(c *gin.Context) {
	var req dto.AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	session := middleware.GetSession(c.Request.Context())

	task, err := h.tasks.Assign(c.Request.Context(), c.Param("workspace_id"), c.Param("task_id"), session.Email, req.AssignedTo)
	if err != nil {
		respondError(c, err, "failed to assign task")
		return
	}
	c.JSON(http.StatusOK, task)
}
