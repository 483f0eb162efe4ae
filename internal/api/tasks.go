package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskmate/internal/db"
	"taskmate/internal/models"
)

func (h *Handler) CreateTask(c *gin.Context) {
	var req models.TaskCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task name, date, and time are required"})
		return
	}

	date, err := models.NormalizeDate(req.TaskDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task_date, expected YYYY-MM-DD"})
		return
	}
	clock, err := models.NormalizeClock(req.TaskTime)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task_time, expected HH:MM"})
		return
	}
	req.TaskDate = date
	req.TaskTime = clock

	user := currentUser(c)
	id, err := h.db.CreateTask(c.Request.Context(), user.ID, req)
	if err != nil {
		h.logger.Errorf("Failed to create task for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	h.logger.Infof("Created task %d for user %d", id, user.ID)
	c.JSON(http.StatusCreated, gin.H{"task_id": id})
}

func (h *Handler) GetTasks(c *gin.Context) {
	user := currentUser(c)
	date := c.Query("date")
	if date != "" {
		normalized, err := models.NormalizeDate(date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
		date = normalized
	}

	tasks, err := h.db.GetTasksByUserID(c.Request.Context(), user.ID, date)
	if err != nil {
		h.logger.Errorf("Failed to get tasks for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get tasks"})
		return
	}

	h.markOverdue(tasks)
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *Handler) GetTasksByDate(c *gin.Context) {
	date, err := models.NormalizeDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	user := currentUser(c)
	tasks, err := h.db.GetTasksByUserID(c.Request.Context(), user.ID, date)
	if err != nil {
		h.logger.Errorf("Failed to get tasks for user %d on %s: %v", user.ID, date, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get tasks"})
		return
	}

	h.markOverdue(tasks)
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// markOverdue stamps the display-only overdue flag. The persisted
// status is not touched; lateness only becomes permanent at completion.
func (h *Handler) markOverdue(tasks []models.Task) {
	now := time.Now()
	grace := h.config.Scheduler.OverdueGrace
	for i := range tasks {
		tasks[i].IsOverdue = tasks[i].Overdue(now, grace)
	}
}

func (h *Handler) UpdateTask(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task id"})
		return
	}

	var req models.TaskUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.TaskDate != nil {
		date, err := models.NormalizeDate(*req.TaskDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task_date, expected YYYY-MM-DD"})
			return
		}
		req.TaskDate = &date
	}
	if req.TaskTime != nil {
		clock, err := models.NormalizeClock(*req.TaskTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task_time, expected HH:MM"})
			return
		}
		req.TaskTime = &clock
	}

	user := currentUser(c)
	if err := h.db.UpdateTask(c.Request.Context(), taskID, user.ID, req); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found or unauthorized"})
			return
		}
		h.logger.Errorf("Failed to update task %d: %v", taskID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": true})
}

// MarkTaskDone is the completion handler: the one place a task leaves
// pending. The terminal status is derived from the alert counter at
// the instant of completion.
func (h *Handler) MarkTaskDone(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task id"})
		return
	}

	user := currentUser(c)
	status, err := h.db.CompleteTask(c.Request.Context(), taskID, user.ID, time.Now())
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found or unauthorized"})
			return
		}
		h.logger.Errorf("Failed to complete task %d: %v", taskID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete task"})
		return
	}

	h.logger.Infof("Task %d completed by user %d with status %s", taskID, user.ID, status)
	h.hub.TaskCompleted(user.ID, taskID, status)

	message := "Task marked as done on time!"
	if status == models.StatusLate {
		message = "Task completed but marked as late submission"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"is_late": status == models.StatusLate,
		"message": message,
	})
}

func (h *Handler) DeleteTask(c *gin.Context) {
	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task id"})
		return
	}

	user := currentUser(c)
	if err := h.db.DeleteTask(c.Request.Context(), taskID, user.ID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found or unauthorized"})
			return
		}
		h.logger.Errorf("Failed to delete task %d: %v", taskID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
