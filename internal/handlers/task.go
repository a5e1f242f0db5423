package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/types"
	"github.com/taskhive-dev/taskhive/internal/utils"
	"gorm.io/gorm"
)

type CreateTaskRequest struct {
	Project     uint   `json:"project" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	AssignedTo  *uint  `json:"assigned_to"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title         string  `json:"title"`
	Description   *string `json:"description"`
	AssignedTo    *uint   `json:"assigned_to"`
	ClearAssignee bool    `json:"clear_assignee"`
	Status        string  `json:"status"`
	DueDate       *string `json:"due_date"`
}

// findVisibleTask resolves a task only if the caller holds a membership in
// its project's workspace.
func findVisibleTask(userID uint, taskID string) (models.Task, error) {
	var task models.Task

	err := db.DB.
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Joins("JOIN workspace_members ON workspace_members.workspace_id = projects.workspace_id").
		Where("workspace_members.user_id = ? AND tasks.id = ?", userID, taskID).
		Preload("Project").
		Preload("Project.Workspace").
		Preload("Assignee").
		First(&task).Error

	return task, err
}

func parseDueDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	parsed, err := time.Parse(dateLayout, value)

	if err != nil {
		return nil, err
	}

	return &parsed, nil
}

// resolveAssignee checks that an assignee id points at an existing user.
func resolveAssignee(assigneeID *uint) error {
	if assigneeID == nil {
		return nil
	}

	var user models.User
	return db.DB.First(&user, *assigneeID).Error
}

func loadAssignee(task *models.Task) {
	if task.AssigneeID == nil {
		task.Assignee = nil
		return
	}

	var assignee models.User

	if err := db.DB.First(&assignee, *task.AssigneeID).Error; err == nil {
		task.Assignee = &assignee
	}
}

func CreateTask(ctx *gin.Context) {
	var req CreateTaskRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var project models.Project

	if err := db.DB.First(&project, req.Project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	if _, err := getMembership(userID, project.WorkspaceID); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	status := req.Status

	if status == "" {
		status = types.StatusTodo
	}

	if !types.ValidTaskStatus(status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	dueDate, err := parseDueDate(req.DueDate)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid due date, expected YYYY-MM-DD"})
		return
	}

	if err := resolveAssignee(req.AssignedTo); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee not found"})
		return
	}

	task := models.Task{
		ProjectID:   req.Project,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssignedTo,
		Status:      status,
		DueDate:     dueDate,
	}

	if err := db.DB.Create(&task).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	task.Project = project
	loadAssignee(&task)

	ctx.JSON(http.StatusCreated, newTaskResponse(task))
}

// ListTasks returns the caller's visible tasks with all filters AND-combined;
// absent filters are no-ops.
func ListTasks(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	query := db.DB.Model(&models.Task{}).
		Joins("JOIN projects ON projects.id = tasks.project_id").
		Joins("JOIN workspace_members ON workspace_members.workspace_id = projects.workspace_id").
		Where("workspace_members.user_id = ?", userID).
		Distinct("tasks.*")

	if workspaceID := ctx.Query("workspace"); workspaceID != "" {
		query = query.Where("projects.workspace_id = ?", workspaceID)
	}

	if projectID := ctx.Query("project"); projectID != "" {
		query = query.Where("tasks.project_id = ?", projectID)
	}

	if assignedTo := ctx.Query("assigned_to"); assignedTo != "" {
		query = query.Where("tasks.assignee_id = ?", assignedTo)
	}

	if status := ctx.Query("status"); status != "" {
		query = query.Where("tasks.status = ?", status)
	}

	if search := ctx.Query("search"); search != "" {
		query = query.Where("LOWER(tasks.title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	if dueDate := ctx.Query("due_date"); dueDate != "" {
		parsed, err := parseDueDate(dueDate)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid due date, expected YYYY-MM-DD"})
			return
		}

		query = query.Where("tasks.due_date = ?", parsed)
	}

	var tasks []models.Task

	if err := query.Preload("Project").Preload("Assignee").Find(&tasks).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	response := make([]TaskResponse, 0, len(tasks))

	for _, task := range tasks {
		response = append(response, newTaskResponse(task))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, err := findVisibleTask(userID, ctx.Param("task_id"))

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	ctx.JSON(http.StatusOK, newTaskDetailResponse(task))
}

func UpdateTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateTaskRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	task, err := findVisibleTask(userID, ctx.Param("task_id"))

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	if req.Title != "" {
		task.Title = req.Title
	}

	if req.Description != nil {
		task.Description = *req.Description
	}

	if req.Status != "" {
		if !types.ValidTaskStatus(req.Status) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		task.Status = req.Status
	}

	if req.DueDate != nil {
		dueDate, err := parseDueDate(*req.DueDate)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid due date, expected YYYY-MM-DD"})
			return
		}

		task.DueDate = dueDate
	}

	if req.ClearAssignee {
		task.AssigneeID = nil
		task.Assignee = nil
	} else if req.AssignedTo != nil {
		if err := resolveAssignee(req.AssignedTo); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignee not found"})
			return
		}
		task.AssigneeID = req.AssignedTo
	}

	updates := map[string]interface{}{
		"title":       task.Title,
		"description": task.Description,
		"status":      task.Status,
		"due_date":    task.DueDate,
		"assignee_id": task.AssigneeID,
	}

	if err := db.DB.Model(&task).Updates(updates).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	loadAssignee(&task)

	ctx.JSON(http.StatusOK, newTaskResponse(task))
}

func DeleteTask(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	task, err := findVisibleTask(userID, ctx.Param("task_id"))

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	if err := db.DB.Unscoped().Delete(&task).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
