package handlers

import (
	"time"

	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/types"
)

const dateLayout = "2006-01-02"

// Response shapes. One struct per (resource, operation) variant: list
// responses flatten the parent to a display label, detail responses nest the
// full object.

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func newUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
}

type WorkspaceResponse struct {
	ID         uint         `json:"id"`
	Name       string       `json:"name"`
	CreatedBy  UserResponse `json:"created_by"`
	ImageURL   string       `json:"image_url"`
	InviteLink string       `json:"invite_link"`
}

func newWorkspaceResponse(workspace models.Workspace) WorkspaceResponse {
	return WorkspaceResponse{
		ID:         workspace.ID,
		Name:       workspace.Name,
		CreatedBy:  newUserResponse(workspace.Owner),
		ImageURL:   workspace.ImageURL,
		InviteLink: workspace.InviteToken,
	}
}

type ProjectResponse struct {
	ID          uint      `json:"id"`
	Workspace   string    `json:"workspace"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newProjectResponse(project models.Project) ProjectResponse {
	return ProjectResponse{
		ID:          project.ID,
		Workspace:   project.Workspace.Name,
		Name:        project.Name,
		Description: project.Description,
		ImageURL:    project.ImageURL,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
}

type MemberResponse struct {
	ID          uint         `json:"id"`
	WorkspaceID uint         `json:"workspace_id"`
	User        UserResponse `json:"user"`
	Role        string       `json:"role"`
}

func newMemberResponse(member models.WorkspaceMember) MemberResponse {
	return MemberResponse{
		ID:          member.ID,
		WorkspaceID: member.WorkspaceID,
		User:        newUserResponse(member.User),
		Role:        member.Role,
	}
}

// TaskResponse is the list shape: project reduced to its name so list
// payloads stay small.
type TaskResponse struct {
	ID          uint          `json:"id"`
	Project     string        `json:"project"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	AssignedTo  *UserResponse `json:"assigned_to"`
	Status      string        `json:"status"`
	DueDate     *string       `json:"due_date"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TaskDetailResponse is the single-item shape with the project expanded.
type TaskDetailResponse struct {
	ID          uint            `json:"id"`
	Project     ProjectResponse `json:"project"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	AssignedTo  *UserResponse   `json:"assigned_to"`
	Status      string          `json:"status"`
	DueDate     *string         `json:"due_date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func formatDueDate(dueDate *time.Time) *string {
	if dueDate == nil {
		return nil
	}

	formatted := dueDate.Format(dateLayout)
	return &formatted
}

func taskAssignee(task models.Task) *UserResponse {
	if task.Assignee == nil {
		return nil
	}

	assignee := newUserResponse(*task.Assignee)
	return &assignee
}

func newTaskResponse(task models.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Project:     task.Project.Name,
		Title:       task.Title,
		Description: task.Description,
		AssignedTo:  taskAssignee(task),
		Status:      task.Status,
		DueDate:     formatDueDate(task.DueDate),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

func newTaskDetailResponse(task models.Task) TaskDetailResponse {
	return TaskDetailResponse{
		ID:          task.ID,
		Project:     newProjectResponse(task.Project),
		Title:       task.Title,
		Description: task.Description,
		AssignedTo:  taskAssignee(task),
		Status:      task.Status,
		DueDate:     formatDueDate(task.DueDate),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// getMembership returns the caller's membership record in the workspace, or
// gorm.ErrRecordNotFound when they hold none.
func getMembership(userID uint, workspaceID uint) (models.WorkspaceMember, error) {
	var membership models.WorkspaceMember

	err := db.DB.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).First(&membership).Error

	return membership, err
}

// isWorkspaceAdmin reports whether the caller holds the admin role in the
// workspace or is its owner. The owner keeps these rights even if their
// membership row is downgraded or removed.
func isWorkspaceAdmin(userID uint, workspace models.Workspace) bool {
	if workspace.OwnerID == userID {
		return true
	}

	membership, err := getMembership(userID, workspace.ID)

	return err == nil && membership.Role == types.RoleAdmin
}
