package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/invite"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/types"
	"github.com/taskhive-dev/taskhive/internal/utils"
	"gorm.io/gorm"
)

type CreateWorkspaceRequest struct {
	Name     string `json:"name" binding:"required"`
	ImageURL string `json:"image_url"`
}

type UpdateWorkspaceRequest struct {
	Name     string  `json:"name"`
	ImageURL *string `json:"image_url"`
}

type JoinWorkspaceRequest struct {
	InviteLink string `json:"invite_link"`
}

// findVisibleWorkspace resolves a workspace only if the caller holds a
// membership in it, mirroring how every read is scoped.
func findVisibleWorkspace(userID uint, workspaceID string) (models.Workspace, error) {
	var workspace models.Workspace

	err := db.DB.
		Joins("JOIN workspace_members ON workspace_members.workspace_id = workspaces.id").
		Where("workspace_members.user_id = ? AND workspaces.id = ?", userID, workspaceID).
		Preload("Owner").
		First(&workspace).Error

	return workspace, err
}

// CreateWorkspace persists the workspace, makes the creator its first admin
// member and assigns an invite token, all inside one transaction.
func CreateWorkspace(ctx *gin.Context) {
	var req CreateWorkspaceRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	workspace := models.Workspace{
		Name:     req.Name,
		OwnerID:  currentUser.ID,
		ImageURL: req.ImageURL,
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&workspace).Error; err != nil {
			return err
		}

		membership := models.WorkspaceMember{
			WorkspaceID: workspace.ID,
			UserID:      currentUser.ID,
			Role:        types.RoleAdmin,
		}

		if err := tx.Create(&membership).Error; err != nil {
			return err
		}

		return invite.Assign(tx, &workspace)
	})

	if err != nil {
		log.Printf("Failed to create workspace: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create workspace"})
		return
	}

	ctx.JSON(http.StatusCreated, WorkspaceResponse{
		ID:   workspace.ID,
		Name: workspace.Name,
		CreatedBy: UserResponse{
			ID:       currentUser.ID,
			Username: currentUser.Username,
			Email:    currentUser.Email,
		},
		ImageURL:   workspace.ImageURL,
		InviteLink: workspace.InviteToken,
	})
}

func ListWorkspaces(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var workspaces []models.Workspace

	if err := db.DB.
		Joins("JOIN workspace_members ON workspace_members.workspace_id = workspaces.id").
		Where("workspace_members.user_id = ?", userID).
		Distinct("workspaces.*").
		Preload("Owner").
		Find(&workspaces).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve workspaces"})
		return
	}

	response := make([]WorkspaceResponse, 0, len(workspaces))

	for _, workspace := range workspaces {
		response = append(response, newWorkspaceResponse(workspace))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetWorkspace(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	workspace, err := findVisibleWorkspace(userID, ctx.Param("workspace_id"))

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Workspace not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve workspace"})
		}
		return
	}

	ctx.JSON(http.StatusOK, newWorkspaceResponse(workspace))
}

func UpdateWorkspace(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateWorkspaceRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	workspace, err := findVisibleWorkspace(userID, ctx.Param("workspace_id"))

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Workspace not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve workspace"})
		}
		return
	}

	if req.Name != "" {
		workspace.Name = req.Name
	}

	if req.ImageURL != nil {
		workspace.ImageURL = *req.ImageURL
	}

	if err := db.DB.Save(&workspace).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update workspace"})
		return
	}

	ctx.JSON(http.StatusOK, newWorkspaceResponse(workspace))
}

// DeleteWorkspace requires the admin role or owner identity. The delete is a
// real delete so the CASCADE constraints take projects, tasks and
// memberships with it.
func DeleteWorkspace(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var workspace models.Workspace

	if err := db.DB.Where("id = ?", ctx.Param("workspace_id")).First(&workspace).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Workspace not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve workspace"})
		}
		return
	}

	membership, err := getMembership(userID, workspace.ID)

	if err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this workspace"})
		return
	}

	if membership.Role != types.RoleAdmin && workspace.OwnerID != userID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only admin/creator can delete this workspace"})
		return
	}

	if err := db.DB.Unscoped().Delete(&workspace).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete workspace"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// JoinWorkspace adds the caller as a member of the workspace matching the
// invite token. Joining a workspace the caller already belongs to is a no-op.
func JoinWorkspace(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req JoinWorkspaceRequest

	if err := ctx.BindJSON(&req); err != nil || req.InviteLink == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invite link required"})
		return
	}

	var workspace models.Workspace

	if err := db.DB.Where("invite_token = ?", req.InviteLink).First(&workspace).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invite link"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve workspace"})
		}
		return
	}

	if _, err := getMembership(currentUser.ID, workspace.ID); err == nil {
		ctx.JSON(http.StatusOK, gin.H{"message": "Already a member"})
		return
	}

	membership := models.WorkspaceMember{
		WorkspaceID: workspace.ID,
		UserID:      currentUser.ID,
		Role:        types.RoleMember,
	}

	if err := db.DB.Create(&membership).Error; err != nil {
		log.Printf("Failed to create membership: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join workspace"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"message": fmt.Sprintf("Joined %s successfully!", workspace.Name)})
}

// RegenerateInvite is owner-only, stricter than the admin-or-owner gate used
// elsewhere. The old link stops working the moment the new token is written.
func RegenerateInvite(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	workspace, err := findVisibleWorkspace(userID, ctx.Param("workspace_id"))

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Workspace not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve workspace"})
		}
		return
	}

	if workspace.OwnerID != userID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only creator can regenerate invite link"})
		return
	}

	if err := invite.Assign(db.DB, &workspace); err != nil {
		log.Printf("Failed to regenerate invite token: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to regenerate invite link"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"invite_link": workspace.InviteToken})
}
