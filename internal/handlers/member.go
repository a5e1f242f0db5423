package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/types"
	"github.com/taskhive-dev/taskhive/internal/utils"
	"gorm.io/gorm"
)

type UpdateMemberRequest struct {
	Role string `json:"role"`
}

// findVisibleMember resolves a membership only if the caller belongs to the
// same workspace.
func findVisibleMember(userID uint, memberID string) (models.WorkspaceMember, error) {
	var member models.WorkspaceMember

	err := db.DB.
		Joins("JOIN workspace_members AS own ON own.workspace_id = workspace_members.workspace_id").
		Where("own.user_id = ? AND workspace_members.id = ?", userID, memberID).
		Preload("User").
		Preload("Workspace").
		First(&member).Error

	return member, err
}

func ListMembers(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var members []models.WorkspaceMember

	if err := db.DB.
		Joins("JOIN workspace_members AS own ON own.workspace_id = workspace_members.workspace_id").
		Where("own.user_id = ?", userID).
		Distinct("workspace_members.*").
		Preload("User").
		Find(&members).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve members"})
		return
	}

	response := make([]MemberResponse, 0, len(members))

	for _, member := range members {
		response = append(response, newMemberResponse(member))
	}

	ctx.JSON(http.StatusOK, response)
}

// CreateMember always refuses: membership only comes into existence as a
// side effect of creating a workspace or joining via an invite link.
func CreateMember(ctx *gin.Context) {
	ctx.JSON(http.StatusForbidden, gin.H{"error": "Members cannot be created manually. Join via invite link."})
}

func UpdateMember(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateMemberRequest

	if err := ctx.BindJSON(&req); err != nil || req.Role == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Role is required"})
		return
	}

	if !types.ValidRole(req.Role) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	member, err := findVisibleMember(userID, ctx.Param("member_id"))

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve member"})
		}
		return
	}

	if !isWorkspaceAdmin(userID, member.Workspace) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only admin/creator can update member role"})
		return
	}

	member.Role = req.Role

	if err := db.DB.Model(&member).Update("role", req.Role).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update member"})
		return
	}

	ctx.JSON(http.StatusOK, newMemberResponse(member))
}

func RemoveMember(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	member, err := findVisibleMember(userID, ctx.Param("member_id"))

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve member"})
		}
		return
	}

	if !isWorkspaceAdmin(userID, member.Workspace) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only admin/creator can remove members"})
		return
	}

	if err := db.DB.Delete(&member).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
