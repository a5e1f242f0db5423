package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/auth"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/social"
)

// SocialAdapter is wired at startup; tests point it at fake providers.
var SocialAdapter *social.Adapter

type SocialLoginRequest struct {
	Provider string `json:"provider" binding:"required"`
	Token    string `json:"token"`
	Code     string `json:"code"`
}

type SocialLoginResponse struct {
	Refresh  string       `json:"refresh"`
	Access   string       `json:"access"`
	User     UserResponse `json:"user"`
	Created  bool         `json:"created"`
	Provider string       `json:"provider"`
}

func SocialLogin(ctx *gin.Context) {
	var req SocialLoginRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	identity, err := SocialAdapter.Resolve(req.Provider, req.Token, req.Code)

	if err != nil {
		status := http.StatusBadRequest

		var upstream *social.UpstreamError

		if errors.As(err, &upstream) {
			status = upstream.StatusCode
		}

		ctx.JSON(status, gin.H{"error": err.Error()})
		return
	}

	// Get-or-create by email: the unique index on users.email collapses
	// concurrent first logins from the same federated identity onto one row.
	email := strings.ToLower(identity.Email)

	var user models.User

	result := db.DB.Where(models.User{Email: email}).
		Attrs(models.User{Username: identity.Username}).
		FirstOrCreate(&user)

	created := result.RowsAffected > 0

	if result.Error != nil {
		// A lost race against a concurrent first login trips the unique
		// index; the row exists now, so fetch it.
		if err := db.DB.Where("email = ?", email).First(&user).Error; err != nil {
			log.Printf("Failed to federate %s identity: %v", req.Provider, result.Error)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		created = false
	}

	pair, err := auth.GenerateTokenPair(user.ID, user.Email)

	if err != nil {
		log.Printf("Failed to generate tokens: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, SocialLoginResponse{
		Refresh:  pair.Refresh,
		Access:   pair.Access,
		User:     newUserResponse(user),
		Created:  created,
		Provider: req.Provider,
	})
}
