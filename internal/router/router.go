package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskhive-dev/taskhive/internal/handlers"
	"github.com/taskhive-dev/taskhive/internal/middleware"
	"github.com/taskhive-dev/taskhive/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
			auth.POST("/social", handlers.SocialLogin)
			auth.POST("/refresh", handlers.RefreshToken)
			auth.POST("/verify", handlers.VerifyToken)
			auth.GET("/current", middleware.AuthMiddleware(), handlers.CurrentUser)
		}

		workspaces := api.Group("/workspaces", middleware.AuthMiddleware())
		{
			workspaces.POST("", handlers.CreateWorkspace)
			workspaces.GET("", handlers.ListWorkspaces)
			workspaces.POST("/join", handlers.JoinWorkspace)
			workspaces.GET("/:workspace_id", handlers.GetWorkspace)
			workspaces.PATCH("/:workspace_id", handlers.UpdateWorkspace)
			workspaces.DELETE("/:workspace_id", handlers.DeleteWorkspace)
			workspaces.POST("/:workspace_id/regenerate-invite", handlers.RegenerateInvite)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.POST("", handlers.CreateProject)
			projects.GET("", handlers.ListProjects)
			projects.GET("/:project_id", handlers.GetProject)
			projects.PATCH("/:project_id", handlers.UpdateProject)
			projects.DELETE("/:project_id", handlers.DeleteProject)
		}

		tasks := api.Group("/tasks", middleware.AuthMiddleware())
		{
			tasks.POST("", handlers.CreateTask)
			tasks.GET("", handlers.ListTasks)
			tasks.GET("/:task_id", handlers.GetTask)
			tasks.PATCH("/:task_id", handlers.UpdateTask)
			tasks.DELETE("/:task_id", handlers.DeleteTask)
		}

		members := api.Group("/members", middleware.AuthMiddleware())
		{
			members.GET("", handlers.ListMembers)
			members.POST("", handlers.CreateMember)
			members.PATCH("/:member_id", handlers.UpdateMember)
			members.DELETE("/:member_id", handlers.RemoveMember)
		}
	}

	return r
}
