package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/taskhive-dev/taskhive/db"
	"github.com/taskhive-dev/taskhive/internal/auth"
	"github.com/taskhive-dev/taskhive/internal/models"
	"github.com/taskhive-dev/taskhive/internal/router"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type userPayload struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type authPayload struct {
	Refresh string      `json:"refresh"`
	Access  string      `json:"access"`
	User    userPayload `json:"user"`
}

type workspacePayload struct {
	ID         uint        `json:"id"`
	Name       string      `json:"name"`
	CreatedBy  userPayload `json:"created_by"`
	ImageURL   string      `json:"image_url"`
	InviteLink string      `json:"invite_link"`
}

type memberPayload struct {
	ID          uint        `json:"id"`
	WorkspaceID uint        `json:"workspace_id"`
	User        userPayload `json:"user"`
	Role        string      `json:"role"`
}

type projectPayload struct {
	ID          uint   `json:"id"`
	Workspace   string `json:"workspace"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type taskPayload struct {
	ID          uint            `json:"id"`
	Project     json.RawMessage `json:"project"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	AssignedTo  *userPayload    `json:"assigned_to"`
	Status      string          `json:"status"`
	DueDate     *string         `json:"due_date"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()

	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, auth.InitJWTSecret())

	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&models.User{},
		&models.Workspace{},
		&models.WorkspaceMember{},
		&models.Project{},
		&models.Task{},
	))

	db.DB = gdb

	return router.NewRouter()
}

func do(t *testing.T, r *gin.Engine, method string, path string, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

// registerUser creates an account through the API and returns its access
// token and user payload.
func registerUser(t *testing.T, r *gin.Engine, email string) (string, userPayload) {
	t.Helper()

	rec := do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp authPayload
	decode(t, rec, &resp)

	return resp.Access, resp.User
}

// createWorkspace creates a workspace through the API.
func createWorkspace(t *testing.T, r *gin.Engine, token string, name string) workspacePayload {
	t.Helper()

	rec := do(t, r, http.MethodPost, "/api/workspaces", token, gin.H{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp workspacePayload
	decode(t, rec, &resp)

	return resp
}

// joinWorkspace joins via invite token, asserting the expected status.
func joinWorkspace(t *testing.T, r *gin.Engine, token string, inviteLink string, wantStatus int) {
	t.Helper()

	rec := do(t, r, http.MethodPost, "/api/workspaces/join", token, gin.H{"invite_link": inviteLink})
	require.Equal(t, wantStatus, rec.Code, rec.Body.String())
}

// createProject creates a project through the API.
func createProject(t *testing.T, r *gin.Engine, token string, workspaceID uint, name string) projectPayload {
	t.Helper()

	rec := do(t, r, http.MethodPost, "/api/projects", token, gin.H{
		"workspace": workspaceID,
		"name":      name,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp projectPayload
	decode(t, rec, &resp)

	return resp
}

// createTask creates a task through the API.
func createTask(t *testing.T, r *gin.Engine, token string, projectID uint, title string, extra gin.H) taskPayload {
	t.Helper()

	body := gin.H{"project": projectID, "title": title}

	for key, value := range extra {
		body[key] = value
	}

	rec := do(t, r, http.MethodPost, "/api/tasks", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp taskPayload
	decode(t, rec, &resp)

	return resp
}

// membershipCount reads the membership table directly.
func membershipCount(t *testing.T, workspaceID uint) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.DB.Model(&models.WorkspaceMember{}).Where("workspace_id = ?", workspaceID).Count(&count).Error)

	return count
}
