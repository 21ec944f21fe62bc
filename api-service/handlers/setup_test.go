package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"gestao-backend/api-service/middleware"
	"gestao-backend/api-service/ws"
	"gestao-backend/shared/database"
	"gestao-backend/shared/database/models"
	"gestao-backend/shared/logger"
	"gestao-backend/shared/permissions"
	"gestao-backend/shared/storage"
	"gestao-backend/shared/utils/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.SetForTesting(zap.NewNop())
}

// newTestDB opens an isolated in-memory database with the full schema
// and foreign keys enforced.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and makes
	// the pragma stick.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)

	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	perms  *permissions.Checker
	hub    *ws.Hub
}

// stubAvatarStore returns a fixed URL without touching real storage.
type stubAvatarStore struct {
	url string
	err error
}

func (s *stubAvatarStore) UploadAvatar(_ context.Context, _ io.Reader, _ int64, _, _ string) (string, error) {
	return s.url, s.err
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	perms := permissions.NewChecker(db, nil)

	env := &testEnv{db: db, perms: perms}
	env.router = env.buildRouter(&stubAvatarStore{url: "http://storage.local/avatars/test.png"})
	return env
}

func (e *testEnv) buildRouter(avatars storage.AvatarStore) *gin.Engine {
	router := gin.New()

	authHandler := NewAuthHandler(e.db)
	companyHandler := NewCompanyHandler(e.db, e.perms)
	membershipHandler := NewUserCompanyHandler(e.db, e.perms)
	projectHandler := NewProjectHandler(e.db, e.perms)
	goalHandler := NewGoalHandler(e.db, e.perms)
	messageHandler := NewMessageHandler(e.db, e.perms, e.hub)
	userHandler := NewUserHandler(e.db, e.perms, avatars)

	api := router.Group("/api")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.GET("/auth/me", middleware.AuthMiddleware(), authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	protected.GET("/companies", companyHandler.GetCompanies)
	protected.GET("/companies/:id", companyHandler.GetCompany)
	protected.POST("/companies", companyHandler.CreateCompany)
	protected.PUT("/companies/:id", companyHandler.UpdateCompany)
	protected.DELETE("/companies/:id", companyHandler.DeleteCompany)

	protected.GET("/user-companies", membershipHandler.GetMemberships)
	protected.POST("/user-companies", membershipHandler.CreateMembership)
	protected.PUT("/user-companies/:id", membershipHandler.UpdateMembership)
	protected.DELETE("/user-companies/:id", membershipHandler.DeleteMembership)

	protected.GET("/projects", projectHandler.GetProjects)
	protected.POST("/projects", projectHandler.CreateProject)
	protected.PUT("/projects/:id", projectHandler.UpdateProject)
	protected.DELETE("/projects/:id", projectHandler.DeleteProject)

	protected.GET("/goals", goalHandler.GetGoals)
	protected.POST("/goals", goalHandler.CreateGoal)
	protected.PUT("/goals/:id", goalHandler.UpdateGoal)
	protected.PUT("/goals/:id/progress", goalHandler.UpdateProgress)
	protected.DELETE("/goals/:id", goalHandler.DeleteGoal)

	protected.GET("/messages", messageHandler.GetThread)
	protected.POST("/messages", messageHandler.SendMessage)
	protected.PUT("/messages/read", messageHandler.MarkRead)

	protected.GET("/users", userHandler.GetUsers)
	protected.GET("/users/:id", userHandler.GetUser)
	protected.PUT("/users/:id", userHandler.UpdateUser)
	protected.POST("/users/:id/avatar", userHandler.UploadAvatar)
	protected.DELETE("/users/:id", userHandler.DeleteUser)

	return router
}

func (e *testEnv) createUser(t *testing.T, name, email, role string) models.User {
	t.Helper()

	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)

	user := models.User{FullName: name, Email: email, Password: hash, Role: role}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

func (e *testEnv) createCompany(t *testing.T, name string) models.Company {
	t.Helper()

	company := models.Company{Name: name, Active: true}
	require.NoError(t, e.db.Create(&company).Error)
	return company
}

func (e *testEnv) addMembership(t *testing.T, user models.User, company models.Company, role permissions.CompanyRole) models.UserCompany {
	t.Helper()

	membership := models.UserCompany{UserID: user.ID, CompanyID: company.ID, Role: string(role)}
	require.NoError(t, e.db.Create(&membership).Error)
	return membership
}

func (e *testEnv) token(t *testing.T, user models.User) string {
	t.Helper()

	token, err := auth.GenerateJWT(user.ID, user.Email, user.Role)
	require.NoError(t, err)
	return token
}

// do performs a JSON request against the test router.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decodeData unmarshals the data field of a response envelope.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope),
		"body: %s", w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "body: %s", w.Body.String())
}
