package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gestao-backend/api-service/handlers"
	"gestao-backend/api-service/middleware"
	"gestao-backend/api-service/ws"
	_ "gestao-backend/docs"
	"gestao-backend/shared/config"
	"gestao-backend/shared/database"
	"gestao-backend/shared/logger"
	"gestao-backend/shared/permissions"
	"gestao-backend/shared/storage"
)

// @title Gestao API
// @version 1.0
// @description Multi-tenant business management API: companies, teams, projects, goals and messaging.
// @host localhost:8000
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	config.LoadConfig()
	cfg := config.GetConfig()
	log := logger.Get()
	defer log.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// The service stays up without redis; membership checks then hit the
	// database directly.
	cache, err := permissions.NewMembershipCache(cfg)
	if err != nil {
		log.Warn("membership cache unavailable, falling back to database lookups", zap.Error(err))
		cache = nil
	}
	defer cache.Close()

	perms := permissions.NewChecker(db, cache)

	// Same degradation for avatar storage: uploads 503 until MinIO is back.
	var avatars storage.AvatarStore
	if minioStore, err := storage.NewMinIOStorage(cfg); err != nil {
		log.Warn("avatar storage unavailable", zap.Error(err))
	} else {
		avatars = minioStore
	}

	hub := ws.NewHub(cfg)

	router := setupRouter(cfg, db, perms, avatars, hub)

	srv := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("api service listening", zap.String("port", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
}

func setupRouter(cfg *config.Config, db *gorm.DB, perms *permissions.Checker, avatars storage.AvatarStore, hub *ws.Hub) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "api-service"})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authHandler := handlers.NewAuthHandler(db)
	companyHandler := handlers.NewCompanyHandler(db, perms)
	membershipHandler := handlers.NewUserCompanyHandler(db, perms)
	projectHandler := handlers.NewProjectHandler(db, perms)
	goalHandler := handlers.NewGoalHandler(db, perms)
	messageHandler := handlers.NewMessageHandler(db, perms, hub)
	userHandler := handlers.NewUserHandler(db, perms, avatars)

	loginLimiter := middleware.NewRateLimiter(10 * time.Minute)
	loginLimit := loginLimiter.LoginRateLimitMiddleware(middleware.RateLimitConfig{
		MaxRequests:   cfg.GetLoginRateLimitMaxAttempts(),
		TimeWindow:    time.Duration(cfg.GetLoginRateLimitWindowSeconds()) * time.Second,
		BlockDuration: time.Duration(cfg.GetLoginRateLimitBlockMinutes()) * time.Minute,
	})

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", loginLimit, authHandler.Register)
		authRoutes.POST("/login", loginLimit, authHandler.Login)
		authRoutes.POST("/refresh", authHandler.Refresh)
		authRoutes.GET("/me", middleware.AuthMiddleware(), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
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

		protected.GET("/ws", func(c *gin.Context) {
			userID := c.GetUint(middleware.ContextUserID)
			if err := hub.Serve(c.Writer, c.Request, userID); err != nil {
				logger.Get().Warn("websocket upgrade failed", zap.Error(err))
			}
		})
	}

	return router
}
