package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nxquan/prepmate/config"
	"github.com/nxquan/prepmate/database"
	_ "github.com/nxquan/prepmate/docs" // Swagger docs - auto-generated
	authctrl "github.com/nxquan/prepmate/internal/controller/auth"
	billingctrl "github.com/nxquan/prepmate/internal/controller/billing"
	chatctrl "github.com/nxquan/prepmate/internal/controller/chat"
	interviewctrl "github.com/nxquan/prepmate/internal/controller/interview"
	"github.com/nxquan/prepmate/internal/logger"
	"github.com/nxquan/prepmate/internal/middleware"
	"github.com/nxquan/prepmate/internal/model"
	"github.com/nxquan/prepmate/internal/repository"
	"github.com/nxquan/prepmate/internal/service"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title PrepMate Interview Prep API
// @version 1.0
// @description API for AI-assisted mock interviews, coaching chat and subscription billing.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()

	app := fx.New(
		// Core application components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		// Repositories layer
		fx.Provide(
			repository.NewUserRepository,
			repository.NewSessionRepository,
			repository.NewChatRepository,
			repository.NewSubscriptionRepository,
		),

		// Services layer
		fx.Provide(
			service.NewGeminiLLMService,
			service.NewResumeExtractor,
			service.NewInterviewService,
			service.NewAuthService,
			service.NewChatService,
			service.NewBillingService,
		),

		// API controllers layer
		fx.Provide(
			authctrl.NewAuthController,
			interviewctrl.NewInterviewController,
			chatctrl.NewChatController,
			billingctrl.NewBillingController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
		fx.Invoke(StartUploadCleanup),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.Server.GinMode)

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Be more specific in production
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages the server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	authService service.AuthService,
	authController *authctrl.AuthController,
	interviewController *interviewctrl.InterviewController,
	chatController *chatctrl.ChatController,
	billingController *billingctrl.BillingController,
) {
	api := router.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authController.Register)
		authGroup.POST("/login", authController.Login)
		authGroup.GET("/me", middleware.Auth(authService), authController.Me)
		authGroup.DELETE("/me", middleware.Auth(authService), authController.DeleteAccount)
	}

	// Webhook authenticates with its own shared secret, not a user token.
	api.POST("/billing/webhook", billingController.Webhook)

	protected := api.Group("", middleware.Auth(authService))
	{
		interviews := protected.Group("/interviews")
		interviews.GET("", interviewController.ListSessions)
		interviews.POST("/start", interviewController.StartInterview)
		interviews.POST("/answer", interviewController.SubmitAnswer)
		interviews.GET("/session/:id", interviewController.GetSession)

		chat := protected.Group("/chat")
		chat.POST("", chatController.SendMessage)
		chat.GET("/history", chatController.History)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("PrepMate API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.InterviewSession{},
		&model.ChatMessage{},
		&model.Subscription{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}

// StartUploadCleanup prunes expired resume uploads on a schedule.
func StartUploadCleanup(lc fx.Lifecycle, extractor service.ResumeExtractor) {
	c := cron.New()
	if _, err := c.AddFunc("@hourly", func() {
		if _, err := extractor.PruneUploads(); err != nil {
			log.Warn().Err(err).Msg("Upload cleanup run failed")
		}
	}); err != nil {
		log.Error().Err(err).Msg("Failed to schedule upload cleanup job")
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			c.Stop()
			return nil
		},
	})
}
