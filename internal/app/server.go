// File: internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"campus_lostfound_backend/internal/auth"
	"campus_lostfound_backend/internal/chat"
	"campus_lostfound_backend/internal/claim"
	"campus_lostfound_backend/internal/common"
	"campus_lostfound_backend/internal/config"
	"campus_lostfound_backend/internal/connection"
	"campus_lostfound_backend/internal/filestorage"
	"campus_lostfound_backend/internal/item"
	"campus_lostfound_backend/internal/jobs"
	"campus_lostfound_backend/internal/middleware"
	"campus_lostfound_backend/internal/notification"
	"campus_lostfound_backend/internal/realtime"
	"campus_lostfound_backend/internal/shared"
	"campus_lostfound_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Models lists every persisted model, in migration order.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&item.Item{},
		&claim.Claim{},
		&connection.Request{},
		&connection.Message{},
		&chat.Message{},
		&chat.Chat{},
		&notification.Notification{},
	}
}

// Server struct holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	AppLogger  *zap.Logger

	searchIndex item.SearchIndex
	hub         *realtime.Hub
	reminderJob *jobs.PendingClaimsReminderJob
}

// NewServer assembles the router. Handlers register their own route groups under /api.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	verifier shared.TokenVerifier,
	messageLimiter *middleware.UserRateLimiter,
	storage *filestorage.FileStorageService,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	itemHandler *item.Handler,
	claimHandler *claim.Handler,
	connectionHandler *connection.Handler,
	chatHandler *chat.Handler,
	notificationHandler *notification.Handler,
	realtimeHandler *realtime.Handler,
	searchIndex item.SearchIndex,
	hub *realtime.Hub,
	reminderJob *jobs.PendingClaimsReminderJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	if len(corsConfig.AllowOrigins) == 0 || (len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*") {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(verifier, logger.Named("AuthMiddleware"))
	adminRoleMW := middleware.RoleAuthMiddleware(common.RoleAdmin)
	var messageLimitMW gin.HandlerFunc
	if messageLimiter != nil {
		messageLimitMW = messageLimiter.Middleware()
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Campus lost-and-found API is healthy!"})
	})
	if storage != nil && strings.HasPrefix(cfg.ImagePublicBaseURL, "/") {
		router.Static(cfg.ImagePublicBaseURL, storage.StoragePath())
	}

	api := router.Group("/api")
	authHandler.RegisterRoutes(api, authMW)
	userHandler.RegisterRoutes(api, authMW, adminRoleMW)
	itemHandler.RegisterRoutes(api, authMW, adminRoleMW)
	claimHandler.RegisterRoutes(api, authMW, adminRoleMW)
	connectionHandler.RegisterRoutes(api, authMW, messageLimitMW)
	chatHandler.RegisterRoutes(api, authMW, messageLimitMW)
	notificationHandler.RegisterRoutes(api, authMW)
	realtimeHandler.RegisterRoutes(api, authMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		httpServer:  httpServer,
		router:      router,
		cfg:         cfg,
		AppLogger:   logger,
		searchIndex: searchIndex,
		hub:         hub,
		reminderJob: reminderJob,
	}, nil
}

// Router exposes the engine for in-process tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start() error {
	if s.searchIndex != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := s.searchIndex.EnsureIndex(ctx); err != nil {
			s.AppLogger.Error("Failed to create Elasticsearch items index; text search falls back to the database", zap.Error(err))
		}
		cancel()
	} else {
		s.AppLogger.Info("Elasticsearch not configured, using database search.")
	}

	if s.reminderJob != nil {
		if err := s.reminderJob.SetupAndStart(); err != nil {
			s.AppLogger.Error("Failed to setup and start claim reminder job", zap.Error(err))
		}
	}

	s.AppLogger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.AppLogger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.AppLogger.Info("HTTP Server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.AppLogger.Info("Attempting graceful server shutdown...")
	if s.reminderJob != nil {
		s.reminderJob.Stop()
	}
	if s.hub != nil {
		s.hub.Close()
	}
	return s.httpServer.Shutdown(ctx)
}
