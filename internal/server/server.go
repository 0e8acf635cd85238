package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"brigade-service/config"
	"brigade-service/internal/domain/image"
	"brigade-service/internal/domain/user"
	"brigade-service/internal/handler"
	"brigade-service/internal/middleware"
	"brigade-service/internal/transport/httpdto"
	"brigade-service/pkg/database"
	"brigade-service/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

// multipartMemory is how much of a multipart body gin keeps in memory before
// spilling parts to temp files.
const multipartMemory = 32 << 20

type Handlers struct {
	Auth      *handler.AuthHandler
	Donations *handler.DonationHandler
	Reports   *handler.ReportHandler
	Posts     *handler.PostHandler
	Vacancies *handler.VacancyHandler
	Images    *handler.ImageHandler
	Admin     *handler.AdminHandler
}

// Deps are the cross-cutting pieces the routes need besides handlers.
type Deps struct {
	Tokens  middleware.TokenParser
	Limiter middleware.Limiter
	Metrics http.Handler
	Health  func() error
}

func New(cfg *config.Config, l *logger.Logger) *Server {
	if cfg.AppMode == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.AppMode == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.MaxMultipartMemory = multipartMemory

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%s", cfg.AppPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine: engine,
		config: cfg,
		logger: l,
	}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) SetupRoutes(h *Handlers, deps Deps) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.CORS(s.config.CORSOrigins))
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	health := deps.Health
	if health == nil {
		health = database.HealthCheck
	}

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	if deps.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	admin := []gin.HandlerFunc{middleware.AuthMiddleware(deps.Tokens), middleware.RequireRole(user.RoleAdmin)}
	adminOnly := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, admin...), fn)
	}

	api := s.engine.Group("/api", middleware.BodyLimit(s.config.MaxRequestBytes()))

	auth := api.Group("/auth", middleware.AuthRateLimit(deps.Limiter))
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
	}

	donations := api.Group("/donations")
	{
		donations.GET("", h.Donations.List)
		donations.GET("/:id", h.Donations.Get)
		donations.GET("/:id/reports", h.Donations.ListReports)
		donations.GET("/:id/link", middleware.RedirectRateLimit(deps.Limiter), h.Donations.Redirect)
		donations.POST("", adminOnly(h.Donations.Create)...)
		donations.PUT("/:id", adminOnly(h.Donations.Update)...)
		donations.DELETE("/:id", adminOnly(h.Donations.Delete)...)
		donations.PATCH("/:id/complete", adminOnly(h.Donations.ToggleComplete)...)
		donations.POST("/:id/reports", adminOnly(h.Donations.CreateReport)...)
	}

	reports := api.Group("/reports")
	{
		reports.GET("", h.Reports.List)
		reports.GET("/:id", h.Reports.Get)
		reports.POST("", adminOnly(h.Reports.Create)...)
		reports.PUT("/:id", adminOnly(h.Reports.Update)...)
		reports.DELETE("/:id", adminOnly(h.Reports.Delete)...)
	}

	posts := api.Group("/posts")
	{
		posts.GET("", h.Posts.List)
		posts.GET("/:id", h.Posts.Get)
		posts.POST("", adminOnly(h.Posts.Create)...)
		posts.PUT("/:id", adminOnly(h.Posts.Update)...)
		posts.DELETE("/:id", adminOnly(h.Posts.Delete)...)
	}

	vacancies := api.Group("/vacancies")
	{
		vacancies.GET("", h.Vacancies.List)
		vacancies.GET("/:id", h.Vacancies.Get)
		vacancies.POST("", adminOnly(h.Vacancies.Create)...)
		vacancies.PUT("/:id", adminOnly(h.Vacancies.Update)...)
		vacancies.DELETE("/:id", adminOnly(h.Vacancies.Delete)...)
	}

	images := api.Group("/images")
	{
		images.GET("/donations/:id/view", h.Images.DonationImageURL)
		images.POST("/donations/:id", adminOnly(h.Images.ReplaceDonationImage)...)
		images.DELETE("/donations/:id", adminOnly(h.Images.RemoveDonationImage)...)

		for segment, kind := range map[string]image.OwnerKind{
			"reports": image.KindReport,
			"posts":   image.KindPost,
		} {
			g := images.Group("/" + segment)
			g.GET("/:id", h.Images.List(kind))
			g.GET("/:id/:imageId/view", h.Images.URL(kind))
			g.POST("/:id", adminOnly(h.Images.Attach(kind))...)
			g.POST("/:id/presign", adminOnly(h.Images.Presign(kind))...)
			g.POST("/:id/confirm", adminOnly(h.Images.Confirm(kind))...)
			g.DELETE("/:id/:imageId", adminOnly(h.Images.Remove(kind))...)
		}
	}

	api.POST("/admin/sweep", adminOnly(h.Admin.Sweep)...)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.AppPort)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
			return err
		}
		return nil
	case <-ctx.Done():
	}

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
