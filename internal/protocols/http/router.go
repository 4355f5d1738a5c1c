package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"lessonhub/internal/core"
	"lessonhub/pkg/config"
)

// Server manages the HTTP REST API
type Server struct {
	router      *gin.Engine
	config      *config.Config
	authSvc     core.AuthService
	otpSvc      core.OTPService
	lessonSvc   core.LessonService
	progressSvc core.ProgressService
	materialSvc core.MaterialService
	ticketSvc   core.TicketService
	dbPool      *pgxpool.Pool
	rdb         *redis.Client
}

// NewServer creates the HTTP server with all handlers registered
func NewServer(
	cfg *config.Config,
	authSvc core.AuthService,
	otpSvc core.OTPService,
	lessonSvc core.LessonService,
	progressSvc core.ProgressService,
	materialSvc core.MaterialService,
	ticketSvc core.TicketService,
	dbPool *pgxpool.Pool,
	rdb *redis.Client,
) *Server {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(requestLogger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	s := &Server{
		router:      router,
		config:      cfg,
		authSvc:     authSvc,
		otpSvc:      otpSvc,
		lessonSvc:   lessonSvc,
		progressSvc: progressSvc,
		materialSvc: materialSvc,
		ticketSvc:   ticketSvc,
		dbPool:      dbPool,
		rdb:         rdb,
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers all HTTP routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		// Auth routes (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", s.register)
			auth.POST("/login", s.login)
			auth.POST("/otp/request", s.requestOTP)
			auth.POST("/otp/verify", s.verifyOTP)
			auth.GET("/me", AuthMiddleware(s.authSvc), s.me)
		}

		// Admin routes
		admin := v1.Group("/admin", AuthMiddleware(s.authSvc), AdminMiddleware())
		{
			admin.PUT("/users/:id/role", s.updateUserRole)
		}

		// Lesson catalog: reads carry optional auth so managers see drafts
		v1.GET("/lessons", OptionalAuthMiddleware(s.authSvc), s.listLessons)
		v1.GET("/lessons/:id", OptionalAuthMiddleware(s.authSvc), s.getLesson)

		manage := v1.Group("", AuthMiddleware(s.authSvc), ContentManagerMiddleware())
		{
			manage.POST("/lessons", s.createLesson)
			manage.PUT("/lessons/:id", s.updateLesson)
			manage.DELETE("/lessons/:id", s.deleteLesson)
			manage.POST("/sign-url", s.signURL)
			manage.POST("/uploads/material", uploadRateLimiter(), s.uploadMaterial)
		}

		// Progress routes (authenticated)
		progress := v1.Group("", AuthMiddleware(s.authSvc))
		{
			progress.POST("/lessons/:id/progress/start", s.startProgress)
			progress.PUT("/lessons/:id/progress", s.updateProgress)
			progress.POST("/lessons/:id/complete", s.completeLesson)
			progress.GET("/lessons/:id/resume", s.resumeLesson)
			progress.GET("/users/me/stats", s.getMyStats)
		}

		// Material gateway
		materials := v1.Group("", AuthMiddleware(s.authSvc))
		{
			materials.GET("/lessons/:id/materials", s.listMaterials)
			materials.GET("/lessons/:id/materials/:material_id/url", s.getMaterialURL)
		}
		// The stream route accepts ?token= so browser viewers that cannot
		// set headers (iframe, object tag) can still authenticate.
		v1.GET("/lessons/:id/materials/:material_id/stream",
			QueryTokenAuthMiddleware(s.authSvc), streamRateLimiter(), s.streamMaterial)

		// Support tickets (authenticated)
		tickets := v1.Group("/tickets", AuthMiddleware(s.authSvc))
		{
			tickets.POST("", s.createTicket)
			tickets.GET("", s.listTickets)
			tickets.GET("/:id", s.getTicket)
			tickets.POST("/:id/respond", SupportMiddleware(), s.respondTicket)
			tickets.PUT("/:id/status", s.setTicketStatus)
		}
	}
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	return s.router.Run(addr)
}

// Router returns the gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// healthCheck reports server liveness plus datastore reachability
func (s *Server) healthCheck(c *gin.Context) {
	status := 200
	checks := gin.H{}

	if s.dbPool != nil {
		if err := s.dbPool.Ping(c.Request.Context()); err != nil {
			checks["database"] = "unreachable"
			status = 503
		} else {
			checks["database"] = "ok"
		}
	}
	if s.rdb != nil {
		if err := s.rdb.Ping(c.Request.Context()).Err(); err != nil {
			checks["redis"] = "unreachable"
			status = 503
		} else {
			checks["redis"] = "ok"
		}
	}

	overall := "ok"
	if status != 200 {
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status": overall,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}
