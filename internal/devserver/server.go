// Package devserver is a local implementation of the BookHub REST API used
// for development and end-to-end tests of the client.
package devserver

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/binhbb2204/bookhub/internal/validate"
	"github.com/binhbb2204/bookhub/pkg/config"
	"github.com/binhbb2204/bookhub/pkg/logger"
	"github.com/binhbb2204/bookhub/pkg/metrics"
	"github.com/binhbb2204/bookhub/pkg/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 12
	maxPageLimit     = 100
)

type Server struct {
	db        *sql.DB
	cfg       config.DevServerConfig
	log       *logger.Logger
	metrics   *metrics.Metrics
	validator *validate.Validator
}

func New(db *sql.DB, cfg config.DevServerConfig, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &Server{
		db:        db,
		cfg:       cfg,
		log:       log.WithContext("component", "devserver"),
		metrics:   metrics.New(),
		validator: validate.New(),
	}
}

func (s *Server) Metrics() *metrics.Metrics { return s.metrics }

// Router mounts the API under /api, the path prefix the client expects.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(metrics.Middleware(s.metrics))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = []string{s.cfg.FrontendURL}
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	corsCfg.ExposeHeaders = []string{"Content-Length"}
	corsCfg.AllowCredentials = true
	router.Use(cors.New(corsCfg))

	// Liveness and readiness probes live outside /api.
	router.GET("/healthz", s.Healthz)
	router.GET("/readyz", s.Health)

	api := router.Group("/api")
	api.GET("/health", s.Health)
	api.GET("/metrics", metrics.NewHandler(s.metrics).Metrics)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", s.Register)
		authGroup.POST("/login", s.Login)
		authGroup.POST("/demo-login", s.DemoLogin)
	}

	requireAuth := s.AuthMiddleware()
	adminOnly := AdminOnly()

	books := api.Group("/books")
	{
		books.GET("", s.ListBooks)
		books.GET("/featured", s.FeaturedBooks)
		books.GET("/genres", s.Genres)
		books.GET("/author/:author", s.BooksByAuthor)
		books.GET("/:id", s.GetBook)
		books.POST("", requireAuth, adminOnly, s.CreateBook)
		books.PUT("/:id", requireAuth, adminOnly, s.UpdateBook)
		books.DELETE("/:id", requireAuth, adminOnly, s.DeleteBook)
	}

	reviews := api.Group("/reviews")
	{
		reviews.GET("", s.ListReviews)
		reviews.GET("/recent", s.RecentReviews)
		reviews.GET("/user/:id", s.UserReviews)
		reviews.GET("/book/:id/summary", s.RatingSummary)
		reviews.POST("", requireAuth, s.CreateReview)
		reviews.PUT("/:id", requireAuth, s.UpdateReview)
		reviews.DELETE("/:id", requireAuth, s.DeleteReview)
	}

	users := api.Group("/users")
	users.Use(requireAuth)
	{
		users.GET("", adminOnly, s.ListUsers)
		users.GET("/:id", s.GetUser)
		users.PUT("/:id", s.UpdateUser)
		users.PUT("/:id/password", s.ChangePassword)
		users.PUT("/:id/role", adminOnly, s.UpdateRole)
		users.DELETE("/:id", adminOnly, s.DeleteUser)
	}

	api.GET("/admin/stats", requireAuth, adminOnly, s.AdminStats)
	return router
}

func (s *Server) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// Health reports ready once the database answers a ping.
func (s *Server) Health(c *gin.Context) {
	if err := s.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": "database_ping_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bindValid decodes the JSON body into req and runs form validation. It
// writes the 400 itself and reports false on failure.
func (s *Server) bindValid(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return false
	}
	if err := s.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Validation failed", Details: err.Error()})
		return false
	}
	return true
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}

// pageParams reads page and limit, clamping limit to maxPageLimit.
func pageParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(c.Query("limit"))
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func (s *Server) dbError(c *gin.Context, event string, err error) {
	s.log.Error(event, "error", err.Error(), "path", c.FullPath())
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
}
