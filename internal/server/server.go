package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/config"
	"github.com/emilythestrangee/stackit/backend/internal/database"
	"github.com/emilythestrangee/stackit/backend/internal/events"
	"github.com/emilythestrangee/stackit/backend/internal/handlers"
	"github.com/emilythestrangee/stackit/backend/internal/middleware"
	"github.com/emilythestrangee/stackit/backend/internal/session"
)

func init() {
	// Request bodies are typed per form; fields the form does not define are
	// rejected rather than silently dropped.
	binding.EnableDecoderDisallowUnknownFields = true
}

type Server struct {
	db          *gorm.DB
	dbService   database.Service
	redis       *redis.Client
	redisStore  *session.RedisStore
	sessions    *session.Manager
	publisher   events.Publisher
	handler     *handlers.Handler
	corsOrigins []string
}

// New connects to Postgres, Redis and Kafka as configured and builds the server.
func New(cfg *config.Config) (*Server, error) {
	dbService, err := database.New(cfg)
	if err != nil {
		return nil, err
	}

	var (
		store      session.Store = session.NewMemoryStore()
		redisStore *session.RedisStore
		client     *redis.Client
	)
	if cfg.RedisURL != "" {
		client, err = session.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			dbService.Close()
			return nil, err
		}
		redisStore = session.NewRedisStore(client)
		store = redisStore
		log.Println("✅ Redis session store connected")
	} else {
		log.Println("⚠️  REDIS_URL not set, sessions are kept in memory")
	}

	var publisher events.Publisher = events.LogPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Printf("✅ Publishing vote events to Kafka topic %s", cfg.KafkaTopic)
	}

	s := NewWithDeps(dbService.GetDB(), session.NewManager(store, cfg.JWTSecret, cfg.JWTExpire), publisher)
	s.dbService = dbService
	s.redis = client
	s.redisStore = redisStore
	s.corsOrigins = cfg.CORSOrigins
	return s, nil
}

// NewWithDeps builds a server around already-open dependencies.
func NewWithDeps(db *gorm.DB, sessions *session.Manager, publisher events.Publisher) *Server {
	return &Server{
		db:          db,
		sessions:    sessions,
		publisher:   publisher,
		handler:     handlers.NewHandler(db, sessions, publisher),
		corsOrigins: []string{"*"},
	}
}

// HTTPServer wraps the router in an http.Server listening on port.
func (s *Server) HTTPServer(port string) *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Close releases every connection the server opened.
func (s *Server) Close() error {
	var errs []error
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.dbService != nil {
		errs = append(errs, s.dbService.Close())
	}
	return errors.Join(errs...)
}

func (s *Server) health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}

	if s.dbService != nil {
		db := s.dbService.Health()
		body["database"] = db
		if db["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
	} else if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		body["database"] = gin.H{"status": "down"}
		status = http.StatusServiceUnavailable
	} else {
		body["database"] = gin.H{"status": "up"}
	}

	if s.redisStore != nil {
		r := s.redisStore.Health(c.Request.Context())
		body["redis"] = r
		if r["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
	}

	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(middleware.LogApi(), gin.Recovery())

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !containsWildcard(s.corsOrigins),
		MaxAge:           12 * 3600,
	}))

	r.GET("/health", s.health)

	h := s.handler
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/signup", h.Auth.Signup)
		api.POST("/login", h.Auth.Login)

		// Public reads, personalised with the viewer's votes when logged in
		public := api.Group("")
		public.Use(middleware.OptionalAuth(s.sessions))
		{
			public.GET("/questions", h.Question.GetQuestions)
			public.GET("/questions/:id", h.Question.GetQuestion)
			public.GET("/questions/:id/answers", h.Answer.GetAnswers)
			public.GET("/users/:id", h.User.GetUserProfile)
		}

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(s.sessions))
		{
			protected.GET("/me", h.Auth.GetMe)
			protected.POST("/logout", h.Auth.Logout)

			protected.POST("/questions", h.Question.CreateQuestion)
			protected.PUT("/questions/:id", h.Question.UpdateQuestion)
			protected.DELETE("/questions/:id", h.Question.DeleteQuestion)
			protected.POST("/questions/:id/vote", h.Question.VoteQuestion)

			protected.POST("/questions/:id/answers", h.Answer.CreateAnswer)
			protected.PUT("/answers/:answerId", h.Answer.UpdateAnswer)
			protected.DELETE("/answers/:answerId", h.Answer.DeleteAnswer)
			protected.POST("/answers/:answerId/accept", h.Answer.AcceptAnswer)
			protected.POST("/answers/:answerId/vote", h.Answer.VoteAnswer)
		}
	}

	return r
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// String describes the server's wiring for startup logs.
func (s *Server) String() string {
	store := "memory"
	if s.redisStore != nil {
		store = "redis"
	}
	return fmt.Sprintf("sessions=%s events=%T", store, s.publisher)
}
