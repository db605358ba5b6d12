// Package server contains the HTTP handlers for the local gateway the UI
// shell talks to. Everything here is a thin surface over the session manager
// and the post/comment services; no business rules live in handlers.
package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"inkwell/internal/api"
	"inkwell/internal/cache"
	"inkwell/internal/comments"
	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/posts"
	"inkwell/internal/session"
	"inkwell/internal/storage"
	"inkwell/internal/store"
	"inkwell/internal/users"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// commentService is the slice of the comment workflow the handlers need.
type commentService interface {
	Thread(ctx context.Context, postID uint) ([]*models.Comment, error)
	Create(ctx context.Context, in models.CommentInput) (*models.Comment, error)
	Update(ctx context.Context, postID, commentID uint, content string) (*models.Comment, error)
	Delete(ctx context.Context, postID, commentID uint) error
	Approve(ctx context.Context, commentID uint) (*models.Comment, error)
	Reject(ctx context.Context, commentID uint) (*models.Comment, error)
}

// postService is the slice of the post workflow the handlers need.
type postService interface {
	List(ctx context.Context, q models.PostQuery) ([]models.Post, error)
	Get(ctx context.Context, id uint) (*models.Post, error)
	Create(ctx context.Context, in models.PostInput) (*models.Post, error)
	Update(ctx context.Context, id uint, in models.PostInput) (*models.Post, error)
	Delete(ctx context.Context, id uint) error
	SaveDraft(ctx context.Context, draft *store.Draft) (*store.Draft, error)
	Drafts(ctx context.Context) ([]store.Draft, error)
	DeleteDraft(ctx context.Context, id string) error
	PublishDraft(ctx context.Context, id string, publish bool) (*models.Post, error)
}

// userService is the slice of the profile view the handlers need.
type userService interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

// Server holds all dependencies and provides handlers.
type Server struct {
	config         *config.Config
	sessions       *session.Manager
	posts          postService
	comments       commentService
	users          userService
	snapshots      *store.Store
	promMiddleware *fiberprometheus.FiberPrometheus
}

// NewServer wires the full dependency graph: file-backed state storage, the
// remote API client, the Redis cache, the SQLite snapshot store, and the
// session manager on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	st, err := storage.NewFileStorage(filepath.Join(cfg.DataDir, "state.json"))
	if err != nil {
		return nil, fmt.Errorf("open state storage: %w", err)
	}

	client := api.NewClient(cfg.APIBaseURL, time.Duration(cfg.HTTPTimeoutSec)*time.Second, st)

	cache.InitRedis(cfg.RedisURL)

	snapshots, err := store.Open(filepath.Join(cfg.DataDir, "snapshots.db"))
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	server := &Server{
		config:         cfg,
		sessions:       session.NewManager(client, client, st),
		posts:          posts.NewService(client, snapshots, middleware.Logger),
		comments:       comments.NewService(client, snapshots, middleware.Logger),
		users:          users.NewService(client, snapshots, middleware.Logger),
		snapshots:      snapshots,
		promMiddleware: middleware.InitMetrics("inkwell-gateway"),
	}
	return server, nil
}

// NewServerWithDeps creates a Server over already-built collaborators. Tests
// use this; the Prometheus middleware is skipped so repeated construction
// does not re-register collectors.
func NewServerWithDeps(cfg *config.Config, sessions *session.Manager, postSvc postService, commentSvc commentService, userSvc userService) *Server {
	return &Server{
		config:   cfg,
		sessions: sessions,
		posts:    postSvc,
		comments: commentSvc,
		users:    userSvc,
	}
}

// Sessions exposes the session manager so the main process can initialize it
// and start the expiry watcher.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Close releases the snapshot store.
func (s *Server) Close() error {
	if s.snapshots != nil {
		return s.snapshots.Close()
	}
	return nil
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS for the UI shell; runs before the limiter so error responses
	// still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// The gateway serves one local UI; the limiter only guards against a
	// runaway render loop hammering it.
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Session surface
	api.Get("/session", s.GetSession)

	auth := api.Group("/auth")
	auth.Post("/login", s.Login)
	auth.Post("/register", s.Register)
	auth.Post("/logout", s.Logout)

	// Public post routes (browse/search)
	publicPosts := api.Group("/posts")
	publicPosts.Get("/", s.GetPosts)
	publicPosts.Get("/:id/comments", s.GetComments)
	publicPosts.Get("/:id", s.GetPost)

	// Public user-profile views
	api.Get("/users/:userId", s.GetUserProfile)

	// Local drafts never leave the machine, so they need no session.
	drafts := api.Group("/drafts")
	drafts.Get("/", s.GetDrafts)
	drafts.Post("/", s.SaveDraft)
	drafts.Delete("/:draftId", s.DeleteDraft)

	// Protected routes
	protected := api.Group("", s.SessionRequired())

	protected.Put("/profile", s.UpdateMyProfile)
	protected.Post("/drafts/:draftId/publish", s.PublishDraft)

	posts := protected.Group("/posts")
	posts.Post("/", s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/comments", s.CreateComment)
	posts.Put("/:id/comments/:commentId", s.UpdateComment)
	posts.Delete("/:id/comments/:commentId", s.DeleteComment)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	// Moderation
	moderation := protected.Group("/comments", s.ModeratorRequired())
	moderation.Put("/:commentId/approve", s.ApproveComment)
	moderation.Put("/:commentId/reject", s.RejectComment)
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports the health of the gateway's local collaborators.
// The remote API is deliberately excluded: the gateway is ready even when
// the network is down, that is what the snapshot fallback is for.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	cacheStatus := "disabled"
	if client := cache.GetClient(); client != nil {
		cacheStatus = "healthy"
		if err := client.Ping(ctx).Err(); err != nil {
			cacheStatus = "unhealthy"
		}
	}

	snapshotStatus := "healthy"
	if s.snapshots == nil {
		snapshotStatus = "disabled"
	}

	state := s.sessions.State()

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":              "ready",
		"cache":               cacheStatus,
		"snapshots":           snapshotStatus,
		"session_initialized": state.IsInitialized,
	})
}
