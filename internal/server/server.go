package server

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/cerjey13/rifa/internal/auth"
	"github.com/cerjey13/rifa/internal/notify"
	"github.com/cerjey13/rifa/internal/storage"
)

// Server wires the HTTP API over storage, sessions and notifications.
type Server struct {
	router      *gin.Engine
	storage     *storage.MemoryStorage
	sessions    *auth.Sessions
	notifier    *notify.Client
	minQuantity int
	maxQuantity int
	verbose     bool
}

// Options carries the purchase bounds the API enforces.
type Options struct {
	MinQuantity int
	MaxQuantity int
	Verbose     bool
}

// NewServer creates the API server and registers all routes.
func NewServer(
	store *storage.MemoryStorage,
	sessions *auth.Sessions,
	notifier *notify.Client,
	opts Options,
) *Server {
	var router *gin.Engine
	if opts.Verbose {
		gin.SetMode(gin.DebugMode)
		router = gin.Default()
	} else {
		gin.SetMode(gin.ReleaseMode)
		router = gin.New()
		router.Use(gin.Recovery())
	}

	server := &Server{
		router:      router,
		storage:     store,
		sessions:    sessions,
		notifier:    notifier,
		minQuantity: opts.MinQuantity,
		maxQuantity: opts.MaxQuantity,
		verbose:     opts.Verbose,
	}
	server.setupRoutes()
	return server
}

// setupRoutes configures the HTTP routes.
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)
	api.GET("/me", s.sessions.RequireSession(), s.handleMe)
	api.POST("/logout", s.handleLogout)

	api.GET("/prices", s.handleGetPrices)
	api.PATCH("/prices", s.sessions.RequireAdmin(), s.handleUpdatePrices)

	api.GET("/tickets", s.sessions.RequireSession(), s.handleCheckTickets)
	api.GET("/tickets/percentage", s.handlePercentage)
	api.GET("/tickets/users", s.sessions.RequireSession(), s.handleUserTickets)

	api.POST("/purchases", s.sessions.RequireSession(), s.handleCreatePurchase)
	api.GET("/purchases", s.sessions.RequireAdmin(), s.handleListPurchases)
	api.PATCH("/purchases", s.sessions.RequireAdmin(), s.handleUpdatePurchase)
	api.GET(
		"/purchases/leaderboard",
		s.sessions.RequireAdmin(),
		s.handleLeaderboard,
	)
	api.GET(
		"/purchases/search",
		s.sessions.RequireAdmin(),
		s.handleSearchPurchase,
	)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() *gin.Engine {
	return s.router
}

// Start starts the HTTP server on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	if s.verbose {
		log.Printf("[SERVER] Raffle API listening on %s", addr)
	}
	return s.router.Run(addr)
}
