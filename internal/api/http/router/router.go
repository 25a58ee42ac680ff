package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/dtroode/eventpoll-server/internal/api/http/handler"
	"github.com/dtroode/eventpoll-server/internal/api/http/middleware"
	"github.com/dtroode/eventpoll-server/internal/logger"
	"github.com/dtroode/eventpoll-server/internal/model"
)

// Config carries the transport settings of the router.
type Config struct {
	CORSOrigins   []string
	AuthRateLimit float64
	AuthRateBurst int
}

// Router wires HTTP handlers and middleware.
type Router struct {
	eventService   handler.EventService
	authService    handler.AuthService
	tokenService   middleware.TokenService
	contextManager model.ContextManager
	parser         handler.TimeParser
	pinger         handler.Pinger
	cfg            Config
	logger         *logger.Logger
}

// New creates a new Router. pinger may be nil.
func New(
	eventService handler.EventService,
	authService handler.AuthService,
	tokenService middleware.TokenService,
	contextManager model.ContextManager,
	parser handler.TimeParser,
	pinger handler.Pinger,
	cfg Config,
	logger *logger.Logger,
) *Router {
	return &Router{
		eventService:   eventService,
		authService:    authService,
		tokenService:   tokenService,
		contextManager: contextManager,
		parser:         parser,
		pinger:         pinger,
		cfg:            cfg,
		logger:         logger,
	}
}

// Register builds the gin engine with every route.
func (r *Router) Register() *gin.Engine {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)

	engine := gin.New()
	engine.Use(gin.Recovery(), logging.Handle)
	if len(r.cfg.CORSOrigins) > 0 {
		engine.Use(cors.New(r.corsConfig()))
	}
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "route not found", "data": nil})
	})

	engine.GET("/healthz", handler.NewHealth(r.pinger, r.logger).Check)

	r.registerAuthRoutes(engine.Group("/api/auth"))
	r.registerEventRoutes(engine.Group("/api/events", authenticate.Handle))

	return engine
}

func (r *Router) corsConfig() cors.Config {
	return cors.Config{
		AllowOrigins:     r.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

func (r *Router) registerAuthRoutes(g *gin.RouterGroup) {
	authHandler := handler.NewAuth(r.authService, r.logger)
	limit := middleware.NewRateLimit(r.cfg.AuthRateLimit, r.cfg.AuthRateBurst)

	g.Use(limit.Handle)
	g.POST("/signup", authHandler.Signup)
	g.POST("/login", authHandler.Login)
	g.POST("/refresh", authHandler.Refresh)
	g.POST("/logout", authHandler.Logout)
}

func (r *Router) registerEventRoutes(g *gin.RouterGroup) {
	eventHandler := handler.NewEvent(r.eventService, r.contextManager, r.parser, r.logger)

	g.GET("", eventHandler.GetEvents)
	g.POST("", eventHandler.CreateEvent)
	g.GET("/:id", eventHandler.GetEvent)
	g.GET("/:id/status", eventHandler.EventStatus)
	g.POST("/:id/invite", eventHandler.Invite)
	g.POST("/:id/decline", eventHandler.Decline)
	g.POST("/:id/timeslots", eventHandler.ProposeTimeslot)
	g.POST("/:id/timeslots/:timeslotId/votes", eventHandler.CastVote)
	g.DELETE("/:id/timeslots/:timeslotId/votes", eventHandler.RemoveVote)
	g.GET("/:id/votes", eventHandler.GetVotes)
	g.POST("/:id/finalize", eventHandler.Finalize)
	g.GET("/:id/calendar.ics", eventHandler.Calendar)
}
