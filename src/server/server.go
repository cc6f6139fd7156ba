package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"market-pulse/src/logger"
	"market-pulse/src/models"
	"market-pulse/src/resilience"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// API Server
// -----------------------------------------------------------------------------

// SchedulerStatus is the slice of the scheduler the ops endpoints need
type SchedulerStatus interface {
	Running() bool
	Jobs() []models.MScheduleJobStatus
}

// MetricsSource exposes the batch processor counters
type MetricsSource interface {
	Metrics() models.MPipelineMetrics
}

type Server struct {
	Config     *models.MConfig
	Logger     *logger.Logger
	Hub        *Hub
	Dispatcher *Dispatcher
	Breakers   *resilience.BreakerRegistry
	Scheduler  SchedulerStatus
	Pipeline   MetricsSource

	engine *gin.Engine
	http   *http.Server
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewServer(
	cfg *models.MConfig,
	log *logger.Logger,
	hub *Hub,
	dispatcher *Dispatcher,
	breakers *resilience.BreakerRegistry,
	sched SchedulerStatus,
	pipe MetricsSource,
) *Server {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		Config:     cfg,
		Logger:     log,
		Hub:        hub,
		Dispatcher: dispatcher,
		Breakers:   breakers,
		Scheduler:  sched,
		Pipeline:   pipe,
		engine:     gin.Default(),
	}

	hub.SetHandler(dispatcher)

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/stats", s.getStats)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.POST("/api/broadcast", s.postBroadcast)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	s.http = &http.Server{Addr: addr, Handler: s.engine}
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// -----------------------------------------------------------------------------

func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *Server) getHealth(c *gin.Context) {
	connections, _ := s.Hub.Stats()

	status := "ok"
	code := http.StatusOK
	if s.Breakers.AnyOpen() {
		status = "degraded"
	}
	if !s.Scheduler.Running() {
		status = "stopped"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":      status,
		"scheduler":   s.Scheduler.Running(),
		"connections": connections,
		"breakers":    s.Breakers.States(),
		"timestamp":   time.Now().Unix(),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getStats(c *gin.Context) {
	connections, rooms := s.Hub.Stats()

	c.JSON(http.StatusOK, gin.H{
		"connections": connections,
		"rooms":       rooms,
		"pipeline":    s.Pipeline.Metrics(),
		"jobs":        s.Scheduler.Jobs(),
	})
}

// -----------------------------------------------------------------------------

func (s *Server) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"symbols":                  s.Config.Source.Symbols,
		"priority_symbols":         s.Config.Ingestion.PrioritySymbols,
		"update_interval_seconds":  s.Config.Ingestion.UpdateIntervalSeconds,
		"summary_interval_seconds": s.Config.Ingestion.SummaryIntervalSeconds,
	})
}

// -----------------------------------------------------------------------------

// postBroadcast pushes an arbitrary payload to a room, for operational
// announcements and debugging
func (s *Server) postBroadcast(c *gin.Context) {
	var body struct {
		Room    string      `json:"room"`
		Message interface{} `json:"message"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if body.Room == "" {
		body.Room = models.RoomGlobal
	}
	if err := ValidateRoomName(body.Room); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.Hub.BroadcastToRoom(body.Room, body.Message)
	c.JSON(http.StatusOK, gin.H{"status": "sent", "room": body.Room})
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := NewClient(s.Hub, conn)
	s.Hub.Register(client)

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}
