// Package server exposes the background message protocol over local HTTP.
//
// The content script sends one message kind, agent, as POST /api/agent; the
// response is always the uniform AgentResult, HTTP 200 even on task failure,
// so callers branch only on the ok field.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/paralens-ai/paralens/internal/history"
	"github.com/paralens-ai/paralens/internal/logging"
	"github.com/paralens-ai/paralens/internal/provider"
	"github.com/paralens-ai/paralens/pkg/protocol"
)

// Performer runs one task; satisfied by *agent.Agent.
type Performer interface {
	Perform(ctx context.Context, taskType protocol.TaskType, actx protocol.AgentContext) protocol.AgentResult
}

// Options configures a Server.
type Options struct {
	Performer Performer
	History   *history.Store  // optional
	Providers *provider.Store // optional
	// AllowedOrigins for extension CORS.
	AllowedOrigins []string
	Logger         logging.Logger
}

// Server is the background HTTP service.
type Server struct {
	opts   Options
	engine *gin.Engine
	logger logging.Logger
}

// New builds the router.
func New(opts Options) *Server {
	logger := logging.OrNop(opts.Logger)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(opts.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = opts.AllowedOrigins
		corsCfg.AllowWildcard = true
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsCfg.MaxAge = 12 * time.Hour
	engine.Use(cors.New(corsCfg))

	s := &Server{
		opts:   opts,
		engine: engine,
		logger: logger,
	}

	api := engine.Group("/api")
	api.POST("/agent", s.handleAgent)
	api.GET("/health", s.handleHealth)
	api.GET("/history", s.handleHistory)
	api.GET("/providers", s.handleProviders)

	return s
}

// Handler returns the HTTP handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) handleAgent(c *gin.Context) {
	var req protocol.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, protocol.Failure("invalid agent request: "+err.Error()))
		return
	}

	if !req.TaskType.Valid() {
		c.JSON(http.StatusBadRequest, protocol.Failure("unknown task type: "+string(req.TaskType)))
		return
	}
	if req.Context.SourceText == "" {
		c.JSON(http.StatusBadRequest, protocol.Failure("sourceText is required"))
		return
	}

	res := s.opts.Performer.Perform(c.Request.Context(), req.TaskType, req.Context)
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.opts.History == nil {
		c.JSON(http.StatusOK, []history.Record{})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	records, err := s.opts.History.Recent(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("history query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleProviders(c *gin.Context) {
	if s.opts.Providers == nil {
		c.JSON(http.StatusOK, []provider.Config{})
		return
	}

	configs := s.opts.Providers.List()
	for i := range configs {
		// Never leak secrets to the read-only settings surface.
		if configs[i].APIKey != "" {
			configs[i].APIKey = "********"
		}
	}
	c.JSON(http.StatusOK, configs)
}
