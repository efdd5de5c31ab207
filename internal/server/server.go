// Package server is the thin HTTP shell over the pipeline: one chat
// endpoint streaming message-delta events, plus a health probe.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/valpere/perelay/internal/logger"
	"github.com/valpere/perelay/internal/pipeline"
)

// Server owns the gin engine and routes.
type Server struct {
	engine *gin.Engine
	pipe   *pipeline.Orchestrator
	log    *logger.Logger
}

// New wires routes over the given pipeline.
func New(pipe *pipeline.Orchestrator, log *logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLog(log))

	s := &Server{engine: engine, pipe: pipe, log: log}

	engine.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	engine.POST("/api/chat", s.handleChat)

	return s
}

// Run blocks serving on addr.
func (s *Server) Run(addr string) error {
	s.log.Info("listening", "addr", addr)
	return s.engine.Run(addr)
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// requestLog logs one line per request.
func requestLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
