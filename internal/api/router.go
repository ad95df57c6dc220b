// Package api exposes the trainer operations over HTTP.
package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ColonelBlimp/morsetrainer/internal/engine"
)

// DefaultMaxUploadMB caps analyze uploads when the caller passes zero
const DefaultMaxUploadMB = 20

// Server holds the dependencies of the HTTP handlers
type Server struct {
	engine    *engine.Engine
	maxUpload int64
	log       *slog.Logger
}

// NewServer creates a Server around a base engine. Requests without their
// own wpm/frequency use the base engine's timing.
func NewServer(e *engine.Engine, maxUploadMB int, log *slog.Logger) *Server {
	if maxUploadMB <= 0 {
		maxUploadMB = DefaultMaxUploadMB
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		engine:    e,
		maxUpload: int64(maxUploadMB) << 20,
		log:       log,
	}
}

// Router builds the gin engine with all routes and middleware
func (s *Server) Router(debug bool) *gin.Engine {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/table", s.table)
		api.POST("/encode", s.encode)
		api.POST("/decode", s.decode)
		api.POST("/render", s.render)
		api.POST("/analyze", s.analyze)
		api.POST("/vibration", s.vibration)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
