// Package admin exposes the process's health/status HTTP surface
// (SPEC_FULL §3.5/§4.6). Grounded on the teacher's gin-based
// conf-driven HTTP layer pattern (other pack repos wire gin the same
// way for an operator-facing side channel alongside the binary
// protocol port).
package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/infinidb-io/infinidb/internal/engine"
)

// Server is the admin HTTP listener: /healthz and /status, separate
// from the binary RPC port so operators can probe liveness without
// speaking the wire protocol.
type Server struct {
	engine    *engine.Engine
	router    *gin.Engine
	startedAt time.Time
}

// New builds the admin router bound to eng.
func New(eng *engine.Engine) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{engine: eng, router: gin.New(), startedAt: time.Now()}
	s.router.Use(gin.Recovery())
	s.router.GET("/healthz", s.healthz)
	s.router.GET("/status", s.status)
	return s
}

// Run blocks serving on addr (e.g. "0.0.0.0:23818").
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds": time.Since(s.startedAt).Seconds(),
		"databases":      s.engine.ListDatabases(),
		"sessions":       len(s.engine.Sess.List()),
	})
}
