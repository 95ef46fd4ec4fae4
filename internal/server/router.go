// Package server exposes a read-only HTTP surface over the supervisor:
// status reports and Prometheus metrics. There are deliberately no mutating
// endpoints; process control stays on the local command line.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/relayctl/relayctl/internal/metrics"
	"github.com/relayctl/relayctl/internal/supervisor"
)

type Router struct {
	sup *supervisor.Supervisor
}

func NewRouter(sup *supervisor.Supervisor) *Router {
	return &Router{sup: sup}
}

// Handler returns an http.Handler powered by gin that can be mounted in any
// server/mux.
func (r *Router) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	g.GET("/healthz", r.handleHealthz)
	g.GET("/status", r.handleStatus)
	g.GET("/status/:service", r.handleStatusOne)
	g.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr string, sup *supervisor.Supervisor) *http.Server {
	r := NewRouter(sup)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return server
}

type errorResp struct {
	Error string `json:"error"`
}

func (r *Router) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (r *Router) handleStatus(c *gin.Context) {
	reports, err := r.sup.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (r *Router) handleStatusOne(c *gin.Context) {
	name := c.Param("service")
	reports, err := r.sup.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	for _, rep := range reports {
		if rep.Service == name {
			c.JSON(http.StatusOK, rep)
			return
		}
	}
	c.JSON(http.StatusNotFound, errorResp{Error: "unknown service: " + name})
}
