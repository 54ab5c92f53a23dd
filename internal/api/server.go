// Copyright 2026 The synthroute Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/mindmesh/synthroute/internal/health"
	"github.com/mindmesh/synthroute/internal/queue"
	"github.com/mindmesh/synthroute/internal/service"
)

// Server wires the synthesis pipeline into HTTP handlers.
type Server struct {
	svc    *service.Service
	oracle *health.Oracle
	ctrl   *queue.Controller
}

// NewServer creates an HTTP server facade over the pipeline.
func NewServer(svc *service.Service, oracle *health.Oracle, ctrl *queue.Controller) *Server {
	return &Server{svc: svc, oracle: oracle, ctrl: ctrl}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/v1/synthesize", s.handleSynthesize)
	router.GET("/v1/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// SynthesizeRequest is the POST /v1/synthesize request body.
type SynthesizeRequest struct {
	Text          string   `json:"text" binding:"required"`
	Streams       []string `json:"streams,omitempty"`
	Creativity    float64  `json:"creativity"`
	Transcendence float64  `json:"transcendence"`
	Balance       float64  `json:"balance"`
}

func (s *Server) handleSynthesize(c *gin.Context) {
	var req SynthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	in := service.Input{
		Text:    req.Text,
		Streams: req.Streams,
	}
	in.Metrics.Creativity = req.Creativity
	in.Metrics.Transcendence = req.Transcendence
	in.Metrics.Balance = req.Balance

	result, err := s.svc.Synthesize(c.Request.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, queue.ErrQueueSaturated):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "queue saturated, retry later"})
		case errors.Is(err, queue.ErrStopped), errors.Is(err, context.Canceled):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service shutting down"})
		case errors.Is(err, context.DeadlineExceeded):
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request deadline exceeded"})
		default:
			log.Errorf("Synthesize failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// HealthResponse is the GET /v1/health response body.
type HealthResponse struct {
	Status     string                   `json:"status"`
	QueueDepth int                      `json:"queue_depth"`
	Backends   map[string]health.Record `json:"backends"`
	Time       time.Time                `json:"time"`
}

func (s *Server) handleHealth(c *gin.Context) {
	snapshot := s.oracle.Snapshot()

	status := "ok"
	open := 0
	for _, rec := range snapshot {
		if rec.CircuitOpen {
			open++
		}
	}
	if open > 0 && open == len(snapshot) {
		status = "degraded"
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:     status,
		QueueDepth: s.ctrl.Depth(),
		Backends:   snapshot,
		Time:       time.Now(),
	})
}
