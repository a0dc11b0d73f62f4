package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tybalex/otto8-log-tool/internal/model"
	"github.com/tybalex/otto8-log-tool/internal/pipeline"
	"github.com/tybalex/otto8-log-tool/internal/snapshot"
)

// Service is the narrow pipeline contract required by the HTTP API.
type Service interface {
	Discover(ctx context.Context, src string) (*model.Snapshot, error)
	Clusters(ctx context.Context) ([]model.ClusterInfo, error)
	Reconstruct(ctx context.Context, clusterID int64) (*model.ReconstructResult, error)
}

// Server exposes the discover/reconstruct pipeline over HTTP.
type Server struct {
	addr      string
	svc       Service
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, svc Service) *Server {
	if addr == "" {
		addr = "0.0.0.0:3000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		svc:    svc,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.POST("/api/discover", s.handleDiscover)
	r.GET("/api/clusters", s.handleClusters)
	r.GET("/api/parameters/:id", s.handleParameters)

	s.server = &http.Server{
		Handler:           r,
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleDiscover(c *gin.Context) {
	var req struct {
		Source string `json:"source" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing source field"})
		return
	}

	snap, err := s.svc.Discover(c.Request.Context(), req.Source)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrEmptyInput) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clusters": snap.Clusters})
}

func (s *Server) handleClusters(c *gin.Context) {
	clusters, err := s.svc.Clusters(c.Request.Context())
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot found, run discover first"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clusters": clusters})
}

func (s *Server) handleParameters(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cluster id must be an integer"})
		return
	}

	result, err := s.svc.Reconstruct(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, snapshot.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot found, run discover first"})
		case errors.Is(err, pipeline.ErrClusterNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}
