package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Addr          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	ExposeMetrics bool
}

type Server struct {
	engine *gin.Engine
	srv    *http.Server
}

// New builds the engine with /health and, optionally, /metrics. mount registers the API on top.
func New(opts Options, mount func(r *gin.Engine)) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if opts.ExposeMetrics {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	if mount != nil {
		mount(engine)
	}

	return &Server{
		engine: engine,
		srv: &http.Server{
			Addr:              opts.Addr,
			Handler:           engine,
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      opts.WriteTimeout,
		},
	}
}

func (s *Server) Handler() http.Handler { return s.engine }

// Start blocks until the server stops. A graceful Shutdown is not reported as an error.
func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
