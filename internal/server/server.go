package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atikulmunna/logsift/internal/aggregator"
	"github.com/atikulmunna/logsift/internal/hub"
	"github.com/atikulmunna/logsift/internal/matcher"
	"github.com/atikulmunna/logsift/internal/model"
	"github.com/atikulmunna/logsift/internal/runner"
)

// Options configures the HTTP server.
type Options struct {
	Port      string
	CacheSize int
}

// Server exposes filter runs over HTTP and websocket.
type Server struct {
	engine     *gin.Engine
	hub        *hub.Hub
	runner     *runner.Runner
	aggregator *aggregator.Aggregator
	gatherer   prometheus.Gatherer
	cache      *lru.Cache[string, model.Report]
	port       string
}

// New creates the server. The hub must be fed snapshots of the log source.
func New(h *hub.Hub, r *runner.Runner, agg *aggregator.Aggregator, gatherer prometheus.Gatherer, opts Options) (*Server, error) {
	cache, err := lru.New[string, model.Report](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:     engine,
		hub:        h,
		runner:     r,
		aggregator: agg,
		gatherer:   gatherer,
		cache:      cache,
		port:       opts.Port,
	}
	s.setupRoutes()
	return s, nil
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		snap, loaded := s.hub.Latest()
		stats := s.aggregator.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  stats.Uptime,
			"loaded":  loaded,
			"sources": snap.Sources,
			"lines":   len(snap.Lines),
		})
	})

	s.engine.GET("/api/filter", s.handleFilter)

	s.engine.GET("/api/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.aggregator.Snapshot())
	})

	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	s.engine.GET("/ws", s.handleWebSocket)
}

// tokensFromQuery returns nil when the filters parameter is absent, which
// sends the request through the empty filter policy.
func tokensFromQuery(c *gin.Context) []string {
	spec, ok := c.GetQuery("filters")
	if !ok {
		return nil
	}
	return matcher.SplitTokens(spec)
}

func (s *Server) handleFilter(c *gin.Context) {
	snap, ok := s.hub.Latest()
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "log source not loaded yet"})
		return
	}

	tokens := tokensFromQuery(c)
	key := cacheKey(snap, tokens)
	if report, hit := s.cache.Get(key); hit {
		c.Header("X-Cache", "hit")
		c.JSON(http.StatusOK, report)
		return
	}

	report, err := s.runner.Apply(snap, tokens)
	if err != nil {
		writeFilterError(c, err)
		return
	}
	if report.Lines == nil {
		report.Lines = []string{}
	}
	s.cache.Add(key, report)
	c.Header("X-Cache", "miss")
	c.JSON(http.StatusOK, report)
}

func writeFilterError(c *gin.Context, err error) {
	var invalid *matcher.InvalidTokenError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "token": invalid.Token})
	case errors.Is(err, matcher.ErrNoFilters):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("filter run failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// cacheKey ties a result to both the filters and the snapshot it was computed on.
func cacheKey(snap model.Snapshot, tokens []string) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(snap.LoadedAt.UnixNano(), 10))
	if tokens == nil {
		b.WriteString("|-")
	}
	for _, t := range tokens {
		b.WriteString("|")
		b.WriteString(strconv.Quote(t))
	}
	return b.String()
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serving", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
