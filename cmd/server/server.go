package main

import (
	"context"
	"fmt"
	"net/http/pprof"
	"strings"
	"time"

	_ "github.com/ZanzyTHEbar/clearance-scorer/docs"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/cache"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/config"
	apperrors "github.com/ZanzyTHEbar/clearance-scorer/internal/errors"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/frontend"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/middleware"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/monitoring"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/report"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/security"
	"github.com/ZanzyTHEbar/clearance-scorer/internal/session"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const version = "1.0.0"

// server owns every long-lived component behind the HTTP API
type server struct {
	cfg         *config.Config
	sessions    *session.Manager
	cache       *cache.Cache
	reports     *report.Service
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	security    *security.SecurityMiddleware
	compression *middleware.Compression

	now    func() time.Time
	cancel context.CancelFunc
}

func newServer(cfg *config.Config, logger *monitoring.Logger) *server {
	metrics := monitoring.NewMetrics()
	viewCache := cache.NewCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval)

	s := &server{
		cfg: cfg,
		sessions: session.NewManager(session.Options{
			TTL:           cfg.Session.TTL,
			SweepInterval: cfg.Session.SweepInterval,
			MaxSessions:   cfg.Session.MaxSessions,
		}),
		cache:       viewCache,
		reports:     report.NewService(viewCache, metrics, cfg.Charts.Options()),
		metrics:     metrics,
		logger:      logger,
		security:    security.NewSecurityMiddleware(cfg.Security),
		compression: middleware.NewCompression(cfg.Compression),
		now:         time.Now,
	}

	s.security.OnRateLimited = func(ip string) {
		metrics.IncrementRateLimitBlock()
		logger.SecurityLogger("rate_limited", ip, "", nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.security.Cleanup(ctx, time.Minute)

	return s
}

// Close stops the background sweepers
func (s *server) Close() {
	s.cancel()
	s.sessions.Close()
	s.cache.Close()
}

func (s *server) router() (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(s.cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	// Monitoring sits outside the error handler so it sees the final status
	r.Use(monitoring.RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())
	r.Use(monitoring.SecurityMonitoringMiddleware(s.logger, s.cfg.Security.MaxBodyBytes))

	r.Use(s.security.SecurityHeaders)
	r.Use(s.compression.Handler())
	if corsHandler := s.security.CORS(); corsHandler != nil {
		r.Use(corsHandler)
	}
	r.Use(s.security.RequestTimeout)
	r.Use(s.security.LimitBody)
	r.Use(s.security.ValidateContentType)

	r.GET("/health", monitoring.HealthHandler(s.metrics, version, map[string]func() interface{}{
		"sessions": func() interface{} {
			return gin.H{"active": s.sessions.Len()}
		},
		"rate_limiter": func() interface{} {
			return gin.H{"tracked_ips": s.security.TrackedIPs()}
		},
		"compression": func() interface{} {
			return s.compression.Stats()
		},
	}))
	r.GET("/metrics", s.handleMetrics)
	r.GET("/cache/stats", s.handleCacheStats)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if s.cfg.Server.EnablePprof {
		r.GET("/debug/pprof/*name", pprofHandler)
	}

	api := r.Group("/api", s.security.RateLimitByIP)
	{
		api.GET("/catalog", s.handleCatalog)
		api.POST("/score", s.cache.Middleware("/api/score", s.metrics), s.handleScore)

		api.POST("/sessions", s.handleCreateSession)

		sess := api.Group("/sessions/:id")
		sess.GET("", s.handleGetSession)
		sess.DELETE("", s.handleDeleteSession)
		sess.POST("/records", s.handleAddRecord)
		sess.DELETE("/records", s.handleClearRecords)
		sess.POST("/score", s.handleRunScoring)

		sess.GET("/results/operations", s.handleOperations)
		sess.GET("/results/employees", s.handleEmployees)
		sess.GET("/results/daily", s.handleDaily)
		sess.GET("/results/overall", s.handleOverall)

		charts := sess.Group("/charts", security.ChartCSPMiddleware(s.cfg.Charts.AssetsHost))
		charts.GET("/daily", s.handleDailyChart)
		charts.GET("/overall", s.handleOverallChart)
	}

	dist, err := frontend.GetDistFS()
	if err != nil {
		return nil, fmt.Errorf("frontend assets: %w", err)
	}
	index, err := frontend.LoadIndexTemplate(dist)
	if err != nil {
		return nil, fmt.Errorf("frontend index: %w", err)
	}
	page := frontend.NewHandler(dist, index, frontend.Options{
		Version:           version,
		DefaultCompletion: session.DefaultCompletion,
	})
	r.GET("/", security.CSPMiddleware(""), page)
	r.NoRoute(security.CSPMiddleware(""), page)

	return r, nil
}

// pprofHandler serves the profiling endpoints under one wildcard route
func pprofHandler(c *gin.Context) {
	switch strings.TrimPrefix(c.Param("name"), "/") {
	case "cmdline":
		pprof.Cmdline(c.Writer, c.Request)
	case "profile":
		pprof.Profile(c.Writer, c.Request)
	case "symbol":
		pprof.Symbol(c.Writer, c.Request)
	case "trace":
		pprof.Trace(c.Writer, c.Request)
	default:
		pprof.Index(c.Writer, c.Request)
	}
}
