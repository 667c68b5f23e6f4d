// Package api exposes the admin trigger surface over HTTP: scans,
// schedule generation, posting, coordination settings and queue health.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ashaw315/hotdog-diaries-sub008/internal/config"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/domain"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/logger"
	"github.com/ashaw315/hotdog-diaries-sub008/internal/poster"
)

const (
	healthCheckTimeout = 2 * time.Second
	serviceVersion     = "1.0.0"
	serviceName        = "content-coordinator"
)

// ScanService triggers coordinated and single-platform scans.
type ScanService interface {
	PerformCoordinatedScan(ctx context.Context) (*domain.CoordinatedScanResult, error)
	ScanPlatform(ctx context.Context, p domain.Platform) (*domain.ScanOutcome, error)
}

// ScanAudit reads persisted coordinated scan results.
type ScanAudit interface {
	GetLatest(ctx context.Context) (*domain.CoordinatedScanResult, error)
}

// ScheduleService fills daily posting slots.
type ScheduleService interface {
	GenerateSchedule(ctx context.Context, date string, mode domain.ScheduleMode) (*domain.ScheduleResult, error)
	RefillTwoDays(ctx context.Context, date string) (*domain.TwoDayResult, error)
}

// PostService publishes content and reports queue health.
type PostService interface {
	PostContent(ctx context.Context, contentID uuid.UUID, force bool) (*poster.PostResult, error)
	ProcessScheduledPost(ctx context.Context) (*poster.PostResult, error)
	CheckQueueHealth(ctx context.Context) (*poster.QueueHealth, error)
}

// SettingsStore reads and writes the coordination configuration.
type SettingsStore interface {
	Get(ctx context.Context) (*domain.CoordinationConfig, error)
	Update(ctx context.Context, cfg *domain.CoordinationConfig) (*domain.CoordinationConfig, error)
}

// Pinger checks database connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router holds the API dependencies.
type Router struct {
	scanner   ScanService
	scanAudit ScanAudit
	scheduler ScheduleService
	poster    PostService
	settings  SettingsStore
	db        Pinger
	redis     redis.UniversalClient
	registry  prometheus.Gatherer
	cfg       *config.Config
	logger    logger.Logger
	now       func() time.Time
}

// RouterDeps bundles the collaborators the API surface needs.
type RouterDeps struct {
	Scanner   ScanService
	ScanAudit ScanAudit
	Scheduler ScheduleService
	Poster    PostService
	Settings  SettingsStore
	DB        Pinger
	Redis     redis.UniversalClient
	Registry  prometheus.Gatherer
	Logger    logger.Logger
}

// NewRouter creates a new API router.
func NewRouter(cfg *config.Config, deps RouterDeps) *Router {
	return &Router{
		scanner:   deps.Scanner,
		scanAudit: deps.ScanAudit,
		scheduler: deps.Scheduler,
		poster:    deps.Poster,
		settings:  deps.Settings,
		db:        deps.DB,
		redis:     deps.Redis,
		registry:  deps.Registry,
		cfg:       cfg,
		logger:    deps.Logger,
		now:       time.Now,
	}
}

// Engine builds the gin engine with middleware and all routes.
func (r *Router) Engine() *gin.Engine {
	if !r.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware(r.cfg.Server.CORSOrigins))

	// Public endpoints.
	engine.GET("/health", r.healthCheck)
	if r.registry != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})))
	}

	// Admin trigger surface.
	v1 := engine.Group("/api/v1", adminAuth(r.cfg.Admin.Token))

	v1.POST("/scan", r.scanAllPlatforms)
	v1.GET("/scan/latest", r.latestScanResult)
	v1.POST("/scan/:platform", r.scanPlatform)

	v1.POST("/schedule", r.generateSchedule)

	v1.GET("/settings/coordination", r.getCoordinationSettings)
	v1.PUT("/settings/coordination", r.updateCoordinationSettings)

	v1.POST("/content/:id/post", r.postContent)
	v1.POST("/posting/process", r.processScheduledPost)
	v1.GET("/queue/health", r.queueHealth)

	return engine
}

// healthCheck reports service, database and Redis health.
func (r *Router) healthCheck(c *gin.Context) {
	health := gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	dbConnected := true
	if r.db == nil || r.db.Ping(ctx) != nil {
		dbConnected = false
		health["status"] = "degraded"
	}
	health["database"] = gin.H{"connected": dbConnected}

	redisConnected := true
	if r.redis == nil || r.redis.Ping(ctx).Err() != nil {
		redisConnected = false
		health["status"] = "degraded"
	}
	health["redis"] = gin.H{"connected": redisConnected}

	c.JSON(http.StatusOK, health)
}
