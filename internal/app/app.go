package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	// Inbound adapters (HTTP handlers)
	ginhandler "github.com/podcaststudio/server/internal/adapter/inbound/gin"

	// Outbound adapters
	"github.com/podcaststudio/server/internal/adapter/outbound/elevenlabs"
	"github.com/podcaststudio/server/internal/adapter/outbound/filestore"
	"github.com/podcaststudio/server/internal/adapter/outbound/ollama"
	"github.com/podcaststudio/server/internal/adapter/outbound/postgres"
	redisadapter "github.com/podcaststudio/server/internal/adapter/outbound/redis"
	s3adapter "github.com/podcaststudio/server/internal/adapter/outbound/s3"

	"github.com/podcaststudio/server/internal/domain/podcast"
	"github.com/podcaststudio/server/internal/port/inbound"
	"github.com/podcaststudio/server/internal/port/outbound"

	// Shared infrastructure
	sharedcache "github.com/podcaststudio/server/internal/shared/cache"
	"github.com/podcaststudio/server/internal/shared/config"
	"github.com/podcaststudio/server/internal/shared/database"
	"github.com/podcaststudio/server/internal/shared/httpclient"
	"github.com/podcaststudio/server/internal/shared/logger"
	"github.com/podcaststudio/server/internal/shared/metrics"
	"github.com/podcaststudio/server/internal/shared/middleware"
	"github.com/podcaststudio/server/web"
)

// App wires the podcast service together.
type App struct {
	config    *config.Config
	db        *gorm.DB
	redis     goredis.UniversalClient
	s3        *s3.Client
	router    *gin.Engine
	logger    *logger.Logger
	zapLogger *zap.Logger
	metrics   *metrics.Metrics

	podcastDomain inbound.PodcastDomain
	rateLimiter   outbound.RateLimiterPort
}

// Option customizes App construction.
type Option func(*options)

type options struct {
	logOutput  io.Writer
	httpClient *http.Client
}

// WithLogOutput sends both loggers to w.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithHTTPClient sets the client used for Ollama and ElevenLabs calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// New creates the application. Database, Redis, object storage and speech
// synthesis are optional and are skipped when not configured.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: o.logOutput,
	}
	log := logger.New(logCfg)

	zapLog, err := logger.NewZapLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}

	app := &App{
		config:    cfg,
		logger:    log,
		zapLogger: zapLog,
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		app.metrics = metrics.NewWithRegistry(cfg.Metrics.Namespace, reg, reg)
	}

	if err := app.initInfrastructure(ctx); err != nil {
		app.Stop()
		return nil, fmt.Errorf("init infrastructure: %w", err)
	}

	if err := app.initPodcastDomain(ctx, o.httpClient); err != nil {
		app.Stop()
		return nil, fmt.Errorf("init podcast domain: %w", err)
	}

	app.router = app.setupRouter()
	app.registerRoutes()

	return app, nil
}

// initInfrastructure opens the optional database, cache and object store.
// Only a database failure is fatal; the others degrade to disabled.
func (a *App) initInfrastructure(ctx context.Context) error {
	db, err := database.New(&a.config.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	a.db = db

	redisClient, err := sharedcache.NewRedisClient(ctx, &a.config.Redis)
	if err != nil {
		a.zapLogger.Warn("Redis connection failed, continuing without script cache", zap.Error(err))
	} else {
		a.redis = redisClient
	}

	s3Client, err := s3adapter.NewClient(ctx, &a.config.Storage)
	if err != nil {
		a.zapLogger.Warn("Object storage setup failed, continuing without mirror", zap.Error(err))
	} else {
		a.s3 = s3Client
	}

	return nil
}

func (a *App) initPodcastDomain(ctx context.Context, client *http.Client) error {
	if client == nil {
		client = httpclient.New(a.config.HTTPClient)
	}

	store, err := filestore.New(a.config.Generator.OutputDir)
	if err != nil {
		return err
	}

	writer := ollama.NewScriptWriter(&a.config.Ollama, &a.config.Breaker, client, a.metrics)

	var speech outbound.SpeechSynthesizerPort
	if a.config.ElevenLabs.Enabled() {
		speech = elevenlabs.NewSynthesizer(&a.config.ElevenLabs, &a.config.Breaker, client, a.metrics)
	} else {
		a.zapLogger.Warn("ElevenLabs credentials missing, only script-only requests will succeed")
	}

	var mirror outbound.ArtifactMirrorPort
	if a.s3 != nil {
		mirror = s3adapter.NewMirror(a.s3, a.config.Storage.Bucket, a.config.Storage.Prefix)
	}

	var episodes outbound.EpisodeDatabasePort
	if a.db != nil {
		episodeDB := postgres.NewEpisodeDBAdapter(a.db)
		if err := episodeDB.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate episodes: %w", err)
		}
		episodes = episodeDB
	}

	var cache outbound.ScriptCachePort
	if a.redis != nil {
		cache = redisadapter.NewScriptCache(a.redis, a.config.Redis.ScriptTTL)
		if a.config.RateLimit.Enabled {
			a.rateLimiter = redisadapter.NewRateLimiter(a.redis)
		}
	}

	domainCfg := podcast.DefaultConfig()
	if a.config.Generator.DefaultModel != "" {
		domainCfg.DefaultModel = a.config.Generator.DefaultModel
	}
	if a.config.Generator.DefaultStyle != "" {
		domainCfg.DefaultStyle = a.config.Generator.DefaultStyle
	}
	if a.config.Generator.DefaultDuration > 0 {
		domainCfg.DefaultDuration = a.config.Generator.DefaultDuration
	}

	a.podcastDomain = podcast.NewDomain(
		writer,
		speech,
		store,
		mirror,
		episodes,
		cache,
		a.metrics,
		domainCfg,
		a.zapLogger.Named("podcast"),
	)

	a.zapLogger.Info("Podcast domain ready",
		zap.String("output_dir", store.Dir()),
		zap.Bool("audio", speech != nil),
		zap.Bool("history", episodes != nil),
		zap.Bool("script_cache", cache != nil),
		zap.Bool("mirror", mirror != nil),
		zap.Bool("rate_limit", a.rateLimiter != nil),
	)

	return nil
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.SetHTMLTemplate(web.Templates())

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.Metrics(a.metrics))
	r.Use(middleware.CORS(a.config.Server.AllowOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if a.metrics != nil {
		r.GET("/metrics", gin.WrapH(a.metrics.Handler()))
	}

	return r
}

// registerRoutes registers all HTTP routes.
func (a *App) registerRoutes() {
	limit := middleware.RateLimitByIP(a.rateLimiter, a.config.RateLimit.Limit, a.config.RateLimit.Window, a.logger)
	ginhandler.NewPodcastHandler(a.podcastDomain).RegisterRoutes(a.router, limit)
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop releases resources.
func (a *App) Stop() {
	if a.zapLogger != nil {
		_ = a.zapLogger.Sync()
	}

	if a.redis != nil {
		_ = a.redis.Close()
	}

	if a.db != nil {
		_ = database.Close(a.db)
	}
}
