package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"training_progress_backend/internal/config"
	"training_progress_backend/internal/controller"
	"training_progress_backend/internal/progression"
	"training_progress_backend/internal/repository"
	"training_progress_backend/internal/service"
	"training_progress_backend/pkg/configwatcher"
	"training_progress_backend/pkg/database"
	"training_progress_backend/pkg/logger"
	"training_progress_backend/pkg/monitoring"
	"training_progress_backend/pkg/security"
	"training_progress_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
	tracerProvider  *sdktrace.TracerProvider
	stop            chan struct{}
}

type repositories struct {
	batch *repository.BatchRepository
	cadet *repository.CadetProgressRepository
	event *repository.TrainingEventRepository
}

type services struct {
	catalog     *progression.Catalog
	storage     *service.StorageService
	statsCache  service.StatsCache
	progression *service.ProgressionService
	batch       *service.BatchService
}

type controllers struct {
	level       *controller.LevelController
	progression *controller.ProgressionController
	batch       *controller.BatchController
	archive     *controller.ArchiveController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		batch: repository.NewBatchRepository(db),
		cadet: repository.NewCadetProgressRepository(db),
		event: repository.NewTrainingEventRepository(db),
	}
}

// initCatalog 配置中给出等级表时以其为准，否则使用内置五级表；等级表只在启动时加载一次
func initCatalog(cfg *config.Config) (*progression.Catalog, error) {
	if len(cfg.Progression.Levels) == 0 {
		return progression.DefaultCatalog(), nil
	}
	return progression.NewCatalog(cfg.Progression.Levels)
}

func (a *App) initServices(repos *repositories, catalog *progression.Catalog, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{catalog: catalog}

	s.storage = service.NewStorageService(cfg)

	if rdb != nil {
		cache := service.NewRedisStatsCache(rdb, cfg.Progression.StatsCacheTTL())
		a.RegisterConfigCallback(func(newCfg *config.Config) {
			cache.SetTTL(newCfg.Progression.StatsCacheTTL())
			logger.Log.Info("Batch stats cache TTL updated", zap.Duration("ttl", cache.TTL()))
		})
		s.statsCache = cache
	} else {
		s.statsCache = service.NewMemoryStatsCache()
	}

	s.progression = service.NewProgressionService(catalog, repos.cadet, repos.batch, repos.event, s.storage, db)
	s.batch = service.NewBatchService(repos.batch, repos.cadet, s.statsCache, db)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		level:       controller.NewLevelController(s.catalog),
		progression: controller.NewProgressionController(s.progression),
		batch:       controller.NewBatchController(s.batch),
		archive:     controller.NewArchiveController(s.storage),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window(), a.stop))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			// 统计缓存退化为进程内缓存
			logger.Log.Warn("Redis unavailable, using in-memory stats cache", zap.Error(err))
			rdb = nil
		}
	}

	app, err := newApp(cfg, db, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize application", zap.Error(err))
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	return app
}

func newApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*App, error) {
	catalog, err := initCatalog(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		stop:   make(chan struct{}),
	}
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.SetMode(newCfg.Server.Mode)
	})

	repos := app.initRepositories(db)
	services := app.initServices(repos, catalog, cfg, db, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	return app, nil
}

// watchConfig 配置文件变更后依次执行注册的回调
func (a *App) watchConfig(ctx context.Context) {
	if a.Config.ConfigDir == "" {
		return
	}
	path := filepath.Join(a.Config.ConfigDir, "config.yaml")
	go func() {
		err := configwatcher.WatchConfig(ctx, path, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	a.watchConfig(watchCtx)

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	stopWatch()
	close(a.stop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
