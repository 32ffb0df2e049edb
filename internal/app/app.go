package app

import (
	"context"
	"errors"
	"learnboard_backend/internal/config"
	"learnboard_backend/internal/controller"
	"learnboard_backend/internal/realtime"
	"learnboard_backend/internal/repository"
	"learnboard_backend/internal/repository/memstore"
	"learnboard_backend/internal/service"
	"learnboard_backend/pkg/configwatcher"
	"learnboard_backend/pkg/database"
	"learnboard_backend/pkg/logger"
	"learnboard_backend/pkg/monitoring"
	"learnboard_backend/pkg/security"
	"learnboard_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const serviceName = "learnboard"

type App struct {
	Config *config.Config
	Router *gin.Engine
	// DB is nil when the memory driver is configured.
	DB    *gorm.DB
	Redis *redis.Client
	Hub   *realtime.Hub

	services        *services
	tracer          *sdktrace.TracerProvider
	stopWatch       context.CancelFunc
	mu              sync.Mutex
	configCallbacks []func(*config.Config)
}

type stores struct {
	progress    service.ProgressStore
	badge       service.BadgeStore
	certificate service.CertificateStore
	course      service.CourseStore
	profile     service.ProfileStore
	community   service.CommunityStore
}

type services struct {
	progress    *service.ProgressService
	award       *service.AwardService
	achievement *service.AchievementService
	leaderboard *service.LeaderboardService
	dashboard   *service.DashboardService
	course      *service.CourseService
	community   *service.CommunityService
}

type controllers struct {
	achievement *controller.AchievementController
	dashboard   *controller.DashboardController
	course      *controller.CourseController
	community   *controller.CommunityController
	realtime    *controller.RealtimeController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

// applyConfig runs the registered callbacks with a reloaded config. Only
// settings read at request time change; connections are not rebuilt.
func (a *App) applyConfig(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initStores(db *gorm.DB) *stores {
	if db == nil {
		mem := memstore.New()
		seedCatalog(mem)
		return &stores{
			progress:    memstore.NewProgressRepository(mem),
			badge:       memstore.NewBadgeRepository(mem),
			certificate: memstore.NewCertificateRepository(mem),
			course:      memstore.NewCourseRepository(mem),
			profile:     memstore.NewProfileRepository(mem),
			community:   memstore.NewCommunityRepository(mem),
		}
	}
	return &stores{
		progress:    repository.NewProgressRepository(db),
		badge:       repository.NewBadgeRepository(db),
		certificate: repository.NewCertificateRepository(db),
		course:      repository.NewCourseRepository(db),
		profile:     repository.NewProfileRepository(db),
		community:   repository.NewCommunityRepository(db),
	}
}

func (a *App) publisher() realtime.Publisher {
	if a.Redis == nil {
		return realtime.LogPublisher{}
	}
	return realtime.NewRedisPublisher(a.Redis)
}

func (a *App) notifier(p realtime.Publisher) service.Notifier {
	if a.Redis == nil {
		return service.LogNotifier{}
	}
	return service.MultiNotifier{service.NewPublishNotifier(p), service.LogNotifier{}}
}

func (a *App) initServices(st *stores, cfg *config.Config) *services {
	s := &services{}
	pub := a.publisher()

	detector := service.NewCompletionDetector(st.progress, st.badge, st.certificate)
	s.award = service.NewAwardService(detector, st.course, st.badge, st.certificate, a.notifier(pub), pub, cfg.Award)

	s.progress = service.NewProgressService(st.progress)
	s.progress.OnCompleted = func(userID, courseID string) {
		logger.Log.Info("Course completed", zap.String("userId", userID), zap.String("courseId", courseID))
		s.award.ScanInBackground(userID)
	}

	s.achievement = service.NewAchievementService(st.badge, st.certificate, st.progress)
	s.leaderboard = service.NewLeaderboardService(st.profile, cfg.Leaderboard)
	s.dashboard = service.NewDashboardService(st.profile, st.progress, st.badge)
	s.course = service.NewCourseService(st.course, st.certificate, s.progress)
	s.community = service.NewCommunityService(st.community, pub)

	a.RegisterConfigCallback(func(cfg *config.Config) {
		s.award.UpdateConfig(cfg.Award)
		s.leaderboard.UpdateConfig(cfg.Leaderboard)
	})
	return s
}

func (a *App) initControllers(s *services) *controllers {
	// a nil *Hub must not end up in a non-nil interface
	var hub controller.EventListener
	if a.Hub != nil {
		hub = a.Hub
	}
	return &controllers{
		achievement: controller.NewAchievementController(s.achievement, s.award, s.leaderboard),
		dashboard:   controller.NewDashboardController(s.dashboard, s.progress),
		course:      controller.NewCourseController(s.course),
		community:   controller.NewCommunityController(s.community),
		realtime:    controller.NewRealtimeController(hub),
		health:      controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute

	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, window, security.ClientIP))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) initBackends(cfg *config.Config) error {
	if cfg.Database.Driver != "memory" {
		db, err := database.InitDB(&cfg.Database, cfg.Server.Mode != gin.ReleaseMode)
		if err != nil {
			return err
		}
		a.DB = db

		// release 模式下默认不自动迁移
		if cfg.Server.Mode != gin.ReleaseMode || cfg.ForceMigrate {
			if err := database.Migrate(db); err != nil {
				return err
			}
		}
	} else {
		logger.Log.Warn("Using in-memory store, data is lost on restart")
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			return err
		}
		a.Redis = rdb

		hub, err := realtime.NewHub(context.Background(), rdb)
		if err != nil {
			return err
		}
		a.Hub = hub
	}
	return nil
}

func NewApp(cfg *config.Config) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	app := &App{Config: cfg}
	if err := app.initBackends(cfg); err != nil {
		app.closeBackends()
		return nil, err
	}
	if cfg.MigrateOnly {
		return app, nil
	}

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(serviceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			app.closeBackends()
			return nil, err
		}
		app.tracer = tp
	}

	// 监控初始化
	monitoring.Init()

	st := app.initStores(app.DB)
	app.services = app.initServices(st, cfg)
	ctrls := app.initControllers(app.services)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, ctrls, cfg)

	app.startBackgroundTasks(cfg)
	return app, nil
}

func (a *App) startBackgroundTasks(cfg *config.Config) {
	if !cfg.Server.WatchConfig {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.stopWatch = cancel

	path := filepath.Join(cfg.ConfigPath, "config.yaml")
	go func() {
		if err := configwatcher.WatchConfig(ctx, path, a.applyConfig); err != nil {
			logger.Log.Error("Config watcher stopped", zap.String("path", path), zap.Error(err))
		}
	}()
}

// closeBackends releases everything opened by initBackends, in reverse order.
func (a *App) closeBackends() {
	if a.Hub != nil {
		if err := a.Hub.Close(); err != nil {
			logger.Log.Warn("Failed to close realtime hub", zap.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			logger.Log.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func (a *App) Shutdown(ctx context.Context) {
	if a.stopWatch != nil {
		a.stopWatch()
	}
	if a.services != nil {
		a.services.award.Wait()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	a.closeBackends()
}

func (a *App) Run() error {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		a.Shutdown(context.Background())
		return err
	case <-quit:
	}
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 先关闭实时推送，SSE 连接才会结束
	if a.Hub != nil {
		a.Hub.Close()
	}
	err := srv.Shutdown(ctx)
	a.Shutdown(ctx)

	logger.Log.Info("Server exiting")
	return err
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
