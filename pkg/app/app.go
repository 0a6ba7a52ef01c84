// Package app 提供应用程序的初始化和配置功能.
package app

import (
	contextPkg "context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/arqdiario/arqvault/pkg/configs"
	"github.com/arqdiario/arqvault/pkg/internal/jobs"
	"github.com/arqdiario/arqvault/pkg/internal/model"
	"github.com/arqdiario/arqvault/pkg/internal/router"
	"github.com/arqdiario/arqvault/pkg/internal/storage"
	"github.com/arqdiario/arqvault/pkg/log"
	"github.com/arqdiario/arqvault/pkg/metrics"
	"github.com/arqdiario/arqvault/pkg/middleware"
	"github.com/arqdiario/arqvault/pkg/scheduler"
)

type App struct {
	Engine    *gin.Engine
	Scheduler *scheduler.Scheduler
	config    *configs.AppConfig
	manager   *storage.Manager
}

func NewApp(configPath string) *App {
	ctx := contextPkg.Background()

	// 初始化配置
	if err := configs.InitConfig(configPath); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	config := configs.GetConfig()

	if !config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// 初始化监控
	if err := metrics.InitMetrics(config.Metrics); err != nil {
		fmt.Printf("Error initializing metrics: %v\n", err)
		os.Exit(1)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		fmt.Printf("Error initializing storage: %v\n", err)
		os.Exit(1)
	}

	if err := model.AutoMigrate(manager.GetDBClient().GetDB()); err != nil {
		fmt.Printf("Error migrating database: %v\n", err)
		os.Exit(1)
	}

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		middleware.GzipMiddleware(),
		middleware.StorageMiddleware(manager),
		middleware.AuthMiddleware(config.Auth),
		middleware.RateLimitMiddleware(config.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.PrometheusMiddleware(),
	)

	if config.Metrics.Enabled {
		_ = metrics.StartMetricsServer(config.Metrics, engine)
	}

	// 路由
	router.RegisterArchiveRoutes(engine.Group("/api/v1"))
	router.RegisterHealthRoutes(engine.Group(""))

	// 定时任务：中断摄取的收尾
	sched, err := scheduler.NewScheduler()
	if err != nil {
		fmt.Printf("Error initializing scheduler: %v\n", err)
		os.Exit(1)
	}

	if err := jobs.RegisterCronJobs(sched, manager); err != nil {
		fmt.Printf("Error registering cron jobs: %v\n", err)
		os.Exit(1)
	}

	return &App{
		Engine:    engine,
		Scheduler: sched,
		config:    config,
		manager:   manager,
	}
}

func (a *App) Run() error {
	a.Scheduler.Start()

	defer func() {
		if err := a.Scheduler.Stop(); err != nil {
			log.Logger().Error().Err(err).Msg("stop scheduler")
		}
	}()

	return a.Engine.Run(fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port))
}
