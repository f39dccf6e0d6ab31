package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"pracas_backend/internal/config"
	"pracas_backend/internal/controller"
	"pracas_backend/internal/i18n"
	"pracas_backend/internal/repository"
	"pracas_backend/internal/service"
	"pracas_backend/internal/util"
	"pracas_backend/pkg/configwatcher"
	"pracas_backend/pkg/database"
	"pracas_backend/pkg/logger"
	"pracas_backend/pkg/monitoring"
	"pracas_backend/pkg/security"
	"pracas_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigDir is where config.yaml is looked up and watched.
const ConfigDir = "configs"

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	origins         *security.Origins
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	invite     *repository.InviteRepository
	location   *repository.LocationRepository
	form       *repository.FormRepository
	assessment *repository.AssessmentRepository
	geometry   *repository.GeometryRepository
	tally      *repository.TallyRepository
	cache      *repository.Cache
}

type services struct {
	storage    *service.StorageService
	auth       *service.AuthService
	user       *service.UserService
	invite     *service.InviteService
	location   *service.LocationService
	form       *service.FormService
	assessment *service.AssessmentService
	report     *service.ReportService
	tally      *service.TallyService
	export     *service.ExportService
}

type controllers struct {
	health     *controller.HealthController
	auth       *controller.AuthController
	user       *controller.UserController
	invite     *controller.InviteController
	location   *controller.LocationController
	form       *controller.FormController
	assessment *controller.AssessmentController
	tally      *controller.TallyController
	export     *controller.ExportController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, spatial database.Spatial, rdb *redis.Client, cfg *config.Config) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		invite:     repository.NewInviteRepository(db),
		location:   repository.NewLocationRepository(db, spatial),
		form:       repository.NewFormRepository(db),
		assessment: repository.NewAssessmentRepository(db),
		geometry:   repository.NewGeometryRepository(db, spatial),
		tally:      repository.NewTallyRepository(db),
		cache:      repository.NewCache(rdb, time.Duration(cfg.Redis.CacheTTLMinutes)*time.Minute),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.storage = service.NewStorageService(&cfg.Storage)
	s.auth = service.NewAuthService(repos.user, repos.invite, cfg)
	s.user = service.NewUserService(repos.user)
	s.invite = service.NewInviteService(repos.invite, repos.user, &cfg.Invite)
	s.location = service.NewLocationService(repos.location, s.storage, repos.cache)
	s.form = service.NewFormService(repos.form)
	s.assessment = service.NewAssessmentService(repos.assessment, repos.form, repos.location, repos.geometry)
	s.report = service.NewReportService(repos.assessment, repos.form)
	s.tally = service.NewTallyService(repos.tally, repos.location)
	s.export = service.NewExportService(repos.location, repos.assessment, repos.form, repos.tally)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		health:     controller.NewHealthController(db),
		auth:       controller.NewAuthController(s.auth),
		user:       controller.NewUserController(s.user),
		invite:     controller.NewInviteController(s.invite),
		location:   controller.NewLocationController(s.location),
		form:       controller.NewFormController(s.form),
		assessment: controller.NewAssessmentController(s.assessment, s.report),
		tally:      controller.NewTallyController(s.tally),
		export:     controller.NewExportController(s.export),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(a.origins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))
	router.Use(i18n.Middleware())

	// tracing
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// OpenDatabase connects to the configured database and picks the matching
// spatial dialect.
func OpenDatabase(cfg *config.Config) (*gorm.DB, database.Spatial, error) {
	spatial, err := database.NewSpatial(cfg.Database.Driver, cfg.Database.SRID)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("init database: %w", err)
	}
	return db, spatial, nil
}

// NewAuthService builds the auth service alone, for commands that run
// without the HTTP server.
func NewAuthService(db *gorm.DB, cfg *config.Config) *service.AuthService {
	return service.NewAuthService(repository.NewUserRepository(db), repository.NewInviteRepository(db), cfg)
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	if err := i18n.Init(cfg.I18n.DefaultLang); err != nil {
		logger.Log.Fatal("Failed to load translations", zap.Error(err))
	}

	db, spatial, err := OpenDatabase(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if !cfg.SkipMigrate {
		if err := database.Migrate(db, spatial); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		origins: security.NewOrigins(cfg.CORS.AllowedOrigins),
	}

	repos := app.initRepositories(db, spatial, rdb, cfg)
	services := app.initServices(repos, cfg)
	controllers := app.initControllers(services, db)

	// metrics
	monitoring.Init()

	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/api/uploads", cfg.Storage.LocalPath)
	}

	// hot reload hooks
	app.RegisterConfigCallback(logger.ApplyConfig)
	app.RegisterConfigCallback(func(c *config.Config) {
		app.origins.Set(c.CORS.AllowedOrigins)
	})

	return app
}

func (a *App) watchConfig(ctx context.Context) {
	reloaders := make([]configwatcher.Reloader, 0, len(a.configCallbacks))
	for _, cb := range a.configCallbacks {
		reloaders = append(reloaders, cb)
	}
	file := filepath.Join(ConfigDir, "config.yaml")
	if err := configwatcher.Watch(ctx, file, reloaders...); err != nil {
		logger.Log.Warn("Config hot reload disabled", zap.Error(err))
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go a.watchConfig(watchCtx)

	// serve
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// wait for a signal, then shut down with a 5 second timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")
	stopWatch()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Log.Info("Server exiting")
}
