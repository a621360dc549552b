package app

import (
	"context"
	"evalmate_backend/internal/config"
	"evalmate_backend/internal/controller"
	"evalmate_backend/internal/repository"
	"evalmate_backend/internal/service"
	"evalmate_backend/pkg/database"
	"evalmate_backend/pkg/logger"
	"evalmate_backend/pkg/monitoring"
	"evalmate_backend/pkg/security"
	"evalmate_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	profile  *repository.ProfileRepository
	form     *repository.FormRepository
	response *repository.ResponseRepository
	pending  *repository.PendingRepository
	draft    *repository.DraftRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	form       *service.FormService
	evaluation *service.EvaluationService
	student    *service.StudentService
	report     *service.ReportService
	profile    *service.ProfileService
}

type controllers struct {
	auth       *controller.AuthController
	form       *controller.FormController
	evaluation *controller.EvaluationController
	student    *controller.StudentController
	report     *controller.ReportController
	profile    *controller.ProfileController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig hands a freshly reloaded config to every registered callback.
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		profile:  repository.NewProfileRepository(db),
		form:     repository.NewFormRepository(db),
		response: repository.NewResponseRepository(db),
		pending:  repository.NewPendingRepository(db),
		draft:    repository.NewDraftRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	sessions := service.NewRedisSessionStore(rdb, cfg.Wizard.SessionTTL)

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, repos.profile, cfg)
	s.form = service.NewFormService(repos.form, repos.pending, sessions)
	s.evaluation = service.NewEvaluationService(repos.form, repos.draft, repos.pending, repos.response, sessions, db)
	s.student = service.NewStudentService(repos.form, repos.pending, repos.draft, repos.response)
	s.report = service.NewReportService(repos.form, repos.response, repos.profile)
	s.profile = service.NewProfileService(repos.profile, s.storage)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		form:       controller.NewFormController(s.form, s.auth),
		evaluation: controller.NewEvaluationController(s.form, s.evaluation, s.auth),
		student:    controller.NewStudentController(s.student, s.auth),
		report:     controller.NewReportController(s.report, s.auth),
		profile:    controller.NewProfileController(s.profile, s.auth),
		health:     controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 1000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Migrations run automatically outside release mode; in release they
	// need the -migrate flag.
	if cfg.Server.Mode != "release" || cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to run migrations", zap.Error(err))
		}
	}
	if cfg.MigrateOnly {
		logger.Log.Info("Migrations complete, exiting")
		os.Exit(0)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db)

	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("evalmate", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
