package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"senac-reservas-backend/pkg/config"
	"senac-reservas-backend/pkg/database"
	"senac-reservas-backend/pkg/handlers"
	customMiddleware "senac-reservas-backend/pkg/middleware"
	"senac-reservas-backend/pkg/models"
	"senac-reservas-backend/pkg/store"
	"senac-reservas-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxBodyBytes 请求体上限
const maxBodyBytes = 1 << 20

var (
	appOnce sync.Once
	app     *App
	appErr  error
)

// Handler 是Vercel函数的入口点
// 应用只在冷启动时构建一次，之后的调用共享同一个存储
func Handler(w http.ResponseWriter, r *http.Request) {
	// 加载配置
	cfg := config.GetCached()

	// 验证配置
	if err := cfg.Validate(); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Configuration error: "+err.Error())
		return
	}

	appOnce.Do(func() {
		app, appErr = NewApp(cfg, cfg.NewLogger(os.Stdout))
	})
	if appErr != nil {
		utils.WriteInternalServerErrorResponse(w, "Startup error: "+appErr.Error())
		return
	}

	// 将请求传递给Chi路由器处理
	app.Router.ServeHTTP(w, r)
}

// App 组装好的存储、数据存储和路由
type App struct {
	Config *config.Config
	DB     database.Database
	Store  *store.Store
	Router http.Handler
	Logger *slog.Logger
}

// NewApp 打开存储并构建路由
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	dataDir := cfg.DataDir
	// serverless 环境只有 /tmp 可写
	if database.IsVercelEnvironment() && cfg.StorageDriver == database.DriverLocal {
		dataDir = os.TempDir()
	}

	db, err := database.NewDatabase(database.DatabaseConfig{
		Driver:        cfg.StorageDriver,
		DataDir:       dataDir,
		RedisURL:      cfg.RedisURL,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		PostgresDSN:   cfg.PostgresDSN,
		QuotaBytes:    cfg.QuotaBytes,
		Timeout:       cfg.StorageTimeout,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	opts := []store.Option{
		store.WithKey(cfg.StorageKey),
		store.WithLogger(logger),
		store.WithLocation(cfg.Location()),
	}
	if cfg.SeedEmpty {
		opts = append(opts, store.WithEmptyState())
	}
	s := store.New(db, opts...)

	return &App{
		Config: cfg,
		DB:     db,
		Store:  s,
		Router: NewRouter(cfg, s, db, logger),
		Logger: logger,
	}, nil
}

// NewRouter 创建Chi路由器
func NewRouter(cfg *config.Config, s *store.Store, db database.Database, logger *slog.Logger) http.Handler {
	router := chi.NewRouter()

	// 设置全局中间件
	setupMiddleware(router, cfg, logger)

	// 设置路由
	setupRoutes(router, cfg, s, db, logger)

	return router
}

// setupMiddleware 设置全局中间件
func setupMiddleware(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	// 基础中间件
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	// Normalize path and restore scheme/host before logging and routing
	router.Use(customMiddleware.Normalize())
	router.Use(customMiddleware.RequestLogger(logger))
	router.Use(customMiddleware.Recovery(cfg, logger))

	// CORS中间件
	router.Use(customMiddleware.CORS(cfg))

	// 超时中间件（Vercel函数有时间限制）
	router.Use(middleware.Timeout(25 * time.Second)) // 留5秒缓冲

	// 压缩中间件
	router.Use(middleware.Compress(5))

	// 开发环境额外中间件
	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

// setupRoutes 设置所有API路由
func setupRoutes(router *chi.Mux, cfg *config.Config, s *store.Store, db database.Database, logger *slog.Logger) {
	v := utils.NewValidator()
	jwtService := utils.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)

	// 创建处理器
	systemHandler := handlers.NewSystemHandler(cfg, s, db, jwtService, v, logger)
	reservationsHandler := handlers.NewReservationsHandler(cfg, s, v, logger)
	spacesHandler := handlers.NewSpacesHandler(s, v, logger)
	collaboratorsHandler := handlers.NewCollaboratorsHandler(s, v, logger)
	calendarHandler := handlers.NewCalendarHandler(s)

	// 健康检查端点
	router.Get("/", systemHandler.HealthCheck)
	router.Get("/health", systemHandler.HealthCheck)

	adminOnly := customMiddleware.RequireRole(models.RoleAdmin)

	// API路由组
	router.Route("/api", func(r chi.Router) {
		r.Use(customMiddleware.MaxBodySize(maxBodyBytes))
		r.Use(customMiddleware.ContentTypeJSON)
		// 应用认证中间件
		r.Use(customMiddleware.AuthMiddleware(cfg, jwtService, s, logger))

		r.Get("/me", systemHandler.Me)
		r.Get("/stats", systemHandler.Stats)
		r.Get("/export", systemHandler.Export)
		r.With(adminOnly).Post("/auth/token", systemHandler.IssueToken)

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", systemHandler.GetSettings)
			r.With(adminOnly).Patch("/", systemHandler.UpdateSettings)
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", reservationsHandler.ListReservations)
			r.Get("/conflicts", reservationsHandler.CheckConflict)
			r.With(customMiddleware.RequireWriter).Post("/", reservationsHandler.CreateReservation)
			r.With(customMiddleware.RequireWriter).Post("/series", reservationsHandler.CreateSeries)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", reservationsHandler.GetReservation)
				r.With(customMiddleware.RequireWriter).Patch("/", reservationsHandler.UpdateReservation)
				r.With(adminOnly).Delete("/", reservationsHandler.DeleteReservation)
				r.With(adminOnly).Post("/approve", reservationsHandler.ApproveReservation)
				r.With(adminOnly).Post("/reject", reservationsHandler.RejectReservation)
			})
		})

		r.Route("/spaces", func(r chi.Router) {
			r.Get("/", spacesHandler.ListSpaces)
			r.Get("/{id}", spacesHandler.GetSpace)
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", spacesHandler.CreateSpace)
				r.Patch("/{id}", spacesHandler.UpdateSpace)
				r.Delete("/{id}", spacesHandler.DeleteSpace)
			})
		})

		r.Route("/collaborators", func(r chi.Router) {
			r.Get("/", collaboratorsHandler.ListCollaborators)
			r.Get("/{id}", collaboratorsHandler.GetCollaborator)
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/", collaboratorsHandler.CreateCollaborator)
				r.Patch("/{id}", collaboratorsHandler.UpdateCollaborator)
				r.Delete("/{id}", collaboratorsHandler.DeleteCollaborator)
			})
		})

		r.Get("/calendar/{year}/{month}", calendarHandler.GetMonth)
		r.Get("/calendar.ics", calendarHandler.GetFeed)
	})

	// 404处理
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
	})

	// 405处理
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponseWithCode(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path), nil)
	})
}
