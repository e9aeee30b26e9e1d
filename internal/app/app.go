package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidar/teamflow/internal/config"
	"github.com/aidar/teamflow/internal/domain"
	"github.com/aidar/teamflow/internal/handler"
	"github.com/aidar/teamflow/internal/jobs"
	"github.com/aidar/teamflow/internal/metrics"
	"github.com/aidar/teamflow/internal/middleware"
	"github.com/aidar/teamflow/internal/ratelimit"
	"github.com/aidar/teamflow/internal/repository/postgres"
	"github.com/aidar/teamflow/internal/service"
)

// App представляет приложение со всеми зависимостями
type App struct {
	config    *config.Config
	db        *pgxpool.Pool
	server    *http.Server
	logger    *slog.Logger
	metrics   *metrics.Metrics
	limiter   *ratelimit.Limiter
	scheduler *jobs.Scheduler
}

// New создает новый экземпляр приложения
func New(cfg *config.Config) (*App, error) {
	// Инициализируем структурированный логгер (JSON формат)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	app := &App{
		config: cfg,
		logger: logger,
	}

	if cfg.Metrics.Enabled {
		app.metrics = metrics.New()
	}

	return app, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Initialize инициализирует все компоненты приложения
func (a *App) Initialize(ctx context.Context) error {
	// Подключаемся к базе данных
	if err := a.connectDB(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Подключаемся к Redis, если ограничение запросов включено
	if err := a.connectLimiter(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	// Настраиваем HTTP сервер и роутинг
	if err := a.setupServer(); err != nil {
		return err
	}

	a.logger.Info("Application initialized successfully")
	return nil
}

// connectDB устанавливает подключение к PostgreSQL с connection pool
func (a *App) connectDB(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(a.config.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}

	// Настраиваем размеры connection pool
	poolConfig.MaxConns = a.config.Database.MaxConns
	poolConfig.MinConns = a.config.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Проверяем подключение к БД
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	a.db = pool
	a.logger.Info("Connected to database")
	return nil
}

// connectLimiter создает ограничитель запросов на Redis
func (a *App) connectLimiter(ctx context.Context) error {
	rl := a.config.RateLimit
	if !rl.Enabled() {
		a.logger.Info("Rate limiting disabled")
		return nil
	}

	limiter := ratelimit.New(ratelimit.NewClient(rl.RedisAddr, rl.RedisPassword, rl.RedisDB), rl.Requests, rl.Window)
	if err := limiter.Ping(ctx); err != nil {
		_ = limiter.Close()
		return err
	}

	a.limiter = limiter
	a.logger.Info("Rate limiting enabled", "requests", rl.Requests, "window", rl.Window.String())
	return nil
}

// setupServer инициализирует HTTP роутер, обработчики и фоновые задачи
func (a *App) setupServer() error {
	opts := []service.Option{
		service.WithLogger(a.logger),
		service.WithMetrics(a.metrics),
	}

	// Инициализируем слой репозиториев (работа с БД)
	txManager := postgres.NewTxManager(a.db)
	teamRepo := postgres.NewTeamRepository(a.db)
	inviteRepo := postgres.NewInviteRepository(a.db)
	membershipRepo := postgres.NewMembershipRepository(a.db)
	subRepo := postgres.NewSubscriptionRepository(a.db)
	activityRepo := postgres.NewActivityRepository(a.db)

	// Инициализируем слой сервисов (бизнес-логика)
	tokens := service.NewTokenIssuer(
		a.config.Token.Secret,
		a.config.Token.AnonymousTTL(),
		a.config.Token.AuthenticatedTTL(),
	)
	codes := service.NewCodeGenerator(opts...)
	teamService := service.NewTeamService(txManager, teamRepo, inviteRepo, membershipRepo, subRepo, codes, a.config.Invite.TTL(), opts...)
	membershipService := service.NewMembershipService(txManager, teamRepo, inviteRepo, membershipRepo, subRepo, tokens, opts...)
	activityService := service.NewActivityService(activityRepo, opts...)
	statsService := service.NewStatsService(teamRepo, activityRepo)
	subscriptionService := service.NewSubscriptionService(subRepo)

	// Инициализируем HTTP обработчики
	teamHandler := handler.NewTeamHandler(teamService)
	membershipHandler := handler.NewMembershipHandler(membershipService)
	activityHandler := handler.NewActivityHandler(activityService)
	statsHandler := handler.NewStatsHandler(statsService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)

	// Инициализируем middleware авторизации и ограничения запросов
	var limiter middleware.Limiter
	if a.limiter != nil {
		limiter = a.limiter
	}
	rateLimit := middleware.RateLimit(limiter, a.logger, a.metrics)
	optionalToken := middleware.OptionalToken(tokens)
	anyMember := middleware.RequireToken(tokens, domain.RoleEmployee)
	managerOnly := middleware.RequireToken(tokens, domain.RoleManager)
	teamScope := middleware.RequireTeamScope("teamID")

	// Настраиваем роутер
	r := chi.NewRouter()

	// Глобальные middleware (применяются ко всем запросам)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Metrics(a.metrics))

	// Health check для мониторинга
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			a.logger.Error("Failed to write health check response", "error", err)
		}
	})

	// Метрики Prometheus
	if a.metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		// Публичные эндпоинты с ограничением запросов
		r.Group(func(r chi.Router) {
			r.Use(rateLimit)

			r.Post("/teams", teamHandler.CreateTeam)

			// Токен необязателен, но если передан, должен быть валидным
			r.With(optionalToken).Post("/teams/join", membershipHandler.JoinTeam)
			r.With(optionalToken).Post("/teams/claim-manager-role", membershipHandler.ClaimManagerRole)
		})

		// Команды текущего пользователя
		r.With(anyMember).Get("/teams", teamHandler.ListTeams)

		// Эндпоинты конкретной команды: токен должен быть выдан для этой команды
		r.Route("/teams/{teamID}", func(r chi.Router) {
			r.With(managerOnly, teamScope).Get("/members", teamHandler.Members)
			r.With(managerOnly, teamScope).Get("/stats", statsHandler.TeamStats)
			r.With(anyMember, teamScope).Post("/activity", activityHandler.Record)
		})

		r.With(managerOnly).Get("/subscription/status", subscriptionHandler.Status)
	})

	// Фоновое обновление метрик
	if a.metrics != nil {
		a.scheduler = jobs.NewScheduler(a.logger, a.metrics)
		refresher := jobs.NewGaugeRefresher(teamRepo, membershipRepo, a.metrics)
		if err := a.scheduler.Register(jobs.GaugeRefresherName, a.config.Metrics.RefreshSpec, refresher.Refresh); err != nil {
			return fmt.Errorf("failed to schedule gauge refresh: %w", err)
		}
	}

	// Создаем HTTP сервер с настройками таймаутов
	addr := fmt.Sprintf("%s:%s", a.config.Server.Host, a.config.Server.Port)
	a.server = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	a.logger.Info("HTTP server configured", "addr", addr)
	return nil
}

// Run запускает фоновые задачи и HTTP сервер
func (a *App) Run() error {
	if a.scheduler != nil {
		a.scheduler.Start()
	}

	a.logger.Info("Starting HTTP server", "addr", a.server.Addr)
	return a.server.ListenAndServe()
}

// Shutdown корректно останавливает приложение
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application")

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	// Останавливаем HTTP сервер (ждем завершения текущих запросов)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	if a.limiter != nil {
		if err := a.limiter.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", "error", err)
		}
	}

	// Закрываем подключения к базе данных
	if a.db != nil {
		a.db.Close()
	}

	a.logger.Info("Application stopped gracefully")
	return nil
}
