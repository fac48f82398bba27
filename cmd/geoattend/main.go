// Точка входа geoattend — учёт посещаемости с геозонами.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт сервисный слой и API handlers, запускает topologymetrics
// и HTTP-сервер с Gate middleware и graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/bigkaa/geoattend/internal/api/handlers"
	"github.com/bigkaa/geoattend/internal/auth"
	"github.com/bigkaa/geoattend/internal/config"
	"github.com/bigkaa/geoattend/internal/database"
	"github.com/bigkaa/geoattend/internal/domain/daywindow"
	"github.com/bigkaa/geoattend/internal/events"
	"github.com/bigkaa/geoattend/internal/repository"
	"github.com/bigkaa/geoattend/internal/server"
	"github.com/bigkaa/geoattend/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("geoattend запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Repositories
	userRepo := repository.NewUserRepository(pool)
	locationRepo := repository.NewLocationRepository(pool)
	grantRepo := repository.NewGrantRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	// 6. Сессии и границы дня
	sessions, err := auth.NewAuthority(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		logger.Error("Ошибка создания Session Authority", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cookies := auth.NewCookieTransport(cfg.SessionCookieName, cfg.SessionSecureCookie, cfg.SessionTTL)

	days, err := daywindow.NewResolver(cfg.DayUTCOffset)
	if err != nil {
		logger.Error("Ошибка разбора смещения дня", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. Публикация событий (опционально, если задан GA_AMQP_URL)
	var (
		publisher     events.Publisher = events.Nop{}
		brokerChecker handlers.ReadinessChecker
	)
	if cfg.AMQPURL != "" {
		rabbit, rabbitErr := events.NewRabbitPublisher(ctx, cfg.AMQPURL, cfg.AMQPExchange, logger)
		if rabbitErr != nil {
			logger.Warn("RabbitMQ недоступен, события не публикуются",
				slog.String("error", rabbitErr.Error()),
			)
		} else {
			publisher = rabbit
			brokerChecker = rabbit
		}
	} else {
		logger.Info("Публикация событий отключена (GA_AMQP_URL не задан)")
	}
	defer func() { _ = publisher.Close() }()

	// 8. Services
	sites := service.NewSiteCache(locationRepo, cfg.SiteCacheSize, cfg.SiteCacheTTL)
	usersSvc := service.NewUserService(
		userRepo, grantRepo, locationRepo,
		service.NewTxFunc(txRunner),
		sessions,
		logger,
	)
	locationsSvc := service.NewLocationService(locationRepo, grantRepo, sites, cfg.DefaultSiteRadius, logger)
	attendanceSvc := service.NewAttendanceService(
		userRepo, grantRepo, attendanceRepo,
		sites, days, publisher,
		logger,
	)

	// 8.1 Начальный администратор
	if cfg.BootstrapAdminEnabled() {
		if err := usersSvc.EnsureBootstrapAdmin(ctx,
			cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword, cfg.BootstrapAdminName,
		); err != nil {
			logger.Error("Ошибка создания начального администратора", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// 9. topologymetrics — мониторинг PostgreSQL
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"geoattend",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL("postgres"),
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
		dephealthSvc = nil
	} else if startErr := dephealthSvc.Start(ctx); startErr != nil {
		logger.Warn("Ошибка запуска topologymetrics",
			slog.String("error", startErr.Error()),
		)
	} else {
		logger.Info("topologymetrics запущен",
			slog.String("group", cfg.DephealthGroup),
			slog.String("check_interval", cfg.DephealthCheckInterval.String()),
		)
	}

	// 10. Handlers
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(pool), brokerChecker)
	apiHandler := handlers.NewAPIHandler(attendanceSvc, locationsSvc, usersSvc, cookies, logger)

	// 11. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, healthHandler, sessions, cookies)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 12. Остановка фоновых задач
	if dephealthSvc != nil {
		dephealthSvc.Stop()
	}

	logger.Info("geoattend остановлен")
}
