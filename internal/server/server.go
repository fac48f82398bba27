// Пакет server — HTTP-сервер geoattend с graceful shutdown.
// Без TLS — TLS termination на reverse proxy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/geoattend/internal/api/errors"
	"github.com/bigkaa/geoattend/internal/api/handlers"
	"github.com/bigkaa/geoattend/internal/api/middleware"
	"github.com/bigkaa/geoattend/internal/auth"
	"github.com/bigkaa/geoattend/internal/config"
)

// Server — HTTP-сервер geoattend.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт HTTP-сервер с маршрутами и middleware.
// Порядок middleware: метрики, логирование, Gate. Gate решает доступ
// к каждому пути до вызова обработчика.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	api *handlers.APIHandler,
	health *handlers.HealthHandler,
	verifier middleware.SessionVerifier,
	cookies *auth.CookieTransport,
) *Server {
	router := NewRouter(logger, api, health, verifier, cookies)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает chi-роутер со всеми маршрутами.
func NewRouter(
	logger *slog.Logger,
	api *handlers.APIHandler,
	health *handlers.HealthHandler,
	verifier middleware.SessionVerifier,
	cookies *auth.CookieTransport,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Metrics())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Gate(verifier, cookies, logger))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.NotFound(w, "Not found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.MethodNotAllowed(w)
	})

	// Health и метрики
	r.Get("/health/live", health.HealthLive)
	r.Get("/health/ready", health.HealthReady)
	r.Get("/metrics", health.GetMetrics)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", api.Register)
		r.Post("/auth/login", api.Login)
		r.Post("/auth/logout", api.Logout)

		r.Get("/me", api.GetMe)
		r.Patch("/me", api.UpdateMe)

		r.Post("/checkin", api.Checkin)
		r.Get("/attendance/today", api.Today)
		r.Get("/history", api.History)

		r.Get("/locations", api.ListLocations)
		r.Post("/locations", api.CreateLocation)
		r.Get("/locations/{id}", api.GetLocation)
		r.Patch("/locations/{id}", api.UpdateLocation)
		r.Delete("/locations/{id}", api.DeleteLocation)
		r.Get("/locations/{id}/history", api.LocationHistory)

		r.Get("/users", api.ListUsers)
		r.Post("/users", api.CreateUser)
		r.Patch("/users/{id}", api.UpdateUser)
	})

	// Страницы
	r.Get("/", api.Root)
	r.Get("/login", api.Page("login"))
	r.Get("/register", api.Page("register"))
	r.Get("/home", api.Page("home"))
	r.Get("/attendance", api.Page("attendance"))
	r.Get("/attendance/{id}", api.Page("attendance-site"))
	r.Get("/history", api.Page("history"))
	r.Get("/profile", api.Page("profile"))
	r.Get("/dashboard", api.Page("dashboard"))
	r.Get("/locations", api.Page("locations"))
	r.Get("/locations/*", api.Page("locations"))
	r.Get("/users", api.Page("users"))
	r.Get("/users/*", api.Page("users"))

	return r
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
