// Пакет server — HTTP-сервер Медиатеки с graceful shutdown.
// Без TLS — HTTP внутри кластера, TLS termination на API Gateway.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/mediateka/internal/api/handlers"
	"github.com/bigkaa/mediateka/internal/api/middleware"
	"github.com/bigkaa/mediateka/internal/config"
)

// Server — HTTP-сервер Медиатеки.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// NewRouter собирает chi-роутер со всеми маршрутами и middleware.
// jwtAuth может быть nil — тогда JWT-аутентификация не подключается
// (используется в тестах, где claims инжектируются напрямую в контекст).
func NewRouter(logger *slog.Logger, apiHandler *handlers.APIHandler, jwtAuth *middleware.JWTAuth) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))
	if jwtAuth != nil {
		router.Use(JWTAuthWithExclusions(jwtAuth.Middleware(), "/health/", "/metrics"))
	}

	// Служебные endpoints — без аутентификации
	router.Get("/health/live", apiHandler.HealthLive)
	router.Get("/health/ready", apiHandler.HealthReady)
	router.Get("/metrics", apiHandler.GetMetrics)

	router.Route("/api/v1", func(r chi.Router) {
		// Чтение каталога: admin/readonly или SA с media:read
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoleOrScope(
				[]string{middleware.RoleAdmin, middleware.RoleReadonly},
				[]string{middleware.ScopeMediaRead},
			))
			r.Get("/media", apiHandler.ListMedia)
			r.Get("/media/{id}", apiHandler.GetMedia)
			r.Get("/media/{id}/description", apiHandler.GetMediaDescription)
			r.Post("/media/{id}/download", apiHandler.DownloadMedia)
			r.Get("/media/{id}/trailer", apiHandler.GetMediaTrailer)
			r.Get("/media-types", apiHandler.ListMediaTypes)
			r.Get("/stats", apiHandler.GetStats)
		})

		// Изменение каталога: admin или SA с media:write
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoleOrScope(
				[]string{middleware.RoleAdmin},
				[]string{middleware.ScopeMediaWrite},
			))
			r.Post("/media", apiHandler.CreateMedia)
			r.Put("/media/{id}", apiHandler.UpdateMedia)
			r.Delete("/media/{id}", apiHandler.DeleteMedia)
			r.Post("/media/{id}/borrow", apiHandler.BorrowMedia)
			r.Post("/media/{id}/return", apiHandler.ReturnMedia)
		})
	})

	return router
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
func New(cfg *config.Config, logger *slog.Logger, apiHandler *handlers.APIHandler, jwtAuth *middleware.JWTAuth) *Server {
	router := NewRouter(logger, apiHandler, jwtAuth)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// JWTAuthWithExclusions оборачивает middleware, пропуская указанные пути.
// Запросы к путям, начинающимся с любого из excludePrefixes, проходят без middleware.
func JWTAuthWithExclusions(mw func(http.Handler) http.Handler, excludePrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Проверяем, начинается ли путь с исключённого префикса
			for _, prefix := range excludePrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			// Применяем middleware
			mw(next).ServeHTTP(w, r)
		})
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
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

	// Ожидание сигнала завершения
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

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
