package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xela07ax/icu-console/internal/console/handler"
	"github.com/xela07ax/icu-console/internal/infra"
)

// ConsoleServer — HTTP-оболочка консоли: отрендеренный дашборд, ручки
// пользовательских действий, состояние и метрики.
type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	dashHandler *handler.DashboardHandler
	promReg     *prometheus.Registry
}

// NewConsoleServer инициализирует сервер консоли со всеми зависимостями
func NewConsoleServer(
	cfg *infra.Config,
	logger *zap.Logger,
	dashH *handler.DashboardHandler,
	promReg *prometheus.Registry,
) *ConsoleServer {
	s := &ConsoleServer{
		router:      chi.NewRouter(),
		logger:      logger.Named("console-api"),
		cfg:         cfg,
		dashHandler: dashH,
		promReg:     promReg,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Healthcheck для мониторинга
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{}))

	// Дашборд и срез состояния
	r.Get("/", s.dashHandler.GetDashboard)
	r.Get("/api/state", s.dashHandler.GetState)

	// Пользовательские действия
	r.Route("/controls", func(r chi.Router) {
		r.Post("/reload", s.dashHandler.Reload)           // пересчет данных на бэкенде
		r.Post("/autorefresh", s.dashHandler.ToggleAutoRefresh) // вкл/выкл таймер
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
