package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/icu-console/internal/dashboard"
	"github.com/xela07ax/icu-console/internal/domain"
	"github.com/xela07ax/icu-console/internal/view"
)

// DashboardHandler переводит HTTP-запросы консоли в действия контроллера
// и отдает отрендеренную страницу либо JSON-срез состояния.
type DashboardHandler struct {
	controller *dashboard.Controller
	loop       *dashboard.SyncLoop
	store      *view.Store
	logger     *zap.Logger

	// Ручной reload заставляет бэкенд пересчитывать данные — кликеров
	// притормаживаем, лишние запросы получают 429.
	reloadLimit *rate.Limiter
}

func NewDashboardHandler(
	controller *dashboard.Controller,
	loop *dashboard.SyncLoop,
	store *view.Store,
	logger *zap.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		controller:  controller,
		loop:        loop,
		store:       store,
		logger:      logger.Named("dashboard-handler"),
		reloadLimit: rate.NewLimiter(rate.Every(5*time.Second), 2),
	}
}

// GetDashboard — главная страница. Параметры risk/search применяются как
// смена фильтра (мгновенный refresh), select — как выбор пациента.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if sel := q.Get("select"); sel != "" {
		id, err := strconv.Atoi(sel)
		if err != nil {
			http.Error(w, "select must be a patient id", http.StatusBadRequest)
			return
		}
		h.controller.OnRowSelect(r.Context(), id)
		http.Redirect(w, r, dashboardURL(h.loop.Filter()), http.StatusSeeOther)
		return
	}

	if q.Has("risk") || q.Has("search") {
		risk := q.Get("risk")
		if !domain.ValidTier(risk) {
			http.Error(w, "unknown risk tier", http.StatusBadRequest)
			return
		}
		current := h.loop.Filter()
		if risk != current.Risk || q.Get("search") != current.Search {
			h.controller.OnQueryChange(r.Context(), risk, q.Get("search"))
		}
	}

	f := h.loop.Filter()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(view.RenderPage(h.store.View(), f.Risk, f.Search)))
}

// GetState — JSON-срез состояния для программного доступа и смоук-проверок.
func (h *DashboardHandler) GetState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.store.View()); err != nil {
		h.logger.Warn("state encode failed", zap.Error(err))
	}
}

// Reload — ручная перезагрузка данных бэкенда.
func (h *DashboardHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if !h.reloadLimit.Allow() {
		http.Error(w, "reload throttled, try again shortly", http.StatusTooManyRequests)
		return
	}
	h.controller.OnReload(r.Context())
	http.Redirect(w, r, dashboardURL(h.loop.Filter()), http.StatusSeeOther)
}

// ToggleAutoRefresh — кнопка Auto Refresh ON/OFF.
func (h *DashboardHandler) ToggleAutoRefresh(w http.ResponseWriter, r *http.Request) {
	on := h.controller.OnToggleAutoRefresh()
	h.logger.Info("auto refresh toggled", zap.Bool("enabled", on))
	http.Redirect(w, r, dashboardURL(h.loop.Filter()), http.StatusSeeOther)
}

// dashboardURL сохраняет текущий фильтр при редиректах после действий.
func dashboardURL(f dashboard.Filter) string {
	if f.Risk == "" && f.Search == "" {
		return "/"
	}
	vals := url.Values{}
	vals.Set("risk", f.Risk)
	vals.Set("search", f.Search)
	return "/?" + vals.Encode()
}
