package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/icu-console/internal/backend"
	"github.com/xela07ax/icu-console/internal/dashboard"
	"github.com/xela07ax/icu-console/internal/domain"
	"github.com/xela07ax/icu-console/internal/infra"
	"github.com/xela07ax/icu-console/internal/view"
)

// newTestHandler поднимает хендлер поверх минимального фейкового бэкенда.
func newTestHandler(t *testing.T) (*DashboardHandler, *view.Store) {
	t.Helper()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/summary":
			json.NewEncoder(w).Encode(domain.SummaryResponse{
				LastRefreshed: "2026-08-31T10:00:00+00:00",
				Summary:       domain.DashboardSummary{PatientsMonitored: 2},
			})
		case r.URL.Path == "/patients":
			json.NewEncoder(w).Encode(domain.PatientList{Count: 2, Items: []domain.PatientSummary{
				{SubjectID: 10, RiskTier: domain.TierHigh},
				{SubjectID: 11, RiskTier: domain.TierLow},
			}})
		case strings.HasPrefix(r.URL.Path, "/patients/"):
			json.NewEncoder(w).Encode(domain.PatientDetail{
				Patient: domain.PatientSummary{SubjectID: 10, RiskTier: domain.TierHigh},
			})
		case r.URL.Path == "/alerts/live":
			json.NewEncoder(w).Encode(domain.AlertList{})
		case r.URL.Path == "/notifications/status":
			json.NewEncoder(w).Encode(domain.NotificationStatus{Enabled: true})
		case r.URL.Path == "/reload":
			w.Write([]byte(`{"status":"reloaded"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)

	cfg := infra.BackendConfig{BaseURL: ts.URL, PatientLimit: 150, AlertLimit: 25}
	logger := zap.NewNop()
	metrics := infra.NewMetrics(nil)

	client := backend.NewClient(cfg, logger, metrics)
	store := view.NewStore()
	loop := dashboard.NewSyncLoop(client, store, nil, cfg, logger, metrics)
	controller := dashboard.NewController(loop, store, logger)
	return NewDashboardHandler(controller, loop, store, logger), store
}

func TestGetDashboard_RendersPage(t *testing.T) {
	h, store := newTestHandler(t)

	// прогреваем состояние одним батчем
	req := httptest.NewRequest(http.MethodGet, "/?risk=high&search=", nil)
	rec := httptest.NewRecorder()
	h.GetDashboard(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "patientRows")
	assert.Len(t, store.View().Patients, 2)
}

func TestGetDashboard_RejectsUnknownTier(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/?risk=severe", nil)
	rec := httptest.NewRecorder()
	h.GetDashboard(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDashboard_SelectRedirectsAndLoadsDetail(t *testing.T) {
	h, store := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/?select=10", nil)
	rec := httptest.NewRecorder()
	h.GetDashboard(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	id, ok := store.Selection()
	require.True(t, ok)
	assert.Equal(t, 10, id)
	require.NotNil(t, store.Detail().Detail)
}

func TestGetState_ReturnsJSONView(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.GetState(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var out view.PageData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.AutoRefresh)
}

// Третий подряд reload упирается в лимитер.
func TestReload_Throttled(t *testing.T) {
	h, _ := newTestHandler(t)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.Reload(rec, httptest.NewRequest(http.MethodPost, "/controls/reload", nil))
		require.Equal(t, http.StatusSeeOther, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.Reload(rec, httptest.NewRequest(http.MethodPost, "/controls/reload", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestToggleAutoRefresh_FlipsFlag(t *testing.T) {
	h, store := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ToggleAutoRefresh(rec, httptest.NewRequest(http.MethodPost, "/controls/autorefresh", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.False(t, store.AutoRefresh())
}
