package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/icu-console/internal/backend"
	"github.com/xela07ax/icu-console/internal/domain"
	"github.com/xela07ax/icu-console/internal/infra"
	"github.com/xela07ax/icu-console/internal/view"
)

// fakeBackend — скриптуемый ICU Intelligence API для тестов цикла.
type fakeBackend struct {
	mu sync.Mutex

	patients []domain.PatientSummary
	alerts   []domain.AlertEvent
	summary  domain.DashboardSummary

	failAlerts  bool // /alerts/live отвечает 500
	failSummary bool // /summary отвечает 500

	detailCalls       []int
	reloads           int
	lastPatientsQuery url.Values
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/summary":
		if f.failSummary {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"last_refreshed": "2026-08-31T10:00:00+00:00",
			"summary":        f.summary,
		})
	case r.URL.Path == "/patients":
		f.lastPatientsQuery = r.URL.Query()
		json.NewEncoder(w).Encode(domain.PatientList{Count: len(f.patients), Items: f.patients})
	case strings.HasPrefix(r.URL.Path, "/patients/"):
		id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/patients/"))
		f.detailCalls = append(f.detailCalls, id)
		for _, p := range f.patients {
			if p.SubjectID == id {
				json.NewEncoder(w).Encode(domain.PatientDetail{Patient: p})
				return
			}
		}
		http.Error(w, "Patient not found", http.StatusNotFound)
	case r.URL.Path == "/alerts/live":
		if f.failAlerts {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(domain.AlertList{Count: len(f.alerts), Items: f.alerts})
	case r.URL.Path == "/notifications/status":
		json.NewEncoder(w).Encode(domain.NotificationStatus{Enabled: true, SentCount: 3})
	case r.URL.Path == "/reload":
		f.reloads++
		w.Write([]byte(`{"status":"reloaded"}`))
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeBackend) setPatients(ids ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patients = f.patients[:0]
	for _, id := range ids {
		f.patients = append(f.patients, domain.PatientSummary{
			SubjectID: id,
			RiskTier:  domain.TierHigh,
		})
	}
}

func (f *fakeBackend) detailCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.detailCalls)
}

func newTestLoop(t *testing.T, fb *fakeBackend) (*SyncLoop, *view.Store) {
	t.Helper()
	ts := httptest.NewServer(fb)
	t.Cleanup(ts.Close)

	cfg := infra.BackendConfig{
		BaseURL:         ts.URL,
		RefreshInterval: 10 * time.Millisecond,
		PatientLimit:    150,
		AlertLimit:      25,
		RequestTimeout:  2 * time.Second,
	}
	client := backend.NewClient(cfg, zap.NewNop(), infra.NewMetrics(nil))
	store := view.NewStore()
	return NewSyncLoop(client, store, nil, cfg, zap.NewNop(), infra.NewMetrics(nil)), store
}

func TestRefresh_CommitsAtomicSnapshot(t *testing.T) {
	fb := &fakeBackend{summary: domain.DashboardSummary{PatientsMonitored: 2}}
	fb.setPatients(10, 11)
	fb.alerts = []domain.AlertEvent{{SubjectID: 10, Alert: "Tachycardia"}}

	loop, store := newTestLoop(t, fb)
	require.NoError(t, loop.Refresh(context.Background()))

	v := store.View()
	assert.Len(t, v.Patients, 2)
	assert.Len(t, v.Alerts, 1)
	assert.Equal(t, 2, v.Summary.PatientsMonitored)
	assert.Equal(t, 3, v.Notifications.SentCount)
	assert.Contains(t, v.Status, "Last refresh")
}

// Один отказ из четырех — весь батч отброшен, прошлое состояние нетронуто.
func TestRefresh_AbandonedOnSingleFailure(t *testing.T) {
	fb := &fakeBackend{}
	fb.setPatients(10, 11)
	fb.alerts = []domain.AlertEvent{{SubjectID: 10, Alert: "Tachycardia"}}

	loop, store := newTestLoop(t, fb)
	require.NoError(t, loop.Refresh(context.Background()))

	// теперь summary и patients отвечают 200, alerts — 500
	fb.mu.Lock()
	fb.failAlerts = true
	fb.patients = []domain.PatientSummary{{SubjectID: 99}}
	fb.mu.Unlock()

	err := loop.Refresh(context.Background())
	require.Error(t, err)

	v := store.View()
	require.Len(t, v.Patients, 2)
	assert.Equal(t, 10, v.Patients[0].SubjectID, "старый снапшот не должен быть задет")
	assert.Len(t, v.Alerts, 1)
}

func TestRefresh_SingleMatchAutoSelect(t *testing.T) {
	fb := &fakeBackend{}
	fb.setPatients(42)

	loop, store := newTestLoop(t, fb)
	require.NoError(t, loop.Refresh(context.Background()))

	id, ok := store.Selection()
	require.True(t, ok)
	assert.Equal(t, 42, id)
	require.NotNil(t, store.Detail().Detail)
	assert.Equal(t, 42, store.Detail().Detail.Patient.SubjectID)
}

func TestRefresh_NoAutoSelectForManyOrZero(t *testing.T) {
	fb := &fakeBackend{}
	fb.setPatients(1, 2)
	loop, store := newTestLoop(t, fb)
	require.NoError(t, loop.Refresh(context.Background()))
	_, ok := store.Selection()
	assert.False(t, ok)

	fb.setPatients()
	require.NoError(t, loop.Refresh(context.Background()))
	_, ok = store.Selection()
	assert.False(t, ok)
}

// Выбор пережил исчезновение пациента из выборки, панель не перечитывалась.
func TestRefresh_SelectionPersistsWhenPatientDisappears(t *testing.T) {
	fb := &fakeBackend{}
	fb.setPatients(42, 7)

	loop, store := newTestLoop(t, fb)
	loop.SelectPatient(context.Background(), 42)
	require.Equal(t, 1, fb.detailCallCount())
	lastGood := store.Detail()

	fb.setPatients(7, 8)
	require.NoError(t, loop.Refresh(context.Background()))

	id, ok := store.Selection()
	require.True(t, ok)
	assert.Equal(t, 42, id)
	assert.Equal(t, 1, fb.detailCallCount(), "пропавший из выборки id не перечитывается")
	assert.Equal(t, lastGood, store.Detail(), "панель остается на последнем удачном рендере")
}

// Выживший в выборке выбор перечитывается каждым refresh.
func TestRefresh_ReloadsDetailForPersistentSelection(t *testing.T) {
	fb := &fakeBackend{}
	fb.setPatients(42, 7)

	loop, store := newTestLoop(t, fb)
	loop.SelectPatient(context.Background(), 42)
	require.NoError(t, loop.Refresh(context.Background()))

	assert.Equal(t, 2, fb.detailCallCount())
	require.NotNil(t, store.Detail().Detail)
}

func TestSelectPatient_ErrorKeepsSelection(t *testing.T) {
	fb := &fakeBackend{}
	fb.setPatients(7)

	loop, store := newTestLoop(t, fb)
	loop.SelectPatient(context.Background(), 404404)

	id, ok := store.Selection()
	require.True(t, ok)
	assert.Equal(t, 404404, id, "выбор фиксируется до fetch и ошибкой не снимается")
	assert.Contains(t, store.Detail().Err, "404")
}

func TestRefresh_PassesFilterToBackend(t *testing.T) {
	fb := &fakeBackend{}
	fb.setPatients(1, 2)

	loop, _ := newTestLoop(t, fb)
	loop.SetFilter(Filter{Risk: "critical", Search: "sepsis"})
	require.NoError(t, loop.Refresh(context.Background()))

	fb.mu.Lock()
	defer fb.mu.Unlock()
	assert.Equal(t, "critical", fb.lastPatientsQuery.Get("risk"))
	assert.Equal(t, "sepsis", fb.lastPatientsQuery.Get("search"))
	assert.Equal(t, "150", fb.lastPatientsQuery.Get("limit"))
}

func TestReload_RecomputesThenRefreshes(t *testing.T) {
	fb := &fakeBackend{}
	fb.setPatients(1, 2)

	loop, store := newTestLoop(t, fb)
	require.NoError(t, loop.Reload(context.Background()))

	fb.mu.Lock()
	reloads := fb.reloads
	fb.mu.Unlock()
	assert.Equal(t, 1, reloads)
	assert.Len(t, store.View().Patients, 2)
}

func TestInitialLoad_SurfacesBackendUnavailable(t *testing.T) {
	fb := &fakeBackend{failSummary: true}
	loop, store := newTestLoop(t, fb)

	loop.InitialLoad(context.Background())
	assert.Contains(t, store.Status(), "Backend unavailable:")
}

// Таймер подавляется выключенным autoRefresh и оживает после включения.
func TestRun_RespectsAutoRefreshGate(t *testing.T) {
	fb := &fakeBackend{}
	fb.setPatients(1, 2)

	loop, store := newTestLoop(t, fb)
	store.SetAutoRefresh(false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, store.View().Patients, "с выключенным autoRefresh тики не работают")

	store.SetAutoRefresh(true)
	assert.Eventually(t, func() bool {
		return len(store.View().Patients) == 2
	}, 2*time.Second, 10*time.Millisecond)
}
