package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xela07ax/icu-console/internal/backend"
	"github.com/xela07ax/icu-console/internal/cache"
	"github.com/xela07ax/icu-console/internal/domain"
	"github.com/xela07ax/icu-console/internal/infra"
	"github.com/xela07ax/icu-console/internal/view"
)

// Filter — текущие пользовательские параметры выборки пациентов.
type Filter struct {
	Risk   string
	Search string
}

// SyncLoop — оркестратор периодической синхронизации. Один Refresh — это
// четыре независимых запроса, ожидание всех, и только потом атомарная
// подмена состояния. Частичный результат не виден никогда: лучше stale и
// согласованно, чем свежо и наполовину.
type SyncLoop struct {
	client  *backend.Client
	store   *view.Store
	cache   *cache.SnapshotCache
	logger  *zap.Logger
	metrics *infra.Metrics

	interval     time.Duration
	patientLimit int
	alertLimit   int

	mu     sync.Mutex
	filter Filter

	// Монотонный номер батча. Запросы в полете не отменяются, поэтому
	// медленный старый батч может финишировать после нового — стор его
	// отбросит по номеру.
	seq atomic.Uint64
}

func NewSyncLoop(
	client *backend.Client,
	store *view.Store,
	snapCache *cache.SnapshotCache,
	cfg infra.BackendConfig,
	logger *zap.Logger,
	metrics *infra.Metrics,
) *SyncLoop {
	return &SyncLoop{
		client:       client,
		store:        store,
		cache:        snapCache,
		logger:       logger.Named("sync-loop"),
		metrics:      metrics,
		interval:     cfg.RefreshInterval,
		patientLimit: cfg.PatientLimit,
		alertLimit:   cfg.AlertLimit,
	}
}

// Filter возвращает текущий фильтр.
func (s *SyncLoop) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter запоминает новый фильтр; сам по себе refresh не запускает.
func (s *SyncLoop) SetFilter(f Filter) {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
}

// Refresh выполняет один атомарный цикл синхронизации.
// При любом отказе из четырех состояние не трогается вообще, наружу уходит
// одна ошибка; сообщение для оператора формирует вызывающая сторона.
func (s *SyncLoop) Refresh(ctx context.Context) error {
	f := s.Filter()
	seq := s.seq.Add(1)
	batchID := uuid.New().String()
	start := time.Now()

	var (
		summary  *domain.SummaryResponse
		patients *domain.PatientList
		alerts   *domain.AlertList
		notify   *domain.NotificationStatus
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		summary, err = s.client.Summary(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		patients, err = s.client.Patients(gctx, backend.PatientQuery{
			Risk:   f.Risk,
			Search: f.Search,
			Limit:  s.patientLimit,
		})
		return err
	})
	g.Go(func() error {
		var err error
		alerts, err = s.client.LiveAlerts(gctx, s.alertLimit)
		return err
	})
	g.Go(func() error {
		var err error
		notify, err = s.client.NotificationStatus(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.metrics.RefreshTotal.WithLabelValues("failed").Inc()
		s.metrics.RefreshDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
		s.logger.Warn("refresh batch failed",
			zap.String("batch_id", batchID), zap.Uint64("seq", seq), zap.Error(err))
		return err
	}

	snap := domain.Snapshot{
		Seq:           seq,
		LastRefreshed: summary.LastRefreshed,
		Summary:       summary.Summary,
		Patients:      patients.Items,
		Alerts:        alerts.Items,
		Notifications: *notify,
	}

	if !s.store.CommitSnapshot(snap) {
		// Более свежий батч уже закоммичен, пока этот ходил по сети
		s.metrics.RefreshTotal.WithLabelValues("stale").Inc()
		s.metrics.StaleDropped.Inc()
		s.logger.Debug("stale batch dropped",
			zap.String("batch_id", batchID), zap.Uint64("seq", seq))
		return nil
	}

	s.store.SetStatus("Last refresh " + view.FormatTimestamp(snap.LastRefreshed))
	s.metrics.RefreshTotal.WithLabelValues("ok").Inc()
	s.metrics.RefreshDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	s.logger.Debug("snapshot committed",
		zap.String("batch_id", batchID),
		zap.Uint64("seq", seq),
		zap.Int("patients", len(snap.Patients)),
		zap.Int("alerts", len(snap.Alerts)))

	s.cache.Save(ctx, snap)
	s.reconcileSelection(ctx, snap.Patients)
	return nil
}

// reconcileSelection — шаг 4 цикла: выбранный пациент, оставшийся в выборке,
// перечитывается, чтобы панель отражала свежий снапшот; пропавший из выборки
// панель не трогает. Без выбора и с ровно одним результатом — автовыбор.
func (s *SyncLoop) reconcileSelection(ctx context.Context, patients []domain.PatientSummary) {
	if id, ok := s.store.Selection(); ok {
		for _, p := range patients {
			if p.SubjectID == id {
				s.SelectPatient(ctx, id)
				return
			}
		}
		return
	}

	if len(patients) == 1 {
		s.SelectPatient(ctx, patients[0].SubjectID)
	}
}

// SelectPatient — загрузчик карточки. Выбор фиксируется до fetch: даже при
// неудачной загрузке следующий refresh повторит попытку для того же id.
func (s *SyncLoop) SelectPatient(ctx context.Context, subjectID int) {
	s.store.SetSelection(subjectID)

	detail, err := s.client.PatientDetail(ctx, subjectID)
	if err != nil {
		s.metrics.DetailLoads.WithLabelValues("failed").Inc()
		s.store.SetDetailError(err.Error())
		return
	}

	s.metrics.DetailLoads.WithLabelValues("ok").Inc()
	s.store.SetDetail(detail)
}

// InitialLoad — одноразовый прогон на старте процесса.
func (s *SyncLoop) InitialLoad(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.store.SetStatus("Backend unavailable: " + err.Error())
	}
}

// Reload просит бэкенд пересчитать исходные данные и сразу перечитывает
// снапшот тем же 4-запросным батчем.
func (s *SyncLoop) Reload(ctx context.Context) error {
	if err := s.client.Reload(ctx); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// Run — таймерный цикл. Тик подавляется флагом autoRefresh; переключение
// флага действует со следующего тика, уже идущий refresh не отменяется.
func (s *SyncLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.store.AutoRefresh() {
				continue
			}
			if err := s.Refresh(ctx); err != nil {
				s.store.SetStatus("Connection issue: " + err.Error())
			}
		}
	}
}
