package view

import (
	"sync"
	"time"

	"github.com/xela07ax/icu-console/internal/domain"
)

// DetailView — содержимое панели деталей: последний удачный рендер и/или
// последняя ошибка загрузки. Ошибка не стирает прошлые данные — при
// следующем удачном fetch панель просто перерисуется.
type DetailView struct {
	Detail *domain.PatientDetail
	Err    string
}

// PageData — один согласованный срез состояния для функций рендера.
type PageData struct {
	AutoRefresh   bool
	SelectedID    int
	HasSelection  bool
	Patients      []domain.PatientSummary
	Alerts        []domain.AlertEvent
	Summary       domain.DashboardSummary
	Notifications domain.NotificationStatus
	LastRefreshed string
	Status        string
	Freshness     string
	Detail        DetailView
}

// Store — единственный источник правды для рендера. Все мутации идут через
// именованные операции; прямых присваиваний извне нет, поэтому дисциплина
// "последняя запись побеждает" проверяется изолированно от UI.
type Store struct {
	mu sync.RWMutex

	autoRefresh bool
	selected    int
	hasSelected bool

	patients      []domain.PatientSummary
	alerts        []domain.AlertEvent
	summary       domain.DashboardSummary
	notifications domain.NotificationStatus
	lastRefreshed string
	highestSeq    uint64

	status      string // последнее сообщение об успехе или сбое
	freshness   string // метка live-канала, живет отдельно от снапшота
	freshnessAt time.Time

	detail DetailView
}

func NewStore() *Store {
	return &Store{autoRefresh: true}
}

// CommitSnapshot атомарно заменяет пациентов, алерты и сопутствующие
// дисплеи. Батч со старым номером отбрасывается: более свежий уже
// закоммичен, и откатывать его назад нельзя. Возвращает true при коммите.
func (s *Store) CommitSnapshot(snap domain.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Seq < s.highestSeq {
		return false
	}
	s.highestSeq = snap.Seq

	s.patients = snap.Patients
	s.alerts = snap.Alerts
	s.summary = snap.Summary
	s.notifications = snap.Notifications
	s.lastRefreshed = snap.LastRefreshed
	return true
}

// SetSelection фиксирует выбранного пациента. Выбор переживает refresh
// даже если id временно пропал из списка; снять его нельзя, только заменить.
func (s *Store) SetSelection(subjectID int) {
	s.mu.Lock()
	s.selected = subjectID
	s.hasSelected = true
	s.mu.Unlock()
}

// Selection возвращает текущий выбор и признак его наличия.
func (s *Store) Selection() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, s.hasSelected
}

func (s *Store) SetAutoRefresh(on bool) {
	s.mu.Lock()
	s.autoRefresh = on
	s.mu.Unlock()
}

// ToggleAutoRefresh переключает флаг и возвращает новое значение.
// Действует со следующего тика, уже запущенный refresh не трогает.
func (s *Store) ToggleAutoRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoRefresh = !s.autoRefresh
	return s.autoRefresh
}

func (s *Store) AutoRefresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoRefresh
}

// SetStatus пишет в статусную строку последнее сообщение об успехе/сбое.
func (s *Store) SetStatus(msg string) {
	s.mu.Lock()
	s.status = msg
	s.mu.Unlock()
}

func (s *Store) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetFreshness обновляет метку свежести live-канала. Guard монотонный:
// сообщение со старой меткой (например, после редайла) игнорируется,
// поэтому переподключение не может продублировать или переупорядочить эффект.
func (s *Store) SetFreshness(label string, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !at.After(s.freshnessAt) {
		return false
	}
	s.freshness = label
	s.freshnessAt = at
	return true
}

// SetDetail сохраняет удачно загруженную карточку и снимает ошибку панели.
func (s *Store) SetDetail(d *domain.PatientDetail) {
	s.mu.Lock()
	s.detail = DetailView{Detail: d}
	s.mu.Unlock()
}

// SetDetailError показывает ошибку в панели, не трогая последний удачный рендер.
func (s *Store) SetDetailError(msg string) {
	s.mu.Lock()
	s.detail.Err = msg
	s.mu.Unlock()
}

func (s *Store) Detail() DetailView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detail
}

// Patients отдает копию списка: вызывающий не может мутировать стор в обход операций.
func (s *Store) Patients() []domain.PatientSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PatientSummary, len(s.patients))
	copy(out, s.patients)
	return out
}

func (s *Store) Alerts() []domain.AlertEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AlertEvent, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// View собирает полный срез состояния за один захват блокировки.
func (s *Store) View() PageData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	patients := make([]domain.PatientSummary, len(s.patients))
	copy(patients, s.patients)
	alerts := make([]domain.AlertEvent, len(s.alerts))
	copy(alerts, s.alerts)

	return PageData{
		AutoRefresh:   s.autoRefresh,
		SelectedID:    s.selected,
		HasSelection:  s.hasSelected,
		Patients:      patients,
		Alerts:        alerts,
		Summary:       s.summary,
		Notifications: s.notifications,
		LastRefreshed: s.lastRefreshed,
		Status:        s.status,
		Freshness:     s.freshness,
		Detail:        s.detail,
	}
}
