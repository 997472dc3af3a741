package domain

// DashboardSummary — агрегаты по всем мониторируемым пациентам (KPI-плашки).
type DashboardSummary struct {
	PatientsMonitored int     `json:"patients_monitored"`
	CriticalCount     int     `json:"critical_count"`
	HighCount         int     `json:"high_count"`
	MediumCount       int     `json:"medium_count"`
	LowCount          int     `json:"low_count"`
	AverageRisk       float64 `json:"average_risk"`
}

// SummaryResponse — ответ GET /summary.
type SummaryResponse struct {
	LastRefreshed string           `json:"last_refreshed"`
	Summary       DashboardSummary `json:"summary"`
}

// PatientList — ответ GET /patients.
type PatientList struct {
	Count int              `json:"count"`
	Items []PatientSummary `json:"items"`
}

// AlertList — ответ GET /alerts/live.
type AlertList struct {
	Count int          `json:"count"`
	Items []AlertEvent `json:"items"`
}

// NotificationStatus — состояние подсистемы email-уведомлений бэкенда.
// Консоль ее только отображает, сама она живет на стороне бэкенда.
type NotificationStatus struct {
	Enabled            bool                `json:"enabled"`
	MinimumTier        string              `json:"minimum_tier"`
	MinimumProbability float64             `json:"minimum_probability"`
	CooldownMinutes    int                 `json:"cooldown_minutes"`
	SentCount          int                 `json:"sent_count"`
	ErrorCount         int                 `json:"error_count"`
	Recent             []NotificationEvent `json:"recent"`
}

// NotificationEvent — одна запись из истории отправок уведомлений.
type NotificationEvent struct {
	Timestamp       string  `json:"timestamp"`
	SubjectID       int     `json:"subject_id"`
	RiskTier        string  `json:"risk_tier"`
	RiskProbability float64 `json:"risk_probability"`
	Status          string  `json:"status"`
	Message         string  `json:"message"`
}

// Snapshot — согласованный набор данных одного завершенного батча refresh.
// Коммитится в стор целиком либо не коммитится вообще.
// Seq — монотонный номер батча; батч со старым номером отбрасывается.
type Snapshot struct {
	Seq           uint64             `json:"seq"`
	LastRefreshed string             `json:"last_refreshed"`
	Summary       DashboardSummary   `json:"summary"`
	Patients      []PatientSummary   `json:"patients"`
	Alerts        []AlertEvent       `json:"alerts"`
	Notifications NotificationStatus `json:"notifications"`
}
