package domain

// RiskTier — категориальная ступень риска, которую бэкенд присваивает пациенту.
type RiskTier string

const (
	TierLow      RiskTier = "low"
	TierMedium   RiskTier = "medium"
	TierHigh     RiskTier = "high"
	TierCritical RiskTier = "critical"
)

// ValidTier проверяет значение фильтра риска из пользовательского ввода.
// Пустая строка — легальное значение "без фильтра".
func ValidTier(s string) bool {
	switch RiskTier(s) {
	case "", TierLow, TierMedium, TierHigh, TierCritical:
		return true
	}
	return false
}

// PatientSummary — последняя известная строка по пациенту из снапшота бэкенда.
// Идентичность — SubjectID. Числовые показатели nullable: бэкенд отдает null,
// если измерения в исходных данных нет.
type PatientSummary struct {
	SubjectID       int      `json:"subject_id"`
	UpdatedAt       string   `json:"updated_at"`
	RiskProbability float64  `json:"risk_probability"`
	RiskTier        RiskTier `json:"risk_tier"`
	RiskReasons     []string `json:"risk_reasons"`
	HeartRate       *float64 `json:"heart_rate"`
	BPMean          *float64 `json:"bp_mean"`
	SpO2            *float64 `json:"spo2"`
	Temp            *float64 `json:"temp"`
	Creatinine      *float64 `json:"creatinine"`
	Lactate         *float64 `json:"lactate"`
	WBC             *float64 `json:"wbc"`
	HeartRateTrend  *float64 `json:"heart_rate_trend"`
}

// VitalSample — одна точка таймлайна пациента.
// Charttime приходит как ISO-строка без таймзоны, поэтому хранится строкой.
type VitalSample struct {
	Charttime string   `json:"charttime"`
	HeartRate *float64 `json:"heart_rate"`
	BPMean    *float64 `json:"bp_mean"`
	SpO2      *float64 `json:"spo2"`
	Temp      *float64 `json:"temp"`
}

// PatientDetail — полная карточка пациента: сводка + таймлайн.
// Загружается отдельно от списка и в PatientSummary не мержится.
type PatientDetail struct {
	Patient  PatientSummary `json:"patient"`
	Timeline []VitalSample  `json:"timeline"`
}
