package domain

// AlertEvent — событие из живой ленты алертов. Постоянной идентичности у
// события нет: лента — это point-in-time список, а не append-only лог.
type AlertEvent struct {
	SubjectID      int      `json:"subject_id"`
	Charttime      string   `json:"charttime"`
	Alert          string   `json:"alert"`
	RiskTier       RiskTier `json:"risk_tier"`
	AlertHeartRate *float64 `json:"alert_heart_rate"`
	AlertBPMean    *float64 `json:"alert_bp_mean"`
}
