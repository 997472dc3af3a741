package view

import (
	"math"
	"strconv"
	"time"

	"github.com/xela07ax/icu-console/internal/domain"
)

// Placeholder — то, что видит оператор вместо отсутствующего показателя.
// Литералы "NaN"/"null" наружу не выходят никогда.
const Placeholder = "--"

// Fmt форматирует nullable показатель с суффиксом единицы измерения.
func Fmt(v *float64, suffix string) string {
	if v == nil || math.IsNaN(*v) {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + suffix
}

// TierClass — CSS-класс бейджа риска. Выводится только из risk_tier.
func TierClass(tier domain.RiskTier) string {
	return "risk-pill risk-" + string(tier)
}

// Percent — вероятность [0,1] как округленный процент.
func Percent(p float64) string {
	return strconv.Itoa(int(math.Round(p*100))) + "%"
}

// Бэкенд отдает время ISO-строками, местами без таймзоны (pandas isoformat).
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// FormatTimestamp приводит метку времени к читаемому виду.
// Нераспознанная строка возвращается как есть — это деградация, не ошибка.
func FormatTimestamp(raw string) string {
	if raw == "" {
		return "time unavailable"
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02 15:04:05")
		}
	}
	return raw
}
