package view

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/xela07ax/icu-console/internal/domain"
)

// AlertFeedPlaceholder показывается вместо пустой ленты.
const AlertFeedPlaceholder = "<p class='muted'>No active alerts.</p>"

// RenderRows — таблица пациентов: строка на запись, порядок бэкенда,
// клиент ничего не пересортировывает. Клик по строке выбирает пациента.
func RenderRows(items []domain.PatientSummary) string {
	var b strings.Builder
	for _, p := range items {
		fmt.Fprintf(&b, `<tr data-id="%d" onclick="window.location='/?select=%d'">`, p.SubjectID, p.SubjectID)
		fmt.Fprintf(&b, `<td><strong>#%d</strong><br><small>%s</small></td>`,
			p.SubjectID, html.EscapeString(FormatTimestamp(p.UpdatedAt)))
		fmt.Fprintf(&b, `<td><span class="%s">%s</span><br>%s</td>`,
			TierClass(p.RiskTier), html.EscapeString(string(p.RiskTier)), Percent(p.RiskProbability))
		fmt.Fprintf(&b, `<td>HR %s bpm<br>MAP %s mmHg<br>SpO2 %s</td>`,
			Fmt(p.HeartRate, ""), Fmt(p.BPMean, ""), Fmt(p.SpO2, "%"))
		fmt.Fprintf(&b, `<td>%s bpm</td>`, Fmt(p.HeartRateTrend, ""))
		fmt.Fprintf(&b, `<td>%s</td>`, html.EscapeString(strings.Join(p.RiskReasons, ", ")))
		b.WriteString("</tr>")
	}
	return b.String()
}

// FilterAlerts — клиентский substring-фильтр ленты: по id пациента, тексту
// алерта и charttime, без учета регистра. Пустой запрос возвращает все.
// Фильтр применяется заново на каждом рендере, кэша нет.
func FilterAlerts(items []domain.AlertEvent, search string) []domain.AlertEvent {
	token := strings.ToLower(strings.TrimSpace(search))
	if token == "" {
		return items
	}
	filtered := make([]domain.AlertEvent, 0, len(items))
	for _, a := range items {
		if strings.Contains(strconv.Itoa(a.SubjectID), token) ||
			strings.Contains(strings.ToLower(a.Alert), token) ||
			strings.Contains(strings.ToLower(a.Charttime), token) {
			filtered = append(filtered, a)
		}
	}
	return filtered
}

// RenderAlerts — живая лента. Ноль строк после фильтра — явная заглушка,
// а не пустой контейнер. Клик по записи выбирает пациента по id.
func RenderAlerts(items []domain.AlertEvent, search string) string {
	filtered := FilterAlerts(items, search)
	if len(filtered) == 0 {
		return AlertFeedPlaceholder
	}

	var b strings.Builder
	for _, a := range filtered {
		charttime := a.Charttime
		if charttime == "" {
			charttime = "time unavailable"
		}
		fmt.Fprintf(&b, `<div class="alert-item %s" onclick="window.location='/?select=%d'">`,
			html.EscapeString(string(a.RiskTier)), a.SubjectID)
		fmt.Fprintf(&b, `<strong>Patient #%d</strong>`, a.SubjectID)
		fmt.Fprintf(&b, `<div>%s</div>`, html.EscapeString(a.Alert))
		fmt.Fprintf(&b, `<small>At alert: HR %s bpm, MAP %s mmHg</small><br>`,
			Fmt(a.AlertHeartRate, ""), Fmt(a.AlertBPMean, ""))
		fmt.Fprintf(&b, `<small>%s</small>`, html.EscapeString(charttime))
		b.WriteString("</div>")
	}
	return b.String()
}

// RenderDetail — панель деталей пациента. Ошибка загрузки рендерится
// инлайном и не затирает выбор; прошлый удачный рендер панель не теряет.
func RenderDetail(dv DetailView) string {
	if dv.Err != "" {
		return fmt.Sprintf(`<p class="detail-error">Unable to load patient: %s</p>`, html.EscapeString(dv.Err))
	}
	if dv.Detail == nil {
		return "<p class='muted'>Select a patient to view details.</p>"
	}

	p := dv.Detail.Patient
	hrSeries := make([]*float64, 0, len(dv.Detail.Timeline))
	for _, sample := range dv.Detail.Timeline {
		hrSeries = append(hrSeries, sample.HeartRate)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<h4>Patient #%d</h4>`, p.SubjectID)
	fmt.Fprintf(&b, `<p><span class="%s">%s</span> %s risk</p>`,
		TierClass(p.RiskTier), html.EscapeString(string(p.RiskTier)), Percent(p.RiskProbability))
	b.WriteString(`<div class="metric-grid">`)
	b.WriteString(metric("Heart Rate", Fmt(p.HeartRate, " bpm")))
	b.WriteString(metric("MAP", Fmt(p.BPMean, " mmHg")))
	b.WriteString(metric("SpO2", Fmt(p.SpO2, "%")))
	b.WriteString(metric("Temperature", Fmt(p.Temp, " C")))
	b.WriteString("</div>")
	fmt.Fprintf(&b, `<p>Primary flags: %s</p>`, html.EscapeString(strings.Join(p.RiskReasons, ", ")))
	b.WriteString(Sparkline(hrSeries))
	return b.String()
}

func metric(label, value string) string {
	return fmt.Sprintf(
		`<div class="metric"><span class="metric-label">%s</span><span class="metric-value">%s</span></div>`,
		label, html.EscapeString(value))
}

// RenderPage собирает всю страницу консоли из текущего среза состояния.
// risk/search — текущий фильтр цикла синхронизации (заполняет контролы
// и клиентский фильтр ленты).
func RenderPage(d PageData, risk, search string) string {
	autorefreshLabel := "Auto Refresh: OFF"
	meta := ""
	if d.AutoRefresh {
		autorefreshLabel = "Auto Refresh: ON"
		// Страница сама перечитывает состояние в темпе цикла синхронизации
		meta = `<meta http-equiv="refresh" content="6">`
	}

	status := d.Status
	if status == "" {
		status = "Waiting for first refresh"
	}

	notify := fmt.Sprintf("Email alerts: %s | sent %d | errors %d",
		onOff(d.Notifications.Enabled), d.Notifications.SentCount, d.Notifications.ErrorCount)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><title>ICU Console</title>")
	b.WriteString(meta)
	b.WriteString("</head><body>")

	fmt.Fprintf(&b, `<header><span id="lastRefresh">%s</span>`, html.EscapeString(status))
	if d.Freshness != "" {
		fmt.Fprintf(&b, ` <span id="liveFreshness">%s</span>`, html.EscapeString(d.Freshness))
	}
	fmt.Fprintf(&b, ` <span id="notifyStatus">%s</span></header>`, html.EscapeString(notify))

	b.WriteString(`<section class="kpis">`)
	fmt.Fprintf(&b, `<div id="kpiMonitored">%d</div>`, d.Summary.PatientsMonitored)
	fmt.Fprintf(&b, `<div id="kpiCritical">%d</div>`, d.Summary.CriticalCount)
	fmt.Fprintf(&b, `<div id="kpiHigh">%d</div>`, d.Summary.HighCount)
	fmt.Fprintf(&b, `<div id="kpiAvgRisk">%s</div>`, Percent(d.Summary.AverageRisk))
	b.WriteString("</section>")

	b.WriteString(`<section class="controls"><form method="get" action="/">`)
	b.WriteString(`<select name="risk" onchange="this.form.submit()">`)
	for _, tier := range []string{"", "low", "medium", "high", "critical"} {
		selected := ""
		if tier == risk {
			selected = " selected"
		}
		label := tier
		if tier == "" {
			label = "all tiers"
		}
		fmt.Fprintf(&b, `<option value="%s"%s>%s</option>`, tier, selected, label)
	}
	b.WriteString("</select>")
	fmt.Fprintf(&b, `<input id="searchInput" name="search" value="%s" placeholder="Search patients and alerts">`,
		html.EscapeString(search))
	b.WriteString(`<button type="submit">Apply</button></form>`)
	b.WriteString(`<form method="post" action="/controls/reload"><button id="reloadBtn">Reload Data</button></form>`)
	fmt.Fprintf(&b, `<form method="post" action="/controls/autorefresh"><button id="autorefreshBtn">%s</button></form>`,
		autorefreshLabel)
	b.WriteString("</section>")

	fmt.Fprintf(&b, `<table><tbody id="patientRows">%s</tbody></table>`, RenderRows(d.Patients))
	fmt.Fprintf(&b, `<aside id="alertFeed">%s</aside>`, RenderAlerts(d.Alerts, search))
	fmt.Fprintf(&b, `<aside id="detailPane">%s</aside>`, RenderDetail(d.Detail))

	b.WriteString("</body></html>")
	return b.String()
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
