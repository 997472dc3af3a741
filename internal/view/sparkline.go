package view

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	sparkWidth   = 420
	sparkHeight  = 120
	sparkPadding = 5 // вертикальный отступ сверху и снизу
)

// SparklinePlaceholder рендерится вместо графика, когда точек нет вообще.
const SparklinePlaceholder = "<p class='muted'>Insufficient telemetry points.</p>"

// Sparkline строит открытую полилинию по серии nullable-значений.
// null/NaN-точки выбрасываются до построения, ось X переиндексируется по
// оставшимся (пропуски не резервируют место). Плоская серия получает
// span = 1, чтобы не делить на ноль.
func Sparkline(samples []*float64) string {
	points := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s != nil && !math.IsNaN(*s) {
			points = append(points, *s)
		}
	}
	if len(points) == 0 {
		return SparklinePlaceholder
	}

	min, max := points[0], points[0]
	for _, v := range points[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := max - min
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for i, v := range points {
		x := float64(i) / math.Max(float64(len(points)-1), 1) * sparkWidth
		y := sparkHeight - (v-min)/span*(sparkHeight-2*sparkPadding) - sparkPadding
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(coord(x))
		b.WriteByte(',')
		b.WriteString(coord(y))
	}

	return fmt.Sprintf(
		`<svg class="sparkline" viewBox="0 0 %d %d" preserveAspectRatio="none"><polyline fill="none" stroke="#1fd0ff" stroke-width="3" points="%s" /></svg>`,
		sparkWidth, sparkHeight, b.String())
}

func coord(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
