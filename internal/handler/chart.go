package handler

import (
	"strconv"
	"strings"

	models "github.com/Schera-ole/wellness/internal/model"
)

const (
	chartWidth   = 800
	chartHeight  = 300
	chartPadding = 20
)

// chartView is the server-drawn line chart. Each series is scaled to its own
// maximum so steps and sleep share the plot area.
type chartView struct {
	Width  int
	Height int
	Steps  string
	Sleep  string
}

func newChart(points []models.ChartPoint) chartView {
	chart := chartView{Width: chartWidth, Height: chartHeight}
	if len(points) == 0 {
		return chart
	}
	steps := make([]float64, len(points))
	sleep := make([]float64, len(points))
	for i, p := range points {
		steps[i] = float64(p.Steps)
		sleep[i] = p.Sleep
	}
	chart.Steps = polyline(steps)
	chart.Sleep = polyline(sleep)
	return chart
}

// polyline renders values as an SVG points attribute, left to right.
func polyline(values []float64) string {
	maxValue := 0.0
	for _, v := range values {
		maxValue = max(maxValue, v)
	}
	plotWidth := float64(chartWidth - 2*chartPadding)
	plotHeight := float64(chartHeight - 2*chartPadding)

	var b strings.Builder
	for i, v := range values {
		x := float64(chartPadding) + plotWidth/2
		if len(values) > 1 {
			x = float64(chartPadding) + plotWidth*float64(i)/float64(len(values)-1)
		}
		y := float64(chartPadding) + plotHeight
		if maxValue > 0 {
			y -= plotHeight * v / maxValue
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(x, 'f', 1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(y, 'f', 1, 64))
	}
	return b.String()
}
