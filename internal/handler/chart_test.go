package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	models "github.com/Schera-ole/wellness/internal/model"
)

func TestNewChart(t *testing.T) {
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		points []models.ChartPoint
		steps  string
		sleep  string
	}{
		{
			name: "empty",
		},
		{
			name:   "single point is centered",
			points: []models.ChartPoint{{Date: day, Steps: 1000, Sleep: 8}},
			steps:  "400.0,20.0",
			sleep:  "400.0,20.0",
		},
		{
			name: "series scaled to own maximum",
			points: []models.ChartPoint{
				{Date: day, Steps: 0, Sleep: 4},
				{Date: day.AddDate(0, 0, 1), Steps: 500, Sleep: 8},
				{Date: day.AddDate(0, 0, 2), Steps: 1000, Sleep: 6},
			},
			steps: "20.0,280.0 400.0,150.0 780.0,20.0",
			sleep: "20.0,150.0 400.0,20.0 780.0,85.0",
		},
		{
			name: "all zero stays on the baseline",
			points: []models.ChartPoint{
				{Date: day},
				{Date: day.AddDate(0, 0, 1)},
			},
			steps: "20.0,280.0 780.0,280.0",
			sleep: "20.0,280.0 780.0,280.0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chart := newChart(tt.points)
			assert.Equal(t, chartWidth, chart.Width)
			assert.Equal(t, chartHeight, chart.Height)
			assert.Equal(t, tt.steps, chart.Steps)
			assert.Equal(t, tt.sleep, chart.Sleep)
		})
	}
}
