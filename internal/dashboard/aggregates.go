package dashboard

import (
	"math"

	models "github.com/Schera-ole/wellness/internal/model"
)

// ComputeAggregates derives the summary cards from records ordered ascending by date.
func ComputeAggregates(records []models.MetricRecord) models.Aggregates {
	agg := models.Aggregates{LastMood: models.NoMood}
	if len(records) == 0 {
		return agg
	}
	var sleep float64
	for _, rec := range records {
		agg.TotalSteps += rec.Steps
		sleep += rec.Sleep
	}
	agg.AverageSleep = roundTenth(sleep / float64(len(records)))
	agg.LastMood = string(records[len(records)-1].Mood)
	return agg
}

// ChartSeries returns the steps and sleep series in record order.
func ChartSeries(records []models.MetricRecord) []models.ChartPoint {
	points := make([]models.ChartPoint, 0, len(records))
	for _, rec := range records {
		points = append(points, models.ChartPoint{Date: rec.Date, Steps: rec.Steps, Sleep: rec.Sleep})
	}
	return points
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
