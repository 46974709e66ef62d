package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	models "github.com/Schera-ole/wellness/internal/model"
)

func TestComputeAggregates(t *testing.T) {
	tests := []struct {
		name    string
		records []models.MetricRecord
		want    models.Aggregates
	}{
		{
			name: "empty",
			want: models.Aggregates{TotalSteps: 0, AverageSleep: 0, LastMood: "—"},
		},
		{
			name: "two days",
			records: []models.MetricRecord{
				{Steps: 1000, Sleep: 7, Mood: models.MoodHappy, Date: d1},
				{Steps: 2000, Sleep: 6, Mood: models.MoodTired, Date: d2},
			},
			want: models.Aggregates{TotalSteps: 3000, AverageSleep: 6.5, LastMood: "Tired"},
		},
		{
			name: "average rounds to one decimal",
			records: []models.MetricRecord{
				{Steps: 1, Sleep: 7, Mood: models.MoodHappy, Date: d1},
				{Steps: 1, Sleep: 7, Mood: models.MoodHappy, Date: d2},
				{Steps: 1, Sleep: 8, Mood: models.MoodNeutral, Date: d3},
			},
			want: models.Aggregates{TotalSteps: 3, AverageSleep: 7.3, LastMood: "Neutral"},
		},
		{
			name: "single record",
			records: []models.MetricRecord{
				{Steps: 4321, Sleep: 5.25, Mood: models.MoodStressed, Date: d1},
			},
			want: models.Aggregates{TotalSteps: 4321, AverageSleep: 5.3, LastMood: "Stressed"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeAggregates(tt.records))
		})
	}
}

func TestChartSeries(t *testing.T) {
	assert.Empty(t, ChartSeries(nil))

	records := []models.MetricRecord{
		{Steps: 10, Sleep: 7, Date: d1},
		{Steps: 20, Sleep: 8, Date: d2.Add(time.Hour)},
	}
	points := ChartSeries(records)
	assert.Equal(t, []models.ChartPoint{
		{Date: d1, Steps: 10, Sleep: 7},
		{Date: d2.Add(time.Hour), Steps: 20, Sleep: 8},
	}, points)
}

func TestParseDraft(t *testing.T) {
	rec, ok := parseDraft(models.Draft{Steps: " 250 ", Sleep: "6.5", Mood: models.MoodNeutral, Notes: "n"})
	assert.True(t, ok)
	assert.Equal(t, models.MetricRecord{Steps: 250, Sleep: 6.5, Mood: models.MoodNeutral, Notes: "n"}, rec)

	rec, ok = parseDraft(models.Draft{Steps: "0", Sleep: "0"})
	assert.True(t, ok)
	assert.Equal(t, models.MoodHappy, rec.Mood)

	_, ok = parseDraft(models.Draft{Steps: "1", Sleep: "+Inf"})
	assert.False(t, ok)
}

func TestDraftFrom(t *testing.T) {
	draft := draftFrom(models.MetricRecord{Steps: 1500, Sleep: 7.25, Mood: models.MoodTired, Notes: "x"})
	assert.Equal(t, models.Draft{Steps: "1500", Sleep: "7.25", Mood: models.MoodTired, Notes: "x"}, draft)
}
