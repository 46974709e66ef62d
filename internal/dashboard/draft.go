package dashboard

import (
	"math"
	"strconv"
	"strings"

	models "github.com/Schera-ole/wellness/internal/model"
)

// parseDraft turns form input into record fields. ok is false when steps or
// sleep is missing or not a non-negative number, or the mood is unknown.
func parseDraft(draft models.Draft) (rec models.MetricRecord, ok bool) {
	stepsInput := strings.TrimSpace(draft.Steps)
	sleepInput := strings.TrimSpace(draft.Sleep)
	if stepsInput == "" || sleepInput == "" {
		return rec, false
	}

	steps, err := strconv.ParseInt(stepsInput, 10, 64)
	if err != nil || steps < 0 {
		return rec, false
	}
	sleep, err := strconv.ParseFloat(sleepInput, 64)
	if err != nil || sleep < 0 || math.IsNaN(sleep) || math.IsInf(sleep, 0) {
		return rec, false
	}
	mood, err := models.ParseMood(string(draft.Mood))
	if err != nil {
		return rec, false
	}

	return models.MetricRecord{
		Steps: steps,
		Sleep: sleep,
		Mood:  mood,
		Notes: draft.Notes,
	}, true
}

// draftFrom loads a stored record back into form input.
func draftFrom(rec models.MetricRecord) models.Draft {
	return models.Draft{
		Steps: strconv.FormatInt(rec.Steps, 10),
		Sleep: strconv.FormatFloat(rec.Sleep, 'f', -1, 64),
		Mood:  rec.Mood,
		Notes: rec.Notes,
	}
}
