package models

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the record against the wellnessMetrics schema.
func (r MetricRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid metric record: %w", err)
	}
	return nil
}

// Validate checks the profile against the users schema.
func (p UserProfile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid user profile: %w", err)
	}
	return nil
}

// Validate rejects ranges whose start is after their end.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("date range needs both start and end")
	}
	if r.Start.After(r.End) {
		return fmt.Errorf("start %s is after end %s", r.Start.Format(time.DateOnly), r.End.Format(time.DateOnly))
	}
	return nil
}
