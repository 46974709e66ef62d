// Package models defines the data structures used throughout the wellness tracker.
package models

import (
	"fmt"
	"time"
)

// Mood is the self-reported mood attached to a metric record.
type Mood string

const (
	MoodHappy    Mood = "Happy"
	MoodNeutral  Mood = "Neutral"
	MoodTired    Mood = "Tired"
	MoodStressed Mood = "Stressed"
)

// NoMood is shown as the last mood when there are no records.
const NoMood = "—"

// Moods lists every accepted mood in display order.
var Moods = []Mood{MoodHappy, MoodNeutral, MoodTired, MoodStressed}

// ParseMood maps a form value to a Mood. An empty value defaults to Happy.
func ParseMood(s string) (Mood, error) {
	if s == "" {
		return MoodHappy, nil
	}
	for _, m := range Moods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown mood %q", s)
}

// Identity providers.
const (
	ProviderPassword  = "password"
	ProviderFederated = "federated"
)

// Identity is the signed-in user as reported by the session provider.
type Identity struct {
	// UID is the provider's stable user id
	UID string `json:"uid"`

	// Email is the ownership key for metric records
	Email string `json:"email"`

	// DisplayName is filled by federated providers
	DisplayName string `json:"display_name,omitempty"`

	// Provider is either "password" or "federated"
	Provider string `json:"provider"`

	// AccessToken is the backend session token, when the backend issues one
	AccessToken string `json:"access_token,omitempty"`
}

// MetricRecord is one logged day of wellness metrics.
type MetricRecord struct {
	// ID is assigned by the record store on creation
	ID string `json:"id"`

	// Steps is the number of steps walked
	Steps int64 `json:"steps" validate:"gte=0"`

	// Sleep is the number of hours slept
	Sleep float64 `json:"sleep" validate:"gte=0"`

	// Mood is one of Happy, Neutral, Tired, Stressed
	Mood Mood `json:"mood" validate:"oneof=Happy Neutral Tired Stressed"`

	// Notes is optional free text
	Notes string `json:"notes"`

	// Date is set to the time of the last save
	Date time.Time `json:"date"`

	// Owner is the email of the identity that created the record
	Owner string `json:"user" validate:"required,email"`
}

// UserProfile is the users/{uid} document written at sign-up.
type UserProfile struct {
	UID       string    `json:"-" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	Email     string    `json:"email" validate:"required,email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Credential is a stored password hash for the local identity backend.
type Credential struct {
	UID   string
	Email string
	Hash  string
}

// Draft holds raw, unsaved form input.
type Draft struct {
	Steps string `json:"steps"`
	Sleep string `json:"sleep"`
	Mood  Mood   `json:"mood"`
	Notes string `json:"notes"`
}

// IsEmpty reports whether no field of the draft carries input.
func (d Draft) IsEmpty() bool {
	return d == Draft{}
}

// DateRange is a closed interval [Start, End].
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the range, both ends inclusive.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Aggregates are the summary values derived from the current records.
type Aggregates struct {
	TotalSteps   int64   `json:"totalSteps"`
	AverageSleep float64 `json:"averageSleep"`
	LastMood     string  `json:"lastMood"`
}

// ChartPoint is a single sample of the steps and sleep time series.
type ChartPoint struct {
	Date  time.Time `json:"date"`
	Steps int64     `json:"steps"`
	Sleep float64   `json:"sleep"`
}

// Audit actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// AuditEvent represents an audit log entry for metric record changes.
type AuditEvent struct {
	// TS is the timestamp of the event in ISO 8601 format
	TS string `json:"ts"`

	// Action is one of create, update, delete
	Action string `json:"action"`

	// Owner is the email of the identity that made the change
	Owner string `json:"owner"`

	// RecordID is the id of the affected record
	RecordID string `json:"record_id"`

	// IPAddress is the IP address of the client that initiated the operation
	IPAddress string `json:"ip_address"`
}
