// Package repository implements the record store holding user profiles,
// local credentials and wellness metric records.
package repository

import (
	"context"
	"iter"

	models "github.com/Schera-ole/wellness/internal/model"
)

// MetricStore is the wellnessMetrics collection.
type MetricStore interface {
	// QueryMetrics yields every record owned by owner in ascending date order.
	// The sequence is one-shot: it may be ranged over once.
	QueryMetrics(ctx context.Context, owner string) iter.Seq2[models.MetricRecord, error]

	// InsertMetric stores a new record and returns its assigned id.
	InsertMetric(ctx context.Context, record models.MetricRecord) (string, error)

	// UpdateMetric overwrites the record with the same id and owner.
	UpdateMetric(ctx context.Context, record models.MetricRecord) error

	// DeleteMetric removes the record with the given id and owner.
	DeleteMetric(ctx context.Context, owner, id string) error

	// GetMetric returns a single record by id.
	GetMetric(ctx context.Context, id string) (models.MetricRecord, error)
}

// ProfileStore is the users collection.
type ProfileStore interface {
	PutProfile(ctx context.Context, profile models.UserProfile) error
	GetProfile(ctx context.Context, uid string) (models.UserProfile, error)
}

// CredentialStore keeps password hashes for the local identity backend.
type CredentialStore interface {
	PutCredential(ctx context.Context, cred models.Credential) error
	GetCredential(ctx context.Context, email string) (models.Credential, error)
}

// Repository is the full record store.
type Repository interface {
	MetricStore
	ProfileStore
	CredentialStore
	Ping(ctx context.Context) error
	Close() error
}

// Collect drains a record sequence into a slice.
func Collect(seq iter.Seq2[models.MetricRecord, error]) ([]models.MetricRecord, error) {
	var records []models.MetricRecord
	for rec, err := range seq {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
