package repository

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	internalerrors "github.com/Schera-ole/wellness/internal/errors"
	models "github.com/Schera-ole/wellness/internal/model"
)

// MemStorage implements the Repository interface using in-memory storage.
type MemStorage struct {
	// mu provides thread-safe access to the storage maps
	mu sync.RWMutex

	// metrics stores records by id
	metrics map[string]memRecord

	// profiles stores user profiles by uid
	profiles map[string]models.UserProfile

	// credentials stores password hashes by lower-cased email
	credentials map[string]models.Credential

	// inserted orders records written within the same instant
	inserted uint64
}

type memRecord struct {
	models.MetricRecord
	seq uint64
}

// NewMemStorage creates a new in-memory storage instance.
func NewMemStorage() *MemStorage {

	return &MemStorage{
		metrics:     make(map[string]memRecord),
		profiles:    make(map[string]models.UserProfile),
		credentials: make(map[string]models.Credential),
	}
}

// QueryMetrics yields a snapshot of the owner's records, ascending by date.
func (ms *MemStorage) QueryMetrics(ctx context.Context, owner string) iter.Seq2[models.MetricRecord, error] {

	ms.mu.RLock()
	var snapshot []memRecord
	for _, rec := range ms.metrics {
		if rec.Owner == owner {
			snapshot = append(snapshot, rec)
		}
	}
	ms.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		if !snapshot[i].Date.Equal(snapshot[j].Date) {
			return snapshot[i].Date.Before(snapshot[j].Date)
		}
		return snapshot[i].seq < snapshot[j].seq
	})

	return func(yield func(models.MetricRecord, error) bool) {
		for _, rec := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(models.MetricRecord{}, err)
				return
			}
			if !yield(rec.MetricRecord, nil) {
				return
			}
		}
	}
}

// InsertMetric assigns a fresh uuid to the record and stores it.
func (ms *MemStorage) InsertMetric(ctx context.Context, record models.MetricRecord) (string, error) {

	if err := record.Validate(); err != nil {
		return "", err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	record.ID = uuid.NewString()
	ms.inserted++
	ms.metrics[record.ID] = memRecord{MetricRecord: record, seq: ms.inserted}
	return record.ID, nil
}

// UpdateMetric replaces every field of an existing record owned by record.Owner.
func (ms *MemStorage) UpdateMetric(ctx context.Context, record models.MetricRecord) error {

	if err := record.Validate(); err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	existing, exists := ms.metrics[record.ID]
	if !exists || existing.Owner != record.Owner {
		return fmt.Errorf("update %s: %w", record.ID, internalerrors.ErrRecordNotFound)
	}
	existing.MetricRecord = record
	ms.metrics[record.ID] = existing
	return nil
}

// DeleteMetric removes a record owned by owner.
func (ms *MemStorage) DeleteMetric(ctx context.Context, owner, id string) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	existing, exists := ms.metrics[id]
	if !exists || existing.Owner != owner {
		return fmt.Errorf("delete %s: %w", id, internalerrors.ErrRecordNotFound)
	}
	delete(ms.metrics, id)
	return nil
}

// GetMetric retrieves a single record by its id.
func (ms *MemStorage) GetMetric(ctx context.Context, id string) (models.MetricRecord, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	rec, exists := ms.metrics[id]
	if !exists {
		return models.MetricRecord{}, internalerrors.ErrRecordNotFound
	}
	return rec.MetricRecord, nil
}

// PutProfile creates or replaces users/{uid}.
func (ms *MemStorage) PutProfile(ctx context.Context, profile models.UserProfile) error {

	if err := profile.Validate(); err != nil {
		return err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.profiles[profile.UID] = profile
	return nil
}

// GetProfile retrieves users/{uid}.
func (ms *MemStorage) GetProfile(ctx context.Context, uid string) (models.UserProfile, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	profile, exists := ms.profiles[uid]
	if !exists {
		return models.UserProfile{}, internalerrors.ErrProfileNotFound
	}
	return profile, nil
}

// PutCredential stores a password hash. Emails are unique case-insensitively.
func (ms *MemStorage) PutCredential(ctx context.Context, cred models.Credential) error {

	key := strings.ToLower(cred.Email)
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, exists := ms.credentials[key]; exists {
		return internalerrors.ErrEmailTaken
	}
	ms.credentials[key] = cred
	return nil
}

// GetCredential looks up a password hash by email.
func (ms *MemStorage) GetCredential(ctx context.Context, email string) (models.Credential, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	cred, exists := ms.credentials[strings.ToLower(email)]
	if !exists {
		return models.Credential{}, internalerrors.ErrCredentialNotFound
	}
	return cred, nil
}

// Close releases any resources held by the memory storage.
func (ms *MemStorage) Close() error {

	return nil
}

// Ping checks the health of the memory storage.
//
// For MemStorage, this always returns nil since there are no external dependencies.
func (ms *MemStorage) Ping(ctx context.Context) error {
	return nil
}
