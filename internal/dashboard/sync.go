// Package dashboard keeps the owner-scoped, optionally date-filtered view of
// a user's wellness records and mediates every create, update and delete.
//
// A Sync is in one of two modes: creating (no record is being edited) or
// editing. BeginEdit switches to editing; a successful Save, CancelEdit, or
// removing the edited record switches back.
//
// Every fetch is tagged with a sequence number and a response is applied only
// if no newer fetch was issued after it, so the view always reflects the most
// recent request rather than the most recent response.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Schera-ole/wellness/internal/auth"
	internalerrors "github.com/Schera-ole/wellness/internal/errors"
	models "github.com/Schera-ole/wellness/internal/model"
	"github.com/Schera-ole/wellness/internal/repository"
)

// IdentitySource is the identity-status stream a Sync follows.
type IdentitySource interface {
	ObserveIdentity(fn auth.IdentityObserver) (unsubscribe func())
}

// Mode is the edit state of the form.
type Mode string

const (
	ModeCreating Mode = "creating"
	ModeEditing  Mode = "editing"
)

// State is a read-only copy of the view state.
type State struct {
	Owner      string                `json:"owner"`
	Records    []models.MetricRecord `json:"records"`
	Draft      models.Draft          `json:"draft"`
	EditingID  string                `json:"editingId,omitempty"`
	Mode       Mode                  `json:"mode"`
	Filter     *models.DateRange     `json:"filter,omitempty"`
	Aggregates models.Aggregates     `json:"aggregates"`
	Chart      []models.ChartPoint   `json:"chart"`
}

type Option func(*Sync)

// ChangeFunc is told about every successful write.
type ChangeFunc func(ctx context.Context, action, owner, id string)

// WithChangeHook registers fn to run after each insert, update and delete.
func WithChangeHook(fn ChangeFunc) Option {
	return func(s *Sync) {
		s.onChange = fn
	}
}

// WithClock replaces time.Now as the source of record dates.
func WithClock(now func() time.Time) Option {
	return func(s *Sync) {
		s.now = now
	}
}

// Sync is the metrics view state of one browser session.
type Sync struct {
	store  repository.MetricStore
	logger *zap.SugaredLogger
	now    func() time.Time

	onChange ChangeFunc

	mu          sync.Mutex
	owner       string
	filter      *models.DateRange
	records     []models.MetricRecord
	editingID   string
	draft       models.Draft
	seq         uint64
	unsubscribe func()
}

func New(store repository.MetricStore, logger *zap.SugaredLogger, opts ...Option) *Sync {
	s := &Sync{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bind follows source: a new identity is synchronized, a sign-out clears the view.
func (s *Sync) Bind(source IdentitySource) {
	unsubscribe := source.ObserveIdentity(s.onIdentity)
	s.mu.Lock()
	previous := s.unsubscribe
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
	if previous != nil {
		previous()
	}
}

// Close stops following the identity stream. In-flight store calls are not aborted.
func (s *Sync) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

func (s *Sync) onIdentity(ctx context.Context, identity *models.Identity) {
	if identity == nil {
		s.mu.Lock()
		s.resetLocked("")
		s.mu.Unlock()
		return
	}
	s.mu.Lock()
	var filter *models.DateRange
	if s.owner == identity.Email {
		filter = s.filter
	}
	s.mu.Unlock()
	if err := s.Synchronize(ctx, identity.Email, filter); err != nil {
		s.logger.Warnw("initial synchronize failed", "owner", identity.Email, "error", err)
	}
}

// resetLocked drops all view state and moves to owner. Callers hold s.mu.
func (s *Sync) resetLocked(owner string) {
	s.owner = owner
	s.filter = nil
	s.records = nil
	s.editingID = ""
	s.draft = models.Draft{}
	// responses to fetches issued for the previous owner must not land
	s.seq++
}

// Synchronize replaces the records with the owner's records, restricted to
// dateRange when it is not nil. On failure the previous records stay.
func (s *Sync) Synchronize(ctx context.Context, owner string, dateRange *models.DateRange) error {
	if owner == "" {
		return internalerrors.ErrNotSignedIn
	}
	if dateRange != nil {
		if err := dateRange.Validate(); err != nil {
			return fmt.Errorf("%w: %v", internalerrors.ErrInvalidDateRange, err)
		}
		r := *dateRange
		dateRange = &r
	}

	s.mu.Lock()
	if s.owner != owner {
		s.resetLocked(owner)
	}
	s.filter = dateRange
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	records, err := s.fetch(ctx, owner, dateRange)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq {
		s.logger.Debugw("discarding stale synchronize result", "owner", owner, "seq", seq, "latest", s.seq)
		return nil
	}
	if err != nil {
		return internalerrors.NewStoreError("synchronize", err)
	}
	s.records = records
	return nil
}

func (s *Sync) fetch(ctx context.Context, owner string, dateRange *models.DateRange) ([]models.MetricRecord, error) {
	records := []models.MetricRecord{}
	for rec, err := range s.store.QueryMetrics(ctx, owner) {
		if err != nil {
			return nil, err
		}
		if rec.Owner != owner {
			continue
		}
		if dateRange != nil && !dateRange.Contains(rec.Date) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Sync) changed(ctx context.Context, action, owner, id string) {
	if s.onChange != nil {
		s.onChange(ctx, action, owner, id)
	}
}

// Refresh re-runs the last synchronize.
func (s *Sync) Refresh(ctx context.Context) error {
	s.mu.Lock()
	owner, filter := s.owner, s.filter
	s.mu.Unlock()
	return s.Synchronize(ctx, owner, filter)
}

// SetFilter changes the date range and re-fetches. nil clears the filter.
func (s *Sync) SetFilter(ctx context.Context, dateRange *models.DateRange) error {
	s.mu.Lock()
	owner := s.owner
	s.mu.Unlock()
	return s.Synchronize(ctx, owner, dateRange)
}

// Save writes the draft: an update of the edited record in editing mode, an
// insert otherwise. A draft without numeric steps and sleep is ignored and
// reported as saved == false with a nil error. A failed write keeps the
// draft for the user to retry.
func (s *Sync) Save(ctx context.Context, draft models.Draft) (saved bool, err error) {
	s.mu.Lock()
	s.draft = draft
	owner, editingID := s.owner, s.editingID
	s.mu.Unlock()

	rec, ok := parseDraft(draft)
	if !ok {
		return false, nil
	}
	if owner == "" {
		return false, internalerrors.ErrNotSignedIn
	}
	rec.Owner = owner
	rec.Date = s.now().UTC()

	if editingID != "" {
		rec.ID = editingID
		if err := s.store.UpdateMetric(ctx, rec); err != nil {
			return false, internalerrors.NewStoreError("update", err)
		}
		s.logger.Infow("metric updated", "owner", owner, "id", editingID)
		s.changed(ctx, models.ActionUpdate, owner, editingID)
	} else {
		id, err := s.store.InsertMetric(ctx, rec)
		if err != nil {
			return false, internalerrors.NewStoreError("insert", err)
		}
		s.logger.Infow("metric created", "owner", owner, "id", id)
		s.changed(ctx, models.ActionCreate, owner, id)
	}

	s.mu.Lock()
	if s.owner == owner {
		s.draft = models.Draft{}
		s.editingID = ""
	}
	s.mu.Unlock()

	return true, s.refreshAfterWrite(ctx)
}

// BeginEdit loads rec into the draft and switches to editing mode.
func (s *Sync) BeginEdit(rec models.MetricRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = draftFrom(rec)
	s.editingID = rec.ID
}

// BeginEditByID starts editing a record currently in view.
func (s *Sync) BeginEditByID(id string) bool {
	rec, ok := s.Record(id)
	if !ok {
		return false
	}
	s.BeginEdit(rec)
	return true
}

// CancelEdit abandons the edit and clears the draft.
func (s *Sync) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = models.Draft{}
	s.editingID = ""
}

// Remove deletes a record and re-fetches. Removing the record being edited
// abandons the edit.
func (s *Sync) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	owner := s.owner
	s.mu.Unlock()
	if owner == "" {
		return internalerrors.ErrNotSignedIn
	}

	err := s.store.DeleteMetric(ctx, owner, id)
	if err != nil && !errors.Is(err, internalerrors.ErrRecordNotFound) {
		return internalerrors.NewStoreError("delete", err)
	}

	s.mu.Lock()
	if s.owner == owner && s.editingID == id {
		s.editingID = ""
		s.draft = models.Draft{}
	}
	s.mu.Unlock()

	if err != nil {
		// the record is already gone, still bring the view up to date
		_ = s.refreshAfterWrite(ctx)
		return internalerrors.NewStoreError("delete", err)
	}
	s.logger.Infow("metric deleted", "owner", owner, "id", id)
	s.changed(ctx, models.ActionDelete, owner, id)
	return s.refreshAfterWrite(ctx)
}

// refreshAfterWrite re-fetches with the owner and filter current at the time
// the write returns, so a filter change or sign-out issued meanwhile wins.
// A view that was signed out during the write stays empty.
func (s *Sync) refreshAfterWrite(ctx context.Context) error {
	err := s.Refresh(ctx)
	if errors.Is(err, internalerrors.ErrNotSignedIn) {
		return nil
	}
	return err
}

// Record returns a record currently in view.
func (s *Sync) Record(id string) (models.MetricRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return models.MetricRecord{}, false
}

// Records returns a copy of the records in view.
func (s *Sync) Records() []models.MetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.MetricRecord(nil), s.records...)
}

// Mode reports whether a record is being edited.
func (s *Sync) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editingID != "" {
		return ModeEditing
	}
	return ModeCreating
}

// Aggregates derives the summary values from the records in view.
func (s *Sync) Aggregates() models.Aggregates {
	return ComputeAggregates(s.Records())
}

// Chart returns the time series for the records in view.
func (s *Sync) Chart() []models.ChartPoint {
	return ChartSeries(s.Records())
}

// Snapshot copies the whole view state.
func (s *Sync) Snapshot() State {
	s.mu.Lock()
	records := append([]models.MetricRecord{}, s.records...)
	state := State{
		Owner:     s.owner,
		Records:   records,
		Draft:     s.draft,
		EditingID: s.editingID,
		Mode:      ModeCreating,
	}
	if s.filter != nil {
		f := *s.filter
		state.Filter = &f
	}
	s.mu.Unlock()

	if state.EditingID != "" {
		state.Mode = ModeEditing
	}
	state.Aggregates = ComputeAggregates(records)
	state.Chart = ChartSeries(records)
	return state
}
