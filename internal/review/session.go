package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/shiftreport/internal/domain"
	"example.com/shiftreport/internal/observability"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("review session not found")
	// ErrRecordNotFound is returned when a record id is not in the session's validated set.
	ErrRecordNotFound = errors.New("record not in review session")
)

// Repository captures the persistence operations a review session needs.
type Repository interface {
	DayRecords(ctx context.Context, tenantID, site, date string) (domain.DayRecords, error)
	ReplacePayloads(ctx context.Context, tenantID string, edits []domain.PayloadEdit) error
	DeleteValidated(ctx context.Context, tenantID, recordID string) error
}

// session is one supervisor's open review of a (site, date). The overlay is
// the only mutable state: absence of a record id means "persisted payload
// unmodified"; presence means the overlay payload is authoritative for display,
// diffing, and eventual persistence.
type session struct {
	id       string
	tenantID string
	site     string
	date     string

	records   []*domain.Record
	index     map[string]*domain.Record
	baselines map[string]domain.Payload
	overlay   map[string]domain.Payload

	lastUsed time.Time
}

// Store owns all open review sessions. Sessions are scoped to one supervisor's
// one open review; two supervisors editing the same day race at the persistence
// layer (last writer wins), not here.
type Store struct {
	mu       sync.Mutex
	repo     Repository
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore constructs a Store evicting idle sessions after ttl.
func NewStore(repo Repository, ttl time.Duration) *Store {
	return &Store{
		repo:     repo,
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Open loads the day's records and starts a fresh session over them. Opening
// again for the same day yields a new session with newly loaded data; stale
// sessions from a superseded load are simply abandoned and age out.
func (s *Store) Open(ctx context.Context, tenantID, site, date string) (string, error) {
	day, err := s.repo.DayRecords(ctx, tenantID, site, date)
	if err != nil {
		return "", fmt.Errorf("load day records: %w", err)
	}

	sess := &session{
		id:        uuid.NewString(),
		tenantID:  tenantID,
		site:      site,
		date:      date,
		index:     make(map[string]*domain.Record, len(day.Validated)),
		baselines: domain.PairBaselines(day.Validated, day.Live),
		overlay:   make(map[string]domain.Payload),
	}
	for i := range day.Validated {
		record := day.Validated[i]
		sess.records = append(sess.records, &record)
		sess.index[record.ID] = &record
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpired()
	sess.lastUsed = s.now()
	s.sessions[sess.id] = sess
	observability.SetOpenReviewSessions(len(s.sessions))
	return sess.id, nil
}

// SessionView is the read model served to the review screen.
type SessionView struct {
	SessionID string        `json:"session_id"`
	Site      string        `json:"site"`
	Date      string        `json:"date"`
	Records   []RecordDiff  `json:"records"`
	Totals    domain.Totals `json:"totals"`
}

// Snapshot renders the current state of the session: every record with field
// diffs against its baseline, plus the totals tree over the effective payloads.
func (s *Store) Snapshot(sessionID string) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return SessionView{}, err
	}

	view := SessionView{SessionID: sess.id, Site: sess.site, Date: sess.date}
	records := make([]domain.Record, 0, len(sess.records))
	for _, record := range sess.records {
		current, edited := sess.effective(record.ID)
		view.Records = append(view.Records, diffRecord(*record, current, sess.baseline(record.ID), edited))
		records = append(records, *record)
	}
	view.Totals = domain.BuildTotals(records, sess.overlay, domain.TotalsFilter{})
	return view, nil
}

// Totals recomputes the totals tree for the session, optionally filtered to a
// shift period.
func (s *Store) Totals(sessionID string, period domain.ShiftPeriod) (domain.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	records := make([]domain.Record, 0, len(sess.records))
	for _, record := range sess.records {
		records = append(records, *record)
	}
	return domain.BuildTotals(records, sess.overlay, domain.TotalsFilter{ShiftPeriod: period}), nil
}

// SetField writes one field of a record's payload into the overlay, applying
// scalar coercion and edit-time clamps, and returns the new effective payload.
// Values-map fields use direct key assignment; metric names may contain
// literal dots ("No. of Bolts"), so no path splitting happens here.
func (s *Store) SetField(sessionID, recordID, field, raw string) (domain.Payload, error) {
	return s.mutate(sessionID, recordID, func(p *domain.Payload) error {
		value := domain.CoerceScalar(raw)
		switch field {
		case "activity":
			p.Activity = domain.Str(value)
		case "sub", "sub_activity":
			p.SubActivity = domain.Str(value)
		default:
			if clamp, ok := domain.EditClamp(p.Activity, field); ok && domain.NumericLike(value) {
				value = clamp.Clamp(domain.Num(value))
			}
			if p.Values == nil {
				p.Values = make(map[string]any)
			}
			p.Values[field] = value
		}
		return nil
	})
}

// Flush persists every overlay entry through the repository's bulk save. On
// success the overlay is cleared and each saved payload becomes its record's
// new diff baseline. On failure the overlay is left untouched so no edit is
// lost.
func (s *Store) Flush(ctx context.Context, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return 0, err
	}
	if len(sess.overlay) == 0 {
		return 0, nil
	}

	edits := make([]domain.PayloadEdit, 0, len(sess.overlay))
	for _, record := range sess.records {
		if payload, ok := sess.overlay[record.ID]; ok {
			edits = append(edits, domain.PayloadEdit{RecordID: record.ID, Payload: payload})
		}
	}

	if err := s.repo.ReplacePayloads(ctx, sess.tenantID, edits); err != nil {
		observability.RecordFlushFailure()
		return 0, fmt.Errorf("bulk save: %w", err)
	}

	for _, edit := range edits {
		record := sess.index[edit.RecordID]
		record.Payload = edit.Payload.Clone()
		record.Original = edit.Payload.Clone()
		delete(sess.baselines, edit.RecordID)
	}
	sess.overlay = make(map[string]domain.Payload)
	observability.RecordFlush(len(edits))
	return len(edits), nil
}

// Discard drops the session and all unsaved edits.
func (s *Store) Discard(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	observability.SetOpenReviewSessions(len(s.sessions))
	return nil
}

// DeleteRecord removes one record from the validated set, both persisted and in
// the session. Deletion is terminal; any overlay entry for the record is
// dropped with it.
func (s *Store) DeleteRecord(ctx context.Context, sessionID, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	if _, ok := sess.index[recordID]; !ok {
		return ErrRecordNotFound
	}
	if err := s.repo.DeleteValidated(ctx, sess.tenantID, recordID); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	delete(sess.index, recordID)
	delete(sess.overlay, recordID)
	delete(sess.baselines, recordID)
	for i, record := range sess.records {
		if record.ID == recordID {
			sess.records = append(sess.records[:i], sess.records[i+1:]...)
			break
		}
	}
	observability.RecordDeletedRecord()
	return nil
}

// Payload returns the effective payload for a record: the overlay entry when
// present, else the persisted payload.
func (s *Store) Payload(sessionID, recordID string) (domain.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return domain.Payload{}, err
	}
	if _, ok := sess.index[recordID]; !ok {
		return domain.Payload{}, ErrRecordNotFound
	}
	payload, _ := sess.effective(recordID)
	return payload, nil
}

// mutate clones the effective payload, applies fn, and stores the result in
// the overlay. The persisted payload is never touched. Derived scalars are
// recomputed after every mutation: while a load or hole list is present, its
// values entries stay a function of the list no matter which field was edited.
func (s *Store) mutate(sessionID, recordID string, fn func(*domain.Payload) error) (domain.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return domain.Payload{}, err
	}
	if _, ok := sess.index[recordID]; !ok {
		return domain.Payload{}, ErrRecordNotFound
	}

	current, _ := sess.effective(recordID)
	next := current.Clone()
	if err := fn(&next); err != nil {
		return domain.Payload{}, err
	}
	if len(next.Loads) > 0 {
		domain.RecomputeLoadTotals(&next)
	}
	domain.RecomputeHoleTotals(&next)
	sess.overlay[recordID] = next
	observability.RecordFieldEdit()
	return next.Clone(), nil
}

func (s *Store) lookup(sessionID string) (*session, error) {
	s.evictExpired()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lastUsed = s.now()
	return sess, nil
}

func (s *Store) evictExpired() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl)
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
	observability.SetOpenReviewSessions(len(s.sessions))
}

func (sess *session) effective(recordID string) (domain.Payload, bool) {
	if payload, ok := sess.overlay[recordID]; ok {
		return payload, true
	}
	return sess.index[recordID].Payload, false
}

// baseline prefers the paired live payload; without a pairing the record's own
// original payload is the diff baseline.
func (sess *session) baseline(recordID string) domain.Payload {
	if payload, ok := sess.baselines[recordID]; ok {
		return payload
	}
	return sess.index[recordID].Original
}
