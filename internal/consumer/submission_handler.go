package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/shiftreport/internal/domain"
)

// EventTypeRecordSubmitted marks a worker submission arriving from the field
// sync gateway.
const EventTypeRecordSubmitted = "shift.record_submitted"

// SubmissionStore persists decoded worker submissions.
type SubmissionStore interface {
	CreateSubmission(ctx context.Context, rec domain.Record) error
}

// SubmissionHandler ingests shift submissions into the live record set and
// keeps an audit trail of every consumed event.
type SubmissionHandler struct {
	pool  *pgxpool.Pool
	store SubmissionStore
}

// NewSubmissionHandler constructs a handler backed by the provided pool and store.
func NewSubmissionHandler(pool *pgxpool.Pool, store SubmissionStore) *SubmissionHandler {
	return &SubmissionHandler{pool: pool, store: store}
}

type submissionEvent struct {
	RecordID    string          `json:"record_id"`
	TenantID    string          `json:"tenant_id"`
	Site        string          `json:"site"`
	ShiftDate   string          `json:"shift_date"`
	ShiftPeriod string          `json:"shift_period"`
	ShiftID     string          `json:"shift_id"`
	UserID      string          `json:"user_id"`
	Payload     json.RawMessage `json:"payload"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// Handle audits the event and, for submissions, upserts the record.
func (h *SubmissionHandler) Handle(ctx context.Context, msg Message) error {
	if err := h.audit(ctx, msg); err != nil {
		return err
	}
	if msg.EventType != EventTypeRecordSubmitted {
		return nil
	}

	var event submissionEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return fmt.Errorf("decode submission payload: %w", err)
	}
	if event.RecordID == "" || event.TenantID == "" || event.Site == "" || event.ShiftDate == "" {
		return fmt.Errorf("submission %s missing identity fields", event.RecordID)
	}

	submittedAt := event.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = msg.Timestamp
	}

	payload := domain.Normalize(event.Payload)
	rec := domain.Record{
		ID:          event.RecordID,
		TenantID:    event.TenantID,
		Site:        event.Site,
		ShiftDate:   event.ShiftDate,
		ShiftPeriod: domain.ShiftPeriod(event.ShiftPeriod),
		ShiftID:     event.ShiftID,
		UserID:      event.UserID,
		Payload:     payload,
		Original:    payload.Clone(),
		CreatedAt:   submittedAt,
		UpdatedAt:   submittedAt,
	}
	return h.store.CreateSubmission(ctx, rec)
}

func (h *SubmissionHandler) audit(ctx context.Context, msg Message) error {
	conn, err := h.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx,
		`INSERT INTO shift_event_log (event_type, tenant_id, schema_id, schema_subject, topic, partition, record_offset, payload, received_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		msg.EventType,
		msg.TenantID,
		msg.SchemaID,
		msg.SchemaSubject,
		msg.Topic,
		msg.Partition,
		msg.Offset,
		msg.Payload,
		msg.Timestamp,
	)
	return err
}
