// Package events defines the event payloads published by the outbox and
// consumed from the field-app sync pipeline.
package events

import (
	"encoding/json"
	"time"
)

// RecordSubmitted is emitted (and consumed) when a worker's activity record
// lands in the live set.
type RecordSubmitted struct {
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

// PayloadReplaced is emitted when a supervisor's bulk save replaces a validated
// record's payload.
type PayloadReplaced struct {
	RecordID   string          `json:"record_id"`
	TenantID   string          `json:"tenant_id"`
	Site       string          `json:"site"`
	ShiftDate  string          `json:"shift_date"`
	Payload    json.RawMessage `json:"payload"`
	ReplacedAt time.Time       `json:"replaced_at"`
}

// DayValidated is emitted when a day's live records are locked in as the
// validated snapshot.
type DayValidated struct {
	TenantID    string    `json:"tenant_id"`
	Site        string    `json:"site"`
	ShiftDate   string    `json:"shift_date"`
	RecordCount int       `json:"record_count"`
	ValidatedAt time.Time `json:"validated_at"`
}

// RecordDeleted is emitted when a record is removed from the validated set.
type RecordDeleted struct {
	RecordID  string    `json:"record_id"`
	TenantID  string    `json:"tenant_id"`
	Site      string    `json:"site"`
	ShiftDate string    `json:"shift_date"`
	DeletedAt time.Time `json:"deleted_at"`
}
