package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/shiftreport/internal/domain"
	"example.com/shiftreport/internal/events"
	"example.com/shiftreport/internal/observability"
)

// ErrRecordNotFound is returned when a validated record id does not exist for
// the tenant.
var ErrRecordNotFound = errors.New("validated record not found")

// Repository provides Postgres-backed persistence for live submissions, the
// validated set, and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const liveColumns = `record_id, tenant_id, site, shift_date::text, shift_period, shift_id, user_id, payload, created_at, updated_at`

// DayRecords loads everything for one (site, date): live submissions plus the
// validated snapshot with its retained original payloads.
func (r *Repository) DayRecords(ctx context.Context, tenantID, site, date string) (domain.DayRecords, error) {
	var day domain.DayRecords

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return day, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return day, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return day, err
	}

	liveQuery := `SELECT ` + liveColumns + `
        FROM shift_activities WHERE tenant_id=$1 AND site=$2 AND shift_date=$3
        ORDER BY created_at, record_id`
	day.Live, err = queryRecords(ctx, tx, liveQuery, false, tenantID, site, date)
	if err != nil {
		return day, err
	}

	validatedQuery := `SELECT record_id, tenant_id, site, shift_date::text, shift_period, shift_id, user_id, payload, original_payload, validated_at, COALESCE(edited_at, validated_at)
        FROM validated_activities WHERE tenant_id=$1 AND site=$2 AND shift_date=$3
        ORDER BY validated_at, record_id`
	day.Validated, err = queryRecords(ctx, tx, validatedQuery, true, tenantID, site, date)
	if err != nil {
		return day, err
	}

	if err := tx.Commit(ctx); err != nil {
		return day, err
	}
	return day, nil
}

// queryRecords scans record rows. Validated rows carry a separate original
// payload column; live rows are their own original.
func queryRecords(ctx context.Context, tx pgx.Tx, query string, withOriginal bool, args ...any) ([]domain.Record, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var rec domain.Record
		var payload, original []byte
		if withOriginal {
			err = rows.Scan(&rec.ID, &rec.TenantID, &rec.Site, &rec.ShiftDate, &rec.ShiftPeriod, &rec.ShiftID, &rec.UserID, &payload, &original, &rec.CreatedAt, &rec.UpdatedAt)
		} else {
			err = rows.Scan(&rec.ID, &rec.TenantID, &rec.Site, &rec.ShiftDate, &rec.ShiftPeriod, &rec.ShiftID, &rec.UserID, &payload, &rec.CreatedAt, &rec.UpdatedAt)
		}
		if err != nil {
			return nil, err
		}
		rec.Payload = domain.Normalize(payload)
		if withOriginal {
			rec.Original = domain.Normalize(original)
		} else {
			rec.Original = rec.Payload.Clone()
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CreateSubmission persists a worker submission into the live set and records
// the outbox event inside the same transaction. Replays of an already stored
// record id are ignored.
func (r *Repository) CreateSubmission(ctx context.Context, rec domain.Record) error {
	payloadJSON, err := json.Marshal(rec.Payload)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", rec.TenantID); err != nil {
		return err
	}

	const insert = `INSERT INTO shift_activities (record_id, tenant_id, site, shift_date, shift_period, shift_id, user_id, payload, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (record_id) DO NOTHING`

	tag, err := tx.Exec(ctx, insert,
		rec.ID,
		rec.TenantID,
		rec.Site,
		rec.ShiftDate,
		rec.ShiftPeriod,
		rec.ShiftID,
		rec.UserID,
		payloadJSON,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Duplicate delivery from the sync pipeline; nothing new to announce.
		return tx.Commit(ctx)
	}

	if err := insertOutbox(ctx, tx, rec.TenantID, rec.ID, "shift.record_submitted", rec.TenantID+":"+rec.Site, events.RecordSubmitted{
		RecordID:    rec.ID,
		TenantID:    rec.TenantID,
		Site:        rec.Site,
		ShiftDate:   rec.ShiftDate,
		ShiftPeriod: string(rec.ShiftPeriod),
		ShiftID:     rec.ShiftID,
		UserID:      rec.UserID,
		Payload:     payloadJSON,
		SubmittedAt: rec.CreatedAt,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ValidateDay locks in the current live records for (site, date) as the
// validated snapshot, replacing any earlier snapshot for that day. The
// submitted payload is copied into both payload and original_payload; the
// original column stays put through later supervisor edits as the diff
// baseline. Returns the number of records snapshotted.
func (r *Repository) ValidateDay(ctx context.Context, tenantID, site, date string) (int, error) {
	now := time.Now().UTC()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return 0, err
	}

	if _, err = tx.Exec(ctx,
		`DELETE FROM validated_activities WHERE tenant_id=$1 AND site=$2 AND shift_date=$3`,
		tenantID, site, date,
	); err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO validated_activities (record_id, tenant_id, site, shift_date, shift_period, shift_id, user_id, payload, original_payload, validated_at)
         SELECT record_id, tenant_id, site, shift_date, shift_period, shift_id, user_id, payload, payload, $4
           FROM shift_activities WHERE tenant_id=$1 AND site=$2 AND shift_date=$3`,
		tenantID, site, date, now,
	)
	if err != nil {
		return 0, err
	}
	count := int(tag.RowsAffected())

	if err := insertOutbox(ctx, tx, tenantID, site+":"+date, "shift.day_validated", tenantID+":"+site, events.DayValidated{
		TenantID:    tenantID,
		Site:        site,
		ShiftDate:   date,
		RecordCount: count,
		ValidatedAt: now,
	}); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	observability.RecordDayValidated(now)
	return count, nil
}

// ReplacePayloads persists supervisor edits as the new validated payloads, all
// in one transaction: either every edit lands or none does.
func (r *Repository) ReplacePayloads(ctx context.Context, tenantID string, edits []domain.PayloadEdit) error {
	if len(edits) == 0 {
		return nil
	}
	now := time.Now().UTC()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return err
	}

	for _, edit := range edits {
		payloadJSON, err := json.Marshal(edit.Payload)
		if err != nil {
			return err
		}

		var site, date string
		err = tx.QueryRow(ctx,
			`UPDATE validated_activities SET payload=$1, edited_at=$2
              WHERE tenant_id=$3 AND record_id=$4
          RETURNING site, shift_date::text`,
			payloadJSON, now, tenantID, edit.RecordID,
		).Scan(&site, &date)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrRecordNotFound, edit.RecordID)
			}
			return err
		}

		if err := insertOutbox(ctx, tx, tenantID, edit.RecordID, "shift.payload_replaced", tenantID+":"+site, events.PayloadReplaced{
			RecordID:   edit.RecordID,
			TenantID:   tenantID,
			Site:       site,
			ShiftDate:  date,
			Payload:    payloadJSON,
			ReplacedAt: now,
		}); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// DeleteValidated hard deletes one record from the validated set.
func (r *Repository) DeleteValidated(ctx context.Context, tenantID, recordID string) error {
	now := time.Now().UTC()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return err
	}

	var site, date string
	err = tx.QueryRow(ctx,
		`DELETE FROM validated_activities WHERE tenant_id=$1 AND record_id=$2
     RETURNING site, shift_date::text`,
		tenantID, recordID,
	).Scan(&site, &date)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
		}
		return err
	}

	if err := insertOutbox(ctx, tx, tenantID, recordID, "shift.record_deleted", tenantID+":"+site, events.RecordDeleted{
		RecordID:  recordID,
		TenantID:  tenantID,
		Site:      site,
		ShiftDate: date,
		DeletedAt: now,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListByUser returns a user's live submissions ordered by time, newest first.
func (r *Repository) ListByUser(ctx context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.Record, *domain.Cursor, error) {
	args := []any{tenantID, userID, limit}
	query := `SELECT ` + liveColumns + `
        FROM shift_activities WHERE tenant_id=$1 AND user_id=$2`

	if cursor != nil {
		query += ` AND (created_at, record_id) < ($4, $5)`
		args = append(args, cursor.CreatedAt, cursor.ID)
	}

	query += ` ORDER BY created_at DESC, record_id DESC LIMIT $3`

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return nil, nil, err
	}

	results, err := queryRecords(ctx, tx, query, false, args...)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	var nextCursor *domain.Cursor
	if len(results) == limit && limit > 0 {
		last := results[len(results)-1]
		nextCursor = &domain.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	return results, nextCursor, nil
}

// insertOutbox records an event row for the dispatcher, mirroring the payload
// write in the same transaction.
func insertOutbox(ctx context.Context, tx pgx.Tx, tenantID, aggregateID, eventType, partitionKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s:%d", aggregateID, eventType, time.Now().UnixNano())

	const stmt = `INSERT INTO outbox (tenant_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, stmt,
		tenantID,
		"shift_record",
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		partitionKey,
		body,
		dedupeKey,
	)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	"shift.record_submitted": {
		Topic:         "shift_record_events",
		SchemaSubject: "shift_record_submitted-value",
	},
	"shift.payload_replaced": {
		Topic:         "shift_record_events",
		SchemaSubject: "shift_payload_replaced-value",
	},
	"shift.record_deleted": {
		Topic:         "shift_record_events",
		SchemaSubject: "shift_record_deleted-value",
	},
	"shift.day_validated": {
		Topic:         "shift_day_events",
		SchemaSubject: "shift_day_validated-value",
	},
}
