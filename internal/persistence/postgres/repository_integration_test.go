//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/shiftreport/internal/domain"
)

func newTestRepository(t *testing.T, ctx context.Context) (*Repository, *pgxpool.Pool) {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("shiftreport"),
		postgrescontainer.WithUsername("shiftreport"),
		postgrescontainer.WithPassword("shiftreport"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return NewRepository(pool), pool
}

func submission(tenantID, site, date, userID string) domain.Record {
	now := time.Now().UTC().Truncate(time.Microsecond)
	payload := domain.Payload{
		Activity:    domain.ActivityHoisting,
		SubActivity: "",
		Values: map[string]any{
			"Ore Tonnes":   120.0,
			"Waste Tonnes": 30.0,
			"Location":     "Shaft 1",
		},
	}
	return domain.Record{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Site:        site,
		ShiftDate:   date,
		ShiftPeriod: domain.ShiftPeriodDay,
		ShiftID:     date + ":day",
		UserID:      userID,
		Payload:     payload,
		Original:    payload.Clone(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestRepositoryRespectsTenantIsolation(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t, ctx)

	rec := submission(uuid.NewString(), "north-mine", "2026-03-14", uuid.NewString())
	require.NoError(t, repo.CreateSubmission(ctx, rec))

	day, err := repo.DayRecords(ctx, rec.TenantID, rec.Site, rec.ShiftDate)
	require.NoError(t, err)
	require.Len(t, day.Live, 1)
	require.Equal(t, rec.ID, day.Live[0].ID)

	otherDay, err := repo.DayRecords(ctx, uuid.NewString(), rec.Site, rec.ShiftDate)
	require.NoError(t, err)
	require.Empty(t, otherDay.Live, "RLS should prevent cross-tenant access")
}

func TestCreateSubmissionIgnoresReplays(t *testing.T) {
	ctx := context.Background()
	repo, pool := newTestRepository(t, ctx)

	rec := submission(uuid.NewString(), "north-mine", "2026-03-14", uuid.NewString())
	require.NoError(t, repo.CreateSubmission(ctx, rec))
	require.NoError(t, repo.CreateSubmission(ctx, rec))

	var outboxRows int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE event_type = 'shift.record_submitted'`).Scan(&outboxRows))
	require.Equal(t, 1, outboxRows, "replayed submission must not re-announce")

	day, err := repo.DayRecords(ctx, rec.TenantID, rec.Site, rec.ShiftDate)
	require.NoError(t, err)
	require.Len(t, day.Live, 1)
}

func TestValidateEditDeleteLifecycle(t *testing.T) {
	ctx := context.Background()
	repo, pool := newTestRepository(t, ctx)

	tenantID := uuid.NewString()
	first := submission(tenantID, "north-mine", "2026-03-14", uuid.NewString())
	second := submission(tenantID, "north-mine", "2026-03-14", uuid.NewString())
	require.NoError(t, repo.CreateSubmission(ctx, first))
	require.NoError(t, repo.CreateSubmission(ctx, second))

	count, err := repo.ValidateDay(ctx, tenantID, "north-mine", "2026-03-14")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	edited := first.Payload.Clone()
	edited.Values["Ore Tonnes"] = 150.0
	require.NoError(t, repo.ReplacePayloads(ctx, tenantID, []domain.PayloadEdit{
		{RecordID: first.ID, Payload: edited},
	}))

	day, err := repo.DayRecords(ctx, tenantID, "north-mine", "2026-03-14")
	require.NoError(t, err)
	require.Len(t, day.Validated, 2)
	for _, rec := range day.Validated {
		if rec.ID != first.ID {
			continue
		}
		require.Equal(t, 150.0, domain.Num(rec.Payload.Value("Ore Tonnes")))
		require.Equal(t, 120.0, domain.Num(rec.Original.Value("Ore Tonnes")), "original payload is the diff baseline and must survive edits")
	}

	require.NoError(t, repo.DeleteValidated(ctx, tenantID, second.ID))
	day, err = repo.DayRecords(ctx, tenantID, "north-mine", "2026-03-14")
	require.NoError(t, err)
	require.Len(t, day.Validated, 1)

	err = repo.DeleteValidated(ctx, tenantID, second.ID)
	require.ErrorIs(t, err, ErrRecordNotFound)

	for eventType, want := range map[string]int{
		"shift.day_validated":    1,
		"shift.payload_replaced": 1,
		"shift.record_deleted":   1,
	} {
		var rows int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM outbox WHERE event_type = $1`, eventType).Scan(&rows))
		require.Equalf(t, want, rows, "outbox rows for %s", eventType)
	}

	// Every subject follows the <event_name>-value convention.
	var mismatched int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE schema_subject <> replace(event_type, '.', '_') || '-value'`,
	).Scan(&mismatched))
	require.Zero(t, mismatched, "schema subjects must derive from the event name")
}

func TestReplacePayloadsUnknownRecordRollsBack(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t, ctx)

	tenantID := uuid.NewString()
	rec := submission(tenantID, "north-mine", "2026-03-14", uuid.NewString())
	require.NoError(t, repo.CreateSubmission(ctx, rec))
	_, err := repo.ValidateDay(ctx, tenantID, "north-mine", "2026-03-14")
	require.NoError(t, err)

	edited := rec.Payload.Clone()
	edited.Values["Ore Tonnes"] = 999.0
	err = repo.ReplacePayloads(ctx, tenantID, []domain.PayloadEdit{
		{RecordID: rec.ID, Payload: edited},
		{RecordID: uuid.NewString(), Payload: edited},
	})
	require.ErrorIs(t, err, ErrRecordNotFound)

	day, err := repo.DayRecords(ctx, tenantID, "north-mine", "2026-03-14")
	require.NoError(t, err)
	require.Equal(t, 120.0, domain.Num(day.Validated[0].Payload.Value("Ore Tonnes")), "failed batch must not apply partially")
}

func TestListByUserPaginates(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepository(t, ctx)

	tenantID := uuid.NewString()
	userID := uuid.NewString()
	for i := 0; i < 3; i++ {
		rec := submission(tenantID, "north-mine", "2026-03-14", userID)
		rec.CreatedAt = rec.CreatedAt.Add(time.Duration(i) * time.Second)
		rec.UpdatedAt = rec.CreatedAt
		require.NoError(t, repo.CreateSubmission(ctx, rec))
	}

	page, cursor, err := repo.ListByUser(ctx, tenantID, userID, nil, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, cursor)

	rest, _, err := repo.ListByUser(ctx, tenantID, userID, cursor, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	require.True(t, rest[0].CreatedAt.Before(page[1].CreatedAt) || rest[0].CreatedAt.Equal(page[1].CreatedAt))
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
		"../../../db/postgres/migrations/0002_outbox_dlq_retry.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
