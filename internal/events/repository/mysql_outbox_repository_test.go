package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buiducnhanit/management-system/internal/events/domain"
)

// The MySQL repository is exercised against sqlmock so the query shapes stay
// covered without a MySQL instance; the PostgreSQL tests run against a real
// database when one is available.

func newMySQLRepoWithMock(t *testing.T) (*MySQLOutboxEventRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewMySQLOutboxEventRepository(db), mock, db
}

func TestMySQLOutboxEventRepository_Create(t *testing.T) {
	repo, mock, db := newMySQLRepoWithMock(t)
	defer db.Close()

	event := &domain.OutboxEvent{
		ID:        uuid.Must(uuid.NewV7()),
		EventType: "user.registered",
		Payload:   `{"user_id":"abc"}`,
		Status:    domain.OutboxEventStatusPending,
	}

	mock.ExpectExec(`INSERT INTO outbox_events`).
		WithArgs(event.ID.String(), event.EventType, event.Payload, event.Status,
			event.Retries, event.LastError, event.ProcessedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), event)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLOutboxEventRepository_GetPendingEvents(t *testing.T) {
	repo, mock, db := newMySQLRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	first := uuid.Must(uuid.NewV7())
	second := uuid.Must(uuid.NewV7())

	columns := []string{
		"id", "event_type", "payload", "status", "retries",
		"last_error", "processed_at", "created_at", "updated_at",
	}
	rows := sqlmock.NewRows(columns).
		AddRow(first.String(), "user.registered", `{}`, "pending", 0, nil, nil, now, now).
		AddRow(second.String(), "profile.updated", `{}`, "pending", 1, nil, nil, now, now)

	mock.ExpectQuery(`SELECT .+ FROM outbox_events.+FOR UPDATE SKIP LOCKED`).
		WithArgs(domain.OutboxEventStatusPending, 10).
		WillReturnRows(rows)

	events, err := repo.GetPendingEvents(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, first, events[0].ID)
	assert.Equal(t, "user.registered", events[0].EventType)
	assert.Equal(t, second, events[1].ID)
	assert.Equal(t, 1, events[1].Retries)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLOutboxEventRepository_GetPendingEvents_BadID(t *testing.T) {
	repo, mock, db := newMySQLRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	columns := []string{
		"id", "event_type", "payload", "status", "retries",
		"last_error", "processed_at", "created_at", "updated_at",
	}
	rows := sqlmock.NewRows(columns).
		AddRow("not-a-uuid", "user.registered", `{}`, "pending", 0, nil, nil, now, now)

	mock.ExpectQuery(`SELECT .+ FROM outbox_events`).
		WithArgs(domain.OutboxEventStatusPending, 10).
		WillReturnRows(rows)

	_, err := repo.GetPendingEvents(context.Background(), 10)

	require.Error(t, err)
}

func TestMySQLOutboxEventRepository_Update(t *testing.T) {
	repo, mock, db := newMySQLRepoWithMock(t)
	defer db.Close()

	processedAt := time.Now()
	event := &domain.OutboxEvent{
		ID:          uuid.Must(uuid.NewV7()),
		EventType:   "user.registered",
		Payload:     `{}`,
		Status:      domain.OutboxEventStatusProcessed,
		Retries:     1,
		ProcessedAt: &processedAt,
	}

	mock.ExpectExec(`UPDATE outbox_events`).
		WithArgs(event.EventType, event.Payload, event.Status, event.Retries,
			event.LastError, event.ProcessedAt, event.ID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), event)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLOutboxEventRepository_Update_DBError(t *testing.T) {
	repo, mock, db := newMySQLRepoWithMock(t)
	defer db.Close()

	event := &domain.OutboxEvent{
		ID:     uuid.Must(uuid.NewV7()),
		Status: domain.OutboxEventStatusFailed,
	}

	mock.ExpectExec(`UPDATE outbox_events`).
		WillReturnError(errors.New("connection reset"))

	err := repo.Update(context.Background(), event)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
