package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/davicafu/hexablog/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupOutboxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, InitOutbox(context.Background(), db))
	t.Cleanup(func() { db.Close() })
	return db
}

func insertEvent(t *testing.T, db *sql.DB, aggregateID string) domain.OutboxEvent {
	t.Helper()
	evt, err := domain.NewOutboxEvent("post", aggregateID, "post.created", map[string]string{"id": aggregateID})
	require.NoError(t, err)

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, InsertOutboxTx(context.Background(), tx, evt))
	require.NoError(t, tx.Commit())
	return evt
}

func TestOutboxRepoSQLite_FetchInInsertionOrder(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewOutboxRepoSQLite(db)

	first := insertEvent(t, db, "p1")
	second := insertEvent(t, db, "p2")

	events, err := repo.FetchPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, first.ID, events[0].ID)
	assert.Equal(t, second.ID, events[1].ID)
	assert.JSONEq(t, `{"id":"p1"}`, string(events[0].Payload))
	assert.Equal(t, "post.created", events[0].EventType)
	assert.False(t, events[0].CreatedAt.IsZero())
}

func TestOutboxRepoSQLite_FetchRespectsLimit(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewOutboxRepoSQLite(db)

	insertEvent(t, db, "p1")
	insertEvent(t, db, "p2")
	insertEvent(t, db, "p3")

	events, err := repo.FetchPendingOutbox(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestOutboxRepoSQLite_MarkFailedKeepsEventPending(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewOutboxRepoSQLite(db)
	evt := insertEvent(t, db, "p1")

	require.NoError(t, repo.MarkOutboxFailed(context.Background(), evt.ID, "broker down"))
	require.NoError(t, repo.MarkOutboxFailed(context.Background(), evt.ID, "broker still down"))

	events, err := repo.FetchPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 2, events[0].Attempts)
	assert.Equal(t, "broker still down", events[0].LastError)
}

func TestOutboxRepoSQLite_MarkFailedUnknownEvent(t *testing.T) {
	repo := NewOutboxRepoSQLite(setupOutboxDB(t))

	err := repo.MarkOutboxFailed(context.Background(), uuid.New(), "x")
	assert.Error(t, err)
}

func TestOutboxRepoSQLite_Delete(t *testing.T) {
	db := setupOutboxDB(t)
	repo := NewOutboxRepoSQLite(db)
	evt := insertEvent(t, db, "p1")

	require.NoError(t, repo.DeleteOutboxEvent(context.Background(), evt.ID))
	// borrar dos veces no falla
	require.NoError(t, repo.DeleteOutboxEvent(context.Background(), evt.ID))

	events, err := repo.FetchPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
