package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	postDomain "github.com/davicafu/hexablog/internal/post/domain"
	sharedSQLite "github.com/davicafu/hexablog/internal/shared/infra/platform/db/sqlite"
	sharedQuery "github.com/davicafu/hexablog/internal/shared/infra/platform/query"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := sharedSQLite.Open(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, InitSQLite(ctx, db))
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPostRepoSQLite_CreateAssignsIDAndTimestamp(t *testing.T) {
	repo := NewPostRepoSQLite(setupTestDB(t))

	p, err := repo.Create(context.Background(), postDomain.NewPost{Title: "Hello", Content: "World", AuthorName: "Alice"})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(p.ID)
	assert.NoError(t, parseErr, "id generado por la base de datos debe ser un UUID")
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, "Hello", p.Title)
	assert.Equal(t, "World", p.Content)
	assert.Equal(t, "Alice", p.AuthorName)
}

func TestPostRepoSQLite_CreateWritesOutboxInSameTx(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepoSQLite(db)
	outbox := sharedSQLite.NewOutboxRepoSQLite(db)

	p, err := repo.Create(context.Background(), postDomain.NewPost{Title: "Hello", Content: "World", AuthorName: "Alice"})
	require.NoError(t, err)

	events, err := outbox.FetchPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, postDomain.PostCreated, events[0].EventType)
	assert.Equal(t, p.ID, events[0].AggregateID)
	assert.JSONEq(t,
		fmt.Sprintf(`{"id":%q,"title":"Hello","authorName":"Alice","action":"created"}`, p.ID),
		string(events[0].Payload))
}

func TestPostRepoSQLite_CreateRollsBackWithoutOutbox(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.Exec(`DROP TABLE outbox`)
	require.NoError(t, err)
	repo := NewPostRepoSQLite(db)

	_, err = repo.Create(context.Background(), postDomain.NewPost{Title: "Hello", Content: "World", AuthorName: "Alice"})
	require.Error(t, err)

	total, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, total, "sin outbox no debe quedar el post")
}

func TestPostRepoSQLite_GetByID(t *testing.T) {
	repo := NewPostRepoSQLite(setupTestDB(t))
	ctx := context.Background()

	created, err := repo.Create(ctx, postDomain.NewPost{Title: "Hello", Content: "World", AuthorName: "Alice"})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, postDomain.ErrPostNotFound)

	_, err = repo.GetByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, postDomain.ErrPostNotFound)
}

func TestPostRepoSQLite_ListNewestFirstAndCount(t *testing.T) {
	repo := NewPostRepoSQLite(setupTestDB(t))
	ctx := context.Background()

	var ids []string
	for i := 0; i < 12; i++ {
		p, err := repo.Create(ctx, postDomain.NewPost{Title: fmt.Sprintf("post %d", i), Content: "c", AuthorName: "a"})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	page, err := repo.List(ctx, sharedQuery.NewOffsetPagination(0, 0))
	require.NoError(t, err)
	require.Len(t, page, 10)
	assert.Equal(t, ids[11], page[0].ID)
	assert.Equal(t, ids[2], page[9].ID)
	for i := 1; i < len(page); i++ {
		assert.False(t, page[i].CreatedAt.After(page[i-1].CreatedAt))
	}

	rest, err := repo.List(ctx, sharedQuery.NewOffsetPagination(10, 10))
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, ids[0], rest[1].ID)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, total)
}

func TestPostRepoSQLite_ListEmpty(t *testing.T) {
	repo := NewPostRepoSQLite(setupTestDB(t))

	posts, err := repo.List(context.Background(), sharedQuery.NewOffsetPagination(0, 0))
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}
