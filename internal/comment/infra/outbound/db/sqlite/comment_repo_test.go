package sqlite

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commentDomain "github.com/davicafu/hexablog/internal/comment/domain"
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

func TestCommentRepoSQLite_Create(t *testing.T) {
	repo := NewCommentRepoSQLite(setupTestDB(t))

	c, err := repo.Create(context.Background(), commentDomain.NewComment{PostID: "p1", Content: "Nice!", AuthorName: "Bob"})
	require.NoError(t, err)

	_, parseErr := uuid.Parse(c.ID)
	assert.NoError(t, parseErr)
	assert.Equal(t, "p1", c.PostID)
	assert.Equal(t, "Nice!", c.Content)
	assert.Equal(t, "Bob", c.AuthorName)
	assert.False(t, c.CreatedAt.IsZero())
}

func TestCommentRepoSQLite_ListByPostID(t *testing.T) {
	repo := NewCommentRepoSQLite(setupTestDB(t))
	ctx := context.Background()

	var created []*commentDomain.Comment
	for _, content := range []string{"one", "two", "three"} {
		c, err := repo.Create(ctx, commentDomain.NewComment{PostID: "p1", Content: content, AuthorName: "Bob"})
		require.NoError(t, err)
		created = append(created, c)
	}
	_, err := repo.Create(ctx, commentDomain.NewComment{PostID: "p2", Content: "other", AuthorName: "Bob"})
	require.NoError(t, err)

	comments, err := repo.ListByPostID(ctx, "p1", sharedQuery.NewOffsetPagination(10, 0))
	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, created[2].ID, comments[0].ID)
	assert.Equal(t, created[1].ID, comments[1].ID)
	assert.Equal(t, created[0].ID, comments[2].ID)

	page, err := repo.ListByPostID(ctx, "p1", sharedQuery.NewOffsetPagination(1, 1))
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, created[1].ID, page[0].ID)
}

func TestCommentRepoSQLite_ListByPostID_Empty(t *testing.T) {
	repo := NewCommentRepoSQLite(setupTestDB(t))

	comments, err := repo.ListByPostID(context.Background(), "ghost", sharedQuery.NewOffsetPagination(10, 0))
	require.NoError(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)
}

func TestCommentRepoSQLite_ConcurrentCreates(t *testing.T) {
	repo := NewCommentRepoSQLite(setupTestDB(t))

	var wg sync.WaitGroup
	ids := make(chan string, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := repo.Create(context.Background(), commentDomain.NewComment{PostID: "p1", Content: "Nice!", AuthorName: "Bob"})
			if assert.NoError(t, err) {
				ids <- c.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	var got []string
	for id := range ids {
		got = append(got, id)
	}
	require.Len(t, got, 2)
	assert.NotEqual(t, got[0], got[1])
}
