package postgres

import (
	"context"
	"database/sql"
	"fmt"

	commentDomain "github.com/davicafu/hexablog/internal/comment/domain"
	sharedDomain "github.com/davicafu/hexablog/internal/shared/domain"
	sharedQuery "github.com/davicafu/hexablog/internal/shared/infra/platform/query"
)

// CommentRepoPostgres implementa CommentRepository para PostgreSQL.
type CommentRepoPostgres struct {
	db *sql.DB
}

func NewCommentRepoPostgres(db *sql.DB) *CommentRepoPostgres {
	return &CommentRepoPostgres{db: db}
}

// InitPostgres crea la tabla comments si no existe.
func InitPostgres(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS comments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			post_id TEXT NOT NULL,
			content TEXT NOT NULL,
			author_name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_comments_post_id_created_at ON comments (post_id, created_at DESC)`)
	return err
}

func (r *CommentRepoPostgres) Create(ctx context.Context, in commentDomain.NewComment) (*commentDomain.Comment, error) {
	c := commentDomain.Comment{
		PostID:     in.PostID,
		Content:    in.Content,
		AuthorName: in.AuthorName,
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO comments (post_id, content, author_name) VALUES ($1, $2, $3)
		 RETURNING id::text, created_at`,
		in.PostID, in.Content, in.AuthorName,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: insert comment: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	return &c, nil
}

func (r *CommentRepoPostgres) ListByPostID(ctx context.Context, postID string, pagination sharedQuery.OffsetPagination) ([]*commentDomain.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id::text, post_id, content, author_name, created_at FROM comments
		 WHERE post_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		postID, pagination.Limit, pagination.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list comments: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	comments := []*commentDomain.Comment{}
	for rows.Next() {
		var c commentDomain.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Content, &c.AuthorName, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan comment: %w", sharedDomain.ErrStoreUnavailable, err)
		}
		c.CreatedAt = c.CreatedAt.UTC()
		comments = append(comments, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list comments: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	return comments, nil
}

var _ commentDomain.CommentRepository = (*CommentRepoPostgres)(nil)
