package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	commentDomain "github.com/davicafu/hexablog/internal/comment/domain"
	sharedDomain "github.com/davicafu/hexablog/internal/shared/domain"
	sharedSQLite "github.com/davicafu/hexablog/internal/shared/infra/platform/db/sqlite"
	sharedQuery "github.com/davicafu/hexablog/internal/shared/infra/platform/query"
)

type CommentRepoSQLite struct {
	db *sql.DB
}

func NewCommentRepoSQLite(db *sql.DB) *CommentRepoSQLite {
	return &CommentRepoSQLite{db: db}
}

// InitSQLite crea la tabla comments si no existe.
// post_id no es clave foránea: el post vive en otro servicio.
func InitSQLite(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS comments (
            id TEXT PRIMARY KEY DEFAULT `+sharedSQLite.UUIDDefault+`,
            post_id TEXT NOT NULL,
            content TEXT NOT NULL,
            author_name TEXT NOT NULL,
            created_at TEXT NOT NULL DEFAULT `+sharedSQLite.NowDefault+`
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_comments_post_id_created_at ON comments (post_id, created_at)`)
	return err
}

func (r *CommentRepoSQLite) Create(ctx context.Context, in commentDomain.NewComment) (*commentDomain.Comment, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO comments (post_id, content, author_name) VALUES (?, ?, ?)
		 RETURNING id, post_id, content, author_name, created_at`,
		in.PostID, in.Content, in.AuthorName,
	)
	c, err := scanComment(row)
	if err != nil {
		return nil, fmt.Errorf("%w: insert comment: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	return c, nil
}

func (r *CommentRepoSQLite) ListByPostID(ctx context.Context, postID string, pagination sharedQuery.OffsetPagination) ([]*commentDomain.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, content, author_name, created_at FROM comments
		 WHERE post_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		postID, pagination.Limit, pagination.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list comments: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	comments := []*commentDomain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan comment: %w", sharedDomain.ErrStoreUnavailable, err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list comments: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	return comments, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*commentDomain.Comment, error) {
	var c commentDomain.Comment
	var createdAt string
	if err := row.Scan(&c.ID, &c.PostID, &c.Content, &c.AuthorName, &createdAt); err != nil {
		return nil, err
	}

	t, err := sharedSQLite.ParseTime(createdAt)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = t
	return &c, nil
}

// Verificación en tiempo de compilación.
var _ commentDomain.CommentRepository = (*CommentRepoSQLite)(nil)
