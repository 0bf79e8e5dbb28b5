package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	postDomain "github.com/davicafu/hexablog/internal/post/domain"
	sharedDomain "github.com/davicafu/hexablog/internal/shared/domain"
	sharedPostgres "github.com/davicafu/hexablog/internal/shared/infra/platform/db/postgres"
	sharedQuery "github.com/davicafu/hexablog/internal/shared/infra/platform/query"
)

// PostRepoPostgres implementa PostRepository para PostgreSQL.
type PostRepoPostgres struct {
	db *sql.DB
}

func NewPostRepoPostgres(db *sql.DB) *PostRepoPostgres {
	return &PostRepoPostgres{db: db}
}

// InitPostgres crea las tablas posts y outbox si no existen.
func InitPostgres(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS posts (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			author_name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
		)
	`)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at DESC)`); err != nil {
		return err
	}

	return sharedPostgres.InitOutbox(ctx, db)
}

// ------------------ CRUD + Outbox ------------------

// Create inserta el post y su evento de outbox en una transacción.
func (r *PostRepoPostgres) Create(ctx context.Context, in postDomain.NewPost) (*postDomain.Post, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	var p postDomain.Post
	err = tx.QueryRowContext(ctx,
		`INSERT INTO posts (title, content, author_name) VALUES ($1, $2, $3)
		 RETURNING id::text, created_at`,
		in.Title, in.Content, in.AuthorName,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: insert post: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	p.Title, p.Content, p.AuthorName = in.Title, in.Content, in.AuthorName
	p.CreatedAt = p.CreatedAt.UTC()

	evt, err := postDomain.NewCreatedOutboxEvent(&p)
	if err != nil {
		return nil, err
	}
	if err := sharedPostgres.InsertOutboxTx(ctx, tx, evt); err != nil {
		return nil, fmt.Errorf("%w: %w", sharedDomain.ErrStoreUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	return &p, nil
}

// ------------------ Lectura ------------------

// GetByID trata los ids que no son UUID como inexistentes.
func (r *PostRepoPostgres) GetByID(ctx context.Context, id string) (*postDomain.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, postDomain.ErrPostNotFound
	}

	var p postDomain.Post
	err := r.db.QueryRowContext(ctx,
		`SELECT id::text, title, content, author_name, created_at FROM posts WHERE id = $1`, id,
	).Scan(&p.ID, &p.Title, &p.Content, &p.AuthorName, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, postDomain.ErrPostNotFound
		}
		return nil, fmt.Errorf("%w: get post: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return &p, nil
}

func (r *PostRepoPostgres) List(ctx context.Context, pagination sharedQuery.OffsetPagination) ([]*postDomain.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id::text, title, content, author_name, created_at FROM posts
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1 OFFSET $2`,
		pagination.Limit, pagination.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list posts: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	posts := make([]*postDomain.Post, 0, pagination.Limit)
	for rows.Next() {
		var p postDomain.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorName, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan post: %w", sharedDomain.ErrStoreUnavailable, err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		posts = append(posts, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list posts: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	return posts, nil
}

func (r *PostRepoPostgres) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: count posts: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	return total, nil
}

var _ postDomain.PostRepository = (*PostRepoPostgres)(nil)
