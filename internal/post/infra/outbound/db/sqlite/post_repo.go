package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	postDomain "github.com/davicafu/hexablog/internal/post/domain"
	sharedDomain "github.com/davicafu/hexablog/internal/shared/domain"
	sharedSQLite "github.com/davicafu/hexablog/internal/shared/infra/platform/db/sqlite"
	sharedQuery "github.com/davicafu/hexablog/internal/shared/infra/platform/query"
)

type PostRepoSQLite struct {
	db *sql.DB
}

func NewPostRepoSQLite(db *sql.DB) *PostRepoSQLite {
	return &PostRepoSQLite{db: db}
}

// ------------------ Inicialización de DB ------------------

// InitSQLite crea las tablas posts y outbox si no existen.
func InitSQLite(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS posts (
            id TEXT PRIMARY KEY DEFAULT `+sharedSQLite.UUIDDefault+`,
            title TEXT NOT NULL,
            content TEXT NOT NULL,
            author_name TEXT NOT NULL,
            created_at TEXT NOT NULL DEFAULT `+sharedSQLite.NowDefault+`
        )
    `)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at)`); err != nil {
		return err
	}

	return sharedSQLite.InitOutbox(ctx, db)
}

// ------------------ Métodos ------------------

// Create inserta el post y su evento de outbox en la misma transacción.
func (r *PostRepoSQLite) Create(ctx context.Context, in postDomain.NewPost) (*postDomain.Post, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

	row := tx.QueryRowContext(ctx,
		`INSERT INTO posts (title, content, author_name) VALUES (?, ?, ?)
		 RETURNING id, title, content, author_name, created_at`,
		in.Title, in.Content, in.AuthorName,
	)
	p, err := scanPost(row)
	if err != nil {
		return nil, fmt.Errorf("%w: insert post: %w", sharedDomain.ErrStoreUnavailable, err)
	}

	evt, err := postDomain.NewCreatedOutboxEvent(p)
	if err != nil {
		return nil, err
	}
	if err := sharedSQLite.InsertOutboxTx(ctx, tx, evt); err != nil {
		return nil, fmt.Errorf("%w: %w", sharedDomain.ErrStoreUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	return p, nil
}

func (r *PostRepoSQLite) GetByID(ctx context.Context, id string) (*postDomain.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, content, author_name, created_at FROM posts WHERE id = ?`, id)

	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, postDomain.ErrPostNotFound
		}
		return nil, fmt.Errorf("%w: get post: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	return p, nil
}

func (r *PostRepoSQLite) List(ctx context.Context, pagination sharedQuery.OffsetPagination) ([]*postDomain.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, content, author_name, created_at FROM posts
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ? OFFSET ?`,
		pagination.Limit, pagination.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list posts: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	posts := make([]*postDomain.Post, 0, pagination.Limit)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan post: %w", sharedDomain.ErrStoreUnavailable, err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list posts: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	return posts, nil
}

func (r *PostRepoSQLite) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: count posts: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*postDomain.Post, error) {
	var p postDomain.Post
	var createdAt string
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorName, &createdAt); err != nil {
		return nil, err
	}

	t, err := sharedSQLite.ParseTime(createdAt)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = t
	return &p, nil
}

// Verificación en tiempo de compilación.
var _ postDomain.PostRepository = (*PostRepoSQLite)(nil)
