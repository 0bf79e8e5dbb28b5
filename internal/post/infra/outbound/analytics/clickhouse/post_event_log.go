package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	postDomain "github.com/davicafu/hexablog/internal/post/domain"
	sharedEvents "github.com/davicafu/hexablog/internal/shared/events"
)

// PostEventLog guarda cada PostEvent recibido en la tabla post_events_log de ClickHouse.
type PostEventLog struct {
	db *sql.DB
}

// PostEventEntry es una fila de post_events_log.
type PostEventEntry struct {
	Event      sharedEvents.PostEvent
	ReceivedAt time.Time
}

// Open abre la conexión database/sql del driver de ClickHouse.
func Open(addr, dbName string) (*sql.DB, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}
	return conn, nil
}

func NewPostEventLog(db *sql.DB) *PostEventLog {
	return &PostEventLog{db: db}
}

// Record inserta un único evento como lote de uno.
func (r *PostEventLog) Record(ctx context.Context, evt sharedEvents.PostEvent, receivedAt time.Time) error {
	return r.LogBatch(ctx, []PostEventEntry{{Event: evt, ReceivedAt: receivedAt}})
}

// LogBatch inserta varios eventos en una sola transacción; ClickHouse rinde mejor con lotes.
func (r *PostEventLog) LogBatch(ctx context.Context, entries []PostEventEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO post_events_log (post_id, title, author_name, action, received_at)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			e.Event.ID,
			e.Event.Title,
			e.Event.AuthorName,
			string(e.Event.Action),
			e.ReceivedAt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to exec statement for post %s: %w", e.Event.ID, err)
		}
	}

	return tx.Commit()
}

// CountByAction cuenta los eventos registrados de una acción.
func (r *PostEventLog) CountByAction(ctx context.Context, action sharedEvents.PostAction) (uint64, error) {
	var n uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT count() FROM post_events_log WHERE action = ?`, string(action),
	).Scan(&n)
	return n, err
}

// InitSchema crea la tabla si no existe.
func (r *PostEventLog) InitSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS post_events_log (
			post_id     String,
			title       String,
			author_name String,
			action      LowCardinality(String),
			received_at DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(received_at)
		ORDER BY (post_id, received_at)
	`)
	return err
}

var _ postDomain.PostEventSink = (*PostEventLog)(nil)
