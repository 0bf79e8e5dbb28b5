package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/davicafu/hexablog/internal/shared/domain"
	"github.com/google/uuid"
)

// OutboxRepoSQLite implementa domain.OutboxRepository.
type OutboxRepoSQLite struct {
	db *sql.DB
}

func NewOutboxRepoSQLite(db *sql.DB) *OutboxRepoSQLite {
	return &OutboxRepoSQLite{db: db}
}

// InitOutbox crea la tabla outbox si no existe.
func InitOutbox(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS outbox (
            id TEXT PRIMARY KEY,
            aggregate_type TEXT NOT NULL,
            aggregate_id TEXT NOT NULL,
            event_type TEXT NOT NULL,
            payload TEXT NOT NULL,
            created_at TEXT NOT NULL DEFAULT `+NowDefault+`,
            attempts INTEGER NOT NULL DEFAULT 0,
            last_error TEXT NOT NULL DEFAULT ''
        )
    `)
	return err
}

// InsertOutboxTx inserta el evento dentro de la transacción del agregado.
func InsertOutboxTx(ctx context.Context, tx *sql.Tx, evt domain.OutboxEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload)
		 VALUES (?, ?, ?, ?, ?)`,
		evt.ID.String(), evt.AggregateType, evt.AggregateID, evt.EventType, string(evt.Payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// FetchPendingOutbox devuelve los eventos pendientes en orden de inserción.
func (r *OutboxRepoSQLite) FetchPendingOutbox(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at, attempts, last_error
         FROM outbox
         ORDER BY created_at, rowid
         LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch outbox: %w", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var evt domain.OutboxEvent
		var idStr, payloadStr, createdAt string

		if err := rows.Scan(&idStr, &evt.AggregateType, &evt.AggregateID, &evt.EventType,
			&payloadStr, &createdAt, &evt.Attempts, &evt.LastError); err != nil {
			return nil, fmt.Errorf("%w: scan outbox: %w", domain.ErrStoreUnavailable, err)
		}

		if evt.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("invalid UUID in outbox row: %w", err)
		}
		if evt.CreatedAt, err = ParseTime(createdAt); err != nil {
			return nil, err
		}
		evt.Payload = []byte(payloadStr)

		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate outbox: %w", domain.ErrStoreUnavailable, err)
	}

	return events, nil
}

// DeleteOutboxEvent es idempotente: borrar un evento que ya no existe no es un error.
func (r *OutboxRepoSQLite) DeleteOutboxEvent(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("%w: delete outbox event %s: %w", domain.ErrStoreUnavailable, id, err)
	}
	return nil
}

func (r *OutboxRepoSQLite) MarkOutboxFailed(ctx context.Context, id uuid.UUID, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE outbox SET attempts = attempts + 1, last_error = ? WHERE id = ?`,
		reason, id.String(),
	)
	if err != nil {
		return fmt.Errorf("%w: mark outbox event %s: %w", domain.ErrStoreUnavailable, id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

// Verificación en tiempo de compilación.
var _ domain.OutboxRepository = (*OutboxRepoSQLite)(nil)
