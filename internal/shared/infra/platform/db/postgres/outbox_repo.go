package postgres

import (
	"context"
	"database/sql"
	"fmt"

	sharedDomain "github.com/davicafu/hexablog/internal/shared/domain"
	"github.com/google/uuid"
)

// OutboxRepoPostgres implementa sharedDomain.OutboxRepository.
type OutboxRepoPostgres struct {
	db *sql.DB
}

func NewOutboxRepoPostgres(db *sql.DB) *OutboxRepoPostgres {
	return &OutboxRepoPostgres{db: db}
}

// InitOutbox crea la tabla outbox si no existe.
func InitOutbox(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS outbox (
			id UUID PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
			attempts INT NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT ''
		)
	`)
	return err
}

// InsertOutboxTx inserta el evento dentro de la transacción del agregado.
func InsertOutboxTx(ctx context.Context, tx *sql.Tx, evt sharedDomain.OutboxEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload)
		 VALUES ($1, $2, $3, $4, $5)`,
		evt.ID.String(), evt.AggregateType, evt.AggregateID, evt.EventType, string(evt.Payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

func (r *OutboxRepoPostgres) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id::text, aggregate_type, aggregate_id, event_type, payload, created_at, attempts, last_error
		 FROM outbox ORDER BY created_at, id LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch outbox: %w", sharedDomain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var events []sharedDomain.OutboxEvent
	for rows.Next() {
		var evt sharedDomain.OutboxEvent
		var idStr string
		var payload []byte

		if err := rows.Scan(&idStr, &evt.AggregateType, &evt.AggregateID, &evt.EventType,
			&payload, &evt.CreatedAt, &evt.Attempts, &evt.LastError); err != nil {
			return nil, fmt.Errorf("%w: scan outbox: %w", sharedDomain.ErrStoreUnavailable, err)
		}

		if evt.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("invalid UUID in outbox row: %w", err)
		}
		evt.Payload = payload

		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate outbox: %w", sharedDomain.ErrStoreUnavailable, err)
	}

	return events, nil
}

func (r *OutboxRepoPostgres) DeleteOutboxEvent(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM outbox WHERE id = $1`, id.String()); err != nil {
		return fmt.Errorf("%w: delete outbox event %s: %w", sharedDomain.ErrStoreUnavailable, id, err)
	}
	return nil
}

func (r *OutboxRepoPostgres) MarkOutboxFailed(ctx context.Context, id uuid.UUID, reason string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE outbox SET attempts = attempts + 1, last_error = $1 WHERE id = $2`,
		reason, id.String(),
	)
	if err != nil {
		return fmt.Errorf("%w: mark outbox event %s: %w", sharedDomain.ErrStoreUnavailable, id, err)
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
var _ sharedDomain.OutboxRepository = (*OutboxRepoPostgres)(nil)
