package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // driver puro Go, sin cgo
)

// UUIDDefault genera un UUID v4 en la propia base de datos; se usa como DEFAULT de las claves primarias.
const UUIDDefault = `(lower(hex(randomblob(4)) || '-' || hex(randomblob(2)) || '-4' ||
	substr(hex(randomblob(2)), 2) || '-' || substr('89ab', 1 + (random() & 3), 1) ||
	substr(hex(randomblob(2)), 2) || '-' || hex(randomblob(6))))`

// NowDefault es la marca de tiempo asignada por la base de datos (UTC, milisegundos).
const NowDefault = `(strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))`

// Open abre la base de datos SQLite. SQLite admite un único escritor, así que limitamos
// el pool a una conexión; nunca se debe usar el *sql.DB mientras una tx está abierta.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure SQLite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite: %w", err)
	}
	return db, nil
}

// ParseTime interpreta las columnas de fecha guardadas como TEXT.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q in DB: %w", s, err)
	}
	return t.UTC(), nil
}
