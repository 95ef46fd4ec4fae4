package postgres

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/relayctl/relayctl/internal/history"
)

// DB implements history.Store for PostgreSQL via the pgx stdlib driver.
type DB struct {
	db *sql.DB
}

// New opens a PostgreSQL connection from a postgres:// DSN.
func New(dsn string) (*DB, error) {
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{db: d}, nil
}

func (p *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS service_events(
			id BIGSERIAL PRIMARY KEY,
			service TEXT NOT NULL,
			pid INTEGER NOT NULL,
			event TEXT NOT NULL,
			occurred_at TIMESTAMPTZ NOT NULL,
			detail TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_service_events_service ON service_events(service);`,
	}
	for _, q := range stmts {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (p *DB) Append(ctx context.Context, ev history.Event) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO service_events(service, pid, event, occurred_at, detail)
		VALUES($1, $2, $3, $4, $5);`,
		ev.Service, ev.PID, string(ev.Type), ev.OccurredAt.UTC(), ev.Detail)
	return err
}

func (p *DB) Recent(ctx context.Context, service string, limit int) ([]history.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT service, pid, event, occurred_at, detail
		FROM service_events
		WHERE ($1 = '' OR service = $1)
		ORDER BY id DESC LIMIT $2;`,
		service, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []history.Event
	for rows.Next() {
		var ev history.Event
		var typ string
		if err := rows.Scan(&ev.Service, &ev.PID, &typ, &ev.OccurredAt, &ev.Detail); err != nil {
			return nil, err
		}
		ev.Type = history.EventType(typ)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (p *DB) Close() error { return p.db.Close() }
