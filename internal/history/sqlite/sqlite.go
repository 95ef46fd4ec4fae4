package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/relayctl/relayctl/internal/history"
)

// DB implements history.Store for SQLite (modernc.org/sqlite driver,
// CGO-free). The DSN is a filesystem path; ":memory:" works for tests.
type DB struct {
	db *sql.DB
}

// New opens a SQLite database at path.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	return &DB{db: d}, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS service_events(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			service TEXT NOT NULL,
			pid INTEGER NOT NULL,
			event TEXT NOT NULL,
			occurred_at TIMESTAMP NOT NULL,
			detail TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_service_events_service ON service_events(service);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) Append(ctx context.Context, ev history.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO service_events(service, pid, event, occurred_at, detail)
		VALUES(?, ?, ?, ?, ?);`,
		ev.Service, ev.PID, string(ev.Type), ev.OccurredAt.UTC(), ev.Detail)
	return err
}

func (s *DB) Recent(ctx context.Context, service string, limit int) ([]history.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT service, pid, event, occurred_at, detail
		FROM service_events
		WHERE (? = '' OR service = ?)
		ORDER BY id DESC LIMIT ?;`,
		service, service, limit)
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

func (s *DB) Close() error { return s.db.Close() }
