package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStore struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens dsn with the pgx driver and checks the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	return db, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS focus_ledger (
    id TEXT PRIMARY KEY,
    day DATE NOT NULL,
    subject TEXT NOT NULL,
    row_id TEXT NOT NULL,
    saved_minutes BIGINT NOT NULL,
    new_focus BIGINT NOT NULL,
    recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_focus_ledger_day ON focus_ledger(day);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	entry, err := validateEntry(entry)
	if err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO focus_ledger (id, day, subject, row_id, saved_minutes, new_focus, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING
`, entry.ID, entry.Day, entry.Subject, entry.RowID, entry.SavedMinutes, entry.NewFocus, entry.RecordedAt)
	return err
}

func (s *PostgresStore) ListByDay(ctx context.Context, day string) ([]Entry, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	day, err := validateDay(day)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, to_char(day, 'YYYY-MM-DD'), subject, row_id, saved_minutes, new_focus, recorded_at
FROM focus_ledger WHERE day=$1 ORDER BY recorded_at, id`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Day, &e.Subject, &e.RowID, &e.SavedMinutes, &e.NewFocus, &e.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
