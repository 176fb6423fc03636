package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shaiso/musiclet/internal/domain"
)

// Entry — неотправленный результат.
type Entry struct {
	ID        string
	Result    *domain.Result
	Cause     string
	Attempts  int
	CreatedAt time.Time
}

// Store — sqlite-хранилище неотправленных результатов.
type Store struct {
	db *sql.DB
}

// Open открывает (или создаёт) базу outbox по пути path.
// path может быть ":memory:".
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	// Один писатель: цикл воркера однопоточный.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	for _, pragma := range []string{`PRAGMA journal_mode=WAL;`, `PRAGMA busy_timeout=5000;`} {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return err
		}
	}

	_, err := s.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS pending_results (
		id              TEXT PRIMARY KEY,
		task_id         TEXT NOT NULL,
		body            TEXT NOT NULL,
		cause           TEXT NOT NULL DEFAULT '',
		attempts        INTEGER NOT NULL DEFAULT 0,
		last_error      TEXT,
		created_at      INTEGER NOT NULL,
		last_attempt_at INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_pending_results_created_at ON pending_results(created_at);
	`)
	return err
}

// Close закрывает базу.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save сохраняет результат, который не удалось отправить. cause — текст ошибки отправки.
func (s *Store) Save(ctx context.Context, result *domain.Result, cause string) (string, error) {
	body, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pending_results (id, task_id, body, cause, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, result.ID, string(body), cause, time.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert pending result: %w", err)
	}
	return id, nil
}

// Pending возвращает до limit записей, от старых к новым.
func (s *Store) Pending(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, body, cause, attempts, created_at
		FROM pending_results
		ORDER BY created_at ASC, rowid ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending results: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			body      string
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &body, &e.Cause, &e.Attempts, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending result: %w", err)
		}
		var result domain.Result
		if err := json.Unmarshal([]byte(body), &result); err != nil {
			return nil, fmt.Errorf("decode pending result %s: %w", e.ID, err)
		}
		e.Result = &result
		e.CreatedAt = time.Unix(0, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkAttempt фиксирует неудачную попытку отправки.
func (s *Store) MarkAttempt(ctx context.Context, id, lastError string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE pending_results
		SET attempts = attempts + 1, last_error = ?, last_attempt_at = ?
		WHERE id = ?
	`, lastError, time.Now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("mark attempt %s: %w", id, err)
	}
	return nil
}

// Delete удаляет запись.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pending_results WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete pending result %s: %w", id, err)
	}
	return nil
}

// Count возвращает число неотправленных результатов.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_results`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending results: %w", err)
	}
	return n, nil
}
