package usage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS usage_records (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL,
    credential_id TEXT NOT NULL,
    model TEXT NOT NULL,

    input_tokens INTEGER NOT NULL DEFAULT 0,
    output_tokens INTEGER NOT NULL DEFAULT 0,
    cache_read_tokens INTEGER NOT NULL DEFAULT 0,

    stop_reason TEXT,
    attempts INTEGER NOT NULL DEFAULT 1,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    metering TEXT,

    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_usage_created_at ON usage_records(created_at);
CREATE INDEX IF NOT EXISTS idx_usage_credential ON usage_records(credential_id);
CREATE INDEX IF NOT EXISTS idx_usage_model ON usage_records(model);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`

// Record is one request's accounting row.
type Record struct {
	// ID is the row id; assigned on insert when empty
	ID string

	// RequestID correlates with request logs
	RequestID string

	// CredentialID is the credential that served the request
	CredentialID string

	// Model is the public model name the client asked for
	Model string

	InputTokens     int
	OutputTokens    int
	CacheReadTokens int

	// StopReason is the public-schema stop reason
	StopReason string

	// Attempts is how many delivery attempts the request took
	Attempts int

	// Duration is the end-to-end request duration
	Duration time.Duration

	// Metering holds the backend's raw metering events
	Metering []json.RawMessage

	// CreatedAt defaults to now on insert when zero
	CreatedAt time.Time
}

// Summary aggregates usage per model and credential.
type Summary struct {
	Model        string `json:"model"`
	CredentialID string `json:"credential_id"`
	Requests     int    `json:"requests"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Config contains configuration for the usage store.
type Config struct {
	// Path is the database file path
	Path string

	// MaxOpenConns caps the connection pool; default 10
	MaxOpenConns int

	// BusyTimeout is how long to wait on a locked database; default 5s
	BusyTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Path == "" {
		c.Path = "data/usage.db"
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 10
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = 5 * time.Second
	}
}

// Store is the SQLite-backed usage store. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the usage database.
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "usage")

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open usage db: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	s := &Store{db: db, logger: logger}
	if err := s.initialize(cfg); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("usage store opened", "path", cfg.Path)
	return s, nil
}

func (s *Store) initialize(cfg Config) error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable wal: %w", err)
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := s.db.Exec("INSERT OR IGNORE INTO schema_version (version) VALUES (?)", SchemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	var version int
	if err := s.db.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("schema version mismatch: have %d, want %d", version, SchemaVersion)
	}
	return nil
}

// Record inserts one usage row.
func (s *Store) Record(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	var metering any
	if len(rec.Metering) > 0 {
		b, err := json.Marshal(rec.Metering)
		if err != nil {
			return fmt.Errorf("marshal metering: %w", err)
		}
		metering = string(b)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_records (
			id, request_id, credential_id, model,
			input_tokens, output_tokens, cache_read_tokens,
			stop_reason, attempts, duration_ms, metering, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RequestID, rec.CredentialID, rec.Model,
		rec.InputTokens, rec.OutputTokens, rec.CacheReadTokens,
		rec.StopReason, rec.Attempts, rec.Duration.Milliseconds(), metering, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert usage record: %w", err)
	}
	return nil
}

// Summarize aggregates usage per model and credential since the given
// time.
func (s *Store) Summarize(ctx context.Context, since time.Time) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT model, credential_id, COUNT(*),
		       COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0)
		FROM usage_records
		WHERE created_at >= ?
		GROUP BY model, credential_id
		ORDER BY model, credential_id`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("summarize usage: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.Model, &sum.CredentialID, &sum.Requests, &sum.InputTokens, &sum.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Prune deletes records older than the cutoff and returns how many
// were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM usage_records WHERE created_at < ?", olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune usage records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("pruned usage records", "removed", n, "older_than", olderThan)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
