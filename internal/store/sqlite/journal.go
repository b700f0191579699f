// Package sqlite keeps a durable journal of computed analyses.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stockanalysis/internal/metrics"
	"stockanalysis/internal/model"
)

// DefaultHistoryLimit caps History when the caller passes a non-positive limit.
const DefaultHistoryLimit = 50

// Config configures the journal.
type Config struct {
	Path    string // path to SQLite database file, e.g. "data/analysis.db"
	Metrics *metrics.Metrics
}

// Journal is a single-connection SQLite journal in WAL mode.
type Journal struct {
	db      *sql.DB
	metrics *metrics.Metrics
}

// DB returns the underlying sql.DB for health checks.
func (j *Journal) DB() *sql.DB { return j.db }

// Open opens (creating if needed) the journal database and its schema.
func Open(cfg Config) (*Journal, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	slog.Info("sqlite journal opened", "path", cfg.Path)
	return &Journal{db: db, metrics: cfg.Metrics}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS analyses (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id        TEXT    NOT NULL,
			symbol         TEXT    NOT NULL,
			variant        TEXT    NOT NULL,
			day            TEXT    NOT NULL,
			exchange       TEXT,
			currency       TEXT,
			price          REAL    NOT NULL,
			recommendation TEXT    NOT NULL,
			confidence     TEXT    NOT NULL,
			summary        TEXT,
			created_at     INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_analyses_user_created
			ON analyses (user_id, created_at DESC);
	`)
	return err
}

// Record appends one entry.
func (j *Journal) Record(ctx context.Context, e model.JournalEntry) error {
	start := time.Now()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO analyses
			(user_id, symbol, variant, day, exchange, currency, price, recommendation, confidence, summary, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Symbol, e.Variant, e.Day, e.Exchange, e.Currency, e.Price,
		string(e.Recommendation), string(e.Confidence), e.Summary, e.CreatedAt.UTC().UnixMilli(),
	)
	if j.metrics != nil {
		j.metrics.JournalWriteDur.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}
	return nil
}

// History returns up to limit entries for userID, newest first.
func (j *Journal) History(ctx context.Context, userID string, limit int) ([]model.JournalEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT user_id, symbol, variant, day, exchange, currency, price, recommendation, confidence, summary, created_at
		 FROM analyses
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	out := make([]model.JournalEntry, 0, limit)
	for rows.Next() {
		var (
			e                  model.JournalEntry
			exchange, currency sql.NullString
			summary            sql.NullString
			rec, conf          string
			createdMs          int64
		)
		if err := rows.Scan(&e.UserID, &e.Symbol, &e.Variant, &e.Day, &exchange, &currency,
			&e.Price, &rec, &conf, &summary, &createdMs); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		e.Exchange, e.Currency, e.Summary = exchange.String, currency.String, summary.String
		e.Recommendation, e.Confidence = model.Recommendation(rec), model.Confidence(conf)
		e.CreatedAt = time.UnixMilli(createdMs).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Nop is the journal used when no database path is configured.
type Nop struct{}

func (Nop) Record(context.Context, model.JournalEntry) error { return nil }

func (Nop) History(context.Context, string, int) ([]model.JournalEntry, error) {
	return []model.JournalEntry{}, nil
}

func (Nop) Close() error { return nil }

var (
	_ model.Journal = (*Journal)(nil)
	_ model.Journal = Nop{}
)
