package output

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/jonesrussell/north-cloud/evidence/internal/domain"
)

// Supported SQL drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 2
	defaultConnMaxLifetime = 5 * time.Minute
	defaultPingTimeout     = 5 * time.Second
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS %s (
	run_id          TEXT NOT NULL,
	company         TEXT NOT NULL,
	domain          TEXT NOT NULL,
	country         TEXT NOT NULL,
	url             TEXT NOT NULL,
	keyword         TEXT NOT NULL,
	provider        TEXT NOT NULL,
	content_kind    TEXT NOT NULL,
	verdict         TEXT NOT NULL,
	tier            TEXT NOT NULL,
	explanation     TEXT NOT NULL,
	evidence_window TEXT NOT NULL,
	score           DOUBLE PRECISION NOT NULL,
	evidence_date   TEXT NOT NULL,
	date_provenance TEXT NOT NULL,
	date_approximate BOOLEAN NOT NULL,
	ocr_summary     TEXT NOT NULL,
	processed_at    TIMESTAMP NOT NULL,
	PRIMARY KEY (run_id, company, keyword)
)`

const upsertSQL = `
INSERT INTO %s (
	run_id, company, domain, country, url, keyword, provider, content_kind,
	verdict, tier, explanation, evidence_window, score, evidence_date, date_provenance,
	date_approximate, ocr_summary, processed_at
) VALUES (
	:run_id, :company, :domain, :country, :url, :keyword, :provider, :content_kind,
	:verdict, :tier, :explanation, :evidence_window, :score, :evidence_date, :date_provenance,
	:date_approximate, :ocr_summary, :processed_at
)
ON CONFLICT (run_id, company, keyword) DO UPDATE SET
	domain = excluded.domain,
	country = excluded.country,
	url = excluded.url,
	provider = excluded.provider,
	content_kind = excluded.content_kind,
	verdict = excluded.verdict,
	tier = excluded.tier,
	explanation = excluded.explanation,
	evidence_window = excluded.evidence_window,
	score = excluded.score,
	evidence_date = excluded.evidence_date,
	date_provenance = excluded.date_provenance,
	date_approximate = excluded.date_approximate,
	ocr_summary = excluded.ocr_summary,
	processed_at = excluded.processed_at`

// SQLSink upserts records into a table keyed on (run_id, company, keyword).
type SQLSink struct {
	mu     sync.Mutex
	db     *sqlx.DB
	table  string
	upsert string
}

// OpenSQLSink connects with cfg.Driver and creates the table if needed.
func OpenSQLSink(ctx context.Context, cfg SQLConfig) (*SQLSink, error) {
	if cfg.Driver != DriverPostgres && cfg.Driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}

	db, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sink, err := NewSQLSink(db, cfg.Table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err = sink.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return sink, nil
}

// NewSQLSink wraps an open database. table must be a plain identifier.
func NewSQLSink(db *sqlx.DB, table string) (*SQLSink, error) {
	if table == "" {
		table = defaultTable
	}
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SQLSink{db: db, upsert: fmt.Sprintf(upsertSQL, table), table: table}, nil
}

// EnsureSchema creates the records table when it does not exist.
func (s *SQLSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(createTableSQL, s.table)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

// Write upserts one record.
func (s *SQLSink) Write(ctx context.Context, r domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.NamedExecContext(ctx, s.upsert, r); err != nil {
		return fmt.Errorf("failed to upsert record %s/%s: %w", r.Company, r.Keyword, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLSink) Close() error {
	return s.db.Close()
}
