// Package history persists verification reports in a DuckDB file.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/marcboeker/go-duckdb"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ferry-trace/verifier/internal/models"
)

// ErrNotFound is returned for unknown run ids.
var ErrNotFound = errors.New("report not found")

// Options tunes the DuckDB connection.
type Options struct {
	Threads     int
	MemoryLimit string
	Logger      *slog.Logger
}

// Summary is one row of the report listing.
type Summary struct {
	RunID        string    `json:"runId"`
	Source       string    `json:"source"`
	StartedAt    time.Time `json:"startedAt"`
	DurationMs   int64     `json:"durationMs"`
	Passed       bool      `json:"passed"`
	EventCount   int       `json:"eventCount"`
	FailedChecks []string  `json:"failedChecks"`
}

// DuckStore stores reports in a DuckDB database file.
type DuckStore struct {
	db     *sql.DB
	dbPath string
	logger *slog.Logger
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id         VARCHAR PRIMARY KEY,
		source         VARCHAR NOT NULL,
		started_at     BIGINT NOT NULL,
		duration_ms    BIGINT NOT NULL,
		passed         BOOLEAN NOT NULL,
		event_count    INTEGER NOT NULL,
		rejected_count INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS results (
		run_id      VARCHAR NOT NULL,
		position    INTEGER NOT NULL,
		name        VARCHAR NOT NULL,
		passed      BOOLEAN NOT NULL,
		diagnostics BLOB
	)`,
	`CREATE TABLE IF NOT EXISTS rejected_lines (
		run_id  VARCHAR NOT NULL,
		line    INTEGER NOT NULL,
		content VARCHAR NOT NULL,
		reason  VARCHAR NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id)`,
}

// Open opens (or creates) the history database at dbPath.
func Open(dbPath string, opts Options) (*DuckStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	threads := opts.Threads
	if threads <= 0 {
		threads = 2
	}
	memLimit := opts.MemoryLimit
	if memLimit == "" {
		memLimit = "256MB"
	}

	logger.Info("opening report history", "path", dbPath)
	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			fmt.Sprintf("PRAGMA memory_limit='%s'", memLimit),
			fmt.Sprintf("PRAGMA threads=%d", threads),
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return fmt.Errorf("executing %q: %w", pragma, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &DuckStore{db: db, dbPath: dbPath, logger: logger}, nil
}

// SaveReport stores a report and its results in one transaction.
func (ds *DuckStore) SaveReport(ctx context.Context, report *models.Report) error {
	tx, err := ds.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, source, started_at, duration_ms, passed, event_count, rejected_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.Source, report.StartedAt.UnixMilli(), report.DurationMs,
		report.Passed, report.EventCount, len(report.RejectedLines))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, res := range report.Results {
		diags, err := msgpack.Marshal(res.Diagnostics)
		if err != nil {
			return fmt.Errorf("encode diagnostics for %s: %w", res.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO results (run_id, position, name, passed, diagnostics) VALUES (?, ?, ?, ?, ?)`,
			report.RunID, i, res.Name, res.Passed, diags); err != nil {
			return fmt.Errorf("insert result %s: %w", res.Name, err)
		}
	}

	for _, pe := range report.RejectedLines {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rejected_lines (run_id, line, content, reason) VALUES (?, ?, ?, ?)`,
			report.RunID, pe.Line, pe.Content, pe.Reason); err != nil {
			return fmt.Errorf("insert rejected line %d: %w", pe.Line, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report: %w", err)
	}
	ds.logger.Debug("report stored", "run_id", report.RunID, "results", len(report.Results))
	return nil
}

// GetReport loads a stored report.
func (ds *DuckStore) GetReport(ctx context.Context, runID string) (*models.Report, error) {
	var (
		report    = &models.Report{RunID: runID}
		startedAt int64
		rejected  int
	)
	err := ds.db.QueryRowContext(ctx,
		`SELECT source, started_at, duration_ms, passed, event_count, rejected_count FROM runs WHERE run_id = ?`,
		runID).Scan(&report.Source, &startedAt, &report.DurationMs, &report.Passed, &report.EventCount, &rejected)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	report.StartedAt = time.UnixMilli(startedAt).UTC()

	rows, err := ds.db.QueryContext(ctx,
		`SELECT name, passed, diagnostics FROM results WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	report.Results = make([]models.CheckResult, 0)
	for rows.Next() {
		var (
			res   models.CheckResult
			diags []byte
		)
		if err := rows.Scan(&res.Name, &res.Passed, &diags); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		res.Diagnostics = make([]string, 0)
		if len(diags) > 0 {
			if err := msgpack.Unmarshal(diags, &res.Diagnostics); err != nil {
				return nil, fmt.Errorf("decode diagnostics for %s: %w", res.Name, err)
			}
		}
		report.Results = append(report.Results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if rejected > 0 {
		if report.RejectedLines, err = ds.rejectedLines(ctx, runID); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (ds *DuckStore) rejectedLines(ctx context.Context, runID string) ([]models.ParseError, error) {
	rows, err := ds.db.QueryContext(ctx,
		`SELECT line, content, reason FROM rejected_lines WHERE run_id = ? ORDER BY line`, runID)
	if err != nil {
		return nil, fmt.Errorf("query rejected lines: %w", err)
	}
	defer rows.Close()

	var out []models.ParseError
	for rows.Next() {
		var pe models.ParseError
		if err := rows.Scan(&pe.Line, &pe.Content, &pe.Reason); err != nil {
			return nil, fmt.Errorf("scan rejected line: %w", err)
		}
		out = append(out, pe)
	}
	return out, rows.Err()
}

// ListReports returns the most recent reports, newest first.
func (ds *DuckStore) ListReports(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := ds.db.QueryContext(ctx, `
		SELECT r.run_id, r.source, r.started_at, r.duration_ms, r.passed, r.event_count,
		       COALESCE(string_agg(CASE WHEN NOT res.passed THEN res.name END, ',' ORDER BY res.position), '')
		FROM runs r
		LEFT JOIN results res ON res.run_id = r.run_id
		GROUP BY r.run_id, r.source, r.started_at, r.duration_ms, r.passed, r.event_count
		ORDER BY r.started_at DESC, r.run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var (
			s         Summary
			startedAt int64
			failed    string
		)
		if err := rows.Scan(&s.RunID, &s.Source, &startedAt, &s.DurationMs, &s.Passed, &s.EventCount, &failed); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		s.StartedAt = time.UnixMilli(startedAt).UTC()
		s.FailedChecks = make([]string, 0)
		if failed != "" {
			s.FailedChecks = strings.Split(failed, ",")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FailureCounts returns how many stored runs failed each check.
func (ds *DuckStore) FailureCounts(ctx context.Context) (map[string]int, error) {
	rows, err := ds.db.QueryContext(ctx,
		`SELECT name, COUNT(*) FROM results WHERE NOT passed GROUP BY name`)
	if err != nil {
		return nil, fmt.Errorf("query failure counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan failure count: %w", err)
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

// Close closes the database. The file is kept.
func (ds *DuckStore) Close() error {
	if ds.db != nil {
		return ds.db.Close()
	}
	return nil
}
