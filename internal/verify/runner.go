// Package verify runs the checker battery against one trace log and
// aggregates a single report.
package verify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ferry-trace/verifier/internal/checker"
	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/models"
	"github.com/ferry-trace/verifier/internal/parser"
)

// NameWellFormed is the extra result added in strict mode.
const NameWellFormed = "well-formed"

// Runner parses a log once and runs every registered checker on it.
type Runner struct {
	cfg      config.Verification
	registry *checker.Registry
	parser   *parser.TraceParser
	logger   *slog.Logger
	clock    func() time.Time
	runID    string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithRegistry replaces the default checker battery.
func WithRegistry(r *checker.Registry) Option {
	return func(rn *Runner) { rn.registry = r }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(rn *Runner) { rn.logger = l }
}

// WithClock overrides the clock for deterministic testing.
func WithClock(clock func() time.Time) Option {
	return func(rn *Runner) { rn.clock = clock }
}

// WithRunID names the report instead of a fresh uuid. A runner built with
// a fixed id should verify a single log.
func WithRunID(id string) Option {
	return func(rn *Runner) { rn.runID = id }
}

// NewRunner validates cfg and builds a runner.
func NewRunner(cfg config.Verification, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		cfg:      cfg,
		registry: checker.NewRegistry(),
		parser:   parser.NewTraceParser(),
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Config returns the verification parameters of the runner.
func (r *Runner) Config() config.Verification {
	return r.cfg
}

// RunFile verifies the log at path. A missing or unreadable file is
// returned as an error and no report is produced.
func (r *Runner) RunFile(ctx context.Context, path string) (*models.Report, error) {
	start := r.clock()
	parsed, err := r.parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return r.report(ctx, path, start, parsed)
}

// Run verifies the log read from rd. source names it in the report.
func (r *Runner) Run(ctx context.Context, source string, rd io.Reader) (*models.Report, error) {
	start := r.clock()
	parsed, err := r.parser.Parse(rd)
	if err != nil {
		return nil, err
	}
	return r.report(ctx, source, start, parsed)
}

func (r *Runner) report(ctx context.Context, source string, start time.Time, parsed *parser.Result) (*models.Report, error) {
	runID := r.runID
	if runID == "" {
		runID = uuid.New().String()
	}
	log := r.logger.With("run_id", runID, "source", source)
	log.InfoContext(ctx, "verifying trace", "events", len(parsed.Events), "rejected", len(parsed.Rejected))

	results, err := r.Evaluate(ctx, parsed.Events)
	if err != nil {
		return nil, err
	}
	if r.cfg.Strict {
		results = append([]models.CheckResult{wellFormed(parsed.Rejected)}, results...)
	}

	report := &models.Report{
		RunID:         runID,
		Source:        source,
		StartedAt:     start,
		Passed:        true,
		EventCount:    len(parsed.Events),
		RejectedLines: parsed.Rejected,
		Results:       results,
	}
	for _, res := range results {
		if !res.Passed {
			report.Passed = false
			log.InfoContext(ctx, "check failed", "check", res.Name, "diagnostics", len(res.Diagnostics))
		}
	}
	report.DurationMs = r.clock().Sub(start).Milliseconds()

	log.InfoContext(ctx, "verification finished", "passed", report.Passed, "duration_ms", report.DurationMs)
	return report, nil
}

// Evaluate runs every checker concurrently on events and returns the
// results in battery order. Checkers only read events, so the same slice
// can be evaluated any number of times with identical results.
func (r *Runner) Evaluate(ctx context.Context, events []models.Event) ([]models.CheckResult, error) {
	checkers := r.registry.Checkers()
	results := make([]models.CheckResult, len(checkers))

	g, ctx := errgroup.WithContext(ctx)
	for i, c := range checkers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = runChecker(c, events, r.cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("running checkers: %w", err)
	}
	return results, nil
}

// runChecker turns a checker panic into a failing result so the rest of
// the battery still reports.
func runChecker(c checker.Checker, events []models.Event, cfg config.Verification) (res models.CheckResult) {
	defer func() {
		if p := recover(); p != nil {
			res = models.NewCheckResult(c.Name())
			res.Fail(fmt.Sprintf("checker panicked: %v", p))
		}
	}()
	return c.Check(events, cfg)
}

func wellFormed(rejected []models.ParseError) models.CheckResult {
	res := models.NewCheckResult(NameWellFormed)
	for _, pe := range rejected {
		res.Fail(fmt.Sprintf("line %d: %q: %s", pe.Line, strings.TrimSpace(pe.Content), pe.Reason))
	}
	return res
}
