package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ferry-trace/verifier/internal/checker"
	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/models"
	"github.com/ferry-trace/verifier/internal/verify"
)

// MaxSessions limits how many runs are kept in memory.
const MaxSessions = 50

// SessionMaxAge is how long to keep finished runs before cleanup.
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long to keep runs that are actively being polled.
const SessionKeepAliveWindow = 5 * time.Minute

// ReportSink receives finished reports. *history.DuckStore implements it.
type ReportSink interface {
	SaveReport(ctx context.Context, report *models.Report) error
}

// FileStatusSetter records the verification state of an uploaded file.
type FileStatusSetter interface {
	SetStatus(id, status, runID string) error
}

// Manager runs verifications in the background and tracks their state.
type Manager struct {
	sessions map[string]*RunState
	mu       sync.RWMutex
	wg       sync.WaitGroup
	registry *checker.Registry
	sink     ReportSink
	files    FileStatusSetter
	logger   *slog.Logger
	now      func() time.Time
}

// RunState holds a run and its bookkeeping.
type RunState struct {
	Session      *models.RunSession
	LastAccessed time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithReportSink persists every finished report.
func WithReportSink(s ReportSink) Option {
	return func(m *Manager) { m.sink = s }
}

// WithFileStore updates upload status as runs progress.
func WithFileStore(f FileStatusSetter) Option {
	return func(m *Manager) { m.files = f }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithRegistry overrides the default checker battery.
func WithRegistry(r *checker.Registry) Option {
	return func(m *Manager) { m.registry = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a run manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*RunState),
		registry: checker.NewRegistry(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartRun validates cfg and the checker selection, then verifies filePath
// in a background goroutine. The returned session is a snapshot.
func (m *Manager) StartRun(fileID, filePath string, cfg config.Verification, only []string) (*models.RunSession, error) {
	registry, err := m.registry.Select(only)
	if err != nil {
		return nil, err
	}
	// The session id doubles as the report id, so history and the file's
	// last run resolve to the same record.
	session := models.NewRunSession(uuid.New().String(), fileID)
	runner, err := verify.NewRunner(cfg,
		verify.WithRegistry(registry),
		verify.WithLogger(m.logger),
		verify.WithClock(m.now),
		verify.WithRunID(session.ID),
	)
	if err != nil {
		return nil, err
	}

	m.cleanupOldSessionsIfNeeded()

	session.Status = models.SessionStatusRunning
	session.StartTime = m.now().UnixMilli()

	m.mu.Lock()
	m.sessions[session.ID] = &RunState{Session: session, LastAccessed: m.now()}
	snapshot := *session
	m.mu.Unlock()

	m.setFileStatus(fileID, "verifying", session.ID)

	m.wg.Add(1)
	go m.runVerify(session.ID, fileID, filePath, runner)

	return &snapshot, nil
}

func (m *Manager) runVerify(sessionID, fileID, filePath string, runner *verify.Runner) {
	defer m.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("verification panicked", "session", sessionID, "panic", r)
			m.fail(sessionID, fileID, fmt.Sprintf("verification panicked: %v", r))
		}
	}()

	m.logger.Info("verification started", "session", sessionID, "path", filePath)

	report, err := runner.RunFile(context.Background(), filePath)
	if err != nil {
		m.logger.Error("verification failed", "session", sessionID, "error", err)
		m.fail(sessionID, fileID, err.Error())
		return
	}

	if m.sink != nil {
		if err := m.sink.SaveReport(context.Background(), report); err != nil {
			m.logger.Warn("failed to store report", "run_id", report.RunID, "error", err)
		}
	}

	m.mu.Lock()
	if state, ok := m.sessions[sessionID]; ok {
		state.Session.Status = models.SessionStatusComplete
		state.Session.EndTime = m.now().UnixMilli()
		state.Session.Report = report
	}
	m.mu.Unlock()

	m.setFileStatus(fileID, "verified", sessionID)
	m.logger.Info("verification complete", "session", sessionID, "run_id", report.RunID, "passed", report.Passed)
}

func (m *Manager) fail(sessionID, fileID, reason string) {
	m.mu.Lock()
	if state, ok := m.sessions[sessionID]; ok {
		state.Session.Status = models.SessionStatusError
		state.Session.Error = reason
		state.Session.EndTime = m.now().UnixMilli()
	}
	m.mu.Unlock()

	m.setFileStatus(fileID, "error", sessionID)
}

func (m *Manager) setFileStatus(fileID, status, runID string) {
	if m.files == nil || fileID == "" {
		return
	}
	if err := m.files.SetStatus(fileID, status, runID); err != nil {
		m.logger.Warn("failed to update file status", "file", fileID, "status", status, "error", err)
	}
}

func finished(s *models.RunSession) bool {
	return s.Status == models.SessionStatusComplete || s.Status == models.SessionStatusError
}

// cleanupOldSessionsIfNeeded drops the oldest finished runs when at capacity.
func (m *Manager) cleanupOldSessionsIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < MaxSessions {
		return
	}

	var done []*RunState
	for _, state := range m.sessions {
		if finished(state.Session) {
			done = append(done, state)
		}
	}
	sort.Slice(done, func(i, j int) bool {
		return done[i].Session.EndTime < done[j].Session.EndTime
	})

	toFree := len(m.sessions) - MaxSessions + 1
	for i := 0; i < toFree && i < len(done); i++ {
		delete(m.sessions, done[i].Session.ID)
		m.logger.Debug("evicted finished run", "session", done[i].Session.ID)
	}
}

// CleanupOldSessions removes finished runs not accessed within maxAge,
// keeping those touched within SessionKeepAliveWindow. It returns the
// number removed.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	removed := 0
	for id, state := range m.sessions {
		if !finished(state.Session) {
			continue
		}
		if state.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			removed++
			m.logger.Info("cleaned up aged run", "session", id,
				"idle", now.Sub(state.LastAccessed).Round(time.Second))
		}
	}
	return removed
}

// GetRun returns a snapshot of a run by ID.
func (m *Manager) GetRun(id string) (*models.RunSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	snapshot := *state.Session
	return &snapshot, true
}

// TouchSession marks a run as recently used so cleanup keeps it.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.LastAccessed = m.now()
	return true
}

// Count returns the number of tracked runs.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Wait blocks until all in-flight runs have finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}
