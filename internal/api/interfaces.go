// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/history"
	"github.com/ferry-trace/verifier/internal/models"
)

// VerifyHandler verifies a trace posted in the request
type VerifyHandler interface {
	HandleVerify(c echo.Context) error
	HandleListCheckers(c echo.Context) error
}

// UploadHandler handles trace log upload operations
type UploadHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleUploadBinary(c echo.Context) error
	HandleGetRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
}

// RunHandler handles asynchronous verification runs of uploaded logs
type RunHandler interface {
	HandleStartRun(c echo.Context) error
	HandleRunStatus(c echo.Context) error
	HandleRunReport(c echo.Context) error
	HandleRunKeepAlive(c echo.Context) error
}

// RunWatchHandler streams run status over a WebSocket
type RunWatchHandler interface {
	HandleRunWatch(c echo.Context) error
}

// HistoryHandler serves stored reports
type HistoryHandler interface {
	HandleListReports(c echo.Context) error
	HandleGetReport(c echo.Context) error
	HandleFailureStats(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// RunManager defines the interface for run management
// This allows mocking in tests
type RunManager interface {
	StartRun(fileID, filePath string, cfg config.Verification, only []string) (*models.RunSession, error)
	GetRun(id string) (*models.RunSession, bool)
	TouchSession(id string) bool
}

// ReportStore is the read side of the report history
type ReportStore interface {
	GetReport(ctx context.Context, runID string) (*models.Report, error)
	ListReports(ctx context.Context, limit int) ([]history.Summary, error)
	FailureCounts(ctx context.Context) (map[string]int, error)
}

// ReportSink receives reports produced by synchronous verification
type ReportSink interface {
	SaveReport(ctx context.Context, report *models.Report) error
}
