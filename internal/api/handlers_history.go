// handlers_history.go - Stored report handlers
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ferry-trace/verifier/internal/history"
)

// defaultHistoryLimit is the page size of the report listing
const defaultHistoryLimit = 50

// HistoryHandlerImpl implements the HistoryHandler interface
type HistoryHandlerImpl struct {
	reports ReportStore
}

// NewHistoryHandler creates a history handler. A nil store answers every
// request with 503.
func NewHistoryHandler(reports ReportStore) HistoryHandler {
	return &HistoryHandlerImpl{reports: reports}
}

// HandleListReports lists stored reports, newest first
func (h *HistoryHandlerImpl) HandleListReports(c echo.Context) error {
	if h.reports == nil {
		return NewServiceUnavailableError("report history is disabled")
	}

	limit := defaultHistoryLimit
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return NewValidationError("limit")
	}

	summaries, err := h.reports.ListReports(c.Request().Context(), limit)
	if err != nil {
		return NewInternalError("failed to list reports", err)
	}
	return c.JSON(http.StatusOK, summaries)
}

// HandleGetReport returns one stored report
func (h *HistoryHandlerImpl) HandleGetReport(c echo.Context) error {
	if h.reports == nil {
		return NewServiceUnavailableError("report history is disabled")
	}

	runID := c.Param("runId")
	if runID == "" {
		return NewValidationError("runId")
	}

	report, err := h.reports.GetReport(c.Request().Context(), runID)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return NewNotFoundError("report", runID)
		}
		return NewInternalError("failed to load report", err)
	}
	return writeReport(c, report)
}

// HandleFailureStats returns how many stored runs failed each check
func (h *HistoryHandlerImpl) HandleFailureStats(c echo.Context) error {
	if h.reports == nil {
		return NewServiceUnavailableError("report history is disabled")
	}

	counts, err := h.reports.FailureCounts(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to count failures", err)
	}
	return c.JSON(http.StatusOK, counts)
}
