// handlers_runs.go - Asynchronous verification run handlers
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/models"
	"github.com/ferry-trace/verifier/internal/storage"
)

// RunHandlerImpl implements the RunHandler interface
type RunHandlerImpl struct {
	store    storage.Store
	runs     RunManager
	defaults config.Verification
}

// NewRunHandler creates a new run handler
func NewRunHandler(store storage.Store, runs RunManager, defaults config.Verification) RunHandler {
	return &RunHandlerImpl{
		store:    store,
		runs:     runs,
		defaults: defaults,
	}
}

// HandleStartRun starts verifying an uploaded file in the background.
// Body: {"fileId": "...", "trucks": 4, "cars": 4, "only": ["capacity"], ...}
func (h *RunHandlerImpl) HandleStartRun(c echo.Context) error {
	var req startRunRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	filePath, err := h.store.GetFilePath(req.FileID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return NewNotFoundError("file", req.FileID)
		}
		return NewInternalError("failed to resolve file", err)
	}

	cfg := req.apply(h.defaults)
	run, err := h.runs.StartRun(req.FileID, filePath, cfg, req.Only)
	if err != nil {
		return verificationError(err)
	}

	return c.JSON(http.StatusAccepted, run)
}

// HandleRunStatus returns a run, including its report once complete
func (h *RunHandlerImpl) HandleRunStatus(c echo.Context) error {
	run, err := h.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, run)
}

// HandleRunReport returns only the report of a finished run, in the
// negotiated format.
func (h *RunHandlerImpl) HandleRunReport(c echo.Context) error {
	run, err := h.lookup(c)
	if err != nil {
		return err
	}

	switch run.Status {
	case models.SessionStatusComplete:
		return writeReport(c, run.Report)
	case models.SessionStatusError:
		return NewConflictError(fmt.Sprintf("run %s failed: %s", run.ID, run.Error))
	default:
		return NewConflictError(fmt.Sprintf("run %s is %s", run.ID, run.Status))
	}
}

// HandleRunKeepAlive keeps a run from being cleaned up
func (h *RunHandlerImpl) HandleRunKeepAlive(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}
	if !h.runs.TouchSession(id) {
		return NewNotFoundError("run", id)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *RunHandlerImpl) lookup(c echo.Context) (*models.RunSession, error) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}
	run, ok := h.runs.GetRun(id)
	if !ok {
		return nil, NewNotFoundError("run", id)
	}
	h.runs.TouchSession(id)
	return run, nil
}

type startRunRequest struct {
	FileID string `json:"fileId"`
	verificationParams
}

func (r *startRunRequest) validate() error {
	if r.FileID == "" {
		return NewValidationError("fileId")
	}
	return nil
}
