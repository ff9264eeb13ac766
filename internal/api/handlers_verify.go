// handlers_verify.go - Synchronous trace verification handlers
package api

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ferry-trace/verifier/internal/checker"
	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/models"
	"github.com/ferry-trace/verifier/internal/verify"
)

// MIMEApplicationMsgpack is the content type of msgpack reports
const MIMEApplicationMsgpack = "application/msgpack"

// MIMEApplicationXLSX is the content type of spreadsheet reports
const MIMEApplicationXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// VerifyHandlerImpl implements the VerifyHandler interface
type VerifyHandlerImpl struct {
	defaults config.Verification
	registry *checker.Registry
	sink     ReportSink
	logger   *slog.Logger
}

// NewVerifyHandler creates a new verify handler. sink may be nil.
func NewVerifyHandler(defaults config.Verification, registry *checker.Registry, sink ReportSink, logger *slog.Logger) VerifyHandler {
	if registry == nil {
		registry = checker.NewRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VerifyHandlerImpl{
		defaults: defaults,
		registry: registry,
		sink:     sink,
		logger:   logger,
	}
}

// HandleVerify verifies the trace in the request body, or in the multipart
// field "file", and responds with the report. A failing verdict is still a
// 200 response; the verdict is in the report.
func (h *VerifyHandlerImpl) HandleVerify(c echo.Context) error {
	cfg, only, err := bindQueryVerification(c, h.defaults)
	if err != nil {
		return err
	}
	registry, err := h.registry.Select(only)
	if err != nil {
		return NewBadRequestError("unknown checker", err)
	}
	runner, err := verify.NewRunner(cfg, verify.WithRegistry(registry), verify.WithLogger(h.logger))
	if err != nil {
		return verificationError(err)
	}

	source, body, err := traceBody(c)
	if err != nil {
		return err
	}
	defer body.Close()

	ctx := c.Request().Context()
	report, err := runner.Run(ctx, source, body)
	if err != nil {
		return NewBadRequestError("failed to read trace", err)
	}

	if h.sink != nil {
		if err := h.sink.SaveReport(ctx, report); err != nil {
			h.logger.Warn("failed to store report", "run_id", report.RunID, "error", err)
		}
	}

	return writeReport(c, report)
}

// HandleListCheckers lists the checker names in execution order
func (h *VerifyHandlerImpl) HandleListCheckers(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"checkers": h.registry.Names(),
		"defaults": h.defaults,
	})
}

// traceBody returns the uploaded trace and a name for it.
func traceBody(c echo.Context) (string, io.ReadCloser, error) {
	req := c.Request()
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		file, err := c.FormFile("file")
		if err != nil {
			return "", nil, NewBadRequestError("no file provided", err)
		}
		src, err := file.Open()
		if err != nil {
			return "", nil, NewInternalError("failed to open uploaded file", err)
		}
		return file.Filename, src, nil
	}

	if req.Body == nil || req.ContentLength == 0 {
		return "", nil, NewValidationError("body")
	}
	source := c.QueryParam("source")
	if source == "" {
		source = "request"
	}
	return source, req.Body, nil
}

// writeReport encodes the report as JSON, msgpack, xlsx or text. The format comes
// from the "format" query parameter, falling back to the Accept header.
func writeReport(c echo.Context, report *models.Report) error {
	format := verify.FormatJSON
	if q := c.QueryParam("format"); q != "" {
		f, err := verify.ParseFormat(q)
		if err != nil {
			return NewValidationError("format")
		}
		format = f
	} else if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), MIMEApplicationMsgpack) {
		format = verify.FormatMsgpack
	}

	switch format {
	case verify.FormatMsgpack:
		var buf bytes.Buffer
		if err := verify.Encode(&buf, report, format); err != nil {
			return NewInternalError("failed to encode report", err)
		}
		return c.Blob(http.StatusOK, MIMEApplicationMsgpack, buf.Bytes())
	case verify.FormatXLSX:
		var buf bytes.Buffer
		if err := verify.Encode(&buf, report, format); err != nil {
			return NewInternalError("failed to encode report", err)
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", report.RunID+".xlsx"))
		return c.Blob(http.StatusOK, MIMEApplicationXLSX, buf.Bytes())
	case verify.FormatText:
		return c.String(http.StatusOK, verify.RenderText(report))
	default:
		return c.JSON(http.StatusOK, report)
	}
}
