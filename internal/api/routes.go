// routes.go - Route registration helpers
package api

import (
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ferry-trace/verifier/internal/checker"
	"github.com/ferry-trace/verifier/internal/config"
	"github.com/ferry-trace/verifier/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store    storage.Store
	Runs     RunManager
	Reports  ReportStore // nil when history is disabled
	Sink     ReportSink  // nil when history is disabled
	Registry *checker.Registry
	Defaults config.Verification
	Logger   *slog.Logger
	Version  string
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Verify   VerifyHandler
	Upload   UploadHandler
	Runs     RunHandler
	RunWatch RunWatchHandler
	History  HistoryHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Version, deps.Reports != nil),
		Verify:   NewVerifyHandler(deps.Defaults, deps.Registry, deps.Sink, deps.Logger),
		Upload:   NewUploadHandler(deps.Store),
		Runs:     NewRunHandler(deps.Store, deps.Runs, deps.Defaults),
		RunWatch: NewWebSocketHandler(deps.Runs, DefaultWatchInterval, deps.Logger),
		History:  NewHistoryHandler(deps.Reports),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Synchronous verification
	apiGroup.POST("/verify", handlers.Verify.HandleVerify)
	apiGroup.GET("/checkers", handlers.Verify.HandleListCheckers)

	// File upload routes
	fileGroup := apiGroup.Group("/files")
	fileGroup.POST("/upload", handlers.Upload.HandleUploadFile)
	fileGroup.POST("/upload/binary", handlers.Upload.HandleUploadBinary)
	fileGroup.GET("/recent", handlers.Upload.HandleGetRecentFiles)
	fileGroup.GET("/:id", handlers.Upload.HandleGetFile)
	fileGroup.DELETE("/:id", handlers.Upload.HandleDeleteFile)

	// Run routes
	runGroup := apiGroup.Group("/runs")
	runGroup.POST("", handlers.Runs.HandleStartRun)
	runGroup.GET("/:id", handlers.Runs.HandleRunStatus)
	runGroup.GET("/:id/report", handlers.Runs.HandleRunReport)
	runGroup.POST("/:id/keepalive", handlers.Runs.HandleRunKeepAlive)
	runGroup.GET("/:id/ws", handlers.RunWatch.HandleRunWatch)

	// Report history
	historyGroup := apiGroup.Group("/history")
	historyGroup.GET("", handlers.History.HandleListReports)
	historyGroup.GET("/stats", handlers.History.HandleFailureStats)
	historyGroup.GET("/:runId", handlers.History.HandleGetReport)
}

// MiddlewareOptions tunes SetupMiddleware
type MiddlewareOptions struct {
	RequestLogging bool
	BodyLimit      string
	Timeout        time.Duration
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !opts.RequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || strings.HasSuffix(path, "/keepalive")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if opts.Timeout > 0 {
		e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
			Timeout: opts.Timeout,
			Skipper: func(c echo.Context) bool {
				return strings.HasSuffix(c.Request().URL.Path, "/ws")
			},
			ErrorMessage: "Request timeout - verification took too long",
		}))
	}

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}
}
