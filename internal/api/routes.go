// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/norioman/rfid-monitoring-demo/internal/storage"
)

// Dependencies holds all handler dependencies.
type Dependencies struct {
	Store             storage.Store
	SessionMgr        SessionManager
	Version           string
	AllowFileDeletion bool
}

// Handlers holds all handler instances.
type Handlers struct {
	Health   HealthHandler
	Upload   UploadHandler
	Analysis AnalysisHandler
	Sequence SequenceHandler
}

// NewHandlers creates all handler instances.
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Version),
		Upload:   NewUploadHandler(deps.Store),
		Analysis: NewAnalysisHandler(deps.SessionMgr),
		Sequence: NewSequenceHandler(),
	}
}

// RegisterRoutes registers all API routes with the Echo instance.
func RegisterRoutes(e *echo.Echo, handlers *Handlers, deps *Dependencies) {
	e.HTTPErrorHandler = ErrorHandler

	apiGroup := e.Group("/api")
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Snapshot file management
	fileGroup := apiGroup.Group("/files")
	fileGroup.POST("/upload", handlers.Upload.HandleUploadFile)
	fileGroup.POST("/upload/binary", handlers.Upload.HandleUploadBinary)
	fileGroup.GET("/recent", handlers.Upload.HandleGetRecentFiles)
	fileGroup.GET("/:id", handlers.Upload.HandleGetFile)
	fileGroup.PUT("/:id", handlers.Upload.HandleRenameFile)
	if deps.AllowFileDeletion {
		fileGroup.DELETE("/:id", handlers.Upload.HandleDeleteFile)
	}

	// Analysis sessions
	analysisGroup := apiGroup.Group("/analysis")
	analysisGroup.POST("", handlers.Analysis.HandleStartAnalysis)
	analysisGroup.GET("/:sessionId/status", handlers.Analysis.HandleAnalysisStatus)
	analysisGroup.POST("/:sessionId/keepalive", handlers.Analysis.HandleSessionKeepAlive)
	analysisGroup.GET("/:sessionId/events", handlers.Analysis.HandleGetEvents)
	analysisGroup.GET("/:sessionId/events/msgpack", handlers.Analysis.HandleGetEventsMsgpack)
	analysisGroup.GET("/:sessionId/tags", handlers.Analysis.HandleGetTags)
	analysisGroup.GET("/:sessionId/tags/:tagId", handlers.Analysis.HandleGetTagHistory)
	analysisGroup.GET("/:sessionId/stats", handlers.Analysis.HandleGetStats)
	analysisGroup.GET("/:sessionId/summary", handlers.Analysis.HandleGetSummary)
	analysisGroup.GET("/:sessionId/warnings", handlers.Analysis.HandleGetWarnings)

	// Sequence-state vocabulary
	sequenceGroup := apiGroup.Group("/sequences")
	sequenceGroup.GET("", handlers.Sequence.HandleListSequences)
	sequenceGroup.GET("/rules", handlers.Sequence.HandleGetDisplayRules)
	sequenceGroup.POST("/rules", handlers.Sequence.HandleUploadDisplayRules)
	sequenceGroup.GET("/:code", handlers.Sequence.HandleGetSequence)
}
