// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/norioman/rfid-monitoring-demo/internal/models"
)

// UploadHandler handles snapshot file upload operations.
type UploadHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleUploadBinary(c echo.Context) error
	HandleGetRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
	HandleRenameFile(c echo.Context) error
}

// AnalysisHandler handles analysis session operations.
type AnalysisHandler interface {
	HandleStartAnalysis(c echo.Context) error
	HandleAnalysisStatus(c echo.Context) error
	HandleSessionKeepAlive(c echo.Context) error
	HandleGetEvents(c echo.Context) error
	HandleGetEventsMsgpack(c echo.Context) error
	HandleGetTags(c echo.Context) error
	HandleGetTagHistory(c echo.Context) error
	HandleGetStats(c echo.Context) error
	HandleGetSummary(c echo.Context) error
	HandleGetWarnings(c echo.Context) error
}

// SequenceHandler serves the sequence-state display vocabulary.
type SequenceHandler interface {
	HandleListSequences(c echo.Context) error
	HandleGetSequence(c echo.Context) error
	HandleGetDisplayRules(c echo.Context) error
	HandleUploadDisplayRules(c echo.Context) error
}

// HealthHandler handles health check operations.
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionManager defines the session interface consumed by handlers.
// This allows mocking in tests.
type SessionManager interface {
	StartAnalysis(fileIDs []string) (*models.AnalysisSession, error)
	GetSession(id string) (*models.AnalysisSession, bool)
	TouchSession(id string) bool
	GetSnapshots(ctx context.Context, id, sequence string, page, pageSize int) ([]models.Snapshot, int, bool)
	GetAllSnapshots(id string) ([]models.Snapshot, bool)
	GetTags(ctx context.Context, id string) (map[string]int, bool)
	GetTagHistory(ctx context.Context, id, tagID string) ([]models.TagObservation, bool, bool)
	GetStats(id string) (map[string]models.SequenceStats, bool)
	GetSummary(id string) (models.StatsSummary, bool)
	GetWarnings(id string) ([]models.ParseWarning, bool)
}
