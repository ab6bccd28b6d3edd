// handlers_analysis.go - Analysis session operation handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/norioman/rfid-monitoring-demo/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// AnalysisHandlerImpl implements the AnalysisHandler interface.
type AnalysisHandlerImpl struct {
	sessionMgr SessionManager
}

// NewAnalysisHandler creates a new analysis handler instance.
func NewAnalysisHandler(sessionMgr SessionManager) AnalysisHandler {
	return &AnalysisHandlerImpl{sessionMgr: sessionMgr}
}

// HandleStartAnalysis starts an analysis session over uploaded files.
func (h *AnalysisHandlerImpl) HandleStartAnalysis(c echo.Context) error {
	var req startAnalysisRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if len(req.FileIDs) == 0 {
		return NewValidationError("fileIds")
	}

	sess, err := h.sessionMgr.StartAnalysis(req.FileIDs)
	if err != nil {
		return NewInternalError("failed to start analysis", err)
	}

	return c.JSON(http.StatusAccepted, sess)
}

// HandleAnalysisStatus returns the current status of an analysis session.
func (h *AnalysisHandlerImpl) HandleAnalysisStatus(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	sess, ok := h.sessionMgr.GetSession(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	h.sessionMgr.TouchSession(id)

	return c.JSON(http.StatusOK, sess)
}

// HandleSessionKeepAlive extends session lifetime for active viewing.
func (h *AnalysisHandlerImpl) HandleSessionKeepAlive(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	if ok := h.sessionMgr.TouchSession(id); !ok {
		return NewNotFoundError("session", id)
	}

	return c.NoContent(http.StatusNoContent)
}

// HandleGetEvents returns paginated snapshots, optionally filtered by
// sequence code.
func (h *AnalysisHandlerImpl) HandleGetEvents(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	page, pageSize := paginationParams(c)
	sequence := c.QueryParam("sequence")

	ctx := c.Request().Context()
	snapshots, total, ok := h.sessionMgr.GetSnapshots(ctx, id, sequence, page, pageSize)
	if !ok {
		return NewNotFoundError("session", id)
	}

	return c.JSON(http.StatusOK, eventsResponse{
		Events:   snapshots,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}

// HandleGetEventsMsgpack returns the session's full event list as a
// MessagePack blob for the chart renderer.
func (h *AnalysisHandlerImpl) HandleGetEventsMsgpack(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	snapshots, ok := h.sessionMgr.GetAllSnapshots(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	data, err := msgpack.Marshal(map[string]interface{}{
		"events": snapshots,
		"total":  len(snapshots),
	})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleGetTags returns the distinct tag IDs with observation counts.
func (h *AnalysisHandlerImpl) HandleGetTags(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	ctx := c.Request().Context()
	tags, ok := h.sessionMgr.GetTags(ctx, id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	return c.JSON(http.StatusOK, tags)
}

// HandleGetTagHistory returns one tag's detection history.
func (h *AnalysisHandlerImpl) HandleGetTagHistory(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}
	tagID := c.Param("tagId")
	if tagID == "" {
		return NewValidationError("tagId")
	}

	ctx := c.Request().Context()
	history, found, ok := h.sessionMgr.GetTagHistory(ctx, id, tagID)
	if !ok {
		return NewNotFoundError("session", id)
	}
	if !found {
		return NewNotFoundError("tag", tagID)
	}

	return c.JSON(http.StatusOK, history)
}

// HandleGetStats returns the per-sequence utilization statistics.
func (h *AnalysisHandlerImpl) HandleGetStats(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	perSequence, ok := h.sessionMgr.GetStats(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	return c.JSON(http.StatusOK, perSequence)
}

// HandleGetSummary returns working/waiting time and efficiency.
func (h *AnalysisHandlerImpl) HandleGetSummary(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	summary, ok := h.sessionMgr.GetSummary(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	return c.JSON(http.StatusOK, summary)
}

// HandleGetWarnings returns the per-file warnings from assembly.
func (h *AnalysisHandlerImpl) HandleGetWarnings(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	warnings, ok := h.sessionMgr.GetWarnings(id)
	if !ok {
		return NewNotFoundError("session", id)
	}
	if warnings == nil {
		warnings = []models.ParseWarning{}
	}

	return c.JSON(http.StatusOK, warnings)
}

// Request/Response types

type startAnalysisRequest struct {
	FileIDs []string `json:"fileIds"`
}

type eventsResponse struct {
	Events   []models.Snapshot `json:"events"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
	Total    int               `json:"total"`
}

func paginationParams(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("pageSize"))
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 100
	}
	return page, pageSize
}
