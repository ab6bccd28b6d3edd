package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/norioman/rfid-monitoring-demo/internal/models"
	"github.com/vmihailenco/msgpack/v5"
)

// mockSessionManager implements SessionManager with canned data for one
// known session ID.
type mockSessionManager struct {
	sessionID string
	session   *models.AnalysisSession
	snapshots []models.Snapshot
	tags      map[string]int
	histories models.TagHistories
	stats     map[string]models.SequenceStats
	summary   models.StatsSummary
	warnings  []models.ParseWarning
	touched   []string
}

func newMockSessionManager() *mockSessionManager {
	base := time.Date(2025, 2, 18, 8, 0, 0, 0, time.UTC)
	session := models.NewAnalysisSession("session-1", []string{"f1"})
	session.Status = models.SessionStatusComplete
	session.Progress = 100

	snapshots := []models.Snapshot{
		{
			Filename:    "20250218080000.csv",
			DisplayTime: "2025/02/18 08:00:00",
			ScanTime:    models.ScanTime{Time: base, Valid: true},
			Sequence:    "02",
			TagCount:    1,
			TagIDs:      []string{"TAG-1"},
		},
		{
			Filename:    "20250218080010.csv",
			DisplayTime: "2025/02/18 08:00:10",
			ScanTime:    models.ScanTime{Time: base.Add(10 * time.Second), Valid: true},
			Sequence:    "03",
			TagCount:    1,
			TagIDs:      []string{"TAG-1"},
		},
	}

	return &mockSessionManager{
		sessionID: "session-1",
		session:   session,
		snapshots: snapshots,
		tags:      map[string]int{"TAG-1": 2},
		histories: models.TagHistories{
			"TAG-1": {
				{TagID: "TAG-1", Sequence: "02", SourceFile: "20250218080000.csv"},
				{TagID: "TAG-1", Sequence: "03", SourceFile: "20250218080010.csv"},
			},
		},
		stats:   map[string]models.SequenceStats{"02": {Code: "02", Count: 1}},
		summary: models.StatsSummary{TotalMinutes: 10, WorkingMinutes: 8, EfficiencyPct: 80},
	}
}

func (m *mockSessionManager) StartAnalysis(fileIDs []string) (*models.AnalysisSession, error) {
	return m.session, nil
}

func (m *mockSessionManager) GetSession(id string) (*models.AnalysisSession, bool) {
	if id != m.sessionID {
		return nil, false
	}
	return m.session, true
}

func (m *mockSessionManager) TouchSession(id string) bool {
	if id != m.sessionID {
		return false
	}
	m.touched = append(m.touched, id)
	return true
}

func (m *mockSessionManager) GetSnapshots(ctx context.Context, id, sequence string, page, pageSize int) ([]models.Snapshot, int, bool) {
	if id != m.sessionID {
		return nil, 0, false
	}
	filtered := m.snapshots
	if sequence != "" {
		filtered = nil
		for _, s := range m.snapshots {
			if s.Sequence == sequence {
				filtered = append(filtered, s)
			}
		}
	}
	return filtered, len(filtered), true
}

func (m *mockSessionManager) GetAllSnapshots(id string) ([]models.Snapshot, bool) {
	if id != m.sessionID {
		return nil, false
	}
	return m.snapshots, true
}

func (m *mockSessionManager) GetTags(ctx context.Context, id string) (map[string]int, bool) {
	if id != m.sessionID {
		return nil, false
	}
	return m.tags, true
}

func (m *mockSessionManager) GetTagHistory(ctx context.Context, id, tagID string) ([]models.TagObservation, bool, bool) {
	if id != m.sessionID {
		return nil, false, false
	}
	history, found := m.histories[tagID]
	return history, found, true
}

func (m *mockSessionManager) GetStats(id string) (map[string]models.SequenceStats, bool) {
	if id != m.sessionID {
		return nil, false
	}
	return m.stats, true
}

func (m *mockSessionManager) GetSummary(id string) (models.StatsSummary, bool) {
	if id != m.sessionID {
		return models.StatsSummary{}, false
	}
	return m.summary, true
}

func (m *mockSessionManager) GetWarnings(id string) ([]models.ParseWarning, bool) {
	if id != m.sessionID {
		return nil, false
	}
	return m.warnings, true
}

func newAnalysisTestContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandleStartAnalysis(t *testing.T) {
	handler := NewAnalysisHandler(newMockSessionManager())

	c, rec := newAnalysisTestContext(http.MethodPost, "/api/analysis", `{"fileIds":["f1"]}`)
	if err := handler.HandleStartAnalysis(c); err != nil {
		t.Fatalf("HandleStartAnalysis failed: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Errorf("Expected 202, got %d", rec.Code)
	}

	var session models.AnalysisSession
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if session.ID != "session-1" {
		t.Errorf("Expected session-1, got %s", session.ID)
	}
}

func TestHandleStartAnalysisValidation(t *testing.T) {
	handler := NewAnalysisHandler(newMockSessionManager())

	for _, body := range []string{`{}`, `{"fileIds":[]}`} {
		c, _ := newAnalysisTestContext(http.MethodPost, "/api/analysis", body)
		err := handler.HandleStartAnalysis(c)
		if status := apiErrorStatus(t, err); status != http.StatusBadRequest {
			t.Errorf("Expected 400 for %s, got %d", body, status)
		}
	}
}

func TestHandleAnalysisStatus(t *testing.T) {
	mgr := newMockSessionManager()
	handler := NewAnalysisHandler(mgr)

	c, rec := newAnalysisTestContext(http.MethodGet, "/", "")
	c.SetParamNames("sessionId")
	c.SetParamValues("session-1")

	if err := handler.HandleAnalysisStatus(c); err != nil {
		t.Fatalf("HandleAnalysisStatus failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if len(mgr.touched) != 1 {
		t.Error("Expected status check to touch the session")
	}

	c, _ = newAnalysisTestContext(http.MethodGet, "/", "")
	c.SetParamNames("sessionId")
	c.SetParamValues("ghost")
	err := handler.HandleAnalysisStatus(c)
	if status := apiErrorStatus(t, err); status != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", status)
	}
}

func TestHandleSessionKeepAlive(t *testing.T) {
	mgr := newMockSessionManager()
	handler := NewAnalysisHandler(mgr)

	c, rec := newAnalysisTestContext(http.MethodPost, "/", "")
	c.SetParamNames("sessionId")
	c.SetParamValues("session-1")

	if err := handler.HandleSessionKeepAlive(c); err != nil {
		t.Fatalf("HandleSessionKeepAlive failed: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
}

func TestHandleGetEvents(t *testing.T) {
	handler := NewAnalysisHandler(newMockSessionManager())

	c, rec := newAnalysisTestContext(http.MethodGet, "/?page=1&pageSize=50", "")
	c.SetParamNames("sessionId")
	c.SetParamValues("session-1")

	if err := handler.HandleGetEvents(c); err != nil {
		t.Fatalf("HandleGetEvents failed: %v", err)
	}

	var resp struct {
		Events   []models.Snapshot `json:"events"`
		Page     int               `json:"page"`
		PageSize int               `json:"pageSize"`
		Total    int               `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if resp.Total != 2 || len(resp.Events) != 2 {
		t.Errorf("Expected 2 events, got %d of %d", len(resp.Events), resp.Total)
	}
	if resp.Page != 1 || resp.PageSize != 50 {
		t.Errorf("Expected page 1 size 50, got %d/%d", resp.Page, resp.PageSize)
	}
	if resp.Events[0].Sequence != "02" {
		t.Errorf("Expected first event in 02, got %s", resp.Events[0].Sequence)
	}
}

func TestHandleGetEventsSequenceFilter(t *testing.T) {
	handler := NewAnalysisHandler(newMockSessionManager())

	c, rec := newAnalysisTestContext(http.MethodGet, "/?sequence=03", "")
	c.SetParamNames("sessionId")
	c.SetParamValues("session-1")

	if err := handler.HandleGetEvents(c); err != nil {
		t.Fatalf("HandleGetEvents failed: %v", err)
	}

	var resp struct {
		Events []models.Snapshot `json:"events"`
		Total  int               `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Events[0].Sequence != "03" {
		t.Errorf("Expected one 03 event, got %+v", resp)
	}
}

func TestHandleGetEventsPaginationDefaults(t *testing.T) {
	handler := NewAnalysisHandler(newMockSessionManager())

	c, rec := newAnalysisTestContext(http.MethodGet, "/?page=-3&pageSize=9999", "")
	c.SetParamNames("sessionId")
	c.SetParamValues("session-1")

	if err := handler.HandleGetEvents(c); err != nil {
		t.Fatalf("HandleGetEvents failed: %v", err)
	}

	var resp struct {
		Page     int `json:"page"`
		PageSize int `json:"pageSize"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Page != 1 || resp.PageSize != 100 {
		t.Errorf("Expected defaults 1/100, got %d/%d", resp.Page, resp.PageSize)
	}
}

func TestHandleGetEventsMsgpack(t *testing.T) {
	handler := NewAnalysisHandler(newMockSessionManager())

	c, rec := newAnalysisTestContext(http.MethodGet, "/", "")
	c.SetParamNames("sessionId")
	c.SetParamValues("session-1")

	if err := handler.HandleGetEventsMsgpack(c); err != nil {
		t.Fatalf("HandleGetEventsMsgpack failed: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != "application/msgpack" {
		t.Errorf("Expected application/msgpack, got %s", ct)
	}

	var payload map[string]interface{}
	if err := msgpack.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("Invalid msgpack payload: %v", err)
	}
	if total, ok := payload["total"].(int8); ok && total != 2 {
		t.Errorf("Expected total 2, got %d", total)
	}
	if _, ok := payload["events"]; !ok {
		t.Error("Expected events key in payload")
	}
}

func TestHandleGetTags(t *testing.T) {
	handler := NewAnalysisHandler(newMockSessionManager())

	c, rec := newAnalysisTestContext(http.MethodGet, "/", "")
	c.SetParamNames("sessionId")
	c.SetParamValues("session-1")

	if err := handler.HandleGetTags(c); err != nil {
		t.Fatalf("HandleGetTags failed: %v", err)
	}

	var tags map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &tags); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if tags["TAG-1"] != 2 {
		t.Errorf("Expected TAG-1 count 2, got %d", tags["TAG-1"])
	}
}

func TestHandleGetTagHistory(t *testing.T) {
	handler := NewAnalysisHandler(newMockSessionManager())

	c, rec := newAnalysisTestContext(http.MethodGet, "/", "")
	c.SetParamNames("sessionId", "tagId")
	c.SetParamValues("session-1", "TAG-1")

	if err := handler.HandleGetTagHistory(c); err != nil {
		t.Fatalf("HandleGetTagHistory failed: %v", err)
	}

	var history []models.TagObservation
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("Expected 2 observations, got %d", len(history))
	}

	c, _ = newAnalysisTestContext(http.MethodGet, "/", "")
	c.SetParamNames("sessionId", "tagId")
	c.SetParamValues("session-1", "NOPE")
	err := handler.HandleGetTagHistory(c)
	if status := apiErrorStatus(t, err); status != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown tag, got %d", status)
	}
}

func TestHandleGetStatsAndSummary(t *testing.T) {
	handler := NewAnalysisHandler(newMockSessionManager())

	c, rec := newAnalysisTestContext(http.MethodGet, "/", "")
	c.SetParamNames("sessionId")
	c.SetParamValues("session-1")
	if err := handler.HandleGetStats(c); err != nil {
		t.Fatalf("HandleGetStats failed: %v", err)
	}

	var perSequence map[string]models.SequenceStats
	if err := json.Unmarshal(rec.Body.Bytes(), &perSequence); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if perSequence["02"].Count != 1 {
		t.Errorf("Expected 02 count 1, got %d", perSequence["02"].Count)
	}

	c, rec = newAnalysisTestContext(http.MethodGet, "/", "")
	c.SetParamNames("sessionId")
	c.SetParamValues("session-1")
	if err := handler.HandleGetSummary(c); err != nil {
		t.Fatalf("HandleGetSummary failed: %v", err)
	}

	var summary models.StatsSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if summary.EfficiencyPct != 80 {
		t.Errorf("Expected efficiency 80, got %f", summary.EfficiencyPct)
	}
}

func TestHandleGetWarningsEmpty(t *testing.T) {
	handler := NewAnalysisHandler(newMockSessionManager())

	c, rec := newAnalysisTestContext(http.MethodGet, "/", "")
	c.SetParamNames("sessionId")
	c.SetParamValues("session-1")

	if err := handler.HandleGetWarnings(c); err != nil {
		t.Fatalf("HandleGetWarnings failed: %v", err)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("Expected empty array, got %s", body)
	}
}

func TestAnalysisHandlersUnknownSession(t *testing.T) {
	handler := NewAnalysisHandler(newMockSessionManager())

	endpoints := map[string]func(echo.Context) error{
		"events":  handler.HandleGetEvents,
		"msgpack": handler.HandleGetEventsMsgpack,
		"tags":    handler.HandleGetTags,
		"stats":   handler.HandleGetStats,
		"summary": handler.HandleGetSummary,
	}

	for name, fn := range endpoints {
		t.Run(name, func(t *testing.T) {
			c, _ := newAnalysisTestContext(http.MethodGet, "/", "")
			c.SetParamNames("sessionId")
			c.SetParamValues("ghost")
			err := fn(c)
			if status := apiErrorStatus(t, err); status != http.StatusNotFound {
				t.Errorf("Expected 404, got %d", status)
			}
		})
	}
}
