package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/norioman/rfid-monitoring-demo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSequenceTestContext(method string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func uploadRulesYAML(t *testing.T, handler SequenceHandler, doc string) (*httptest.ResponseRecorder, error) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "rules.yaml")
	require.NoError(t, err)
	part.Write([]byte(doc))
	writer.Close()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/sequences/rules", &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	return rec, handler.HandleUploadDisplayRules(c)
}

func TestHandleListSequences(t *testing.T) {
	handler := NewSequenceHandler()

	c, rec := newSequenceTestContext(http.MethodGet)
	require.NoError(t, handler.HandleListSequences(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var infos []models.SequenceInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 5)

	assert.Equal(t, "00", infos[0].Code)
	assert.Equal(t, "Idle", infos[0].Label)
	assert.Equal(t, "04", infos[4].Code)
	assert.Equal(t, "Complete", infos[4].Label)
	assert.Equal(t, "#16A34A", infos[4].Color)
}

func TestHandleGetSequence(t *testing.T) {
	handler := NewSequenceHandler()

	c, rec := newSequenceTestContext(http.MethodGet)
	c.SetParamNames("code")
	c.SetParamValues("03")
	require.NoError(t, handler.HandleGetSequence(c))

	var info models.SequenceInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Machining", info.Label)
	assert.Equal(t, "#EA580C", info.Color)
	assert.Equal(t, "#FED7AA", info.BgColor)
}

func TestHandleGetSequenceUnknownCode(t *testing.T) {
	handler := NewSequenceHandler()

	// Unknown codes render with the fallback palette, not a 404.
	c, rec := newSequenceTestContext(http.MethodGet)
	c.SetParamNames("code")
	c.SetParamValues("99")
	require.NoError(t, handler.HandleGetSequence(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var info models.SequenceInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "99", info.Code)
	assert.Equal(t, "Unknown", info.Label)
	assert.Equal(t, "#DC2626", info.Color)
}

func TestHandleUploadDisplayRules(t *testing.T) {
	handler := NewSequenceHandler()

	doc := "sequences:\n" +
		"  - code: \"03\"\n" +
		"    label: Cutting\n" +
		"    color: \"#FF0000\"\n"
	rec, err := uploadRulesYAML(t, handler, doc)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// The override shows up in subsequent lookups, with unset fields
	// keeping their defaults.
	c, rec := newSequenceTestContext(http.MethodGet)
	c.SetParamNames("code")
	c.SetParamValues("03")
	require.NoError(t, handler.HandleGetSequence(c))

	var info models.SequenceInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Cutting", info.Label)
	assert.Equal(t, "#FF0000", info.Color)
	assert.Equal(t, "#FED7AA", info.BgColor)

	// Other codes are untouched.
	c, rec = newSequenceTestContext(http.MethodGet)
	c.SetParamNames("code")
	c.SetParamValues("04")
	require.NoError(t, handler.HandleGetSequence(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Complete", info.Label)
}

func TestHandleUploadDisplayRulesRejectsUnknownCode(t *testing.T) {
	handler := NewSequenceHandler()

	doc := "sequences:\n  - code: \"42\"\n    label: Bogus\n"
	_, err := uploadRulesYAML(t, handler, doc)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestHandleUploadDisplayRulesRejectsBadYAML(t *testing.T) {
	handler := NewSequenceHandler()

	_, err := uploadRulesYAML(t, handler, "sequences: [unclosed")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestHandleGetDisplayRules(t *testing.T) {
	handler := NewSequenceHandler()

	c, rec := newSequenceTestContext(http.MethodGet)
	require.NoError(t, handler.HandleGetDisplayRules(c))

	var rules models.DisplayRules
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	assert.Empty(t, rules.Sequences)

	doc := "sequences:\n  - code: \"00\"\n    label: Waiting\n"
	_, err := uploadRulesYAML(t, handler, doc)
	require.NoError(t, err)

	c, rec = newSequenceTestContext(http.MethodGet)
	require.NoError(t, handler.HandleGetDisplayRules(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rules))
	require.Len(t, rules.Sequences, 1)
	assert.Equal(t, "Waiting", rules.Sequences[0].Label)
}

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler("1.2.3")

	c, rec := newSequenceTestContext(http.MethodGet)
	require.NoError(t, handler.HandleHealth(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
}
