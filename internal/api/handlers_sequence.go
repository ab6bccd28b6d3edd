// handlers_sequence.go - Sequence-state vocabulary handlers
package api

import (
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/norioman/rfid-monitoring-demo/internal/models"
	"gopkg.in/yaml.v3"
)

// SequenceHandlerImpl serves the sequence display vocabulary, with optional
// operator-supplied YAML overrides for labels and colors.
type SequenceHandlerImpl struct {
	mu    sync.RWMutex
	rules *models.DisplayRules
}

// NewSequenceHandler creates a new sequence handler instance.
func NewSequenceHandler() SequenceHandler {
	return &SequenceHandlerImpl{}
}

// HandleListSequences returns display info for all five known codes, in
// nominal progression order, with any uploaded overrides applied.
func (h *SequenceHandlerImpl) HandleListSequences(c echo.Context) error {
	infos := make([]models.SequenceInfo, 0, len(models.SequenceCodes))
	for _, code := range models.SequenceCodes {
		infos = append(infos, h.describe(code))
	}
	return c.JSON(http.StatusOK, infos)
}

// HandleGetSequence returns display info for one code. Unknown codes get
// the deterministic fallback palette rather than a 404; the frontend
// renders whatever state code the scanner reported.
func (h *SequenceHandlerImpl) HandleGetSequence(c echo.Context) error {
	code := c.Param("code")
	if code == "" {
		return NewValidationError("code")
	}
	return c.JSON(http.StatusOK, h.describe(code))
}

// HandleGetDisplayRules returns the currently active override rules.
func (h *SequenceHandlerImpl) HandleGetDisplayRules(c echo.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.rules == nil {
		return c.JSON(http.StatusOK, models.DisplayRules{Sequences: []models.SequenceRule{}})
	}
	return c.JSON(http.StatusOK, h.rules)
}

// HandleUploadDisplayRules accepts a YAML display-rules file overriding
// sequence labels and colors. Rules for unknown codes are rejected.
func (h *SequenceHandlerImpl) HandleUploadDisplayRules(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no rules file provided", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	rules, err := parseDisplayRules(src)
	if err != nil {
		return NewBadRequestError("invalid display rules", err)
	}

	h.mu.Lock()
	h.rules = rules
	h.mu.Unlock()

	return c.JSON(http.StatusCreated, rules)
}

// describe merges any uploaded override onto the built-in vocabulary.
func (h *SequenceHandlerImpl) describe(code string) models.SequenceInfo {
	info := models.DescribeSequence(code)

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.rules == nil {
		return info
	}

	for _, rule := range h.rules.Sequences {
		if rule.Code != code {
			continue
		}
		if rule.Label != "" {
			info.Label = rule.Label
		}
		if rule.Color != "" {
			info.Color = rule.Color
		}
		if rule.BgColor != "" {
			info.BgColor = rule.BgColor
		}
	}
	return info
}

// parseDisplayRules parses and validates a YAML display-rules document.
func parseDisplayRules(r io.Reader) (*models.DisplayRules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rules models.DisplayRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(models.SequenceCodes))
	for _, code := range models.SequenceCodes {
		known[code] = true
	}
	for _, rule := range rules.Sequences {
		if !known[rule.Code] {
			return nil, fmt.Errorf("unknown sequence code %q", rule.Code)
		}
	}

	return &rules, nil
}
