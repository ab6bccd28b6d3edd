// Package parser turns raw RFID scan log snapshots into structured events.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/norioman/rfid-monitoring-demo/internal/models"
)

// ErrEmptySnapshot is returned for files whose content is blank after
// trimming. Callers skip these silently; they are not reported as warnings.
var ErrEmptySnapshot = errors.New("snapshot contains no data")

// MalformedHeaderError reports a first line with fewer than the four
// comma-separated fields the scanner always writes.
type MalformedHeaderError struct {
	Filename string
	Fields   int
}

func (e *MalformedHeaderError) Error() string {
	return fmt.Sprintf("%s: malformed header: %d fields, need at least 4", e.Filename, e.Fields)
}

// ParseSnapshot parses one scan log file's text content.
//
// The first line is the pseudo-header: field[0] is the 14-digit timestamp,
// field[3] the 2-digit sequence state. Every remaining line's field[4],
// when present and non-empty, contributes a tag ID in row order.
// An unparseable timestamp does not fail the record; the snapshot keeps the
// raw string for display and an invalid ScanTime.
func ParseSnapshot(filename, content string) (*models.Snapshot, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrEmptySnapshot
	}

	lines := strings.Split(trimmed, "\n")
	header := strings.Split(lines[0], ",")
	if len(header) < 4 {
		return nil, &MalformedHeaderError{Filename: filename, Fields: len(header)}
	}

	rawTimestamp := header[0]
	sequence := strings.TrimRight(header[3], "\r")

	scanTime, display := ParseScanTime(rawTimestamp)

	tagIDs := make([]string, 0)
	for _, row := range lines[1:] {
		if strings.TrimSpace(row) == "" {
			continue
		}
		columns := strings.Split(row, ",")
		if len(columns) <= 4 {
			continue
		}
		tagID := strings.ReplaceAll(columns[4], "\r", "")
		if tagID == "" {
			continue
		}
		tagIDs = append(tagIDs, tagID)
	}

	return &models.Snapshot{
		Filename:     filename,
		RawTimestamp: rawTimestamp,
		DisplayTime:  display,
		ScanTime:     scanTime,
		Sequence:     sequence,
		TagCount:     len(tagIDs),
		TagIDs:       tagIDs,
	}, nil
}
