// Package models contains domain types for the RFID machining-station monitor.
package models

import "time"

// ScanTime is the parsed timestamp of a snapshot. Valid is false when the
// raw 14-digit timestamp could not be parsed; consumers that compute time
// deltas must check it instead of relying on a zero time.Time.
type ScanTime struct {
	Time  time.Time `json:"time"`
	Valid bool      `json:"valid"`
}

// MinutesUntil returns the gap to the next scan in minutes.
// Invalid endpoints and negative gaps both yield zero.
func (s ScanTime) MinutesUntil(next ScanTime) float64 {
	if !s.Valid || !next.Valid {
		return 0
	}
	minutes := next.Time.Sub(s.Time).Minutes()
	if minutes < 0 {
		return 0
	}
	return minutes
}

// Snapshot represents one parsed scan log file: the machining station's
// sequence state and the RFID tags detected at one instant.
type Snapshot struct {
	Filename     string   `json:"filename"`
	RawTimestamp string   `json:"rawTimestamp"`
	DisplayTime  string   `json:"timestamp"` // "2006/01/02 15:04:05", or the raw string when unparseable
	ScanTime     ScanTime `json:"scanTime"`
	Sequence     string   `json:"sequence"` // "00".."04", or preserved verbatim when unknown
	TagCount     int      `json:"tagCount"`
	TagIDs       []string `json:"tagIds"` // in source row order, duplicates preserved
}
