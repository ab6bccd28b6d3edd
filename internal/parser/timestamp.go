package parser

import (
	"time"

	"github.com/norioman/rfid-monitoring-demo/internal/models"
)

// DisplayTimeLayout is the human-readable format the dashboard shows.
const DisplayTimeLayout = "2006/01/02 15:04:05"

// ParseScanTime parses the scanner's fixed 14-digit "YYYYMMDDhhmmss"
// timestamp using manual digit parsing. On failure it returns an invalid
// ScanTime and the raw string as the display fallback.
func ParseScanTime(raw string) (models.ScanTime, string) {
	if len(raw) != 14 {
		return models.ScanTime{}, raw
	}

	year := parseInt4(raw[0:4])
	month := parseInt2(raw[4:6])
	day := parseInt2(raw[6:8])
	hour := parseInt2(raw[8:10])
	min := parseInt2(raw[10:12])
	sec := parseInt2(raw[12:14])

	if year < 0 || month < 1 || month > 12 || day < 1 || day > 31 ||
		hour < 0 || hour > 23 || min < 0 || min > 59 || sec < 0 || sec > 59 {
		return models.ScanTime{}, raw
	}

	t := time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
	return models.ScanTime{Time: t, Valid: true}, t.Format(DisplayTimeLayout)
}

// parseInt2 parses a 2-digit decimal string. Returns -1 on error.
func parseInt2(s string) int {
	d1, d2 := s[0]-'0', s[1]-'0'
	if d1 > 9 || d2 > 9 {
		return -1
	}
	return int(d1)*10 + int(d2)
}

// parseInt4 parses a 4-digit decimal string. Returns -1 on error.
func parseInt4(s string) int {
	d1, d2, d3, d4 := s[0]-'0', s[1]-'0', s[2]-'0', s[3]-'0'
	if d1 > 9 || d2 > 9 || d3 > 9 || d4 > 9 {
		return -1
	}
	return int(d1)*1000 + int(d2)*100 + int(d3)*10 + int(d4)
}
