package models

// TagObservation records one detection of a tag within one snapshot.
type TagObservation struct {
	TagID       string   `json:"tagId"`
	DisplayTime string   `json:"timestamp"`
	ScanTime    ScanTime `json:"scanTime"`
	Sequence    string   `json:"sequence"`
	SourceFile  string   `json:"filename"`
}

// TagHistories maps a tag ID to its observations in snapshot processing
// order. Every observation corresponds to exactly one Snapshot that
// contained the tag.
type TagHistories map[string][]TagObservation
