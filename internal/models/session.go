package models

// SessionStatus represents the status of an analysis session.
type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusProcessing SessionStatus = "processing"
	SessionStatusComplete   SessionStatus = "complete"
	SessionStatusError      SessionStatus = "error"
)

// AnalysisSession tracks one batch analysis of uploaded snapshot files.
type AnalysisSession struct {
	ID               string         `json:"id"`
	FileIDs          []string       `json:"fileIds"`
	Status           SessionStatus  `json:"status"`
	Progress         float64        `json:"progress"` // 0-100
	SnapshotCount    int            `json:"snapshotCount,omitempty"`
	TagCount         int            `json:"tagCount,omitempty"`
	ProcessingTimeMs int64          `json:"processingTimeMs,omitempty"`
	StartTime        int64          `json:"startTime,omitempty"` // Unix ms of the first snapshot
	EndTime          int64          `json:"endTime,omitempty"`   // Unix ms of the last snapshot
	Warnings         []ParseWarning `json:"warnings,omitempty"`
	Error            string         `json:"error,omitempty"`
}

// ParseWarning reports a non-fatal problem with one input file.
type ParseWarning struct {
	File   string `json:"file,omitempty"`
	Reason string `json:"reason"`
}

// NewAnalysisSession creates a session in pending status.
func NewAnalysisSession(id string, fileIDs []string) *AnalysisSession {
	return &AnalysisSession{
		ID:       id,
		FileIDs:  fileIDs,
		Status:   SessionStatusPending,
		Progress: 0,
		Warnings: make([]ParseWarning, 0),
	}
}
