// Package session manages analysis sessions over uploaded snapshot files.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/norioman/rfid-monitoring-demo/internal/models"
	"github.com/norioman/rfid-monitoring-demo/internal/parser"
	"github.com/norioman/rfid-monitoring-demo/internal/stats"
)

// MaxSessions limits concurrent sessions to prevent memory exhaustion.
const MaxSessions = 20

// SessionKeepAliveWindow is how long to keep sessions that are actively
// being viewed.
const SessionKeepAliveWindow = 5 * time.Minute

// ErrNoData is surfaced when an analysis produced zero usable snapshots.
var ErrNoData = errors.New("no valid snapshot data in the supplied files")

// FileSource resolves uploaded file IDs to their names and raw content.
// Implemented by storage.LocalStore.
type FileSource interface {
	FileName(id string) (string, error)
	ReadContent(id string) ([]byte, error)
}

// Result holds everything derived from one completed analysis.
type Result struct {
	Snapshots    []models.Snapshot
	TagHistories models.TagHistories
	Stats        map[string]models.SequenceStats
	Summary      models.StatsSummary
}

// sessionState pairs the public session metadata with the derived results
// and the optional DuckDB-backed event store.
type sessionState struct {
	Session      *models.AnalysisSession
	Result       *Result
	Store        *EventStore // nil when the store could not be created; memory fallback applies
	LastAccessed time.Time
}

// Manager runs analyses and holds their results for the session lifetime.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
	files    FileSource
	tempDir  string
}

// NewManager creates a session manager reading snapshot content from files
// and keeping per-session DuckDB stores under tempDir.
func NewManager(files FileSource, tempDir string) *Manager {
	os.MkdirAll(tempDir, 0755)
	return &Manager{
		sessions: make(map[string]*sessionState),
		files:    files,
		tempDir:  tempDir,
	}
}

// StartAnalysis begins an asynchronous analysis of the given uploaded files.
func (m *Manager) StartAnalysis(fileIDs []string) (*models.AnalysisSession, error) {
	if len(fileIDs) == 0 {
		return nil, fmt.Errorf("no file IDs supplied")
	}

	m.evictIfAtCapacity()

	sessionID := uuid.New().String()
	session := models.NewAnalysisSession(sessionID, fileIDs)
	session.Status = models.SessionStatusProcessing

	state := &sessionState{
		Session:      session,
		LastAccessed: time.Now(),
	}

	m.mu.Lock()
	m.sessions[sessionID] = state
	m.mu.Unlock()

	go m.runAnalysis(sessionID, fileIDs)

	return session, nil
}

func (m *Manager) runAnalysis(sessionID string, fileIDs []string) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Analysis %s] PANIC recovered: %v\n", shortID(sessionID), r)
			m.failSession(sessionID, fmt.Sprintf("analysis panicked: %v", r))
		}
	}()

	start := time.Now()
	fmt.Printf("[Analysis %s] Starting analysis of %d files\n", shortID(sessionID), len(fileIDs))

	files := make([]parser.SnapshotFile, 0, len(fileIDs))
	for i, id := range fileIDs {
		name, err := m.files.FileName(id)
		if err != nil {
			m.failSession(sessionID, fmt.Sprintf("file %s not found", id))
			return
		}
		content, err := m.files.ReadContent(id)
		if err != nil {
			m.failSession(sessionID, fmt.Sprintf("reading file %s: %v", name, err))
			return
		}
		files = append(files, parser.SnapshotFile{Name: name, Content: string(content)})

		m.setProgress(sessionID, float64(i+1)/float64(len(fileIDs))*40)
	}

	batch := parser.Assemble(files)
	if len(batch.Snapshots) == 0 {
		m.mu.Lock()
		if state, ok := m.sessions[sessionID]; ok {
			state.Session.Warnings = batch.Warnings
		}
		m.mu.Unlock()
		m.failSession(sessionID, ErrNoData.Error())
		return
	}
	m.setProgress(sessionID, 60)

	perSequence := stats.Compute(batch.Snapshots)
	summary := stats.Summarize(perSequence)
	m.setProgress(sessionID, 80)

	store := m.loadEventStore(sessionID, batch.Snapshots)

	elapsed := time.Since(start).Milliseconds()
	fmt.Printf("[Analysis %s] Complete: %d snapshots, %d tags, %d warnings in %dms\n",
		shortID(sessionID), len(batch.Snapshots), len(batch.TagHistories), len(batch.Warnings), elapsed)

	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[sessionID]
	if !ok {
		if store != nil {
			store.Close()
		}
		return
	}

	state.Result = &Result{
		Snapshots:    batch.Snapshots,
		TagHistories: batch.TagHistories,
		Stats:        perSequence,
		Summary:      summary,
	}
	state.Store = store
	state.Session.Status = models.SessionStatusComplete
	state.Session.Progress = 100
	state.Session.SnapshotCount = len(batch.Snapshots)
	state.Session.TagCount = len(batch.TagHistories)
	state.Session.ProcessingTimeMs = elapsed
	state.Session.Warnings = batch.Warnings

	if first, last := firstLastValid(batch.Snapshots); first != nil && last != nil {
		state.Session.StartTime = first.Time.UnixMilli()
		state.Session.EndTime = last.Time.UnixMilli()
	}
}

// loadEventStore builds the session's DuckDB store. A failure here only
// disables SQL-backed paging; in-memory results still serve every endpoint.
func (m *Manager) loadEventStore(sessionID string, snapshots []models.Snapshot) *EventStore {
	store, err := NewEventStore(m.tempDir, sessionID)
	if err != nil {
		fmt.Printf("[Analysis %s] Warning: event store unavailable: %v\n", shortID(sessionID), err)
		return nil
	}
	if err := store.Load(snapshots); err != nil {
		fmt.Printf("[Analysis %s] Warning: event store load failed: %v\n", shortID(sessionID), err)
		store.Close()
		return nil
	}
	return store
}

func (m *Manager) setProgress(sessionID string, progress float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.sessions[sessionID]; ok {
		state.Session.Progress = progress
	}
}

func (m *Manager) failSession(sessionID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.sessions[sessionID]; ok {
		state.Session.Status = models.SessionStatusError
		state.Session.Error = reason
	}
}

// GetSession returns a session's public metadata.
func (m *Manager) GetSession(id string) (*models.AnalysisSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return state.Session, true
}

// TouchSession marks a session as actively viewed so cleanup spares it.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.LastAccessed = time.Now()
	return true
}

// GetSnapshots returns one page of a session's snapshots, optionally
// filtered by sequence code. Served from the DuckDB store when available,
// from the in-memory result otherwise.
func (m *Manager) GetSnapshots(ctx context.Context, id, sequence string, page, pageSize int) ([]models.Snapshot, int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok || state.Result == nil {
		return nil, 0, false
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	if state.Store != nil {
		snapshots, total, err := state.Store.QuerySnapshots(ctx, sequence, offset, pageSize)
		if err == nil {
			if snapshots == nil {
				snapshots = []models.Snapshot{}
			}
			return snapshots, total, true
		}
		fmt.Printf("[Manager] Event store query failed for session %s, using memory: %v\n", shortID(id), err)
	}

	filtered := state.Result.Snapshots
	if sequence != "" {
		filtered = make([]models.Snapshot, 0)
		for _, snap := range state.Result.Snapshots {
			if snap.Sequence == sequence {
				filtered = append(filtered, snap)
			}
		}
	}

	total := len(filtered)
	if offset >= total {
		return []models.Snapshot{}, total, true
	}
	end := offset + pageSize
	if end > total {
		end = total
	}
	return filtered[offset:end], total, true
}

// GetAllSnapshots returns the session's full ordered snapshot list.
func (m *Manager) GetAllSnapshots(id string) ([]models.Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[id]
	if !ok || state.Result == nil {
		return nil, false
	}
	return state.Result.Snapshots, true
}

// GetTags returns the session's distinct tag IDs with observation counts.
func (m *Manager) GetTags(ctx context.Context, id string) (map[string]int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok || state.Result == nil {
		return nil, false
	}

	if state.Store != nil {
		tags, err := state.Store.ListTags(ctx)
		if err == nil {
			return tags, true
		}
		fmt.Printf("[Manager] Tag listing failed for session %s, using memory: %v\n", shortID(id), err)
	}

	tags := make(map[string]int, len(state.Result.TagHistories))
	for tagID, history := range state.Result.TagHistories {
		tags[tagID] = len(history)
	}
	return tags, true
}

// GetTagHistory returns one tag's observations in snapshot order.
// The second return distinguishes "unknown session" from "unknown tag".
func (m *Manager) GetTagHistory(ctx context.Context, id, tagID string) ([]models.TagObservation, bool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok || state.Result == nil {
		return nil, false, false
	}

	if state.Store != nil {
		history, err := state.Store.TagHistory(ctx, tagID)
		if err == nil {
			return history, len(history) > 0, true
		}
		fmt.Printf("[Manager] Tag history query failed for session %s, using memory: %v\n", shortID(id), err)
	}

	history, found := state.Result.TagHistories[tagID]
	return history, found, true
}

// GetStats returns the per-sequence statistics.
func (m *Manager) GetStats(id string) (map[string]models.SequenceStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[id]
	if !ok || state.Result == nil {
		return nil, false
	}
	return state.Result.Stats, true
}

// GetSummary returns the derived working/waiting/efficiency figures.
func (m *Manager) GetSummary(id string) (models.StatsSummary, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[id]
	if !ok || state.Result == nil {
		return models.StatsSummary{}, false
	}
	return state.Result.Summary, true
}

// GetWarnings returns the per-file warnings accumulated during assembly.
func (m *Manager) GetWarnings(id string) ([]models.ParseWarning, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return state.Session.Warnings, true
}

// CleanupOldSessions removes finished sessions older than maxAge, sparing
// any touched within SessionKeepAliveWindow.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-SessionKeepAliveWindow)

	for id, state := range m.sessions {
		if state.Session.Status != models.SessionStatusComplete &&
			state.Session.Status != models.SessionStatusError {
			continue
		}
		if state.LastAccessed.After(keepAliveCutoff) {
			continue
		}
		if state.LastAccessed.Before(cutoff) {
			if state.Store != nil {
				state.Store.Close()
			}
			delete(m.sessions, id)
			fmt.Printf("[Manager] Cleaned up aged session %s\n", shortID(id))
		}
	}
}

// evictIfAtCapacity drops the oldest finished sessions when at the limit.
func (m *Manager) evictIfAtCapacity() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < MaxSessions {
		return
	}

	type aged struct {
		id   string
		last time.Time
	}
	var finished []aged
	for id, state := range m.sessions {
		if state.Session.Status == models.SessionStatusComplete ||
			state.Session.Status == models.SessionStatusError {
			finished = append(finished, aged{id, state.LastAccessed})
		}
	}
	sort.Slice(finished, func(i, j int) bool { return finished[i].last.Before(finished[j].last) })

	toFree := len(m.sessions) - MaxSessions + 1
	for i := 0; i < toFree && i < len(finished); i++ {
		if state, ok := m.sessions[finished[i].id]; ok {
			if state.Store != nil {
				state.Store.Close()
			}
			delete(m.sessions, finished[i].id)
			fmt.Printf("[Manager] Evicted session %s to stay under capacity\n", shortID(finished[i].id))
		}
	}
}

// firstLastValid returns the first and last snapshots with parsed times.
func firstLastValid(snapshots []models.Snapshot) (*models.ScanTime, *models.ScanTime) {
	var first, last *models.ScanTime
	for i := range snapshots {
		st := snapshots[i].ScanTime
		if !st.Valid {
			continue
		}
		if first == nil {
			first = &st
		}
		cur := st
		last = &cur
	}
	return first, last
}

// shortID safely truncates an ID for logging.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
