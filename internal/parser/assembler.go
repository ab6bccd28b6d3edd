package parser

import (
	"errors"
	"fmt"
	"sort"

	"github.com/norioman/rfid-monitoring-demo/internal/models"
)

// SnapshotFile is one raw input file supplied by the caller.
type SnapshotFile struct {
	Name    string
	Content string
}

// Batch is the assembled result of one analysis run: the ordered snapshot
// list, the per-tag observation index, and accumulated per-file warnings.
type Batch struct {
	Snapshots    []models.Snapshot
	TagHistories models.TagHistories
	Warnings     []models.ParseWarning
}

// Assemble parses a collection of snapshot files into an ordered batch.
//
// Files are sorted lexicographically by name before parsing; this is the
// sole ordering guarantee. The scanner names files with a sortable
// timestamp prefix, so filename order is assumed chronological. Parsed
// timestamps never re-sort the batch; inversions are reported (see below)
// but not corrected.
//
// Per-file parse errors become warnings and never abort the batch. Empty
// files are skipped silently.
func Assemble(files []SnapshotFile) *Batch {
	sorted := make([]SnapshotFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	batch := &Batch{
		Snapshots:    make([]models.Snapshot, 0, len(sorted)),
		TagHistories: make(models.TagHistories),
		Warnings:     make([]models.ParseWarning, 0),
	}

	for _, file := range sorted {
		snap, err := ParseSnapshot(file.Name, file.Content)
		if err != nil {
			if errors.Is(err, ErrEmptySnapshot) {
				continue
			}
			batch.Warnings = append(batch.Warnings, models.ParseWarning{
				File:   file.Name,
				Reason: err.Error(),
			})
			continue
		}

		batch.Snapshots = append(batch.Snapshots, *snap)

		for _, tagID := range snap.TagIDs {
			batch.TagHistories[tagID] = append(batch.TagHistories[tagID], models.TagObservation{
				TagID:       tagID,
				DisplayTime: snap.DisplayTime,
				ScanTime:    snap.ScanTime,
				Sequence:    snap.Sequence,
				SourceFile:  snap.Filename,
			})
		}
	}

	batch.Warnings = append(batch.Warnings, checkChronology(batch.Snapshots)...)

	return batch
}

// checkChronology reports adjacent snapshot pairs whose parsed timestamps
// run backwards. Filename order is the ordering contract, so inversions
// mean the derived dwell times are suspect; they are reported, never fixed.
func checkChronology(snapshots []models.Snapshot) []models.ParseWarning {
	var warnings []models.ParseWarning
	for i := 0; i+1 < len(snapshots); i++ {
		cur, next := snapshots[i].ScanTime, snapshots[i+1].ScanTime
		if !cur.Valid || !next.Valid {
			continue
		}
		if next.Time.Before(cur.Time) {
			warnings = append(warnings, models.ParseWarning{
				File: snapshots[i+1].Filename,
				Reason: fmt.Sprintf("timestamp %s precedes %s from %s: filename order is not chronological",
					snapshots[i+1].DisplayTime, snapshots[i].DisplayTime, snapshots[i].Filename),
			})
		}
	}
	return warnings
}
