// Package stats derives per-sequence utilization statistics from an
// ordered snapshot list.
package stats

import (
	"github.com/norioman/rfid-monitoring-demo/internal/models"
)

// Compute tallies occurrence counts, dwell times and derived percentages
// per sequence state over the fixed code set. Returns an empty map for
// empty input.
//
// Dwell time for a snapshot is the gap to the immediately following
// snapshot; the last snapshot never contributes (no successor to measure
// against). Pairs with an invalid timestamp on either side, and pairs
// whose gap is negative, contribute zero minutes.
func Compute(snapshots []models.Snapshot) map[string]models.SequenceStats {
	if len(snapshots) == 0 {
		return map[string]models.SequenceStats{}
	}

	counts := make(map[string]int, len(models.SequenceCodes))
	durations := make(map[string]float64, len(models.SequenceCodes))

	for i, snap := range snapshots {
		counts[snap.Sequence]++
		if i+1 < len(snapshots) {
			durations[snap.Sequence] += snap.ScanTime.MinutesUntil(snapshots[i+1].ScanTime)
		}
	}

	var totalMinutes float64
	for _, code := range models.SequenceCodes {
		totalMinutes += durations[code]
	}

	total := len(snapshots)
	result := make(map[string]models.SequenceStats, len(models.SequenceCodes))
	for _, code := range models.SequenceCodes {
		s := models.SequenceStats{
			Code:         code,
			Count:        counts[code],
			TotalMinutes: durations[code],
		}
		s.EventPct = float64(s.Count) / float64(total) * 100
		if s.Count > 0 {
			s.AvgMinutes = s.TotalMinutes / float64(s.Count)
		}
		if totalMinutes > 0 {
			s.TimePct = s.TotalMinutes / totalMinutes * 100
		}
		result[code] = s
	}

	return result
}

// Summarize derives the dashboard's headline figures from per-sequence
// stats: machining and complete count as working time, idle and
// initializing as waiting time.
func Summarize(perSequence map[string]models.SequenceStats) models.StatsSummary {
	var summary models.StatsSummary
	for _, code := range models.SequenceCodes {
		summary.TotalMinutes += perSequence[code].TotalMinutes
	}
	summary.WorkingMinutes = perSequence["03"].TotalMinutes + perSequence["04"].TotalMinutes
	summary.WaitingMinutes = perSequence["00"].TotalMinutes + perSequence["01"].TotalMinutes
	if summary.TotalMinutes > 0 {
		summary.EfficiencyPct = summary.WorkingMinutes / summary.TotalMinutes * 100
	}
	return summary
}
