package models

// SequenceStats aggregates the snapshots observed in one sequence state.
// Durations are dwell times: the gap from each snapshot in this state to
// the next snapshot overall, in minutes.
type SequenceStats struct {
	Code         string  `json:"code"`
	Count        int     `json:"count"`
	EventPct     float64 `json:"percentageOfEvents"`
	TotalMinutes float64 `json:"totalDurationMinutes"`
	AvgMinutes   float64 `json:"avgDurationMinutes"`
	TimePct      float64 `json:"percentageOfTime"`
}

// StatsSummary is derived from the per-sequence stats for the dashboard's
// headline figures. Working covers machining (03) and complete (04),
// waiting covers idle (00) and initializing (01).
type StatsSummary struct {
	WorkingMinutes float64 `json:"workingMinutes"`
	WaitingMinutes float64 `json:"waitingMinutes"`
	TotalMinutes   float64 `json:"totalMinutes"`
	EfficiencyPct  float64 `json:"efficiencyPct"`
}
