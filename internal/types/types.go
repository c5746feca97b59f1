package types

import (
	"time"
)

// Position is a single AIS position report for one vessel.
type Position struct {
	VesselID    int64     `json:"vessel_id"`
	Timestamp   time.Time `json:"timestamp"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Destination string    `json:"destination,omitempty"`
}

// PositionMessage wraps a raw position record for transport
type PositionMessage struct {
	Raw       string    `json:"raw"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// EventKind distinguishes boundary-crossing directions.
type EventKind string

const (
	EventEntry EventKind = "entry"
	EventExit  EventKind = "exit"
)

// CrossingEvent is a detected target-region boundary crossing for one
// vessel. SeqIndex is the 1-based rank of the event among events of the
// same kind for that vessel, in timestamp order.
type CrossingEvent struct {
	VesselID  int64     `json:"vessel_id"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	SeqIndex  int       `json:"seq_index"`
}

// Voyage is one completed transit of the target region: a paired entry
// and exit with the time spent inside. Terminal output, never mutated.
type Voyage struct {
	VesselID  int64         `json:"vessel_id"`
	EntryTime time.Time     `json:"entry_time"`
	ExitTime  time.Time     `json:"exit_time"`
	Duration  time.Duration `json:"duration"`
}

// Summary reports batch-level counts alongside the voyage list.
type Summary struct {
	TotalVoyages          int `json:"total_voyages"`
	VesselsWithVoyages    int `json:"vessels_with_voyages"`
	FilteredPositions     int `json:"filtered_positions"`
	FilteredVessels       int `json:"filtered_vessels"`
	NegativeDurationDrops int `json:"negative_duration_drops"`
	AlternationWarnings   int `json:"alternation_warnings"`
}

// Result is the engine's output for one detection batch.
type Result struct {
	Voyages []Voyage `json:"voyages"`
	Summary Summary  `json:"summary"`
}

// DetectionRun records one invocation of the engine against a position batch.
type DetectionRun struct {
	RunID        string    `json:"run_id"`
	CoverageName string    `json:"coverage_name"`
	TargetName   string    `json:"target_name"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Summary      Summary   `json:"summary"`
}
