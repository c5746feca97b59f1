package transit

import (
	"fmt"

	"github.com/vesselwatch/transit-engine/internal/types"
)

// AnomalyKind classifies per-vessel pairing irregularities.
type AnomalyKind string

const (
	// AnomalyNegativeDuration marks a sequence-index pair whose exit
	// precedes its entry. The pair is dropped from the voyage list.
	AnomalyNegativeDuration AnomalyKind = "negative_duration"

	// AnomalyNonAlternating marks an event stream that does not strictly
	// alternate entry, exit, entry, exit. Pairing still proceeds; the
	// voyages produced from such a stream may be semantically wrong.
	AnomalyNonAlternating AnomalyKind = "non_alternating"
)

// Anomaly is a per-vessel data-integrity warning surfaced alongside the
// voyage list instead of aborting the batch.
type Anomaly struct {
	VesselID int64
	Kind     AnomalyKind
	Detail   string
}

// PairVoyages joins one vessel's entry events to its exit events on equal
// sequence index: the Nth entry pairs with the Nth exit. Entries with no
// matching exit and exits with no matching entry represent truncated or
// in-progress transits and are dropped.
func PairVoyages(vesselID int64, events []types.CrossingEvent) ([]types.Voyage, []Anomaly) {
	var (
		entries []types.CrossingEvent
		exits   []types.CrossingEvent
	)
	for _, ev := range events {
		switch ev.Kind {
		case types.EventEntry:
			entries = append(entries, ev)
		case types.EventExit:
			exits = append(exits, ev)
		}
	}

	var anomalies []Anomaly
	if !alternates(events) {
		anomalies = append(anomalies, Anomaly{
			VesselID: vesselID,
			Kind:     AnomalyNonAlternating,
			Detail:   fmt.Sprintf("%d entries and %d exits out of sequence", len(entries), len(exits)),
		})
	}

	n := len(entries)
	if len(exits) < n {
		n = len(exits)
	}

	voyages := make([]types.Voyage, 0, n)
	for i := 0; i < n; i++ {
		entry, exit := entries[i], exits[i]
		duration := exit.Timestamp.Sub(entry.Timestamp)
		if duration < 0 {
			anomalies = append(anomalies, Anomaly{
				VesselID: vesselID,
				Kind:     AnomalyNegativeDuration,
				Detail:   fmt.Sprintf("pair %d: exit %s precedes entry %s", entry.SeqIndex, exit.Timestamp.Format("2006-01-02T15:04:05Z07:00"), entry.Timestamp.Format("2006-01-02T15:04:05Z07:00")),
			})
			continue
		}
		voyages = append(voyages, types.Voyage{
			VesselID:  vesselID,
			EntryTime: entry.Timestamp,
			ExitTime:  exit.Timestamp,
			Duration:  duration,
		})
	}
	return voyages, anomalies
}

// alternates reports whether the event stream strictly alternates starting
// with an entry, the shape a gap-free track always produces.
func alternates(events []types.CrossingEvent) bool {
	want := types.EventEntry
	for _, ev := range events {
		if ev.Kind != want {
			return false
		}
		if want == types.EventEntry {
			want = types.EventExit
		} else {
			want = types.EventEntry
		}
	}
	return true
}
