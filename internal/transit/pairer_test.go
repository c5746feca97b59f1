package transit

import (
	"testing"
	"time"

	"github.com/vesselwatch/transit-engine/internal/testutils"
	"github.com/vesselwatch/transit-engine/internal/types"
)

func event(kind types.EventKind, hours, seq int) types.CrossingEvent {
	return types.CrossingEvent{
		VesselID:  1,
		Kind:      kind,
		Timestamp: testutils.BaseTime.Add(time.Duration(hours) * time.Hour),
		SeqIndex:  seq,
	}
}

func TestPairVoyages(t *testing.T) {
	tests := []struct {
		name          string
		events        []types.CrossingEvent
		wantVoyages   int
		wantAnomalies int
	}{
		{
			name: "single complete pair",
			events: []types.CrossingEvent{
				event(types.EventEntry, 1, 1),
				event(types.EventExit, 3, 1),
			},
			wantVoyages: 1,
		},
		{
			name: "two complete pairs",
			events: []types.CrossingEvent{
				event(types.EventEntry, 1, 1),
				event(types.EventExit, 2, 1),
				event(types.EventEntry, 3, 2),
				event(types.EventExit, 5, 2),
			},
			wantVoyages: 2,
		},
		{
			name: "trailing entry dropped",
			events: []types.CrossingEvent{
				event(types.EventEntry, 1, 1),
				event(types.EventExit, 2, 1),
				event(types.EventEntry, 3, 2),
			},
			wantVoyages: 1,
		},
		{
			name: "leading exit dropped and flagged non-alternating",
			events: []types.CrossingEvent{
				event(types.EventExit, 1, 1),
				event(types.EventEntry, 2, 1),
			},
			wantVoyages:   0,
			wantAnomalies: 2, // non-alternating, plus negative-duration on pair 1
		},
		{
			name:        "no events",
			events:      nil,
			wantVoyages: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			voyages, anomalies := PairVoyages(1, tt.events)
			if len(voyages) != tt.wantVoyages {
				t.Errorf("PairVoyages() returned %d voyages, want %d: %+v", len(voyages), tt.wantVoyages, voyages)
			}
			if len(anomalies) != tt.wantAnomalies {
				t.Errorf("PairVoyages() returned %d anomalies, want %d: %+v", len(anomalies), tt.wantAnomalies, anomalies)
			}
			for _, v := range voyages {
				if v.Duration < 0 {
					t.Errorf("PairVoyages() produced negative duration voyage: %+v", v)
				}
				if v.Duration != v.ExitTime.Sub(v.EntryTime) {
					t.Errorf("PairVoyages() duration %v inconsistent with times %v..%v", v.Duration, v.EntryTime, v.ExitTime)
				}
			}
		})
	}
}

func TestPairVoyagesDurations(t *testing.T) {
	voyages, anomalies := PairVoyages(1, []types.CrossingEvent{
		event(types.EventEntry, 2, 1),
		event(types.EventExit, 4, 1),
	})
	if len(anomalies) != 0 {
		t.Fatalf("PairVoyages() unexpected anomalies: %+v", anomalies)
	}
	if len(voyages) != 1 {
		t.Fatalf("PairVoyages() returned %d voyages, want 1", len(voyages))
	}
	v := voyages[0]
	if v.EntryTime != testutils.BaseTime.Add(2*time.Hour) {
		t.Errorf("PairVoyages() EntryTime = %v", v.EntryTime)
	}
	if v.ExitTime != testutils.BaseTime.Add(4*time.Hour) {
		t.Errorf("PairVoyages() ExitTime = %v", v.ExitTime)
	}
	if v.Duration != 2*time.Hour {
		t.Errorf("PairVoyages() Duration = %v, want 2h", v.Duration)
	}
}

func TestPairVoyagesNegativeDurationDropped(t *testing.T) {
	// An exit with a lower timestamp than its index-matched entry marks an
	// out-of-sync event list from upstream gaps. The pair must be dropped
	// and surfaced, never silently accepted.
	voyages, anomalies := PairVoyages(1, []types.CrossingEvent{
		event(types.EventExit, 1, 1),
		event(types.EventEntry, 2, 1),
		event(types.EventExit, 5, 2),
	})
	if len(voyages) != 0 {
		t.Errorf("PairVoyages() kept negative-duration voyage: %+v", voyages)
	}
	var sawNegative bool
	for _, a := range anomalies {
		if a.Kind == AnomalyNegativeDuration {
			sawNegative = true
		}
	}
	if !sawNegative {
		t.Errorf("PairVoyages() missing negative-duration anomaly: %+v", anomalies)
	}
}

func TestPairVoyagesMinOfEntriesAndExits(t *testing.T) {
	events := []types.CrossingEvent{
		event(types.EventEntry, 1, 1),
		event(types.EventExit, 2, 1),
		event(types.EventEntry, 3, 2),
		event(types.EventExit, 4, 2),
		event(types.EventEntry, 5, 3),
	}
	voyages, _ := PairVoyages(1, events)
	if len(voyages) != 2 {
		t.Errorf("PairVoyages() returned %d voyages, want min(3 entries, 2 exits) = 2", len(voyages))
	}
}
