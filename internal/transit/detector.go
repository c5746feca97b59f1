package transit

import (
	"github.com/vesselwatch/transit-engine/internal/geometry"
	"github.com/vesselwatch/transit-engine/internal/types"
)

// DetectCrossings walks one vessel's time-ordered track and emits an entry
// event for every outside→inside transition of the target region and an
// exit event for the reverse, each stamped with the transition position's
// timestamp.
//
// The first sample's containment flag is forced to false regardless of
// geometry. A track that begins mid-transit therefore never synthesizes an
// entry for its opening fragment: if the vessel is later seen leaving, the
// exit fires and stays unpaired, and the fragment is excluded from output
// rather than fabricated.
func DetectCrossings(track Track, target *geometry.Region) ([]types.CrossingEvent, error) {
	if err := verifyOrder(track); err != nil {
		return nil, err
	}
	if len(track.Positions) < 2 {
		// No preceding sample to compare against.
		return nil, nil
	}

	var (
		events   []types.CrossingEvent
		entries  int
		exits    int
		prevFlag = false // first-sample override
	)
	for i := 1; i < len(track.Positions); i++ {
		p := track.Positions[i]
		flag := target.Contains(geometry.Point{Lon: p.Longitude, Lat: p.Latitude})

		switch {
		case flag && !prevFlag:
			entries++
			events = append(events, types.CrossingEvent{
				VesselID:  track.VesselID,
				Kind:      types.EventEntry,
				Timestamp: p.Timestamp,
				SeqIndex:  entries,
			})
		case !flag && prevFlag:
			exits++
			events = append(events, types.CrossingEvent{
				VesselID:  track.VesselID,
				Kind:      types.EventExit,
				Timestamp: p.Timestamp,
				SeqIndex:  exits,
			})
		}
		prevFlag = flag
	}
	return events, nil
}
