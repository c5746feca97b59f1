package transit

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vesselwatch/transit-engine/internal/geometry"
	"github.com/vesselwatch/transit-engine/internal/types"
)

var (
	// ErrEmptyBatch signals that no positions remained after the coverage
	// filter. Callers may treat it as a warning and proceed with an empty
	// result.
	ErrEmptyBatch = errors.New("no positions inside coverage region")

	// ErrUnsortedTrack signals a vessel track that is not time-ordered.
	// Downstream code trusts ordering, so this is always a defect in the
	// preparation step, never a data anomaly.
	ErrUnsortedTrack = errors.New("vessel track not time-ordered")
)

// Track is one vessel's time-ordered position history within a batch.
type Track struct {
	VesselID  int64
	Positions []types.Position
}

// SortedBatch is a position batch filtered to the coverage region and
// stably sorted by (vessel, timestamp). The ordering invariant is enforced
// once here and trusted by the detector and pairer.
type SortedBatch struct {
	positions []types.Position
}

// NewSortedBatch filters positions to the coverage region and sorts the
// remainder by vessel then timestamp. The sort is stable: ingestion order
// breaks timestamp ties. Returns ErrEmptyBatch when nothing survives the
// filter.
func NewSortedBatch(positions []types.Position, coverage *geometry.Region) (*SortedBatch, error) {
	if coverage == nil {
		return nil, fmt.Errorf("%w: coverage region is nil", geometry.ErrInvalidGeometry)
	}

	kept := make([]types.Position, 0, len(positions))
	for _, p := range positions {
		if coverage.Contains(geometry.Point{Lon: p.Longitude, Lat: p.Latitude}) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return &SortedBatch{}, ErrEmptyBatch
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].VesselID != kept[j].VesselID {
			return kept[i].VesselID < kept[j].VesselID
		}
		return kept[i].Timestamp.Before(kept[j].Timestamp)
	})

	return &SortedBatch{positions: kept}, nil
}

// Len returns the number of positions in the batch.
func (b *SortedBatch) Len() int {
	return len(b.positions)
}

// Tracks splits the batch into per-vessel tracks, ordered by vessel id.
func (b *SortedBatch) Tracks() []Track {
	var tracks []Track
	start := 0
	for i := 1; i <= len(b.positions); i++ {
		if i == len(b.positions) || b.positions[i].VesselID != b.positions[start].VesselID {
			tracks = append(tracks, Track{
				VesselID:  b.positions[start].VesselID,
				Positions: b.positions[start:i],
			})
			start = i
		}
	}
	return tracks
}

// verifyOrder re-checks the track ordering invariant. Positions with equal
// timestamps are allowed; a strict decrease is a preparation defect.
func verifyOrder(track Track) error {
	for i := 1; i < len(track.Positions); i++ {
		if track.Positions[i].Timestamp.Before(track.Positions[i-1].Timestamp) {
			return fmt.Errorf("%w: vessel %d at index %d", ErrUnsortedTrack, track.VesselID, i)
		}
	}
	return nil
}
