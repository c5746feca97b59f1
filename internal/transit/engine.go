package transit

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/vesselwatch/transit-engine/internal/geometry"
	"github.com/vesselwatch/transit-engine/internal/types"
)

// Engine runs transit detection over a multi-vessel position batch.
// Vessels are independent units of work, so tracks are fanned out to a
// worker pool; the only shared state is the read-only region geometry.
type Engine struct {
	workers int
}

// NewEngine creates an engine with the given worker count. A count below 1
// defaults to the number of CPUs.
func NewEngine(workers int) *Engine {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Engine{workers: workers}
}

type vesselResult struct {
	voyages   []types.Voyage
	anomalies []Anomaly
	err       error
}

// Detect filters positions to the coverage region, detects crossings of
// the target region per vessel, and pairs them into completed voyages.
//
// Geometry and ordering violations abort the whole batch. Per-vessel
// pairing anomalies are localized: they increment summary counters and
// never abort detection for other vessels. An empty filtered batch yields
// an empty result and a nil error.
func (e *Engine) Detect(ctx context.Context, positions []types.Position, coverage, target *geometry.Region) (*types.Result, error) {
	if coverage == nil || target == nil {
		return nil, fmt.Errorf("%w: coverage and target regions are required", geometry.ErrInvalidGeometry)
	}

	batch, err := NewSortedBatch(positions, coverage)
	if err != nil {
		if errors.Is(err, ErrEmptyBatch) {
			return &types.Result{Voyages: []types.Voyage{}}, nil
		}
		return nil, err
	}

	tracks := batch.Tracks()
	results := make([]vesselResult, len(tracks))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				events, err := DetectCrossings(tracks[i], target)
				if err != nil {
					results[i] = vesselResult{err: err}
					continue
				}
				voyages, anomalies := PairVoyages(tracks[i].VesselID, events)
				results[i] = vesselResult{voyages: voyages, anomalies: anomalies}
			}
		}()
	}

	// Cancellation is checked at vessel-group boundaries, the natural unit
	// of work.
	var ctxErr error
dispatch:
	for i := range tracks {
		select {
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if ctxErr != nil {
		return nil, ctxErr
	}

	result := &types.Result{Voyages: []types.Voyage{}}
	vesselsWithVoyages := make(map[int64]struct{})
	for _, vr := range results {
		if vr.err != nil {
			return nil, vr.err
		}
		result.Voyages = append(result.Voyages, vr.voyages...)
		for _, a := range vr.anomalies {
			switch a.Kind {
			case AnomalyNegativeDuration:
				result.Summary.NegativeDurationDrops++
			case AnomalyNonAlternating:
				result.Summary.AlternationWarnings++
			}
		}
		for _, v := range vr.voyages {
			vesselsWithVoyages[v.VesselID] = struct{}{}
		}
	}

	sort.SliceStable(result.Voyages, func(i, j int) bool {
		if result.Voyages[i].VesselID != result.Voyages[j].VesselID {
			return result.Voyages[i].VesselID < result.Voyages[j].VesselID
		}
		return result.Voyages[i].EntryTime.Before(result.Voyages[j].EntryTime)
	})

	result.Summary.TotalVoyages = len(result.Voyages)
	result.Summary.VesselsWithVoyages = len(vesselsWithVoyages)
	result.Summary.FilteredPositions = batch.Len()
	result.Summary.FilteredVessels = len(tracks)
	return result, nil
}
