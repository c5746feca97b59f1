package testutils

import (
	"context"
	"fmt"
	"time"

	"github.com/vesselwatch/transit-engine/internal/geometry"
	"github.com/vesselwatch/transit-engine/internal/types"
)

// BaseTime is the anchor timestamp for generated positions.
var BaseTime = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

// MockPosition creates a position for a vessel at hour-offset hours from
// BaseTime.
func MockPosition(vesselID int64, hours int, lat, lon float64) types.Position {
	return types.Position{
		VesselID:  vesselID,
		Timestamp: BaseTime.Add(time.Duration(hours) * time.Hour),
		Latitude:  lat,
		Longitude: lon,
	}
}

// MockPositionMessage creates a raw CSV position message for transport tests.
func MockPositionMessage(vesselID int64, lat, lon float64) *types.PositionMessage {
	return &types.PositionMessage{
		Raw:       fmt.Sprintf("%d,%s,%f,%f,", vesselID, BaseTime.Format(time.RFC3339), lat, lon),
		Source:    "test-source.csv",
		Timestamp: BaseTime,
	}
}

// UnitSquare returns a unit-square region [(0,0),(0,1),(1,1),(1,0)].
func UnitSquare(name string) *geometry.Region {
	r, err := geometry.NewRegion(name, []geometry.Point{
		{Lon: 0, Lat: 0}, {Lon: 0, Lat: 1}, {Lon: 1, Lat: 1}, {Lon: 1, Lat: 0},
	})
	if err != nil {
		panic(err)
	}
	return r
}

// WideSquare returns a square region spanning [-10,10] on both axes, used
// as a coverage region around UnitSquare.
func WideSquare(name string) *geometry.Region {
	r, err := geometry.NewRegion(name, []geometry.Point{
		{Lon: -10, Lat: -10}, {Lon: -10, Lat: 10}, {Lon: 10, Lat: 10}, {Lon: 10, Lat: -10},
	})
	if err != nil {
		panic(err)
	}
	return r
}

// WaitForCondition waits for a condition to be true with timeout
func WaitForCondition(condition func() bool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for condition")
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}
