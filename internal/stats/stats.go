package stats

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vesselwatch/transit-engine/internal/db"
)

// Stats tracks detection pipeline counters
type Stats struct {
	// Batch counts
	BatchesProcessed uint64
	PositionsRead    uint64
	RowsRejected     uint64

	// Detection counts
	VoyagesDetected    uint64
	AnomaliesDetected  uint64
	VesselsWithVoyages uint64

	// Timing
	LastBatchTime  time.Time
	ProcessingTime time.Duration

	// Database client for persistence
	db *db.Client

	mu sync.RWMutex
}

// New creates a new Stats instance
func New() *Stats {
	return &Stats{
		LastBatchTime: time.Now(),
	}
}

// SetDB sets the database client for persistence
func (s *Stats) SetDB(db *db.Client) {
	s.mu.Lock()
	s.db = db
	s.mu.Unlock()
}

// Persist stores the current statistics in the database
func (s *Stats) Persist() error {
	s.mu.RLock()
	if s.db == nil {
		s.mu.RUnlock()
		return fmt.Errorf("database client not set")
	}
	s.mu.RUnlock()

	return s.db.StoreEngineStats(s.GetStats())
}

// IncrementBatches increments the processed batch counter
func (s *Stats) IncrementBatches() {
	atomic.AddUint64(&s.BatchesProcessed, 1)
}

// AddPositionsRead adds to the positions-read counter
func (s *Stats) AddPositionsRead(n uint64) {
	atomic.AddUint64(&s.PositionsRead, n)
}

// AddRowsRejected adds to the rejected-row counter
func (s *Stats) AddRowsRejected(n uint64) {
	atomic.AddUint64(&s.RowsRejected, n)
}

// AddVoyagesDetected adds to the detected-voyage counter
func (s *Stats) AddVoyagesDetected(n uint64) {
	atomic.AddUint64(&s.VoyagesDetected, n)
}

// AddAnomaliesDetected adds to the anomaly counter
func (s *Stats) AddAnomaliesDetected(n uint64) {
	atomic.AddUint64(&s.AnomaliesDetected, n)
}

// SetVesselsWithVoyages sets the vessels-with-voyages gauge
func (s *Stats) SetVesselsWithVoyages(count uint64) {
	atomic.StoreUint64(&s.VesselsWithVoyages, count)
}

// UpdateLastBatchTime updates the last batch time
func (s *Stats) UpdateLastBatchTime() {
	s.mu.Lock()
	s.LastBatchTime = time.Now()
	s.mu.Unlock()
}

// AddProcessingTime adds to the total processing time
func (s *Stats) AddProcessingTime(duration time.Duration) {
	s.mu.Lock()
	s.ProcessingTime += duration
	s.mu.Unlock()
}

// GetStats returns a copy of the current statistics
func (s *Stats) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"batches_processed":    atomic.LoadUint64(&s.BatchesProcessed),
		"positions_read":       atomic.LoadUint64(&s.PositionsRead),
		"rows_rejected":        atomic.LoadUint64(&s.RowsRejected),
		"voyages_detected":     atomic.LoadUint64(&s.VoyagesDetected),
		"anomalies_detected":   atomic.LoadUint64(&s.AnomaliesDetected),
		"vessels_with_voyages": atomic.LoadUint64(&s.VesselsWithVoyages),
		"last_batch_time":      s.LastBatchTime,
		"processing_time":      s.ProcessingTime,
	}
}

// String returns a string representation of the statistics
func (s *Stats) String() string {
	stats := s.GetStats()
	return fmt.Sprintf(
		"Batches Processed: %d\n"+
			"Positions Read: %d\n"+
			"Rows Rejected: %d\n"+
			"Voyages Detected: %d\n"+
			"Anomalies Detected: %d\n"+
			"Vessels With Voyages: %d\n"+
			"Last Batch Time: %s\n"+
			"Processing Time: %s",
		stats["batches_processed"],
		stats["positions_read"],
		stats["rows_rejected"],
		stats["voyages_detected"],
		stats["anomalies_detected"],
		stats["vessels_with_voyages"],
		stats["last_batch_time"],
		stats["processing_time"],
	)
}

// StartPersistence starts periodic persistence of statistics
func (s *Stats) StartPersistence(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final persistence before shutdown
			if err := s.Persist(); err != nil {
				fmt.Printf("Failed to persist final statistics: %v\n", err)
			}
			return
		case <-ticker.C:
			if err := s.Persist(); err != nil {
				fmt.Printf("Failed to persist statistics: %v\n", err)
			}
		}
	}
}
