package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/vesselwatch/transit-engine/internal/types"
)

type Client struct {
	db *sql.DB
}

// New creates a new database client
func New(connStr string) (*Client, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	return &Client{db: db}, nil
}

// NewWithDB wraps an existing database handle (useful for testing)
func NewWithDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// StorePositions bulk-inserts a position batch into the archive table.
func (c *Client) StorePositions(positions []types.Position) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO positions (time, vessel_id, latitude, longitude, destination)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range positions {
		if _, err := stmt.Exec(p.Timestamp, p.VesselID, p.Latitude, p.Longitude, p.Destination); err != nil {
			return fmt.Errorf("failed to store position for vessel %d: %w", p.VesselID, err)
		}
	}
	return tx.Commit()
}

// CreateDetectionRun records a completed detection run.
func (c *Client) CreateDetectionRun(run *types.DetectionRun) error {
	query := `
		INSERT INTO detection_runs (
			run_id, coverage_name, target_name, started_at, finished_at,
			total_voyages, vessels_with_voyages, filtered_positions,
			filtered_vessels, negative_duration_drops, alternation_warnings
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := c.db.Exec(query,
		run.RunID, run.CoverageName, run.TargetName, run.StartedAt, run.FinishedAt,
		run.Summary.TotalVoyages, run.Summary.VesselsWithVoyages,
		run.Summary.FilteredPositions, run.Summary.FilteredVessels,
		run.Summary.NegativeDurationDrops, run.Summary.AlternationWarnings,
	)
	return err
}

// StoreVoyages inserts a run's voyage table in one transaction.
func (c *Client) StoreVoyages(runID string, voyages []types.Voyage) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO voyages (run_id, vessel_id, entry_time, exit_time, duration_seconds)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range voyages {
		if _, err := stmt.Exec(runID, v.VesselID, v.EntryTime, v.ExitTime, int64(v.Duration.Seconds())); err != nil {
			return fmt.Errorf("failed to store voyage for vessel %d: %w", v.VesselID, err)
		}
	}
	return tx.Commit()
}

// GetVoyages retrieves the voyage table for a run, ordered by vessel then
// entry time.
func (c *Client) GetVoyages(runID string) ([]types.Voyage, error) {
	query := `
		SELECT vessel_id, entry_time, exit_time, duration_seconds
		FROM voyages
		WHERE run_id = $1
		ORDER BY vessel_id, entry_time
	`
	rows, err := c.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var voyages []types.Voyage
	for rows.Next() {
		var (
			v       types.Voyage
			seconds int64
		)
		if err := rows.Scan(&v.VesselID, &v.EntryTime, &v.ExitTime, &seconds); err != nil {
			return nil, err
		}
		v.Duration = time.Duration(seconds) * time.Second
		voyages = append(voyages, v)
	}
	return voyages, rows.Err()
}

// GetDetectionRuns retrieves runs for a time range, newest first.
func (c *Client) GetDetectionRuns(start, end time.Time) ([]*types.DetectionRun, error) {
	query := `
		SELECT run_id, coverage_name, target_name, started_at, finished_at,
			total_voyages, vessels_with_voyages, filtered_positions,
			filtered_vessels, negative_duration_drops, alternation_warnings
		FROM detection_runs
		WHERE started_at BETWEEN $1 AND $2
		ORDER BY started_at DESC
	`
	rows, err := c.db.Query(query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*types.DetectionRun
	for rows.Next() {
		var r types.DetectionRun
		if err := rows.Scan(
			&r.RunID, &r.CoverageName, &r.TargetName, &r.StartedAt, &r.FinishedAt,
			&r.Summary.TotalVoyages, &r.Summary.VesselsWithVoyages,
			&r.Summary.FilteredPositions, &r.Summary.FilteredVessels,
			&r.Summary.NegativeDurationDrops, &r.Summary.AlternationWarnings,
		); err != nil {
			return nil, err
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

// StoreEngineStats stores engine counters for one stats interval.
func (c *Client) StoreEngineStats(stats map[string]interface{}) error {
	query := `
		INSERT INTO engine_stats (
			time, batches_processed, positions_read, rows_rejected,
			voyages_detected, anomalies_detected, processing_time_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	processingTime := stats["processing_time"].(time.Duration).Milliseconds()

	_, err := c.db.Exec(query,
		time.Now(),
		stats["batches_processed"],
		stats["positions_read"],
		stats["rows_rejected"],
		stats["voyages_detected"],
		stats["anomalies_detected"],
		processingTime,
	)
	return err
}
