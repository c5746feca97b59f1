package migrations

import "time"

// InitialSchema creates the initial database schema
var InitialSchema = &Migration{
	ID:   "001_initial_schema",
	Name: "001_initial_schema",
	UpSQL: `
		-- Enable TimescaleDB extension
		CREATE EXTENSION IF NOT EXISTS timescaledb;

		-- Create positions hypertable (raw AIS archive)
		CREATE TABLE IF NOT EXISTS positions (
			time TIMESTAMPTZ NOT NULL,
			vessel_id BIGINT NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			destination TEXT
		);

		-- Create hypertable
		SELECT create_hypertable('positions', 'time');

		-- Create indexes
		CREATE INDEX IF NOT EXISTS idx_positions_vessel_id ON positions (vessel_id, time);

		-- Create detection_runs table
		CREATE TABLE IF NOT EXISTS detection_runs (
			run_id TEXT PRIMARY KEY,
			coverage_name TEXT NOT NULL,
			target_name TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			total_voyages INTEGER NOT NULL,
			vessels_with_voyages INTEGER NOT NULL,
			filtered_positions INTEGER NOT NULL,
			filtered_vessels INTEGER NOT NULL,
			negative_duration_drops INTEGER NOT NULL,
			alternation_warnings INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_detection_runs_started_at ON detection_runs (started_at);
		CREATE INDEX IF NOT EXISTS idx_detection_runs_target ON detection_runs (target_name);

		-- Create voyages table
		CREATE TABLE IF NOT EXISTS voyages (
			id SERIAL PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES detection_runs (run_id),
			vessel_id BIGINT NOT NULL,
			entry_time TIMESTAMPTZ NOT NULL,
			exit_time TIMESTAMPTZ NOT NULL,
			duration_seconds BIGINT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_voyages_run_id ON voyages (run_id);
		CREATE INDEX IF NOT EXISTS idx_voyages_vessel_id ON voyages (vessel_id);

		-- Create engine statistics table
		CREATE TABLE IF NOT EXISTS engine_stats (
			time TIMESTAMPTZ NOT NULL,
			batches_processed BIGINT NOT NULL,
			positions_read BIGINT NOT NULL,
			rows_rejected BIGINT NOT NULL,
			voyages_detected BIGINT NOT NULL,
			anomalies_detected BIGINT NOT NULL,
			processing_time_ms BIGINT NOT NULL
		);

		-- Create hypertable for statistics
		SELECT create_hypertable('engine_stats', 'time');

		CREATE INDEX IF NOT EXISTS idx_engine_stats_time ON engine_stats (time DESC);
	`,
	DownSQL: `
		DROP TABLE IF EXISTS engine_stats;
		DROP TABLE IF EXISTS voyages;
		DROP TABLE IF EXISTS detection_runs;
		DROP TABLE IF EXISTS positions;
	`,
	CreatedAt: time.Now(),
}
