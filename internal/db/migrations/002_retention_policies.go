package migrations

// RetentionPolicies sets retention on the raw archive and stats tables.
// Detection runs and voyages are kept indefinitely.
var RetentionPolicies = &Migration{
	ID:   "002_retention_policies",
	Name: "002_retention_policies",
	UpSQL: `
	-- Set retention policy for positions (180 days)
	SELECT add_retention_policy('positions', INTERVAL '180 days');

	-- Set retention policy for engine_stats (90 days)
	SELECT add_retention_policy('engine_stats', INTERVAL '90 days');

	-- Create continuous aggregate for daily position volume per vessel
	CREATE MATERIALIZED VIEW IF NOT EXISTS positions_daily
	WITH (timescaledb.continuous) AS
	SELECT
		time_bucket('1 day', time) AS day,
		vessel_id,
		COUNT(*) AS position_count
	FROM positions
	GROUP BY day, vessel_id
	WITH NO DATA;
	`,
	DownSQL: `
	DROP MATERIALIZED VIEW IF EXISTS positions_daily;
	-- Remove retention policies
	SELECT remove_retention_policy('positions');
	SELECT remove_retention_policy('engine_stats');
	`,
}
