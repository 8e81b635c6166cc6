package migrations

// InitialSchema creates the catalog, asset and booking tables
var InitialSchema = &Migration{
	ID:   "001_initial_schema",
	Name: "001_initial_schema",
	UpSQL: `
		CREATE TABLE IF NOT EXISTS locations (
			id TEXT PRIMARY KEY,
			icao TEXT,
			iata TEXT,
			name TEXT NOT NULL,
			city TEXT,
			country TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT 'airport',
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			CHECK (icao IS NOT NULL OR iata IS NOT NULL),
			CHECK ((latitude IS NULL) = (longitude IS NULL))
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_locations_icao ON locations (icao);
		CREATE INDEX IF NOT EXISTS idx_locations_iata ON locations (iata);

		CREATE TABLE IF NOT EXISTS assets (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT 'airplane',
			cruise_speed DOUBLE PRECISION NOT NULL DEFAULT 450,
			turnaround_minutes INTEGER NOT NULL DEFAULT 60,
			home_base TEXT
		);

		CREATE TABLE IF NOT EXISTS bookings (
			id UUID PRIMARY KEY,
			session_id TEXT,
			asset_id TEXT NOT NULL REFERENCES assets (id),
			mode TEXT NOT NULL,
			title TEXT NOT NULL,
			total_distance_nm INTEGER NOT NULL,
			total_flight_minutes INTEGER NOT NULL,
			submitted_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_bookings_asset_id ON bookings (asset_id);
		CREATE INDEX IF NOT EXISTS idx_bookings_submitted_at ON bookings (submitted_at);

		CREATE TABLE IF NOT EXISTS booking_legs (
			booking_id UUID NOT NULL REFERENCES bookings (id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			kind TEXT NOT NULL,
			departure_code TEXT NOT NULL,
			arrival_code TEXT NOT NULL,
			departure_time TIMESTAMPTZ NOT NULL,
			arrival_time TIMESTAMPTZ NOT NULL,
			distance_nm INTEGER NOT NULL,
			duration_minutes INTEGER NOT NULL,
			PRIMARY KEY (booking_id, position)
		);

		CREATE TABLE IF NOT EXISTS engine_stats (
			time TIMESTAMPTZ NOT NULL,
			sessions_opened BIGINT NOT NULL,
			itineraries_built BIGINT NOT NULL,
			build_failures BIGINT NOT NULL,
			edits_applied BIGINT NOT NULL,
			resets BIGINT NOT NULL,
			submissions BIGINT NOT NULL,
			failed_submissions BIGINT NOT NULL,
			uptime_seconds BIGINT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_engine_stats_time ON engine_stats (time DESC);
	`,
	DownSQL: `
		DROP TABLE IF EXISTS engine_stats;
		DROP TABLE IF EXISTS booking_legs;
		DROP TABLE IF EXISTS bookings;
		DROP TABLE IF EXISTS assets;
		DROP TABLE IF EXISTS locations;
	`,
}
