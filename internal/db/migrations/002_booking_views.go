package migrations

// BookingViews adds reporting views over submitted bookings
var BookingViews = &Migration{
	ID:   "002_booking_views",
	Name: "002_booking_views",
	UpSQL: `
	-- Flight hours per asset per day, split by whether the traveller was aboard
	CREATE OR REPLACE VIEW asset_utilisation_daily AS
	SELECT
		b.asset_id,
		date_trunc('day', l.departure_time) AS day,
		COUNT(*) AS legs,
		SUM(l.distance_nm) AS distance_nm,
		SUM(l.duration_minutes) FILTER (WHERE l.kind = 'customer') AS customer_minutes,
		SUM(l.duration_minutes) FILTER (WHERE l.kind = 'empty') AS empty_minutes
	FROM booking_legs l
	JOIN bookings b ON b.id = l.booking_id
	GROUP BY b.asset_id, day;

	CREATE OR REPLACE VIEW engine_stats_daily AS
	SELECT
		date_trunc('day', time) AS day,
		MAX(sessions_opened) AS sessions_opened,
		MAX(submissions) AS submissions,
		MAX(failed_submissions) AS failed_submissions
	FROM engine_stats
	GROUP BY day;
	`,
	DownSQL: `
	DROP VIEW IF EXISTS engine_stats_daily;
	DROP VIEW IF EXISTS asset_utilisation_daily;
	`,
}
