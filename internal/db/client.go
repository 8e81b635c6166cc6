package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/saviobatista/jet-itinerary/internal/types"
)

var (
	ErrAssetNotFound   = errors.New("asset not found")
	ErrBookingNotFound = errors.New("booking not found")
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

// NewWithDB wraps an existing connection pool
func NewWithDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// DB exposes the underlying pool, e.g. for running migrations
func (c *Client) DB() *sql.DB {
	return c.db
}

// Ping verifies the database is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// ListLocations returns the whole location catalog ordered by ID
func (c *Client) ListLocations(ctx context.Context) ([]*types.Location, error) {
	query := `
		SELECT id, icao, iata, name, city, country, kind, latitude, longitude
		FROM locations
		ORDER BY id
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locations []*types.Location
	for rows.Next() {
		var (
			l          types.Location
			icao, iata sql.NullString
			city       sql.NullString
			lat, lon   sql.NullFloat64
		)
		if err := rows.Scan(&l.ID, &icao, &iata, &l.Name, &city, &l.Country, &l.Kind, &lat, &lon); err != nil {
			return nil, fmt.Errorf("failed to scan location: %w", err)
		}
		l.ICAO, l.IATA, l.City = icao.String, iata.String, city.String
		if lat.Valid && lon.Valid {
			l.Coordinates = &types.Coordinates{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		locations = append(locations, &l)
	}
	return locations, rows.Err()
}

// GetAssetProfile loads the performance profile of one asset
func (c *Client) GetAssetProfile(ctx context.Context, id string) (*types.AssetProfile, error) {
	query := `
		SELECT id, name, kind, cruise_speed, turnaround_minutes, home_base
		FROM assets
		WHERE id = $1
	`
	var (
		p    types.AssetProfile
		home sql.NullString
	)
	err := c.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Kind, &p.CruiseSpeed, &p.TurnaroundMinutes, &home)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset %s: %w", id, err)
	}
	p.HomeBase = home.String
	return &p, nil
}

// IsConstraintViolation reports whether err carries a Postgres integrity
// constraint violation (SQLSTATE class 23). Retrying such a write cannot succeed.
func IsConstraintViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Class() == "23"
}

// CreateBooking stores a booking and its legs in one transaction. Storing a
// booking ID that already exists is a no-op, so a retried write is safe.
func (c *Client) CreateBooking(ctx context.Context, b *types.Booking) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			log.Warn().Err(err).Str("booking", b.ID).Msg("Failed to rollback transaction")
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO bookings (
			id, session_id, asset_id, mode, title,
			total_distance_nm, total_flight_minutes, submitted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`,
		b.ID, b.SessionID, b.AssetID, b.Mode, b.Title,
		b.TotalDistanceNM, b.TotalFlightMinutes, b.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	if inserted == 0 {
		log.Debug().Str("booking", b.ID).Msg("Booking already stored")
		return nil
	}

	for i, leg := range b.Legs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO booking_legs (
				booking_id, position, kind, departure_code, arrival_code,
				departure_time, arrival_time, distance_nm, duration_minutes
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			b.ID, i, leg.Kind, leg.DepartureCode, leg.ArrivalCode,
			leg.DepartureTime, leg.ArrivalTime, leg.DistanceNM, leg.DurationMinutes,
		)
		if err != nil {
			return fmt.Errorf("failed to insert leg %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// GetBooking loads a booking with its legs in order
func (c *Client) GetBooking(ctx context.Context, id string) (*types.Booking, error) {
	var (
		b       types.Booking
		session sql.NullString
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT id, session_id, asset_id, mode, title,
			total_distance_nm, total_flight_minutes, submitted_at
		FROM bookings
		WHERE id = $1
	`, id).Scan(
		&b.ID, &session, &b.AssetID, &b.Mode, &b.Title,
		&b.TotalDistanceNM, &b.TotalFlightMinutes, &b.SubmittedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrBookingNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking %s: %w", id, err)
	}
	b.SessionID = session.String

	rows, err := c.db.QueryContext(ctx, `
		SELECT kind, departure_code, arrival_code, departure_time, arrival_time,
			distance_nm, duration_minutes
		FROM booking_legs
		WHERE booking_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query legs of booking %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var leg types.LegRecord
		if err := rows.Scan(
			&leg.Kind, &leg.DepartureCode, &leg.ArrivalCode, &leg.DepartureTime, &leg.ArrivalTime,
			&leg.DistanceNM, &leg.DurationMinutes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leg: %w", err)
		}
		b.Legs = append(b.Legs, leg)
	}
	return &b, rows.Err()
}

// StoreEngineStats stores a snapshot of the planner's counters
func (c *Client) StoreEngineStats(ctx context.Context, s types.EngineStats) error {
	query := `
		INSERT INTO engine_stats (
			time, sessions_opened, itineraries_built, build_failures,
			edits_applied, resets, submissions, failed_submissions,
			uptime_seconds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := c.db.ExecContext(ctx, query,
		s.Time,
		int64(s.SessionsOpened),
		int64(s.ItinerariesBuilt),
		int64(s.BuildFailures),
		int64(s.EditsApplied),
		int64(s.Resets),
		int64(s.Submissions),
		int64(s.FailedSubmissions),
		int64(s.Uptime.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("failed to store engine stats: %w", err)
	}
	return nil
}
