// Package booking turns a finished itinerary into a stored booking.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/saviobatista/jet-itinerary/internal/db"
	"github.com/saviobatista/jet-itinerary/internal/itinerary"
	"github.com/saviobatista/jet-itinerary/internal/types"
)

// ErrNotSubmittable is returned for itineraries with unresolved endpoints
var ErrNotSubmittable = errors.New("itinerary is not submittable")

// Store persists bookings. CreateBooking must treat an already stored
// booking ID as success, since failed writes are retried with the same ID.
type Store interface {
	CreateBooking(ctx context.Context, booking *types.Booking) error
}

// Publisher announces stored bookings
type Publisher interface {
	PublishBookingSubmitted(booking *types.Booking) error
}

// Service submits itineraries. A nil publisher disables events.
type Service struct {
	store     Store
	publisher Publisher
	policy    func() backoff.BackOff
	now       func() time.Time
}

// NewService creates a submission service retrying storage with exponential backoff
func NewService(store Store, publisher Publisher) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		policy: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = 30 * time.Second
			return backoff.WithMaxRetries(b, 5)
		},
		now: time.Now,
	}
}

// SetRetryPolicy replaces the backoff used when storing bookings
func (s *Service) SetRetryPolicy(policy func() backoff.BackOff) {
	s.policy = policy
}

// NewBooking derives the booking record for an itinerary
func NewBooking(sessionID, assetID string, mode types.TripMode, it *types.Itinerary, submittedAt time.Time) (*types.Booking, error) {
	if !itinerary.IsSubmittable(it) {
		return nil, ErrNotSubmittable
	}

	legs := make([]types.LegRecord, 0, len(it.Legs))
	for i, leg := range it.Legs {
		record, err := types.NewLegRecord(leg)
		if err != nil {
			return nil, fmt.Errorf("failed to convert leg %d: %w", i+1, err)
		}
		legs = append(legs, record)
	}

	return &types.Booking{
		ID:                 uuid.NewString(),
		SessionID:          sessionID,
		AssetID:            assetID,
		Mode:               mode,
		Title:              it.Title(),
		TotalDistanceNM:    it.TotalDistance(),
		TotalFlightMinutes: it.TotalMinutes(),
		Legs:               legs,
		SubmittedAt:        submittedAt.UTC(),
	}, nil
}

// Submit stores the itinerary as a booking and publishes it. Once stored,
// a publish failure only logs a warning.
func (s *Service) Submit(ctx context.Context, sessionID, assetID string, mode types.TripMode, it *types.Itinerary) (*types.Booking, error) {
	b, err := NewBooking(sessionID, assetID, mode, it, s.now())
	if err != nil {
		return nil, err
	}

	store := func() error {
		err := s.store.CreateBooking(ctx, b)
		if err != nil && (ctx.Err() != nil || db.IsConstraintViolation(err)) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Str("booking", b.ID).Dur("retry_in", wait).Msg("Failed to store booking, retrying")
	}
	if err := backoff.RetryNotify(store, backoff.WithContext(s.policy(), ctx), notify); err != nil {
		return nil, fmt.Errorf("failed to store booking: %w", err)
	}

	log.Info().
		Str("booking", b.ID).
		Str("session", sessionID).
		Str("title", b.Title).
		Int("legs", len(b.Legs)).
		Msg("Booking submitted")

	if s.publisher != nil {
		if err := s.publisher.PublishBookingSubmitted(b); err != nil {
			log.Warn().Err(err).Str("booking", b.ID).Msg("Failed to publish booking event")
		}
	}

	return b, nil
}
