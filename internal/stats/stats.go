package stats

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/saviobatista/jet-itinerary/internal/types"
)

// Store persists statistics snapshots
type Store interface {
	StoreEngineStats(ctx context.Context, s types.EngineStats) error
}

// Stats tracks planner activity. Counters are safe for concurrent use.
type Stats struct {
	SessionsOpened    uint64
	ItinerariesBuilt  uint64
	BuildFailures     uint64
	EditsApplied      uint64
	Resets            uint64
	Submissions       uint64
	FailedSubmissions uint64

	StartTime time.Time

	store Store
	mu    sync.RWMutex
}

// New creates a new Stats instance
func New() *Stats {
	return &Stats{
		StartTime: time.Now(),
	}
}

// SetStore sets the store used for persistence
func (s *Stats) SetStore(store Store) {
	s.mu.Lock()
	s.store = store
	s.mu.Unlock()
}

// IncrementSessionsOpened counts a new editing session
func (s *Stats) IncrementSessionsOpened() {
	atomic.AddUint64(&s.SessionsOpened, 1)
}

// IncrementItinerariesBuilt counts a successful build or regeneration
func (s *Stats) IncrementItinerariesBuilt() {
	atomic.AddUint64(&s.ItinerariesBuilt, 1)
}

// IncrementBuildFailures counts an intent that produced no itinerary
func (s *Stats) IncrementBuildFailures() {
	atomic.AddUint64(&s.BuildFailures, 1)
}

// IncrementEditsApplied counts an applied edit command
func (s *Stats) IncrementEditsApplied() {
	atomic.AddUint64(&s.EditsApplied, 1)
}

// IncrementResets counts a reset to the generated itinerary
func (s *Stats) IncrementResets() {
	atomic.AddUint64(&s.Resets, 1)
}

// IncrementSubmissions counts a stored booking
func (s *Stats) IncrementSubmissions() {
	atomic.AddUint64(&s.Submissions, 1)
}

// IncrementFailedSubmissions counts a booking that could not be stored
func (s *Stats) IncrementFailedSubmissions() {
	atomic.AddUint64(&s.FailedSubmissions, 1)
}

// Snapshot returns the current counter values
func (s *Stats) Snapshot() types.EngineStats {
	now := time.Now()
	return types.EngineStats{
		Time:              now.UTC(),
		SessionsOpened:    atomic.LoadUint64(&s.SessionsOpened),
		ItinerariesBuilt:  atomic.LoadUint64(&s.ItinerariesBuilt),
		BuildFailures:     atomic.LoadUint64(&s.BuildFailures),
		EditsApplied:      atomic.LoadUint64(&s.EditsApplied),
		Resets:            atomic.LoadUint64(&s.Resets),
		Submissions:       atomic.LoadUint64(&s.Submissions),
		FailedSubmissions: atomic.LoadUint64(&s.FailedSubmissions),
		Uptime:            now.Sub(s.StartTime),
	}
}

// String returns a string representation of the statistics
func (s *Stats) String() string {
	snap := s.Snapshot()
	return fmt.Sprintf(
		"Sessions Opened: %d\n"+
			"Itineraries Built: %d\n"+
			"Build Failures: %d\n"+
			"Edits Applied: %d\n"+
			"Resets: %d\n"+
			"Submissions: %d\n"+
			"Failed Submissions: %d\n"+
			"Uptime: %s",
		snap.SessionsOpened,
		snap.ItinerariesBuilt,
		snap.BuildFailures,
		snap.EditsApplied,
		snap.Resets,
		snap.Submissions,
		snap.FailedSubmissions,
		snap.Uptime.Round(time.Second),
	)
}

// Persist stores the current statistics
func (s *Stats) Persist(ctx context.Context) error {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()

	if store == nil {
		return fmt.Errorf("stats store not set")
	}
	return store.StoreEngineStats(ctx, s.Snapshot())
}

// StartPersistence persists and logs the statistics every interval until
// ctx is done, then persists once more.
func (s *Stats) StartPersistence(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// The request context is gone; give the final write its own deadline.
			final, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.Persist(final); err != nil {
				log.Error().Err(err).Msg("Failed to persist final statistics")
			}
			cancel()
			return
		case <-ticker.C:
			if err := s.Persist(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to persist statistics")
			}
			snap := s.Snapshot()
			log.Info().
				Uint64("sessions", snap.SessionsOpened).
				Uint64("edits", snap.EditsApplied).
				Uint64("submissions", snap.Submissions).
				Uint64("failed_submissions", snap.FailedSubmissions).
				Msg("Planner statistics")
		}
	}
}
