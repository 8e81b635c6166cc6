// Package api exposes the itinerary engine over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/saviobatista/jet-itinerary/internal/booking"
	"github.com/saviobatista/jet-itinerary/internal/catalog"
	"github.com/saviobatista/jet-itinerary/internal/db"
	"github.com/saviobatista/jet-itinerary/internal/itinerary"
	"github.com/saviobatista/jet-itinerary/internal/stats"
	"github.com/saviobatista/jet-itinerary/internal/types"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	maxBodyBytes       = 1 << 20
)

var errSessionNotFound = errors.New("session not found")

// SessionStore persists editing sessions. GetSession returns nil, nil when absent.
type SessionStore interface {
	StoreSession(ctx context.Context, session *types.Session) error
	GetSession(ctx context.Context, id string) (*types.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// Submitter turns a session's itinerary into a booking
type Submitter interface {
	Submit(ctx context.Context, sessionID, assetID string, mode types.TripMode, it *types.Itinerary) (*types.Booking, error)
}

// BookingReader loads stored bookings
type BookingReader interface {
	GetBooking(ctx context.Context, id string) (*types.Booking, error)
}

// Options wires the server's collaborators. Bookings may be nil.
type Options struct {
	Sessions  SessionStore
	Assets    AssetSource
	Catalog   *catalog.Memory
	Submitter Submitter
	Bookings  BookingReader
	Stats     *stats.Stats
	Zone      *time.Location
}

// Server handles the planner's HTTP API
type Server struct {
	sessions  SessionStore
	assets    AssetSource
	catalogs  map[types.AssetKind]*catalog.Memory
	all       *catalog.Memory
	submitter Submitter
	bookings  BookingReader
	stats     *stats.Stats
	zone      *time.Location
	locks     *keyedMutex
	now       func() time.Time
}

// New creates a server
func New(opts Options) *Server {
	st := opts.Stats
	if st == nil {
		st = stats.New()
	}
	zone := opts.Zone
	if zone == nil {
		zone = time.UTC
	}
	return &Server{
		sessions: opts.Sessions,
		assets:   opts.Assets,
		catalogs: map[types.AssetKind]*catalog.Memory{
			types.AssetAirplane:   opts.Catalog.ForAsset(types.AssetAirplane),
			types.AssetHelicopter: opts.Catalog.ForAsset(types.AssetHelicopter),
		},
		all:       opts.Catalog,
		submitter: opts.Submitter,
		bookings:  opts.Bookings,
		stats:     st,
		zone:      zone,
		locks:     newKeyedMutex(),
		now:       time.Now,
	}
}

// Router returns the API routes mounted under /api/v1
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/locations", s.handleSearchLocations)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Put("/intent", s.handleRegenerate)
			r.Post("/commands", s.handleCommand)
			r.Post("/reset", s.handleReset)
			r.Post("/submit", s.handleSubmit)
		})

		r.Get("/bookings/{id}", s.handleGetBooking)
	})

	return r
}

// Run serves the API on addr until ctx is cancelled
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Planner API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down HTTP server: %w", err)
		}
		return nil
	}
}

// requestLogger logs each request through zerolog
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

type createSessionRequest struct {
	AssetID string           `json:"asset_id"`
	Intent  types.TripIntent `json:"intent"`
}

// SessionResponse is a session together with its derived summary and validation
type SessionResponse struct {
	*types.Session
	Title              string           `json:"title"`
	TotalDistanceNM    int              `json:"total_distance_nm"`
	TotalFlightMinutes int              `json:"total_flight_minutes"`
	Validation         itinerary.Report `json:"validation"`
}

func newSessionResponse(session *types.Session) SessionResponse {
	it := &types.Itinerary{Legs: session.Legs}
	return SessionResponse{
		Session:            session,
		Title:              it.Title(),
		TotalDistanceNM:    it.TotalDistance(),
		TotalFlightMinutes: it.TotalMinutes(),
		Validation:         itinerary.Validate(it),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}

func (s *Server) handleSearchLocations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultSearchLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxSearchLimit)
	}

	cat := s.all
	if kind := q.Get("asset"); kind != "" {
		var ok bool
		if cat, ok = s.catalogs[types.AssetKind(kind)]; !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown asset kind %q", kind))
			return
		}
	}

	results := cat.Search(q.Get("q"), limit)
	if results == nil {
		results = []*types.Location{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.AssetID == "" {
		writeError(w, http.StatusBadRequest, "asset_id is required")
		return
	}

	builder, err := s.builderFor(r.Context(), req.AssetID)
	if err != nil {
		s.fail(w, err)
		return
	}

	editor, err := itinerary.NewEditor(builder, req.Intent)
	if err != nil {
		s.stats.IncrementBuildFailures()
		s.fail(w, err)
		return
	}
	s.stats.IncrementItinerariesBuilt()

	now := s.now().UTC()
	session := editor.Snapshot()
	session.ID = uuid.NewString()
	session.AssetID = req.AssetID
	session.CreatedAt = now
	session.UpdatedAt = now

	if err := s.sessions.StoreSession(r.Context(), &session); err != nil {
		s.fail(w, fmt.Errorf("failed to store session: %w", err))
		return
	}
	s.stats.IncrementSessionsOpened()

	log.Info().
		Str("session", session.ID).
		Str("asset", session.AssetID).
		Str("mode", string(session.Intent.Mode)).
		Int("legs", len(session.Legs)).
		Msg("Session opened")

	writeJSON(w, http.StatusCreated, newSessionResponse(&session))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.loadSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(session))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.loadSession(r.Context(), id); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.sessions.DeleteSession(r.Context(), id); err != nil {
		s.fail(w, fmt.Errorf("failed to delete session: %w", err))
		return
	}
	log.Info().Str("session", id).Msg("Session discarded")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	var intent types.TripIntent
	if err := decodeBody(r, &intent); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.withEditor(w, r, func(e *itinerary.Editor) error {
		if err := e.Regenerate(intent); err != nil {
			if !errors.Is(err, itinerary.ErrEdited) {
				s.stats.IncrementBuildFailures()
			}
			return err
		}
		s.stats.IncrementItinerariesBuilt()
		return nil
	})
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	cmd, err := itinerary.DecodeCommand(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.withEditor(w, r, func(e *itinerary.Editor) error {
		if err := e.Apply(cmd); err != nil {
			return err
		}
		if _, ok := cmd.(itinerary.Reset); ok {
			s.stats.IncrementResets()
		} else {
			s.stats.IncrementEditsApplied()
		}
		return nil
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *itinerary.Editor) error {
		if err := e.Reset(); err != nil {
			return err
		}
		s.stats.IncrementResets()
		return nil
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.loadSession(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}

	b, err := s.submitter.Submit(r.Context(), session.ID, session.AssetID, session.Intent.Mode, &types.Itinerary{Legs: session.Legs})
	if err != nil {
		s.stats.IncrementFailedSubmissions()
		s.fail(w, err)
		return
	}
	s.stats.IncrementSubmissions()

	if err := s.sessions.DeleteSession(r.Context(), id); err != nil {
		log.Warn().Err(err).Str("session", id).Msg("Failed to discard submitted session")
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	if s.bookings == nil {
		writeError(w, http.StatusNotFound, "bookings are not available")
		return
	}
	b, err := s.bookings.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// withEditor restores the session's editor under its lock, runs fn and
// stores the result
func (s *Server) withEditor(w http.ResponseWriter, r *http.Request, fn func(*itinerary.Editor) error) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.loadSession(ctx, id)
	if err != nil {
		s.fail(w, err)
		return
	}
	builder, err := s.builderFor(ctx, session.AssetID)
	if err != nil {
		s.fail(w, err)
		return
	}

	editor := itinerary.Restore(builder, *session)
	if err := fn(editor); err != nil {
		s.fail(w, err)
		return
	}

	updated := editor.Snapshot()
	updated.ID = session.ID
	updated.AssetID = session.AssetID
	updated.CreatedAt = session.CreatedAt
	updated.UpdatedAt = s.now().UTC()

	if err := s.sessions.StoreSession(ctx, &updated); err != nil {
		s.fail(w, fmt.Errorf("failed to store session: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(&updated))
}

func (s *Server) loadSession(ctx context.Context, id string) (*types.Session, error) {
	session, err := s.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %s", errSessionNotFound, id)
	}
	return session, nil
}

func (s *Server) builderFor(ctx context.Context, assetID string) (*itinerary.Builder, error) {
	profile, err := s.assets.GetAssetProfile(ctx, assetID)
	if err != nil {
		return nil, err
	}
	cat, ok := s.catalogs[profile.Kind]
	if !ok {
		cat = s.catalogs[types.AssetAirplane]
	}
	return itinerary.NewBuilder(cat, *profile, s.zone), nil
}

// fail maps an error to its HTTP status and writes it
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errSessionNotFound),
		errors.Is(err, db.ErrAssetNotFound),
		errors.Is(err, db.ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, itinerary.ErrEdited):
		return http.StatusConflict
	case errors.Is(err, booking.ErrNotSubmittable),
		errors.Is(err, itinerary.ErrNoHomeBase),
		errors.Is(err, itinerary.ErrUnknownHomeBase),
		errors.Is(err, itinerary.ErrHomeBaseCoordinates):
		return http.StatusUnprocessableEntity
	case errors.Is(err, itinerary.ErrInvalidIntent),
		errors.Is(err, itinerary.ErrInvalidCommand),
		errors.Is(err, itinerary.ErrLegIndex),
		errors.Is(err, itinerary.ErrLastLeg),
		errors.Is(err, itinerary.ErrUnknownLocation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
