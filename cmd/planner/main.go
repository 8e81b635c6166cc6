package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/saviobatista/jet-itinerary/internal/api"
	"github.com/saviobatista/jet-itinerary/internal/booking"
	"github.com/saviobatista/jet-itinerary/internal/catalog"
	"github.com/saviobatista/jet-itinerary/internal/config"
	"github.com/saviobatista/jet-itinerary/internal/db"
	"github.com/saviobatista/jet-itinerary/internal/nats"
	"github.com/saviobatista/jet-itinerary/internal/redis"
	"github.com/saviobatista/jet-itinerary/internal/stats"
	"github.com/saviobatista/jet-itinerary/internal/types"

	_ "time/tzdata"
)

func main() {
	config.SetupLogging(os.Stdout)

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "planner",
		Usage: "plan and book private aviation itineraries",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the itinerary planning API",
				Action: serve,
			},
			buildCommand(),
		},
	}
}

// LocationSource lists every known location
type LocationSource interface {
	ListLocations(ctx context.Context) ([]*types.Location, error)
}

// loadCatalog reads the catalog from a CSV file when one is configured,
// otherwise from the database
func loadCatalog(ctx context.Context, file string, source LocationSource) (*catalog.Memory, error) {
	if file != "" {
		return catalog.LoadCSVFile(file)
	}
	locations, err := source.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load locations: %w", err)
	}
	return catalog.NewMemory(locations), nil
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := wire(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Close()

	go p.stats.StartPersistence(ctx, cfg.StatsInterval)

	err = p.server.Run(ctx, cfg.HTTPAddr)
	log.Info().Str("stats", p.stats.String()).Msg("Planner stopped")
	return err
}

// planner holds the wired service and the clients it owns
type planner struct {
	server  *api.Server
	stats   *stats.Stats
	closers []func()
}

// Close releases every client in reverse order of creation
func (p *planner) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

// wire connects to the backing services and assembles the API server
func wire(ctx context.Context, cfg *config.Config) (_ *planner, err error) {
	p := &planner{}
	defer func() {
		if err != nil {
			p.Close()
		}
	}()

	dbClient, err := db.New(cfg.DBConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create database client: %w", err)
	}
	p.closers = append(p.closers, func() { _ = dbClient.Close() })

	if err := dbClient.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	cat, err := loadCatalog(ctx, cfg.CatalogFile, dbClient)
	if err != nil {
		return nil, err
	}
	log.Info().Int("locations", cat.Len()).Msg("Location catalog loaded")

	redisClient, err := redis.New(cfg.RedisAddr, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client: %w", err)
	}
	p.closers = append(p.closers, func() { _ = redisClient.Close() })

	var publisher booking.Publisher
	if cfg.NATSURL != "" {
		natsClient, err := nats.New(cfg.NATSURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create NATS client: %w", err)
		}
		p.closers = append(p.closers, natsClient.Close)
		publisher = natsClient
	} else {
		log.Warn().Msg("NATS_URL not set, booking events are disabled")
	}

	p.stats = stats.New()
	p.stats.SetStore(dbClient)

	p.server = api.New(api.Options{
		Sessions:  redisClient,
		Assets:    api.NewCachedAssets(dbClient, redisClient),
		Catalog:   cat,
		Submitter: booking.NewService(dbClient, publisher),
		Bookings:  dbClient,
		Stats:     p.stats,
		Zone:      cfg.TimeZone,
	})
	return p, nil
}
