package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/saviobatista/jet-itinerary/internal/config"
	"github.com/saviobatista/jet-itinerary/internal/nats"
	"github.com/saviobatista/jet-itinerary/internal/storage"
	"github.com/saviobatista/jet-itinerary/internal/timecalc"
	"github.com/saviobatista/jet-itinerary/internal/types"
)

const durableName = "booking-archiver"

func main() {
	config.SetupLogging(os.Stdout)

	dump := flag.Bool("dump", false, "Print the archived bookings and exit")
	flag.Parse()

	journalDir, natsURL := parseEnvironment()

	var err error
	if *dump {
		err = dumpJournal(os.Stdout, journalDir)
	} else {
		err = runArchiver(journalDir, natsURL)
	}
	if err != nil {
		log.Error().Err(err).Msg("Archiver failed")
		os.Exit(1)
	}
}

// runArchiver appends every submitted booking to the journal until interrupted
func runArchiver(journalDir, natsURL string) error {
	journal := storage.NewJournal(journalDir)
	if err := journal.Start(); err != nil {
		return fmt.Errorf("failed to start journal: %w", err)
	}

	client, err := nats.New(natsURL)
	if err != nil {
		_ = journal.Stop()
		return fmt.Errorf("failed to create NATS client: %w", err)
	}

	archiver := NewArchiver(journal)
	sub, err := client.SubscribeBookingsSubmitted(durableName, archiver.Handle)
	if err != nil {
		client.Close()
		_ = journal.Stop()
		return fmt.Errorf("failed to subscribe to bookings: %w", err)
	}

	log.Info().Str("dir", journalDir).Msg("Archiving submitted bookings")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Uint64("archived", archiver.Archived()).Msg("Shutting down")
	if err := sub.Unsubscribe(); err != nil {
		log.Warn().Err(err).Msg("Failed to unsubscribe")
	}
	client.Close()
	return journal.Stop()
}

// parseEnvironment extracts environment variables with defaults
func parseEnvironment() (string, string) {
	journalDir := os.Getenv("JOURNAL_DIR")
	if journalDir == "" {
		journalDir = "./journal"
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	return journalDir, natsURL
}

// BookingWriter appends bookings to durable storage
type BookingWriter interface {
	Append(b *types.Booking) error
}

// Archiver writes booking events to the journal
type Archiver struct {
	writer   BookingWriter
	archived atomic.Uint64
}

// NewArchiver creates an archiver writing to w
func NewArchiver(w BookingWriter) *Archiver {
	return &Archiver{writer: w}
}

// Handle stores one booking. Returning an error leaves the event for redelivery.
func (a *Archiver) Handle(b *types.Booking) error {
	if err := a.writer.Append(b); err != nil {
		return fmt.Errorf("failed to archive booking %s: %w", b.ID, err)
	}
	a.archived.Add(1)
	log.Debug().Str("booking", b.ID).Str("title", b.Title).Msg("Archived booking")
	return nil
}

// Archived returns how many bookings have been written
func (a *Archiver) Archived() uint64 {
	return a.archived.Load()
}

// dumpJournal prints one line per archived booking, oldest file first
func dumpJournal(w io.Writer, dir string) error {
	files, err := storage.Files(dir)
	if err != nil {
		return fmt.Errorf("failed to list journal files: %w", err)
	}

	for _, path := range files {
		bookings, err := storage.ReadFile(path)
		if err != nil {
			return err
		}
		for _, b := range bookings {
			fmt.Fprintf(w, "%s  %s  %-12s %4d nm  %6s  %s\n",
				timecalc.FormatISO(b.SubmittedAt),
				b.ID,
				b.AssetID,
				b.TotalDistanceNM,
				timecalc.FormatDuration(b.TotalFlightMinutes),
				b.Title,
			)
		}
	}
	return nil
}
