package nats

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/saviobatista/jet-itinerary/internal/types"
)

const (
	StreamBookings          = "BOOKINGS"
	SubjectBookingSubmitted = "bookings.submitted"
)

// Client publishes and consumes booking events over JetStream
type Client struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// New connects to NATS and makes sure the bookings stream exists
func New(url string) (*Client, error) {
	nc, err := nats.Connect(url, nats.Name("jet-itinerary"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	// Create stream if it doesn't exist
	_, err = js.AddStream(&nats.StreamConfig{
		Name:       StreamBookings,
		Subjects:   []string{SubjectBookingSubmitted},
		Storage:    nats.FileStorage,
		MaxAge:     7 * 24 * time.Hour,
		Duplicates: 10 * time.Minute,
	})
	if err != nil && !strings.Contains(err.Error(), "stream name already in use") {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return &Client{
		conn: nc,
		js:   js,
	}, nil
}

// PublishBookingSubmitted announces a stored booking. The booking ID is the
// message ID, so a retried publish is deduplicated by the stream.
func (c *Client) PublishBookingSubmitted(b *types.Booking) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal booking: %w", err)
	}

	_, err = c.js.Publish(SubjectBookingSubmitted, data, nats.MsgId(b.ID))
	if err != nil {
		return fmt.Errorf("failed to publish booking: %w", err)
	}

	return nil
}

// decodeBooking parses a booking event payload
func decodeBooking(data []byte) (*types.Booking, error) {
	var b types.Booking
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	if b.ID == "" {
		return nil, fmt.Errorf("booking event has no id")
	}
	return &b, nil
}

// SubscribeBookingsSubmitted consumes booking events with a durable consumer.
// Messages are acknowledged when handler succeeds and redelivered when it fails.
func (c *Client) SubscribeBookingsSubmitted(durable string, handler func(*types.Booking) error) (*nats.Subscription, error) {
	sub, err := c.js.Subscribe(SubjectBookingSubmitted, func(msg *nats.Msg) {
		b, err := decodeBooking(msg.Data)
		if err != nil {
			log.Error().Err(err).Msg("Dropping malformed booking event")
			_ = msg.Term()
			return
		}
		if err := handler(b); err != nil {
			log.Warn().Err(err).Str("booking", b.ID).Msg("Booking handler failed, requesting redelivery")
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	}, nats.Durable(durable), nats.ManualAck(), nats.DeliverAll())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	return sub, nil
}

// Close drains and closes the NATS connection
func (c *Client) Close() {
	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			c.conn.Close()
		}
	}
}
