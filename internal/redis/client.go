package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saviobatista/jet-itinerary/internal/types"
)

const (
	// DefaultSessionTTL applies when no TTL is configured
	DefaultSessionTTL = 24 * time.Hour
	assetProfileTTL   = time.Hour
)

// RedisClientInterface defines the Redis operations used by our client
type RedisClientInterface interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Client keeps editing sessions and cached asset profiles in Redis
type Client struct {
	client     RedisClientInterface
	sessionTTL time.Duration
}

// New connects to Redis. Sessions expire after ttl of inactivity.
func New(addr string, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewWithClient(client, ttl), nil
}

// NewWithClient creates a new Redis client with a custom RedisClientInterface (useful for testing)
func NewWithClient(client RedisClientInterface, ttl time.Duration) *Client {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Client{client: client, sessionTTL: ttl}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

func assetKey(id string) string {
	return fmt.Sprintf("asset:%s", id)
}

// setData marshals value and stores it under key
func (c *Client) setData(ctx context.Context, key string, value interface{}, ttl time.Duration, dataType string) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", dataType, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store %s: %w", dataType, err)
	}
	return nil
}

// getData retrieves data from Redis and unmarshals it into the target.
// It reports false when the key does not exist.
func (c *Client) getData(ctx context.Context, key string, target interface{}, dataType string) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s data: %w", dataType, err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s data: %w", dataType, err)
	}

	return true, nil
}

// StoreSession saves an editing session, refreshing its TTL
func (c *Client) StoreSession(ctx context.Context, session *types.Session) error {
	return c.setData(ctx, sessionKey(session.ID), session, c.sessionTTL, "session")
}

// GetSession loads an editing session. It returns nil, nil when the session
// does not exist or has expired.
func (c *Client) GetSession(ctx context.Context, id string) (*types.Session, error) {
	var session types.Session
	found, err := c.getData(ctx, sessionKey(id), &session, "session")
	if err != nil || !found {
		return nil, err
	}
	return &session, nil
}

// DeleteSession discards an editing session
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.client.Del(ctx, sessionKey(id)).Err()
}

// StoreAssetProfile caches an asset profile for an hour
func (c *Client) StoreAssetProfile(ctx context.Context, profile *types.AssetProfile) error {
	return c.setData(ctx, assetKey(profile.ID), profile, assetProfileTTL, "asset profile")
}

// GetAssetProfile returns a cached asset profile, or nil, nil on a miss
func (c *Client) GetAssetProfile(ctx context.Context, id string) (*types.AssetProfile, error) {
	var profile types.AssetProfile
	found, err := c.getData(ctx, assetKey(id), &profile, "asset profile")
	if err != nil || !found {
		return nil, err
	}
	return &profile, nil
}
