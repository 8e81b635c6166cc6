package api

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/saviobatista/jet-itinerary/internal/types"
)

// AssetSource resolves asset profiles by ID
type AssetSource interface {
	GetAssetProfile(ctx context.Context, id string) (*types.AssetProfile, error)
}

// AssetCache stores profiles between lookups. GetAssetProfile returns nil, nil on a miss.
type AssetCache interface {
	GetAssetProfile(ctx context.Context, id string) (*types.AssetProfile, error)
	StoreAssetProfile(ctx context.Context, profile *types.AssetProfile) error
}

// CachedAssets reads profiles through a cache in front of the database.
// Cache failures are logged and fall through to the source.
type CachedAssets struct {
	source AssetSource
	cache  AssetCache
}

// NewCachedAssets wraps source with cache
func NewCachedAssets(source AssetSource, cache AssetCache) *CachedAssets {
	return &CachedAssets{source: source, cache: cache}
}

// GetAssetProfile returns the cached profile or loads and caches it
func (a *CachedAssets) GetAssetProfile(ctx context.Context, id string) (*types.AssetProfile, error) {
	profile, err := a.cache.GetAssetProfile(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("asset", id).Msg("Failed to read asset profile from cache")
	}
	if profile != nil {
		return profile, nil
	}

	profile, err = a.source.GetAssetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := a.cache.StoreAssetProfile(ctx, profile); err != nil {
		log.Warn().Err(err).Str("asset", id).Msg("Failed to cache asset profile")
	}
	return profile, nil
}
