package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/storage"
	"github.com/omegonstudio/fotos-patagonia-sub000/internal/types"
)

// CacheService wraps catalog storage with Redis caching for the hot
// storefront listing paths.
type CacheService struct {
	storage storage.Storage
	redis   *redis.Client
}

// NewCacheService creates a new cache service
func NewCacheService(storage storage.Storage, redisClient *redis.Client) *CacheService {
	return &CacheService{
		storage: storage,
		redis:   redisClient,
	}
}

// Cache key patterns
const (
	AlbumsKey      = "albums:all"
	AlbumPhotosKey = "photos:album:%d"
	AllPhotosKey   = "photos:all"
)

// Cache durations
const (
	AlbumsCacheDuration = 5 * time.Minute  // album list changes rarely
	PhotosCacheDuration = 45 * time.Second // hot listing cache
)

// GetAlbums returns cached albums or fetches from DB
func (c *CacheService) GetAlbums(ctx context.Context) ([]types.Album, error) {
	cached, err := c.redis.Get(ctx, AlbumsKey).Result()
	if err == nil {
		var albums []types.Album
		if err := json.Unmarshal([]byte(cached), &albums); err == nil {
			return albums, nil
		}
	}

	albums, err := c.storage.GetAlbums()
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(albums)
	c.redis.Set(ctx, AlbumsKey, data, AlbumsCacheDuration)

	return albums, nil
}

// GetPhotos returns cached photos (optionally per album) or fetches from DB
func (c *CacheService) GetPhotos(ctx context.Context, albumID *int) ([]types.Photo, error) {
	key := AllPhotosKey
	if albumID != nil {
		key = fmt.Sprintf(AlbumPhotosKey, *albumID)
	}

	cached, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var photos []types.Photo
		if err := json.Unmarshal([]byte(cached), &photos); err == nil {
			return photos, nil
		}
	}

	photos, err := c.storage.GetPhotos(albumID)
	if err != nil {
		return nil, err
	}

	data, _ := json.Marshal(photos)
	c.redis.Set(ctx, key, data, PhotosCacheDuration)

	return photos, nil
}

// InvalidatePhotos clears listing caches after a completed upload batch.
func (c *CacheService) InvalidatePhotos(ctx context.Context, albumID *int) {
	keys := []string{AllPhotosKey, AlbumsKey}
	if albumID != nil {
		keys = append(keys, fmt.Sprintf(AlbumPhotosKey, *albumID))
	}

	for _, key := range keys {
		c.redis.Del(ctx, key)
	}
}
