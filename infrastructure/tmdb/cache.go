package tmdb

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL keeps metadata for a day. Poster and trailer links rarely
// change faster than that.
const DefaultCacheTTL = 24 * time.Hour

// MetadataSource is the lookup the cache wraps.
type MetadataSource interface {
	FullMovieData(ctx context.Context, titleEN string, year int) (Metadata, error)
}

// CachedClient memoizes metadata lookups with a TTL cache and collapses
// concurrent lookups for the same movie into a single upstream request.
type CachedClient struct {
	source MetadataSource
	cache  *gocache.Cache
	group  singleflight.Group
}

// NewCachedClient wraps a metadata source with caching.
func NewCachedClient(source MetadataSource, ttl time.Duration) *CachedClient {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedClient{
		source: source,
		cache:  gocache.New(ttl, ttl/2),
	}
}

// FullMovieData returns cached metadata when fresh, otherwise fetches from
// the source. Zero-value metadata for unknown movies is cached too, so a
// miss does not hammer the API on every reveal.
func (c *CachedClient) FullMovieData(ctx context.Context, titleEN string, year int) (Metadata, error) {
	key := cacheKey(titleEN, year)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(Metadata), nil
	}

	val, err, _ := c.group.Do(key, func() (any, error) {
		meta, err := c.source.FullMovieData(ctx, titleEN, year)
		if err != nil {
			return Metadata{}, err
		}
		c.cache.SetDefault(key, meta)
		return meta, nil
	})
	if err != nil {
		return Metadata{}, err
	}
	return val.(Metadata), nil
}

func cacheKey(title string, year int) string {
	return fmt.Sprintf("%s|%d", title, year)
}

var _ MetadataSource = (*Client)(nil)
var _ MetadataSource = (*CachedClient)(nil)
