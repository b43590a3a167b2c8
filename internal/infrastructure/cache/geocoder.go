package cache

import (
	"context"
	"strings"
	"time"

	basecache "github.com/riskibarqy/club-scraper/internal/platform/cache"
	"github.com/riskibarqy/club-scraper/internal/usecase"
)

type cachedPlace struct {
	value  usecase.Place
	exists bool
}

// Geocoder memoizes lookups by normalized location text. Misses are
// cached too, so an unknown location is asked for once per TTL.
type Geocoder struct {
	next  usecase.Geocoder
	cache *basecache.Store[cachedPlace]
}

// NewGeocoder wraps next with a cache whose entries live for ttl. A zero
// ttl keeps entries for the life of the process.
func NewGeocoder(next usecase.Geocoder, ttl time.Duration) *Geocoder {
	return &Geocoder{next: next, cache: basecache.NewStore[cachedPlace](ttl)}
}

func (g *Geocoder) Geocode(ctx context.Context, location string) (usecase.Place, bool, error) {
	key := "geocode:" + strings.ToLower(strings.Join(strings.Fields(location), " "))
	v, err := g.cache.GetOrLoad(ctx, key, func(ctx context.Context) (cachedPlace, error) {
		place, exists, err := g.next.Geocode(ctx, location)
		if err != nil {
			return cachedPlace{}, err
		}
		return cachedPlace{value: place, exists: exists}, nil
	})
	if err != nil {
		return usecase.Place{}, false, err
	}
	return v.value, v.exists, nil
}
