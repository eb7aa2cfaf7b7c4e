package ephem

import (
	"sync"
	"time"
)

// CachedProvider memoizes another provider. Semester and multi-target runs
// ask for the same night and the same sample instants many times.
type CachedProvider struct {
	inner    Provider
	onLookup func(kind string, hit bool)

	mu       sync.RWMutex
	sunCache map[sunKey]SunTimes
	posCache map[posKey]MoonPosition
	illCache map[int64]MoonIllumination
}

type sunKey struct {
	y, m, d  int
	lat, lon float64
}

type posKey struct {
	t        int64
	lat, lon float64
}

// NewCachedProvider wraps inner. onLookup, if not nil, is told about every
// cache hit and miss; kind is "sun", "moon_position" or "moon_illumination".
func NewCachedProvider(inner Provider, onLookup func(kind string, hit bool)) *CachedProvider {
	return &CachedProvider{
		inner:    inner,
		onLookup: onLookup,
		sunCache: make(map[sunKey]SunTimes),
		posCache: make(map[posKey]MoonPosition),
		illCache: make(map[int64]MoonIllumination),
	}
}

// Name implements Provider.
func (c *CachedProvider) Name() string {
	return c.inner.Name() + " (cached)"
}

// MoonPosition implements Provider.
func (c *CachedProvider) MoonPosition(t time.Time, latDeg, lonDeg float64) (MoonPosition, error) {
	key := posKey{t: t.UnixNano(), lat: latDeg, lon: lonDeg}

	c.mu.RLock()
	cached, ok := c.posCache[key]
	c.mu.RUnlock()
	c.record("moon_position", ok)
	if ok {
		return cached, nil
	}

	pos, err := c.inner.MoonPosition(t, latDeg, lonDeg)
	if err != nil {
		return MoonPosition{}, err
	}

	c.mu.Lock()
	c.posCache[key] = pos
	c.mu.Unlock()
	return pos, nil
}

// MoonIllumination implements Provider.
func (c *CachedProvider) MoonIllumination(t time.Time) (MoonIllumination, error) {
	key := t.UnixNano()

	c.mu.RLock()
	cached, ok := c.illCache[key]
	c.mu.RUnlock()
	c.record("moon_illumination", ok)
	if ok {
		return cached, nil
	}

	ill, err := c.inner.MoonIllumination(t)
	if err != nil {
		return MoonIllumination{}, err
	}

	c.mu.Lock()
	c.illCache[key] = ill
	c.mu.Unlock()
	return ill, nil
}

// SunTimes implements Provider.
func (c *CachedProvider) SunTimes(date time.Time, latDeg, lonDeg float64) (SunTimes, error) {
	y, m, d := date.Date()
	key := sunKey{y: y, m: int(m), d: d, lat: latDeg, lon: lonDeg}

	c.mu.RLock()
	cached, ok := c.sunCache[key]
	c.mu.RUnlock()
	c.record("sun", ok)
	if ok {
		return cached, nil
	}

	st, err := c.inner.SunTimes(date, latDeg, lonDeg)
	if err != nil {
		return SunTimes{}, err
	}

	c.mu.Lock()
	c.sunCache[key] = st
	c.mu.Unlock()
	return st, nil
}

// Invalidate clears every cached entry.
func (c *CachedProvider) Invalidate() {
	c.mu.Lock()
	c.sunCache = make(map[sunKey]SunTimes)
	c.posCache = make(map[posKey]MoonPosition)
	c.illCache = make(map[int64]MoonIllumination)
	c.mu.Unlock()
}

func (c *CachedProvider) record(kind string, hit bool) {
	if c.onLookup != nil {
		c.onLookup(kind, hit)
	}
}
