package ephem

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (p *countingProvider) bump(kind string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[kind]++
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) MoonPosition(t time.Time, lat, lon float64) (MoonPosition, error) {
	p.bump("pos")
	return MoonPosition{Azimuth: 1, Altitude: 0.5}, p.err
}

func (p *countingProvider) MoonIllumination(t time.Time) (MoonIllumination, error) {
	p.bump("ill")
	return MoonIllumination{Fraction: 0.5, PhaseAngleDeg: 90}, p.err
}

func (p *countingProvider) SunTimes(date time.Time, lat, lon float64) (SunTimes, error) {
	p.bump("sun")
	return SunTimes{Sunset: date.Add(18 * time.Hour)}, p.err
}

func TestCachedProvider_Hits(t *testing.T) {
	inner := &countingProvider{}
	var hits, misses int
	c := NewCachedProvider(inner, func(kind string, hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})

	when := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := c.MoonPosition(when, 19.8, -155.5)
		require.NoError(t, err)
		_, err = c.MoonIllumination(when)
		require.NoError(t, err)
		_, err = c.SunTimes(when, 19.8, -155.5)
		require.NoError(t, err)
	}

	assert.Equal(t, map[string]int{"pos": 1, "ill": 1, "sun": 1}, inner.calls)
	assert.Equal(t, 6, hits)
	assert.Equal(t, 3, misses)
	assert.Equal(t, "counting (cached)", c.Name())
}

func TestCachedProvider_KeysBySite(t *testing.T) {
	inner := &countingProvider{}
	c := NewCachedProvider(inner, nil)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, _ = c.SunTimes(day, 19.8, -155.5)
	_, _ = c.SunTimes(day.Add(5*time.Hour), 19.8, -155.5) // same calendar date
	_, _ = c.SunTimes(day, -30.2, -70.7)
	_, _ = c.SunTimes(day.AddDate(0, 0, 1), 19.8, -155.5)

	assert.Equal(t, 3, inner.calls["sun"])

	c.Invalidate()
	_, _ = c.SunTimes(day, 19.8, -155.5)
	assert.Equal(t, 4, inner.calls["sun"])
}

func TestCachedProvider_ErrorsNotCached(t *testing.T) {
	inner := &countingProvider{err: ErrUnavailable}
	c := NewCachedProvider(inner, nil)
	when := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

	_, err := c.MoonPosition(when, 0, 0)
	assert.True(t, errors.Is(err, ErrUnavailable))
	_, err = c.MoonPosition(when, 0, 0)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, inner.calls["pos"])
}

func TestCachedProvider_Concurrent(t *testing.T) {
	c := NewCachedProvider(&countingProvider{}, nil)
	base := time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			when := base.Add(time.Duration(i%4) * time.Minute)
			_, _ = c.MoonPosition(when, 0, 0)
			_, _ = c.MoonIllumination(when)
			_, _ = c.SunTimes(when, 0, 0)
		}(i)
	}
	wg.Wait()
}
