// Package config loads the site, dome and planner settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/naoina/toml"

	"github.com/litescript/ls-skyplan/internal/astro"
	"github.com/litescript/ls-skyplan/internal/ephem"
	"github.com/litescript/ls-skyplan/internal/site"
)

// ErrUnknownDome is returned when a dome name is not configured.
var ErrUnknownDome = errors.New("unknown dome")

// Config holds every setting the planner and CLI need.
type Config struct {
	Site        astro.GeoLocation
	Domes       map[site.Dome]site.DomeGeometry
	DefaultDome site.Dome

	Step       time.Duration
	Resolution time.Duration
	Twilight   ephem.Twilight
	AirMass    string // "secant" or "spherical"
	Workers    int
	Instrument string

	LogLevel    string
	MetricsAddr string
}

// file mirrors the TOML layout. Angles must be written as floats
// ("15.0", not "15").
type file struct {
	Site struct {
		Name      string  `toml:"name"`
		Latitude  float64 `toml:"latitude"`
		Longitude float64 `toml:"longitude"`
		Elevation float64 `toml:"elevation"`
	} `toml:"site"`

	Planner struct {
		Dome       string `toml:"dome"`
		Step       string `toml:"step"`
		Resolution string `toml:"resolution"`
		Twilight   string `toml:"twilight"`
		AirMass    string `toml:"airmass"`
		Workers    int    `toml:"workers"`
		Instrument string `toml:"instrument"`
	} `toml:"planner"`

	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`

	Metrics struct {
		Addr string `toml:"addr"`
	} `toml:"metrics"`

	Dome []domeTable `toml:"dome"`
}

type domeTable struct {
	Name       string  `toml:"name"`
	T0         float64 `toml:"t0"`
	T1         float64 `toml:"t1"`
	T2         float64 `toml:"t2"`
	T3         float64 `toml:"t3"`
	R0         float64 `toml:"r0"`
	R1         float64 `toml:"r1"`
	R2         float64 `toml:"r2"`
	R3         float64 `toml:"r3"`
	TrackLimit float64 `toml:"track_limit"`
	AzMin      float64 `toml:"az_min"`
	AzMax      float64 `toml:"az_max"`
}

func defaults() *file {
	f := &file{}
	f.Site.Name = site.DefaultLocation.Name
	f.Site.Latitude = site.DefaultLocation.LatDeg
	f.Site.Longitude = site.DefaultLocation.LonDeg
	f.Site.Elevation = site.DefaultLocation.ElevationM
	f.Planner.Dome = string(site.DomeMain)
	f.Planner.Step = "10m"
	f.Planner.Resolution = "1m"
	f.Planner.Twilight = "nautical"
	f.Planner.AirMass = "secant"
	f.Planner.Instrument = "imager"
	f.Log.Level = "info"
	return f
}

// Load applies defaults, then the TOML file at path (skipped when path is
// empty), then SKYPLAN_* environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	f := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, f); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(f); err != nil {
		return nil, err
	}
	return build(f)
}

func applyEnv(f *file) error {
	f.Site.Name = envOrDefault("SKYPLAN_SITE_NAME", f.Site.Name)
	f.Planner.Dome = envOrDefault("SKYPLAN_DOME", f.Planner.Dome)
	f.Planner.Step = envOrDefault("SKYPLAN_STEP", f.Planner.Step)
	f.Planner.Resolution = envOrDefault("SKYPLAN_RESOLUTION", f.Planner.Resolution)
	f.Planner.Twilight = envOrDefault("SKYPLAN_TWILIGHT", f.Planner.Twilight)
	f.Planner.AirMass = envOrDefault("SKYPLAN_AIRMASS", f.Planner.AirMass)
	f.Planner.Instrument = envOrDefault("SKYPLAN_INSTRUMENT", f.Planner.Instrument)
	f.Log.Level = envOrDefault("SKYPLAN_LOG_LEVEL", f.Log.Level)
	f.Metrics.Addr = envOrDefault("SKYPLAN_METRICS_ADDR", f.Metrics.Addr)

	floats := []struct {
		key string
		dst *float64
	}{
		{"SKYPLAN_LAT", &f.Site.Latitude},
		{"SKYPLAN_LON", &f.Site.Longitude},
		{"SKYPLAN_ELEVATION", &f.Site.Elevation},
	}
	for _, e := range floats {
		if s := os.Getenv(e.key); s != "" {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", e.key, err)
			}
			*e.dst = v
		}
	}

	if s := os.Getenv("SKYPLAN_WORKERS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid SKYPLAN_WORKERS %q", s)
		}
		f.Planner.Workers = n
	}
	return nil
}

func build(f *file) (*Config, error) {
	cfg := &Config{
		Site: astro.GeoLocation{
			Name:       f.Site.Name,
			LatDeg:     f.Site.Latitude,
			LonDeg:     f.Site.Longitude,
			ElevationM: f.Site.Elevation,
		},
		Domes:       make(map[site.Dome]site.DomeGeometry, len(site.KnownDomes)+len(f.Dome)),
		DefaultDome: site.Dome(f.Planner.Dome),
		AirMass:     f.Planner.AirMass,
		Workers:     f.Planner.Workers,
		Instrument:  f.Planner.Instrument,
		LogLevel:    f.Log.Level,
		MetricsAddr: f.Metrics.Addr,
	}

	if cfg.Site.LatDeg < -90 || cfg.Site.LatDeg > 90 {
		return nil, fmt.Errorf("latitude %v out of range", cfg.Site.LatDeg)
	}
	if cfg.Site.LonDeg < -180 || cfg.Site.LonDeg > 180 {
		return nil, fmt.Errorf("longitude %v out of range", cfg.Site.LonDeg)
	}

	var err error
	if cfg.Step, err = positiveDuration("step", f.Planner.Step); err != nil {
		return nil, err
	}
	if cfg.Resolution, err = positiveDuration("resolution", f.Planner.Resolution); err != nil {
		return nil, err
	}

	switch f.Planner.Twilight {
	case "civil", "nautical", "astronomical", "astro":
		cfg.Twilight = ephem.ParseTwilight(f.Planner.Twilight)
	default:
		return nil, fmt.Errorf("invalid twilight %q (civil, nautical or astronomical)", f.Planner.Twilight)
	}

	switch cfg.AirMass {
	case "secant", "spherical":
	default:
		return nil, fmt.Errorf("invalid airmass model %q (secant or spherical)", cfg.AirMass)
	}

	for name, g := range site.KnownDomes {
		cfg.Domes[name] = g
	}
	for _, d := range f.Dome {
		if d.Name == "" {
			return nil, errors.New("dome table without a name")
		}
		g := site.DomeGeometry{
			T0: d.T0, T1: d.T1, T2: d.T2, T3: d.T3,
			R0: d.R0, R1: d.R1, R2: d.R2, R3: d.R3,
			TrackLimit: d.TrackLimit,
			AzMin:      d.AzMin,
			AzMax:      d.AzMax,
		}
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("dome %s: %w", d.Name, err)
		}
		cfg.Domes[site.Dome(d.Name)] = g
	}

	if _, err := cfg.Dome(string(cfg.DefaultDome)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Dome returns the geometry of the named dome.
func (c *Config) Dome(name string) (site.DomeGeometry, error) {
	g, ok := c.Domes[site.Dome(name)]
	if !ok {
		return site.DomeGeometry{}, fmt.Errorf("%w %q (have %v)", ErrUnknownDome, name, c.DomeNames())
	}
	return g, nil
}

// DomeNames lists the configured domes, built-in ones first.
func (c *Config) DomeNames() []string {
	var names, extra []string
	for _, d := range site.Domes {
		if _, ok := c.Domes[d]; ok {
			names = append(names, string(d))
		}
	}
	for d := range c.Domes {
		if _, builtin := site.KnownDomes[d]; !builtin {
			extra = append(extra, string(d))
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// AirMassModel returns the configured airmass model for the site.
func (c *Config) AirMassModel() astro.AirMassModel {
	if c.AirMass == "spherical" {
		km := c.Site.ElevationKm()
		return astro.ModelFor(&km)
	}
	return astro.ModelFor(nil)
}

func positiveDuration(name, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
